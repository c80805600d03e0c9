package transfer

import "github.com/maheshrc27/postqueue/internal/models"

type PostCreation struct {
	Message       string
	PostType      string
	Platforms     string
	ContentType   string
	ScheduledTime string
}

type PostPublished struct {
	Message string                     `json:"message"`
	PostIDs map[models.Platform]string `json:"post_ids"`
}

type PostScheduled struct {
	Message       string `json:"message"`
	ID            int64  `json:"id"`
	ScheduledTime string `json:"scheduled_time"`
}
