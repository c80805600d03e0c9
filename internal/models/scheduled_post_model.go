package models

import (
	"fmt"
	"time"
)

type PostType string

const (
	PostTypePost  PostType = "post"
	PostTypeVideo PostType = "video"
	PostTypeStory PostType = "story"
	PostTypeReel  PostType = "reel"
)

func ParsePostType(s string) (PostType, error) {
	switch pt := PostType(s); pt {
	case PostTypePost, PostTypeVideo, PostTypeStory, PostTypeReel:
		return pt, nil
	}
	return "", fmt.Errorf("unknown post type %q", s)
}

type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
	ContentTypeVideo ContentType = "video"
)

func ParseContentType(s string) (ContentType, error) {
	switch ct := ContentType(s); ct {
	case ContentTypeText, ContentTypeImage, ContentTypeVideo:
		return ct, nil
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

type Status string

const (
	StatusPending Status = "pending"
	StatusPosted  Status = "posted"
	StatusFailed  Status = "failed"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusPosted, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func (s Status) Terminal() bool {
	return s == StatusPosted || s == StatusFailed
}

type ScheduledPost struct {
	ID            int64               `db:"id" json:"id"`
	PostType      PostType            `db:"post_type" json:"post_type"`
	Platforms     []Platform          `db:"platforms" json:"platforms"`
	ScheduledTime time.Time           `db:"scheduled_time" json:"scheduled_time"`
	ContentType   ContentType         `db:"content_type" json:"content_type"`
	Content       string              `db:"content" json:"content"`
	MediaPath     string              `db:"media_path" json:"media_path,omitempty"`
	Status        Status              `db:"status" json:"status"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	PostedAt      *time.Time          `db:"posted_at" json:"posted_at,omitempty"`
	PostIDs       map[Platform]string `db:"post_ids" json:"post_ids,omitempty"`
	ErrorMessage  string              `db:"error_message" json:"error_message,omitempty"`
}

// Targets collapses the stored platform list into the set dispatch works on.
func (p *ScheduledPost) Targets() PlatformSet {
	return NewPlatformSet(p.Platforms...)
}
