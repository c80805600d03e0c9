package service

import (
	"context"
	"errors"

	"github.com/maheshrc27/postqueue/internal/models"
)

var (
	ErrUnsupported   = errors.New("operation not supported by platform")
	ErrNoActions     = errors.New("no publish action")
	ErrMediaRequired = errors.New("media is required for this post")
)

// Publisher performs single network publishes against one platform and
// returns the identifier the platform assigned.
type Publisher interface {
	PublishText(ctx context.Context, message string) (string, error)
	PublishImage(ctx context.Context, media, caption string) (string, error)
	PublishVideo(ctx context.Context, mediaPath, title, caption string) (string, error)
	PublishReel(ctx context.Context, mediaPath, caption string) (string, error)
	PublishStory(ctx context.Context, mediaPath string, contentType models.ContentType) (string, error)
}

// MediaUploader turns a local file into a publicly reachable URL.
type MediaUploader interface {
	UploadMediaGetURL(ctx context.Context, localPath string) (string, error)
}
