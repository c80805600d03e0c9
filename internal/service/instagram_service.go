package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	config "github.com/maheshrc27/postqueue/configs"
	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/transfer"
	"github.com/maheshrc27/postqueue/pkg/utils"
)

const (
	containerFinished = "FINISHED"
	containerError    = "ERROR"
	containerExpired  = "EXPIRED"
)

var errContainerNotReady = errors.New("instagram media container did not finish processing")

// InstagramService publishes through the Instagram Graph container flow:
// create a media container, wait for video processing, then media_publish.
// Instagram only accepts public URLs, so local files go through the uploader.
type InstagramService struct {
	cfg      config.Instagram
	graph    *graphClient
	uploader MediaUploader
	sleep    func(context.Context, time.Duration) error
}

func NewInstagramService(cfg config.Config, uploader MediaUploader) *InstagramService {
	return &InstagramService{
		cfg:      cfg.Instagram,
		graph:    newGraphClient(cfg),
		uploader: uploader,
		sleep:    sleepContext,
	}
}

func (s *InstagramService) PublishText(ctx context.Context, message string) (string, error) {
	return "", fmt.Errorf("instagram text post: %w", ErrUnsupported)
}

func (s *InstagramService) PublishImage(ctx context.Context, media, caption string) (string, error) {
	imageURL, err := s.mediaURL(ctx, media)
	if err != nil {
		return "", err
	}

	data := url.Values{}
	data.Set("image_url", imageURL)
	data.Set("caption", caption)

	id, err := s.publish(ctx, data, false)
	if err != nil {
		return "", fmt.Errorf("failed to publish image on Instagram: %w", err)
	}
	return id, nil
}

// PublishVideo posts the video as a reel shared to the main feed; the title is
// not used by Instagram.
func (s *InstagramService) PublishVideo(ctx context.Context, mediaPath, title, caption string) (string, error) {
	videoURL, err := s.mediaURL(ctx, mediaPath)
	if err != nil {
		return "", err
	}

	data := url.Values{}
	data.Set("media_type", "REELS")
	data.Set("video_url", videoURL)
	data.Set("caption", caption)
	data.Set("share_to_feed", "true")

	id, err := s.publish(ctx, data, true)
	if err != nil {
		return "", fmt.Errorf("failed to publish video on Instagram: %w", err)
	}
	return id, nil
}

func (s *InstagramService) PublishReel(ctx context.Context, mediaPath, caption string) (string, error) {
	videoURL, err := s.mediaURL(ctx, mediaPath)
	if err != nil {
		return "", err
	}

	data := url.Values{}
	data.Set("media_type", "REELS")
	data.Set("video_url", videoURL)
	data.Set("caption", caption)

	id, err := s.publish(ctx, data, true)
	if err != nil {
		return "", fmt.Errorf("failed to publish reel on Instagram: %w", err)
	}
	return id, nil
}

func (s *InstagramService) PublishStory(ctx context.Context, mediaPath string, contentType models.ContentType) (string, error) {
	mediaURL, err := s.mediaURL(ctx, mediaPath)
	if err != nil {
		return "", err
	}

	data := url.Values{}
	data.Set("media_type", "STORIES")

	isVideo := contentType == models.ContentTypeVideo
	if isVideo {
		data.Set("video_url", mediaURL)
	} else {
		data.Set("image_url", mediaURL)
	}

	id, err := s.publish(ctx, data, isVideo)
	if err != nil {
		if isVideo {
			return "", fmt.Errorf("failed to publish video story on Instagram: %w", err)
		}
		return "", fmt.Errorf("failed to publish photo story on Instagram: %w", err)
	}
	return id, nil
}

func (s *InstagramService) mediaURL(ctx context.Context, media string) (string, error) {
	if media == "" {
		return "", ErrMediaRequired
	}
	if utils.IsRemoteURL(media) {
		return media, nil
	}
	if s.uploader == nil {
		return "", fmt.Errorf("no uploader configured for local media %s", media)
	}
	return s.uploader.UploadMediaGetURL(ctx, media)
}

func (s *InstagramService) publish(ctx context.Context, container url.Values, waitForProcessing bool) (string, error) {
	container.Set("access_token", s.cfg.AccessToken)

	var created transfer.GraphIDResponse
	if err := s.graph.postForm(ctx, s.graph.endpoint(s.cfg.UserID, "media"), container, &created); err != nil {
		return "", fmt.Errorf("error creating media container: %w", err)
	}
	if created.ID == "" {
		return "", errNoID
	}

	if waitForProcessing {
		if err := s.waitForContainer(ctx, created.ID); err != nil {
			return "", err
		}
	}

	data := url.Values{}
	data.Set("creation_id", created.ID)
	data.Set("access_token", s.cfg.AccessToken)

	var published transfer.GraphIDResponse
	if err := s.graph.postForm(ctx, s.graph.endpoint(s.cfg.UserID, "media_publish"), data, &published); err != nil {
		return "", fmt.Errorf("error publishing media container: %w", err)
	}
	if published.ID == "" {
		return "", errNoID
	}

	slog.Info("published to instagram", "container_id", created.ID, "media_id", published.ID)
	return published.ID, nil
}

func (s *InstagramService) waitForContainer(ctx context.Context, containerID string) error {
	query := url.Values{}
	query.Set("fields", "status_code,status")
	query.Set("access_token", s.cfg.AccessToken)

	attempts := max(s.cfg.PollAttempts, 1)
	for i := 0; i < attempts; i++ {
		var status transfer.GraphContainerStatus
		if err := s.graph.get(ctx, s.graph.endpoint(containerID), query, &status); err != nil {
			return fmt.Errorf("error checking media container %s: %w", containerID, err)
		}

		switch status.StatusCode {
		case containerFinished:
			return nil
		case containerError, containerExpired:
			return fmt.Errorf("media container %s %s: %s", containerID, status.StatusCode, status.Status)
		}

		if err := s.sleep(ctx, s.cfg.PollInterval); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d checks", errContainerNotReady, attempts)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
