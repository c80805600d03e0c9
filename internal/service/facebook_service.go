package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	config "github.com/maheshrc27/postqueue/configs"
	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/transfer"
	"github.com/maheshrc27/postqueue/pkg/utils"
)

// FacebookService publishes to a single Facebook page. Local media is sent
// as multipart bytes, remote media by URL.
type FacebookService struct {
	cfg   config.Facebook
	graph *graphClient
}

func NewFacebookService(cfg config.Config) *FacebookService {
	return &FacebookService{
		cfg:   cfg.Facebook,
		graph: newGraphClient(cfg),
	}
}

func (s *FacebookService) PublishText(ctx context.Context, message string) (string, error) {
	data := url.Values{}
	data.Set("message", message)
	data.Set("access_token", s.cfg.AccessToken)

	var result transfer.GraphIDResponse
	if err := s.graph.postForm(ctx, s.graph.endpoint(s.cfg.PageID, "feed"), data, &result); err != nil {
		return "", fmt.Errorf("failed to publish feed post on Facebook: %w", err)
	}
	return postID(result)
}

func (s *FacebookService) PublishImage(ctx context.Context, media, caption string) (string, error) {
	if media == "" {
		return "", ErrMediaRequired
	}

	var result transfer.GraphIDResponse
	if err := s.uploadPhoto(ctx, media, map[string]string{"message": caption}, &result); err != nil {
		return "", fmt.Errorf("failed to publish photo on Facebook: %w", err)
	}
	return postID(result)
}

func (s *FacebookService) PublishVideo(ctx context.Context, mediaPath, title, caption string) (string, error) {
	if mediaPath == "" {
		return "", ErrMediaRequired
	}

	endpoint := s.graph.endpoint(s.cfg.PageID, "videos")
	fields := map[string]string{
		"title":        title,
		"description":  caption,
		"access_token": s.cfg.AccessToken,
	}

	var result transfer.GraphIDResponse
	var err error
	if utils.IsRemoteURL(mediaPath) {
		data := formValues(fields)
		data.Set("file_url", mediaPath)
		err = s.graph.postForm(ctx, endpoint, data, &result)
	} else {
		err = s.graph.postFile(ctx, endpoint, fields, "source", mediaPath, &result)
	}
	if err != nil {
		return "", fmt.Errorf("failed to publish video on Facebook: %w", err)
	}
	return postID(result)
}

func (s *FacebookService) PublishReel(ctx context.Context, mediaPath, caption string) (string, error) {
	return "", fmt.Errorf("facebook reel: %w", ErrUnsupported)
}

func (s *FacebookService) PublishStory(ctx context.Context, mediaPath string, contentType models.ContentType) (string, error) {
	if mediaPath == "" {
		return "", ErrMediaRequired
	}
	if contentType == models.ContentTypeVideo {
		return s.videoStory(ctx, mediaPath)
	}
	return s.photoStory(ctx, mediaPath)
}

// photoStory uploads the photo unpublished and then attaches it to a page story.
func (s *FacebookService) photoStory(ctx context.Context, media string) (string, error) {
	var photo transfer.GraphIDResponse
	if err := s.uploadPhoto(ctx, media, map[string]string{"published": "false"}, &photo); err != nil {
		return "", fmt.Errorf("failed to upload story photo on Facebook: %w", err)
	}
	if photo.ID == "" {
		return "", errNoID
	}

	data := url.Values{}
	data.Set("photo_id", photo.ID)
	data.Set("access_token", s.cfg.AccessToken)

	var result transfer.GraphIDResponse
	if err := s.graph.postForm(ctx, s.graph.endpoint(s.cfg.PageID, "photo_stories"), data, &result); err != nil {
		return "", fmt.Errorf("failed to publish photo story on Facebook: %w", err)
	}
	return postID(result)
}

// videoStory runs the start, upload, finish sequence of the page video story API.
func (s *FacebookService) videoStory(ctx context.Context, media string) (string, error) {
	endpoint := s.graph.endpoint(s.cfg.PageID, "video_stories")

	start := url.Values{}
	start.Set("upload_phase", "start")
	start.Set("access_token", s.cfg.AccessToken)

	var session transfer.GraphVideoStoryStart
	if err := s.graph.postForm(ctx, endpoint, start, &session); err != nil {
		return "", fmt.Errorf("failed to start video story upload on Facebook: %w", err)
	}
	if session.VideoID == "" || session.UploadURL == "" {
		return "", fmt.Errorf("failed to start video story upload on Facebook: %w", errNoID)
	}

	if err := s.uploadStoryVideo(ctx, session.UploadURL, media); err != nil {
		return "", fmt.Errorf("failed to upload story video on Facebook: %w", err)
	}

	finish := url.Values{}
	finish.Set("upload_phase", "finish")
	finish.Set("video_id", session.VideoID)
	finish.Set("access_token", s.cfg.AccessToken)

	var result transfer.GraphVideoStoryFinish
	if err := s.graph.postForm(ctx, endpoint, finish, &result); err != nil {
		return "", fmt.Errorf("failed to publish video story on Facebook: %w", err)
	}
	if result.PostID != "" {
		return result.PostID, nil
	}
	return session.VideoID, nil
}

func (s *FacebookService) uploadStoryVideo(ctx context.Context, uploadURL, media string) error {
	if utils.IsRemoteURL(media) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, nil)
		if err != nil {
			return fmt.Errorf("error creating request: %w", err)
		}
		req.Header.Set("Authorization", "OAuth "+s.cfg.AccessToken)
		req.Header.Set("file_url", media)
		return s.graph.do(req, nil)
	}

	file, err := os.Open(media)
	if err != nil {
		return fmt.Errorf("error opening media file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("error reading media file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, file)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Authorization", "OAuth "+s.cfg.AccessToken)
	req.Header.Set("offset", "0")
	req.Header.Set("file_size", strconv.FormatInt(info.Size(), 10))
	return s.graph.do(req, nil)
}

func (s *FacebookService) uploadPhoto(ctx context.Context, media string, fields map[string]string, out any) error {
	endpoint := s.graph.endpoint(s.cfg.PageID, "photos")
	fields["access_token"] = s.cfg.AccessToken

	if utils.IsRemoteURL(media) {
		data := formValues(fields)
		data.Set("url", media)
		return s.graph.postForm(ctx, endpoint, data, out)
	}
	return s.graph.postFile(ctx, endpoint, fields, "source", media, out)
}

func formValues(fields map[string]string) url.Values {
	data := url.Values{}
	for key, value := range fields {
		data.Set(key, value)
	}
	return data
}

// postID prefers the feed post id Facebook returns for photos over the media id.
func postID(result transfer.GraphIDResponse) (string, error) {
	if result.PostID != "" {
		return result.PostID, nil
	}
	if result.ID != "" {
		return result.ID, nil
	}
	return "", errNoID
}
