package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/pkg/utils"
)

type ActionKind int

const (
	ActionText ActionKind = iota + 1
	ActionImage
	ActionVideo
	ActionReel
	ActionStory
)

func (k ActionKind) String() string {
	switch k {
	case ActionText:
		return "text"
	case ActionImage:
		return "image"
	case ActionVideo:
		return "video"
	case ActionReel:
		return "reel"
	case ActionStory:
		return "story"
	}
	return "unknown"
}

// Action is one publisher call for one platform.
type Action struct {
	Platform models.Platform
	Kind     ActionKind
}

var dispatchOrder = []models.Platform{models.PlatformFacebook, models.PlatformInstagram}

// Resolve maps a post onto the publisher calls it needs, facebook first.
// Every post type, content type and platform combination has a defined answer;
// combinations a platform cannot express resolve to no action for it.
// A feed post without media is published as text.
func Resolve(post *models.ScheduledPost) []Action {
	targets := post.Targets()

	contentType := post.ContentType
	if post.PostType == models.PostTypePost && post.MediaPath == "" {
		contentType = models.ContentTypeText
	}

	var actions []Action
	for _, platform := range dispatchOrder {
		if !targets.Has(platform) {
			continue
		}
		if kind, ok := resolveAction(post.PostType, contentType, platform); ok {
			actions = append(actions, Action{Platform: platform, Kind: kind})
		}
	}
	return actions
}

func resolveAction(postType models.PostType, contentType models.ContentType, platform models.Platform) (ActionKind, bool) {
	switch postType {
	case models.PostTypePost:
		switch contentType {
		case models.ContentTypeText:
			return ActionText, platform == models.PlatformFacebook
		case models.ContentTypeImage:
			return ActionImage, true
		case models.ContentTypeVideo:
			return ActionVideo, true
		}
	case models.PostTypeVideo:
		return ActionVideo, true
	case models.PostTypeReel:
		return ActionReel, platform == models.PlatformInstagram
	case models.PostTypeStory:
		return ActionStory, true
	}
	return 0, false
}

// PublishError is the first publisher failure of a post, together with the
// platforms that were published before the post as a whole was failed.
type PublishError struct {
	Err       error
	Published map[models.Platform]string
}

func (e *PublishError) Error() string {
	if len(e.Published) == 0 {
		return e.Err.Error()
	}

	published := make([]string, 0, len(e.Published))
	for platform, id := range e.Published {
		published = append(published, fmt.Sprintf("%s=%s", platform, id))
	}
	sort.Strings(published)
	return fmt.Sprintf("%s (published: %s)", e.Err.Error(), strings.Join(published, ", "))
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// PostStatusUpdater records the terminal outcome of a dispatched post.
type PostStatusUpdater interface {
	MarkPosted(ctx context.Context, id int64, postIDs map[models.Platform]string) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
}

type DispatchService struct {
	store      PostStatusUpdater
	publishers map[models.Platform]Publisher
	uploader   MediaUploader
}

func NewDispatchService(store PostStatusUpdater, facebook, instagram Publisher, uploader MediaUploader) *DispatchService {
	return &DispatchService{
		store: store,
		publishers: map[models.Platform]Publisher{
			models.PlatformFacebook:  facebook,
			models.PlatformInstagram: instagram,
		},
		uploader: uploader,
	}
}

// Dispatch publishes a due post and writes its terminal status.
// A publish failure is recorded on the row and is not returned; only a failed
// status write is.
func (s *DispatchService) Dispatch(ctx context.Context, post *models.ScheduledPost) error {
	postIDs, err := s.Publish(ctx, post)
	if err != nil {
		slog.Error("scheduled post failed", "post_id", post.ID, "error", err)
		if markErr := s.store.MarkFailed(ctx, post.ID, err.Error()); markErr != nil {
			return fmt.Errorf("failed to mark post %d as failed: %w", post.ID, markErr)
		}
		return nil
	}

	if err := s.store.MarkPosted(ctx, post.ID, postIDs); err != nil {
		return fmt.Errorf("failed to mark post %d as posted: %w", post.ID, err)
	}
	slog.Info("scheduled post published", "post_id", post.ID, "post_ids", postIDs)
	return nil
}

// Publish runs every resolved action. A failing platform never prevents the
// other platform's attempt; the returned map holds whichever platforms succeeded.
func (s *DispatchService) Publish(ctx context.Context, post *models.ScheduledPost) (map[models.Platform]string, error) {
	actions := Resolve(post)
	if len(actions) == 0 {
		return nil, fmt.Errorf("%w for post_type=%s content_type=%s platforms=%v",
			ErrNoActions, post.PostType, post.ContentType, post.Platforms)
	}

	postIDs := make(map[models.Platform]string, len(actions))
	var firstErr error
	var publicURL string

	for _, action := range actions {
		publisher, ok := s.publishers[action.Platform]
		if !ok || publisher == nil {
			err := fmt.Errorf("%s: no publisher configured", action.Platform)
			firstErr = firstError(firstErr, err)
			continue
		}

		media := post.MediaPath
		if action.Kind == ActionImage && action.Platform == models.PlatformInstagram && utils.IsLocalFile(media) {
			if publicURL == "" {
				url, err := s.uploader.UploadMediaGetURL(ctx, media)
				if err != nil {
					firstErr = firstError(firstErr, fmt.Errorf("%s: error uploading media: %w", action.Platform, err))
					continue
				}
				publicURL = url
			}
			media = publicURL
		}

		id, err := execute(ctx, publisher, action.Kind, post, media)
		if err != nil {
			slog.Info("publish attempt failed", "post_id", post.ID, "platform", action.Platform, "action", action.Kind.String(), "error", err)
			firstErr = firstError(firstErr, fmt.Errorf("%s: %w", action.Platform, err))
			continue
		}
		postIDs[action.Platform] = id
	}

	if firstErr != nil {
		return postIDs, &PublishError{Err: firstErr, Published: postIDs}
	}
	return postIDs, nil
}

func execute(ctx context.Context, publisher Publisher, kind ActionKind, post *models.ScheduledPost, media string) (string, error) {
	switch kind {
	case ActionText:
		return publisher.PublishText(ctx, post.Content)
	case ActionImage:
		if media == "" {
			return "", ErrMediaRequired
		}
		return publisher.PublishImage(ctx, media, post.Content)
	case ActionVideo:
		if media == "" {
			return "", ErrMediaRequired
		}
		return publisher.PublishVideo(ctx, media, post.Content, post.Content)
	case ActionReel:
		if media == "" {
			return "", ErrMediaRequired
		}
		return publisher.PublishReel(ctx, media, post.Content)
	case ActionStory:
		if media == "" {
			return "", ErrMediaRequired
		}
		return publisher.PublishStory(ctx, media, post.ContentType)
	}
	return "", fmt.Errorf("unknown action %d", kind)
}

func firstError(current, next error) error {
	if current != nil {
		return current
	}
	return next
}
