package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/repository"
	"github.com/maheshrc27/postqueue/internal/transfer"
	"github.com/maheshrc27/postqueue/pkg/utils"
)

const scheduleFormLayout = "2006-01-02T15:04"

// ImmediatePublisher publishes a post right away without queueing it.
type ImmediatePublisher interface {
	Publish(ctx context.Context, post *models.ScheduledPost) (map[models.Platform]string, error)
}

type PostHandler struct {
	store     repository.ScheduledPostRepository
	publisher ImmediatePublisher
	uploadDir string
}

func NewPostHandler(store repository.ScheduledPostRepository, publisher ImmediatePublisher, uploadDir string) *PostHandler {
	return &PostHandler{store: store, publisher: publisher, uploadDir: uploadDir}
}

// CreatePost accepts a message and an optional media file. Without a
// scheduled_time the post is published immediately and the staged file is
// removed afterwards; otherwise a queue row is created.
func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	pc := &transfer.PostCreation{
		Message:       c.FormValue("message"),
		PostType:      c.FormValue("post_type"),
		Platforms:     c.FormValue("platforms"),
		ContentType:   c.FormValue("content_type"),
		ScheduledTime: c.FormValue("scheduled_time"),
	}

	mediaPath, err := h.stageMedia(c)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to store uploaded file",
		})
	}

	post, err := buildPost(pc, mediaPath)
	if err != nil {
		removeStaged(mediaPath)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if pc.ScheduledTime == "" {
		return h.publishNow(c, post)
	}

	id, err := h.store.Enqueue(c.Context(), post)
	if err != nil {
		removeStaged(mediaPath)
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error scheduling post",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(transfer.PostScheduled{
		Message:       "Post scheduled successfully",
		ID:            id,
		ScheduledTime: post.ScheduledTime.Format(time.RFC3339),
	})
}

func (h *PostHandler) publishNow(c *fiber.Ctx, post *models.ScheduledPost) error {
	defer removeStaged(post.MediaPath)

	postIDs, err := h.publisher.Publish(c.Context(), post)
	if err != nil {
		slog.Error("immediate publish failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":    err.Error(),
			"post_ids": postIDs,
		})
	}

	return c.Status(fiber.StatusOK).JSON(transfer.PostPublished{
		Message: "Post published successfully",
		PostIDs: postIDs,
	})
}

func (h *PostHandler) stageMedia(c *fiber.Ctx) (string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return "", nil
	}

	files := form.File["media"]
	if len(files) == 0 || files[0].Filename == "" {
		return "", nil
	}

	name, err := utils.StagedFileName(files[0].Filename)
	if err != nil {
		return "", err
	}

	path, err := filepath.Abs(filepath.Join(h.uploadDir, name))
	if err != nil {
		return "", err
	}

	if err := c.SaveFile(files[0], path); err != nil {
		return "", fmt.Errorf("error saving upload: %w", err)
	}
	return path, nil
}

func buildPost(pc *transfer.PostCreation, mediaPath string) (*models.ScheduledPost, error) {
	postType := models.PostTypePost
	if pc.PostType != "" {
		pt, err := models.ParsePostType(pc.PostType)
		if err != nil {
			return nil, err
		}
		postType = pt
	}

	platforms, err := parsePlatforms(pc.Platforms)
	if err != nil {
		return nil, err
	}

	var sniffed models.ContentType
	if mediaPath != "" {
		media, err := utils.SniffMedia(mediaPath)
		if err != nil {
			return nil, err
		}
		sniffed = models.ContentType(media.Kind)
	}

	contentType := models.ContentTypeText
	switch {
	case pc.ContentType != "":
		contentType, err = models.ParseContentType(pc.ContentType)
		if err != nil {
			return nil, err
		}
	case sniffed != "":
		contentType = sniffed
	}

	textOnly := contentType == models.ContentTypeText || (postType == models.PostTypePost && mediaPath == "")
	if textOnly && strings.TrimSpace(pc.Message) == "" {
		return nil, errors.New("message cannot be empty")
	}

	scheduledTime := time.Now()
	if pc.ScheduledTime != "" {
		scheduledTime, err = parseScheduledTime(pc.ScheduledTime)
		if err != nil {
			return nil, err
		}
	}

	return &models.ScheduledPost{
		PostType:      postType,
		Platforms:     platforms,
		ScheduledTime: scheduledTime,
		ContentType:   contentType,
		Content:       pc.Message,
		MediaPath:     mediaPath,
	}, nil
}

func parsePlatforms(raw string) ([]models.Platform, error) {
	if strings.TrimSpace(raw) == "" {
		return []models.Platform{models.PlatformFacebook}, nil
	}

	var platforms []models.Platform
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		p, err := models.ParsePlatform(part)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, p)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no platforms selected")
	}
	return platforms, nil
}

func parseScheduledTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(scheduleFormLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid scheduled time format: %w", err)
	}
	return t, nil
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	var status *models.Status
	if raw := c.Query("status"); raw != "" {
		st, err := models.ParseStatus(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		status = &st
	}

	posts, err := h.store.List(c.Context(), status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}
	if posts == nil {
		posts = []*models.ScheduledPost{}
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	id, err := GetPostID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	post, err := h.store.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to load post",
		})
	}
	if post == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Post doesn't exist",
		})
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	id, err := GetPostID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.store.Remove(c.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Post doesn't exist",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove post",
		})
	}

	slog.Info("scheduled post deleted", "post_id", id)
	return c.SendStatus(fiber.StatusNoContent)
}

// Register mounts the post routes on r.
func (h *PostHandler) Register(r fiber.Router) {
	r.Post("/posts", h.CreatePost)
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/:id", h.GetPost)
	r.Delete("/posts/:id", h.RemovePost)
}
