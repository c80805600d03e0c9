package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/postqueue/internal/models"
)

func enqueueText(t *testing.T, repo ScheduledPostRepository, at time.Time) int64 {
	t.Helper()
	id, err := repo.Enqueue(context.Background(), &models.ScheduledPost{
		PostType:      models.PostTypePost,
		Platforms:     []models.Platform{models.PlatformFacebook},
		ScheduledTime: at,
		ContentType:   models.ContentTypeText,
		Content:       "hello",
	})
	require.NoError(t, err)
	return id
}

func TestMemoryRepository_EnqueueIsPendingAndNotDueEarly(t *testing.T) {
	repo := NewMemoryScheduledPostRepository()
	ctx := context.Background()
	now := time.Now()

	id := enqueueText(t, repo, now.Add(time.Hour))

	post, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, models.StatusPending, post.Status)
	assert.False(t, post.CreatedAt.IsZero())

	due, err := repo.DueItems(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = repo.DueItems(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, id, due[0].ID)
}

func TestMemoryRepository_DueItemsOrder(t *testing.T) {
	repo := NewMemoryScheduledPostRepository()
	now := time.Now()

	later := enqueueText(t, repo, now.Add(-time.Minute))
	earlier := enqueueText(t, repo, now.Add(-2*time.Minute))
	sameAsLater := enqueueText(t, repo, now.Add(-time.Minute))

	due, err := repo.DueItems(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, []int64{earlier, later, sameAsLater}, []int64{due[0].ID, due[1].ID, due[2].ID})
}

func TestMemoryRepository_TerminalTransitions(t *testing.T) {
	repo := NewMemoryScheduledPostRepository()
	ctx := context.Background()
	now := time.Now()

	posted := enqueueText(t, repo, now.Add(-time.Minute))
	failed := enqueueText(t, repo, now.Add(-time.Minute))

	ids := map[models.Platform]string{models.PlatformFacebook: "1_2"}
	require.NoError(t, repo.MarkPosted(ctx, posted, ids))
	require.NoError(t, repo.MarkFailed(ctx, failed, "boom"))

	ids[models.PlatformInstagram] = "mutated after the call"

	p, err := repo.GetByID(ctx, posted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPosted, p.Status)
	require.NotNil(t, p.PostedAt)
	assert.Equal(t, map[models.Platform]string{models.PlatformFacebook: "1_2"}, p.PostIDs)
	assert.Empty(t, p.ErrorMessage)

	f, err := repo.GetByID(ctx, failed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, f.Status)
	assert.Equal(t, "boom", f.ErrorMessage)
	assert.Nil(t, f.PostIDs)
	assert.Nil(t, f.PostedAt)

	assert.ErrorIs(t, repo.MarkPosted(ctx, posted, nil), ErrNotPending)
	assert.ErrorIs(t, repo.MarkFailed(ctx, posted, "again"), ErrNotPending)
	assert.ErrorIs(t, repo.MarkFailed(ctx, 999, "missing"), ErrNotPending)

	due, err := repo.DueItems(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestMemoryRepository_ListAndRemove(t *testing.T) {
	repo := NewMemoryScheduledPostRepository()
	ctx := context.Background()
	now := time.Now()

	first := enqueueText(t, repo, now.Add(-time.Hour))
	second := enqueueText(t, repo, now.Add(time.Hour))
	require.NoError(t, repo.MarkPosted(ctx, first, map[models.Platform]string{}))

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second, all[0].ID)
	assert.Equal(t, first, all[1].ID)

	pending := models.StatusPending
	onlyPending, err := repo.List(ctx, &pending)
	require.NoError(t, err)
	require.Len(t, onlyPending, 1)
	assert.Equal(t, second, onlyPending[0].ID)

	require.NoError(t, repo.Remove(ctx, first))
	assert.ErrorIs(t, repo.Remove(ctx, first), ErrNotFound)

	all, err = repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, second, all[0].ID)

	gone, err := repo.GetByID(ctx, first)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemoryRepository_RejectsMissingFields(t *testing.T) {
	repo := NewMemoryScheduledPostRepository()

	_, err := repo.Enqueue(context.Background(), &models.ScheduledPost{
		Platforms:   []models.Platform{models.PlatformFacebook},
		ContentType: models.ContentTypeText,
	})
	assert.ErrorIs(t, err, ErrEmptyField)
}

func TestMemoryRepository_AcceptsEmptyContent(t *testing.T) {
	repo := NewMemoryScheduledPostRepository()

	id, err := repo.Enqueue(context.Background(), &models.ScheduledPost{
		PostType:    models.PostTypeStory,
		Platforms:   []models.Platform{models.PlatformInstagram},
		ContentType: models.ContentTypeImage,
		MediaPath:   "/srv/uploads/story.png",
	})
	require.NoError(t, err)
	assert.NotZero(t, id)
}
