package job

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/repository"
)

func stage(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("media"), 0o600))

	modTime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func TestStagingCleanupJob_Sweep(t *testing.T) {
	dir := t.TempDir()
	store := repository.NewMemoryScheduledPostRepository()
	ctx := context.Background()

	stale := stage(t, dir, "stale.png", 48*time.Hour)
	fresh := stage(t, dir, "fresh.png", time.Minute)
	referenced := stage(t, dir, "referenced.mp4", 48*time.Hour)
	postedRef := stage(t, dir, "posted.mp4", 48*time.Hour)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	_, err := store.Enqueue(ctx, &models.ScheduledPost{
		PostType:      models.PostTypeReel,
		Platforms:     []models.Platform{models.PlatformInstagram},
		ScheduledTime: time.Now().Add(time.Hour),
		ContentType:   models.ContentTypeVideo,
		MediaPath:     referenced,
	})
	require.NoError(t, err)

	postedID, err := store.Enqueue(ctx, &models.ScheduledPost{
		PostType:      models.PostTypeReel,
		Platforms:     []models.Platform{models.PlatformInstagram},
		ScheduledTime: time.Now().Add(-time.Hour),
		ContentType:   models.ContentTypeVideo,
		MediaPath:     postedRef,
	})
	require.NoError(t, err)
	require.NoError(t, store.MarkPosted(ctx, postedID, nil))

	removed := NewStagingCleanupJob(store, dir, 24*time.Hour).Sweep()
	assert.Equal(t, 2, removed)

	assert.NoFileExists(t, stale)
	assert.NoFileExists(t, postedRef)
	assert.FileExists(t, fresh)
	assert.FileExists(t, referenced)
	assert.DirExists(t, filepath.Join(dir, "nested"))
}

type brokenLister struct{}

func (brokenLister) List(ctx context.Context, status *models.Status) ([]*models.ScheduledPost, error) {
	return nil, errors.New("database is down")
}

func TestStagingCleanupJob_KeepsFilesWhenStoreFails(t *testing.T) {
	dir := t.TempDir()
	stale := stage(t, dir, "stale.png", 48*time.Hour)

	removed := NewStagingCleanupJob(brokenLister{}, dir, 24*time.Hour).Sweep()
	assert.Equal(t, 0, removed)
	assert.FileExists(t, stale)
}

func TestStagingCleanupJob_MissingDirectory(t *testing.T) {
	store := repository.NewMemoryScheduledPostRepository()

	removed := NewStagingCleanupJob(store, filepath.Join(t.TempDir(), "absent"), time.Hour).Sweep()
	assert.Equal(t, 0, removed)
}
