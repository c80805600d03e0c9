package job

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
)

// PendingLister reports the posts still waiting to be dispatched.
type PendingLister interface {
	List(ctx context.Context, status *models.Status) ([]*models.ScheduledPost, error)
}

// StagingCleanupJob removes staged uploads that no pending post refers to
// once they are older than the retention period.
type StagingCleanupJob struct {
	store     PendingLister
	dir       string
	retention time.Duration
	now       func() time.Time
}

func NewStagingCleanupJob(store PendingLister, dir string, retention time.Duration) *StagingCleanupJob {
	return &StagingCleanupJob{
		store:     store,
		dir:       dir,
		retention: retention,
		now:       time.Now,
	}
}

// Sweep returns the number of files removed.
func (j *StagingCleanupJob) Sweep() int {
	ctx := context.Background()

	pending := models.StatusPending
	posts, err := j.store.List(ctx, &pending)
	if err != nil {
		slog.Info(err.Error())
		return 0
	}

	referenced := make(map[string]struct{}, len(posts))
	for _, post := range posts {
		if post.MediaPath == "" {
			continue
		}
		if abs, err := filepath.Abs(post.MediaPath); err == nil {
			referenced[abs] = struct{}{}
		}
	}

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		slog.Info(err.Error())
		return 0
	}

	cutoff := j.now().Add(-j.retention)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path, err := filepath.Abs(filepath.Join(j.dir, entry.Name()))
		if err != nil {
			continue
		}
		if _, ok := referenced[path]; ok {
			continue
		}

		if err := os.Remove(path); err != nil {
			slog.Info("unable to remove staged file", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		slog.Info("removed stale staged files", "count", removed, "dir", j.dir)
	}
	return removed
}
