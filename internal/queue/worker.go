package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
)

// Run ticks immediately and then once per interval after each tick finishes,
// until ctx is cancelled. Tick failures are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("scheduler started", "interval", s.interval.String())

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-timer.C:
			s.safeTick(ctx)
			timer.Reset(s.interval)
		}
	}
}

func (s *Scheduler) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduler tick panicked", "panic", fmt.Sprint(r))
		}
	}()

	if _, err := s.Tick(ctx); err != nil {
		slog.Error("scheduler tick failed", "error", err)
	}
}

// Tick dispatches every post due now, sequentially and in ascending scheduled
// time. Cancelling ctx stops before the next post; a post already being
// dispatched runs to completion. It returns the number of posts dispatched.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	posts, err := s.store.DueItems(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to fetch due posts: %w", err)
	}

	if len(posts) == 0 {
		slog.Info("no pending posts to process")
		return 0, nil
	}

	slog.Info("processing scheduled posts", "count", len(posts))

	processed := 0
	for _, post := range posts {
		if ctx.Err() != nil {
			slog.Info("scheduler interrupted", "remaining", len(posts)-processed)
			break
		}

		slog.Info("processing post",
			"post_id", post.ID,
			"post_type", post.PostType,
			"platforms", post.Platforms,
			"scheduled_time", post.ScheduledTime.Format(time.RFC3339),
		)

		if err := s.dispatch(context.WithoutCancel(ctx), post); err != nil {
			slog.Error("error dispatching post", "post_id", post.ID, "error", err)
		}
		processed++
	}
	return processed, nil
}

// dispatch runs one post. A panic fails that row so it is neither retried on
// the next tick nor allowed to hold back the rows after it.
func (s *Scheduler) dispatch(ctx context.Context, post *models.ScheduledPost) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err = fmt.Errorf("dispatch panicked: %v", r)
		if markErr := s.store.MarkFailed(ctx, post.ID, err.Error()); markErr != nil {
			slog.Error("unable to fail panicking post", "post_id", post.ID, "error", markErr)
		}
	}()

	return s.dispatcher.Dispatch(ctx, post)
}
