package queue

import (
	"context"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
)

// PostSource yields the pending posts whose scheduled time has passed and
// finalises a row the dispatcher could not.
type PostSource interface {
	DueItems(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, post *models.ScheduledPost) error
}

// Scheduler is the single polling worker: fetch due posts, dispatch them one
// by one, sleep, repeat. Running two schedulers against one store is unsupported.
type Scheduler struct {
	store      PostSource
	dispatcher Dispatcher
	interval   time.Duration
	now        func() time.Time
}

func NewScheduler(store PostSource, dispatcher Dispatcher, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		interval:   interval,
		now:        time.Now,
	}
}
