package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
)

var _ ScheduledPostRepository = (*MemoryScheduledPostRepository)(nil)

// MemoryScheduledPostRepository keeps the queue in process memory. It serialises
// writes with a mutex and loses everything on restart.
type MemoryScheduledPostRepository struct {
	mu     sync.Mutex
	nextID int64
	posts  map[int64]*models.ScheduledPost
	now    func() time.Time
}

func NewMemoryScheduledPostRepository() *MemoryScheduledPostRepository {
	return &MemoryScheduledPostRepository{
		posts: make(map[int64]*models.ScheduledPost),
		now:   time.Now,
	}
}

func (r *MemoryScheduledPostRepository) Enqueue(ctx context.Context, post *models.ScheduledPost) (int64, error) {
	if post.PostType == "" || post.ContentType == "" || len(post.Platforms) == 0 {
		return 0, ErrEmptyField
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := clonePost(post)
	stored.ID = r.nextID
	stored.Status = models.StatusPending
	stored.CreatedAt = r.now().UTC()
	stored.PostedAt = nil
	stored.PostIDs = nil
	stored.ErrorMessage = ""
	r.posts[stored.ID] = stored

	post.ID = stored.ID
	post.Status = stored.Status
	post.CreatedAt = stored.CreatedAt
	return stored.ID, nil
}

func (r *MemoryScheduledPostRepository) DueItems(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []*models.ScheduledPost
	for _, post := range r.posts {
		if post.Status == models.StatusPending && !post.ScheduledTime.After(now) {
			due = append(due, clonePost(post))
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].ScheduledTime.Equal(due[j].ScheduledTime) {
			return due[i].ID < due[j].ID
		}
		return due[i].ScheduledTime.Before(due[j].ScheduledTime)
	})
	return due, nil
}

func (r *MemoryScheduledPostRepository) MarkPosted(ctx context.Context, id int64, postIDs map[models.Platform]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok || post.Status != models.StatusPending {
		return ErrNotPending
	}

	postedAt := r.now().UTC()
	post.Status = models.StatusPosted
	post.PostedAt = &postedAt
	post.PostIDs = make(map[models.Platform]string, len(postIDs))
	for platform, remoteID := range postIDs {
		post.PostIDs[platform] = remoteID
	}
	post.ErrorMessage = ""
	return nil
}

func (r *MemoryScheduledPostRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok || post.Status != models.StatusPending {
		return ErrNotPending
	}

	post.Status = models.StatusFailed
	post.ErrorMessage = errorMessage
	post.PostIDs = nil
	return nil
}

func (r *MemoryScheduledPostRepository) List(ctx context.Context, status *models.Status) ([]*models.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var posts []*models.ScheduledPost
	for _, post := range r.posts {
		if status != nil && post.Status != *status {
			continue
		}
		posts = append(posts, clonePost(post))
	}

	sort.Slice(posts, func(i, j int) bool {
		if posts[i].ScheduledTime.Equal(posts[j].ScheduledTime) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].ScheduledTime.After(posts[j].ScheduledTime)
	})
	return posts, nil
}

func (r *MemoryScheduledPostRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(post), nil
}

func (r *MemoryScheduledPostRepository) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func clonePost(post *models.ScheduledPost) *models.ScheduledPost {
	c := *post
	c.Platforms = append([]models.Platform(nil), post.Platforms...)
	if post.PostedAt != nil {
		t := *post.PostedAt
		c.PostedAt = &t
	}
	if post.PostIDs != nil {
		c.PostIDs = make(map[models.Platform]string, len(post.PostIDs))
		for platform, id := range post.PostIDs {
			c.PostIDs[platform] = id
		}
	}
	return &c
}
