package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
)

var (
	// ErrNotPending is returned when a terminal update targets a row that is
	// missing or already posted/failed.
	ErrNotPending = errors.New("scheduled post is not pending")
	ErrNotFound   = errors.New("scheduled post not found")
	ErrEmptyField = errors.New("scheduled post is missing a required field")
)

type ScheduledPostRepository interface {
	Enqueue(ctx context.Context, post *models.ScheduledPost) (int64, error)
	DueItems(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
	MarkPosted(ctx context.Context, id int64, postIDs map[models.Platform]string) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
	List(ctx context.Context, status *models.Status) ([]*models.ScheduledPost, error)
	GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error)
	Remove(ctx context.Context, id int64) error
}

type scheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

const selectColumns = `id, post_type, platforms, scheduled_time, content_type, content, media_path,
	status, created_at, posted_at, post_ids, error_message`

func (r *scheduledPostRepository) Enqueue(ctx context.Context, post *models.ScheduledPost) (int64, error) {
	if post.PostType == "" || post.ContentType == "" || len(post.Platforms) == 0 {
		return 0, ErrEmptyField
	}

	platforms, err := json.Marshal(post.Platforms)
	if err != nil {
		return 0, fmt.Errorf("error encoding platforms: %w", err)
	}

	query := `
		INSERT INTO scheduled_posts (post_type, platforms, scheduled_time, content_type, content, media_path, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	createdAt := time.Now().UTC()
	var id int64
	err = r.db.QueryRowContext(ctx, query,
		post.PostType,
		string(platforms),
		post.ScheduledTime.UTC(),
		post.ContentType,
		post.Content,
		nullString(post.MediaPath),
		models.StatusPending,
		createdAt,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	post.ID = id
	post.Status = models.StatusPending
	post.CreatedAt = createdAt
	return id, nil
}

func (r *scheduledPostRepository) DueItems(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + selectColumns + `
		FROM scheduled_posts
		WHERE status = $1 AND scheduled_time <= $2
		ORDER BY scheduled_time ASC, id ASC`

	posts, malformed, err := r.query(ctx, query, models.StatusPending, now.UTC())
	if err != nil {
		return nil, err
	}

	// A row that cannot be decoded would otherwise stay due forever.
	for _, bad := range malformed {
		if err := r.MarkFailed(ctx, bad.ID, bad.Error()); err != nil {
			slog.Info("unable to fail malformed post", "post_id", bad.ID, "error", err)
		}
	}
	return posts, nil
}

func (r *scheduledPostRepository) MarkPosted(ctx context.Context, id int64, postIDs map[models.Platform]string) error {
	if postIDs == nil {
		postIDs = map[models.Platform]string{}
	}
	encoded, err := json.Marshal(postIDs)
	if err != nil {
		return fmt.Errorf("error encoding post ids: %w", err)
	}

	query := `
		UPDATE scheduled_posts
		SET status = $1,
			posted_at = $2,
			post_ids = $3,
			error_message = NULL
		WHERE id = $4 AND status = $5
	`
	return r.terminalUpdate(ctx, query, models.StatusPosted, time.Now().UTC(), string(encoded), id, models.StatusPending)
}

func (r *scheduledPostRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			error_message = $2,
			post_ids = NULL
		WHERE id = $3 AND status = $4
	`
	return r.terminalUpdate(ctx, query, models.StatusFailed, errorMessage, id, models.StatusPending)
}

// terminalUpdate runs a single-row status transition guarded on status = pending,
// so a row picked up by two overlapping ticks is only finalised once.
func (r *scheduledPostRepository) terminalUpdate(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrNotPending
	}
	return nil
}

func (r *scheduledPostRepository) List(ctx context.Context, status *models.Status) ([]*models.ScheduledPost, error) {
	if status != nil {
		query := `SELECT ` + selectColumns + `
			FROM scheduled_posts
			WHERE status = $1
			ORDER BY scheduled_time DESC, id DESC`
		posts, _, err := r.query(ctx, query, *status)
		return posts, err
	}

	query := `SELECT ` + selectColumns + `
		FROM scheduled_posts
		ORDER BY scheduled_time DESC, id DESC`
	posts, _, err := r.query(ctx, query)
	return posts, err
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	query := `SELECT ` + selectColumns + ` FROM scheduled_posts WHERE id = $1`

	post, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *scheduledPostRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM scheduled_posts WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// query returns the decodable rows and, separately, the rows whose stored
// columns could not be decoded. Only driver and scan failures are returned as err.
func (r *scheduledPostRepository) query(ctx context.Context, query string, args ...any) ([]*models.ScheduledPost, []*RowDecodeError, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, nil, err
	}
	defer rows.Close()

	var (
		posts     []*models.ScheduledPost
		malformed []*RowDecodeError
	)
	for rows.Next() {
		post, err := scanScheduledPost(rows)
		if err != nil {
			var decodeErr *RowDecodeError
			if errors.As(err, &decodeErr) {
				slog.Error("skipping malformed scheduled post", "post_id", decodeErr.ID, "error", decodeErr.Err)
				malformed = append(malformed, decodeErr)
				continue
			}
			slog.Info(err.Error())
			return nil, nil, err
		}
		posts = append(posts, post)
	}

	if err = rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, nil, err
	}
	return posts, malformed, nil
}

// RowDecodeError reports a stored row whose JSON columns are unreadable.
type RowDecodeError struct {
	ID     int64
	Column string
	Err    error
}

func (e *RowDecodeError) Error() string {
	return fmt.Sprintf("error decoding %s of post %d: %v", e.Column, e.ID, e.Err)
}

func (e *RowDecodeError) Unwrap() error {
	return e.Err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheduledPost(row rowScanner) (*models.ScheduledPost, error) {
	var (
		post         models.ScheduledPost
		platforms    string
		mediaPath    sql.NullString
		postedAt     sql.NullTime
		postIDs      sql.NullString
		errorMessage sql.NullString
	)

	err := row.Scan(
		&post.ID,
		&post.PostType,
		&platforms,
		&post.ScheduledTime,
		&post.ContentType,
		&post.Content,
		&mediaPath,
		&post.Status,
		&post.CreatedAt,
		&postedAt,
		&postIDs,
		&errorMessage,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(platforms), &post.Platforms); err != nil {
		return nil, &RowDecodeError{ID: post.ID, Column: "platforms", Err: err}
	}
	if postIDs.Valid && postIDs.String != "" {
		if err := json.Unmarshal([]byte(postIDs.String), &post.PostIDs); err != nil {
			return nil, &RowDecodeError{ID: post.ID, Column: "post ids", Err: err}
		}
	}
	if postedAt.Valid {
		t := postedAt.Time
		post.PostedAt = &t
	}
	post.MediaPath = mediaPath.String
	post.ErrorMessage = errorMessage.String

	return &post, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
