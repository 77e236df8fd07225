package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/boxforum/boxforum/shared/domain"
	internal_errors "github.com/boxforum/boxforum/shared/errors"
	sharedpg "github.com/boxforum/boxforum/shared/storage/pg"
	"github.com/lib/pq"
)

const threadColumns = `id, title, body, image_url, author, box, upvoted, downvoted, comments, created_at, updated_at`

func errThreadNotFound() error { return internal_errors.NotFound("Thread not found") }

func scanThread(row scanner) (domain.Thread, error) {
	var t domain.Thread
	err := row.Scan(&t.Id, &t.Title, &t.Body, &t.ImageUrl, &t.Author, &t.Box,
		pq.Array(&t.Upvoted), pq.Array(&t.Downvoted), pq.Array(&t.Comments),
		&t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (q *queries) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	if !validId(id) {
		return domain.Thread{}, errThreadNotFound()
	}
	thread, err := scanThread(q.q.QueryRowContext(ctx,
		"SELECT "+threadColumns+" FROM threads WHERE id = $1"+q.forUpdate(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thread{}, errThreadNotFound()
		}
		return domain.Thread{}, fmt.Errorf("failed to get thread: %w", err)
	}
	return thread, nil
}

func (q *queries) GetThreads(ctx context.Context, ids []domain.ThreadId) ([]domain.Thread, error) {
	threads := []domain.Thread{}
	ids = validIds(ids)
	if len(ids) == 0 {
		return threads, nil
	}
	rows, err := q.q.QueryContext(ctx,
		"SELECT "+threadColumns+" FROM threads WHERE id = ANY($1::uuid[])", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get threads: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

func (q *queries) CreateThread(ctx context.Context, thread domain.Thread) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO threads(id, title, body, image_url, author, box, created_at, updated_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
	`, thread.Id, thread.Title, thread.Body, thread.ImageUrl, thread.Author, thread.Box, thread.CreatedAt, thread.UpdatedAt)
	if err != nil {
		switch {
		case sharedpg.IsForeignKeyViolation(err):
			return internal_errors.NotFound("Box or author not found")
		case sharedpg.IsCheckViolation(err):
			return internal_errors.Validation("Thread is invalid")
		}
		return fmt.Errorf("failed to create thread: %w", err)
	}
	return nil
}

func (q *queries) UpdateThreadBody(ctx context.Context, id domain.ThreadId, body, imageUrl string, at time.Time) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE threads SET body = $2, image_url = $3, updated_at = $4 WHERE id = $1
	`, id, body, imageUrl, at)
	if err != nil {
		if sharedpg.IsCheckViolation(err) {
			return internal_errors.Validation("Body is invalid")
		}
		return fmt.Errorf("failed to update thread: %w", err)
	}
	return expectOne(res, errThreadNotFound())
}

func (q *queries) TouchThread(ctx context.Context, id domain.ThreadId, at time.Time) error {
	res, err := q.q.ExecContext(ctx, "UPDATE threads SET updated_at = $2 WHERE id = $1", id, at)
	if err != nil {
		return fmt.Errorf("failed to bump thread: %w", err)
	}
	return expectOne(res, errThreadNotFound())
}

func (q *queries) DeleteThread(ctx context.Context, id domain.ThreadId) error {
	res, err := q.q.ExecContext(ctx, "DELETE FROM threads WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	return expectOne(res, errThreadNotFound())
}

func (q *queries) DeleteThreadComments(ctx context.Context, id domain.ThreadId) ([]domain.Comment, error) {
	rows, err := q.q.QueryContext(ctx,
		"DELETE FROM comments WHERE thread = $1 RETURNING "+commentColumns, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete thread comments: %w", err)
	}
	defer rows.Close()

	var deleted []domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		deleted = append(deleted, c)
	}
	return deleted, rows.Err()
}
