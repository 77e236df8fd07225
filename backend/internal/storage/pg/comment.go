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

const commentColumns = `id, body, author, thread, reply_to, upvoted, downvoted, created_at, updated_at`

func errCommentNotFound() error { return internal_errors.NotFound("Comment not found") }

func scanComment(row scanner) (domain.Comment, error) {
	var (
		c       domain.Comment
		replyTo sql.NullString
	)
	err := row.Scan(&c.Id, &c.Body, &c.Author, &c.Thread, &replyTo,
		pq.Array(&c.Upvoted), pq.Array(&c.Downvoted),
		&c.CreatedAt, &c.UpdatedAt)
	if replyTo.Valid {
		c.ReplyTo = &replyTo.String
	}
	return c, err
}

func (q *queries) GetComment(ctx context.Context, id domain.CommentId) (domain.Comment, error) {
	if !validId(id) {
		return domain.Comment{}, errCommentNotFound()
	}
	comment, err := scanComment(q.q.QueryRowContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE id = $1"+q.forUpdate(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Comment{}, errCommentNotFound()
		}
		return domain.Comment{}, fmt.Errorf("failed to get comment: %w", err)
	}
	return comment, nil
}

func (q *queries) GetComments(ctx context.Context, ids []domain.CommentId) ([]domain.Comment, error) {
	comments := []domain.Comment{}
	ids = validIds(ids)
	if len(ids) == 0 {
		return comments, nil
	}
	rows, err := q.q.QueryContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE id = ANY($1::uuid[])", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (q *queries) CreateComment(ctx context.Context, comment domain.Comment) error {
	var replyTo sql.NullString
	if comment.ReplyTo != nil {
		replyTo = sql.NullString{String: *comment.ReplyTo, Valid: true}
	}
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO comments(id, body, author, thread, reply_to, created_at, updated_at)
		VALUES($1, $2, $3, $4, $5, $6, $7)
	`, comment.Id, comment.Body, comment.Author, comment.Thread, replyTo, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		switch {
		case sharedpg.IsForeignKeyViolation(err):
			return internal_errors.NotFound("Thread or author not found")
		case sharedpg.IsCheckViolation(err):
			return internal_errors.Validation("Comment is invalid")
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (q *queries) UpdateCommentBody(ctx context.Context, id domain.CommentId, body string, at time.Time) error {
	res, err := q.q.ExecContext(ctx, "UPDATE comments SET body = $2, updated_at = $3 WHERE id = $1", id, body, at)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return expectOne(res, errCommentNotFound())
}

func (q *queries) DeleteComment(ctx context.Context, id domain.CommentId) error {
	res, err := q.q.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return expectOne(res, errCommentNotFound())
}
