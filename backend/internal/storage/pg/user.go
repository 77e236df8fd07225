package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/boxforum/boxforum/shared/domain"
	internal_errors "github.com/boxforum/boxforum/shared/errors"
	"github.com/lib/pq"
)

const userColumns = `id, fullname, avatar_url, role, threads, comments, created_at`

func scanUser(row scanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.Id, &u.Fullname, &u.AvatarUrl, &u.Role,
		pq.Array(&u.Threads), pq.Array(&u.Comments), &u.CreatedAt)
	return u, err
}

func (q *queries) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	if !validId(id) {
		return domain.User{}, internal_errors.NotFound("User not found")
	}
	user, err := scanUser(q.q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1"+q.forUpdate(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (q *queries) GetUsers(ctx context.Context, ids []domain.UserId) (map[domain.UserId]domain.User, error) {
	ids = validIds(ids)
	users := make(map[domain.UserId]domain.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	rows, err := q.q.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ANY($1::uuid[])", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[u.Id] = u
	}
	return users, rows.Err()
}

// SaveUser inserts or refreshes the profile of a session subject. The post
// indexes are left untouched on update.
func (s *Storage) SaveUser(ctx context.Context, user domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users(id, fullname, avatar_url, role)
		VALUES($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET fullname = EXCLUDED.fullname, avatar_url = EXCLUDED.avatar_url, role = EXCLUDED.role
	`, user.Id, user.Fullname, user.AvatarUrl, string(user.Role))
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}
