package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/boxforum/boxforum/shared/domain"
	internal_errors "github.com/boxforum/boxforum/shared/errors"
	sharedpg "github.com/boxforum/boxforum/shared/storage/pg"
	"github.com/lib/pq"
)

const boxColumns = `id, name, description, moderators, banned, threads, created_at, updated_at`

func errBoxNotFound() error { return internal_errors.NotFound("Box not found") }

func scanBox(row scanner) (domain.Box, error) {
	var b domain.Box
	err := row.Scan(&b.Id, &b.Name, &b.Description,
		pq.Array(&b.Moderators), pq.Array(&b.Banned), pq.Array(&b.Threads),
		&b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (q *queries) GetBox(ctx context.Context, id domain.BoxId) (domain.Box, error) {
	if !validId(id) {
		return domain.Box{}, errBoxNotFound()
	}
	box, err := scanBox(q.q.QueryRowContext(ctx,
		"SELECT "+boxColumns+" FROM boxes WHERE id = $1"+q.forUpdate(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Box{}, errBoxNotFound()
		}
		return domain.Box{}, fmt.Errorf("failed to get box: %w", err)
	}
	return box, nil
}

func (q *queries) CreateBox(ctx context.Context, box domain.Box) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO boxes(id, name, description, created_at, updated_at)
		VALUES($1, $2, $3, $4, $5)
	`, box.Id, box.Name, box.Description, box.CreatedAt, box.UpdatedAt)
	if err != nil {
		if sharedpg.IsUniqueViolation(err) {
			return internal_errors.Validation("Box name already taken")
		}
		return fmt.Errorf("failed to create box: %w", err)
	}
	return nil
}

func (q *queries) UpdateBoxInfo(ctx context.Context, id domain.BoxId, name, description string) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE boxes SET name = $2, description = $3, updated_at = now()
		WHERE id = $1
	`, id, name, description)
	if err != nil {
		if sharedpg.IsUniqueViolation(err) {
			return internal_errors.Validation("Box name already taken")
		}
		return fmt.Errorf("failed to update box: %w", err)
	}
	return expectOne(res, errBoxNotFound())
}

// DeleteBox fails with a foreign key violation while threads still point at
// the box; callers cascade first.
func (q *queries) DeleteBox(ctx context.Context, id domain.BoxId) error {
	res, err := q.q.ExecContext(ctx, "DELETE FROM boxes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete box: %w", err)
	}
	return expectOne(res, errBoxNotFound())
}

func boxListColumn(list domain.BoxList) string {
	if list == domain.BoxBanned {
		return "banned"
	}
	return "moderators"
}

func (q *queries) AddBoxMember(ctx context.Context, id domain.BoxId, list domain.BoxList, user domain.UserId) error {
	res, err := q.q.ExecContext(ctx, fmt.Sprintf(`
		UPDATE boxes
		SET %[1]s = CASE WHEN $2::uuid = ANY(%[1]s) THEN %[1]s ELSE array_append(%[1]s, $2::uuid) END
		WHERE id = $1
	`, boxListColumn(list)), id, user)
	if err != nil {
		return fmt.Errorf("failed to add box member: %w", err)
	}
	return expectOne(res, errBoxNotFound())
}

func (q *queries) RemoveBoxMember(ctx context.Context, id domain.BoxId, list domain.BoxList, user domain.UserId) error {
	if !validId(user) {
		return nil
	}
	res, err := q.q.ExecContext(ctx, fmt.Sprintf(`
		UPDATE boxes SET %[1]s = array_remove(%[1]s, $2::uuid) WHERE id = $1
	`, boxListColumn(list)), id, user)
	if err != nil {
		return fmt.Errorf("failed to remove box member: %w", err)
	}
	return expectOne(res, errBoxNotFound())
}
