package pg

import (
	"context"
	"fmt"

	"github.com/boxforum/boxforum/shared/domain"
	internal_errors "github.com/boxforum/boxforum/shared/errors"
	"github.com/lib/pq"
)

func refColumn(ref domain.Ref) (table, column string) {
	switch ref {
	case domain.BoxThreads:
		return "boxes", "threads"
	case domain.ThreadComments:
		return "threads", "comments"
	case domain.UserThreads:
		return "users", "threads"
	case domain.UserComments:
		return "users", "comments"
	}
	panic(fmt.Sprintf("unknown reference list %d", ref))
}

func (q *queries) AppendRef(ctx context.Context, ref domain.Ref, owner, child string) error {
	table, column := refColumn(ref)
	res, err := q.q.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = CASE WHEN $2::uuid = ANY(%[2]s) THEN %[2]s ELSE array_append(%[2]s, $2::uuid) END
		WHERE id = $1
	`, table, column), owner, child)
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", ref, err)
	}
	return expectOne(res, internal_errors.NotFound(fmt.Sprintf("%s owner not found", ref)))
}

// RemoveRefs keeps the relative order of the remaining ids. A missing owner
// is not an error: cascades may already have removed it.
func (q *queries) RemoveRefs(ctx context.Context, ref domain.Ref, owner string, children []string) error {
	children = validIds(children)
	if len(children) == 0 || !validId(owner) {
		return nil
	}
	table, column := refColumn(ref)
	_, err := q.q.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = ARRAY(
			SELECT c FROM unnest(%[2]s) WITH ORDINALITY AS t(c, n)
			WHERE c <> ALL($2::uuid[])
			ORDER BY n
		)
		WHERE id = $1
	`, table, column), owner, pq.Array(children))
	if err != nil {
		return fmt.Errorf("failed to remove from %s: %w", ref, err)
	}
	return nil
}
