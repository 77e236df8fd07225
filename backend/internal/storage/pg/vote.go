package pg

import (
	"context"
	"fmt"

	"github.com/boxforum/boxforum/shared/domain"
)

// SetVote rewrites both vote sets in one statement so they can never share
// a member, whatever status was before.
func (q *queries) SetVote(ctx context.Context, target domain.VoteTarget, id string, voter domain.UserId, status domain.VoteStatus) error {
	table, notFound := "threads", errThreadNotFound()
	if target == domain.TargetComment {
		table, notFound = "comments", errCommentNotFound()
	}
	if !validId(id) {
		return notFound
	}
	res, err := q.q.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s SET
			upvoted = CASE WHEN $3::int = 1
				THEN array_append(array_remove(upvoted, $2::uuid), $2::uuid)
				ELSE array_remove(upvoted, $2::uuid) END,
			downvoted = CASE WHEN $3::int = -1
				THEN array_append(array_remove(downvoted, $2::uuid), $2::uuid)
				ELSE array_remove(downvoted, $2::uuid) END
		WHERE id = $1
	`, table), id, voter, int(status))
	if err != nil {
		return fmt.Errorf("failed to set vote: %w", err)
	}
	return expectOne(res, notFound)
}
