package service

import (
	"context"
	"log/slog"

	"github.com/boxforum/boxforum/shared/domain"
	"github.com/boxforum/boxforum/shared/logger"
)

type VoteService interface {
	// Vote applies intent for voter on the target and returns the
	// resulting status.
	Vote(ctx context.Context, target domain.VoteTarget, id string, voter *domain.User, intent domain.VoteIntent) (domain.VoteStatus, error)
}

type Vote struct {
	storage ContentStorage
	logger  *slog.Logger
}

func NewVote(storage ContentStorage, l *slog.Logger) VoteService {
	return &Vote{storage: storage, logger: logger.Component(l, "vote")}
}

// Vote reads the voter's membership under the target's row lock and moves
// only that voter between the sets, so concurrent voters never lose updates
// and the sets stay disjoint.
func (s *Vote) Vote(ctx context.Context, target domain.VoteTarget, id string, voter *domain.User, intent domain.VoteIntent) (domain.VoteStatus, error) {
	if err := requireUser(voter); err != nil {
		return domain.VoteNone, err
	}

	var next domain.VoteStatus
	err := s.storage.WithTx(ctx, func(tx ContentTx) error {
		var upvoted, downvoted []domain.UserId
		switch target {
		case domain.TargetComment:
			c, err := tx.GetComment(ctx, id)
			if err != nil {
				return err
			}
			upvoted, downvoted = c.Upvoted, c.Downvoted
		default:
			t, err := tx.GetThread(ctx, id)
			if err != nil {
				return err
			}
			upvoted, downvoted = t.Upvoted, t.Downvoted
		}

		next = domain.NextVote(domain.VoteStatusOf(voter.Id, upvoted, downvoted), intent)
		return tx.SetVote(ctx, target, id, voter.Id, next)
	})
	if err != nil {
		return domain.VoteNone, err
	}

	s.logger.Debug("vote applied", "target", target.String(), "id", id, "voter", voter.Id, "status", int(next))
	return next, nil
}
