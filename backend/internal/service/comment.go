package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/boxforum/boxforum/shared/config"
	"github.com/boxforum/boxforum/shared/domain"
	internal_errors "github.com/boxforum/boxforum/shared/errors"
	"github.com/boxforum/boxforum/shared/logger"
	"github.com/google/uuid"
)

type CommentService interface {
	Create(ctx context.Context, author *domain.User, threadId domain.ThreadId, body string, replyTo *domain.CommentId) (domain.CommentId, error)
	Update(ctx context.Context, id domain.CommentId, actor *domain.User, body string) error
	Delete(ctx context.Context, id domain.CommentId, actor *domain.User) error
}

type Comment struct {
	storage   ContentStorage
	sanitizer Sanitizer
	cfg       config.Public
	logger    *slog.Logger
}

func NewComment(storage ContentStorage, sanitizer Sanitizer, cfg config.Public, l *slog.Logger) CommentService {
	return &Comment{
		storage:   storage,
		sanitizer: sanitizer,
		cfg:       cfg,
		logger:    logger.Component(l, "comment"),
	}
}

func (s *Comment) prepareBody(raw string) (string, error) {
	body, err := s.sanitizer.RenderComment(raw)
	if err != nil {
		return "", fmt.Errorf("failed to render comment: %w", err)
	}
	if err := checkLength("Comment", s.sanitizer.StripTags(body), 1, s.cfg.MaxCommentLength); err != nil {
		return "", err
	}
	return body, nil
}

func (s *Comment) Create(ctx context.Context, author *domain.User, threadId domain.ThreadId, rawBody string, replyTo *domain.CommentId) (domain.CommentId, error) {
	if err := requireUser(author); err != nil {
		return "", err
	}
	body, err := s.prepareBody(rawBody)
	if err != nil {
		return "", err
	}

	thread, err := s.storage.GetThread(ctx, threadId)
	if err != nil {
		return "", err
	}
	box, err := s.storage.GetBox(ctx, thread.Box)
	if err != nil {
		return "", err
	}
	if box.IsBanned(author.Id) {
		return "", internal_errors.Forbidden("You are banned from this box")
	}
	if replyTo != nil {
		parent, err := s.storage.GetComment(ctx, *replyTo)
		if err != nil && internal_errors.StatusCode(err) != http.StatusNotFound {
			return "", err
		}
		if err != nil || parent.Thread != threadId {
			return "", internal_errors.Validation("Reply target is not a comment of this thread")
		}
	}

	created := now()
	comment := domain.Comment{
		Id:        uuid.NewString(),
		Body:      body,
		Author:    author.Id,
		Thread:    threadId,
		ReplyTo:   replyTo,
		CreatedAt: created,
		UpdatedAt: created,
	}
	err = s.storage.WithTx(ctx, func(tx ContentTx) error {
		lockedBox, err := tx.GetBox(ctx, thread.Box)
		if err != nil {
			return err
		}
		if lockedBox.IsBanned(author.Id) {
			return internal_errors.Forbidden("You are banned from this box")
		}
		if _, err := tx.GetThread(ctx, threadId); err != nil {
			return err
		}
		if replyTo != nil {
			if _, err := tx.GetComment(ctx, *replyTo); err != nil {
				if internal_errors.StatusCode(err) == http.StatusNotFound {
					return internal_errors.Validation("Reply target is not a comment of this thread")
				}
				return err
			}
		}
		if err := tx.CreateComment(ctx, comment); err != nil {
			return err
		}
		if err := tx.AppendRef(ctx, domain.ThreadComments, threadId, comment.Id); err != nil {
			return err
		}
		if err := tx.TouchThread(ctx, threadId, created); err != nil {
			return err
		}
		return tx.AppendRef(ctx, domain.UserComments, author.Id, comment.Id)
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("comment created", "commentId", comment.Id, "threadId", threadId, "author", author.Id)
	return comment.Id, nil
}

func (s *Comment) Update(ctx context.Context, id domain.CommentId, actor *domain.User, rawBody string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	body, err := s.prepareBody(rawBody)
	if err != nil {
		return err
	}
	comment, box, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !canUpdate(actor, comment.Author, box) {
		return internal_errors.Forbidden("Only the author can edit this comment")
	}

	err = s.storage.WithTx(ctx, func(tx ContentTx) error {
		locked, err := s.lockGoverned(ctx, tx, box.Id, comment)
		if err != nil {
			return err
		}
		if !canUpdate(actor, locked.comment.Author, locked.box) {
			return internal_errors.Forbidden("Only the author can edit this comment")
		}
		return tx.UpdateCommentBody(ctx, id, body, now())
	})
	if err != nil {
		return err
	}
	s.logger.Info("comment updated", "commentId", id, "actor", actor.Id)
	return nil
}

func (s *Comment) Delete(ctx context.Context, id domain.CommentId, actor *domain.User) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	comment, box, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !canDelete(actor, comment.Author, box) {
		return internal_errors.Forbidden("Not allowed to delete this comment")
	}

	err = s.storage.WithTx(ctx, func(tx ContentTx) error {
		locked, err := s.lockGoverned(ctx, tx, box.Id, comment)
		if err != nil {
			return err
		}
		if !canDelete(actor, locked.comment.Author, locked.box) {
			return internal_errors.Forbidden("Not allowed to delete this comment")
		}
		if err := tx.DeleteComment(ctx, id); err != nil {
			return err
		}
		if err := tx.RemoveRefs(ctx, domain.ThreadComments, locked.comment.Thread, []string{id}); err != nil {
			return err
		}
		return tx.RemoveRefs(ctx, domain.UserComments, locked.comment.Author, []string{id})
	})
	if err != nil {
		return err
	}
	s.logger.Info("comment deleted", "commentId", id, "threadId", comment.Thread, "actor", actor.Id)
	return nil
}

type governedComment struct {
	comment domain.Comment
	box     domain.Box
}

// lockGoverned locks box, thread and comment in that order and returns the
// locked rows permission checks must run against. A thread never changes box.
func (s *Comment) lockGoverned(ctx context.Context, tx ContentTx, boxId domain.BoxId, comment domain.Comment) (governedComment, error) {
	box, err := tx.GetBox(ctx, boxId)
	if err != nil {
		return governedComment{}, err
	}
	if _, err := tx.GetThread(ctx, comment.Thread); err != nil {
		return governedComment{}, err
	}
	locked, err := tx.GetComment(ctx, comment.Id)
	if err != nil {
		return governedComment{}, err
	}
	return governedComment{comment: locked, box: box}, nil
}

// load fetches a comment with the box that governs it.
func (s *Comment) load(ctx context.Context, id domain.CommentId) (domain.Comment, domain.Box, error) {
	comment, err := s.storage.GetComment(ctx, id)
	if err != nil {
		return domain.Comment{}, domain.Box{}, err
	}
	thread, err := s.storage.GetThread(ctx, comment.Thread)
	if err != nil {
		return domain.Comment{}, domain.Box{}, err
	}
	box, err := s.storage.GetBox(ctx, thread.Box)
	if err != nil {
		return domain.Comment{}, domain.Box{}, err
	}
	return comment, box, nil
}
