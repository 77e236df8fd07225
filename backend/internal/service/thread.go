package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/boxforum/boxforum/shared/config"
	"github.com/boxforum/boxforum/shared/domain"
	internal_errors "github.com/boxforum/boxforum/shared/errors"
	"github.com/boxforum/boxforum/shared/logger"
	"github.com/google/uuid"
)

type ThreadService interface {
	Create(ctx context.Context, author *domain.User, boxId domain.BoxId, title, body string) (domain.ThreadId, error)
	Read(ctx context.Context, id domain.ThreadId, page int, viewer *domain.User) (domain.ThreadView, error)
	Update(ctx context.Context, id domain.ThreadId, actor *domain.User, body string) error
	Delete(ctx context.Context, id domain.ThreadId, actor *domain.User) error
	Permissions(ctx context.Context, id domain.ThreadId, viewer *domain.User) (domain.Permissions, error)
}

type Thread struct {
	storage   ContentStorage
	sanitizer Sanitizer
	images    *imageManager
	cfg       config.Public
	logger    *slog.Logger
}

func NewThread(storage ContentStorage, images ImageStore, sanitizer Sanitizer, cfg config.Public, l *slog.Logger) ThreadService {
	l = logger.Component(l, "thread")
	return &Thread{
		storage:   storage,
		sanitizer: sanitizer,
		images: &imageManager{
			store:       images,
			sanitizer:   sanitizer,
			logger:      l,
			maxSize:     cfg.MaxImageSize,
			thumbHeight: cfg.ThumbnailHeight,
		},
		cfg:    cfg,
		logger: l,
	}
}

// prepareBody sanitizes and validates a thread body before any write.
func (s *Thread) prepareBody(raw string) (string, error) {
	body := s.sanitizer.SanitizeThreadBody(raw)
	if err := checkLength("Body", s.sanitizer.StripTags(body), 1, s.cfg.MaxBodyLength); err != nil {
		return "", err
	}
	if len(s.sanitizer.ImageSources(body)) > 1 {
		return "", internal_errors.Validation("At most one image is allowed")
	}
	return body, nil
}

func (s *Thread) checkStored(ctx context.Context, img threadImage) error {
	if utf8.RuneCountInString(img.body) > s.cfg.MaxStoredBodyLength {
		s.images.rollback(ctx, img)
		return internal_errors.Validation("Body is too long")
	}
	return nil
}

func (s *Thread) Create(ctx context.Context, author *domain.User, boxId domain.BoxId, title, rawBody string) (domain.ThreadId, error) {
	if err := requireUser(author); err != nil {
		return "", err
	}
	title = strings.TrimSpace(title)
	if err := checkLength("Title", title, 1, s.cfg.MaxTitleLength); err != nil {
		return "", err
	}
	body, err := s.prepareBody(rawBody)
	if err != nil {
		return "", err
	}

	box, err := s.storage.GetBox(ctx, boxId)
	if err != nil {
		return "", err
	}
	if box.IsBanned(author.Id) {
		return "", internal_errors.Forbidden("You are banned from this box")
	}

	id := uuid.NewString()
	img, err := s.images.attach(ctx, id, body, "")
	if err != nil {
		return "", err
	}
	if err := s.checkStored(ctx, img); err != nil {
		return "", err
	}

	created := now()
	thread := domain.Thread{
		Id:        id,
		Title:     title,
		Body:      img.body,
		ImageUrl:  img.imageUrl,
		Author:    author.Id,
		Box:       boxId,
		CreatedAt: created,
		UpdatedAt: created,
	}
	err = s.storage.WithTx(ctx, func(tx ContentTx) error {
		locked, err := tx.GetBox(ctx, boxId)
		if err != nil {
			return err
		}
		if locked.IsBanned(author.Id) {
			return internal_errors.Forbidden("You are banned from this box")
		}
		if err := tx.CreateThread(ctx, thread); err != nil {
			return err
		}
		if err := tx.AppendRef(ctx, domain.BoxThreads, boxId, id); err != nil {
			return err
		}
		return tx.AppendRef(ctx, domain.UserThreads, author.Id, id)
	})
	if err != nil {
		s.images.rollback(ctx, img)
		return "", err
	}

	s.logger.Info("thread created", "threadId", id, "boxId", boxId, "author", author.Id)
	return id, nil
}

func (s *Thread) Read(ctx context.Context, id domain.ThreadId, page int, viewer *domain.User) (domain.ThreadView, error) {
	thread, err := s.storage.GetThread(ctx, id)
	if err != nil {
		return domain.ThreadView{}, err
	}
	box, err := s.storage.GetBox(ctx, thread.Box)
	if err != nil {
		return domain.ThreadView{}, err
	}
	comments, err := s.storage.GetComments(ctx, thread.Comments)
	if err != nil {
		return domain.ThreadView{}, err
	}

	sortByCreation(comments)
	pageItems, pageCount, err := paginate(comments, page, s.cfg.CommentsPerPage)
	if err != nil {
		return domain.ThreadView{}, err
	}

	byId := make(map[domain.CommentId]domain.Comment, len(comments))
	for _, c := range comments {
		byId[c.Id] = c
	}
	parents := make(map[domain.CommentId]domain.Comment)
	userIds := []domain.UserId{thread.Author}
	for _, c := range pageItems {
		userIds = append(userIds, c.Author)
		if c.ReplyTo == nil {
			continue
		}
		if parent, ok := byId[*c.ReplyTo]; ok {
			parents[parent.Id] = parent
			userIds = append(userIds, parent.Author)
		}
	}
	users, err := s.storage.GetUsers(ctx, uniqueIds(userIds))
	if err != nil {
		return domain.ThreadView{}, err
	}

	return projectThread(threadPage{
		thread:    thread,
		box:       box,
		comments:  pageItems,
		parents:   parents,
		users:     users,
		pageCount: pageCount,
	}, viewer), nil
}

func (s *Thread) Update(ctx context.Context, id domain.ThreadId, actor *domain.User, rawBody string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	body, err := s.prepareBody(rawBody)
	if err != nil {
		return err
	}
	thread, err := s.storage.GetThread(ctx, id)
	if err != nil {
		return err
	}
	box, err := s.storage.GetBox(ctx, thread.Box)
	if err != nil {
		return err
	}
	if !canUpdate(actor, thread.Author, box) {
		return internal_errors.Forbidden("Only the author can edit this thread")
	}

	img, err := s.images.attach(ctx, id, body, thread.ImageUrl)
	if err != nil {
		return err
	}
	if err := s.checkStored(ctx, img); err != nil {
		return err
	}

	err = s.storage.WithTx(ctx, func(tx ContentTx) error {
		lockedBox, err := tx.GetBox(ctx, thread.Box)
		if err != nil {
			return err
		}
		locked, err := tx.GetThread(ctx, id)
		if err != nil {
			return err
		}
		if !canUpdate(actor, locked.Author, lockedBox) {
			return internal_errors.Forbidden("Only the author can edit this thread")
		}
		// attach resolved the image against the unlocked read
		if locked.ImageUrl != thread.ImageUrl {
			return internal_errors.Conflict("Thread was edited concurrently, retry")
		}
		return tx.UpdateThreadBody(ctx, id, img.body, img.imageUrl, now())
	})
	if err != nil {
		s.images.rollback(ctx, img)
		return err
	}

	// the old object goes only once the new body is durable
	if thread.ImageUrl != img.imageUrl {
		s.images.release(ctx, id, thread.ImageUrl)
	}
	s.logger.Info("thread updated", "threadId", id, "actor", actor.Id)
	return nil
}

func (s *Thread) Delete(ctx context.Context, id domain.ThreadId, actor *domain.User) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	thread, err := s.storage.GetThread(ctx, id)
	if err != nil {
		return err
	}
	box, err := s.storage.GetBox(ctx, thread.Box)
	if err != nil {
		return err
	}
	if !canDelete(actor, thread.Author, box) {
		return internal_errors.Forbidden("Not allowed to delete this thread")
	}

	var deleted domain.Thread
	err = s.storage.WithTx(ctx, func(tx ContentTx) error {
		lockedBox, err := tx.GetBox(ctx, thread.Box)
		if err != nil {
			return err
		}
		locked, err := tx.GetThread(ctx, id)
		if err != nil {
			return err
		}
		if !canDelete(actor, locked.Author, lockedBox) {
			return internal_errors.Forbidden("Not allowed to delete this thread")
		}
		deleted = locked
		return deleteThreadTx(ctx, tx, locked)
	})
	if err != nil {
		return err
	}

	s.images.release(ctx, id, deleted.ImageUrl)
	s.logger.Info("thread deleted", "threadId", id, "boxId", deleted.Box, "actor", actor.Id, "comments", len(deleted.Comments))
	return nil
}

func (s *Thread) Permissions(ctx context.Context, id domain.ThreadId, viewer *domain.User) (domain.Permissions, error) {
	thread, err := s.storage.GetThread(ctx, id)
	if err != nil {
		return domain.Permissions{}, err
	}
	box, err := s.storage.GetBox(ctx, thread.Box)
	if err != nil {
		return domain.Permissions{}, err
	}
	return domain.Permissions{
		DeleterStatus: deleterStatus(viewer, thread.Author, box),
		UpdaterStatus: updaterStatus(viewer, thread.Author, box),
	}, nil
}
