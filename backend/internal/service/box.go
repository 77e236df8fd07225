package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/boxforum/boxforum/shared/config"
	"github.com/boxforum/boxforum/shared/domain"
	internal_errors "github.com/boxforum/boxforum/shared/errors"
	"github.com/boxforum/boxforum/shared/logger"
	"github.com/google/uuid"
)

const (
	maxBoxNameLength        = 64
	maxBoxDescriptionLength = 1024
)

// to mock service in tests
type BoxService interface {
	Create(ctx context.Context, actor *domain.User, name, description string) (domain.BoxId, error)
	Rename(ctx context.Context, id domain.BoxId, actor *domain.User, name string) error
	UpdateDescription(ctx context.Context, id domain.BoxId, actor *domain.User, description string) error
	Delete(ctx context.Context, id domain.BoxId, actor *domain.User) error
	AddMember(ctx context.Context, id domain.BoxId, actor *domain.User, list domain.BoxList, user domain.UserId) error
	RemoveMember(ctx context.Context, id domain.BoxId, actor *domain.User, list domain.BoxList, user domain.UserId) error
	List(ctx context.Context) ([]domain.BoxSummary, error)
	Read(ctx context.Context, id domain.BoxId, page int, viewer *domain.User) (domain.BoxView, error)
}

type Box struct {
	storage ContentStorage
	images  *imageManager
	cfg     config.Public
	logger  *slog.Logger
}

func NewBox(storage ContentStorage, images ImageStore, cfg config.Public, l *slog.Logger) BoxService {
	l = logger.Component(l, "box")
	return &Box{
		storage: storage,
		images:  &imageManager{store: images, logger: l},
		cfg:     cfg,
		logger:  l,
	}
}

func checkBoxInfo(name, description string) error {
	if err := checkLength("Name", name, 1, maxBoxNameLength); err != nil {
		return err
	}
	return checkLength("Description", description, 0, maxBoxDescriptionLength)
}

func (s *Box) Create(ctx context.Context, actor *domain.User, name, description string) (domain.BoxId, error) {
	if !actor.IsAdmin() {
		return "", internal_errors.Forbidden("Only admins can create boxes")
	}
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if err := checkBoxInfo(name, description); err != nil {
		return "", err
	}

	created := now()
	box := domain.Box{
		Id:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	err := s.storage.WithTx(ctx, func(tx ContentTx) error {
		return tx.CreateBox(ctx, box)
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("box created", "boxId", box.Id, "name", name, "actor", actor.Id)
	return box.Id, nil
}

// moderate runs fn on the locked box after checking actor may moderate it.
func (s *Box) moderate(ctx context.Context, id domain.BoxId, actor *domain.User, fn func(tx ContentTx, box domain.Box) error) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	return s.storage.WithTx(ctx, func(tx ContentTx) error {
		box, err := tx.GetBox(ctx, id)
		if err != nil {
			return err
		}
		if !canModerate(actor, box) {
			return internal_errors.Forbidden("Only moderators of this box can do that")
		}
		return fn(tx, box)
	})
}

func (s *Box) Rename(ctx context.Context, id domain.BoxId, actor *domain.User, name string) error {
	name = strings.TrimSpace(name)
	if err := checkLength("Name", name, 1, maxBoxNameLength); err != nil {
		return err
	}
	return s.moderate(ctx, id, actor, func(tx ContentTx, box domain.Box) error {
		return tx.UpdateBoxInfo(ctx, id, name, box.Description)
	})
}

func (s *Box) UpdateDescription(ctx context.Context, id domain.BoxId, actor *domain.User, description string) error {
	description = strings.TrimSpace(description)
	if err := checkLength("Description", description, 0, maxBoxDescriptionLength); err != nil {
		return err
	}
	return s.moderate(ctx, id, actor, func(tx ContentTx, box domain.Box) error {
		return tx.UpdateBoxInfo(ctx, id, box.Name, description)
	})
}

func (s *Box) AddMember(ctx context.Context, id domain.BoxId, actor *domain.User, list domain.BoxList, user domain.UserId) error {
	if _, err := s.storage.GetUser(ctx, user); err != nil {
		return err
	}
	err := s.moderate(ctx, id, actor, func(tx ContentTx, box domain.Box) error {
		return tx.AddBoxMember(ctx, id, list, user)
	})
	if err != nil {
		return err
	}
	s.logger.Info("box member added", "boxId", id, "list", listName(list), "user", user, "actor", actor.Id)
	return nil
}

func (s *Box) RemoveMember(ctx context.Context, id domain.BoxId, actor *domain.User, list domain.BoxList, user domain.UserId) error {
	err := s.moderate(ctx, id, actor, func(tx ContentTx, box domain.Box) error {
		return tx.RemoveBoxMember(ctx, id, list, user)
	})
	if err != nil {
		return err
	}
	s.logger.Info("box member removed", "boxId", id, "list", listName(list), "user", user, "actor", actor.Id)
	return nil
}

// Delete removes the box and cascades to its threads and their comments in
// the same transaction. Self-hosted images are released after commit.
func (s *Box) Delete(ctx context.Context, id domain.BoxId, actor *domain.User) error {
	if !actor.IsAdmin() {
		return internal_errors.Forbidden("Only admins can delete boxes")
	}

	var deleted []domain.Thread
	err := s.storage.WithTx(ctx, func(tx ContentTx) error {
		box, err := tx.GetBox(ctx, id)
		if err != nil {
			return err
		}
		threads, err := tx.GetThreads(ctx, box.Threads)
		if err != nil {
			return err
		}
		for _, t := range threads {
			locked, err := tx.GetThread(ctx, t.Id)
			if err != nil {
				return err
			}
			if err := deleteThreadTx(ctx, tx, locked); err != nil {
				return err
			}
			deleted = append(deleted, locked)
		}
		return tx.DeleteBox(ctx, id)
	})
	if err != nil {
		return err
	}

	for _, t := range deleted {
		s.images.release(ctx, t.Id, t.ImageUrl)
	}
	s.logger.Info("box deleted", "boxId", id, "threads", len(deleted), "actor", actor.Id)
	return nil
}

func (s *Box) List(ctx context.Context) ([]domain.BoxSummary, error) {
	return s.storage.ListBoxes(ctx)
}

func (s *Box) Read(ctx context.Context, id domain.BoxId, page int, viewer *domain.User) (domain.BoxView, error) {
	box, err := s.storage.GetBox(ctx, id)
	if err != nil {
		return domain.BoxView{}, err
	}
	threads, err := s.storage.GetThreads(ctx, box.Threads)
	if err != nil {
		return domain.BoxView{}, err
	}

	sortByActivity(threads)
	pageItems, pageCount, err := paginate(threads, page, s.cfg.ThreadsPerPage)
	if err != nil {
		return domain.BoxView{}, err
	}

	authors, err := s.storage.GetUsers(ctx, uniqueIds(threadAuthors(pageItems)))
	if err != nil {
		return domain.BoxView{}, err
	}
	return projectBox(box, pageItems, pageCount, authors, viewer), nil
}

func listName(list domain.BoxList) string {
	if list == domain.BoxBanned {
		return "banned"
	}
	return "moderators"
}
