package service

import (
	"context"
	"time"

	"github.com/boxforum/boxforum/shared/domain"
)

// ContentReader is the point/batch lookup side of the Content Store.
// Single-entity getters return a NotFound ErrorWithStatusCode when the row
// is absent. Batch getters skip missing ids.
type ContentReader interface {
	GetBox(ctx context.Context, id domain.BoxId) (domain.Box, error)
	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	GetComment(ctx context.Context, id domain.CommentId) (domain.Comment, error)
	GetUser(ctx context.Context, id domain.UserId) (domain.User, error)

	GetThreads(ctx context.Context, ids []domain.ThreadId) ([]domain.Thread, error)
	GetComments(ctx context.Context, ids []domain.CommentId) ([]domain.Comment, error)
	GetUsers(ctx context.Context, ids []domain.UserId) (map[domain.UserId]domain.User, error)
}

// ContentTx is one atomic unit. Inside it the single-entity getters lock the
// row until commit. Callers lock in box, thread, comment, user order.
type ContentTx interface {
	ContentReader

	CreateBox(ctx context.Context, box domain.Box) error
	UpdateBoxInfo(ctx context.Context, id domain.BoxId, name, description string) error
	DeleteBox(ctx context.Context, id domain.BoxId) error
	AddBoxMember(ctx context.Context, id domain.BoxId, list domain.BoxList, user domain.UserId) error
	RemoveBoxMember(ctx context.Context, id domain.BoxId, list domain.BoxList, user domain.UserId) error

	CreateThread(ctx context.Context, thread domain.Thread) error
	UpdateThreadBody(ctx context.Context, id domain.ThreadId, body, imageUrl string, at time.Time) error
	TouchThread(ctx context.Context, id domain.ThreadId, at time.Time) error
	DeleteThread(ctx context.Context, id domain.ThreadId) error
	// DeleteThreadComments removes every comment whose thread is id and
	// returns them.
	DeleteThreadComments(ctx context.Context, id domain.ThreadId) ([]domain.Comment, error)

	CreateComment(ctx context.Context, comment domain.Comment) error
	UpdateCommentBody(ctx context.Context, id domain.CommentId, body string, at time.Time) error
	DeleteComment(ctx context.Context, id domain.CommentId) error

	// AppendRef adds child to owner's list unless already present.
	AppendRef(ctx context.Context, ref domain.Ref, owner, child string) error
	// RemoveRefs drops children from owner's list keeping the order of the rest.
	RemoveRefs(ctx context.Context, ref domain.Ref, owner string, children []string) error

	// SetVote moves voter into the set matching status and out of the other.
	SetVote(ctx context.Context, target domain.VoteTarget, id string, voter domain.UserId, status domain.VoteStatus) error
}

type ContentStorage interface {
	ContentReader
	ListBoxes(ctx context.Context) ([]domain.BoxSummary, error)
	WithTx(ctx context.Context, fn func(tx ContentTx) error) error
	Ping(ctx context.Context) error
}

// ImageStore keeps uploaded thread images.
type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Sanitizer turns user input into markup safe to persist verbatim.
type Sanitizer interface {
	SanitizeThreadBody(raw string) string
	RenderComment(raw string) (string, error)
	StripTags(html string) string
	ImageSources(html string) []string
	ReplaceImageSource(html, oldSrc, newSrc string) string
}

// UserCache fronts user lookups for the session resolver.
type UserCache interface {
	Get(ctx context.Context, id domain.UserId) (domain.User, bool, error)
	Set(ctx context.Context, user domain.User, ttl time.Duration) error
	Delete(ctx context.Context, id domain.UserId) error
}
