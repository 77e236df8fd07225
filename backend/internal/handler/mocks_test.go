package handler

import (
	"context"
	"net/http"

	"github.com/boxforum/boxforum/shared/domain"
	mw "github.com/boxforum/boxforum/shared/middleware"
)

// --- Mocks ---

type MockBoxService struct {
	MockCreate            func(ctx context.Context, actor *domain.User, name, description string) (domain.BoxId, error)
	MockRename            func(ctx context.Context, id domain.BoxId, actor *domain.User, name string) error
	MockUpdateDescription func(ctx context.Context, id domain.BoxId, actor *domain.User, description string) error
	MockDelete            func(ctx context.Context, id domain.BoxId, actor *domain.User) error
	MockAddMember         func(ctx context.Context, id domain.BoxId, actor *domain.User, list domain.BoxList, user domain.UserId) error
	MockRemoveMember      func(ctx context.Context, id domain.BoxId, actor *domain.User, list domain.BoxList, user domain.UserId) error
	MockList              func(ctx context.Context) ([]domain.BoxSummary, error)
	MockRead              func(ctx context.Context, id domain.BoxId, page int, viewer *domain.User) (domain.BoxView, error)
}

func (m *MockBoxService) Create(ctx context.Context, actor *domain.User, name, description string) (domain.BoxId, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, actor, name, description)
	}
	return "", nil
}

func (m *MockBoxService) Rename(ctx context.Context, id domain.BoxId, actor *domain.User, name string) error {
	if m.MockRename != nil {
		return m.MockRename(ctx, id, actor, name)
	}
	return nil
}

func (m *MockBoxService) UpdateDescription(ctx context.Context, id domain.BoxId, actor *domain.User, description string) error {
	if m.MockUpdateDescription != nil {
		return m.MockUpdateDescription(ctx, id, actor, description)
	}
	return nil
}

func (m *MockBoxService) Delete(ctx context.Context, id domain.BoxId, actor *domain.User) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, id, actor)
	}
	return nil
}

func (m *MockBoxService) AddMember(ctx context.Context, id domain.BoxId, actor *domain.User, list domain.BoxList, user domain.UserId) error {
	if m.MockAddMember != nil {
		return m.MockAddMember(ctx, id, actor, list, user)
	}
	return nil
}

func (m *MockBoxService) RemoveMember(ctx context.Context, id domain.BoxId, actor *domain.User, list domain.BoxList, user domain.UserId) error {
	if m.MockRemoveMember != nil {
		return m.MockRemoveMember(ctx, id, actor, list, user)
	}
	return nil
}

func (m *MockBoxService) List(ctx context.Context) ([]domain.BoxSummary, error) {
	if m.MockList != nil {
		return m.MockList(ctx)
	}
	return nil, nil
}

func (m *MockBoxService) Read(ctx context.Context, id domain.BoxId, page int, viewer *domain.User) (domain.BoxView, error) {
	if m.MockRead != nil {
		return m.MockRead(ctx, id, page, viewer)
	}
	return domain.BoxView{}, nil
}

type MockThreadService struct {
	MockCreate      func(ctx context.Context, author *domain.User, boxId domain.BoxId, title, body string) (domain.ThreadId, error)
	MockRead        func(ctx context.Context, id domain.ThreadId, page int, viewer *domain.User) (domain.ThreadView, error)
	MockUpdate      func(ctx context.Context, id domain.ThreadId, actor *domain.User, body string) error
	MockDelete      func(ctx context.Context, id domain.ThreadId, actor *domain.User) error
	MockPermissions func(ctx context.Context, id domain.ThreadId, viewer *domain.User) (domain.Permissions, error)
}

func (m *MockThreadService) Create(ctx context.Context, author *domain.User, boxId domain.BoxId, title, body string) (domain.ThreadId, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, author, boxId, title, body)
	}
	return "", nil
}

func (m *MockThreadService) Read(ctx context.Context, id domain.ThreadId, page int, viewer *domain.User) (domain.ThreadView, error) {
	if m.MockRead != nil {
		return m.MockRead(ctx, id, page, viewer)
	}
	return domain.ThreadView{}, nil
}

func (m *MockThreadService) Update(ctx context.Context, id domain.ThreadId, actor *domain.User, body string) error {
	if m.MockUpdate != nil {
		return m.MockUpdate(ctx, id, actor, body)
	}
	return nil
}

func (m *MockThreadService) Delete(ctx context.Context, id domain.ThreadId, actor *domain.User) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, id, actor)
	}
	return nil
}

func (m *MockThreadService) Permissions(ctx context.Context, id domain.ThreadId, viewer *domain.User) (domain.Permissions, error) {
	if m.MockPermissions != nil {
		return m.MockPermissions(ctx, id, viewer)
	}
	return domain.Permissions{}, nil
}

type MockCommentService struct {
	MockCreate func(ctx context.Context, author *domain.User, threadId domain.ThreadId, body string, replyTo *domain.CommentId) (domain.CommentId, error)
	MockUpdate func(ctx context.Context, id domain.CommentId, actor *domain.User, body string) error
	MockDelete func(ctx context.Context, id domain.CommentId, actor *domain.User) error
}

func (m *MockCommentService) Create(ctx context.Context, author *domain.User, threadId domain.ThreadId, body string, replyTo *domain.CommentId) (domain.CommentId, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, author, threadId, body, replyTo)
	}
	return "", nil
}

func (m *MockCommentService) Update(ctx context.Context, id domain.CommentId, actor *domain.User, body string) error {
	if m.MockUpdate != nil {
		return m.MockUpdate(ctx, id, actor, body)
	}
	return nil
}

func (m *MockCommentService) Delete(ctx context.Context, id domain.CommentId, actor *domain.User) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, id, actor)
	}
	return nil
}

type MockVoteService struct {
	MockVote func(ctx context.Context, target domain.VoteTarget, id string, voter *domain.User, intent domain.VoteIntent) (domain.VoteStatus, error)
}

func (m *MockVoteService) Vote(ctx context.Context, target domain.VoteTarget, id string, voter *domain.User, intent domain.VoteIntent) (domain.VoteStatus, error) {
	if m.MockVote != nil {
		return m.MockVote(ctx, target, id, voter, intent)
	}
	return domain.VoteNone, nil
}

type MockUserActivityService struct {
	MockGetUserPosts func(ctx context.Context, userId domain.UserId) (domain.PostHistory, error)
}

func (m *MockUserActivityService) GetUserPosts(ctx context.Context, userId domain.UserId) (domain.PostHistory, error) {
	if m.MockGetUserPosts != nil {
		return m.MockGetUserPosts(ctx, userId)
	}
	return domain.PostHistory{}, nil
}

type MockHealthChecker struct {
	PingFunc func(ctx context.Context) error
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil // Default: healthy
}

// withUser attaches an authenticated user the way the auth middleware does.
func withUser(r *http.Request, user *domain.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), mw.UserClaimsKey, user))
}

const (
	testBoxId     = "6f1c3a52-9d1e-4c7a-8b0e-3f5f6a7b8c9d"
	testThreadId  = "0b8f2d4e-1a2b-4c3d-9e8f-7a6b5c4d3e2f"
	testCommentId = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	testUserId    = "1d2c3b4a-5f6e-4d7c-8b9a-0f1e2d3c4b5a"
)
