package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/boxforum/boxforum/backend/internal/service/utils"
	"github.com/boxforum/boxforum/shared/config"
	"github.com/boxforum/boxforum/shared/domain"
	internal_errors "github.com/boxforum/boxforum/shared/errors"
	"github.com/boxforum/boxforum/shared/logger"
	"github.com/stretchr/testify/require"
)

type forum struct {
	store   *memStore
	images  *memImages
	cfg     config.Public
	box     domain.Box
	admin   *domain.User
	alice   *domain.User
	bob     *domain.User
	threads ThreadService
	comment CommentService
	vote    VoteService
	boxes   BoxService
}

func testConfig() config.Public {
	cfg := config.Public{ThreadsPerPage: 2, CommentsPerPage: 3}
	cfg.SetDefaults()
	return cfg
}

// newForum seeds one box and three users and wires the services over
// in-memory fakes.
func newForum(t *testing.T) *forum {
	t.Helper()
	useTickingClock(t)
	store := newMemStore()
	images := newMemImages()
	cfg := testConfig()
	sanitizer := utils.NewHTMLSanitizer()
	l := logger.Discard()

	admin := store.addUser(domain.User{Id: "u-admin", Fullname: "Admin", Role: domain.RoleAdmin})
	alice := store.addUser(domain.User{Id: "u-alice", Fullname: "Alice"})
	bob := store.addUser(domain.User{Id: "u-bob", Fullname: "Bob"})
	box := store.addBox(domain.Box{Id: "b-1", Name: "general", Description: "talk", CreatedAt: time.Now()})

	return &forum{
		store:   store,
		images:  images,
		cfg:     cfg,
		box:     box,
		admin:   &admin,
		alice:   &alice,
		bob:     &bob,
		threads: NewThread(store, images, sanitizer, cfg, l),
		comment: NewComment(store, sanitizer, cfg, l),
		vote:    NewVote(store, l),
		boxes:   NewBox(store, images, cfg, l),
	}
}

// over builds thread and comment services reading through store while
// writes still land in the forum's fake.
func (f *forum) over(store ContentStorage) (ThreadService, CommentService) {
	sanitizer := utils.NewHTMLSanitizer()
	return NewThread(store, f.images, sanitizer, f.cfg, logger.Discard()),
		NewComment(store, sanitizer, f.cfg, logger.Discard())
}

func (f *forum) newThread(t *testing.T, author *domain.User, title string) domain.ThreadId {
	t.Helper()
	id, err := f.threads.Create(context.Background(), author, f.box.Id, title, "<p>body of "+title+"</p>")
	require.NoError(t, err)
	return id
}

func (f *forum) newComment(t *testing.T, author *domain.User, thread domain.ThreadId, body string, replyTo *domain.CommentId) domain.CommentId {
	t.Helper()
	id, err := f.comment.Create(context.Background(), author, thread, body, replyTo)
	require.NoError(t, err)
	return id
}

func (f *forum) ban(t *testing.T, user *domain.User) {
	t.Helper()
	require.NoError(t, f.boxes.AddMember(context.Background(), f.box.Id, f.admin, domain.BoxBanned, user.Id))
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, status, internal_errors.StatusCode(err), "unexpected error: %v", err)
}

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// useTickingClock makes every write a second later than the previous one so
// ordering assertions do not depend on wall clock resolution.
func useTickingClock(t *testing.T) {
	t.Helper()
	var mu sync.Mutex
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	previous := now
	now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
	t.Cleanup(func() { now = previous })
}
