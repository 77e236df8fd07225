package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/boxforum/boxforum/shared/domain"
	internal_errors "github.com/boxforum/boxforum/shared/errors"
)

// --- In-memory Content Store ---

// memStore serializes transactions behind one mutex and applies a
// transaction's writes to a copy that replaces the state only on commit.
type memStore struct {
	mu    sync.Mutex
	state *memState

	// failCommit, when set, aborts the next transaction after fn succeeded.
	failCommit error
	txCount    int
}

type memState struct {
	boxes    map[string]domain.Box
	threads  map[string]domain.Thread
	comments map[string]domain.Comment
	users    map[string]domain.User
}

var _ ContentStorage = (*memStore)(nil)
var _ ContentTx = (*memState)(nil)

func newMemStore() *memStore {
	return &memStore{state: &memState{
		boxes:    map[string]domain.Box{},
		threads:  map[string]domain.Thread{},
		comments: map[string]domain.Comment{},
		users:    map[string]domain.User{},
	}}
}

func (s *memState) clone() *memState {
	c := &memState{
		boxes:    make(map[string]domain.Box, len(s.boxes)),
		threads:  make(map[string]domain.Thread, len(s.threads)),
		comments: make(map[string]domain.Comment, len(s.comments)),
		users:    make(map[string]domain.User, len(s.users)),
	}
	for k, v := range s.boxes {
		c.boxes[k] = copyBox(v)
	}
	for k, v := range s.threads {
		c.threads[k] = copyThread(v)
	}
	for k, v := range s.comments {
		c.comments[k] = copyComment(v)
	}
	for k, v := range s.users {
		c.users[k] = copyUser(v)
	}
	return c
}

func copyBox(b domain.Box) domain.Box {
	b.Moderators = slices.Clone(b.Moderators)
	b.Banned = slices.Clone(b.Banned)
	b.Threads = slices.Clone(b.Threads)
	return b
}

func copyThread(t domain.Thread) domain.Thread {
	t.Upvoted = slices.Clone(t.Upvoted)
	t.Downvoted = slices.Clone(t.Downvoted)
	t.Comments = slices.Clone(t.Comments)
	return t
}

func copyComment(c domain.Comment) domain.Comment {
	c.Upvoted = slices.Clone(c.Upvoted)
	c.Downvoted = slices.Clone(c.Downvoted)
	if c.ReplyTo != nil {
		r := *c.ReplyTo
		c.ReplyTo = &r
	}
	return c
}

func copyUser(u domain.User) domain.User {
	u.Threads = slices.Clone(u.Threads)
	u.Comments = slices.Clone(u.Comments)
	return u
}

// seeding helpers used directly by tests

func (m *memStore) addUser(u domain.User) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	m.state.users[u.Id] = u
	return u
}

func (m *memStore) addBox(b domain.Box) domain.Box {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.boxes[b.Id] = b
	return b
}

func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// --- ContentStorage ---

func (m *memStore) WithTx(ctx context.Context, fn func(tx ContentTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++

	work := m.state.clone()
	if err := fn(work); err != nil {
		return err
	}
	if m.failCommit != nil {
		err := m.failCommit
		m.failCommit = nil
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	m.state = work
	return nil
}

func (m *memStore) Ping(ctx context.Context) error { return nil }

func (m *memStore) ListBoxes(ctx context.Context) ([]domain.BoxSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.BoxSummary
	for _, b := range m.state.boxes {
		out = append(out, domain.BoxSummary{Id: b.Id, Name: b.Name, Description: b.Description, ThreadCount: len(b.Threads)})
	}
	slices.SortFunc(out, func(a, b domain.BoxSummary) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out, nil
}

func (m *memStore) GetBox(ctx context.Context, id domain.BoxId) (domain.Box, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetBox(ctx, id)
}

func (m *memStore) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetThread(ctx, id)
}

func (m *memStore) GetComment(ctx context.Context, id domain.CommentId) (domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetComment(ctx, id)
}

func (m *memStore) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetUser(ctx, id)
}

func (m *memStore) GetThreads(ctx context.Context, ids []domain.ThreadId) ([]domain.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetThreads(ctx, ids)
}

func (m *memStore) GetComments(ctx context.Context, ids []domain.CommentId) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetComments(ctx, ids)
}

func (m *memStore) GetUsers(ctx context.Context, ids []domain.UserId) (map[domain.UserId]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetUsers(ctx, ids)
}

// --- ContentTx (and reads shared with the store) ---

func (s *memState) GetBox(ctx context.Context, id domain.BoxId) (domain.Box, error) {
	b, ok := s.boxes[id]
	if !ok {
		return domain.Box{}, internal_errors.NotFound("Box not found")
	}
	return copyBox(b), nil
}

func (s *memState) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	t, ok := s.threads[id]
	if !ok {
		return domain.Thread{}, internal_errors.NotFound("Thread not found")
	}
	return copyThread(t), nil
}

func (s *memState) GetComment(ctx context.Context, id domain.CommentId) (domain.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return domain.Comment{}, internal_errors.NotFound("Comment not found")
	}
	return copyComment(c), nil
}

func (s *memState) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, internal_errors.NotFound("User not found")
	}
	return copyUser(u), nil
}

func (s *memState) GetThreads(ctx context.Context, ids []domain.ThreadId) ([]domain.Thread, error) {
	out := []domain.Thread{}
	for _, id := range ids {
		if t, ok := s.threads[id]; ok {
			out = append(out, copyThread(t))
		}
	}
	return out, nil
}

func (s *memState) GetComments(ctx context.Context, ids []domain.CommentId) ([]domain.Comment, error) {
	out := []domain.Comment{}
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			out = append(out, copyComment(c))
		}
	}
	return out, nil
}

func (s *memState) GetUsers(ctx context.Context, ids []domain.UserId) (map[domain.UserId]domain.User, error) {
	out := make(map[domain.UserId]domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = copyUser(u)
		}
	}
	return out, nil
}

var errForeignKey = errors.New("foreign key violation")

func (s *memState) CreateBox(ctx context.Context, box domain.Box) error {
	for _, b := range s.boxes {
		if b.Name == box.Name {
			return internal_errors.Validation("Box name already taken")
		}
	}
	s.boxes[box.Id] = copyBox(box)
	return nil
}

func (s *memState) UpdateBoxInfo(ctx context.Context, id domain.BoxId, name, description string) error {
	b, ok := s.boxes[id]
	if !ok {
		return internal_errors.NotFound("Box not found")
	}
	b.Name, b.Description, b.UpdatedAt = name, description, time.Now()
	s.boxes[id] = b
	return nil
}

func (s *memState) DeleteBox(ctx context.Context, id domain.BoxId) error {
	if _, ok := s.boxes[id]; !ok {
		return internal_errors.NotFound("Box not found")
	}
	for _, t := range s.threads {
		if t.Box == id {
			return errForeignKey
		}
	}
	delete(s.boxes, id)
	return nil
}

func (s *memState) AddBoxMember(ctx context.Context, id domain.BoxId, list domain.BoxList, user domain.UserId) error {
	b, ok := s.boxes[id]
	if !ok {
		return internal_errors.NotFound("Box not found")
	}
	if list == domain.BoxBanned {
		b.Banned = appendUnique(b.Banned, user)
	} else {
		b.Moderators = appendUnique(b.Moderators, user)
	}
	s.boxes[id] = b
	return nil
}

func (s *memState) RemoveBoxMember(ctx context.Context, id domain.BoxId, list domain.BoxList, user domain.UserId) error {
	b, ok := s.boxes[id]
	if !ok {
		return internal_errors.NotFound("Box not found")
	}
	if list == domain.BoxBanned {
		b.Banned = removeAll(b.Banned, []string{user})
	} else {
		b.Moderators = removeAll(b.Moderators, []string{user})
	}
	s.boxes[id] = b
	return nil
}

func (s *memState) CreateThread(ctx context.Context, thread domain.Thread) error {
	if _, ok := s.boxes[thread.Box]; !ok {
		return errForeignKey
	}
	if _, ok := s.users[thread.Author]; !ok {
		return errForeignKey
	}
	s.threads[thread.Id] = copyThread(thread)
	return nil
}

func (s *memState) UpdateThreadBody(ctx context.Context, id domain.ThreadId, body, imageUrl string, at time.Time) error {
	t, ok := s.threads[id]
	if !ok {
		return internal_errors.NotFound("Thread not found")
	}
	t.Body, t.ImageUrl, t.UpdatedAt = body, imageUrl, at
	s.threads[id] = t
	return nil
}

func (s *memState) TouchThread(ctx context.Context, id domain.ThreadId, at time.Time) error {
	t, ok := s.threads[id]
	if !ok {
		return internal_errors.NotFound("Thread not found")
	}
	t.UpdatedAt = at
	s.threads[id] = t
	return nil
}

func (s *memState) DeleteThread(ctx context.Context, id domain.ThreadId) error {
	if _, ok := s.threads[id]; !ok {
		return internal_errors.NotFound("Thread not found")
	}
	for _, c := range s.comments {
		if c.Thread == id {
			return errForeignKey
		}
	}
	delete(s.threads, id)
	return nil
}

func (s *memState) DeleteThreadComments(ctx context.Context, id domain.ThreadId) ([]domain.Comment, error) {
	var deleted []domain.Comment
	for cid, c := range s.comments {
		if c.Thread == id {
			deleted = append(deleted, c)
			delete(s.comments, cid)
		}
	}
	return deleted, nil
}

func (s *memState) CreateComment(ctx context.Context, comment domain.Comment) error {
	if _, ok := s.threads[comment.Thread]; !ok {
		return errForeignKey
	}
	if _, ok := s.users[comment.Author]; !ok {
		return errForeignKey
	}
	s.comments[comment.Id] = copyComment(comment)
	return nil
}

func (s *memState) UpdateCommentBody(ctx context.Context, id domain.CommentId, body string, at time.Time) error {
	c, ok := s.comments[id]
	if !ok {
		return internal_errors.NotFound("Comment not found")
	}
	c.Body, c.UpdatedAt = body, at
	s.comments[id] = c
	return nil
}

func (s *memState) DeleteComment(ctx context.Context, id domain.CommentId) error {
	if _, ok := s.comments[id]; !ok {
		return internal_errors.NotFound("Comment not found")
	}
	delete(s.comments, id)
	return nil
}

func (s *memState) AppendRef(ctx context.Context, ref domain.Ref, owner, child string) error {
	return s.mutateRef(ref, owner, func(ids []string) []string { return appendUnique(ids, child) }, true)
}

func (s *memState) RemoveRefs(ctx context.Context, ref domain.Ref, owner string, children []string) error {
	return s.mutateRef(ref, owner, func(ids []string) []string { return removeAll(ids, children) }, false)
}

func (s *memState) mutateRef(ref domain.Ref, owner string, fn func([]string) []string, mustExist bool) error {
	notFound := func() error {
		if mustExist {
			return internal_errors.NotFound(fmt.Sprintf("%s owner not found", ref))
		}
		return nil
	}
	switch ref {
	case domain.BoxThreads:
		b, ok := s.boxes[owner]
		if !ok {
			return notFound()
		}
		b.Threads = fn(b.Threads)
		s.boxes[owner] = b
	case domain.ThreadComments:
		t, ok := s.threads[owner]
		if !ok {
			return notFound()
		}
		t.Comments = fn(t.Comments)
		s.threads[owner] = t
	case domain.UserThreads, domain.UserComments:
		u, ok := s.users[owner]
		if !ok {
			return notFound()
		}
		if ref == domain.UserThreads {
			u.Threads = fn(u.Threads)
		} else {
			u.Comments = fn(u.Comments)
		}
		s.users[owner] = u
	}
	return nil
}

func (s *memState) SetVote(ctx context.Context, target domain.VoteTarget, id string, voter domain.UserId, status domain.VoteStatus) error {
	apply := func(up, down []domain.UserId) ([]domain.UserId, []domain.UserId) {
		up, down = removeAll(up, []string{voter}), removeAll(down, []string{voter})
		switch status {
		case domain.VoteUp:
			up = append(up, voter)
		case domain.VoteDown:
			down = append(down, voter)
		}
		return up, down
	}
	if target == domain.TargetComment {
		c, ok := s.comments[id]
		if !ok {
			return internal_errors.NotFound("Comment not found")
		}
		c.Upvoted, c.Downvoted = apply(c.Upvoted, c.Downvoted)
		s.comments[id] = c
		return nil
	}
	t, ok := s.threads[id]
	if !ok {
		return internal_errors.NotFound("Thread not found")
	}
	t.Upvoted, t.Downvoted = apply(t.Upvoted, t.Downvoted)
	s.threads[id] = t
	return nil
}

func appendUnique(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeAll(ids []string, drop []string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if !slices.Contains(drop, id) {
			out = append(out, id)
		}
	}
	return out
}

// --- Image store and cache fakes ---

type memImages struct {
	mu        sync.Mutex
	objects   map[string][]byte
	modTimes  map[string]time.Time
	uploadErr error
	deleteErr error
	listErr   error
	deleted   []string
}

func newMemImages() *memImages {
	return &memImages{objects: map[string][]byte{}, modTimes: map[string]time.Time{}}
}

func (m *memImages) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.objects[key] = data
	m.modTimes[key] = time.Now()
	return nil
}

func (m *memImages) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, key)
	return nil
}

func (m *memImages) ListImages(ctx context.Context, prefix string) ([]StoredImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []StoredImage
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, StoredImage{Key: key, ModTime: m.modTimes[key]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// age backdates every stored object by d.
func (m *memImages) age(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, t := range m.modTimes {
		m.modTimes[key] = t.Add(-d)
	}
}

func (m *memImages) URL(key string) string {
	return "/media/" + key
}

func (m *memImages) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// racingStore runs a hook once right after an unlocked read, standing in
// for a write that commits between a service's checks and its transaction.
type racingStore struct {
	*memStore
	afterGetBox     func()
	afterGetThread  func()
	afterGetComment func()
}

func (r *racingStore) GetBox(ctx context.Context, id domain.BoxId) (domain.Box, error) {
	box, err := r.memStore.GetBox(ctx, id)
	if hook := r.afterGetBox; hook != nil {
		r.afterGetBox = nil
		hook()
	}
	return box, err
}

func (r *racingStore) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	thread, err := r.memStore.GetThread(ctx, id)
	if hook := r.afterGetThread; hook != nil {
		r.afterGetThread = nil
		hook()
	}
	return thread, err
}

func (r *racingStore) GetComment(ctx context.Context, id domain.CommentId) (domain.Comment, error) {
	comment, err := r.memStore.GetComment(ctx, id)
	if hook := r.afterGetComment; hook != nil {
		r.afterGetComment = nil
		hook()
	}
	return comment, err
}
