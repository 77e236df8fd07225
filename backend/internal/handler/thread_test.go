package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boxforum/boxforum/shared/config"
	"github.com/boxforum/boxforum/shared/domain"
	internal_errors "github.com/boxforum/boxforum/shared/errors"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threadRouter(h *Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Post("/v1/boxes/{box}/threads", h.CreateThread)
	router.Get("/v1/threads/{thread}", h.GetThread)
	router.Put("/v1/threads/{thread}", h.UpdateThread)
	router.Delete("/v1/threads/{thread}", h.DeleteThread)
	router.Get("/v1/threads/{thread}/permissions", h.ThreadPermissions)
	return router
}

func TestCreateThreadHandler(t *testing.T) {
	cfg := &config.Config{}
	cfg.Public.SetDefaults()
	h := &Handler{cfg: cfg}
	router := threadRouter(h)
	user := &domain.User{Id: testUserId}
	route := "/v1/boxes/" + testBoxId + "/threads"

	t.Run("successful request", func(t *testing.T) {
		h.thread = &MockThreadService{
			MockCreate: func(ctx context.Context, author *domain.User, boxId domain.BoxId, title, body string) (domain.ThreadId, error) {
				assert.Equal(t, user, author)
				assert.Equal(t, testBoxId, boxId)
				assert.Equal(t, "T", title)
				assert.Equal(t, "<p>B</p>", body)
				return testThreadId, nil
			},
		}
		req := withUser(httptest.NewRequest(http.MethodPost, route, bytes.NewBufferString(`{"title":"T","body":"<p>B</p>"}`)), user)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Contains(t, rr.Body.String(), testThreadId)
	})

	t.Run("missing fields", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, route, bytes.NewBufferString(`{"title":"T"}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("typed service errors", func(t *testing.T) {
		for _, err := range []error{
			internal_errors.Forbidden("You are banned from this box"),
			internal_errors.NotFound("Box not found"),
			internal_errors.ImageFailure("Image upload failed"),
		} {
			h.thread = &MockThreadService{
				MockCreate: func(ctx context.Context, author *domain.User, boxId domain.BoxId, title, body string) (domain.ThreadId, error) {
					return "", err
				},
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, route, bytes.NewBufferString(`{"title":"T","body":"B"}`)))
			assert.Equal(t, internal_errors.StatusCode(err), rr.Code)
			assert.Contains(t, rr.Body.String(), err.Error())
		}
	})
}

func TestGetThreadHandler(t *testing.T) {
	h := &Handler{}
	router := threadRouter(h)
	h.thread = &MockThreadService{
		MockRead: func(ctx context.Context, id domain.ThreadId, page int, viewer *domain.User) (domain.ThreadView, error) {
			if page > 1 {
				return domain.ThreadView{}, internal_errors.PageNotFound()
			}
			parent := "p"
			return domain.ThreadView{
				Id:        id,
				Title:     "T",
				PageCount: 1,
				Comments: []domain.CommentView{
					{Id: "p", Body: "parent"},
					{Id: "c", Body: "child", Reply: &domain.ReplyView{Id: parent, Body: "parent"}},
				},
			}, nil
		},
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/threads/"+testThreadId, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var raw struct {
		Title    string           `json:"title"`
		Comments []map[string]any `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	assert.Equal(t, "T", raw.Title)
	require.Len(t, raw.Comments, 2)
	assert.NotContains(t, raw.Comments[0], "reply", "a comment without a parent has no reply field")
	assert.Contains(t, raw.Comments[1], "reply")

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/threads/"+testThreadId+"?page=2", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateAndDeleteThreadHandlers(t *testing.T) {
	h := &Handler{}
	router := threadRouter(h)
	user := &domain.User{Id: testUserId}
	var updated string
	h.thread = &MockThreadService{
		MockUpdate: func(ctx context.Context, id domain.ThreadId, actor *domain.User, body string) error {
			updated = body
			return nil
		},
		MockDelete: func(ctx context.Context, id domain.ThreadId, actor *domain.User) error {
			if actor == nil {
				return internal_errors.Forbidden("Please sign-in")
			}
			return nil
		},
		MockPermissions: func(ctx context.Context, id domain.ThreadId, viewer *domain.User) (domain.Permissions, error) {
			return domain.Permissions{DeleterStatus: domain.DeleterAuthor, UpdaterStatus: domain.UpdaterAuthor}, nil
		},
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPut, "/v1/threads/"+testThreadId, bytes.NewBufferString(`{"body":"<p>new</p>"}`)), user))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "<p>new</p>", updated)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/v1/threads/"+testThreadId, nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodDelete, "/v1/threads/"+testThreadId, nil), user))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodGet, "/v1/threads/"+testThreadId+"/permissions", nil), user))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"deleterStatus":"author","updaterStatus":"author"}`, rr.Body.String())
}

func TestCreateThreadHandlerRejectsOversizedBody(t *testing.T) {
	cfg := &config.Config{}
	cfg.Public.SetDefaults()
	cfg.Public.MaxImageSize = 1024
	cfg.Public.MaxStoredBodyLength = 1024
	called := false
	h := &Handler{cfg: cfg, thread: &MockThreadService{
		MockCreate: func(ctx context.Context, author *domain.User, boxId domain.BoxId, title, body string) (domain.ThreadId, error) {
			called = true
			return testThreadId, nil
		},
	}}
	router := threadRouter(h)

	body := `{"title":"T","body":"` + strings.Repeat("a", int(h.maxThreadRequest())+1) + `"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/boxes/"+testBoxId+"/threads", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, called)
}
