package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/boxforum/boxforum/backend/internal/service"
	"github.com/boxforum/boxforum/shared/config"
	"github.com/boxforum/boxforum/shared/logger"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	box      service.BoxService
	thread   service.ThreadService
	comment  service.CommentService
	vote     service.VoteService
	activity service.UserActivityService
	health   HealthChecker
	cfg      *config.Config
}

type Services struct {
	Box      service.BoxService
	Thread   service.ThreadService
	Comment  service.CommentService
	Vote     service.VoteService
	Activity service.UserActivityService
}

func New(s Services, health HealthChecker, cfg *config.Config) *Handler {
	return &Handler{
		box:      s.Box,
		thread:   s.Thread,
		comment:  s.Comment,
		vote:     s.Vote,
		activity: s.Activity,
		health:   health,
		cfg:      cfg,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}
