package handler

import (
	"net/http"

	"github.com/boxforum/boxforum/shared/api"
	mw "github.com/boxforum/boxforum/shared/middleware"
	"github.com/boxforum/boxforum/shared/utils"
)

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	threadId, err := idParam(r, "thread")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.CreateCommentRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	id, err := h.comment.Create(r.Context(), mw.GetUserFromContext(r), threadId, body.Body, body.ReplyTo)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.CreatedResponse{Id: id})
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	commentId, err := idParam(r, "comment")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.UpdateCommentRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.comment.Update(r.Context(), commentId, mw.GetUserFromContext(r), body.Body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	commentId, err := idParam(r, "comment")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.comment.Delete(r.Context(), commentId, mw.GetUserFromContext(r)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
