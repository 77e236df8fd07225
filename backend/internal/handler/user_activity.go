package handler

import (
	"net/http"

	"github.com/boxforum/boxforum/shared/utils"
)

// GetUserPosts returns a user's threads and comments, newest first.
func (h *Handler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	userId, err := idParam(r, "user")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	history, err := h.activity.GetUserPosts(r.Context(), userId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
