package handler

import (
	"net/http"

	"github.com/boxforum/boxforum/shared/api"
	"github.com/boxforum/boxforum/shared/domain"
	mw "github.com/boxforum/boxforum/shared/middleware"
	"github.com/boxforum/boxforum/shared/utils"
)

// Vote serves the four upvote/downvote routes. param names the route
// parameter holding the target id.
func (h *Handler) Vote(target domain.VoteTarget, param string, intent domain.VoteIntent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, param)
		if err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}

		status, err := h.vote.Vote(r.Context(), target, id, mw.GetUserFromContext(r), intent)
		if err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.VoteResponse{VoteStatus: status})
	}
}
