package handler

import (
	"net/http"

	"github.com/boxforum/boxforum/shared/api"
	"github.com/boxforum/boxforum/shared/domain"
	mw "github.com/boxforum/boxforum/shared/middleware"
	"github.com/boxforum/boxforum/shared/utils"
)

func (h *Handler) ListBoxes(w http.ResponseWriter, r *http.Request) {
	boxes, err := h.box.List(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.BoxListResponse{Boxes: boxes})
}

func (h *Handler) CreateBox(w http.ResponseWriter, r *http.Request) {
	var body api.CreateBoxRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	id, err := h.box.Create(r.Context(), mw.GetUserFromContext(r), body.Name, body.Description)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.CreatedResponse{Id: id})
}

func (h *Handler) GetBox(w http.ResponseWriter, r *http.Request) {
	boxId, err := idParam(r, "box")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	view, err := h.box.Read(r.Context(), boxId, page, mw.GetUserFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) RenameBox(w http.ResponseWriter, r *http.Request) {
	boxId, err := idParam(r, "box")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.RenameBoxRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.box.Rename(r.Context(), boxId, mw.GetUserFromContext(r), body.Name); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) UpdateBoxDescription(w http.ResponseWriter, r *http.Request) {
	boxId, err := idParam(r, "box")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.UpdateBoxDescriptionRequest
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.box.UpdateDescription(r.Context(), boxId, mw.GetUserFromContext(r), body.Description); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) DeleteBox(w http.ResponseWriter, r *http.Request) {
	boxId, err := idParam(r, "box")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.box.Delete(r.Context(), boxId, mw.GetUserFromContext(r)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddBoxMember handles POST /boxes/{box}/moderators and /boxes/{box}/banned.
func (h *Handler) AddBoxMember(list domain.BoxList) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boxId, err := idParam(r, "box")
		if err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
		var body api.BoxMemberRequest
		if err := utils.DecodeValidate(r.Body, &body); err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}

		if err := h.box.AddMember(r.Context(), boxId, mw.GetUserFromContext(r), list, body.UserId); err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// RemoveBoxMember handles DELETE /boxes/{box}/moderators/{user} and
// /boxes/{box}/banned/{user}.
func (h *Handler) RemoveBoxMember(list domain.BoxList) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boxId, err := idParam(r, "box")
		if err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
		userId, err := idParam(r, "user")
		if err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}

		if err := h.box.RemoveMember(r.Context(), boxId, mw.GetUserFromContext(r), list, userId); err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
