package handler

import (
	"net/http"

	"github.com/boxforum/boxforum/shared/api"
	mw "github.com/boxforum/boxforum/shared/middleware"
	"github.com/boxforum/boxforum/shared/utils"
)

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	boxId, err := idParam(r, "box")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.CreateThreadRequest
	if err := utils.DecodeValidate(http.MaxBytesReader(w, r.Body, h.maxThreadRequest()), &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	id, err := h.thread.Create(r.Context(), mw.GetUserFromContext(r), boxId, body.Title, body.Body)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.CreatedResponse{Id: id})
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	threadId, err := idParam(r, "thread")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	view, err := h.thread.Read(r.Context(), threadId, page, mw.GetUserFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) UpdateThread(w http.ResponseWriter, r *http.Request) {
	threadId, err := idParam(r, "thread")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.UpdateThreadRequest
	if err := utils.DecodeValidate(http.MaxBytesReader(w, r.Body, h.maxThreadRequest()), &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.thread.Update(r.Context(), threadId, mw.GetUserFromContext(r), body.Body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	threadId, err := idParam(r, "thread")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.thread.Delete(r.Context(), threadId, mw.GetUserFromContext(r)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ThreadPermissions(w http.ResponseWriter, r *http.Request) {
	threadId, err := idParam(r, "thread")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	perms, err := h.thread.Permissions(r.Context(), threadId, mw.GetUserFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, perms)
}

// maxThreadRequest bounds the request body: an inline image is base64
// encoded, so allow a third more than the image limit plus the text.
func (h *Handler) maxThreadRequest() int64 {
	if h.cfg == nil {
		return 16 << 20
	}
	p := h.cfg.Public
	return p.MaxImageSize*4/3 + int64(p.MaxStoredBodyLength)*4 + 1<<16
}
