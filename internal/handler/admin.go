package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dienstwunsch/backend/internal/domain"
)

func (h *Handler) GetAllShiftRequests(w http.ResponseWriter, r *http.Request) {
	filter, fieldErrors := parseFilter(r)
	if fieldErrors != nil {
		h.invalidQuery(w, r, fieldErrors)
		return
	}

	requests, err := h.workflow.ListAll(r.Context(), filter)
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "Wünsche erfolgreich abgerufen", requests)
}

func (h *Handler) ReviewShiftRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.invalidBody(w, r)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	reviewed, err := h.workflow.Review(r.Context(), chi.URLParam(r, "id"), domain.Status(req.Status))
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "Wunsch erfolgreich entschieden", reviewed)
}
