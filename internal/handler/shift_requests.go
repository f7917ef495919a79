package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dienstwunsch/backend/internal/domain"
	"github.com/dienstwunsch/backend/internal/workflow"
)

// parseFilter 解析 status、limit、month 查询参数，非法的参数一并返回
func parseFilter(r *http.Request) (domain.ShiftRequestFilter, domain.FieldErrors) {
	filter := domain.ShiftRequestFilter{}
	fieldErrors := domain.FieldErrors{}
	query := r.URL.Query()

	if s := query.Get("status"); s != "" {
		status, err := domain.ParseStatus(s)
		if err != nil {
			fieldErrors.Add("status", "Ungültiger Status (erlaubt: PENDING, APPROVED, REJECTED)")
		} else {
			filter.Status = &status
		}
	}

	if s := query.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		switch {
		case err != nil:
			fieldErrors.Add("limit", "Ungültiges Limit")
		case limit > 0:
			filter.Limit = limit
		}
	}

	if s := query.Get("month"); s != "" {
		month, err := time.Parse("2006-01", s)
		if err != nil {
			fieldErrors.Add("month", "Ungültiger Monat (erwartet: JJJJ-MM)")
		} else {
			filter.Month = domain.Date{Year: month.Year(), Month: month.Month(), Day: 1}
		}
	}

	if !fieldErrors.Empty() {
		return filter, fieldErrors
	}
	return filter, nil
}

func (h *Handler) invalidQuery(w http.ResponseWriter, r *http.Request, fieldErrors domain.FieldErrors) {
	h.writeJSON(w, r, http.StatusUnprocessableEntity, Response{
		Success:     false,
		Message:     workflow.ErrValidationFailed.Message,
		FieldErrors: fieldErrors,
	})
}

func (h *Handler) GetMyShiftRequests(w http.ResponseWriter, r *http.Request) {
	filter, fieldErrors := parseFilter(r)
	if fieldErrors != nil {
		h.invalidQuery(w, r, fieldErrors)
		return
	}

	ctx := r.Context()
	identity := identityFrom(ctx)

	// 先查缓存，redis 出错时直接查数据库
	var version int64
	cacheUsable := false
	if h.listCache != nil && identity != nil {
		cached, v, ok, err := h.listCache.GetShiftRequests(ctx, identity.UserID, filter)
		switch {
		case err != nil:
			slog.Warn("无法读取缓存", "owner", identity.UserID, "error", err)
		case ok:
			h.successResponse(w, r, "Wünsche erfolgreich abgerufen", cached)
			return
		default:
			version = v
			cacheUsable = true
		}
	}

	requests, err := h.workflow.List(ctx, filter)
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	if cacheUsable {
		if err := h.listCache.SetShiftRequests(ctx, identity.UserID, version, filter, requests); err != nil {
			slog.Warn("无法写入缓存", "owner", identity.UserID, "error", err)
		}
	}

	h.successResponse(w, r, "Wünsche erfolgreich abgerufen", requests)
}

func (h *Handler) SubmitShiftRequest(w http.ResponseWriter, r *http.Request) {
	// 按字段逐个转换，客户端传来的 status、ownerId 会被忽略
	var payload map[string]any
	if err := h.readJSON(r, &payload); err != nil {
		h.invalidBody(w, r)
		return
	}

	req, err := h.workflow.Submit(r.Context(), workflow.InputFromMap(payload))
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.createdResponse(w, r, "Wunsch erfolgreich eingereicht", req)
}

func (h *Handler) UpdateShiftRequestRemarks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Remarks *string `json:"remarks"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.invalidBody(w, r)
		return
	}

	updated, err := h.workflow.UpdateRemarks(r.Context(), chi.URLParam(r, "id"), req.Remarks)
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "Bemerkungen erfolgreich geändert", updated)
}

func (h *Handler) DeleteShiftRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.workflow.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "Wunsch erfolgreich gelöscht", nil)
}
