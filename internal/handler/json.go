package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dienstwunsch/backend/internal/domain"
	"github.com/dienstwunsch/backend/internal/workflow"
)

const msgInternalServerError = "Interner Serverfehler"

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("服务器内部错误", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, msgInternalServerError, http.StatusInternalServerError)
	}
}

type Response struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	Data        any                `json:"data"`
	FieldErrors domain.FieldErrors `json:"fieldErrors,omitempty"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) invalidBody(w http.ResponseWriter, r *http.Request) {
	h.errorResponse(w, r, http.StatusBadRequest, "Ungültiger Request-Body")
}

// badRequest 把 validator 的错误翻译成德语，所有字段一并返回
func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		h.errorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	fieldErrors := domain.FieldErrors{}
	for _, fe := range validationErrors {
		fieldErrors.Add(fe.Field(), fe.Translate(h.translator))
	}

	h.writeJSON(w, r, http.StatusUnprocessableEntity, Response{
		Success:     false,
		Message:     validationErrors[0].Translate(h.translator),
		FieldErrors: fieldErrors,
	})
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: msgInternalServerError,
		Data:    nil,
	})
}

var kindStatus = map[workflow.Kind]int{
	workflow.KindUnauthenticated:    http.StatusUnauthorized,
	workflow.KindValidationFailed:   http.StatusUnprocessableEntity,
	workflow.KindDuplicateRequest:   http.StatusBadRequest,
	workflow.KindNotFound:           http.StatusNotFound,
	workflow.KindForbidden:          http.StatusForbidden,
	workflow.KindInvalidState:       http.StatusBadRequest,
	workflow.KindPersistenceFailure: http.StatusInternalServerError,
}

// workflowError 把 workflow 返回的错误转换成响应，持久化错误已经在 workflow 中记录过日志
func (h *Handler) workflowError(w http.ResponseWriter, r *http.Request, err error) {
	var wfErr *workflow.Error
	if !errors.As(err, &wfErr) {
		h.internalServerError(w, r, err)
		return
	}

	status, ok := kindStatus[wfErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	h.writeJSON(w, r, status, Response{
		Success:     false,
		Message:     wfErr.Message,
		FieldErrors: wfErr.FieldErrors,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func (h *Handler) createdResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusCreated, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}
