package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dienstwunsch/backend/internal/domain"
)

const msgNameTaken = "Der Name ist bereits vergeben"

func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repository.GetAllUsers(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Benutzerliste erfolgreich abgerufen", users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name" validate:"required,max=50"`
		Password string `json:"password" validate:"required,max=72"`
		IsAdmin  bool   `json:"isAdmin"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.invalidBody(w, r)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 对密码进行哈希
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Name:         req.Name,
		PasswordHash: string(passwordHash),
		IsAdmin:      req.IsAdmin,
	}

	if err := h.repository.CreateUser(r.Context(), user); err != nil {
		var conflict *domain.ConflictError
		switch {
		case errors.As(err, &conflict):
			h.errorResponse(w, r, http.StatusBadRequest, msgNameTaken)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.createdResponse(w, r, "Benutzer erfolgreich angelegt", user)
}

func (h *Handler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, "Benutzerdaten erfolgreich abgerufen", user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsAdmin *bool `json:"isAdmin" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.invalidBody(w, r)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user := r.Context().Value(UserInfoCtx).(*domain.User)
	user.IsAdmin = *req.IsAdmin

	if err := h.repository.UpdateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusNotFound, msgUserNotFound)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "Benutzer erfolgreich aktualisiert", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if err := h.repository.DeleteUser(r.Context(), user.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusNotFound, msgUserNotFound)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 愿望随用户一起删除，缓存中的列表也要失效
	if h.listCache != nil {
		if err := h.listCache.InvalidateShiftRequests(r.Context(), user.ID); err != nil {
			slog.Warn("无法使缓存失效", "user", user.ID, "error", err)
		}
	}

	h.successResponse(w, r, "Benutzer erfolgreich gelöscht", nil)
}

func (h *Handler) UpdateUserPassword(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	var req struct {
		Password string `json:"password" validate:"required,max=72"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.invalidBody(w, r)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 对密码进行哈希
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user.PasswordHash = string(passwordHash)
	if err := h.repository.UpdateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusNotFound, msgUserNotFound)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "Passwort erfolgreich geändert", nil)
}
