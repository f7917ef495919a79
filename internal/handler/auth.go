package handler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dienstwunsch/backend/internal/domain"
)

const tokenCookieName = "__dienstwunsch_token"

const msgInvalidCredentials = "Ungültiger Name oder ungültiges Passwort"

type AuthClaims struct {
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name" validate:"required,max=50"`
		Password string `json:"password" validate:"required,max=72"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.invalidBody(w, r)
		return
	}
	// 名字前后的空格不区分账号
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.findOrRegister(r.Context(), req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusUnauthorized, msgInvalidCredentials)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			h.errorResponse(w, r, http.StatusUnauthorized, msgInvalidCredentials)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 生成 JWT
	now := time.Now()
	expiration := now.Add(time.Duration(h.config.JWT.Expiration) * time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   user.ID,
		},
	})
	ss, err := token.SignedString([]byte(h.config.JWT.Secret))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 通过 http-only 的 cookie 返回给客户端
	cookie := &http.Cookie{
		Name:     tokenCookieName,
		Value:    ss,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
	}

	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, cookie)

	h.successResponse(w, r, "Anmeldung erfolgreich", user)
}

// findOrRegister 查找用户，开启自动注册时为不存在的名字创建普通用户
func (h *Handler) findOrRegister(ctx context.Context, name, password string) (*domain.User, error) {
	user, err := h.repository.GetUserByName(ctx, name)
	if err == nil || !errors.Is(err, sql.ErrNoRows) || !h.config.Auth.AutoRegister {
		return user, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user = &domain.User{
		Name:         name,
		PasswordHash: string(passwordHash),
	}
	if err := h.repository.CreateUser(ctx, user); err != nil {
		// 同名用户刚刚被并发创建，按已存在处理
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			return h.repository.GetUserByName(ctx, name)
		}
		return nil, err
	}

	slog.Info("已自动注册新用户", "id", user.ID, "name", user.Name)
	return user, nil
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:    tokenCookieName,
		Value:   "",
		Expires: time.Now().Add(-time.Hour),
		Path:    "/",
	})

	h.successResponse(w, r, "Abmeldung erfolgreich", nil)
}
