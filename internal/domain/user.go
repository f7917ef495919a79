package domain

import (
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity 是经过认证的调用者，由认证中间件解析后放入 context
type Identity struct {
	UserID  string
	Name    string
	IsAdmin bool
}
