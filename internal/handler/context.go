package handler

import (
	"context"
	"errors"

	"github.com/dienstwunsch/backend/internal/domain"
)

type ContextKey string

var (
	IdentityCtxKey ContextKey = "identity"
	MyInfoCtx      ContextKey = "myInfo"
	UserInfoCtx    ContextKey = "userInfo"
)

var errNoIdentity = errors.New("no identity in context")

// ContextIdentity 从 context 中读取认证中间件放入的身份
type ContextIdentity struct{}

func (ContextIdentity) ResolveCurrentUser(ctx context.Context) (*domain.Identity, error) {
	identity, ok := ctx.Value(IdentityCtxKey).(*domain.Identity)
	if !ok || identity == nil {
		return nil, errNoIdentity
	}
	return identity, nil
}

func identityFrom(ctx context.Context) *domain.Identity {
	identity, _ := ContextIdentity{}.ResolveCurrentUser(ctx)
	return identity
}
