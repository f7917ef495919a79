// Package workflow 实现排班愿望的提交、查询、删除以及管理员审核。
// 所有协作方的错误都会在这里被转换为 *Error，调用方不会看到数据库层的错误信息。
package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/dienstwunsch/backend/internal/domain"
)

// IdentityResolver 返回当前调用者，无法确定时返回错误
type IdentityResolver interface {
	ResolveCurrentUser(ctx context.Context) (*domain.Identity, error)
}

type IdentityFunc func(ctx context.Context) (*domain.Identity, error)

func (f IdentityFunc) ResolveCurrentUser(ctx context.Context) (*domain.Identity, error) {
	return f(ctx)
}

// Store 是持久化层需要提供的能力。
// 不存在的记录返回 sql.ErrNoRows，违反唯一约束返回 *domain.ConflictError。
type Store interface {
	CreateShiftRequest(ctx context.Context, req *domain.ShiftRequest) error
	GetShiftRequestByID(ctx context.Context, id string) (*domain.ShiftRequest, error)
	GetShiftRequestsByOwner(ctx context.Context, ownerID string, filter domain.ShiftRequestFilter) ([]*domain.ShiftRequest, error)
	GetAllShiftRequests(ctx context.Context, filter domain.ShiftRequestFilter) ([]*domain.ShiftRequest, error)
	DeletePendingShiftRequest(ctx context.Context, id string) error
	UpdatePendingShiftRequestRemarks(ctx context.Context, id string, remarks *string) (time.Time, error)
	UpdateShiftRequestStatus(ctx context.Context, id string, from, to domain.Status) (time.Time, error)
}

// Invalidator 在某个用户的记录发生变化后被调用，用于让缓存的列表失效
type Invalidator interface {
	InvalidateShiftRequests(ctx context.Context, ownerID string) error
}

type Notifier interface {
	ShiftRequestSubmitted(ctx context.Context, req *domain.ShiftRequest) error
	ShiftRequestWithdrawn(ctx context.Context, req *domain.ShiftRequest) error
}

type Workflow struct {
	store       Store
	identity    IdentityResolver
	now         func() time.Time
	location    *time.Location
	invalidator Invalidator
	notifier    Notifier
	logger      *slog.Logger
}

type Option func(*Workflow)

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		w.now = now
	}
}

func WithLocation(loc *time.Location) Option {
	return func(w *Workflow) {
		w.location = loc
	}
}

func WithInvalidator(invalidator Invalidator) Option {
	return func(w *Workflow) {
		w.invalidator = invalidator
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(w *Workflow) {
		w.notifier = notifier
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

func New(store Store, identity IdentityResolver, opts ...Option) *Workflow {
	w := &Workflow{
		store:    store,
		identity: identity,
		now:      time.Now,
		location: time.Local,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

func (w *Workflow) today() domain.Date {
	return domain.Today(w.now(), w.location)
}

func (w *Workflow) resolve(ctx context.Context) (*domain.Identity, error) {
	identity, err := w.identity.ResolveCurrentUser(ctx)
	if err != nil || identity == nil || identity.UserID == "" {
		return nil, ErrUnauthenticated
	}
	return identity, nil
}

// changed 通知缓存失效，失败只记录日志，不影响本次操作的结果
func (w *Workflow) changed(ctx context.Context, ownerID string) {
	if w.invalidator == nil {
		return
	}
	if err := w.invalidator.InvalidateShiftRequests(ctx, ownerID); err != nil {
		w.logger.Warn("无法使缓存失效", "owner", ownerID, "error", err)
	}
}
