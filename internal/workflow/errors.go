package workflow

import (
	"errors"

	"github.com/dienstwunsch/backend/internal/domain"
)

type Kind int

const (
	KindUnauthenticated Kind = iota + 1
	KindValidationFailed
	KindDuplicateRequest
	KindNotFound
	KindForbidden
	KindInvalidState
	KindPersistenceFailure
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "Unauthenticated"
	case KindValidationFailed:
		return "ValidationFailed"
	case KindDuplicateRequest:
		return "DuplicateRequest"
	case KindNotFound:
		return "NotFound"
	case KindForbidden:
		return "Forbidden"
	case KindInvalidState:
		return "InvalidState"
	case KindPersistenceFailure:
		return "PersistenceFailure"
	default:
		return "Unknown"
	}
}

// Error 是返回给调用方的业务错误，Message 可以直接展示给用户
type Error struct {
	Kind        Kind
	Message     string
	FieldErrors domain.FieldErrors
	cause       error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is 按 Kind 比较，使 errors.Is(err, ErrForbidden) 这样的写法成立
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Retryable 只有持久化失败值得重试，其余错误都需要用户修改输入
func (e *Error) Retryable() bool {
	return e.Kind == KindPersistenceFailure
}

var (
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Message: "Sie müssen angemeldet sein"}
	ErrValidationFailed   = &Error{Kind: KindValidationFailed, Message: "Ungültige Eingabe"}
	ErrDuplicateRequest   = &Error{Kind: KindDuplicateRequest, Message: "Sie haben bereits einen Wunsch für dieses Datum eingereicht"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "Wunsch nicht gefunden"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "Nicht autorisiert, diesen Wunsch zu bearbeiten"}
	ErrInvalidState       = &Error{Kind: KindInvalidState, Message: "Nur ausstehende Wünsche können geändert oder gelöscht werden"}
	ErrPersistenceFailure = &Error{Kind: KindPersistenceFailure, Message: "Interner Fehler, bitte versuchen Sie es später erneut"}
)

const (
	msgDeleteForbidden    = "Nicht autorisiert, diesen Wunsch zu löschen"
	msgDeleteInvalidState = "Nur ausstehende Wünsche können gelöscht werden"
	msgUpdateInvalidState = "Nur ausstehende Wünsche können geändert werden"
	msgAdminOnly          = "Nur für Administratoren"
	msgReviewInvalidState = "Nur ausstehende Wünsche können entschieden werden"
)

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func validationFailed(fieldErrors domain.FieldErrors) *Error {
	return &Error{
		Kind:        KindValidationFailed,
		Message:     ErrValidationFailed.Message,
		FieldErrors: fieldErrors,
	}
}

func persistenceFailure(cause error) *Error {
	return &Error{
		Kind:    KindPersistenceFailure,
		Message: ErrPersistenceFailure.Message,
		cause:   cause,
	}
}

// KindOf 返回 err 对应的 Kind，不是 *Error 时返回 0
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
