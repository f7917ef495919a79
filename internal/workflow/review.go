package workflow

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dienstwunsch/backend/internal/domain"
)

func (w *Workflow) resolveAdmin(ctx context.Context) (*domain.Identity, error) {
	caller, err := w.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin {
		return nil, newError(KindForbidden, msgAdminOnly)
	}
	return caller, nil
}

// ListAll 返回所有用户的排班愿望，只有管理员可以调用
func (w *Workflow) ListAll(ctx context.Context, filter domain.ShiftRequestFilter) ([]*domain.ShiftRequest, error) {
	caller, err := w.resolveAdmin(ctx)
	if err != nil {
		return nil, err
	}

	if filter.Limit < 0 {
		filter.Limit = 0
	}

	requests, err := w.store.GetAllShiftRequests(ctx, filter)
	if err != nil {
		w.logger.Error("无法获取全部排班愿望", "operation", "list_all", "caller", caller.UserID, "error", err)
		return nil, persistenceFailure(err)
	}

	return requests, nil
}

// Review 由管理员批准或拒绝一条待审核的愿望，决定之后不可再修改
func (w *Workflow) Review(ctx context.Context, id string, status domain.Status) (*domain.ShiftRequest, error) {
	caller, err := w.resolveAdmin(ctx)
	if err != nil {
		return nil, err
	}

	if status != domain.StatusApproved && status != domain.StatusRejected {
		return nil, validationFailed(domain.FieldErrors{"status": {"Ungültiger Status (erlaubt: APPROVED, REJECTED)"}})
	}

	req, err := w.load(ctx, "review", caller, id)
	if err != nil {
		return nil, err
	}

	if req.Status != domain.StatusPending {
		return nil, newError(KindInvalidState, msgReviewInvalidState)
	}

	updatedAt, err := w.store.UpdateShiftRequestStatus(ctx, id, domain.StatusPending, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(KindInvalidState, msgReviewInvalidState)
		}

		w.logger.Error("无法更新排班愿望状态", "operation", "review", "caller", caller.UserID, "id", id, "status", status, "error", err)
		return nil, persistenceFailure(err)
	}

	req.Status = status
	req.UpdatedAt = updatedAt
	w.changed(ctx, req.OwnerID)

	return req, nil
}
