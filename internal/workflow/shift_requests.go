package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dienstwunsch/backend/internal/domain"
	"github.com/dienstwunsch/backend/internal/utils"
)

// InputFromMap 把任意 JSON 对象逐字段转换成待校验的输入。
// status、ownerId 等客户端字段会被忽略。
func InputFromMap(m map[string]any) utils.ShiftRequestInput {
	in := utils.ShiftRequestInput{
		Date:      stringField(m, "date"),
		ShiftType: stringField(m, "shiftType"),
	}

	if v, ok := m["remarks"]; ok && v != nil {
		remarks := toString(v)
		in.Remarks = &remarks
	}

	return in
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	return toString(v)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Submit 为当前用户创建一条待审核的排班愿望
func (w *Workflow) Submit(ctx context.Context, in utils.ShiftRequestInput) (*domain.ShiftRequest, error) {
	caller, err := w.resolve(ctx)
	if err != nil {
		return nil, err
	}

	draft, fieldErrors := utils.ValidateShiftRequest(in, w.today())
	if fieldErrors != nil {
		return nil, validationFailed(fieldErrors)
	}

	// 所有者和状态只由服务端决定
	req := &domain.ShiftRequest{
		OwnerID:   caller.UserID,
		OwnerName: caller.Name,
		Date:      draft.Date,
		ShiftType: draft.ShiftType,
		Remarks:   draft.Remarks,
		Status:    domain.StatusPending,
	}

	if err := w.store.CreateShiftRequest(ctx, req); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			return nil, ErrDuplicateRequest
		}

		w.logger.Error("无法创建排班愿望",
			"operation", "submit",
			"caller", caller.UserID,
			"date", draft.Date.String(),
			"shiftType", draft.ShiftType,
			"hasRemarks", draft.Remarks != nil,
			"error", err,
		)
		return nil, persistenceFailure(err)
	}

	w.changed(ctx, caller.UserID)
	if w.notifier != nil {
		if err := w.notifier.ShiftRequestSubmitted(ctx, req); err != nil {
			w.logger.Warn("无法发送新愿望通知", "id", req.ID, "error", err)
		}
	}

	return req, nil
}

// List 返回当前用户自己的排班愿望，按日期倒序
func (w *Workflow) List(ctx context.Context, filter domain.ShiftRequestFilter) ([]*domain.ShiftRequest, error) {
	caller, err := w.resolve(ctx)
	if err != nil {
		return nil, err
	}

	if filter.Limit < 0 {
		filter.Limit = 0
	}

	requests, err := w.store.GetShiftRequestsByOwner(ctx, caller.UserID, filter)
	if err != nil {
		w.logger.Error("无法获取排班愿望列表", "operation", "list", "caller", caller.UserID, "error", err)
		return nil, persistenceFailure(err)
	}

	return requests, nil
}

// Delete 删除当前用户自己的、仍处于待审核状态的排班愿望
func (w *Workflow) Delete(ctx context.Context, id string) error {
	caller, err := w.resolve(ctx)
	if err != nil {
		return err
	}

	req, err := w.load(ctx, "delete", caller, id)
	if err != nil {
		return err
	}

	if req.OwnerID != caller.UserID {
		return newError(KindForbidden, msgDeleteForbidden)
	}

	if req.Status != domain.StatusPending {
		return newError(KindInvalidState, msgDeleteInvalidState)
	}

	if err := w.store.DeletePendingShiftRequest(ctx, id); err != nil {
		// 读取之后状态被管理员修改了
		if errors.Is(err, sql.ErrNoRows) {
			return newError(KindInvalidState, msgDeleteInvalidState)
		}

		w.logger.Error("无法删除排班愿望", "operation", "delete", "caller", caller.UserID, "id", id, "error", err)
		return persistenceFailure(err)
	}

	w.changed(ctx, caller.UserID)
	if w.notifier != nil {
		if err := w.notifier.ShiftRequestWithdrawn(ctx, req); err != nil {
			w.logger.Warn("无法发送撤回通知", "id", req.ID, "error", err)
		}
	}

	return nil
}

// UpdateRemarks 修改当前用户自己的待审核愿望的备注，日期和班次不可修改
func (w *Workflow) UpdateRemarks(ctx context.Context, id string, remarks *string) (*domain.ShiftRequest, error) {
	caller, err := w.resolve(ctx)
	if err != nil {
		return nil, err
	}

	normalized, fieldErrors := utils.ValidateRemarks(remarks)
	if fieldErrors != nil {
		return nil, validationFailed(fieldErrors)
	}

	req, err := w.load(ctx, "update_remarks", caller, id)
	if err != nil {
		return nil, err
	}

	if req.OwnerID != caller.UserID {
		return nil, ErrForbidden
	}

	if req.Status != domain.StatusPending {
		return nil, newError(KindInvalidState, msgUpdateInvalidState)
	}

	updatedAt, err := w.store.UpdatePendingShiftRequestRemarks(ctx, id, normalized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(KindInvalidState, msgUpdateInvalidState)
		}

		w.logger.Error("无法修改排班愿望备注", "operation", "update_remarks", "caller", caller.UserID, "id", id, "error", err)
		return nil, persistenceFailure(err)
	}

	req.Remarks = normalized
	req.UpdatedAt = updatedAt
	w.changed(ctx, caller.UserID)

	return req, nil
}

func (w *Workflow) load(ctx context.Context, operation string, caller *domain.Identity, id string) (*domain.ShiftRequest, error) {
	req, err := w.store.GetShiftRequestByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		w.logger.Error("无法获取排班愿望", "operation", operation, "caller", caller.UserID, "id", id, "error", err)
		return nil, persistenceFailure(err)
	}

	return req, nil
}
