package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dienstwunsch/backend/internal/domain"
)

const shiftRequestColumns = `
	sr.id, sr.user_id, u.name, sr.shift_date, sr.shift_type, sr.remarks, sr.status, sr.created_at, sr.updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShiftRequest(row rowScanner) (*domain.ShiftRequest, error) {
	req := &domain.ShiftRequest{}
	var createdAt, updatedAt int64

	dst := []any{&req.ID, &req.OwnerID, &req.OwnerName, &req.Date, &req.ShiftType, &req.Remarks, &req.Status, &createdAt, &updatedAt}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	req.CreatedAt = fromMillis(createdAt)
	req.UpdatedAt = fromMillis(updatedAt)
	return req, nil
}

// CreateShiftRequest 插入一条新的记录，同一用户同一天已有记录时返回 *domain.ConflictError。
// 唯一性完全依赖数据库约束，不做先查后插。
func (r *Repository) CreateShiftRequest(ctx context.Context, req *domain.ShiftRequest) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	req.ID = uuid.New().String()
	req.CreatedAt = now
	req.UpdatedAt = now

	query := r.rebind(`
		INSERT INTO shift_requests (id, user_id, shift_date, shift_type, remarks, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)

	args := []any{req.ID, req.OwnerID, req.Date.String(), string(req.ShiftType), req.Remarks, string(req.Status), toMillis(now), toMillis(now)}
	if _, err := r.dbpool.ExecContext(ctx, query, args...); err != nil {
		return asConflict(err)
	}

	return nil
}

func (r *Repository) GetShiftRequestByID(ctx context.Context, id string) (*domain.ShiftRequest, error) {
	query := r.rebind(`
		SELECT ` + shiftRequestColumns + `
		FROM shift_requests sr
		JOIN users u ON u.id = sr.user_id
		WHERE sr.id = ?
	`)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanShiftRequest(r.dbpool.QueryRowContext(ctx, query, id))
}

// GetShiftRequestsByOwner 只返回 ownerID 自己的记录，按日期倒序
func (r *Repository) GetShiftRequestsByOwner(ctx context.Context, ownerID string, filter domain.ShiftRequestFilter) ([]*domain.ShiftRequest, error) {
	where := []string{"sr.user_id = ?"}
	args := []any{ownerID}
	return r.listShiftRequests(ctx, where, args, filter, "sr.shift_date DESC, sr.created_at DESC")
}

// GetAllShiftRequests 返回所有用户的记录，按日期正序，供管理员使用
func (r *Repository) GetAllShiftRequests(ctx context.Context, filter domain.ShiftRequestFilter) ([]*domain.ShiftRequest, error) {
	return r.listShiftRequests(ctx, nil, nil, filter, "sr.shift_date ASC, u.name ASC")
}

func (r *Repository) listShiftRequests(ctx context.Context, where []string, args []any, filter domain.ShiftRequestFilter, orderBy string) ([]*domain.ShiftRequest, error) {
	if filter.Status != nil {
		where = append(where, "sr.status = ?")
		args = append(args, string(*filter.Status))
	}
	if !filter.Month.IsZero() {
		first := domain.Date{Year: filter.Month.Year, Month: filter.Month.Month, Day: 1}
		next := domain.DateOf(first.Time().AddDate(0, 1, 0))
		where = append(where, "sr.shift_date >= ?", "sr.shift_date < ?")
		args = append(args, first.String(), next.String())
	}

	query := `
		SELECT ` + shiftRequestColumns + `
		FROM shift_requests sr
		JOIN users u ON u.id = sr.user_id
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderBy
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*domain.ShiftRequest, 0)
	for rows.Next() {
		req, err := scanShiftRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

// DeletePendingShiftRequest 只删除仍处于待审核状态的记录，没有删除任何行时返回 sql.ErrNoRows
func (r *Repository) DeletePendingShiftRequest(ctx context.Context, id string) error {
	query := r.rebind(`
		DELETE FROM shift_requests WHERE id = ? AND status = ?
	`)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, id, string(domain.StatusPending))
	if err != nil {
		return err
	}

	return expectAffected(result)
}

// UpdatePendingShiftRequestRemarks 只修改仍处于待审核状态的记录的备注
func (r *Repository) UpdatePendingShiftRequestRemarks(ctx context.Context, id string, remarks *string) (time.Time, error) {
	query := r.rebind(`
		UPDATE shift_requests
		SET remarks = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.dbpool.ExecContext(ctx, query, remarks, toMillis(now), id, string(domain.StatusPending))
	if err != nil {
		return time.Time{}, err
	}

	return now, expectAffected(result)
}

// UpdateShiftRequestStatus 仅当当前状态为 from 时才更新为 to
func (r *Repository) UpdateShiftRequestStatus(ctx context.Context, id string, from, to domain.Status) (time.Time, error) {
	query := r.rebind(`
		UPDATE shift_requests
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.dbpool.ExecContext(ctx, query, string(to), toMillis(now), id, string(from))
	if err != nil {
		return time.Time{}, err
	}

	return now, expectAffected(result)
}

func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
