package domain

import (
	"fmt"
	"strings"
	"time"
)

type ShiftType string

const (
	ShiftEarly ShiftType = "Früh"
	ShiftLate  ShiftType = "Spät"
	ShiftNight ShiftType = "Nacht"
)

var ShiftTypes = []ShiftType{ShiftEarly, ShiftLate, ShiftNight}

func (t ShiftType) Valid() bool {
	switch t {
	case ShiftEarly, ShiftLate, ShiftNight:
		return true
	}
	return false
}

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ParseStatus 用于解析查询参数，不区分大小写
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return status, nil
}

type ShiftRequest struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	OwnerName string    `json:"userName"`
	Date      Date      `json:"date"`
	ShiftType ShiftType `json:"shiftType"`
	Remarks   *string   `json:"remarks"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ShiftRequestDraft 是通过校验后的提交内容，尚未持久化
type ShiftRequestDraft struct {
	Date      Date
	ShiftType ShiftType
	Remarks   *string
}

type ShiftRequestFilter struct {
	Status *Status
	// Month 不为零值时只返回该月的记录，只使用其中的 Year 和 Month
	Month Date
	Limit int
}

// FieldErrors 字段名 -> 错误信息
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field string, msgs ...string) {
	fe[field] = append(fe[field], msgs...)
}

func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// ConflictError 表示违反了唯一约束
type ConflictError struct {
	Constraint string
	Err        error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unique constraint %q violated: %v", e.Constraint, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}
