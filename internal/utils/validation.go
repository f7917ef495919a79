package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/dienstwunsch/backend/internal/domain"
)

const MaxRemarksLength = 500

const (
	FieldDate      = "date"
	FieldShiftType = "shiftType"
	FieldRemarks   = "remarks"
)

const (
	MsgDateRequired      = "Datum ist erforderlich"
	MsgDateInvalid       = "Ungültiges Datum"
	MsgDateInPast        = "Das Datum darf nicht in der Vergangenheit liegen"
	MsgShiftTypeRequired = "Schichtart ist erforderlich"
	MsgShiftTypeInvalid  = "Ungültige Schichtart (erlaubt: Früh, Spät, Nacht)"
	MsgRemarksTooLong    = "Bemerkungen dürfen höchstens 500 Zeichen lang sein"
)

// ShiftRequestInput 是未经校验的提交内容
type ShiftRequestInput struct {
	Date      string
	ShiftType string
	Remarks   *string
}

// 每个 checker 只负责一个字段，返回该字段的所有错误信息
type fieldChecker struct {
	field string
	check func(in *ShiftRequestInput, today domain.Date, out *domain.ShiftRequestDraft) []string
}

var shiftRequestCheckers = []fieldChecker{
	{field: FieldDate, check: checkDate},
	{field: FieldShiftType, check: checkShiftType},
	{field: FieldRemarks, check: checkRemarks},
}

// ValidateShiftRequest 校验一次提交，所有不合法的字段都会被一并返回
func ValidateShiftRequest(in ShiftRequestInput, today domain.Date) (*domain.ShiftRequestDraft, domain.FieldErrors) {
	draft := &domain.ShiftRequestDraft{}
	fieldErrors := domain.FieldErrors{}

	for _, c := range shiftRequestCheckers {
		if msgs := c.check(&in, today, draft); len(msgs) > 0 {
			fieldErrors.Add(c.field, msgs...)
		}
	}

	if !fieldErrors.Empty() {
		return nil, fieldErrors
	}
	return draft, nil
}

// ValidateRemarks 单独校验备注，用于修改备注
func ValidateRemarks(remarks *string) (*string, domain.FieldErrors) {
	draft := &domain.ShiftRequestDraft{}
	if msgs := checkRemarks(&ShiftRequestInput{Remarks: remarks}, domain.Date{}, draft); len(msgs) > 0 {
		return nil, domain.FieldErrors{FieldRemarks: msgs}
	}
	return draft.Remarks, nil
}

func checkDate(in *ShiftRequestInput, today domain.Date, out *domain.ShiftRequestDraft) []string {
	if strings.TrimSpace(in.Date) == "" {
		return []string{MsgDateRequired}
	}

	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return []string{MsgDateInvalid}
	}

	if date.Before(today) {
		return []string{MsgDateInPast}
	}

	out.Date = date
	return nil
}

func checkShiftType(in *ShiftRequestInput, _ domain.Date, out *domain.ShiftRequestDraft) []string {
	if in.ShiftType == "" {
		return []string{MsgShiftTypeRequired}
	}

	shiftType := domain.ShiftType(in.ShiftType)
	if !shiftType.Valid() {
		return []string{MsgShiftTypeInvalid}
	}

	out.ShiftType = shiftType
	return nil
}

func checkRemarks(in *ShiftRequestInput, _ domain.Date, out *domain.ShiftRequestDraft) []string {
	// 没有备注和空备注是两种不同的输入
	if in.Remarks == nil {
		out.Remarks = nil
		return nil
	}

	// 按字符数而不是字节数计算
	if utf8.RuneCountInString(*in.Remarks) > MaxRemarksLength {
		return []string{MsgRemarksTooLong}
	}

	remarks := *in.Remarks
	out.Remarks = &remarks
	return nil
}
