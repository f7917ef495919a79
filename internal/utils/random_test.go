package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dienstwunsch/backend/internal/domain"
)

func TestGenerateRandomDates(t *testing.T) {
	from := domain.Date{Year: 2026, Month: time.October, Day: 19}

	dates := GenerateRandomDates(from, 30, 10)
	require.Len(t, dates, 10)

	seen := map[domain.Date]bool{}
	last := from.AddDays(29)
	for _, d := range dates {
		assert.False(t, seen[d], "duplicate date %s", d)
		seen[d] = true
		assert.False(t, d.Before(from))
		assert.False(t, last.Before(d))
	}

	assert.Len(t, GenerateRandomDates(from, 3, 10), 3)
	assert.Empty(t, GenerateRandomDates(from, 0, 10))
}

func TestGenerateRandomShiftRequestIsValid(t *testing.T) {
	owner := &domain.User{ID: "u1", Name: "Anna Müller"}
	date := domain.Date{Year: 2026, Month: time.November, Day: 2}

	for i := 0; i < 50; i++ {
		req := GenerateRandomShiftRequest(owner, date)
		assert.Equal(t, "u1", req.OwnerID)
		assert.Equal(t, date, req.Date)
		assert.True(t, req.ShiftType.Valid())
		assert.True(t, req.Status.Valid())

		_, fieldErrors := ValidateShiftRequest(ShiftRequestInput{
			Date:      req.Date.String(),
			ShiftType: string(req.ShiftType),
			Remarks:   req.Remarks,
		}, date)
		assert.Nil(t, fieldErrors)
	}
}

func TestGenerateRandomGermanName(t *testing.T) {
	name := GenerateRandomGermanName()
	assert.Len(t, strings.Fields(name), 2)
}
