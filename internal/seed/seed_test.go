package seed

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dienstwunsch/backend/internal/config"
	"github.com/dienstwunsch/backend/internal/domain"
	"github.com/dienstwunsch/backend/internal/repository"
)

func newTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	cfg := &config.Config{}
	cfg.Database.Driver = repository.DriverSQLite
	cfg.Database.DSN = filepath.Join(t.TempDir(), "seed.db")
	cfg.Database.ConnectTimeout = 5
	cfg.Database.QueryTimeout = 5

	dbpool, err := repository.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = dbpool.Close()
	})

	repo := repository.NewRepository(cfg, dbpool)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestImportCSV(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	// 后五行分别是重复日期、日期不合法、班次不合法、没有名字、状态不合法
	data := strings.Join([]string{
		"name,date,shiftType,remarks,status",
		"Anna Müller,2026-10-20,Früh,,",
		"Anna Müller,2026-10-21,Nacht,Arzttermin,approved",
		"Jonas Weber,2026-10-20,Spät",
		"Anna Müller,2026-10-20,Spät,,",
		"Jonas Weber,kein-datum,Früh,,",
		"Jonas Weber,2026-10-22,Mittag,,",
		",2026-10-23,Früh,,",
		"Jonas Weber,2026-10-24,Früh,,offen",
	}, "\n")

	n, err := ImportCSV(ctx, repo, strings.NewReader(data), "hash")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	anna, err := repo.GetUserByName(ctx, "Anna Müller")
	require.NoError(t, err)

	requests, err := repo.GetShiftRequestsByOwner(ctx, anna.ID, domain.ShiftRequestFilter{})
	require.NoError(t, err)
	require.Len(t, requests, 2)

	// 按日期倒序
	assert.Equal(t, "2026-10-21", requests[0].Date.String())
	assert.Equal(t, domain.StatusApproved, requests[0].Status)
	require.NotNil(t, requests[0].Remarks)
	assert.Equal(t, "Arzttermin", *requests[0].Remarks)
	assert.Nil(t, requests[1].Remarks)

	users, err := repo.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestImportCSVMissingColumn(t *testing.T) {
	repo := newTestRepository(t)

	_, err := ImportCSV(context.Background(), repo, strings.NewReader("name,date\nAnna,2026-10-20\n"), "hash")
	require.Error(t, err)
}

func TestRandomShiftRequests(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	users := make([]*domain.User, 0, 3)
	for _, name := range []string{"Anna", "Jonas", "Lena"} {
		user := &domain.User{Name: name, PasswordHash: "hash"}
		require.NoError(t, repo.CreateUser(ctx, user))
		users = append(users, user)
	}

	from := domain.Date{Year: 2026, Month: time.October, Day: 19}
	n := RandomShiftRequests(ctx, repo, users, from, 14, 5)
	assert.Equal(t, 15, n)

	all, err := repo.GetAllShiftRequests(ctx, domain.ShiftRequestFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 15)
}
