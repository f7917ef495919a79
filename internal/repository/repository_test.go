package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dienstwunsch/backend/internal/config"
	"github.com/dienstwunsch/backend/internal/domain"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	cfg := &config.Config{}
	cfg.Database.Driver = DriverSQLite
	cfg.Database.DSN = filepath.Join(t.TempDir(), "dienstwunsch.db")
	cfg.Database.ConnectTimeout = 5
	cfg.Database.QueryTimeout = 5

	dbpool, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = dbpool.Close()
	})

	repo := NewRepository(cfg, dbpool)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func createTestUser(t *testing.T, repo *Repository, name string) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, PasswordHash: "hash"}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func createTestRequest(t *testing.T, repo *Repository, owner *domain.User, date string, status domain.Status) *domain.ShiftRequest {
	t.Helper()
	d, err := domain.ParseDate(date)
	require.NoError(t, err)

	req := &domain.ShiftRequest{
		OwnerID:   owner.ID,
		Date:      d,
		ShiftType: domain.ShiftEarly,
		Status:    status,
	}
	require.NoError(t, repo.CreateShiftRequest(context.Background(), req))
	return req
}

func TestRebind(t *testing.T) {
	repo := &Repository{driver: DriverPostgres}
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", repo.rebind("SELECT 1 WHERE a = ? AND b = ?"))

	repo.driver = DriverSQLite
	assert.Equal(t, "SELECT 1 WHERE a = ?", repo.rebind("SELECT 1 WHERE a = ?"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "mysql"
	_, err := Open(cfg)
	assert.Error(t, err)
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestUsers(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "Müller")
	require.NotEmpty(t, user.ID)

	byName, err := repo.GetUserByName(ctx, "Müller")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
	assert.False(t, byName.IsAdmin)

	byID, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Müller", byID.Name)
	assert.Equal(t, user.CreatedAt, byID.CreatedAt)

	_, err = repo.GetUserByName(ctx, "Schmidt")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	err = repo.CreateUser(ctx, &domain.User{Name: "Müller", PasswordHash: "other"})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, ConstraintUserName, conflict.Constraint)

	users, err := repo.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUpdateUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "Weber")
	user.PasswordHash = "new-hash"
	user.IsAdmin = true
	require.NoError(t, repo.UpdateUser(ctx, user))

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", stored.PasswordHash)
	assert.True(t, stored.IsAdmin)

	err = repo.UpdateUser(ctx, &domain.User{ID: "missing", PasswordHash: "x"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteUserRemovesShiftRequests(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "Weber")
	other := createTestUser(t, repo, "Fischer")
	req := createTestRequest(t, repo, user, "2026-10-20", domain.StatusPending)
	createTestRequest(t, repo, other, "2026-10-20", domain.StatusPending)

	require.NoError(t, repo.DeleteUser(ctx, user.ID))

	_, err := repo.GetUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = repo.GetShiftRequestByID(ctx, req.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	all, err := repo.GetAllShiftRequests(ctx, domain.ShiftRequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Fischer", all[0].OwnerName)

	// 查询时会 JOIN users，这里直接检查表中没有遗留的记录
	var cnt int
	require.NoError(t, repo.dbpool.QueryRowContext(ctx, `SELECT COUNT(*) FROM shift_requests`).Scan(&cnt))
	assert.Equal(t, 1, cnt)

	assert.ErrorIs(t, repo.DeleteUser(ctx, user.ID), sql.ErrNoRows)
}

func TestCreateShiftRequestRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	owner := createTestUser(t, repo, "u1")

	remarks := "lieber früh"
	req := &domain.ShiftRequest{
		OwnerID:   owner.ID,
		Date:      domain.Date{Year: 2026, Month: time.October, Day: 20},
		ShiftType: domain.ShiftLate,
		Remarks:   &remarks,
		Status:    domain.StatusPending,
	}
	require.NoError(t, repo.CreateShiftRequest(ctx, req))
	require.NotEmpty(t, req.ID)
	assert.False(t, req.CreatedAt.IsZero())

	got, err := repo.GetShiftRequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, "u1", got.OwnerName)
	assert.Equal(t, "2026-10-20", got.Date.String())
	assert.Equal(t, domain.ShiftLate, got.ShiftType)
	require.NotNil(t, got.Remarks)
	assert.Equal(t, remarks, *got.Remarks)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, req.CreatedAt, got.CreatedAt)

	_, err = repo.GetShiftRequestByID(ctx, "does-not-exist")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCreateShiftRequestNullRemarks(t *testing.T) {
	repo := newTestRepository(t)
	owner := createTestUser(t, repo, "u1")
	req := createTestRequest(t, repo, owner, "2026-10-20", domain.StatusPending)

	got, err := repo.GetShiftRequestByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Remarks)
}

func TestCreateShiftRequestDuplicateDate(t *testing.T) {
	repo := newTestRepository(t)
	u1 := createTestUser(t, repo, "u1")
	u2 := createTestUser(t, repo, "u2")
	createTestRequest(t, repo, u1, "2026-10-20", domain.StatusPending)

	err := repo.CreateShiftRequest(context.Background(), &domain.ShiftRequest{
		OwnerID:   u1.ID,
		Date:      domain.Date{Year: 2026, Month: time.October, Day: 20},
		ShiftType: domain.ShiftNight,
		Status:    domain.StatusPending,
	})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, ConstraintShiftRequestDate, conflict.Constraint)

	// 不同用户同一天互不影响
	createTestRequest(t, repo, u2, "2026-10-20", domain.StatusPending)
}

func TestGetShiftRequestsByOwner(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	u1 := createTestUser(t, repo, "u1")
	u2 := createTestUser(t, repo, "u2")

	createTestRequest(t, repo, u1, "2026-10-20", domain.StatusPending)
	createTestRequest(t, repo, u1, "2026-11-05", domain.StatusApproved)
	createTestRequest(t, repo, u1, "2026-10-25", domain.StatusPending)
	createTestRequest(t, repo, u2, "2026-10-21", domain.StatusPending)

	all, err := repo.GetShiftRequestsByOwner(ctx, u1.ID, domain.ShiftRequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2026-11-05", all[0].Date.String())
	assert.Equal(t, "2026-10-25", all[1].Date.String())
	assert.Equal(t, "2026-10-20", all[2].Date.String())
	for _, req := range all {
		assert.Equal(t, u1.ID, req.OwnerID)
	}

	approved := domain.StatusApproved
	filtered, err := repo.GetShiftRequestsByOwner(ctx, u1.ID, domain.ShiftRequestFilter{Status: &approved})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, domain.StatusApproved, filtered[0].Status)

	limited, err := repo.GetShiftRequestsByOwner(ctx, u1.ID, domain.ShiftRequestFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	october, err := repo.GetShiftRequestsByOwner(ctx, u1.ID, domain.ShiftRequestFilter{
		Month: domain.Date{Year: 2026, Month: time.October, Day: 1},
	})
	require.NoError(t, err)
	assert.Len(t, october, 2)

	rejected := domain.StatusRejected
	none, err := repo.GetShiftRequestsByOwner(ctx, u2.ID, domain.ShiftRequestFilter{Status: &rejected})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGetAllShiftRequests(t *testing.T) {
	repo := newTestRepository(t)
	u1 := createTestUser(t, repo, "u1")
	u2 := createTestUser(t, repo, "u2")
	createTestRequest(t, repo, u1, "2026-10-22", domain.StatusPending)
	createTestRequest(t, repo, u2, "2026-10-21", domain.StatusPending)

	all, err := repo.GetAllShiftRequests(context.Background(), domain.ShiftRequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "u2", all[0].OwnerName)
	assert.Equal(t, "u1", all[1].OwnerName)
}

func TestDeletePendingShiftRequest(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	owner := createTestUser(t, repo, "u1")
	pending := createTestRequest(t, repo, owner, "2026-10-20", domain.StatusPending)
	approved := createTestRequest(t, repo, owner, "2026-10-21", domain.StatusApproved)

	require.NoError(t, repo.DeletePendingShiftRequest(ctx, pending.ID))
	_, err := repo.GetShiftRequestByID(ctx, pending.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	err = repo.DeletePendingShiftRequest(ctx, approved.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = repo.GetShiftRequestByID(ctx, approved.ID)
	assert.NoError(t, err)
}

func TestUpdateShiftRequestStatusAndRemarks(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	owner := createTestUser(t, repo, "u1")
	req := createTestRequest(t, repo, owner, "2026-10-20", domain.StatusPending)

	remarks := "doch lieber spät"
	_, err := repo.UpdatePendingShiftRequestRemarks(ctx, req.ID, &remarks)
	require.NoError(t, err)

	_, err = repo.UpdateShiftRequestStatus(ctx, req.ID, domain.StatusPending, domain.StatusApproved)
	require.NoError(t, err)

	got, err := repo.GetShiftRequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.Equal(t, remarks, *got.Remarks)

	_, err = repo.UpdateShiftRequestStatus(ctx, req.ID, domain.StatusPending, domain.StatusRejected)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = repo.UpdatePendingShiftRequestRemarks(ctx, req.ID, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
