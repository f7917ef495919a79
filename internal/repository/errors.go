package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/dienstwunsch/backend/internal/domain"
)

const (
	ConstraintUserName         = "users_name_key"
	ConstraintShiftRequestDate = "shift_requests_user_id_shift_date_key"
)

// pgerrcode.UniqueViolation
const pgUniqueViolation = "23505"

// sqlite 不返回约束名，只能从错误信息中的列名推断
var sqliteConstraintColumns = map[string]string{
	"users.name":                ConstraintUserName,
	"shift_requests.shift_date": ConstraintShiftRequestDate,
}

// asConflict 把驱动层的唯一约束错误转换成 domain.ConflictError，其他错误原样返回
func asConflict(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			return &domain.ConflictError{Constraint: pgErr.ConstraintName, Err: err}
		}
		return err
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &domain.ConflictError{Constraint: sqliteConstraint(err.Error()), Err: err}
		}
	}

	return err
}

func sqliteConstraint(msg string) string {
	for column, constraint := range sqliteConstraintColumns {
		if strings.Contains(msg, column) {
			return constraint
		}
	}
	return ""
}
