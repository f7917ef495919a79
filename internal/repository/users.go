package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dienstwunsch/backend/internal/domain"
)

func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	query := r.rebind(`
		SELECT name, password_hash, is_admin, created_at
		FROM users WHERE id = ?
	`)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	user := &domain.User{
		ID: id,
	}

	var createdAt int64
	dst := []any{&user.Name, &user.PasswordHash, &user.IsAdmin, &createdAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}
	user.CreatedAt = fromMillis(createdAt)

	return user, nil
}

func (r *Repository) GetUserByName(ctx context.Context, name string) (*domain.User, error) {
	query := r.rebind(`
		SELECT id, password_hash, is_admin, created_at
		FROM users WHERE name = ?
	`)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	user := &domain.User{
		Name: name,
	}

	var createdAt int64
	dst := []any{&user.ID, &user.PasswordHash, &user.IsAdmin, &createdAt}
	if err := r.dbpool.QueryRowContext(ctx, query, name).Scan(dst...); err != nil {
		return nil, err
	}
	user.CreatedAt = fromMillis(createdAt)

	return user, nil
}

func (r *Repository) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT id, name, password_hash, is_admin, created_at FROM users ORDER BY name
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user := &domain.User{}
		var createdAt int64
		dst := []any{&user.ID, &user.Name, &user.PasswordHash, &user.IsAdmin, &createdAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		user.CreatedAt = fromMillis(createdAt)
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// CreateUser 插入用户，名字重复时返回 *domain.ConflictError
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	user.ID = uuid.New().String()
	user.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	query := r.rebind(`
		INSERT INTO users (id, name, password_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)

	args := []any{user.ID, user.Name, user.PasswordHash, user.IsAdmin, toMillis(user.CreatedAt)}
	if _, err := r.dbpool.ExecContext(ctx, query, args...); err != nil {
		return asConflict(err)
	}

	return nil
}

// UpdateUser 更新密码和管理员标记，用户不存在时返回 sql.ErrNoRows
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	query := r.rebind(`
		UPDATE users SET password_hash = ?, is_admin = ?
		WHERE id = ?
	`)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, user.PasswordHash, user.IsAdmin, user.ID)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

// DeleteUser 删除用户和他的所有愿望。sqlite 默认不启用外键，因此不依赖 ON DELETE CASCADE
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := r.rebind(`DELETE FROM shift_requests WHERE user_id = ?`)
	if _, err := tx.ExecContext(ctx, query, id); err != nil {
		return err
	}

	query = r.rebind(`DELETE FROM users WHERE id = ?`)
	result, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	return tx.Commit()
}
