package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-recipe-book/internal/models"
)

const userColumns = `id, name, password_hash, deleted, created_at`

type UserReadRepository struct {
	db *sqlx.DB
}

func NewUserReadRepository(db *sqlx.DB) *UserReadRepository {
	return &UserReadRepository{db: db}
}

// GetByID returns the user with id, deleted or not. A missing user yields nil, nil.
func (r *UserReadRepository) GetByID(ctx context.Context, id int64) (*models.UserDB, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetActiveByName returns the non-deleted user named name, or nil, nil.
func (r *UserReadRepository) GetActiveByName(ctx context.Context, name string) (*models.UserDB, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE name = $1 AND deleted = FALSE
	`
	return r.getOne(ctx, query, name)
}

func (r *UserReadRepository) getOne(ctx context.Context, query string, arg any) (*models.UserDB, error) {
	var user models.UserDB
	err := r.db.GetContext(ctx, &user, query, arg)
	logQuery(query, []any{arg}, user.ID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type UserWriteRepository struct {
	db *sqlx.DB
}

func NewUserWriteRepository(db *sqlx.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

// Save inserts a user and returns its id. A name already held by a
// non-deleted user yields ErrDuplicate.
func (r *UserWriteRepository) Save(ctx context.Context, name, passwordHash string) (int64, error) {
	const query = `
		INSERT INTO users (name, password_hash, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id
	`

	var id int64
	err := r.db.GetContext(ctx, &id, query, name, passwordHash)
	logQuery(query, []any{name}, id, err)

	if err != nil {
		return 0, classify(err)
	}
	return id, nil
}

// Update replaces the name and password digest of a non-deleted user.
func (r *UserWriteRepository) Update(ctx context.Context, id int64, name, passwordHash string) (bool, error) {
	const query = `
		UPDATE users
		SET name = $2, password_hash = $3
		WHERE id = $1 AND deleted = FALSE
	`
	return r.exec(ctx, query, []any{id, name, passwordHash}, []any{id, name})
}

// SoftDelete flags a non-deleted user as deleted.
func (r *UserWriteRepository) SoftDelete(ctx context.Context, id int64) (bool, error) {
	const query = `UPDATE users SET deleted = TRUE WHERE id = $1 AND deleted = FALSE`
	return r.exec(ctx, query, []any{id}, []any{id})
}

func (r *UserWriteRepository) exec(ctx context.Context, query string, args, logArgs []any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, logArgs, rowsAffected, err)

	if err != nil {
		return false, classify(err)
	}
	return rowsAffected > 0, nil
}
