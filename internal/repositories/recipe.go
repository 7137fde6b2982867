package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-recipe-book/internal/models"
)

const recipeSelect = `
	SELECT r.id, r.name, r.description, r.author, u.name AS author_name,
	       r.image_ref, r.deleted, r.created_at, r.edited_at
	FROM recipes r
	JOIN users u ON u.id = r.author
`

// RecipeReadRepository handles recipe metadata reads.
type RecipeReadRepository struct {
	db *sqlx.DB
}

func NewRecipeReadRepository(db *sqlx.DB) *RecipeReadRepository {
	return &RecipeReadRepository{db: db}
}

// GetByID returns the row with id including soft-deleted rows, or nil, nil.
func (r *RecipeReadRepository) GetByID(ctx context.Context, id int64) (*models.RecipeDB, error) {
	const query = recipeSelect + ` WHERE r.id = $1`

	var row models.RecipeDB
	err := r.db.GetContext(ctx, &row, query, id)
	logQuery(query, []any{id}, row.ID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := row.Validate(); err != nil {
		return nil, err
	}
	return &row, nil
}

// Search returns non-deleted rows matching every supplied predicate,
// ordered by id and paged by filter.Limit and filter.Page.
func (r *RecipeReadRepository) Search(ctx context.Context, filter models.RecipeFilter) ([]models.RecipeDB, error) {
	query, args := buildSearchQuery(filter)

	var rows []models.RecipeDB
	err := r.db.SelectContext(ctx, &rows, query, args...)
	logQuery(query, args, len(rows), err)

	if err != nil {
		return nil, err
	}
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// ListActiveBefore returns up to limit non-deleted rows created before cutoff.
func (r *RecipeReadRepository) ListActiveBefore(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]models.RecipeDB, error) {
	const query = recipeSelect + `
		WHERE r.deleted = FALSE AND r.created_at < $1 AND r.id > $2
		ORDER BY r.id
		LIMIT $3
	`

	var rows []models.RecipeDB
	err := r.db.SelectContext(ctx, &rows, query, cutoff, afterID, limit)
	logQuery(query, []any{cutoff, afterID, limit}, len(rows), err)

	if err != nil {
		return nil, err
	}
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func buildSearchQuery(f models.RecipeFilter) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	sb.WriteString(recipeSelect)
	sb.WriteString(" WHERE r.deleted = FALSE")
	if f.Name != nil {
		sb.WriteString(" AND r.name ILIKE '%' || " + bind(escapeLike(*f.Name)) + " || '%'")
	}
	if f.Description != nil {
		sb.WriteString(" AND r.description ILIKE '%' || " + bind(escapeLike(*f.Description)) + " || '%'")
	}
	if f.Author != nil {
		sb.WriteString(" AND u.name ILIKE '%' || " + bind(escapeLike(*f.Author)) + " || '%'")
	}
	if f.AuthorID != nil {
		sb.WriteString(" AND r.author = " + bind(*f.AuthorID))
	}
	sb.WriteString(" ORDER BY r.id")
	sb.WriteString(" LIMIT " + bind(f.Limit))
	sb.WriteString(" OFFSET " + bind(f.Limit*f.Page))

	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// RecipeWriteRepository handles recipe metadata writes.
type RecipeWriteRepository struct {
	db *sqlx.DB
}

func NewRecipeWriteRepository(db *sqlx.DB) *RecipeWriteRepository {
	return &RecipeWriteRepository{db: db}
}

// Insert creates a row owned by author and returns its id and the creation
// time the database stamped on it.
func (r *RecipeWriteRepository) Insert(ctx context.Context, name string, description *string, author int64) (int64, time.Time, error) {
	const query = `
		INSERT INTO recipes (name, description, author, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	var row struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := r.db.GetContext(ctx, &row, query, name, description, author)
	logQuery(query, []any{name, description, author}, row.ID, err)

	if err != nil {
		return 0, time.Time{}, err
	}
	return row.ID, row.CreatedAt, nil
}

// SetImageRef records the image blob key of a row.
func (r *RecipeWriteRepository) SetImageRef(ctx context.Context, id int64, imageRef string) error {
	const query = `UPDATE recipes SET image_ref = $2 WHERE id = $1 AND deleted = FALSE`

	ok, err := r.exec(ctx, query, id, imageRef)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("recipe %d vanished before its image was recorded", id)
	}
	return nil
}

// Update replaces the metadata of a non-deleted row owned by author.
// It reports false when no such row exists.
func (r *RecipeWriteRepository) Update(ctx context.Context, id, author int64, name string, description, imageRef *string, editedAt time.Time) (bool, error) {
	const query = `
		UPDATE recipes
		SET name = $3, description = $4, image_ref = $5, edited_at = $6
		WHERE id = $1 AND author = $2 AND deleted = FALSE
	`
	return r.exec(ctx, query, id, author, name, description, imageRef, editedAt)
}

// SoftDelete flags a non-deleted row owned by author as deleted in a single
// statement and returns the image key it referenced. ok is false when no
// row matched.
func (r *RecipeWriteRepository) SoftDelete(ctx context.Context, id, author int64) (imageRef *string, ok bool, err error) {
	const query = `
		UPDATE recipes
		SET deleted = TRUE
		WHERE id = $1 AND author = $2 AND deleted = FALSE
		RETURNING image_ref
	`

	var ref sql.NullString
	err = r.db.GetContext(ctx, &ref, query, id, author)
	logQuery(query, []any{id, author}, ref.String, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if ref.Valid {
		return &ref.String, true, nil
	}
	return nil, true, nil
}

// MarkDeleted flags a row as deleted regardless of its author.
func (r *RecipeWriteRepository) MarkDeleted(ctx context.Context, id int64) (bool, error) {
	const query = `UPDATE recipes SET deleted = TRUE WHERE id = $1 AND deleted = FALSE`
	return r.exec(ctx, query, id)
}

// Purge removes a row outright. Only used to undo an insert.
func (r *RecipeWriteRepository) Purge(ctx context.Context, id int64) error {
	const query = `DELETE FROM recipes WHERE id = $1`
	_, err := r.exec(ctx, query, id)
	return err
}

func (r *RecipeWriteRepository) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, args, rowsAffected, err)

	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}
