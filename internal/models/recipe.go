package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedRow is returned when a stored row violates its own invariants.
var ErrMalformedRow = errors.New("malformed row")

// RecipeDB is the projection of a recipes row joined with its author's name.
type RecipeDB struct {
	ID          int64      `db:"id"`
	Name        string     `db:"name"`
	Description *string    `db:"description"`
	Author      int64      `db:"author"`
	AuthorName  string     `db:"author_name"`
	ImageRef    *string    `db:"image_ref"`
	Deleted     bool       `db:"deleted"`
	CreatedAt   time.Time  `db:"created_at"`
	EditedAt    *time.Time `db:"edited_at"`
}

// Validate checks the invariants every stored row must satisfy.
func (r *RecipeDB) Validate() error {
	switch {
	case r.ID <= 0:
		return fmt.Errorf("%w: recipe id %d", ErrMalformedRow, r.ID)
	case r.Author <= 0:
		return fmt.Errorf("%w: recipe %d has author %d", ErrMalformedRow, r.ID, r.Author)
	case r.Name == "":
		return fmt.Errorf("%w: recipe %d has no name", ErrMalformedRow, r.ID)
	case r.ImageRef != nil && *r.ImageRef == "":
		return fmt.Errorf("%w: recipe %d has an empty image reference", ErrMalformedRow, r.ID)
	}
	return nil
}

// RecipeMeta holds the client-editable metadata of a recipe.
type RecipeMeta struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=4000"`
}

// RecipeInput is the payload accepted by create and update.
type RecipeInput struct {
	Meta   RecipeMeta `json:"meta"`
	Recipe RecipeBody `json:"recipe"`
}

// RecipeMetaView is the metadata returned to clients.
type RecipeMetaView struct {
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Author      int64      `json:"author"`
	AuthorName  string     `json:"authorName"`
	HasImage    bool       `json:"hasImage"`
	CreatedAt   time.Time  `json:"createdAt"`
	EditedAt    *time.Time `json:"editedAt,omitempty"`
}

// Recipe is a composed record: metadata row plus body blob.
type Recipe struct {
	ID     int64          `json:"id"`
	Meta   RecipeMetaView `json:"meta"`
	Recipe RecipeBody     `json:"recipe"`
}

// NewRecipe composes a row and its body.
func NewRecipe(row *RecipeDB, body RecipeBody) *Recipe {
	return &Recipe{
		ID: row.ID,
		Meta: RecipeMetaView{
			Name:        row.Name,
			Description: row.Description,
			Author:      row.Author,
			AuthorName:  row.AuthorName,
			HasImage:    row.ImageRef != nil,
			CreatedAt:   row.CreatedAt,
			EditedAt:    row.EditedAt,
		},
		Recipe: body,
	}
}
