package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecipeDB_Validate(t *testing.T) {
	empty := ""
	ref := "image-1"

	tests := []struct {
		name    string
		row     RecipeDB
		wantErr bool
	}{
		{"Valid", RecipeDB{ID: 1, Name: "Soup", Author: 2}, false},
		{"WithImage", RecipeDB{ID: 1, Name: "Soup", Author: 2, ImageRef: &ref}, false},
		{"ZeroID", RecipeDB{Name: "Soup", Author: 2}, true},
		{"NoAuthor", RecipeDB{ID: 1, Name: "Soup"}, true},
		{"NoName", RecipeDB{ID: 1, Author: 2}, true},
		{"EmptyImageRef", RecipeDB{ID: 1, Name: "Soup", Author: 2, ImageRef: &empty}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.row.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedRow)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewRecipe(t *testing.T) {
	ref := "image-1"
	created := time.Unix(1_700_000_000, 0)
	row := &RecipeDB{ID: 4, Name: "Soup", Author: 2, AuthorName: "alice", ImageRef: &ref, CreatedAt: created}

	r := NewRecipe(row, soup())
	assert.Equal(t, int64(4), r.ID)
	assert.Equal(t, "alice", r.Meta.AuthorName)
	assert.True(t, r.Meta.HasImage)
	assert.Equal(t, created, r.Meta.CreatedAt)
	assert.Equal(t, soup(), r.Recipe)
}

func TestRecipeFilter_IsEmpty(t *testing.T) {
	assert.True(t, RecipeFilter{Limit: 10}.IsEmpty())
	name := "soup"
	assert.False(t, RecipeFilter{Name: &name}.IsEmpty())
}
