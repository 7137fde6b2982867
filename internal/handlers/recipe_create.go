package handlers

//go:generate mockgen -source=recipe_create.go -destination=recipe_create_mock.go -package=handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sbilibin2017/gw-recipe-book/internal/models"
)

// RecipeCreator defines the interface that the service must implement.
type RecipeCreator interface {
	Create(ctx context.Context, credential string, input models.RecipeInput, image []byte) (*models.Recipe, error)
}

// NewCreateRecipeHandler returns an HTTP handler that stores a new recipe
// owned by the caller.
// @Summary Create recipe
// @Description Accepts application/json (no image) or multipart/form-data with a "recipe" JSON field and an optional "image" file.
// @Tags recipes
// @Accept json,mpfd
// @Produce json
// @Param recipe body models.RecipeInput true "Recipe"
// @Success 201 {object} models.Recipe
// @Failure 400 {object} handlers.ErrorResponse "Invalid recipe"
// @Failure 401 {object} handlers.ErrorResponse "Missing or invalid token"
// @Failure 404 {object} handlers.ErrorResponse "Author account deleted"
// @Failure 413 {object} handlers.ErrorResponse "Upload too large"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /recipes [post]
// @Security BearerAuth
func NewCreateRecipeHandler(svc RecipeCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, image, err := readRecipeInput(w, r)
		if err != nil {
			writeError(w, err)
			return
		}

		recipe, err := svc.Create(r.Context(), credential(r), input, image)
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Location", "/api/v1/recipes/"+strconv.FormatInt(recipe.ID, 10))
		writeJSON(w, http.StatusCreated, recipe)
	}
}
