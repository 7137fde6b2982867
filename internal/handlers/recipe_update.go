package handlers

//go:generate mockgen -source=recipe_update.go -destination=recipe_update_mock.go -package=handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-recipe-book/internal/models"
)

// RecipeUpdater defines the interface that the service must implement.
type RecipeUpdater interface {
	Update(ctx context.Context, credential string, id int64, input models.RecipeInput, image []byte) (*models.Recipe, error)
}

// NewUpdateRecipeHandler returns an HTTP handler replacing a recipe the
// caller owns.
// @Summary Update recipe
// @Tags recipes
// @Accept json,mpfd
// @Produce json
// @Param id path int true "Recipe id"
// @Param recipe body models.RecipeInput true "Recipe"
// @Success 200 {object} models.Recipe
// @Failure 400 {object} handlers.ErrorResponse "Invalid recipe"
// @Failure 401 {object} handlers.ErrorResponse "Missing or invalid token"
// @Failure 403 {object} handlers.ErrorResponse "Not the author"
// @Failure 404 {object} handlers.ErrorResponse "Not found"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /recipes/{id} [put]
// @Security BearerAuth
func NewUpdateRecipeHandler(svc RecipeUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recipeID(r)
		if err != nil {
			writeError(w, err)
			return
		}

		input, image, err := readRecipeInput(w, r)
		if err != nil {
			writeError(w, err)
			return
		}

		recipe, err := svc.Update(r.Context(), credential(r), id, input, image)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, recipe)
	}
}
