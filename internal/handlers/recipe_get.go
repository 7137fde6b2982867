package handlers

//go:generate mockgen -source=recipe_get.go -destination=recipe_get_mock.go -package=handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sbilibin2017/gw-recipe-book/internal/logger"
	"github.com/sbilibin2017/gw-recipe-book/internal/models"
)

// RecipeGetter defines the interface that the service must implement.
type RecipeGetter interface {
	Read(ctx context.Context, id int64) (*models.Recipe, error)
	ReadImage(ctx context.Context, id int64) ([]byte, error)
}

// NewGetRecipeHandler returns an HTTP handler for reading one recipe.
// @Summary Get recipe
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe id"
// @Success 200 {object} models.Recipe
// @Failure 400 {object} handlers.ErrorResponse "Invalid id"
// @Failure 404 {object} handlers.ErrorResponse "Not found"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /recipes/{id} [get]
func NewGetRecipeHandler(svc RecipeGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recipeID(r)
		if err != nil {
			writeError(w, err)
			return
		}

		recipe, err := svc.Read(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, recipe)
	}
}

// NewGetRecipeImageHandler returns an HTTP handler streaming a recipe's image.
// @Summary Get recipe image
// @Tags recipes
// @Produce octet-stream
// @Param id path int true "Recipe id"
// @Success 200 {file} binary
// @Failure 404 {object} handlers.ErrorResponse "No such recipe or no image"
// @Router /recipes/{id}/image [get]
func NewGetRecipeImageHandler(svc RecipeGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recipeID(r)
		if err != nil {
			writeError(w, err)
			return
		}

		image, err := svc.ReadImage(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", http.DetectContentType(image))
		w.Header().Set("Content-Length", strconv.Itoa(len(image)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(image); err != nil {
			logger.Log.Warnw("failed to write image", "id", id, "err", err)
		}
	}
}
