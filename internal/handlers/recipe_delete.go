package handlers

//go:generate mockgen -source=recipe_delete.go -destination=recipe_delete_mock.go -package=handlers

import (
	"context"
	"net/http"
)

// RecipeDeleter defines the interface that the service must implement.
type RecipeDeleter interface {
	Delete(ctx context.Context, credential string, id int64) error
}

// NewDeleteRecipeHandler returns an HTTP handler soft-deleting a recipe the
// caller owns.
// @Summary Delete recipe
// @Tags recipes
// @Param id path int true "Recipe id"
// @Success 204
// @Failure 401 {object} handlers.ErrorResponse "Missing or invalid token"
// @Failure 403 {object} handlers.ErrorResponse "Not the author"
// @Failure 404 {object} handlers.ErrorResponse "Not found"
// @Router /recipes/{id} [delete]
// @Security BearerAuth
func NewDeleteRecipeHandler(svc RecipeDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recipeID(r)
		if err != nil {
			writeError(w, err)
			return
		}

		if err := svc.Delete(r.Context(), credential(r), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
