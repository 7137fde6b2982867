package handlers

//go:generate mockgen -source=recipe_search.go -destination=recipe_search_mock.go -package=handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sbilibin2017/gw-recipe-book/internal/models"
	"github.com/sbilibin2017/gw-recipe-book/internal/services"
)

// RecipeSearcher defines the interface that the service must implement.
type RecipeSearcher interface {
	Search(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, error)
}

// SearchResponse represents a page of search results
// swagger:model SearchResponse
type SearchResponse struct {
	Recipes []models.Recipe `json:"recipes"`
}

// NewSearchRecipesHandler returns an HTTP handler for recipe search.
// @Summary Search recipes
// @Description Filters are case-insensitive substring matches combined with AND. Without filters every recipe is listed.
// @Tags recipes
// @Produce json
// @Param name query string false "Name contains"
// @Param description query string false "Description contains"
// @Param author query string false "Author name contains"
// @Param author_id query int false "Author id"
// @Param limit query int false "Results per page (default 10, max 255)"
// @Param page query int false "Zero-based page"
// @Success 200 {object} handlers.SearchResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid filter"
// @Failure 413 {object} handlers.ErrorResponse "Limit above maximum"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /recipes [get]
func NewSearchRecipesHandler(svc RecipeSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r.URL.Query())
		if err != nil {
			writeError(w, err)
			return
		}

		recipes, err := svc.Search(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, SearchResponse{Recipes: recipes})
	}
}

func parseFilter(q url.Values) (models.RecipeFilter, error) {
	optional := func(key string) *string {
		if !q.Has(key) {
			return nil
		}
		v := q.Get(key)
		return &v
	}
	integer := func(key string) (int64, bool, error) {
		if !q.Has(key) {
			return 0, false, nil
		}
		v, err := strconv.ParseInt(q.Get(key), 10, 64)
		if errors.Is(err, strconv.ErrRange) && key == "limit" && v > 0 {
			return 0, false, fmt.Errorf("%w: %s", services.ErrLimitExceeded, q.Get(key))
		}
		if err != nil {
			return 0, false, fmt.Errorf("%w: %s", services.ErrInvalidFilter, key)
		}
		return v, true, nil
	}
	// Values past the platform int range stay out of range for the service.
	narrow := func(v int64) int {
		switch {
		case v > math.MaxInt:
			return math.MaxInt
		case v < math.MinInt:
			return math.MinInt
		}
		return int(v)
	}

	filter := models.RecipeFilter{
		Name:        optional("name"),
		Description: optional("description"),
		Author:      optional("author"),
	}

	authorID, ok, err := integer("author_id")
	if err != nil {
		return filter, err
	}
	if ok {
		filter.AuthorID = &authorID
	}

	limit, _, err := integer("limit")
	if err != nil {
		return filter, err
	}
	page, _, err := integer("page")
	if err != nil {
		return filter, err
	}
	filter.Limit = narrow(limit)
	filter.Page = narrow(page)
	return filter, nil
}
