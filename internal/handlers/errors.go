package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/gw-recipe-book/internal/gate"
	"github.com/sbilibin2017/gw-recipe-book/internal/logger"
	"github.com/sbilibin2017/gw-recipe-book/internal/middlewares"
	"github.com/sbilibin2017/gw-recipe-book/internal/services"
)

// ErrorResponse represents an error response
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	// default: Not found
	Error string `json:"error"`
}

var errBadID = errors.New("invalid recipe id")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorw("failed to encode response", "err", err)
	}
}

// writeError maps a service error onto its HTTP status. Internal failures are
// logged with full detail and answered with a generic message.
func writeError(w http.ResponseWriter, err error) {
	var maxBytes *http.MaxBytesError

	switch {
	case errors.Is(err, gate.ErrMissing), errors.Is(err, gate.ErrInvalid):
		w.Header().Set("Content-Type", "application/json")
		gate.Challenge(w, err)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Unauthorized"})
	case errors.Is(err, services.ErrForbidden):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "Forbidden"})
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not found"})
	case errors.Is(err, services.ErrNoSuchUser):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "User not found"})
	case errors.Is(err, services.ErrUserAlreadyExists):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "User name already taken"})
	case errors.Is(err, services.ErrLimitExceeded), errors.As(err, &maxBytes):
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrInvalidRecipe),
		errors.Is(err, services.ErrInvalidFilter),
		errors.Is(err, errBadID):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		logger.Log.Errorw("internal server error", "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

// credential returns the credential the auth middleware accepted, falling
// back to the raw header when the route is not behind it.
func credential(r *http.Request) string {
	if p, ok := middlewares.PrincipalFromContext(r.Context()); ok {
		return p.Credential
	}
	return gate.Credential(r)
}

func recipeID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}
