package handlers

//go:generate mockgen -source=account.go -destination=account_mock.go -package=handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-recipe-book/internal/gate"
	"github.com/sbilibin2017/gw-recipe-book/internal/middlewares"
	"github.com/sbilibin2017/gw-recipe-book/internal/models"
)

// AccountManager defines the account self-service operations.
type AccountManager interface {
	Profile(ctx context.Context, id int64) (*models.User, error)
	UpdateAccount(ctx context.Context, id int64, name, password string) error
	DeleteAccount(ctx context.Context, id int64) error
}

// UpdateAccountRequest represents the JSON body for an account update
// swagger:model UpdateAccountRequest
type UpdateAccountRequest struct {
	// New name
	// required: true
	// default: alice
	Name string `json:"name" validate:"required,max=64"`

	// New password
	// required: true
	// default: secret456
	Password string `json:"password" validate:"required,max=72"`
}

func principal(w http.ResponseWriter, r *http.Request) (middlewares.Principal, bool) {
	p, ok := middlewares.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, gate.ErrMissing)
	}
	return p, ok
}

// NewProfileHandler returns the caller's account.
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /users/me [get]
// @Security BearerAuth
func NewProfileHandler(svc AccountManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		user, err := svc.Profile(r.Context(), p.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// NewUpdateAccountHandler changes the caller's name and password.
// @Summary Update current user
// @Tags users
// @Accept json
// @Produce json
// @Param request body handlers.UpdateAccountRequest true "New credentials"
// @Success 200 {object} models.User
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 401 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse
// @Router /users/me [put]
// @Security BearerAuth
func NewUpdateAccountHandler(svc AccountManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		var req UpdateAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
		if err := models.Validate(req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		if err := svc.UpdateAccount(r.Context(), p.UserID, req.Name, req.Password); err != nil {
			writeError(w, err)
			return
		}

		user, err := svc.Profile(r.Context(), p.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// NewDeleteAccountHandler soft-deletes the caller's account.
// @Summary Delete current user
// @Tags users
// @Success 204
// @Failure 401 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /users/me [delete]
// @Security BearerAuth
func NewDeleteAccountHandler(svc AccountManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteAccount(r.Context(), p.UserID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
