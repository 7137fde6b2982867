package services

import (
	"errors"

	"github.com/sbilibin2017/gw-recipe-book/internal/gate"
)

// Error variables
var (
	ErrUserAlreadyExists  = errors.New("user name already taken")
	ErrUserDoesNotExist   = errors.New("user does not exist")
	ErrInvalidCredentials = errors.New("invalid user name or password")

	ErrNotFound       = errors.New("not found")
	ErrForbidden      = gate.ErrForbidden
	ErrNoSuchUser     = errors.New("author account does not exist")
	ErrStorageFailure = errors.New("storage failure")
	ErrMalformed      = errors.New("malformed stored data")
	ErrInvalidRecipe  = errors.New("invalid recipe")
	ErrInvalidFilter  = errors.New("invalid search filter")
	ErrLimitExceeded  = errors.New("search limit exceeds maximum")
)
