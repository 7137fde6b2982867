// Package gate turns a request credential into a verified user id and
// enforces record ownership for mutating operations.
package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Authorization failures.
var (
	ErrMissing   = errors.New("authorization credential missing")
	ErrInvalid   = errors.New("authorization credential invalid")
	ErrForbidden = errors.New("forbidden")
)

// HeaderName is the request header carrying the bearer credential.
const HeaderName = "Authorization"

// Verifier checks a raw token and returns its subject.
type Verifier interface {
	Verify(ctx context.Context, token string) (int64, error)
}

// Gate classifies credentials as missing, invalid or valid.
type Gate struct {
	verifier Verifier
}

// New creates a Gate backed by verifier.
func New(verifier Verifier) *Gate {
	return &Gate{verifier: verifier}
}

// Credential returns the raw credential presented with r.
func Credential(r *http.Request) string {
	return r.Header.Get(HeaderName)
}

// Authorize validates a credential of the form "Bearer <token>" and returns
// the verified user id. An empty credential yields ErrMissing, anything the
// verifier rejects yields ErrInvalid.
func (g *Gate) Authorize(ctx context.Context, credential string) (int64, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return 0, ErrMissing
	}

	parts := strings.Fields(credential)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return 0, fmt.Errorf("%w: unsupported authorization scheme", ErrInvalid)
	}

	subject, err := g.verifier.Verify(ctx, parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return subject, nil
}

// AuthorizeOwner authorizes the credential and requires its subject to be
// author. author must come from the stored record, never from the request.
func (g *Gate) AuthorizeOwner(ctx context.Context, credential string, author int64) error {
	subject, err := g.Authorize(ctx, credential)
	if err != nil {
		return err
	}
	if subject != author {
		return ErrForbidden
	}
	return nil
}

// Challenge writes the 401 response for an authorization failure. A
// rejected token is flagged as invalid_token so clients know to log in again.
func Challenge(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalid) {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	} else {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(http.StatusUnauthorized)
}
