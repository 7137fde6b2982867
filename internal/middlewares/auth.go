package middlewares

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=middlewares

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-recipe-book/internal/gate"
	"github.com/sbilibin2017/gw-recipe-book/internal/logger"
)

// Authorizer defines the minimal interface needed by the middleware
type Authorizer interface {
	Authorize(ctx context.Context, credential string) (int64, error)
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID     int64
	Credential string
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller stored by AuthMiddleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// AuthMiddleware returns a middleware that authorizes the request credential
// before any handler runs. Failures are answered with 401 and never reach
// the handler.
func AuthMiddleware(authorizer Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			credential := gate.Credential(r)

			userID, err := authorizer.Authorize(ctx, credential)
			if err != nil {
				logger.Log.Infow("authorization failed", "err", err)
				gate.Challenge(w, err)
				return
			}

			ctx = WithPrincipal(ctx, Principal{UserID: userID, Credential: credential})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
