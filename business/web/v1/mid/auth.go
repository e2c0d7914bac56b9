package mid

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dermacoin/platform/business/web/auth"
	v1 "github.com/dermacoin/platform/business/web/v1"
	"github.com/dermacoin/platform/foundation/web"
)

// ctxKey represents the type of value for the context key.
type ctxKey int

// claimsKey is how the authenticated claims are stored/retrieved.
const claimsKey ctxKey = 1

// GetClaims returns the claims from the context.
func GetClaims(ctx context.Context) (auth.Claims, error) {
	claims, ok := ctx.Value(claimsKey).(auth.Claims)
	if !ok {
		return auth.Claims{}, errors.New("claims missing from context")
	}
	return claims, nil
}

// Authenticate validates the bearer token and stores the claims in the
// context for downstream handlers.
func Authenticate(a *auth.Auth) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			parts := strings.Split(r.Header.Get("Authorization"), " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return v1.NewRequestError(errors.New("expected authorization header format: Bearer <token>"), http.StatusUnauthorized)
			}

			claims, err := a.ValidateToken(parts[1])
			if err != nil {
				return v1.NewRequestError(err, http.StatusUnauthorized)
			}

			ctx = context.WithValue(ctx, claimsKey, claims)

			// Call the next handler.
			return handler(ctx, w, r)
		}

		return h
	}

	return m
}

// Authorize restricts a route to callers holding one of the listed roles.
func Authorize(roles ...string) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			claims, err := GetClaims(ctx)
			if err != nil {
				return v1.NewRequestError(errors.New("not authenticated"), http.StatusUnauthorized)
			}

			for _, role := range roles {
				if claims.Role == role {
					return handler(ctx, w, r)
				}
			}

			return v1.NewRequestError(errors.New("not authorized for this action"), http.StatusForbidden)
		}

		return h
	}

	return m
}
