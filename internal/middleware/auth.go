package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/render"

	"github.com/wenliang8102/Entropy-Notes-backend/pkg/api/response"
	"github.com/wenliang8102/Entropy-Notes-backend/pkg/auth"
)

// AuthHeader is the fixed request-header slot for identity tokens.
const AuthHeader = "x-auth-token"

type key string

const identityKey key = "identity"

type TokenParser interface {
	ParseToken(tokenString string) (*auth.Identity, error)
}

// Auth validates the x-auth-token header and injects the caller's identity
// into the request context. The context value is the only channel through
// which downstream handlers learn who is calling.
func Auth(parser TokenParser) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(AuthHeader)
			if token == "" {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("No token, authorization denied"))
				return
			}
			identity, err := parser.ParseToken(token)
			if err != nil {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("Token is not valid"))
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// ContextWithIdentity is the write half of GetIdentity.
func ContextWithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func GetIdentity(ctx context.Context) (*auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*auth.Identity)
	return identity, ok
}
