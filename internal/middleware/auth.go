package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xelth-com/stockmaster/internal/ledger"
	"github.com/xelth-com/stockmaster/internal/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

// Authenticator verifies JWT access tokens and remembers revoked ones
// until they expire.
type Authenticator struct {
	secret string

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewAuthenticator creates an authenticator for tokens signed with secret
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: secret, revoked: make(map[string]time.Time)}
}

// BearerToken extracts the token from an "Authorization: Bearer" header
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequestToken returns the bearer token of r, falling back to the "token"
// query parameter for websocket handshakes where browsers cannot set headers
func RequestToken(r *http.Request) (string, bool) {
	if token, ok := BearerToken(r); ok {
		return token, true
	}
	token := r.URL.Query().Get("token")
	return token, token != ""
}

// Verify validates an access token that has not been revoked
func (a *Authenticator) Verify(token string) (jwt.MapClaims, bool) {
	claims, err := utils.ValidateToken(token, a.secret)
	if err != nil || utils.ClaimString(claims, "typ") != utils.TokenAccess {
		return nil, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, gone := a.revoked[utils.ClaimString(claims, "jti")]; gone {
		return nil, false
	}
	return claims, true
}

// Revoke invalidates a valid token. Unknown or expired tokens are ignored.
func (a *Authenticator) Revoke(token string) {
	claims, err := utils.ValidateToken(token, a.secret)
	if err != nil {
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}

	now := time.Now()
	a.mu.Lock()
	defer a.mu.Unlock()
	for jti, until := range a.revoked {
		if until.Before(now) {
			delete(a.revoked, jti)
		}
	}
	a.revoked[utils.ClaimString(claims, "jti")] = exp.Time
}

// Middleware rejects requests without a valid access token and puts the
// claims into the request context
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		token, ok := BearerToken(r)
		if !ok {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, ok := a.Verify(token)
		if !ok {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext returns the signed-in user of the request
func ActorFromContext(ctx context.Context) (ledger.Actor, bool) {
	claims, ok := ctx.Value(UserContextKey).(jwt.MapClaims)
	if !ok {
		return ledger.Actor{}, false
	}
	return ledger.Actor{
		ID:    utils.ClaimString(claims, "id"),
		Email: utils.ClaimString(claims, "email"),
	}, true
}

// WithActor stores claims for actor in ctx, as Middleware does
func WithActor(ctx context.Context, actor ledger.Actor) context.Context {
	return context.WithValue(ctx, UserContextKey, jwt.MapClaims{"id": actor.ID, "email": actor.Email})
}

// Secret is the signing key of issued tokens
func (a *Authenticator) Secret() string {
	return a.secret
}
