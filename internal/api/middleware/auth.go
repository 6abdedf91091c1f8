package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/its-pratyushpandey/NextHire-backend/internal/models"
)

type contextKey string

const IdentityContextKey contextKey = "identity"

// Identity is the authenticated principal carried through the request
// context. Tokens are minted by the identity service; this service
// only verifies them.
type Identity struct {
	ID   string
	Role models.Role
}

// AuthMiddleware verifies bearer tokens for authenticated endpoints.
type AuthMiddleware struct {
	secret []byte
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// RequireAuth verifies the Authorization header and stashes the caller
// identity in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := m.Authenticate(r)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authenticate extracts and verifies the caller identity from a
// request. Exposed separately so the websocket handshake can reuse it.
func (m *AuthMiddleware) Authenticate(r *http.Request) (*Identity, error) {
	raw := bearerToken(r)
	if raw == "" {
		return nil, errAuth("missing bearer token")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errAuth("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errAuth("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errAuth("invalid claims")
	}

	sub, _ := claims["sub"].(string)
	if _, err := uuid.Parse(sub); err != nil {
		return nil, errAuth("invalid subject")
	}

	roleStr, _ := claims["role"].(string)
	role := models.Role(roleStr)
	if !role.Valid() || role == models.RoleSystem {
		return nil, errAuth("invalid role")
	}

	return &Identity{ID: sub, Role: role}, nil
}

// bearerToken pulls the token from the Authorization header, falling
// back to the "token" query parameter for websocket clients that
// cannot set headers.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

type errAuth string

func (e errAuth) Error() string { return string(e) }

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetIdentityFromContext retrieves the authenticated identity from the
// request context.
func GetIdentityFromContext(ctx context.Context) *Identity {
	ident, ok := ctx.Value(IdentityContextKey).(*Identity)
	if !ok {
		return nil
	}
	return ident
}
