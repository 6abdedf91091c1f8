package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/its-pratyushpandey/NextHire-backend/internal/models"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, secret, sub, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuthenticateBearerHeader(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	sub := uuid.NewString()

	req := httptest.NewRequest("GET", "/api/chat/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, sub, "recruiter"))

	ident, err := m.Authenticate(req)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if ident.ID != sub || ident.Role != models.RoleRecruiter {
		t.Errorf("identity = %+v", ident)
	}
}

func TestAuthenticateQueryToken(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	sub := uuid.NewString()

	req := httptest.NewRequest("GET", "/ws?token="+mintToken(t, testSecret, sub, "candidate"), nil)

	ident, err := m.Authenticate(req)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if ident.ID != sub || ident.Role != models.RoleCandidate {
		t.Errorf("identity = %+v", ident)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	sub := uuid.NewString()

	cases := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"wrong secret", mintToken(t, "other-secret", sub, "recruiter")},
		{"system role", mintToken(t, testSecret, sub, "system")},
		{"unknown role", mintToken(t, testSecret, sub, "admin")},
		{"non-uuid subject", mintToken(t, testSecret, "alice", "recruiter")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/chat/conversations", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			if _, err := m.Authenticate(req); err == nil {
				t.Error("expected rejection")
			}
		})
	}
}
