package websocket

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestHandleAdminTokenValidation(t *testing.T) {
	hub := NewHub(nil, "test-secret")

	adminClaims := jwt.MapClaims{
		"user_id":  uuid.NewString(),
		"is_admin": true,
		"exp":      time.Now().Add(time.Minute).Unix(),
	}
	userClaims := jwt.MapClaims{
		"user_id":  uuid.NewString(),
		"is_admin": false,
		"exp":      time.Now().Add(time.Minute).Unix(),
	}

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{
			name:  "missing token",
			token: "",
			want:  http.StatusUnauthorized,
		},
		{
			name:  "wrong secret",
			token: signToken(t, jwt.SigningMethodHS256, []byte("other-secret"), adminClaims),
			want:  http.StatusUnauthorized,
		},
		{
			name:  "unsigned token",
			token: signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, adminClaims),
			want:  http.StatusUnauthorized,
		},
		{
			name:  "non-admin token",
			token: signToken(t, jwt.SigningMethodHS256, []byte("test-secret"), userClaims),
			want:  http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ws/admin?token="+tt.token, nil)
			rec := httptest.NewRecorder()
			hub.HandleAdmin(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}

	// A valid admin token passes auth; the upgrade then fails because
	// this is not a websocket handshake.
	req := httptest.NewRequest("GET", "/ws/admin?token="+signToken(t, jwt.SigningMethodHS256, []byte("test-secret"), adminClaims), nil)
	rec := httptest.NewRecorder()
	hub.HandleAdmin(rec, req)
	if rec.Code == http.StatusUnauthorized || rec.Code == http.StatusForbidden {
		t.Errorf("valid admin token rejected with %d", rec.Code)
	}
}
