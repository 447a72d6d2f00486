package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	j := NewJWTAuth("test-secret")
	userID := uuid.New()

	token, err := j.GenerateAccessToken(userID, "admin@example.com", true)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	var gotUser uuid.UUID
	var gotAdmin bool
	handler := j.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserID(r.Context())
		gotAdmin = GetIsAdmin(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUser != userID {
		t.Errorf("expected user %s, got %s", userID, gotUser)
	}
	if !gotAdmin {
		t.Error("expected is_admin to be true")
	}
}

func TestMiddlewareRejectsBadTokens(t *testing.T) {
	j := NewJWTAuth("test-secret")
	other := NewJWTAuth("other-secret")
	challenge, _ := j.GenerateChallengeToken(uuid.New())
	foreign, _ := other.GenerateAccessToken(uuid.New(), "x@example.com", false)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
		{name: "wrong secret", header: "Bearer " + foreign},
		{name: "challenge token", header: "Bearer " + challenge},
	}

	handler := j.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestChallengeTokenRoundTrip(t *testing.T) {
	j := NewJWTAuth("test-secret")
	userID := uuid.New()

	token, err := j.GenerateChallengeToken(userID)
	if err != nil {
		t.Fatalf("GenerateChallengeToken failed: %v", err)
	}

	got, err := j.ParseChallengeToken(token)
	if err != nil {
		t.Fatalf("ParseChallengeToken failed: %v", err)
	}
	if got != userID {
		t.Errorf("expected user %s, got %s", userID, got)
	}

	// An access token must not pass as a challenge.
	access, _ := j.GenerateAccessToken(userID, "a@example.com", false)
	if _, err := j.ParseChallengeToken(access); err == nil {
		t.Error("access token accepted as challenge token")
	}
}

func TestAdminOnly(t *testing.T) {
	j := NewJWTAuth("test-secret")

	handler := j.Middleware(j.AdminOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	adminToken, _ := j.GenerateAccessToken(uuid.New(), "admin@example.com", true)
	userToken, _ := j.GenerateAccessToken(uuid.New(), "user@example.com", false)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "admin allowed", token: adminToken, want: http.StatusNoContent},
		{name: "non-admin forbidden", token: userToken, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
