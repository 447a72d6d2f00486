package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"folio-backend/internal/middleware"
)

func newTestRouter(t *testing.T) (http.Handler, *middleware.JWTAuth) {
	t.Helper()
	jwtAuth := middleware.NewJWTAuth("test-secret")
	// Handlers are never invoked in these tests; routing and auth
	// middleware resolve first.
	return New(jwtAuth, nil, nil, nil, nil, nil, nil, nil, nil, nil,
		"http://localhost:5173", 20), jwtAuth
}

func TestAdminBlogRoutesRegistered(t *testing.T) {
	h, _ := newTestRouter(t)

	mux, ok := h.(chi.Router)
	if !ok {
		t.Fatal("expected a chi router")
	}

	routes := make(map[string]bool)
	chi.Walk(mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes[method+" "+route] = true
		return nil
	})

	for _, want := range []string{
		"GET /api/v1/admin/posts",
		"GET /api/v1/admin/posts/{slug}",
		"GET /api/v1/posts",
		"GET /api/v1/posts/{slug}",
	} {
		if !routes[want] {
			t.Errorf("route %q not registered", want)
		}
	}
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	h, jwtAuth := newTestRouter(t)

	userToken, err := jwtAuth.GenerateAccessToken(uuid.New(), "user@example.com", false)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "no token", token: "", want: http.StatusUnauthorized},
		{name: "non-admin token", token: userToken, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/admin/posts", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
