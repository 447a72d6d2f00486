package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"folio-backend/internal/models"
	"folio-backend/internal/services"
)

func TestHandleServiceErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{
			name: "validation",
			err:  &services.ValidationError{Fields: map[string]string{"email": "required"}},
			want: http.StatusBadRequest,
			code: "VALIDATION_ERROR",
		},
		{
			name: "conflict",
			err:  &services.ConflictError{Message: "Email already in use"},
			want: http.StatusConflict,
			code: "CONFLICT",
		},
		{
			name: "not found",
			err:  &services.NotFoundError{Message: "Conversation not found"},
			want: http.StatusNotFound,
			code: "NOT_FOUND",
		},
		{
			name: "unauthorized",
			err:  &services.UnauthorizedError{Message: "Invalid credentials"},
			want: http.StatusUnauthorized,
			code: "UNAUTHORIZED",
		},
		{
			name: "forbidden",
			err:  &services.ForbiddenError{Message: "Admin access required"},
			want: http.StatusForbidden,
			code: "FORBIDDEN",
		},
		{
			name: "rate limited",
			err:  &services.RateLimitError{Message: "Slow down"},
			want: http.StatusTooManyRequests,
			code: "RATE_LIMITED",
		},
		{
			name: "unknown",
			err:  http.ErrAbortHandler,
			want: http.StatusInternalServerError,
			code: "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("X-Request-ID", "req-123")
			rec := httptest.NewRecorder()

			handleServiceError(rec, req, tt.err)

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}

			var body models.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if body.Error.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, body.Error.Code)
			}
			if body.Error.RequestID != "req-123" {
				t.Errorf("expected request ID to propagate, got %q", body.Error.RequestID)
			}
		})
	}
}

func TestValidateInquiry(t *testing.T) {
	valid := models.InquiryRequest{
		Name:    "Ada",
		Email:   "ada@example.com",
		Subject: "Work together?",
		Body:    "I have a project in mind.",
	}

	tests := []struct {
		name    string
		mutate  func(*models.InquiryRequest)
		badKeys []string
	}{
		{name: "valid", mutate: func(r *models.InquiryRequest) {}},
		{
			name:    "missing name",
			mutate:  func(r *models.InquiryRequest) { r.Name = "  " },
			badKeys: []string{"name"},
		},
		{
			name:    "bad email",
			mutate:  func(r *models.InquiryRequest) { r.Email = "not-an-email" },
			badKeys: []string{"email"},
		},
		{
			name:    "empty body and subject",
			mutate:  func(r *models.InquiryRequest) { r.Subject = ""; r.Body = "" },
			badKeys: []string{"subject", "body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			fields := validateInquiry(req)
			if len(fields) != len(tt.badKeys) {
				t.Fatalf("expected %d field errors, got %d: %v", len(tt.badKeys), len(fields), fields)
			}
			for _, key := range tt.badKeys {
				if _, ok := fields[key]; !ok {
					t.Errorf("expected error for field %q, got %v", key, fields)
				}
			}
		})
	}
}

func TestValidateProject(t *testing.T) {
	if fields := validateProject(models.ProjectRequest{Title: "Folio", Slug: "folio"}); len(fields) != 0 {
		t.Errorf("expected no errors for valid project, got %v", fields)
	}

	fields := validateProject(models.ProjectRequest{})
	if _, ok := fields["title"]; !ok {
		t.Error("expected title error")
	}
	if _, ok := fields["slug"]; !ok {
		t.Error("expected slug error")
	}
}

func TestVisitorIDHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/chat/messages", nil)
	if _, ok := visitorID(req); ok {
		t.Error("missing header should not parse")
	}

	req.Header.Set("X-Visitor-ID", "not-a-uuid")
	if _, ok := visitorID(req); ok {
		t.Error("malformed header should not parse")
	}

	req.Header.Set("X-Visitor-ID", "b3c7a5a0-1111-4222-8333-444455556666")
	id, ok := visitorID(req)
	if !ok {
		t.Fatal("valid header should parse")
	}
	if id.String() != "b3c7a5a0-1111-4222-8333-444455556666" {
		t.Errorf("unexpected visitor ID %s", id)
	}
}
