package services

import (
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "Str0ngpass", wantErr: false},
		{name: "too short", password: "Ab1", wantErr: true},
		{name: "no uppercase", password: "weakpass1", wantErr: true},
		{name: "no digit", password: "Weakpassword", wantErr: true},
		{name: "exactly eight", password: "Abcdefg1", wantErr: false},
		{name: "empty", password: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestServiceErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "conflict", err: &ConflictError{Message: "Email already in use"}, want: "Email already in use"},
		{name: "not found", err: &NotFoundError{Message: "missing"}, want: "missing"},
		{name: "unauthorized", err: &UnauthorizedError{Message: "nope"}, want: "nope"},
		{name: "forbidden", err: &ForbiddenError{Message: "denied"}, want: "denied"},
		{name: "rate limit", err: &RateLimitError{Message: "slow down"}, want: "slow down"},
		{name: "validation", err: &ValidationError{Fields: map[string]string{"a": "b"}}, want: "Validation error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
