package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "InvalidInput wraps ErrInvalidInput",
			err:       InvalidInput("username", "username is required"),
			target:    ErrInvalidInput,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("error inserting user"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("Password is incorrect"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Unavailable wraps ErrUnavailable",
			err:       Unavailable(errors.New("connection refused")),
			target:    ErrUnavailable,
			wantMatch: true,
		},
		{
			name:      "NotSupported wraps ErrNotSupported",
			err:       NotSupported("method PUT"),
			target:    ErrNotSupported,
			wantMatch: true,
		},
		{
			name:      "wrapped NotFound still matches",
			err:       fmt.Errorf("adding favorite: %w", NotFound("user", "u1")),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrInvalidInput",
			err:       NotFound("user", "abc123"),
			target:    ErrInvalidInput,
			wantMatch: false,
		},
		{
			name:      "Unavailable does NOT match ErrNotFound",
			err:       Unavailable(errors.New("boom")),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("user", "abc123"),
			wantMessage: "user not found with id abc123",
		},
		{
			name:        "InvalidInput uses custom message",
			err:         InvalidInput("username", "Must include username and password"),
			wantMessage: "Must include username and password",
		},
		{
			name:        "Unavailable hides the cause",
			err:         Unavailable(errors.New("dial tcp 10.0.0.1:5432: connection refused")),
			wantMessage: "store unavailable",
		},
		{
			name:        "NotSupported names the request",
			err:         NotSupported("action reset"),
			wantMessage: "action reset is not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnavailableKeepsCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := Unavailable(cause)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(Unavailable(cause), cause) = false, want true")
	}
}

func TestInvalidInputField(t *testing.T) {
	err := InvalidInput("googleId", "book must include a googleId")

	if err.Field != "googleId" {
		t.Errorf("Field = %q, want %q", err.Field, "googleId")
	}
}
