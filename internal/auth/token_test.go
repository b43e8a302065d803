package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestTokenService(t *testing.T, ttl time.Duration) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret, ttl)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_Validation(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		ttl     time.Duration
		wantErr bool
	}{
		{name: "valid", secret: testSecret, ttl: time.Hour},
		{name: "short secret", secret: "too-short", ttl: time.Hour, wantErr: true},
		{name: "zero ttl", secret: testSecret, ttl: 0, wantErr: true},
		{name: "negative ttl", secret: testSecret, ttl: -time.Second, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenService(tt.secret, tt.ttl)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewTokenService() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t, time.Hour)

	token, err := ts.Issue("cs1q3m2v4k0g00b0v9ng")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("Issue() = %q, want header.payload.signature", token)
	}

	id, err := ts.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if id != "cs1q3m2v4k0g00b0v9ng" {
		t.Errorf("Verify() = %q, want %q", id, "cs1q3m2v4k0g00b0v9ng")
	}
}

func TestIssue_EmptySessionID(t *testing.T) {
	ts := newTestTokenService(t, time.Hour)

	if _, err := ts.Issue(""); err == nil {
		t.Fatal("Issue(\"\") should fail")
	}
}

func TestVerify_Expired(t *testing.T) {
	ts := newTestTokenService(t, time.Minute)
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return issuedAt }

	token, err := ts.Issue("sess-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	ts.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = ts.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Verify() error = %v, want ErrTokenExpired", err)
	}
}

func TestVerify_Rejects(t *testing.T) {
	ts := newTestTokenService(t, time.Hour)
	good, _ := ts.Issue("sess-1")

	other, err := NewTokenService("ffffffffffffffffffffffffffffffff", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	foreign, _ := other.Issue("sess-1")

	wrongIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "sess-1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "sess-1",
		Issuer:  issuer,
	}).SignedString([]byte(testSecret))

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "sess-1",
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.token"},
		{name: "empty", token: ""},
		{name: "tampered signature", token: good[:len(good)-2] + "xx"},
		{name: "signed with another secret", token: foreign},
		{name: "wrong issuer", token: wrongIssuer},
		{name: "missing expiry", token: noExpiry},
		{name: "alg none", token: unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.Verify(tt.token)
			if !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("Verify() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}
