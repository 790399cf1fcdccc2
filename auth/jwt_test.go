package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testIssuer = "https://auth.example.com"

func newTestValidator(t *testing.T) (*Validator, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	v := NewStaticValidator(testIssuer, func(*jwt.Token) (any, error) { return pub, nil })
	return v, priv
}

func sign(t *testing.T, key ed25519.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestValidate_Valid(t *testing.T) {
	v, key := newTestValidator(t)
	token := sign(t, key, jwt.MapClaims{
		"iss": testIssuer,
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Validate(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if UserIDFromClaims(claims) != "user-1" {
		t.Errorf("expected user-1, got %q", UserIDFromClaims(claims))
	}
}

func TestValidate_WrongIssuer(t *testing.T) {
	v, key := newTestValidator(t)
	token := sign(t, key, jwt.MapClaims{"iss": "https://evil.example.com", "sub": "u"})
	if _, err := v.Validate(token); err == nil {
		t.Error("expected issuer mismatch to be rejected")
	}
}

func TestValidate_Expired(t *testing.T) {
	v, key := newTestValidator(t)
	token := sign(t, key, jwt.MapClaims{
		"iss": testIssuer,
		"sub": "u",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	if _, err := v.Validate(token); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidate_WrongMethod(t *testing.T) {
	v, _ := newTestValidator(t)
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"iss": testIssuer}).SignedString([]byte("secret"))
	if _, err := v.Validate(token); err == nil {
		t.Error("expected HS256 token to be rejected")
	}
}

func TestValidate_Missing(t *testing.T) {
	v, _ := newTestValidator(t)
	if _, err := v.Validate(""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	v, key := newTestValidator(t)
	token := sign(t, key, jwt.MapClaims{"iss": testIssuer, "id": "user-2"})

	r := httptest.NewRequest("GET", "/ws?token="+token, nil)
	userID, err := v.Authenticate(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-2" {
		t.Errorf("expected user-2, got %q", userID)
	}

	noSub := sign(t, key, jwt.MapClaims{"iss": testIssuer})
	r = httptest.NewRequest("GET", "/api/scan", nil)
	r.Header.Set("Authorization", "Bearer "+noSub)
	if _, err := v.Authenticate(r); err == nil {
		t.Error("expected token without subject to be rejected")
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=query", nil)
	if got := BearerToken(r); got != "query" {
		t.Errorf("expected query token, got %q", got)
	}
	r.Header.Set("Authorization", "Bearer  header ")
	if got := BearerToken(r); got != "header" {
		t.Errorf("expected header token to win, got %q", got)
	}
	r.Header.Set("Authorization", "Basic abc")
	if got := BearerToken(r); got != "query" {
		t.Errorf("expected non-bearer header to be ignored, got %q", got)
	}
}

func TestNewValidator(t *testing.T) {
	if _, err := NewValidator(""); err == nil {
		t.Error("expected empty base URL to be rejected")
	}
	if _, err := NewValidator("not a url"); err == nil {
		t.Error("expected invalid base URL to be rejected")
	}
	v, err := NewValidator("https://auth.example.com/api/auth/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.issuer != testIssuer {
		t.Errorf("expected issuer %s, got %s", testIssuer, v.issuer)
	}
	if v.jwksURL != "https://auth.example.com/api/auth/.well-known/jwks.json" {
		t.Errorf("unexpected jwks url %s", v.jwksURL)
	}
}
