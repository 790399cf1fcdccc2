package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// ErrMissingToken is returned when a request carries no bearer token.
var ErrMissingToken = errors.New("missing bearer token")

// Validator checks JWTs signed by the auth provider at baseURL. The JWKS is
// fetched on first use and refreshed in the background by keyfunc.
type Validator struct {
	issuer  string
	jwksURL string
	methods []string

	once    sync.Once
	keyfunc jwt.Keyfunc
	initErr error
}

// NewValidator returns a validator for tokens issued by baseURL, whose keys
// are served at baseURL/.well-known/jwks.json.
func NewValidator(baseURL string) (*Validator, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("AUTH_JWKS_BASE_URL is not set")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	return &Validator{
		issuer:  u.Scheme + "://" + u.Host,
		jwksURL: strings.TrimRight(baseURL, "/") + "/.well-known/jwks.json",
		methods: []string{"EdDSA"},
	}, nil
}

// NewStaticValidator uses kf instead of a remote JWKS.
func NewStaticValidator(issuer string, kf jwt.Keyfunc, methods ...string) *Validator {
	if len(methods) == 0 {
		methods = []string{"EdDSA"}
	}
	v := &Validator{issuer: issuer, methods: methods, keyfunc: kf}
	v.once.Do(func() {})
	return v
}

// Validate parses tokenString and returns its claims.
func (v *Validator) Validate(tokenString string) (jwt.MapClaims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	v.once.Do(func() {
		jwks, err := keyfunc.NewDefault([]string{v.jwksURL})
		if err != nil {
			v.initErr = fmt.Errorf("loading JWKS: %w", err)
			return
		}
		v.keyfunc = jwks.Keyfunc
	})
	if v.initErr != nil {
		return nil, v.initErr
	}

	token, err := jwt.Parse(tokenString, v.keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods(v.methods))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// Authenticate validates the request's bearer token and returns the user id.
func (v *Validator) Authenticate(r *http.Request) (string, error) {
	claims, err := v.Validate(BearerToken(r))
	if err != nil {
		return "", err
	}
	userID := UserIDFromClaims(claims)
	if userID == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return userID, nil
}

// BearerToken returns the token from the Authorization header, falling back
// to the "token" query parameter for WebSocket upgrades from browsers.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(h[len(bearerPrefix):])
	}
	return r.URL.Query().Get("token")
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}
