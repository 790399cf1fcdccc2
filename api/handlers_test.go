package api

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"bingo-tracker-server/auth"
	"bingo-tracker-server/config"
	"bingo-tracker-server/game"
	"bingo-tracker-server/gameerrors"
	"bingo-tracker-server/scan"
)

type stubScanner struct {
	res game.ScanResult
	err error
	got game.ScanRequest
}

func (s *stubScanner) Scan(_ context.Context, req game.ScanRequest) (game.ScanResult, error) {
	s.got = req
	return s.res, s.err
}

func newTestHandler(scanner game.Scanner) *Handler {
	return NewHandler(config.Defaults(), scanner, nil)
}

func postScan(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Scan(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func TestScan_Success(t *testing.T) {
	scanner := &stubScanner{res: game.ScanResult{Rows: 2, Cols: 2, Grid: game.Grid{
		{game.Num(1), game.FreeSpace},
		{game.Num(3), game.Num(4)},
	}}}
	h := newTestHandler(scanner)
	img := base64.StdEncoding.EncodeToString([]byte("photo"))

	rec := postScan(h, `{"image":"data:image/png;base64,`+img+`","dimensions":{"rows":2,"cols":2}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Rows int      `json:"rows"`
		Cols int      `json:"cols"`
		Grid [][]*int `json:"grid"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Rows != 2 || resp.Cols != 2 || resp.Grid[0][1] != nil || *resp.Grid[1][1] != 4 {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
	if string(scanner.got.Image) != "photo" || scanner.got.MIMEType != "image/png" {
		t.Errorf("unexpected scan request %+v", scanner.got)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header")
	}
}

func TestScan_MissingImage(t *testing.T) {
	rec := postScan(newTestHandler(&stubScanner{}), `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "Missing image" {
		t.Errorf("unexpected error %q", msg)
	}
}

func TestScan_InvalidDimensions(t *testing.T) {
	rec := postScan(newTestHandler(&stubScanner{}), `{"image":"eA==","dimensions":{"rows":1,"cols":50}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestScan_UserError(t *testing.T) {
	h := newTestHandler(&stubScanner{err: gameerrors.NewUserError(scan.MsgNotABingoCard)})
	rec := postScan(h, `{"image":"eA=="}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != scan.MsgNotABingoCard {
		t.Errorf("unexpected error %q", msg)
	}
}

func TestScan_InternalError(t *testing.T) {
	h := newTestHandler(&stubScanner{err: errors.New("model exploded")})
	rec := postScan(h, `{"image":"eA=="}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "scan-failed" {
		t.Errorf("expected scan-failed, got %q", msg)
	}
}

func TestScan_TooLarge(t *testing.T) {
	h := newTestHandler(&stubScanner{})
	h.Config.MaxImageBytes = 16
	big := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("x"), 8192))
	rec := postScan(h, `{"image":"`+big+`"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestScan_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(&stubScanner{}).Scan(rec, httptest.NewRequest(http.MethodGet, "/api/scan", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestScan_Preflight(t *testing.T) {
	h := newTestHandler(&stubScanner{})
	h.Config.AllowedOrigin = "https://bingo.example.com"
	rec := httptest.NewRecorder()
	h.Scan(rec, httptest.NewRequest(http.MethodOptions, "/api/scan", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://bingo.example.com" {
		t.Errorf("unexpected origin header %q", got)
	}
}

func TestScan_RequiresAuthWhenConfigured(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(rand.Reader)
	issuer := "https://auth.example.com"
	validator := auth.NewStaticValidator(issuer, func(*jwt.Token) (any, error) { return pub, nil })
	h := NewHandler(config.Defaults(), scan.MockScanner{}, validator)

	rec := postScan(h, `{"image":"eA=="}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token, _ := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{"iss": issuer, "sub": "u1"}).SignedString(priv)
	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(`{"image":"eA=="}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.Scan(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestQR(t *testing.T) {
	h := newTestHandler(&stubScanner{})

	rec := httptest.NewRecorder()
	h.QR(rec, httptest.NewRequest(http.MethodGet, "/api/qr?url=https://bingo.example.com", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("expected image/png, got %s", rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("expected PNG data")
	}

	rec = httptest.NewRecorder()
	h.QR(rec, httptest.NewRequest(http.MethodGet, "/api/qr", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without url or public URL, got %d", rec.Code)
	}

	h.Config.PublicURL = "https://bingo.example.com"
	rec = httptest.NewRecorder()
	h.QR(rec, httptest.NewRequest(http.MethodGet, "/api/qr", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected public URL fallback, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	mux := http.NewServeMux()
	newTestHandler(&stubScanner{}).Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("unexpected healthz response %d %q", rec.Code, rec.Body.String())
	}
}

func TestScan_NonPositiveTimeoutStillScans(t *testing.T) {
	h := NewHandler(config.Defaults(), scan.MockScanner{}, nil)
	h.Config.ScanTimeoutMS = 0
	rec := postScan(h, `{"image":"eA=="}`)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with a zero timeout setting, got %d: %s", rec.Code, rec.Body.String())
	}
}
