package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/bytedance/sonic"
	qr "github.com/skip2/go-qrcode"

	"bingo-tracker-server/auth"
	"bingo-tracker-server/config"
	"bingo-tracker-server/game"
	"bingo-tracker-server/gameerrors"
	"bingo-tracker-server/scan"
)

const qrSize = 256

// Handler holds dependencies for API handlers.
type Handler struct {
	Config  *config.Config
	Scanner game.Scanner
	Auth    *auth.Validator // nil disables auth
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, scanner game.Scanner, validator *auth.Validator) *Handler {
	return &Handler{
		Config:  cfg,
		Scanner: scanner,
		Auth:    validator,
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/scan", h.Scan)
	mux.HandleFunc("/api/qr", h.QR)
	mux.HandleFunc("/healthz", Healthz)
}

// CORS sets CORS headers on the response. It returns true when the request
// was a preflight and has been answered.
func (h *Handler) CORS(w http.ResponseWriter, r *http.Request) bool {
	origin := h.Config.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// ScanRequest is the body of POST /api/scan. Image is base64, optionally as
// a data URL.
type ScanRequest struct {
	Image      string           `json:"image"`
	MIMEType   string           `json:"mimeType,omitempty"`
	Dimensions *game.Dimensions `json:"dimensions,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Scan reads a card photo and returns {rows, cols, grid}.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	if h.CORS(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.Auth != nil {
		if _, err := h.Auth.Authenticate(r); err != nil {
			http.Error(w, "authorization required", http.StatusUnauthorized)
			return
		}
	}

	// Base64 inflates by 4/3; leave room for the JSON around it.
	limit := int64(h.Config.MaxImageBytes)*4/3 + 4096
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "Image is too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	var req ScanRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	if req.Image == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing image"})
		return
	}
	image, mimeType, err := scan.DecodeImage(req.Image)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Image is not valid base64"})
		return
	}
	if req.MIMEType != "" {
		mimeType = req.MIMEType
	}
	if req.Dimensions != nil {
		if err := req.Dimensions.Validate(h.Config.MinGridSize, h.Config.MaxGridSize); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Config.ScanTimeout())
	defer cancel()

	res, err := h.Scanner.Scan(ctx, game.ScanRequest{Image: image, MIMEType: mimeType, Dimensions: req.Dimensions})
	if err != nil {
		if msg, ok := gameerrors.UserMessage(err); ok {
			slog.Info("scan rejected", "tag", "api", "reason", msg)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
			return
		}
		slog.Error("scan failed", "tag", "api", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "scan-failed"})
		return
	}
	writeJSON(w, http.StatusOK, scan.ResultPayload(res))
}

// QR returns a PNG QR code for the url query parameter, or for the
// configured public URL when none is given.
func (h *Handler) QR(w http.ResponseWriter, r *http.Request) {
	if h.CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	target := r.URL.Query().Get("url")
	if target == "" {
		target = h.Config.PublicURL
	}
	if target == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}
	png, err := qr.Encode(target, qr.Medium, qrSize)
	if err != nil {
		slog.Error("QR generation failed", "tag", "api", "err", err)
		http.Error(w, "QR generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

// Healthz reports that the server is up.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		slog.Error("encoding response", "tag", "api", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
