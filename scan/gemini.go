package scan

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"bingo-tracker-server/game"
	"bingo-tracker-server/gameerrors"
)

const defaultMIMEType = "image/jpeg"

// GeminiScanner reads cards with a Gemini vision model.
type GeminiScanner struct {
	client      *genai.Client
	model       string
	logResponse bool

	// Bounds limits the grid size accepted from the model.
	Bounds Bounds
}

// NewGeminiScanner connects to the Gemini API. logResponse logs raw model
// output at debug level.
func NewGeminiScanner(ctx context.Context, apiKey, model string, logResponse bool) (*GeminiScanner, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiScanner{client: client, model: model, logResponse: logResponse}, nil
}

func (s *GeminiScanner) Scan(ctx context.Context, req game.ScanRequest) (game.ScanResult, error) {
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = defaultMIMEType
	}
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{Data: req.Image, MIMEType: mimeType}},
			{Text: Prompt(req.Dimensions)},
		},
	}}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		if ctx.Err() != nil {
			return game.ScanResult{}, ctx.Err()
		}
		return game.ScanResult{}, fmt.Errorf("%w: %v", gameerrors.ErrScanFailed, err)
	}

	text := resp.Text()
	if s.logResponse {
		slog.Debug("raw model response", "tag", "scan", "model", s.model, "text", text)
	}
	return ParseResponse(text, req.Dimensions, s.Bounds)
}
