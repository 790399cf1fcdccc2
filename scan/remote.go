package scan

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"bingo-tracker-server/game"
	"bingo-tracker-server/gameerrors"
)

const maxResponseBytes = 1 << 20

// RemoteRequest is the body of POST /api/scan.
type RemoteRequest struct {
	Image      string           `json:"image"`
	MIMEType   string           `json:"mimeType,omitempty"`
	Dimensions *game.Dimensions `json:"dimensions,omitempty"`
}

// RemoteScanner delegates to another service exposing POST /api/scan.
type RemoteScanner struct {
	URL    string
	Client *http.Client
	Bounds Bounds // limits the grid size accepted from the service
}

func (s *RemoteScanner) Scan(ctx context.Context, req game.ScanRequest) (game.ScanResult, error) {
	body, err := sonic.Marshal(RemoteRequest{
		Image:      base64.StdEncoding.EncodeToString(req.Image),
		MIMEType:   req.MIMEType,
		Dimensions: req.Dimensions,
	})
	if err != nil {
		return game.ScanResult{}, fmt.Errorf("%w: encoding request: %v", gameerrors.ErrScanFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return game.ScanResult{}, fmt.Errorf("%w: %v", gameerrors.ErrScanFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return game.ScanResult{}, ctx.Err()
		}
		return game.ScanResult{}, fmt.Errorf("%w: %v", gameerrors.ErrScanFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return game.ScanResult{}, fmt.Errorf("%w: reading response: %v", gameerrors.ErrScanFailed, err)
	}

	var p Payload
	decodeErr := sonic.Unmarshal(data, &p)

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		if decodeErr == nil && p.Error != "" {
			return game.ScanResult{}, userErrorFor(p.Error)
		}
		return game.ScanResult{}, fmt.Errorf("%w: scan service returned %d", gameerrors.ErrScanFailed, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return game.ScanResult{}, fmt.Errorf("%w: scan service returned %d", gameerrors.ErrScanFailed, resp.StatusCode)
	case decodeErr != nil:
		return game.ScanResult{}, fmt.Errorf("%w: decoding response: %v", gameerrors.ErrScanFailed, decodeErr)
	}

	rows, cols := p.Rows, p.Cols
	if req.Dimensions != nil {
		rows, cols = req.Dimensions.Rows, req.Dimensions.Cols
	}
	return Finish(p.Grid, rows, cols, s.Bounds)
}
