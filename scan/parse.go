// Package scan turns photos of Bingo cards into grids.
package scan

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"bingo-tracker-server/config"
	"bingo-tracker-server/game"
	"bingo-tracker-server/gameerrors"
)

const notABingoCard = "not_a_bingo_card"

// User-facing scan failures.
const (
	MsgNotABingoCard = "The image does not look like a valid Bingo card. Please upload a clear photo of a card."
	MsgNoGrid        = "No valid grid was detected in the image."
	MsgGridSize      = "The detected grid is %dx%d; each side must be between %d and %d."
)

// DefaultMaxSize caps each side of a detected grid when no Bounds are set.
const DefaultMaxSize = 10

// Bounds limits the grid size a backend may report. The zero value allows
// sides of 1 to DefaultMaxSize.
type Bounds struct {
	Min int
	Max int
}

// BoundsFromConfig returns the grid bounds users may configure.
func BoundsFromConfig(cfg *config.Config) Bounds {
	return Bounds{Min: cfg.MinGridSize, Max: cfg.MaxGridSize}
}

func (b Bounds) orDefault() Bounds {
	if b.Min < 1 {
		b.Min = 1
	}
	if b.Max <= 0 {
		b.Max = DefaultMaxSize
	}
	return b
}

// Payload is the JSON body exchanged with scan services and cached in Redis.
// Free cells are null; 0 is also accepted as free.
type Payload struct {
	Rows  int       `json:"rows,omitempty"`
	Cols  int       `json:"cols,omitempty"`
	Grid  game.Grid `json:"grid,omitempty"`
	Error string    `json:"error,omitempty"`
}

// ResultPayload converts a scan result for the wire.
func ResultPayload(res game.ScanResult) Payload {
	return Payload{Rows: res.Rows, Cols: res.Cols, Grid: res.Grid}
}

// Prompt returns the model instructions. A nil dims asks the model to detect
// the grid size itself.
func Prompt(dims *game.Dimensions) string {
	if dims == nil {
		return `STRICT INSTRUCTIONS: Analyze the provided image. If it is NOT a Bingo card with a visible grid of numbers, return {"error": "not_a_bingo_card"}. ` +
			`If it IS a valid Bingo card, detect the exact grid size (rows and columns), then extract ALL visible numbers into a JSON object with this EXACT structure: ` +
			`{"rows": <number>, "cols": <number>, "grid": [[array of integers]]}. Use 0 for free spaces or empty cells. Return ONLY valid JSON, no additional text.`
	}
	return fmt.Sprintf(
		`STRICT INSTRUCTIONS: Extract ALL numbers from this %dx%d Bingo card grid. Return a JSON array of %d rows, each containing %d integers. `+
			`Use 0 for free spaces or empty cells. If the image is not a valid Bingo card, return {"error": "not_a_bingo_card"}. Return ONLY valid JSON, no additional text.`,
		dims.Rows, dims.Cols, dims.Rows, dims.Cols)
}

// ParseResponse reads a model reply, which may wrap the JSON in prose, and
// returns a grid of exactly rows x cols.
func ParseResponse(text string, dims *game.Dimensions, bounds Bounds) (game.ScanResult, error) {
	raw := extractJSON(text)
	if raw == "" {
		return game.ScanResult{}, fmt.Errorf("%w: no JSON found in model response", gameerrors.ErrScanFailed)
	}

	var (
		grid       game.Grid
		rows, cols int
	)
	if dims != nil {
		rows, cols = dims.Rows, dims.Cols
	}

	if raw[0] == '[' {
		if err := sonic.UnmarshalString(raw, &grid); err != nil {
			return game.ScanResult{}, fmt.Errorf("%w: decoding grid: %v", gameerrors.ErrScanFailed, err)
		}
	} else {
		var p struct {
			Rows  int        `json:"rows"`
			Cols  int        `json:"cols"`
			Grid  *game.Grid `json:"grid"`
			Error string     `json:"error"`
		}
		if err := sonic.UnmarshalString(raw, &p); err != nil {
			return game.ScanResult{}, fmt.Errorf("%w: decoding response: %v", gameerrors.ErrScanFailed, err)
		}
		if p.Error != "" {
			return game.ScanResult{}, userErrorFor(p.Error)
		}
		if p.Grid == nil {
			return game.ScanResult{}, fmt.Errorf("%w: unexpected response structure", gameerrors.ErrScanFailed)
		}
		grid = *p.Grid
		if rows == 0 {
			rows = p.Rows
		}
		if cols == 0 {
			cols = p.Cols
		}
	}

	return Finish(grid, rows, cols, bounds)
}

// Finish fills in missing dimensions from the grid's own shape and coerces
// the grid to them. A size outside bounds is rejected before any cells are
// allocated.
func Finish(grid game.Grid, rows, cols int, bounds Bounds) (game.ScanResult, error) {
	if rows == 0 {
		rows = grid.Rows()
	}
	if cols == 0 {
		cols = grid.Cols()
	}
	if len(grid) == 0 || rows <= 0 || cols <= 0 {
		return game.ScanResult{}, gameerrors.NewUserError(MsgNoGrid)
	}
	dims := game.Dimensions{Rows: rows, Cols: cols}
	b := bounds.orDefault()
	if err := dims.Validate(b.Min, b.Max); err != nil {
		return game.ScanResult{}, gameerrors.NewUserError(fmt.Sprintf(MsgGridSize, rows, cols, b.Min, b.Max))
	}
	return game.ScanResult{Rows: rows, Cols: cols, Grid: game.NormalizeGrid(grid, dims)}, nil
}

func userErrorFor(code string) error {
	if code == notABingoCard {
		return gameerrors.NewUserError(MsgNotABingoCard)
	}
	return gameerrors.NewUserError(code)
}

// extractJSON returns the first JSON object or array embedded in text, or ""
// if there is none.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	first, last := text[0], text[len(text)-1]
	if (first == '{' && last == '}') || (first == '[' && last == ']') {
		return text
	}

	obj, arr := strings.IndexByte(text, '{'), strings.IndexByte(text, '[')
	start, end := -1, -1
	switch {
	case obj != -1 && (arr == -1 || obj < arr):
		start, end = obj, strings.LastIndexByte(text, '}')
	case arr != -1:
		start, end = arr, strings.LastIndexByte(text, ']')
	}
	if start == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}
