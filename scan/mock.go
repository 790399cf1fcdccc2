package scan

import (
	"context"

	"bingo-tracker-server/game"
)

const mockSize = 5

// MockScanner returns a fixed, predictable grid without looking at the
// image. Used when no vision backend is configured.
type MockScanner struct{}

// Scan returns numbers ((r*cols + c + 1) % 75) + 1 for the requested shape,
// or 5x5 when none is given.
func (MockScanner) Scan(ctx context.Context, req game.ScanRequest) (game.ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return game.ScanResult{}, err
	}
	rows, cols := mockSize, mockSize
	if req.Dimensions != nil {
		rows, cols = req.Dimensions.Rows, req.Dimensions.Cols
	}
	grid := make(game.Grid, rows)
	for r := range grid {
		grid[r] = make([]game.Cell, cols)
		for c := range grid[r] {
			grid[r][c] = game.FromRaw((r*cols+c+1)%75 + 1)
		}
	}
	return game.ScanResult{Rows: rows, Cols: cols, Grid: grid}, nil
}
