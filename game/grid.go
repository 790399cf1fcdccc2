package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"bingo-tracker-server/gameerrors"
)

// Cell is a single square on a card: a number, or the free space.
type Cell struct {
	Number int
	Free   bool
}

// FreeSpace is the cell that is always marked.
var FreeSpace = Cell{Free: true}

// Num returns a numbered cell.
func Num(n int) Cell {
	return Cell{Number: n}
}

// FromRaw converts a wire integer to a cell; 0 is the free space.
func FromRaw(n int) Cell {
	if n == 0 {
		return FreeSpace
	}
	return Num(n)
}

// String returns the editor text for a cell.
func (c Cell) String() string {
	if c.Free {
		return "FREE"
	}
	return strconv.Itoa(c.Number)
}

// MarshalJSON encodes the free space as null and numbers as JSON numbers.
func (c Cell) MarshalJSON() ([]byte, error) {
	if c.Free {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(c.Number)), nil
}

// UnmarshalJSON accepts a number or null. Both null and 0 decode to the free space.
func (c *Cell) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = FreeSpace
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", gameerrors.ErrInvalidCell, string(data))
	}
	*c = FromRaw(n)
	return nil
}

// Dimensions is the rows x cols shape of a grid.
type Dimensions struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Validate checks both sides are within [lo, hi].
func (d Dimensions) Validate(lo, hi int) error {
	if d.Rows < lo || d.Rows > hi || d.Cols < lo || d.Cols > hi {
		return fmt.Errorf("%w: %dx%d (each side must be between %d and %d)", gameerrors.ErrInvalidDimensions, d.Rows, d.Cols, lo, hi)
	}
	return nil
}

// Center returns the single true center cell, which only exists when both
// sides are odd.
func (d Dimensions) Center() (row, col int, ok bool) {
	if d.Rows%2 == 0 || d.Cols%2 == 0 {
		return 0, 0, false
	}
	return d.Rows / 2, d.Cols / 2, true
}

// Grid is a card's numbers, row-major.
type Grid [][]Cell

// Rows returns the number of rows.
func (g Grid) Rows() int {
	return len(g)
}

// Cols returns the length of the first row, or 0 for an empty grid.
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Dimensions returns the grid's shape.
func (g Grid) Dimensions() Dimensions {
	return Dimensions{Rows: g.Rows(), Cols: g.Cols()}
}

// IsRectangular reports whether every row has the same non-zero length.
func (g Grid) IsRectangular() bool {
	if len(g) == 0 || len(g[0]) == 0 {
		return false
	}
	for _, row := range g {
		if len(row) != len(g[0]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for r, row := range g {
		out[r] = append([]Cell(nil), row...)
	}
	return out
}

// Contains reports whether n appears anywhere on the grid.
func (g Grid) Contains(n int) bool {
	for _, row := range g {
		for _, c := range row {
			if !c.Free && c.Number == n {
				return true
			}
		}
	}
	return false
}

// FreeCount returns the number of free cells.
func (g Grid) FreeCount() int {
	count := 0
	for _, row := range g {
		for _, c := range row {
			if c.Free {
				count++
			}
		}
	}
	return count
}

// NormalizeGrid coerces an untrusted grid to exactly dims: missing rows and
// cells are filled with the free space, extra ones are dropped.
func NormalizeGrid(g Grid, dims Dimensions) Grid {
	out := make(Grid, dims.Rows)
	for r := 0; r < dims.Rows; r++ {
		row := make([]Cell, dims.Cols)
		for c := 0; c < dims.Cols; c++ {
			if r < len(g) && c < len(g[r]) {
				row[c] = g[r][c]
			} else {
				row[c] = FreeSpace
			}
		}
		out[r] = row
	}
	return out
}

// GridFromRaw converts adapter output (0 = free) to a grid.
func GridFromRaw(raw [][]int) Grid {
	out := make(Grid, len(raw))
	for r, row := range raw {
		out[r] = make([]Cell, len(row))
		for c, n := range row {
			out[r][c] = FromRaw(n)
		}
	}
	return out
}

// ParseCell parses one editor cell. Blank, "F", "FREE" and "0" are the free space.
func ParseCell(text string) (Cell, error) {
	raw := strings.ToUpper(strings.TrimSpace(text))
	switch raw {
	case "", "F", "FREE", "0":
		return FreeSpace, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return Cell{}, gameerrors.ErrInvalidCell
	}
	return Num(n), nil
}

// ParseDraft converts editor text to a grid, reporting the first bad cell
// by its 1-based position.
func ParseDraft(draft [][]string) (Grid, error) {
	grid := make(Grid, len(draft))
	for r, row := range draft {
		grid[r] = make([]Cell, len(row))
		for c, text := range row {
			cell, err := ParseCell(text)
			if err != nil {
				return nil, &gameerrors.UserError{
					Message: fmt.Sprintf("Invalid number at Row %d, Col %d", r+1, c+1),
					Err:     err,
				}
			}
			grid[r][c] = cell
		}
	}
	return grid, nil
}

// BlankDraft returns empty editor text for dims, with the true center
// pre-filled as FREE when centerFree is set.
func BlankDraft(dims Dimensions, centerFree bool) [][]string {
	draft := make([][]string, dims.Rows)
	cr, cc, hasCenter := dims.Center()
	for r := range draft {
		draft[r] = make([]string, dims.Cols)
		if centerFree && hasCenter && r == cr {
			draft[r][cc] = FreeSpace.String()
		}
	}
	return draft
}

// DraftFromGrid renders a grid as editor text.
func DraftFromGrid(g Grid) [][]string {
	draft := make([][]string, len(g))
	for r, row := range g {
		draft[r] = make([]string, len(row))
		for c, cell := range row {
			draft[r][c] = cell.String()
		}
	}
	return draft
}
