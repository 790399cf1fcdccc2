package game

// NumberSet is a read-only view of called numbers.
type NumberSet interface {
	Has(n int) bool
}

// Set is a plain NumberSet.
type Set map[int]struct{}

// NewSet returns a Set holding nums.
func NewSet(nums ...int) Set {
	s := make(Set, len(nums))
	for _, n := range nums {
		s[n] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(n int) bool {
	_, ok := s[n]
	return ok
}

// LineKind is the orientation of a winning line.
type LineKind int

const (
	LineRow LineKind = iota
	LineCol
	LineDiag
)

// String returns the protocol string for a LineKind.
func (k LineKind) String() string {
	switch k {
	case LineRow:
		return "row"
	case LineCol:
		return "col"
	case LineDiag:
		return "diag"
	default:
		return "unknown"
	}
}

// Line identifies a completed line. For diagonals Index 0 is the main
// diagonal and 1 the anti-diagonal.
type Line struct {
	Kind  LineKind
	Index int
}

// IsMarked reports whether a cell counts as daubed.
func IsMarked(c Cell, called NumberSet) bool {
	return c.Free || called.Has(c.Number)
}

// DetectWin reports whether any row, column or (square grids only) diagonal
// is fully marked. Grids without cells never win.
func DetectWin(g Grid, called NumberSet) bool {
	return len(scanLines(g, called, true)) > 0
}

// WinningLines returns every completed line.
func WinningLines(g Grid, called NumberSet) []Line {
	return scanLines(g, called, false)
}

// CountMarked returns how many cells are marked. It has no bearing on winning.
func CountMarked(g Grid, called NumberSet) int {
	count := 0
	for _, row := range g {
		for _, c := range row {
			if IsMarked(c, called) {
				count++
			}
		}
	}
	return count
}

func scanLines(g Grid, called NumberSet, firstOnly bool) []Line {
	rows, cols := g.Rows(), g.Cols()
	if rows == 0 || cols == 0 {
		return nil
	}
	var lines []Line
	found := func(l Line) bool {
		lines = append(lines, l)
		return firstOnly
	}

	for r := 0; r < rows; r++ {
		full := true
		for c := 0; c < cols; c++ {
			if !IsMarked(g[r][c], called) {
				full = false
				break
			}
		}
		if full && found(Line{Kind: LineRow, Index: r}) {
			return lines
		}
	}

	for c := 0; c < cols; c++ {
		full := true
		for r := 0; r < rows; r++ {
			if !IsMarked(g[r][c], called) {
				full = false
				break
			}
		}
		if full && found(Line{Kind: LineCol, Index: c}) {
			return lines
		}
	}

	// Non-square grids have no diagonals.
	if rows != cols {
		return lines
	}
	mainFull, antiFull := true, true
	for i := 0; i < rows; i++ {
		if !IsMarked(g[i][i], called) {
			mainFull = false
		}
		if !IsMarked(g[i][rows-1-i], called) {
			antiFull = false
		}
	}
	if mainFull && found(Line{Kind: LineDiag, Index: 0}) {
		return lines
	}
	if antiFull {
		found(Line{Kind: LineDiag, Index: 1})
	}
	return lines
}
