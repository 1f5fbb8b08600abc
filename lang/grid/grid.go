// Package grid implements the two-dimensional character map that holds a
// Deolang program. The grid is both code and data: the machine reads the
// cell under its instruction pointer and may rewrite arbitrary cells while
// running, so the map grows on demand and reads outside the current bounds
// are valid and return the empty sentinel.
package grid

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Empty is the sentinel rune stored in cells that have no character. Reads
// outside the grid bounds return it too.
const Empty rune = 0

// ErrInvalidSource is returned when a grid is constructed from neither
// usable content nor an existing file.
var ErrInvalidSource = errors.New("grid: no source content or file")

// A Grid is a resizable rows×cols map of runes. Every row has exactly cols
// cells; writes outside the current bounds grow the grid, which never
// shrinks. The zero value is an empty 0×0 grid.
type Grid struct {
	rows, cols int
	cells      [][]rune
}

// FromString builds a grid from source text. Each line is one row, a single
// trailing carriage return per line is dropped, and shorter rows are padded
// with the empty sentinel up to the longest line.
func FromString(content string) (*Grid, error) {
	if content == "" {
		return nil, ErrInvalidSource
	}
	lines := strings.Split(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		// a trailing newline does not open a new row
		lines = lines[:n-1]
	}

	g := &Grid{rows: len(lines)}
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if n := len([]rune(line)); n > g.cols {
			g.cols = n
		}
	}
	g.cells = make([][]rune, g.rows)
	for i, line := range lines {
		row := make([]rune, g.cols)
		copy(row, []rune(strings.TrimSuffix(line, "\r")))
		g.cells[i] = row
	}
	return g, nil
}

// FromFile builds a grid from the UTF-8 text of the named file.
func FromFile(path string) (*Grid, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSource, path)
	}
	g, err := FromString(string(b))
	if errors.Is(err, ErrInvalidSource) {
		// an existing but empty file is a valid 0×0 program
		return &Grid{}, nil
	}
	return g, err
}

// Rows returns the current number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the current number of columns.
func (g *Grid) Cols() int { return g.cols }

// Len returns the number of cells in the current bounding box.
func (g *Grid) Len() int { return g.rows * g.cols }

// Get returns the cell at (x, y), or Empty when the coordinates fall
// outside the current bounds. It never faults.
func (g *Grid) Get(x, y int) rune {
	if y < 0 || y >= g.rows || x < 0 || x >= g.cols {
		return Empty
	}
	return g.cells[y][x]
}

// Set stores ch at (x, y), growing the grid so that the cell exists. A
// negative coordinate is a no-op.
func (g *Grid) Set(x, y int, ch rune) {
	if x < 0 || y < 0 {
		return
	}
	g.ensure(x+1, y+1)
	g.cells[y][x] = ch
}

// ensure grows the grid to at least w columns and h rows, padding new cells
// with the empty sentinel and preserving existing content.
func (g *Grid) ensure(w, h int) {
	for g.rows < h {
		g.cells = append(g.cells, make([]rune, g.cols))
		g.rows++
	}
	if w > g.cols {
		for i, row := range g.cells {
			nr := make([]rune, w)
			copy(nr, row)
			g.cells[i] = nr
		}
		g.cols = w
	}
}

// Merge overlays the grid loaded from path onto g at the given offset,
// growing g as needed. Empty cells of the overlay do not overwrite. It
// reports whether the overlay was applied; any failure to load the file
// leaves g untouched and returns false.
func (g *Grid) Merge(path string, xoff, yoff int) bool {
	other, err := FromFile(path)
	if err != nil {
		return false
	}
	g.ensure(xoff+other.cols, yoff+other.rows)
	for r, row := range other.cells {
		for c, ch := range row {
			if ch == Empty {
				continue
			}
			x, y := c+xoff, r+yoff
			if x < 0 || y < 0 {
				continue
			}
			g.cells[y][x] = ch
		}
	}
	return true
}

// Cells returns a deep copy of the current cells, row by row.
func (g *Grid) Cells() [][]rune {
	out := make([][]rune, g.rows)
	for i, row := range g.cells {
		out[i] = append([]rune(nil), row...)
	}
	return out
}
