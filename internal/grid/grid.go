package grid

import (
	"errors"
	"fmt"
	"strconv"
)

// Alphabet maps a column index to its header letter.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MaxColumns is the widest grid that still has one letter per column.
const MaxColumns = len(Alphabet)

var ErrOutOfBounds = errors.New("coordinate out of bounds")

// Pos is a 0-based (column, row) coordinate.
type Pos struct {
	Col int
	Row int
}

// Name renders the position in A1 notation, e.g. {0,0} -> "A1".
func (p Pos) Name() string {
	return Letter(p.Col) + strconv.Itoa(p.Row+1)
}

func (p Pos) String() string {
	return p.Name()
}

// Letter: 0 -> A, 25 -> Z. Anything outside the alphabet renders as "?".
func Letter(col int) string {
	if col < 0 || col >= MaxColumns {
		return "?"
	}
	return Alphabet[col : col+1]
}

// ParseRef parses a reference like "B12" into a 0-based position.
// Exactly one uppercase letter followed by a 1-based row number.
func ParseRef(name string) (Pos, bool) {
	if len(name) < 2 {
		return Pos{}, false
	}
	if name[0] < 'A' || name[0] > 'Z' {
		return Pos{}, false
	}
	for i := 1; i < len(name); i++ {
		if !isDigit(name[i]) {
			return Pos{}, false
		}
	}
	row, err := strconv.Atoi(name[1:])
	if err != nil {
		return Pos{}, false
	}
	return Pos{Col: int(name[0] - 'A'), Row: row - 1}, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Grid is a fixed-size, row-major collection of cells.
type Grid struct {
	cols  int
	rows  int
	cells [][]*Cell
}

// New builds an empty grid. Columns are capped at MaxColumns.
func New(cols, rows int) (*Grid, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("grid size %dx%d: dimensions must be positive", cols, rows)
	}
	if cols > MaxColumns {
		return nil, fmt.Errorf("grid size %dx%d: at most %d columns", cols, rows, MaxColumns)
	}
	g := &Grid{cols: cols, rows: rows}
	g.cells = make([][]*Cell, rows)
	for r := 0; r < rows; r++ {
		row := make([]*Cell, cols)
		for c := 0; c < cols; c++ {
			row[c] = NewCell(c, r)
		}
		g.cells[r] = row
	}
	return g, nil
}

func (g *Grid) Columns() int { return g.cols }
func (g *Grid) Rows() int    { return g.rows }

// Contains reports whether p addresses a cell of g.
func (g *Grid) Contains(p Pos) bool {
	return p.Col >= 0 && p.Col < g.cols && p.Row >= 0 && p.Row < g.rows
}

// Get returns the live cell at (col, row).
func (g *Grid) Get(col, row int) (*Cell, error) {
	p := Pos{Col: col, Row: row}
	if !g.Contains(p) {
		return nil, fmt.Errorf("get (%d,%d) in %dx%d grid: %w", col, row, g.cols, g.rows, ErrOutOfBounds)
	}
	return g.cells[row][col], nil
}

// At is Get addressed by Pos.
func (g *Grid) At(p Pos) (*Cell, error) {
	return g.Get(p.Col, p.Row)
}

// State is the replaceable part of a cell.
type State struct {
	Value   Value
	Formula string
	Style   Style
}

// Set replaces the value, formula and style of the cell at (col, row).
func (g *Grid) Set(col, row int, st State) error {
	cell, err := g.Get(col, row)
	if err != nil {
		return err
	}
	cell.value = st.Value
	cell.formula = st.Formula
	cell.usedFormula = false
	cell.style = st.Style.Clone()
	return nil
}

// Record is the interchange form of a cell. The JSON keys follow the
// documents written by earlier versions of the widget.
type Record struct {
	Col     int    `json:"xAxis"`
	Row     int    `json:"yAxis"`
	Value   Value  `json:"value"`
	Formula string `json:"formula"`
	Style   Style  `json:"styles"`
}

// Serialize emits every cell, row-major.
func (g *Grid) Serialize() []Record {
	out := make([]Record, 0, g.cols*g.rows)
	for _, row := range g.cells {
		for _, cell := range row {
			out = append(out, cell.Record())
		}
	}
	return out
}

// Rebuild discards every cell and recreates the grid from records.
// Cells missing from records come back empty. The grid is left untouched
// when any record falls outside it.
func (g *Grid) Rebuild(records []Record) error {
	for _, rec := range records {
		if !g.Contains(Pos{Col: rec.Col, Row: rec.Row}) {
			return fmt.Errorf("rebuild record %s (%d,%d): %w", Pos{Col: rec.Col, Row: rec.Row}, rec.Col, rec.Row, ErrOutOfBounds)
		}
	}
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			g.cells[r][c] = NewCell(c, r)
		}
	}
	for _, rec := range records {
		cell := NewCell(rec.Col, rec.Row)
		cell.value = rec.Value
		cell.formula = rec.Formula
		cell.style = rec.Style.Clone()
		g.cells[rec.Row][rec.Col] = cell
	}
	return nil
}
