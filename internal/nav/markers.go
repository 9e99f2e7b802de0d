package nav

import "gridcalc/internal/grid"

// Markers keeps the "active" highlights a renderer draws: the active cell
// and the header of its column and row. Attach it with Cursor.OnMove.
type Markers struct {
	cells map[grid.Pos]bool
	cols  map[int]bool
	rows  map[int]bool
}

func NewMarkers() *Markers {
	m := &Markers{
		cells: map[grid.Pos]bool{},
		cols:  map[int]bool{},
		rows:  map[int]bool{},
	}
	m.Move(grid.Pos{}, grid.Pos{})
	return m
}

// Move transfers every marker from one cell to another.
func (m *Markers) Move(from, to grid.Pos) {
	delete(m.cells, from)
	m.cells[to] = true
	if from.Col != to.Col {
		delete(m.cols, from.Col)
	}
	m.cols[to.Col] = true
	if from.Row != to.Row {
		delete(m.rows, from.Row)
	}
	m.rows[to.Row] = true
}

func (m *Markers) Cell(p grid.Pos) bool { return m.cells[p] }
func (m *Markers) Column(col int) bool  { return m.cols[col] }
func (m *Markers) Row(row int) bool     { return m.rows[row] }

// Count is the number of marked cells, column headers and row headers.
func (m *Markers) Count() (cells, cols, rows int) {
	return len(m.cells), len(m.cols), len(m.rows)
}
