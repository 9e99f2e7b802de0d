package nav

import "gridcalc/internal/grid"

// Key is a discrete input key as seen by the cursor.
type Key int

const (
	KeyOther Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyTab
)

// State is the editing mode of the cursor.
type State int

const (
	Viewing State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "edit"
	}
	return "view"
}

// MoveFunc is called after every successful cursor move.
type MoveFunc func(from, to grid.Pos)

// Cursor tracks the active cell of a fixed-size grid and whether it is
// being edited.
type Cursor struct {
	cols int
	rows int

	active   grid.Pos
	previous grid.Pos
	state    State

	onMove []MoveFunc
}

// New returns a cursor at A1 in Viewing state.
func New(cols, rows int) *Cursor {
	return &Cursor{cols: cols, rows: rows}
}

// OnMove registers fn to observe cursor moves.
func (c *Cursor) OnMove(fn MoveFunc) {
	c.onMove = append(c.onMove, fn)
}

func (c *Cursor) Active() grid.Pos   { return c.active }
func (c *Cursor) Previous() grid.Pos { return c.previous }
func (c *Cursor) State() State       { return c.state }
func (c *Cursor) Editing() bool      { return c.state == Editing }

// Reset puts the cursor back at A1 in Viewing state, e.g. after the grid
// was rebuilt. Observers see a move from the old active cell.
func (c *Cursor) Reset() {
	c.state = Viewing
	from := c.active
	c.active = grid.Pos{}
	c.previous = grid.Pos{}
	c.notify(from, c.active)
}

// Handle applies key to the state machine. shift selects the reverse
// direction for Enter and Tab. The result reports whether the key was
// consumed; unconsumed keys belong to the cell editor.
func (c *Cursor) Handle(key Key, shift bool) bool {
	switch key {
	case KeyUp, KeyDown, KeyLeft, KeyRight:
		if c.state == Editing {
			return false
		}
		c.moveBy(delta(key))
		return true
	case KeyEnter:
		if c.state == Viewing {
			c.state = Editing
			return true
		}
		c.state = Viewing
		if shift {
			c.moveBy(0, -1)
		} else {
			c.moveBy(0, 1)
		}
		return true
	case KeyTab:
		c.state = Viewing
		if shift {
			c.moveBy(-1, 0)
		} else {
			c.moveBy(1, 0)
		}
		return true
	}
	if c.state == Viewing {
		c.state = Editing
	}
	return false
}

// Cancel leaves Editing without moving.
func (c *Cursor) Cancel() {
	c.state = Viewing
}

// Select handles a pointer selection of p: the cursor jumps there and
// starts editing. p is trusted to be a real cell.
func (c *Cursor) Select(p grid.Pos) {
	c.state = Viewing
	c.moveTo(p)
	c.state = Editing
}

func delta(key Key) (dx, dy int) {
	switch key {
	case KeyUp:
		return 0, -1
	case KeyDown:
		return 0, 1
	case KeyLeft:
		return -1, 0
	case KeyRight:
		return 1, 0
	}
	return 0, 0
}

func (c *Cursor) moveBy(dx, dy int) {
	p := grid.Pos{Col: c.active.Col + dx, Row: c.active.Row + dy}
	if p.Col < 0 || p.Col >= c.cols || p.Row < 0 || p.Row >= c.rows {
		return
	}
	c.moveTo(p)
}

func (c *Cursor) moveTo(p grid.Pos) {
	c.previous = c.active
	c.active = p
	c.notify(c.previous, c.active)
}

func (c *Cursor) notify(from, to grid.Pos) {
	for _, fn := range c.onMove {
		fn(from, to)
	}
}
