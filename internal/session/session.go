package session

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"gridcalc/internal/calc"
	"gridcalc/internal/grid"
	"gridcalc/internal/nav"
	"gridcalc/internal/storage"
)

var ErrBadStyle = errors.New("bad style value")

// Session owns one grid, its cursor and the document name. All mutation
// happens synchronously on the caller's goroutine.
type Session struct {
	Name string

	grid    *grid.Grid
	cursor  *nav.Cursor
	markers *nav.Markers
	log     *log.Logger
}

// New creates an empty session. A nil logger discards output.
func New(cfg Config, logger *log.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g, err := grid.New(cfg.Columns, cfg.Rows)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Session{
		Name:    cfg.Name,
		grid:    g,
		cursor:  nav.New(cfg.Columns, cfg.Rows),
		markers: nav.NewMarkers(),
		log:     logger,
	}
	s.cursor.OnMove(s.markers.Move)
	return s, nil
}

func (s *Session) Grid() *grid.Grid      { return s.grid }
func (s *Session) Cursor() *nav.Cursor   { return s.cursor }
func (s *Session) Markers() *nav.Markers { return s.markers }

// ActiveCell returns the cell under the cursor.
func (s *Session) ActiveCell() *grid.Cell {
	// the cursor never leaves the grid
	cell, _ := s.grid.At(s.cursor.Active())
	return cell
}

// Commit stores text into the active cell. See CommitAt.
func (s *Session) Commit(text string) error {
	return s.CommitAt(s.cursor.Active(), text)
}

// CommitAt classifies text into the cell at p and, when text carries a
// formula prefix, evaluates it into the same cell. Formula errors are
// logged and returned; the cell then holds 0.
func (s *Session) CommitAt(p grid.Pos, text string) error {
	origin, err := s.grid.At(p)
	if err != nil {
		return err
	}
	origin.Commit(text)
	if _, err := calc.Apply(s.grid, origin, text); err != nil {
		s.log.Printf("commit %s %q: %v", p, text, err)
		return err
	}
	return nil
}

// HandleKey feeds key to the cursor state machine.
func (s *Session) HandleKey(key nav.Key, shift bool) bool {
	return s.cursor.Handle(key, shift)
}

// Select handles a pointer selection of p.
func (s *Session) Select(p grid.Pos) error {
	if !s.grid.Contains(p) {
		return fmt.Errorf("select %s: %w", p, grid.ErrOutOfBounds)
	}
	s.cursor.Select(p)
	return nil
}

// ApplyStyle merges patch into the active cell's style.
func (s *Session) ApplyStyle(patch grid.Style) {
	s.ActiveCell().ApplyStyle(patch)
}

// SetBackgroundColor accepts any hex color and stores it as #rrggbb.
func (s *Session) SetBackgroundColor(color string) error {
	return s.setColor(grid.StyleBackground, color)
}

// SetTextColor accepts any hex color and stores it as #rrggbb.
func (s *Session) SetTextColor(color string) error {
	return s.setColor(grid.StyleColor, color)
}

func (s *Session) setColor(key, color string) error {
	c, err := colorful.Hex(normalizeHex(color))
	if err != nil {
		return fmt.Errorf("%s %q: %w", key, color, ErrBadStyle)
	}
	s.ApplyStyle(grid.Style{key: c.Hex()})
	return nil
}

// normalizeHex expands the #rgb shorthand, which colorful.Hex also parses
// but the rest of the module never stores.
func normalizeHex(color string) string {
	color = strings.TrimSpace(color)
	if !strings.HasPrefix(color, "#") {
		color = "#" + color
	}
	if len(color) == 4 {
		return "#" + strings.Repeat(color[1:2], 2) + strings.Repeat(color[2:3], 2) + strings.Repeat(color[3:4], 2)
	}
	return color
}

// SetFontSize stores size in pixels.
func (s *Session) SetFontSize(px int) error {
	if px <= 0 {
		return fmt.Errorf("font size %d: %w", px, ErrBadStyle)
	}
	s.ApplyStyle(grid.Style{grid.StyleFontSize: strconv.Itoa(px) + "px"})
	return nil
}

func (s *Session) SetFontFamily(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("empty font family: %w", ErrBadStyle)
	}
	s.ApplyStyle(grid.Style{grid.StyleFontFamily: name})
	return nil
}

func (s *Session) ToggleBold() {
	s.toggle(grid.StyleFontWeight, "bold", "normal")
}

func (s *Session) ToggleItalic() {
	s.toggle(grid.StyleFontStyle, "italic", "normal")
}

func (s *Session) ToggleStrikethrough() {
	s.toggle(grid.StyleTextDecoration, "line-through", "none")
}

func (s *Session) toggle(key, on, off string) {
	v := on
	if s.ActiveCell().StyleOf(key) == on {
		v = off
	}
	s.ApplyStyle(grid.Style{key: v})
}

// Snapshot captures the session as a document.
func (s *Session) Snapshot() storage.Document {
	return storage.Document{
		Name:    s.Name,
		Columns: s.grid.Columns(),
		Rows:    s.grid.Rows(),
		Cells:   s.grid.Serialize(),
	}
}

// Load replaces every cell with the document's records and puts the
// cursor back at A1. A document that carries its dimensions gets a grid of
// that size; otherwise the records must fit the current grid. On error the
// session is unchanged.
func (s *Session) Load(doc storage.Document) error {
	g := s.grid
	if doc.Columns > 0 && doc.Rows > 0 {
		var err error
		if g, err = grid.New(doc.Columns, doc.Rows); err != nil {
			return fmt.Errorf("load %q: %w", doc.Name, err)
		}
	}
	if err := g.Rebuild(doc.Cells); err != nil {
		return fmt.Errorf("load %q: %w", doc.Name, err)
	}
	if doc.Name != "" {
		s.Name = doc.Name
	}
	if g != s.grid {
		s.grid = g
		s.cursor = nav.New(g.Columns(), g.Rows())
		s.markers = nav.NewMarkers()
		s.cursor.OnMove(s.markers.Move)
		return nil
	}
	s.cursor.Reset()
	return nil
}

// LoadRecords is Load for bare records, e.g. from CSV. The grid grows
// to fit the records and never shrinks.
func (s *Session) LoadRecords(recs []grid.Record) error {
	doc := storage.Document{Columns: s.grid.Columns(), Rows: s.grid.Rows(), Cells: recs}
	for _, rec := range recs {
		doc.Columns = max(doc.Columns, rec.Col+1)
		doc.Rows = max(doc.Rows, rec.Row+1)
	}
	return s.Load(doc)
}
