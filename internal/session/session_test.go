package session

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"gridcalc/internal/calc"
	"gridcalc/internal/grid"
	"gridcalc/internal/nav"
	"gridcalc/internal/storage"
)

func newSession(t *testing.T, cols, rows int) *Session {
	t.Helper()
	s, err := New(Config{Columns: cols, Rows: rows, Name: "test"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func ref(name string) grid.Pos {
	p, ok := grid.ParseRef(name)
	if !ok {
		panic("bad ref " + name)
	}
	return p
}

func value(t *testing.T, s *Session, name string) string {
	t.Helper()
	cell, err := s.Grid().At(ref(name))
	if err != nil {
		t.Fatalf("At(%s): %v", name, err)
	}
	return cell.Value().String()
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	for _, cfg := range []Config{{Rows: 0, Columns: 5}, {Rows: 5, Columns: 0}, {Rows: 5, Columns: 27}} {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("Validate(%+v)=nil", cfg)
		}
		if _, err := New(cfg, nil); err == nil {
			t.Fatalf("New(%+v) err=nil", cfg)
		}
	}
}

// typeInto drives the cursor the way the front-end does: select the cell,
// commit the text and press Enter.
func typeInto(t *testing.T, s *Session, name, text string) error {
	t.Helper()
	if err := s.Select(ref(name)); err != nil {
		t.Fatalf("Select(%s): %v", name, err)
	}
	err := s.Commit(text)
	s.HandleKey(nav.KeyEnter, false)
	return err
}

func TestSession_FormulaScenarios(t *testing.T) {
	cases := []struct {
		name   string
		inputs [][2]string
		check  string
		want   string
	}{
		{"sum", [][2]string{{"A1", "3"}, {"B1", "4"}, {"C1", "5"}, {"D1", "=SUM(A1:C1)"}}, "D1", "12"},
		{"average", [][2]string{{"A1", "10"}, {"A2", "20"}, {"A3", "=AVERAGE(A1:A2)"}}, "A3", "15"},
		{"count", [][2]string{{"A1", "x"}, {"A2", "5"}, {"A3", "7"}, {"A4", "=COUNT(A1:A3)"}}, "A4", "2"},
		{"min pair", [][2]string{{"A1", "8"}, {"B1", "3"}, {"C1", "=MIN(A1,B1)"}}, "C1", "3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSession(t, 5, 5)
			for _, in := range tc.inputs {
				if err := typeInto(t, s, in[0], in[1]); err != nil {
					t.Fatalf("commit %s=%q: %v", in[0], in[1], err)
				}
			}
			if got := value(t, s, tc.check); got != tc.want {
				t.Fatalf("%s=%q, want %q", tc.check, got, tc.want)
			}
		})
	}
}

func TestSession_MisalignedRangeIsReported(t *testing.T) {
	var buf bytes.Buffer
	s, err := New(Config{Columns: 4, Rows: 4}, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	typeInto(t, s, "A1", "1")
	typeInto(t, s, "B2", "2")
	err = typeInto(t, s, "C1", "=SUM(A1:B2)")
	if !errors.Is(err, calc.ErrMisalignedRange) || !errors.Is(err, calc.ErrUnrecognizedFormula) {
		t.Fatalf("err=%v, want ErrMisalignedRange", err)
	}
	if got := value(t, s, "C1"); got != "0" {
		t.Fatalf("C1=%q, want 0", got)
	}
	if !strings.Contains(buf.String(), "C1") {
		t.Fatalf("log %q does not name the origin cell", buf.String())
	}
}

func TestSession_PlainEditClearsFormula(t *testing.T) {
	s := newSession(t, 3, 3)
	typeInto(t, s, "A1", "2")
	typeInto(t, s, "B1", "=SUM(A1,A1)")
	b1, _ := s.Grid().At(ref("B1"))
	if b1.Formula() != "=SUM(A1,A1)" || b1.Value().String() != "4" {
		t.Fatalf("B1=(%q,%q)", b1.Formula(), b1.Value())
	}
	typeInto(t, s, "B1", "9")
	if b1.Formula() != "" || b1.Value().String() != "9" {
		t.Fatalf("B1 after plain edit=(%q,%q)", b1.Formula(), b1.Value())
	}
}

func TestSession_CommitAt_OutOfBounds(t *testing.T) {
	s := newSession(t, 2, 2)
	if err := s.CommitAt(grid.Pos{Col: 5, Row: 0}, "1"); !errors.Is(err, grid.ErrOutOfBounds) {
		t.Fatalf("err=%v", err)
	}
	if err := s.Select(grid.Pos{Col: 0, Row: 9}); !errors.Is(err, grid.ErrOutOfBounds) {
		t.Fatalf("select err=%v", err)
	}
}

func TestSession_MarkersFollowCursor(t *testing.T) {
	s := newSession(t, 3, 3)
	s.HandleKey(nav.KeyRight, false)
	s.HandleKey(nav.KeyDown, false)
	m := s.Markers()
	if !m.Cell(ref("B2")) || !m.Column(1) || !m.Row(1) || m.Column(0) || m.Row(0) {
		t.Fatalf("markers not on B2")
	}
}

func TestSession_StyleControls(t *testing.T) {
	s := newSession(t, 2, 2)
	s.HandleKey(nav.KeyRight, false)

	s.ToggleBold()
	s.ToggleItalic()
	s.ToggleStrikethrough()
	cell := s.ActiveCell()
	if cell.StyleOf(grid.StyleFontWeight) != "bold" ||
		cell.StyleOf(grid.StyleFontStyle) != "italic" ||
		cell.StyleOf(grid.StyleTextDecoration) != "line-through" {
		t.Fatalf("style after toggles on=%v", cell.Style())
	}
	s.ToggleBold()
	s.ToggleItalic()
	s.ToggleStrikethrough()
	if cell.StyleOf(grid.StyleFontWeight) != "normal" ||
		cell.StyleOf(grid.StyleFontStyle) != "normal" ||
		cell.StyleOf(grid.StyleTextDecoration) != "none" {
		t.Fatalf("style after toggles off=%v", cell.Style())
	}

	if err := s.SetBackgroundColor("#F0a"); err != nil {
		t.Fatalf("SetBackgroundColor: %v", err)
	}
	if got := cell.StyleOf(grid.StyleBackground); got != "#ff00aa" {
		t.Fatalf("background=%q, want #ff00aa", got)
	}
	if err := s.SetTextColor("00ff00"); err != nil {
		t.Fatalf("SetTextColor: %v", err)
	}
	if got := cell.StyleOf(grid.StyleColor); got != "#00ff00" {
		t.Fatalf("color=%q, want #00ff00", got)
	}
	if err := s.SetTextColor("chartreuse-ish"); !errors.Is(err, ErrBadStyle) {
		t.Fatalf("bad color err=%v", err)
	}
	if err := s.SetFontSize(18); err != nil || cell.StyleOf(grid.StyleFontSize) != "18px" {
		t.Fatalf("font size=%q err=%v", cell.StyleOf(grid.StyleFontSize), err)
	}
	if err := s.SetFontSize(0); !errors.Is(err, ErrBadStyle) {
		t.Fatalf("zero font size err=%v", err)
	}
	if err := s.SetFontFamily("Courier"); err != nil || cell.StyleOf(grid.StyleFontFamily) != "Courier" {
		t.Fatalf("font family=%q err=%v", cell.StyleOf(grid.StyleFontFamily), err)
	}

	// style changes never touch the value
	if got := cell.Value().String(); got != "" {
		t.Fatalf("value=%q", got)
	}
	a1, _ := s.Grid().At(ref("A1"))
	if len(a1.Style()) != 0 {
		t.Fatalf("A1 style=%v, want untouched", a1.Style())
	}
}

func TestSession_SnapshotLoad(t *testing.T) {
	s := newSession(t, 3, 3)
	typeInto(t, s, "A1", "3")
	typeInto(t, s, "A2", "=SUM(A1,A1)")
	s.ToggleBold()
	doc := s.Snapshot()
	if doc.Name != "test" || doc.Columns != 3 || doc.Rows != 3 || len(doc.Cells) != 9 {
		t.Fatalf("snapshot header=%q %dx%d n=%d", doc.Name, doc.Columns, doc.Rows, len(doc.Cells))
	}

	other := newSession(t, 3, 3)
	other.HandleKey(nav.KeyDown, false)
	doc.Name = "loaded"
	if err := other.Load(doc); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if other.Name != "loaded" {
		t.Fatalf("name=%q", other.Name)
	}
	if other.Cursor().Active() != (grid.Pos{}) || other.Cursor().Editing() {
		t.Fatalf("cursor not reset: %v", other.Cursor().Active())
	}
	if got := value(t, other, "A2"); got != "6" {
		t.Fatalf("A2=%q, want 6", got)
	}
	a2, _ := other.Grid().At(ref("A2"))
	if a2.Formula() != "=SUM(A1,A1)" {
		t.Fatalf("formula=%q", a2.Formula())
	}

	bare := newSession(t, 1, 1)
	if err := bare.Load(storage.Document{Cells: doc.Cells}); !errors.Is(err, grid.ErrOutOfBounds) {
		t.Fatalf("load unsized records into smaller grid err=%v", err)
	}
	if bare.Grid().Rows() != 1 || bare.Grid().Columns() != 1 {
		t.Fatalf("failed load resized grid to %dx%d", bare.Grid().Columns(), bare.Grid().Rows())
	}
}

func TestSession_Load_UsesDocumentSize(t *testing.T) {
	big, err := New(Config{Rows: 200, Columns: grid.MaxColumns, Name: "big"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	typeInto(t, big, "A150", "9")
	doc := big.Snapshot()

	s, err := New(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.HandleKey(nav.KeyDown, false)
	if err := s.Load(doc); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Grid().Rows() != 200 || s.Grid().Columns() != grid.MaxColumns {
		t.Fatalf("grid=%dx%d, want 26x200", s.Grid().Columns(), s.Grid().Rows())
	}
	if got := value(t, s, "A150"); got != "9" {
		t.Fatalf("A150=%q, want 9", got)
	}
	if s.Cursor().Active() != (grid.Pos{}) || !s.Markers().Cell(grid.Pos{}) {
		t.Fatalf("cursor=%v, markers not on A1", s.Cursor().Active())
	}

	// the new cursor spans the loaded grid and drives the markers
	if err := s.Select(ref("A200")); err != nil {
		t.Fatalf("Select(A200): %v", err)
	}
	if !s.Markers().Row(199) || s.Markers().Row(0) {
		t.Fatalf("row markers not moved to 200")
	}

	small := newSession(t, 5, 5)
	if err := small.Load(doc); err != nil {
		t.Fatalf("Load into 5x5: %v", err)
	}
	if small.Grid().Rows() != 200 {
		t.Fatalf("rows=%d, want 200", small.Grid().Rows())
	}
}

func TestSession_LoadRecords_Grows(t *testing.T) {
	s := newSession(t, 2, 2)
	recs := []grid.Record{{Col: 3, Row: 4, Value: grid.Number(1)}}
	if err := s.LoadRecords(recs); err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if s.Grid().Columns() != 4 || s.Grid().Rows() != 5 {
		t.Fatalf("grid=%dx%d, want 4x5", s.Grid().Columns(), s.Grid().Rows())
	}
	if err := s.LoadRecords(nil); err != nil {
		t.Fatalf("LoadRecords(nil): %v", err)
	}
	if s.Grid().Columns() != 4 || s.Grid().Rows() != 5 {
		t.Fatalf("grid shrank to %dx%d", s.Grid().Columns(), s.Grid().Rows())
	}
}
