package grid

import (
	"errors"
	"reflect"
	"testing"
)

func mustGrid(t *testing.T, cols, rows int) *Grid {
	t.Helper()
	g, err := New(cols, rows)
	if err != nil {
		t.Fatalf("New(%d,%d): %v", cols, rows, err)
	}
	return g
}

func TestNew_RejectsBadDimensions(t *testing.T) {
	for _, tc := range []struct{ cols, rows int }{
		{0, 5}, {5, 0}, {-1, 3}, {27, 10},
	} {
		if _, err := New(tc.cols, tc.rows); err == nil {
			t.Fatalf("New(%d,%d) err=nil, want error", tc.cols, tc.rows)
		}
	}
	if _, err := New(MaxColumns, 1); err != nil {
		t.Fatalf("New(%d,1): %v", MaxColumns, err)
	}
}

func TestGrid_Get_CoordinatesMatch(t *testing.T) {
	g := mustGrid(t, 4, 3)
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Columns(); c++ {
			cell, err := g.Get(c, r)
			if err != nil {
				t.Fatalf("Get(%d,%d): %v", c, r, err)
			}
			if cell.Column() != c || cell.Row() != r {
				t.Fatalf("Get(%d,%d) returned cell at (%d,%d)", c, r, cell.Column(), cell.Row())
			}
		}
	}
}

func TestGrid_Get_OutOfBounds(t *testing.T) {
	g := mustGrid(t, 4, 3)
	for _, p := range []Pos{{-1, 0}, {0, -1}, {4, 0}, {0, 3}, {4, 3}} {
		if _, err := g.Get(p.Col, p.Row); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("Get(%d,%d) err=%v, want ErrOutOfBounds", p.Col, p.Row, err)
		}
		if err := g.Set(p.Col, p.Row, State{}); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("Set(%d,%d) err=%v, want ErrOutOfBounds", p.Col, p.Row, err)
		}
	}
}

func TestGrid_Set_ReplacesState(t *testing.T) {
	g := mustGrid(t, 2, 2)
	style := Style{StyleColor: "#ff0000"}
	if err := g.Set(1, 1, State{Value: Number(7), Formula: "=SUM(A1,A2)", Style: style}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	style[StyleColor] = "#000000"

	cell, _ := g.Get(1, 1)
	if got := cell.Value(); got != Number(7) {
		t.Fatalf("value=%v, want 7", got)
	}
	if got := cell.Formula(); got != "=SUM(A1,A2)" {
		t.Fatalf("formula=%q", got)
	}
	if got := cell.StyleOf(StyleColor); got != "#ff0000" {
		t.Fatalf("color=%q, want #ff0000 (Set must copy the style)", got)
	}
}

func TestGrid_Serialize_RowMajor(t *testing.T) {
	g := mustGrid(t, 3, 2)
	recs := g.Serialize()
	if len(recs) != 6 {
		t.Fatalf("len=%d, want 6", len(recs))
	}
	want := []Pos{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}}
	for i, rec := range recs {
		if (Pos{rec.Col, rec.Row}) != want[i] {
			t.Fatalf("record %d at (%d,%d), want %v", i, rec.Col, rec.Row, want[i])
		}
	}
}

func TestGrid_RebuildSerialize_RoundTrip(t *testing.T) {
	g := mustGrid(t, 3, 3)
	a1, _ := g.Get(0, 0)
	a1.Commit("3")
	b2, _ := g.Get(1, 1)
	b2.Commit("hello")
	b2.ApplyStyle(Style{StyleFontWeight: "bold"})
	c3, _ := g.Get(2, 2)
	c3.SetFormula("=SUM(A1:A2)")
	c3.Commit("3")

	before := g.Serialize()

	other := mustGrid(t, 3, 3)
	if err := other.Rebuild(before); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if after := other.Serialize(); !reflect.DeepEqual(before, after) {
		t.Fatalf("round trip mismatch:\n before=%+v\n after=%+v", before, after)
	}
}

func TestGrid_Rebuild_ClearsMissingCells(t *testing.T) {
	g := mustGrid(t, 2, 2)
	a1, _ := g.Get(0, 0)
	a1.Commit("5")
	if err := g.Rebuild([]Record{{Col: 1, Row: 1, Value: Text("x")}}); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	a1, _ = g.Get(0, 0)
	if got := a1.Value(); got != Text("") {
		t.Fatalf("A1=%v, want empty", got)
	}
	b2, _ := g.Get(1, 1)
	if got := b2.Value(); got != Text("x") {
		t.Fatalf("B2=%v, want x", got)
	}
}

func TestGrid_Rebuild_RejectsOutOfBoundsRecord(t *testing.T) {
	g := mustGrid(t, 2, 2)
	a1, _ := g.Get(0, 0)
	a1.Commit("5")
	err := g.Rebuild([]Record{{Col: 0, Row: 0}, {Col: 2, Row: 0}})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("err=%v, want ErrOutOfBounds", err)
	}
	a1, _ = g.Get(0, 0)
	if got := a1.Value(); got != Number(5) {
		t.Fatalf("A1=%v, want 5 (grid must be untouched)", got)
	}
}

func TestLetter(t *testing.T) {
	cases := map[int]string{0: "A", 1: "B", 25: "Z", 26: "?", -1: "?"}
	for col, want := range cases {
		if got := Letter(col); got != want {
			t.Fatalf("Letter(%d)=%q, want %q", col, got, want)
		}
	}
}

func TestParseRef(t *testing.T) {
	cases := []struct {
		in   string
		want Pos
		ok   bool
	}{
		{"A1", Pos{0, 0}, true},
		{"D12", Pos{3, 11}, true},
		{"Z100", Pos{25, 99}, true},
		{"A0", Pos{0, -1}, true},
		{"a1", Pos{}, false},
		{"AA1", Pos{}, false},
		{"A", Pos{}, false},
		{"1A", Pos{}, false},
		{"A1 ", Pos{}, false},
		{"", Pos{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseRef(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("ParseRef(%q)=(%v,%v), want (%v,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPos_Name(t *testing.T) {
	if got := (Pos{Col: 3, Row: 0}).Name(); got != "D1" {
		t.Fatalf("Name=%q, want D1", got)
	}
}
