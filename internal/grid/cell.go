package grid

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Style attribute names. They match the keys stored in saved documents.
const (
	StyleAlign          = "textAlign"
	StyleBackground     = "backgroundColor"
	StyleColor          = "color"
	StyleFontSize       = "fontSize"
	StyleFontFamily     = "fontFamily"
	StyleFontWeight     = "fontWeight"
	StyleFontStyle      = "fontStyle"
	StyleTextDecoration = "textDecoration"
)

const (
	AlignLeft  = "left"
	AlignRight = "right"
)

// Style maps attribute names to values. The core only ever writes StyleAlign.
type Style map[string]string

func (s Style) Clone() Style {
	if s == nil {
		return nil
	}
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Value is either a number or a text, never both.
type Value struct {
	num    float64
	text   string
	number bool
}

func Number(f float64) Value { return Value{num: f, number: true} }
func Text(s string) Value    { return Value{text: s} }

func (v Value) IsNumber() bool { return v.number }

// Float returns the numeric content; ok is false for text.
func (v Value) Float() (f float64, ok bool) {
	if !v.number {
		return 0, false
	}
	return v.num, true
}

func (v Value) String() string {
	if v.number {
		return FormatNumber(v.num)
	}
	return v.text
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.number {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.text)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = Text("")
	case float64:
		*v = Number(t)
	case string:
		*v = Text(t)
	default:
		return fmt.Errorf("cell value %s: want number or string", string(data))
	}
	return nil
}

// FormatNumber renders integral values without a fraction and trims
// trailing zeros otherwise.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%.0f", f)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Classify decides how committed text is stored. A finite, non-zero number
// is stored as Number and aligned right; everything else, including "0" and
// the empty string, is stored as Text and aligned left.
func Classify(raw string) (Value, string) {
	f, ok := parseNumber(strings.TrimSpace(raw))
	if ok && f != 0 && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Number(f), AlignRight
	}
	return Text(raw), AlignLeft
}

// parseNumber accepts decimal literals with an optional sign and exponent,
// and unsigned 0x, 0o and 0b integers. Digit separators and hex floats are
// not numbers.
func parseNumber(s string) (float64, bool) {
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			if strings.Contains(s, "_") {
				return 0, false
			}
			n, err := strconv.ParseUint(s, 0, 64)
			return float64(n), err == nil
		}
	}
	if strings.ContainsAny(s, "_xXpP") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// Cell is a single grid entry. Its coordinates never change.
type Cell struct {
	col int
	row int

	value       Value
	formula     string
	usedFormula bool

	dependents map[Pos]struct{}
	style      Style
}

func NewCell(col, row int) *Cell {
	return &Cell{col: col, row: row}
}

func (c *Cell) Column() int     { return c.col }
func (c *Cell) Row() int        { return c.row }
func (c *Cell) Pos() Pos        { return Pos{Col: c.col, Row: c.row} }
func (c *Cell) Value() Value    { return c.value }
func (c *Cell) Formula() string { return c.formula }

// Style returns a copy of the cell's style attributes.
func (c *Cell) Style() Style { return c.style.Clone() }

func (c *Cell) StyleOf(key string) string { return c.style[key] }

// Raw is the text an editor should start from: the formula if one is
// attached, otherwise the displayed value.
func (c *Cell) Raw() string {
	if c.formula != "" {
		return c.formula
	}
	return c.value.String()
}

// Commit classifies raw text into the cell. A formula attached by
// SetFormula right before survives exactly one commit.
func (c *Cell) Commit(raw string) {
	v, align := Classify(raw)
	c.value = v
	c.ApplyStyle(Style{StyleAlign: align})
	if !c.usedFormula {
		c.formula = ""
	}
	c.usedFormula = false
}

// SetFormula attaches formula text to be kept by the next Commit.
func (c *Cell) SetFormula(text string) {
	c.formula = text
	c.usedFormula = true
}

// ApplyStyle merges patch into the cell's style attributes.
func (c *Cell) ApplyStyle(patch Style) {
	if len(patch) == 0 {
		return
	}
	if c.style == nil {
		c.style = make(Style, len(patch))
	}
	for k, v := range patch {
		c.style[k] = v
	}
}

// AddDependent records that the cell at p referenced c in a formula.
// It reports false when p was already recorded.
func (c *Cell) AddDependent(p Pos) bool {
	if c.dependents == nil {
		c.dependents = map[Pos]struct{}{}
	}
	if _, ok := c.dependents[p]; ok {
		return false
	}
	c.dependents[p] = struct{}{}
	return true
}

// Dependents lists recorded dependents in row-major order.
func (c *Cell) Dependents() []Pos {
	out := make([]Pos, 0, len(c.dependents))
	for p := range c.dependents {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Pos) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Col - b.Col
	})
	return out
}

func (c *Cell) Record() Record {
	return Record{
		Col:     c.col,
		Row:     c.row,
		Value:   c.value,
		Formula: c.formula,
		Style:   c.style.Clone(),
	}
}
