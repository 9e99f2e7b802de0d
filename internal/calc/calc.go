package calc

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gridcalc/internal/grid"
)

var (
	// ErrUnrecognizedFormula means a prefix was found but its arguments
	// match neither the pair form nor the range form.
	ErrUnrecognizedFormula = errors.New("unrecognized formula")

	// ErrMisalignedRange is a range whose endpoints share neither a column
	// nor a row. It is also an ErrUnrecognizedFormula.
	ErrMisalignedRange = fmt.Errorf("misaligned range: %w", ErrUnrecognizedFormula)
)

// Func is one of the aggregate functions.
type Func int

const (
	Sum Func = iota
	Average
	Count
	Min
	Max
)

// Funcs lists every function in the order Apply tries them.
var Funcs = []Func{Sum, Average, Count, Min, Max}

var funcNames = [...]string{
	Sum:     "SUM",
	Average: "AVERAGE",
	Count:   "COUNT",
	Min:     "MIN",
	Max:     "MAX",
}

func (f Func) String() string {
	if f < 0 || int(f) >= len(funcNames) {
		return fmt.Sprintf("Func(%d)", int(f))
	}
	return funcNames[f]
}

// Prefix is the literal text that introduces f in a cell, e.g. "=SUM(".
func (f Func) Prefix() string {
	return "=" + f.String() + "("
}

// Reference is a parsed formula argument list: either two explicit cells
// (Pair) or the endpoints of a single-row or single-column range.
type Reference struct {
	From grid.Pos
	To   grid.Pos
	Pair bool
}

// Refs returns the two coordinates as written.
func (r Reference) Refs() []grid.Pos {
	return []grid.Pos{r.From, r.To}
}

// Cells lists the positions an aggregate folds over, in ascending order
// for ranges and as written for pairs.
func (r Reference) Cells() ([]grid.Pos, error) {
	if r.Pair {
		return r.Refs(), nil
	}
	switch {
	case r.From.Col == r.To.Col:
		lo, hi := minInt(r.From.Row, r.To.Row), maxInt(r.From.Row, r.To.Row)
		out := make([]grid.Pos, 0, hi-lo+1)
		for row := lo; row <= hi; row++ {
			out = append(out, grid.Pos{Col: r.From.Col, Row: row})
		}
		return out, nil
	case r.From.Row == r.To.Row:
		lo, hi := minInt(r.From.Col, r.To.Col), maxInt(r.From.Col, r.To.Col)
		out := make([]grid.Pos, 0, hi-lo+1)
		for col := lo; col <= hi; col++ {
			out = append(out, grid.Pos{Col: col, Row: r.From.Row})
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s:%s: %w", r.From, r.To, ErrMisalignedRange)
}

var argsPattern = regexp.MustCompile(`^\s*([A-Z][0-9]+)\s*([,:])\s*([A-Z][0-9]+)\s*$`)

// Parse extracts the reference following f's prefix in text. Everything
// after the first closing parenthesis is ignored.
func Parse(text string, f Func) (Reference, error) {
	prefix := f.Prefix()
	idx := strings.Index(text, prefix)
	if idx < 0 {
		return Reference{}, fmt.Errorf("%q has no %s: %w", text, prefix, ErrUnrecognizedFormula)
	}
	rest := text[idx+len(prefix):]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return Reference{}, fmt.Errorf("%q: missing ')': %w", text, ErrUnrecognizedFormula)
	}
	m := argsPattern.FindStringSubmatch(rest[:end])
	if m == nil {
		return Reference{}, fmt.Errorf("%q: bad arguments %q: %w", text, rest[:end], ErrUnrecognizedFormula)
	}
	from, ok1 := grid.ParseRef(m[1])
	to, ok2 := grid.ParseRef(m[3])
	if !ok1 || !ok2 {
		return Reference{}, fmt.Errorf("%q: bad cell reference: %w", text, ErrUnrecognizedFormula)
	}
	return Reference{From: from, To: to, Pair: m[2] == ","}, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
