package calc

import (
	"errors"
	"fmt"
	"strings"

	"gridcalc/internal/grid"
)

// Sheet is the read side of a grid.
type Sheet interface {
	At(p grid.Pos) (*grid.Cell, error)
}

// Evaluate folds f over the cells ref points at.
//
// Text cells add nothing to SUM and AVERAGE but still count toward the
// AVERAGE divisor. COUNT, MIN and MAX only look at numbers; MIN and MAX
// start from the first number seen and yield 0 when there is none.
func Evaluate(s Sheet, ref Reference, f Func) (float64, error) {
	positions, err := ref.Cells()
	if err != nil {
		return 0, err
	}

	var (
		sum     float64
		numbers int
		best    float64
		seeded  bool
	)
	for _, p := range positions {
		cell, err := s.At(p)
		if err != nil {
			return 0, fmt.Errorf("reference %s: %w", p, err)
		}
		v, ok := cell.Value().Float()
		if !ok {
			continue
		}
		sum += v
		numbers++
		switch {
		case !seeded:
			best, seeded = v, true
		case f == Min && v < best:
			best = v
		case f == Max && v > best:
			best = v
		}
	}

	switch f {
	case Sum:
		return sum, nil
	case Average:
		return sum / float64(len(positions)), nil
	case Count:
		return float64(numbers), nil
	case Min, Max:
		return best, nil
	}
	return 0, fmt.Errorf("function %s: %w", f, ErrUnrecognizedFormula)
}

// Format renders an evaluation result the way it is written into a cell.
func Format(v float64) string {
	return grid.FormatNumber(v)
}

// Apply evaluates every function whose prefix occurs in text and writes
// each result into origin, so the last matching function wins. A formula
// that cannot be evaluated writes 0; its error is still returned. Apply
// reports whether any prefix matched.
func Apply(s Sheet, origin *grid.Cell, text string) (bool, error) {
	var (
		applied bool
		errs    []error
	)
	for _, f := range Funcs {
		if !strings.Contains(text, f.Prefix()) {
			continue
		}
		applied = true

		out, err := evaluateText(s, origin.Pos(), text, f)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s in %s: %w", f, origin.Pos(), err))
			out = 0
		}
		origin.SetFormula(text)
		origin.Commit(Format(out))
	}
	return applied, errors.Join(errs...)
}

func evaluateText(s Sheet, origin grid.Pos, text string, f Func) (float64, error) {
	ref, err := Parse(text, f)
	if err != nil {
		return 0, err
	}
	out, err := Evaluate(s, ref, f)
	if err != nil {
		return 0, err
	}
	// already validated by Evaluate
	positions, _ := ref.Cells()
	for _, p := range positions {
		if cell, err := s.At(p); err == nil {
			cell.AddDependent(origin)
		}
	}
	return out, nil
}
