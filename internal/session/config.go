package session

import (
	"fmt"

	"gridcalc/internal/grid"
)

// Config sizes a new session.
type Config struct {
	Rows    int
	Columns int
	Name    string
}

// DefaultConfig is a 26 column, 100 row sheet.
func DefaultConfig() Config {
	return Config{
		Rows:    100,
		Columns: grid.MaxColumns,
		Name:    "untitled",
	}
}

func (c Config) Validate() error {
	if c.Rows <= 0 {
		return fmt.Errorf("config: rows must be positive, got %d", c.Rows)
	}
	if c.Columns <= 0 || c.Columns > grid.MaxColumns {
		return fmt.Errorf("config: columns must be in 1..%d, got %d", grid.MaxColumns, c.Columns)
	}
	return nil
}
