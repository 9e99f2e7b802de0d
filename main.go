package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"gridcalc/internal/app"
	"gridcalc/internal/session"
)

func main() {
	if err := newRootCmd(run).Execute(); err != nil {
		os.Exit(1)
	}
}

// runFunc starts the editor with the parsed configuration.
type runFunc func(cfg session.Config, open, logPath string) error

func newRootCmd(start runFunc) *cobra.Command {
	cfg := session.DefaultConfig()
	var open, logPath string

	cmd := &cobra.Command{
		Use:   "gridcalc",
		Short: "Terminal spreadsheet",
		Long: `Edit a grid of cells in the terminal.

Formulas:
  =SUM(A1:C1)  =AVERAGE(A1,B1)  =COUNT(..)  =MIN(..)  =MAX(..)

Examples:
  gridcalc --rows 200 --name budget
  gridcalc --open budget.json --log gridcalc.log
  gridcalc --open export.csv`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return start(cfg, open, logPath)
		},
	}
	cmd.Flags().IntVar(&cfg.Rows, "rows", cfg.Rows, "number of rows")
	cmd.Flags().IntVar(&cfg.Columns, "cols", cfg.Columns, "number of columns (at most 26)")
	cmd.Flags().StringVar(&cfg.Name, "name", cfg.Name, "document name")
	cmd.Flags().StringVar(&open, "open", "", "document (.json) or .csv file to open")
	cmd.Flags().StringVar(&logPath, "log", "", "write formula and storage errors to this file")
	return cmd
}

func run(cfg session.Config, open, logPath string) error {
	logOut := io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("cannot open log: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := log.New(logOut, "gridcalc: ", log.LstdFlags)

	sess, err := session.New(cfg, logger)
	if err != nil {
		return err
	}
	a := app.NewApp(sess)
	if open != "" {
		if err := a.Open(open, filepath.Ext(open) == ".csv"); err != nil {
			return fmt.Errorf("cannot open %s: %w", open, err)
		}
	}

	s, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("cannot create screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return fmt.Errorf("cannot init screen: %w", err)
	}
	defer s.Fini()

	s.EnableMouse()
	s.Clear()

	for !a.Quit {
		a.EnsureCursorVisible(s)
		a.Draw(s)
		switch ev := s.PollEvent().(type) {
		case *tcell.EventKey:
			a.HandleKeyEvent(s, ev)
		case *tcell.EventMouse:
			a.HandleMouseEvent(s, ev)
		case *tcell.EventResize:
			s.Sync()
		case nil:
			return nil
		}
	}
	return nil
}
