package app

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"gridcalc/internal/grid"
	"gridcalc/internal/nav"
	"gridcalc/internal/session"
	"gridcalc/internal/storage"
)

type App struct {
	// layout
	LeftGutter  int
	StatusLines int
	ColWidth    int
	CellPadding int

	Session *session.Session

	// first visible row / column
	ViewRow int
	ViewCol int

	// UI state
	InputBuf    string
	Status      string
	Quit        bool
	HelpVisible bool

	mouseDown bool
}

func NewApp(sess *session.Session) *App {
	return &App{
		LeftGutter:  5,
		StatusLines: 2,
		ColWidth:    12,
		CellPadding: 1,
		Session:     sess,
	}
}

func (a *App) editing() bool {
	return a.Session.Cursor().Editing()
}

// ----------------------------- Events / Input -----------------------------

func (a *App) HandleKeyEvent(s tcell.Screen, ev *tcell.EventKey) {
	if a.HelpVisible {
		if ev.Key() == tcell.KeyEsc || (ev.Key() == tcell.KeyRune && ev.Rune() == '?') {
			a.HelpVisible = false
		}
		return
	}

	shift := ev.Modifiers()&tcell.ModShift != 0
	switch ev.Key() {
	case tcell.KeyCtrlC:
		a.Quit = true
	case tcell.KeyUp:
		a.Session.HandleKey(nav.KeyUp, shift)
	case tcell.KeyDown:
		a.Session.HandleKey(nav.KeyDown, shift)
	case tcell.KeyLeft:
		a.Session.HandleKey(nav.KeyLeft, shift)
	case tcell.KeyRight:
		a.Session.HandleKey(nav.KeyRight, shift)
	case tcell.KeyEnter:
		if a.editing() {
			a.commit()
		} else {
			a.InputBuf = a.Session.ActiveCell().Raw()
		}
		a.Session.HandleKey(nav.KeyEnter, shift)
	case tcell.KeyTab, tcell.KeyBacktab:
		if a.editing() {
			a.commit()
		}
		a.Session.HandleKey(nav.KeyTab, shift || ev.Key() == tcell.KeyBacktab)
	case tcell.KeyEsc:
		if a.editing() {
			a.Session.Cursor().Cancel()
			a.InputBuf = ""
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2, tcell.KeyDelete:
		if !a.editing() {
			// starts editing with the content cleared
			a.Session.HandleKey(nav.KeyOther, shift)
			a.InputBuf = ""
			return
		}
		if ev.Key() != tcell.KeyDelete && len(a.InputBuf) > 0 {
			runes := []rune(a.InputBuf)
			a.InputBuf = string(runes[:len(runes)-1])
		}
	case tcell.KeyRune:
		r := ev.Rune()
		if a.editing() {
			a.InputBuf += string(r)
			return
		}
		switch r {
		case ':':
			if command, ok := a.PopupInput(s, ":", ""); ok {
				a.ExecuteCommand(command)
			}
		case '?':
			a.HelpVisible = true
		default:
			// the first keystroke both starts editing and replaces the content
			a.Session.HandleKey(nav.KeyOther, shift)
			a.InputBuf = string(r)
		}
	}
}

// HandleMouseEvent treats a left click on a cell as selecting it. Motion
// with the button held and clicks on the cell being edited are ignored.
func (a *App) HandleMouseEvent(s tcell.Screen, ev *tcell.EventMouse) {
	pressed := ev.Buttons()&tcell.Button1 != 0
	held := a.mouseDown
	a.mouseDown = pressed
	if !pressed || held || a.HelpVisible {
		return
	}
	x, y := ev.Position()
	p, ok := a.CellAt(s, x, y)
	if !ok {
		return
	}
	if a.editing() {
		if p == a.Session.Cursor().Active() {
			return
		}
		a.commit()
	}
	if err := a.Session.Select(p); err != nil {
		a.Status = err.Error()
		return
	}
	a.InputBuf = a.Session.ActiveCell().Raw()
}

// commit stores the edit buffer into the active cell. An unchanged buffer
// leaves the cell alone.
func (a *App) commit() {
	text := a.InputBuf
	a.InputBuf = ""
	if text == a.Session.ActiveCell().Raw() {
		return
	}
	if err := a.Session.Commit(text); err != nil {
		a.Status = err.Error()
		return
	}
	a.Status = ""
}

// ----------------------------- Drawing -----------------------------

func (a *App) Draw(s tcell.Screen) {
	s.Clear()
	w, h := s.Size()
	g := a.Session.Grid()
	markers := a.Session.Markers()
	cur := a.Session.Cursor()

	headerStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	markedStyle := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)

	// header row: column letters
	x := a.LeftGutter
	for c := a.ViewCol; c < g.Columns() && x < w; c++ {
		style := headerStyle
		if markers.Column(c) {
			style = markedStyle
		}
		a.printTextFixedWidth(s, x, 0, pad(grid.Letter(c), a.ColWidth, grid.AlignLeft, a.CellPadding), style, a.ColWidth)
		x += a.ColWidth
	}

	// rows
	y := 1
	for r := a.ViewRow; r < g.Rows() && y < h-a.StatusLines; r++ {
		style := headerStyle
		if markers.Row(r) {
			style = markedStyle
		}
		a.printTextFixedWidth(s, 0, y, strconv.Itoa(r+1), style, a.LeftGutter-1)

		x = a.LeftGutter
		for c := a.ViewCol; c < g.Columns() && x < w; c++ {
			cell, err := g.Get(c, r)
			if err != nil {
				break
			}
			text := cell.Value().String()
			if cur.Editing() && cur.Active() == cell.Pos() {
				text = a.InputBuf
			}
			style := cellStyle(cell)
			if markers.Cell(cell.Pos()) {
				style = style.Reverse(true)
			}
			a.printTextFixedWidth(s, x, y, pad(text, a.ColWidth, cell.StyleOf(grid.StyleAlign), a.CellPadding), style, a.ColWidth)
			x += a.ColWidth
		}
		y++
	}

	// status area
	statusY := h - a.StatusLines
	if statusY < 0 {
		statusY = 0
	}
	statusStyle := tcell.StyleDefault.Background(tcell.ColorGray).Foreground(tcell.ColorWhite)
	active := a.Session.ActiveCell()
	statusLeft := fmt.Sprintf("Mode:%s  Cell:%s  Doc:%s", cur.State(), active.Pos(), a.Session.Name)
	a.printTextFixedWidth(s, 0, statusY, statusLeft, statusStyle, w)

	var line string
	switch {
	case cur.Editing():
		line = "EDIT: " + a.InputBuf
	case a.Status != "":
		line = "ERR: " + a.Status
	default:
		line = active.Raw()
	}
	a.printTextFixedWidth(s, 0, statusY+1, line, statusStyle, w)

	if a.HelpVisible {
		help := "\n arrows - move \n Enter - edit / commit and move down \n Shift+Enter - commit and move up \n Tab / Shift+Tab - commit and move right / left \n Esc - cancel edit \n click - select and edit \n =SUM( =AVERAGE( =COUNT( =MIN( =MAX( with A1:C1 or A1,B1 \n :w file [csv] | :o file [csv] | :name NAME \n :bold :italic :strike :bg #hex :fg #hex :size N :font NAME \n :q - quit \n "
		a.drawHelpPopup(s, help)
	}

	if cur.Editing() {
		a.showEditCursor(s)
	} else {
		s.HideCursor()
	}
	s.Show()
}

func (a *App) showEditCursor(s tcell.Screen) {
	p := a.Session.Cursor().Active()
	x, y, ok := a.cellOrigin(s, p)
	if !ok {
		s.HideCursor()
		return
	}
	offset := minInt(runewidth.StringWidth(a.InputBuf), maxInt(0, a.ColWidth-2*a.CellPadding-1))
	s.ShowCursor(x+a.CellPadding+offset, y)
}

// cellStyle turns stored style attributes into a terminal style.
func cellStyle(cell *grid.Cell) tcell.Style {
	st := tcell.StyleDefault
	if bg := cell.StyleOf(grid.StyleBackground); bg != "" {
		st = st.Background(tcell.GetColor(bg))
	}
	if fg := cell.StyleOf(grid.StyleColor); fg != "" {
		st = st.Foreground(tcell.GetColor(fg))
	}
	if cell.StyleOf(grid.StyleFontWeight) == "bold" {
		st = st.Bold(true)
	}
	if cell.StyleOf(grid.StyleFontStyle) == "italic" {
		st = st.Italic(true)
	}
	if cell.StyleOf(grid.StyleTextDecoration) == "line-through" {
		st = st.StrikeThrough(true)
	}
	return st
}

// pad fits text into a column of the given width, honoring alignment.
func pad(text string, width int, align string, padding int) string {
	inner := width - 2*padding
	if inner <= 0 {
		return runewidth.Truncate(text, width, "")
	}
	text = runewidth.Truncate(text, inner, "…")
	if align == grid.AlignRight {
		text = runewidth.FillLeft(text, inner)
	} else {
		text = runewidth.FillRight(text, inner)
	}
	side := strings.Repeat(" ", padding)
	return side + text + side
}

// ----------------------------- Helpers -----------------------------

func (a *App) printTextFixedWidth(s tcell.Screen, x, y int, str string, style tcell.Style, width int) {
	col := 0
	for _, ch := range str {
		rw := runewidth.RuneWidth(ch)
		if col+rw > width {
			break
		}
		if x+col >= 0 && y >= 0 {
			s.SetContent(x+col, y, ch, nil, style)
		}
		col += rw
	}
	for ; col < width; col++ {
		if x+col >= 0 && y >= 0 {
			s.SetContent(x+col, y, ' ', nil, style)
		}
	}
}

func (a *App) drawHelpPopup(s tcell.Screen, help string) {
	w, h := s.Size()
	if w < 10 || h < 5 {
		return
	}

	padding := 2
	maxPW := w - 4
	maxPH := h - 4

	innerW := minInt(maxPW-padding*2, 64)
	if innerW < 20 {
		return
	}

	lines := wrapText(help, innerW)
	if len(lines) > maxPH-padding*2 {
		lines = lines[:maxInt(0, maxPH-padding*2)]
	}
	innerH := maxInt(len(lines), 3)

	pw := innerW + padding*2
	ph := innerH + padding*2
	left := (w - pw) / 2
	top := (h - ph) / 2

	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDefault)
	drawBox(s, left, top, pw, ph, style)
	for i, ln := range lines {
		a.printTextFixedWidth(s, left+padding, top+padding+i, ln, style, innerW)
	}
}

// drawBox clears a rectangle and draws a single-line border around it.
func drawBox(s tcell.Screen, left, top, w, h int, style tcell.Style) {
	for y := top; y < top+h; y++ {
		for x := left; x < left+w; x++ {
			s.SetContent(x, y, ' ', nil, style)
		}
	}
	for x := left; x < left+w; x++ {
		s.SetContent(x, top, tcell.RuneHLine, nil, style)
		s.SetContent(x, top+h-1, tcell.RuneHLine, nil, style)
	}
	for y := top; y < top+h; y++ {
		s.SetContent(left, y, tcell.RuneVLine, nil, style)
		s.SetContent(left+w-1, y, tcell.RuneVLine, nil, style)
	}
	s.SetContent(left, top, tcell.RuneULCorner, nil, style)
	s.SetContent(left+w-1, top, tcell.RuneURCorner, nil, style)
	s.SetContent(left, top+h-1, tcell.RuneLLCorner, nil, style)
	s.SetContent(left+w-1, top+h-1, tcell.RuneLRCorner, nil, style)
}

func wrapText(s string, max int) []string {
	if max <= 2 {
		return []string{s}
	}
	var result []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			result = append(result, "")
			continue
		}
		cur := ""
		for _, w := range words {
			switch {
			case cur == "":
				cur = w
			case runewidth.StringWidth(cur)+1+runewidth.StringWidth(w) <= max:
				cur += " " + w
			default:
				result = append(result, cur)
				cur = w
			}
		}
		result = append(result, cur)
	}
	return result
}

// ----------------------------- Commands / Storage -----------------------------

func (a *App) ExecuteCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}
	a.Status = ""
	var err error
	switch parts[0] {
	case "q", "quit":
		a.Quit = true
	case "w":
		if len(parts) < 2 {
			err = fmt.Errorf("usage: w FILE [csv]")
			break
		}
		filename := parts[1]
		if isCSV(parts) {
			if filepath.Ext(filename) != ".csv" {
				filename += ".csv"
			}
			err = storage.SaveCSV(a.Session.Grid(), filename)
		} else {
			err = storage.SaveDocument(a.Session.Snapshot(), filename)
		}
	case "o":
		if len(parts) < 2 {
			err = fmt.Errorf("usage: o FILE [csv]")
			break
		}
		err = a.Open(parts[1], isCSV(parts))
	case "name":
		if len(parts) < 2 {
			err = fmt.Errorf("usage: name NAME")
			break
		}
		a.Session.Name = strings.Join(parts[1:], " ")
	case "bold":
		a.Session.ToggleBold()
	case "italic":
		a.Session.ToggleItalic()
	case "strike":
		a.Session.ToggleStrikethrough()
	case "bg", "fg":
		if len(parts) < 2 {
			err = fmt.Errorf("usage: %s COLOR", parts[0])
			break
		}
		if parts[0] == "bg" {
			err = a.Session.SetBackgroundColor(parts[1])
		} else {
			err = a.Session.SetTextColor(parts[1])
		}
	case "size":
		if len(parts) < 2 {
			err = fmt.Errorf("usage: size PX")
			break
		}
		px, perr := strconv.Atoi(parts[1])
		if perr != nil {
			err = fmt.Errorf("size %q: %w", parts[1], perr)
			break
		}
		err = a.Session.SetFontSize(px)
	case "font":
		err = a.Session.SetFontFamily(strings.Join(parts[1:], " "))
	default:
		err = fmt.Errorf("unknown command %q", parts[0])
	}
	if err != nil {
		a.Status = err.Error()
	}
}

// Open loads a document or CSV file into the session and scrolls home.
func (a *App) Open(filename string, csv bool) error {
	if csv {
		if filepath.Ext(filename) != ".csv" {
			filename += ".csv"
		}
		recs, _, _, err := storage.LoadCSV(filename)
		if err != nil {
			return err
		}
		if err := a.Session.LoadRecords(recs); err != nil {
			return err
		}
	} else {
		doc, err := storage.LoadDocument(filename)
		if err != nil {
			return err
		}
		if err := a.Session.Load(doc); err != nil {
			return err
		}
	}
	a.InputBuf = ""
	a.ViewRow = 0
	a.ViewCol = 0
	return nil
}

// a file is CSV when asked for explicitly or when named *.csv
func isCSV(parts []string) bool {
	return (len(parts) >= 3 && parts[2] == "csv") || filepath.Ext(parts[1]) == ".csv"
}

// ----------------------------- Viewport / Geometry -----------------------------

func (a *App) ComputeVisible(s tcell.Screen) (visibleRows, visibleCols int) {
	w, h := s.Size()
	usableW := maxInt(1, w-a.LeftGutter)
	usableH := maxInt(1, h-a.StatusLines-1)
	return usableH, maxInt(1, usableW/a.ColWidth)
}

func (a *App) EnsureCursorVisible(s tcell.Screen) {
	if s == nil {
		return
	}
	visibleRows, visibleCols := a.ComputeVisible(s)
	p := a.Session.Cursor().Active()

	if p.Col < a.ViewCol {
		a.ViewCol = p.Col
	} else if p.Col >= a.ViewCol+visibleCols {
		a.ViewCol = p.Col - visibleCols + 1
	}
	if p.Row < a.ViewRow {
		a.ViewRow = p.Row
	} else if p.Row >= a.ViewRow+visibleRows {
		a.ViewRow = p.Row - visibleRows + 1
	}
}

// cellOrigin is the screen position of p's left edge, if p is on screen.
func (a *App) cellOrigin(s tcell.Screen, p grid.Pos) (int, int, bool) {
	visibleRows, visibleCols := a.ComputeVisible(s)
	if p.Col < a.ViewCol || p.Col >= a.ViewCol+visibleCols || p.Row < a.ViewRow || p.Row >= a.ViewRow+visibleRows {
		return 0, 0, false
	}
	return a.LeftGutter + (p.Col-a.ViewCol)*a.ColWidth, 1 + p.Row - a.ViewRow, true
}

// CellAt maps a screen position to the cell drawn there.
func (a *App) CellAt(s tcell.Screen, x, y int) (grid.Pos, bool) {
	visibleRows, _ := a.ComputeVisible(s)
	if x < a.LeftGutter || y < 1 || y > visibleRows {
		return grid.Pos{}, false
	}
	p := grid.Pos{Col: a.ViewCol + (x-a.LeftGutter)/a.ColWidth, Row: a.ViewRow + y - 1}
	if !a.Session.Grid().Contains(p) {
		return grid.Pos{}, false
	}
	return p, true
}

// ----------------------------- Misc -----------------------------

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
