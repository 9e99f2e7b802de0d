package app

import (
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

const maxPopupInput = 4096

// PopupInput shows a one-line modal prompt over the grid and blocks until
// Enter (returns the text and true) or Esc (returns "" and false).
func (a *App) PopupInput(s tcell.Screen, prompt, initial string) (string, bool) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorReset)

	promptRunes := []rune(prompt)
	buf := []rune(initial)
	pos := len(buf)

	var boxW, left, top int
	const boxH = 3
	layout := func() {
		w, h := s.Size()
		contentW := minInt(maxInt(40, len(promptRunes)+len(buf)+2), w-4)
		boxW = contentW + 4
		left = (w - boxW) / 2
		top = (h - boxH) / 2
	}

	redraw := func() {
		a.Draw(s)
		drawBox(s, left, top, boxW, boxH, style)

		x := left + 2
		y := top + 1
		for i, r := range promptRunes {
			s.SetContent(x+i, y, r, nil, style)
		}
		x += len(promptRunes) + 1

		maxField := maxInt(1, boxW-4-len(promptRunes)-1)
		start := 0
		if pos > maxField {
			start = pos - maxField
		}
		end := minInt(len(buf), start+maxField)
		for i, r := range buf[start:end] {
			s.SetContent(x+i, y, r, nil, style)
		}
		s.ShowCursor(x+pos-start, y)
		s.Show()
	}

	layout()
	redraw()

	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			// screen finalized
			return "", false
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEsc:
				s.HideCursor()
				return "", false
			case tcell.KeyEnter:
				s.HideCursor()
				return string(buf), true
			case tcell.KeyBackspace, tcell.KeyBackspace2:
				if pos > 0 {
					buf = append(buf[:pos-1], buf[pos:]...)
					pos--
				}
			case tcell.KeyDelete:
				if pos < len(buf) {
					buf = append(buf[:pos], buf[pos+1:]...)
				}
			case tcell.KeyLeft:
				if pos > 0 {
					pos--
				}
			case tcell.KeyRight:
				if pos < len(buf) {
					pos++
				}
			case tcell.KeyHome:
				pos = 0
			case tcell.KeyEnd:
				pos = len(buf)
			case tcell.KeyRune:
				if utf8.RuneCountInString(string(buf)) < maxPopupInput {
					buf = append(buf[:pos], append([]rune{ev.Rune()}, buf[pos:]...)...)
					pos++
				}
			}
			redraw()
		case *tcell.EventResize:
			s.Sync()
			layout()
			redraw()
		}
	}
}
