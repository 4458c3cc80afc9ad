// Package term draws a match in a terminal with tcell.
package term

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/Garsondee/Duel-Sense/internal/game"
)

const (
	statusLines = 2
	sidebarGap  = 2
	minCols     = 20
)

var (
	borderStyle  = tcell.StyleDefault.Foreground(tcell.NewRGBColor(0xec, 0xf0, 0xf1))
	dividerStyle = tcell.StyleDefault.Foreground(tcell.NewRGBColor(0x5d, 0x6d, 0x7e))
	limbStyle    = tcell.StyleDefault.Foreground(tcell.NewRGBColor(0xbe, 0x00, 0x00))
	activeStyle  = tcell.StyleDefault.Foreground(tcell.NewRGBColor(0xff, 0x44, 0x44)).Bold(true)
	textStyle    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	dimStyle     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	bannerStyle  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite).Bold(true)
)

// grid maps arena coordinates onto terminal cells. Cells are roughly twice
// as tall as they are wide, so the arena gets twice as many columns as rows.
type grid struct {
	cols, rows   int
	cellW, cellH float64 // arena units per cell
}

func fitGrid(w, h int, arena float64) grid {
	rows := h - 2 - statusLines
	cols := w - 2
	if cols > rows*2 {
		cols = rows * 2
	} else {
		rows = cols / 2
	}
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	return grid{cols: cols, rows: rows, cellW: arena / float64(cols), cellH: arena / float64(rows)}
}

// cell returns the screen cell of an arena point, inside the border.
func (g grid) cell(p game.Vec2) (int, int) {
	x := int(p.X / g.cellW)
	y := int(p.Y / g.cellH)
	x = max(0, min(g.cols-1, x))
	y = max(0, min(g.rows-1, y))
	return x + 1, y + 1
}

// centre returns the arena point at the middle of screen cell (x, y).
func (g grid) centre(x, y int) game.Vec2 {
	return game.Vec2{X: (float64(x-1) + 0.5) * g.cellW, Y: (float64(y-1) + 0.5) * g.cellH}
}

// Renderer draws snapshots onto a tcell screen.
type Renderer struct {
	screen tcell.Screen
}

// NewRenderer wraps an initialised screen.
func NewRenderer(s tcell.Screen) *Renderer {
	return &Renderer{screen: s}
}

// Frame is everything drawn in one pass.
type Frame struct {
	Snap       game.MatchSnapshot
	Indicators []game.DamageIndicator
	Log        []game.CombatLogEntry
	Paused     bool
}

// Draw renders f and shows it.
func (r *Renderer) Draw(f Frame) {
	s := r.screen
	s.Clear()
	w, h := s.Size()
	if w < minCols || h < 2+statusLines+2 {
		r.text(0, 0, "terminal too small", textStyle)
		s.Show()
		return
	}
	g := fitGrid(w, h, f.Snap.ArenaSize)

	r.drawBorder(g)
	for _, a := range f.Snap.Agents {
		r.drawBody(g, a)
	}
	for _, a := range f.Snap.Agents {
		r.drawLimbs(g, a)
	}
	for _, d := range f.Indicators {
		x, y := g.cell(d.Pos)
		r.text(x, y, d.Text, activeStyle)
	}
	r.drawStatus(g, f)
	r.drawLog(g, w, f.Log)
	if f.Snap.Outcome != game.OutcomeInProgress {
		msg := " DOUBLE KO "
		if f.Snap.Winner != "" {
			msg = " KO! " + f.Snap.Winner + " wins "
		}
		r.text(1+(g.cols-len(msg))/2, 1+g.rows/2, msg, bannerStyle)
	}
	s.Show()
}

func (r *Renderer) drawBorder(g grid) {
	s := r.screen
	right, bottom := g.cols+1, g.rows+1
	for x := 1; x < right; x++ {
		s.SetContent(x, 0, tcell.RuneHLine, nil, borderStyle)
		s.SetContent(x, bottom, tcell.RuneHLine, nil, borderStyle)
	}
	for y := 1; y < bottom; y++ {
		s.SetContent(0, y, tcell.RuneVLine, nil, borderStyle)
		s.SetContent(right, y, tcell.RuneVLine, nil, borderStyle)
	}
	s.SetContent(0, 0, tcell.RuneULCorner, nil, borderStyle)
	s.SetContent(right, 0, tcell.RuneURCorner, nil, borderStyle)
	s.SetContent(0, bottom, tcell.RuneLLCorner, nil, borderStyle)
	s.SetContent(right, bottom, tcell.RuneLRCorner, nil, borderStyle)

	mid := 1 + g.cols/2
	for y := 1; y < bottom; y++ {
		s.SetContent(mid, y, '┆', nil, dividerStyle)
	}
}

func (r *Renderer) drawBody(g grid, a game.AgentSnapshot) {
	style := tcell.StyleDefault.Foreground(rgb(a.Fill))
	x0, y0 := g.cell(game.Vec2{X: a.Pos.X - a.Radius, Y: a.Pos.Y - a.Radius})
	x1, y1 := g.cell(game.Vec2{X: a.Pos.X + a.Radius, Y: a.Pos.Y + a.Radius})
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if game.Distance(g.centre(x, y), a.Pos) <= a.Radius {
				r.screen.SetContent(x, y, '█', nil, style)
			}
		}
	}
}

// drawLimbs plots each limb segment and marks its tip; an attacking limb
// gets a bold tip.
func (r *Renderer) drawLimbs(g grid, a game.AgentSnapshot) {
	for _, l := range a.Limbs {
		steps := int(game.Distance(l.Origin, l.Tip)/min(g.cellW, g.cellH)) + 1
		for i := 1; i < steps; i++ {
			t := float64(i) / float64(steps)
			p := game.Vec2{X: game.Lerp(l.Origin.X, l.Tip.X, t), Y: game.Lerp(l.Origin.Y, l.Tip.Y, t)}
			if game.Distance(p, a.Pos) <= a.Radius {
				continue
			}
			x, y := g.cell(p)
			r.screen.SetContent(x, y, '·', nil, limbStyle)
		}
		x, y := g.cell(l.Tip)
		if l.Active {
			r.screen.SetContent(x, y, 'O', nil, activeStyle)
		} else {
			r.screen.SetContent(x, y, 'o', nil, limbStyle)
		}
	}
}

func (r *Renderer) drawStatus(g grid, f Frame) {
	y := g.rows + 2
	for i, a := range f.Snap.Agents {
		bar := healthBar(a.HPFraction(), 10)
		line := fmt.Sprintf("%-7s [%s] %3.0f  %s", a.Name, bar, a.HP, a.State)
		r.text(0, y+i, line, tcell.StyleDefault.Foreground(rgb(a.HPColor)))
	}
	info := fmt.Sprintf("round %d  T=%d", f.Snap.Round, f.Snap.Tick)
	if f.Paused {
		info += "  PAUSED"
	}
	r.text(g.cols+2-len(info), y, info, dimStyle)
	r.text(g.cols+2-len("q quit p pause r restart"), y+1, "q quit p pause r restart", dimStyle)
}

func (r *Renderer) drawLog(g grid, w int, entries []game.CombatLogEntry) {
	x := g.cols + 2 + sidebarGap
	width := w - x
	if width < 10 {
		return
	}
	maxLines := g.rows + 2
	if len(entries) > maxLines {
		entries = entries[len(entries)-maxLines:]
	}
	for i, e := range entries {
		line := e.Message
		if len(line) > width {
			line = line[:width]
		}
		r.text(x, i, line, tcell.StyleDefault.Foreground(rgb(e.Color)))
	}
}

func (r *Renderer) text(x, y int, s string, style tcell.Style) {
	for _, c := range s {
		r.screen.SetContent(x, y, c, nil, style)
		x++
	}
}

func healthBar(frac float64, width int) string {
	n := int(frac*float64(width) + 0.5)
	n = max(0, min(width, n))
	return strings.Repeat("#", n) + strings.Repeat(" ", width-n)
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
