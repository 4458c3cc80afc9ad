package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	overlayReach   = color.RGBA{R: 255, G: 200, B: 80, A: 70}
	overlayStop    = color.RGBA{R: 120, G: 200, B: 255, A: 60}
	overlayFacing  = color.RGBA{R: 255, G: 255, B: 255, A: 200}
	overlayTarget  = color.RGBA{R: 255, G: 255, B: 255, A: 70}
	overlayVel     = color.RGBA{R: 120, G: 255, B: 140, A: 180}
	overlayLabel   = color.RGBA{R: 220, G: 226, B: 232, A: 230}
	overlaySelRing = color.RGBA{R: 255, G: 255, B: 120, A: 200}
)

// rangeLineColor maps a range band onto the colour of the line joining the fighters.
func rangeLineColor(b rangeBand) color.RGBA {
	switch b {
	case rangeClose:
		return color.RGBA{R: 255, G: 80, B: 80, A: 160}
	case rangeMid:
		return color.RGBA{R: 255, G: 190, B: 60, A: 120}
	default:
		return color.RGBA{R: 140, G: 150, B: 160, A: 80}
	}
}

// drawDebugOverlay draws the combat geometry: strike reach and stand-off
// rings, facing and velocity vectors, the range line and state labels.
func (g *Game) drawDebugOverlay(screen *ebiten.Image, v arenaView) {
	t := g.match.Tuning()
	agents := g.match.Agents()

	g.drawRangeLine(screen, v, t)
	for i, a := range agents {
		x, y := v.pt(a.Pos)
		vector.StrokeCircle(screen, x, y, v.dist(strikeReach(t)), 1, overlayReach, true)
		vector.StrokeCircle(screen, x, y, v.dist(t.AgentRadius*forwardStopFactor/2), 1, overlayStop, true)
		if i == g.inspector.selected {
			vector.StrokeCircle(screen, x, y, v.dist(t.AgentRadius+4), 2, overlaySelRing, true)
		}
		g.drawFacing(screen, v, a, t)
		drawStateLabel(screen, v, a, t)
	}
}

// drawRangeLine joins the two fighters, coloured by range band, with the gap
// printed at the midpoint.
func (g *Game) drawRangeLine(screen *ebiten.Image, v arenaView, t Tuning) {
	a, b := g.match.Agent(0), g.match.Agent(1)
	d := Distance(a.Pos, b.Pos)
	ax, ay := v.pt(a.Pos)
	bx, by := v.pt(b.Pos)
	vector.StrokeLine(screen, ax, ay, bx, by, 1, rangeLineColor(rangeBandOf(t, d)), true)

	mid := a.Pos.Add(b.Pos).Scale(0.5)
	mx, my := v.pt(mid)
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(mx), float64(my)-6)
	op.PrimaryAlign = text.AlignCenter
	op.ColorScale.ScaleWithColor(overlayLabel)
	text.Draw(screen, fmt.Sprintf("%.0f", d), textFace, op)
}

// drawFacing draws the current facing solid and the target facing faint, plus
// the drift vector while knockback is active.
func (g *Game) drawFacing(screen *ebiten.Image, v arenaView, a *Agent, t Tuning) {
	x, y := v.pt(a.Pos)
	l := t.AgentRadius + 12

	fx, fy := v.pt(polar(a.Pos, a.Rot, l))
	vector.StrokeLine(screen, x, y, fx, fy, 2, overlayFacing, true)
	tx, ty := v.pt(polar(a.Pos, a.TargetRot, l))
	vector.StrokeLine(screen, x, y, tx, ty, 1, overlayTarget, true)

	if a.KnockbackTimer > 0 {
		// Velocity is tiny per tick; stretch it so the drift is visible.
		vx, vy := v.pt(a.Pos.Add(a.Velocity.Scale(4)))
		vector.StrokeLine(screen, x, y, vx, vy, 2, overlayVel, true)
	}
}

func drawStateLabel(screen *ebiten.Image, v arenaView, a *Agent, t Tuning) {
	x, y := v.pt(Vec2{X: a.Pos.X, Y: a.Pos.Y + t.AgentRadius + 4})
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.PrimaryAlign = text.AlignCenter
	op.ColorScale.ScaleWithColor(overlayLabel)
	text.Draw(screen, a.State.String(), textFace, op)
}
