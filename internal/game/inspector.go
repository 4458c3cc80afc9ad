package game

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Inspector panel, rendered into an offscreen buffer at 1x then blitted at inspScale.
const (
	inspScale = 2   // scale factor for inspector text rendering
	inspBufW  = 170 // buffer width in pixels (~28 chars at debug font)
	inspBufH  = 290 // buffer height in pixels
	inspPad   = 4   // padding in buffer-space pixels
	inspLineH = 13  // line height in buffer-space pixels

	inspPickSlack = 6.0 // screen pixels beyond the body that still select it
)

// Inspector holds the selected agent and view toggle state.
type Inspector struct {
	selected int  // agent index, -1 = none
	rawView  bool // false = curated, true = raw dump
}

func newInspector() Inspector { return Inspector{selected: -1} }

// pickAgent returns the index of the agent closest to p within radius, or -1.
func pickAgent(agents []*Agent, p Vec2, radius float64) int {
	best := -1
	bestD := radius
	for i, a := range agents {
		if d := Distance(a.Pos, p); d <= bestD {
			best = i
			bestD = d
		}
	}
	return best
}

// handleInspectorClick selects the agent under a screen click. A click on
// empty floor clears the selection. Returns true if an agent was hit.
func (g *Game) handleInspectorClick(mx, my int) bool {
	v := g.view()
	world := Vec2{
		X: (float64(mx) - float64(v.offX)) / float64(v.scale),
		Y: (float64(my) - float64(v.offY)) / float64(v.scale),
	}
	radius := g.match.Tuning().AgentRadius + inspPickSlack/g.scale
	g.inspector.selected = pickAgent(g.match.Agents(), world, radius)
	return g.inspector.selected >= 0
}

// drawInspector renders the inspector panel into an offscreen buffer at 1x,
// then blits it onto the arena's top-right corner.
func (g *Game) drawInspector(screen *ebiten.Image) {
	i := g.inspector.selected
	if i < 0 {
		return
	}
	a := g.match.Agent(i)

	g.inspBuf.Clear()
	buf := g.inspBuf
	bw := float32(inspBufW)
	bh := float32(inspBufH)

	panelBg := color.RGBA{R: 14, G: 16, B: 22, A: 230}
	panelBorder := color.RGBA{R: 70, G: 80, B: 110, A: 255}
	vector.FillRect(buf, 0, 0, bw, bh, panelBg, false)
	vector.StrokeRect(buf, 0, 0, bw, bh, 1.0, panelBorder, false)
	// Swatch in the agent's colour along the top edge.
	vector.FillRect(buf, 1, 1, bw-2, 2, a.Color, false)

	lx := inspPad
	ly := inspPad + 2

	ebitenutil.DebugPrintAt(buf, fmt.Sprintf("[ %s ]", a.Name), lx, ly)
	ly += inspLineH

	viewName := "CURATED"
	if g.inspector.rawView {
		viewName = "RAW"
	}
	ebitenutil.DebugPrintAt(buf, fmt.Sprintf("view: %s  [I]", viewName), lx, ly)
	ly += inspLineH + 3

	vector.StrokeLine(buf, float32(lx), float32(ly), bw-float32(inspPad), float32(ly), 1.0, panelBorder, false)
	ly += 3

	if g.inspector.rawView {
		g.drawInspectorRaw(buf, a, lx, ly)
	} else {
		g.drawInspectorCurated(buf, i, lx, ly)
	}

	// Shrink below inspScale when the arena is too short for the panel.
	sc := math.Min(inspScale, float64(g.arenaPx-16)/inspBufH)
	px := float64(g.offX+g.arenaPx-8) - inspBufW*sc
	py := float64(g.offY + 8)
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(sc, sc)
	opts.GeoM.Translate(px, py)
	screen.DrawImage(buf, opts)
}

// liveGrade grades agent i on everything observed since the window opened.
func (g *Game) liveGrade(i int) AgentGrade {
	pt := g.perf[i]
	pt.Finalize(g.match)
	return computeGrade(pt)
}

// inspectorBar renders v in [0,1] as a fixed-width text gauge.
func inspectorBar(v float64) string {
	const width = 10
	filled := int(Clamp(v, 0, 1)*width + 0.5)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// drawInspectorCurated draws the organised, human-readable inspector view.
func (g *Game) drawInspectorCurated(buf *ebiten.Image, i, lx, ly int) {
	a := g.match.Agent(i)
	opp := g.match.Opponent(a)
	st := a.Stats()

	line := func(text string) {
		ebitenutil.DebugPrintAt(buf, text, lx, ly)
		ly += inspLineH
	}
	section := func(title string) {
		ly += 2
		ebitenutil.DebugPrintAt(buf, "-- "+title+" --", lx, ly)
		ly += inspLineH
	}
	score := func(label string, v float64) {
		if v < 0 {
			line(fmt.Sprintf("%-5s   n/a", label))
			return
		}
		line(fmt.Sprintf("%-5s %s %3.0f", label, inspectorBar(v/100), v))
	}

	section("STATE")
	line(a.State.String())
	hpFrac := 0.0
	if a.MaxHP > 0 {
		hpFrac = a.HP / a.MaxHP
	}
	line(fmt.Sprintf("hp %s %.0f", inspectorBar(hpFrac), a.HP))
	line(fmt.Sprintf("range %.0f", Distance(a.Pos, opp.Pos)))
	if a.KnockbackTimer > 0 {
		line(fmt.Sprintf("knockback %.0fms", a.KnockbackTimer))
	}

	section("LIMBS")
	for li := range a.Limbs {
		l := &a.Limbs[li]
		phase := "idle"
		switch {
		case l.Extending:
			phase = "EXTEND"
		case l.Retracting:
			phase = "retract"
		}
		line(fmt.Sprintf("%d %-7s len %3.0f", li, phase, l.Len))
	}

	section("COMBAT")
	line(fmt.Sprintf("hits %d/%d  defl %d", st.Hits(), st.Attacks, st.Deflections))
	line(fmt.Sprintf("dealt %.0f taken %.0f", st.DamageDealt, st.DamageTaken))
	line(fmt.Sprintf("blocked %.0f  KOs %d", st.DamageBlocked, st.KOs))

	gr := g.liveGrade(i)
	section("GRADE " + gr.Grade)
	score("off", gr.OffenseScore)
	score("def", gr.DefenseScore)
	score("ring", gr.RingScore)
	score("aggr", gr.AggressionScore)
	score("comp", gr.ComposureScore)
}

// drawInspectorRaw dumps the agent's fields verbatim.
func (g *Game) drawInspectorRaw(buf *ebiten.Image, a *Agent, lx, ly int) {
	line := func(text string) {
		ebitenutil.DebugPrintAt(buf, text, lx, ly)
		ly += inspLineH
	}

	line(fmt.Sprintf("pos=(%.1f,%.1f)", a.Pos.X, a.Pos.Y))
	line(fmt.Sprintf("vel=(%.2f,%.2f)", a.Velocity.X, a.Velocity.Y))
	line(fmt.Sprintf("rot=%.1f tgt=%.1f", a.Rot, a.TargetRot))
	line(fmt.Sprintf("st=%d %s", int(a.State), a.State))
	line(fmt.Sprintf("hp=%.1f/%.0f", a.HP, a.MaxHP))
	line(fmt.Sprintf("kb=%.0f flash=%.0f", a.KnockbackTimer, a.DamageFlash))
	for li := range a.Limbs {
		l := &a.Limbs[li]
		line(fmt.Sprintf("L%d ang=%.1f->%.1f", li, l.Angle, l.TargetAngle))
		line(fmt.Sprintf("   len=%.1f->%.1f x=%v r=%v", l.Len, l.TargetLen, l.Extending, l.Retracting))
	}
	st := a.Stats()
	line(fmt.Sprintf("body=%d limb=%d defl=%d", st.BodyHits, st.LimbHits, st.Deflections))
	line(fmt.Sprintf("atk=%d ko=%d", st.Attacks, st.KOs))
	line(fmt.Sprintf("dmg +%.1f -%.1f b%.1f", st.DamageDealt, st.DamageTaken, st.DamageBlocked))
	spawn := a.Spawn()
	line(fmt.Sprintf("spawn=(%.0f,%.0f)", spawn.X, spawn.Y))
}
