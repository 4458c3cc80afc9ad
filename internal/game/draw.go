package game

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

var (
	arenaTop     = color.RGBA{R: 0x2c, G: 0x3e, B: 0x50, A: 0xff}
	arenaBottom  = color.RGBA{R: 0x34, G: 0x49, B: 0x5e, A: 0xff}
	arenaBorder  = color.RGBA{R: 0xec, G: 0xf0, B: 0xf1, A: 0xff}
	arenaDivider = color.RGBA{R: 0xec, G: 0xf0, B: 0xf1, A: 0x4c}

	limbSegment   = color.RGBA{R: 190, G: 0, B: 0, A: 128}
	limbActive    = color.RGBA{R: 0xff, G: 0x44, B: 0x44, A: 0xff}
	limbIdle      = color.RGBA{R: 0xbe, G: 0x00, B: 0x00, A: 0xff}
	limbGlow      = color.RGBA{R: 255, G: 68, B: 68, A: 77}
	healthBarBack = color.RGBA{R: 0, G: 0, B: 0, A: 178}

	indicatorHit     = color.RGBA{R: 0xff, G: 0x52, B: 0x52, A: 0xff}
	indicatorBlocked = color.RGBA{R: 0x90, G: 0xa4, B: 0xae, A: 0xff}
)

// textFace renders text that needs colour or alpha, which DebugPrint lacks.
var textFace = text.NewGoXFace(basicfont.Face7x13)

// arenaView maps arena coordinates to screen pixels.
type arenaView struct {
	offX, offY float32
	scale      float32
}

func (v arenaView) pt(p Vec2) (float32, float32) {
	return v.offX + float32(p.X)*v.scale, v.offY + float32(p.Y)*v.scale
}

func (v arenaView) dist(l float64) float32 { return float32(l) * v.scale }

func (g *Game) view() arenaView {
	return arenaView{offX: float32(g.offX), offY: float32(g.offY), scale: float32(g.scale)}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 14, G: 18, B: 24, A: 255})

	snap := g.match.Snapshot()
	v := g.view()

	g.drawArena(screen, v)
	for i := range snap.Agents {
		drawBody(screen, snap.Agents[i], v)
	}
	for i := range snap.Agents {
		drawLimbs(screen, snap.Agents[i], v)
	}
	for i := range snap.Agents {
		drawHealthBar(screen, snap.Agents[i], v)
	}
	if g.showOverlay {
		g.drawDebugOverlay(screen, v)
	}
	g.drawIndicators(screen, snap.NowMs, v)
	g.callouts.Draw(screen, snap, v)
	if snap.Outcome != OutcomeInProgress {
		g.drawKOBanner(screen, snap)
	}

	logX := g.offX + g.arenaPx + g.offX
	reserve := 0
	if g.coachingEnabled() {
		reserve = chatInputHeight
	}
	g.combatLog.Draw(screen, logX, g.height, reserve)
	if g.coachingEnabled() {
		g.drawChatInput(screen, logX)
	}

	if g.showHUD {
		g.drawHUD(screen, snap)
	}
	g.drawInspector(screen)
}

// drawArena paints the floor gradient, the border and the centre divider.
func (g *Game) drawArena(screen *ebiten.Image, v arenaView) {
	const bands = 64
	size := float32(g.arenaPx)
	bandH := size / bands
	for i := 0; i < bands; i++ {
		c := lerpRGBA(arenaTop, arenaBottom, float64(i)/float64(bands-1))
		vector.FillRect(screen, v.offX, v.offY+float32(i)*bandH, size, bandH+1, c, false)
	}
	vector.StrokeRect(screen, v.offX+1, v.offY+1, size-2, size-2, 2, arenaBorder, false)
	mid := v.offX + size/2
	vector.StrokeLine(screen, mid, v.offY, mid, v.offY+size, 1, arenaDivider, false)
}

func drawBody(screen *ebiten.Image, a AgentSnapshot, v arenaView) {
	x, y := v.pt(a.Pos)
	vector.FillCircle(screen, x, y, v.dist(a.Radius), a.Fill, true)
}

// drawLimbs draws each limb as a segment from the body centre to a disc. An
// active limb gets a faint glow ring.
func drawLimbs(screen *ebiten.Image, a AgentSnapshot, v arenaView) {
	for _, l := range a.Limbs {
		ox, oy := v.pt(l.Origin)
		tx, ty := v.pt(l.Tip)
		vector.StrokeLine(screen, ox, oy, tx, ty, 3*v.scale, limbSegment, true)
		c := limbIdle
		if l.Active {
			c = limbActive
		}
		vector.FillCircle(screen, tx, ty, v.dist(l.Radius), c, true)
		if l.Active {
			vector.FillCircle(screen, tx, ty, v.dist(l.Radius+5), limbGlow, true)
		}
	}
}

func drawHealthBar(screen *ebiten.Image, a AgentSnapshot, v arenaView) {
	x, y := v.pt(Vec2{X: a.Pos.X - a.HealthBarW/2, Y: a.HealthBarY})
	w, h := v.dist(a.HealthBarW), v.dist(a.HealthBarH)
	vector.FillRect(screen, x-1, y-1, w+2, h+2, healthBarBack, false)
	vector.FillRect(screen, x, y, w*float32(a.HPFraction()), h, a.HPColor, false)
}

// drawIndicators floats each damage number upwards while it fades.
func (g *Game) drawIndicators(screen *ebiten.Image, nowMs float64, v arenaView) {
	ttl := g.indicators.TTL()
	for _, d := range g.indicators.Live() {
		alpha := d.Alpha(nowMs, ttl)
		if alpha <= 0 {
			continue
		}
		rise := 30 * d.Age(nowMs) / ttl
		x, y := v.pt(Vec2{X: d.Pos.X, Y: d.Pos.Y - rise})
		c := indicatorHit
		if d.Blocked {
			c = indicatorBlocked
		}
		op := &text.DrawOptions{}
		op.GeoM.Scale(1.5, 1.5)
		op.GeoM.Translate(float64(x), float64(y))
		op.PrimaryAlign = text.AlignCenter
		op.ColorScale.ScaleWithColor(c)
		op.ColorScale.ScaleAlpha(float32(alpha))
		text.Draw(screen, d.Text, textFace, op)
	}
}

func (g *Game) drawKOBanner(screen *ebiten.Image, snap MatchSnapshot) {
	msg := "DOUBLE KO"
	if snap.Winner != "" {
		msg = "KO! " + snap.Winner + " wins"
	}
	cx := float64(g.offX) + float64(g.arenaPx)/2
	cy := float64(g.offY) + float64(g.arenaPx)/2

	vector.FillRect(screen, float32(g.offX), float32(cy-28), float32(g.arenaPx), 56, color.RGBA{R: 0, G: 0, B: 0, A: 150}, false)
	op := &text.DrawOptions{}
	op.GeoM.Scale(3, 3)
	op.GeoM.Translate(cx, cy-20)
	op.PrimaryAlign = text.AlignCenter
	op.ColorScale.ScaleWithColor(arenaBorder)
	text.Draw(screen, msg, textFace, op)
}

func (g *Game) drawChatInput(screen *ebiten.Image, panelX int) {
	y := float32(g.height - chatInputHeight)
	vector.FillRect(screen, float32(panelX), y, float32(logPanelWidth), chatInputHeight, color.RGBA{R: 30, G: 40, B: 52, A: 255}, false)
	vector.StrokeLine(screen, float32(panelX), y, float32(panelX+logPanelWidth), y, 1, color.RGBA{R: 70, G: 90, B: 110, A: 200}, false)

	line := "[Enter] coach your fighter"
	if g.typing {
		line = "> " + tail(string(g.chatInput), logLineChars-3)
		if (time.Now().UnixMilli()/500)%2 == 0 {
			line += "_"
		}
	}
	ebitenutil.DebugPrintAt(screen, line, panelX+8, int(y)+8)
}

func (g *Game) drawHUD(screen *ebiten.Image, snap MatchSnapshot) {
	speedStr := fmt.Sprintf("%gx", g.simSpeed)
	if g.simSpeed == 0 {
		speedStr = "PAUSED"
	}

	a0, a1 := snap.Agents[0], snap.Agents[1]
	summary := g.reporter.Summary()
	lines := []string{
		fmt.Sprintf("SIM: %s  P=pause  ,/. speed", speedStr),
		fmt.Sprintf("Round %d  T=%d", snap.Round, snap.Tick),
		fmt.Sprintf("%s %3.0f hp  %-16s wins %d", a0.Name, a0.HP, a0.State, summary.Wins[a0.Name]),
		fmt.Sprintf("%s %3.0f hp  %-16s wins %d", a1.Name, a1.HP, a1.State, summary.Wins[a1.Name]),
		"[R] restart  [C] copy report  [H] HUD",
		"click: inspect  [I] raw  [O] overlay",
	}
	if snap.ResetPending {
		lines = append(lines, "next round soon...")
	}
	if g.status != "" && time.Now().Before(g.statusUntil) {
		lines = append(lines, g.status)
	}

	const lineH = 12 // debug font line height at 1x
	const charW = 6  // debug font char width at 1x
	const padX = 5
	const padY = 4

	maxLen := 0
	for _, l := range lines {
		if len(l) > maxLen {
			maxLen = len(l)
		}
	}
	boxW := float32(maxLen*charW + padX*2)
	boxH := float32(len(lines)*lineH + padY*2)
	bx := float32(g.offX/hudScale + 4)
	by := float32(g.height/hudScale) - boxH - 4

	g.hudBuf.Clear()
	vector.FillRect(g.hudBuf, bx, by, boxW, boxH, color.RGBA{R: 10, G: 14, B: 20, A: 200}, false)
	vector.StrokeRect(g.hudBuf, bx, by, boxW, boxH, 1.0, color.RGBA{R: 90, G: 110, B: 130, A: 180}, false)
	for i, line := range lines {
		ebitenutil.DebugPrintAt(g.hudBuf, line, int(bx)+padX, int(by)+padY+i*lineH)
	}

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(hudScale), float64(hudScale))
	screen.DrawImage(g.hudBuf, opts)
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(Lerp(float64(a.R), float64(b.R), t)),
		G: uint8(Lerp(float64(a.G), float64(b.G), t)),
		B: uint8(Lerp(float64(a.B), float64(b.B), t)),
		A: uint8(Lerp(float64(a.A), float64(b.A), t)),
	}
}

// tail keeps the last n runes of s.
func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
