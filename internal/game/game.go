package game

import (
	"math"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/Garsondee/Duel-Sense/internal/coach"
	"github.com/Garsondee/Duel-Sense/internal/config"
)

// borderWidth is the pixel gap between the window edge and the arena.
const borderWidth = 24

// hudScale is the integer upscale factor applied to HUD text.
const hudScale = 2

// frameMs is the simulated time one tick advances.
const frameMs = 1000.0 / 60.0

// chatInputHeight is the space reserved under the log for the coach prompt.
const chatInputHeight = 30

// reportLogTicks is how much of the match log a copied report includes.
const reportLogTicks = 600

// statusTTL is how long a status line stays in the HUD.
const statusTTL = 3 * time.Second

var simSpeeds = []float64{0, 0.5, 1, 2, 4}

// Settings configures a windowed Game.
type Settings struct {
	Tuning       Tuning
	Seed         int64 // 0 = time-based
	Scale        float64
	SimSpeed     float64
	IndicatorTTL time.Duration
	ShowHUD      bool
	Logger       *zap.Logger

	// Optional coaching side channel. Either may be nil.
	Coach *coach.Client
	Feed  *coach.Feed
}

// SettingsFromConfig fills Settings from the loaded configuration. The coach
// client and feed are left for the caller to attach.
func SettingsFromConfig(cfg *config.Config, logger *zap.Logger) Settings {
	return Settings{
		Tuning:       TuningFromConfig(cfg.Sim),
		Seed:         cfg.Sim.Seed,
		Scale:        cfg.Render.Scale,
		SimSpeed:     cfg.Render.SimSpeed,
		IndicatorTTL: cfg.Render.IndicatorTTL,
		ShowHUD:      cfg.Render.ShowHUD,
		Logger:       logger,
	}
}

// Game is the ebiten front end: it drives a Match on a fixed tick, draws it
// and relays coaching instructions typed by the player.
type Game struct {
	width   int
	height  int
	arenaPx int // arena edge length on screen
	offX    int
	offY    int
	scale   float64

	match      *Match
	simLog     *SimLog
	combatLog  *CombatLog
	indicators *Indicators
	callouts   *Callouts
	reporter   *RoundReporter
	logger     *zap.Logger

	simMs     float64 // simulated time handed to the match
	simSpeed  float64 // multiplier: 0=paused, 0.5, 1, 2, 4
	tickAccum float64 // fractional tick accumulator for sub-1x speeds

	showHUD       bool
	showOverlay   bool
	prevKeys      map[ebiten.Key]bool
	prevMouseLeft bool
	hudBuf        *ebiten.Image

	inspector Inspector
	inspBuf   *ebiten.Image
	perf      []*PerfTracker // per agent, for the inspector's live grade

	coach     *coach.Client
	feed      *coach.Feed
	typing    bool
	chatInput []rune

	status      string
	statusUntil time.Time
}

// New builds a game from s.
func New(s Settings) *Game {
	if s.Tuning == (Tuning{}) {
		s.Tuning = DefaultTuning()
	}
	if s.Scale <= 0 {
		s.Scale = 1
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}

	opts := []MatchOption{
		WithTuning(s.Tuning),
		WithLogger(s.Logger.Named("match")),
		WithResetClock(NewWallClock()),
	}
	if s.Seed != 0 {
		opts = append(opts, WithMatchSeed(s.Seed))
	}
	m := NewMatch(opts...)

	arenaPx := int(math.Round(s.Tuning.ArenaSize * s.Scale))
	g := &Game{
		width:      borderWidth + arenaPx + borderWidth + logPanelWidth,
		height:     borderWidth + arenaPx + borderWidth,
		arenaPx:    arenaPx,
		offX:       borderWidth,
		offY:       borderWidth,
		scale:      s.Scale,
		match:      m,
		simLog:     NewSimLog(false),
		combatLog:  NewCombatLog(),
		indicators: NewIndicators(durationMs(s.IndicatorTTL)),
		callouts:   NewCallouts(),
		logger:     s.Logger,
		simSpeed:   s.SimSpeed,
		showHUD:    s.ShowHUD,
		prevKeys:   make(map[ebiten.Key]bool),
		inspector:  newInspector(),
		coach:      s.Coach,
		feed:       s.Feed,
	}
	g.simLog.Attach(m.Events(), m.Tick)
	g.combatLog.Attach(m.Events(), m.Tick, m.Agents())
	g.indicators.Attach(m.Events())
	g.callouts.Attach(m.Events(), m.Agents())
	g.reporter = NewRoundReporter(m)
	g.hudBuf = ebiten.NewImage(g.width/hudScale, g.height/hudScale)
	g.inspBuf = ebiten.NewImage(inspBufW, inspBufH)
	for i := range m.Agents() {
		g.perf = append(g.perf, NewPerfTracker(m, i))
	}

	g.combatLog.Add(0, SourceMatch, "round 1")
	return g
}

// Match returns the simulation being shown.
func (g *Game) Match() *Match { return g.match }

func (g *Game) Update() error {
	g.pollCoach()
	g.handleInput()

	if g.simSpeed <= 0 {
		return nil
	}
	g.tickAccum += g.simSpeed
	for g.tickAccum >= 1.0 {
		g.tickAccum -= 1.0
		g.simTick()
	}
	return nil
}

// simTick runs one simulation tick.
func (g *Game) simTick() {
	g.simMs += frameMs
	g.match.Update(g.simMs)
	for _, pt := range g.perf {
		pt.Update(g.match)
	}
	g.indicators.Expire(g.simMs)
	g.callouts.Expire(g.simMs)
}

// pollCoach moves any pending coach replies and feed messages into the log
// without blocking the frame.
func (g *Game) pollCoach() {
	var replies, pushed <-chan coach.Message
	if g.coach != nil {
		replies = g.coach.Inbox()
	}
	if g.feed != nil {
		pushed = g.feed.Inbox()
	}
	for {
		select {
		case m := <-replies:
			g.showMessage(m)
		case m := <-pushed:
			g.showMessage(m)
		default:
			return
		}
	}
}

func (g *Game) showMessage(m coach.Message) {
	if m.Err != nil {
		g.combatLog.AddChat(g.match.Tick(), SourceCoach, "unavailable: "+m.Err.Error())
		return
	}
	g.combatLog.AddChat(g.match.Tick(), m.From, m.Text)
}

func (g *Game) coachingEnabled() bool { return g.coach != nil || g.feed != nil }

// handleInput processes keypresses (edge-triggered).
func (g *Game) handleInput() {
	currentKeys := map[ebiten.Key]bool{}
	justPressed := func(k ebiten.Key) bool {
		currentKeys[k] = ebiten.IsKeyPressed(k)
		return currentKeys[k] && !g.prevKeys[k]
	}
	defer func() { g.prevKeys = currentKeys }()

	if g.typing {
		g.chatInput = ebiten.AppendInputChars(g.chatInput)
		switch {
		case justPressed(ebiten.KeyEnter):
			g.submitInstruction()
		case justPressed(ebiten.KeyEscape):
			g.typing = false
			g.chatInput = g.chatInput[:0]
		case justPressed(ebiten.KeyBackspace):
			if n := len(g.chatInput); n > 0 {
				g.chatInput = g.chatInput[:n-1]
			}
		}
		return
	}

	// Enter: start typing a coaching instruction.
	if justPressed(ebiten.KeyEnter) && g.coachingEnabled() {
		g.typing = true
		g.chatInput = g.chatInput[:0]
		return
	}

	// H: toggle HUD key legend.
	if justPressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}

	// O: toggle the combat geometry overlay.
	if justPressed(ebiten.KeyO) {
		g.showOverlay = !g.showOverlay
	}

	// R: restart the round, cancelling any pending reset.
	if justPressed(ebiten.KeyR) {
		g.match.Restart()
	}

	// C: copy a match report to the clipboard.
	if justPressed(ebiten.KeyC) {
		if err := copyToClipboard(MatchReport(g.match, g.simLog, reportLogTicks)); err != nil {
			g.logger.Warn("copy report failed", zap.Error(err))
			g.setStatus("copy failed")
		} else {
			g.setStatus("report copied")
		}
	}

	// Left mouse click: select an agent for the inspector.
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !g.prevMouseLeft {
			mx, my := ebiten.CursorPosition()
			g.handleInspectorClick(mx, my)
		}
	}
	g.prevMouseLeft = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	// I: toggle inspector raw/curated view.
	if justPressed(ebiten.KeyI) {
		g.inspector.rawView = !g.inspector.rawView
	}

	// Sim speed controls: P=pause/resume, ,=slower, .=faster.
	if justPressed(ebiten.KeyP) {
		if g.simSpeed > 0 {
			g.simSpeed = 0
		} else {
			g.simSpeed = 1
		}
	}
	if justPressed(ebiten.KeyComma) {
		g.simSpeed = slowerSpeed(g.simSpeed)
	}
	if justPressed(ebiten.KeyPeriod) {
		g.simSpeed = fasterSpeed(g.simSpeed)
	}
}

func slowerSpeed(cur float64) float64 {
	for i, s := range simSpeeds {
		if s >= cur && i > 0 {
			return simSpeeds[i-1]
		}
	}
	return simSpeeds[len(simSpeeds)-2]
}

func fasterSpeed(cur float64) float64 {
	for _, s := range simSpeeds {
		if s > cur {
			return s
		}
	}
	return cur
}

// submitInstruction sends the typed line to the coach and the feed.
func (g *Game) submitInstruction() {
	text := strings.TrimSpace(string(g.chatInput))
	g.typing = false
	g.chatInput = g.chatInput[:0]
	if text == "" {
		return
	}
	g.combatLog.AddChat(g.match.Tick(), "you", text)
	if g.coach != nil {
		g.coach.Submit(text)
	}
	if g.feed != nil {
		a := g.match.Agent(0)
		g.feed.Publish(coach.PlayerData{X: a.Pos.X, Y: a.Pos.Y, Prompt: text})
	}
}

func (g *Game) setStatus(s string) {
	g.status = s
	g.statusUntil = time.Now().Add(statusTTL)
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}
