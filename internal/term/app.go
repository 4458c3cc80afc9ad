package term

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/Garsondee/Duel-Sense/internal/game"
)

const frameMs = 1000.0 / 60.0

// App drives a match in the terminal: one tick per frame, redrawn each tick.
type App struct {
	screen     tcell.Screen
	renderer   *Renderer
	match      *game.Match
	indicators *game.Indicators
	log        *game.CombatLog
	logger     *zap.Logger
	frame      time.Duration

	simMs  float64
	paused bool
}

// NewApp prepares to run m on screen at fps frames per second. The screen
// is initialised by Run.
func NewApp(screen tcell.Screen, m *game.Match, fps int, indicatorTTL time.Duration, logger *zap.Logger) *App {
	if fps <= 0 {
		fps = 60
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		screen:     screen,
		renderer:   NewRenderer(screen),
		match:      m,
		indicators: game.NewIndicators(float64(indicatorTTL) / float64(time.Millisecond)),
		log:        game.NewCombatLog(),
		logger:     logger.Named("term"),
		frame:      time.Second / time.Duration(fps),
	}
	a.indicators.Attach(m.Events())
	a.log.Attach(m.Events(), m.Tick, m.Agents())
	return a
}

// Run loops until the player quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer a.screen.Fini()

	events := make(chan tcell.Event, 100)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(a.frame)
	defer ticker.Stop()
	a.logger.Info("terminal session started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !a.handleKey(ev) {
					return nil
				}
			case *tcell.EventResize:
				a.screen.Sync()
			}
		case <-ticker.C:
			a.tick()
			a.draw()
		}
	}
}

// handleKey applies a keypress and reports whether to keep running.
func (a *App) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 'p':
			a.paused = !a.paused
		case 'r':
			a.match.Restart()
		}
	}
	return true
}

func (a *App) tick() {
	if a.paused {
		return
	}
	a.simMs += frameMs
	a.match.Update(a.simMs)
	a.indicators.Expire(a.simMs)
}

func (a *App) draw() {
	a.renderer.Draw(Frame{
		Snap:       a.match.Snapshot(),
		Indicators: a.indicators.Live(),
		Log:        a.log.Recent(),
		Paused:     a.paused,
	})
}
