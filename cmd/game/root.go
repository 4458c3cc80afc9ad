package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Garsondee/Duel-Sense/internal/coach"
	"github.com/Garsondee/Duel-Sense/internal/config"
	"github.com/Garsondee/Duel-Sense/internal/game"
	"github.com/Garsondee/Duel-Sense/internal/observability"
	"github.com/Garsondee/Duel-Sense/internal/sound"
	"github.com/Garsondee/Duel-Sense/internal/term"
)

// cli holds flag values and what PersistentPreRunE loads.
type cli struct {
	cfgFile string
	seed    int64
	speed   float64
	mute    bool
	coach   bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:               "duel",
		Short:             "Two fighters with random behaviours in one arena.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		RunE:              c.runWindow,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&c.cfgFile, "config", "c", "", "config file (default is ./duel.yaml, then ~/.duel-sense/duel.yaml)")
	flags.Int64Var(&c.seed, "seed", 0, "random seed; 0 keeps the configured one")
	flags.Float64Var(&c.speed, "speed", 0, "simulation speed multiplier; 0 keeps the configured one")
	flags.BoolVar(&c.mute, "mute", false, "disable hit sounds")
	root.Flags().BoolVar(&c.coach, "coach", false, "connect to the coach relay")

	root.AddCommand(c.newTermCmd())
	return root
}

// setup loads configuration, applies flag overrides and starts logging.
// The terminal front end owns the tty, so its console log is discarded.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, _, err := config.Load(c.cfgFile)
	if err != nil {
		observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "duel"})
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("seed") {
		cfg.Sim.Seed = c.seed
	}
	if cmd.Flags().Changed("speed") {
		cfg.Render.SimSpeed = c.speed
	}
	if c.mute {
		cfg.Audio.Enabled = false
	}
	if c.coach {
		cfg.Coach.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cmd.Name() == "term" {
		observability.Initialize(cfg.Logger, zapcore.AddSync(io.Discard))
	} else {
		observability.InitializeLogger(cfg.Logger)
	}
	c.cfg = cfg
	c.logger = observability.GetLogger()
	c.logger.Info("Starting Duel Sense", zap.String("command", cmd.Name()), zap.Int64("seed", cfg.Sim.Seed))
	return nil
}

func (c *cli) runWindow(cmd *cobra.Command, _ []string) error {
	defer observability.Sync()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	settings := game.SettingsFromConfig(c.cfg, c.logger)
	if c.cfg.Coach.Enabled {
		client, err := coach.NewClient(c.cfg.Coach, c.logger)
		if err != nil {
			return fmt.Errorf("coach client: %w", err)
		}
		defer client.Close()
		settings.Coach = client

		if c.cfg.Coach.FeedURL != "" {
			feed := coach.NewFeed(c.cfg.Coach, c.logger)
			done := make(chan struct{})
			go func() {
				defer close(done)
				_ = feed.Run(ctx)
			}()
			defer func() {
				cancel()
				<-done
			}()
			settings.Feed = feed
		}
	}

	g := game.New(settings)
	defer c.startSound(g.Match().Events())()

	w, h := g.Layout(0, 0)
	ebiten.SetWindowTitle("Duel Sense")
	ebiten.SetWindowSize(w, h)
	return ebiten.RunGame(g)
}

func (c *cli) newTermCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "term",
		Short: "Watch the duel in the terminal.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer observability.Sync()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("open terminal: %w", err)
			}
			m := newMatch(c.cfg, c.logger)
			defer c.startSound(m.Events())()

			app := term.NewApp(screen, m, c.cfg.Render.TermFPS, c.cfg.Render.IndicatorTTL, c.logger)
			return app.Run(ctx)
		},
	}
}

func newMatch(cfg *config.Config, logger *zap.Logger) *game.Match {
	opts := []game.MatchOption{
		game.WithTuning(game.TuningFromConfig(cfg.Sim)),
		game.WithLogger(logger.Named("match")),
		game.WithResetClock(game.NewWallClock()),
	}
	if cfg.Sim.Seed != 0 {
		opts = append(opts, game.WithMatchSeed(cfg.Sim.Seed))
	}
	return game.NewMatch(opts...)
}

// startSound attaches hit sounds to bus when audio is enabled. Failing to
// open the speaker is logged and play continues silently. The returned
// func closes the speaker.
func (c *cli) startSound(bus *game.EventBus) func() {
	if !c.cfg.Audio.Enabled {
		return func() {}
	}
	p := sound.New(c.cfg.Audio, c.logger)
	if err := p.Init(); err != nil {
		c.logger.Warn("Audio initialization failed, continuing without sound", zap.Error(err))
		return func() {}
	}
	p.Attach(bus)
	return p.Close
}
