package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Garsondee/Duel-Sense/internal/coach"
	"github.com/Garsondee/Duel-Sense/internal/config"
	"github.com/Garsondee/Duel-Sense/internal/observability"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile  string
		listen   string
		upstream string
	)
	cmd := &cobra.Command{
		Use:          "coach-relay",
		Short:        "Relay coaching instructions to an upstream coach and fan out player updates.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("listen") {
				cfg.Coach.Listen = listen
			}
			if cmd.Flags().Changed("upstream") {
				cfg.Coach.Upstream = upstream
			}
			if cfg.Coach.Listen == "" || cfg.Coach.Upstream == "" {
				return fmt.Errorf("coach.listen and coach.upstream are required")
			}

			observability.InitializeLogger(cfg.Logger)
			defer observability.Sync()
			logger := observability.GetLogger()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg.Coach, logger)
		},
	}
	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./duel.yaml, then ~/.duel-sense/duel.yaml)")
	cmd.Flags().StringVar(&listen, "listen", "", "listen address, overrides coach.listen")
	cmd.Flags().StringVar(&upstream, "upstream", "", "upstream coach URL, overrides coach.upstream")
	return cmd
}

func run(ctx context.Context, cfg config.CoachConfig, logger *zap.Logger) error {
	provider := &coach.HTTPProvider{URL: cfg.Upstream, Client: &http.Client{Timeout: cfg.Timeout}}
	relay := coach.NewRelay(provider, cfg.AllowOrigin, logger)
	logger.Info("Starting coach relay",
		zap.String("listen", cfg.Listen),
		zap.String("upstream", cfg.Upstream),
	)
	return relay.Serve(ctx, cfg.Listen)
}
