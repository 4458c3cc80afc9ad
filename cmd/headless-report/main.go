package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Garsondee/Duel-Sense/internal/config"
	"github.com/Garsondee/Duel-Sense/internal/game"
)

// lowContactHitsPer1k is the hit rate below which a run counts as low contact.
const lowContactHitsPer1k = 5.0

// hpParityMargin is the HP gap under which neither fighter is ahead.
const hpParityMargin = 10.0

type options struct {
	cfgFile  string
	runs     int
	ticks    int
	seedBase int64
	seedStep int64
	workers  int
	verbose  bool
}

type runStats struct {
	runIndex int
	seed     int64
	ticks    int
	names    [2]string

	rounds       int
	firstHitTick int
	firstKOTick  int
	stateChanges int
	bodyHits     [2]int
	limbHits     [2]int
	deflections  [2]int
	dealt        [2]float64
	blocked      [2]float64
	hpLeft       [2]float64

	summary *game.SeriesSummary
	grades  []game.AgentGrade
}

func (rs runStats) totalHits() int {
	return rs.bodyHits[0] + rs.bodyHits[1] + rs.limbHits[0] + rs.limbHits[1]
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	o := options{}
	cmd := &cobra.Command{
		Use:          "headless-report",
		Short:        "Run seeded headless duels and print a combat report.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), out, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.cfgFile, "config", "c", "", "config file supplying the sim constants")
	f.IntVar(&o.runs, "runs", 5, "number of headless matches")
	f.IntVar(&o.ticks, "ticks", 3600, "ticks per match")
	f.Int64Var(&o.seedBase, "seed-base", 42, "base RNG seed for run 1")
	f.Int64Var(&o.seedStep, "seed-step", 1, "seed increment between runs")
	f.IntVar(&o.workers, "workers", runtime.NumCPU(), "matches run in parallel")
	f.BoolVar(&o.verbose, "verbose", false, "print each run's match log")
	return cmd
}

func run(ctx context.Context, out io.Writer, o options) error {
	if o.runs <= 0 {
		return fmt.Errorf("--runs must be > 0")
	}
	if o.ticks <= 0 {
		return fmt.Errorf("--ticks must be > 0")
	}
	if o.workers <= 0 {
		o.workers = 1
	}

	tuning := game.DefaultTuning()
	if o.cfgFile != "" {
		cfg, _, err := config.Load(o.cfgFile)
		if err != nil {
			return err
		}
		tuning = game.TuningFromConfig(cfg.Sim)
	}

	fmt.Fprintf(out, "=== Headless Duel Report ===\n")
	fmt.Fprintf(out, "runs=%d ticks=%d seed_base=%d seed_step=%d workers=%d\n\n",
		o.runs, o.ticks, o.seedBase, o.seedStep, o.workers)

	all := make([]runStats, o.runs)
	logs := make([]string, o.runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := 0; i < o.runs; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			seed := o.seedBase + int64(i)*o.seedStep
			all[i], logs[i] = runMatch(i+1, seed, o.ticks, tuning, o.verbose)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, rs := range all {
		printRun(out, rs)
		if o.verbose {
			fmt.Fprint(out, logs[i])
			fmt.Fprintln(out)
		}
	}
	printAggregate(out, all)
	return nil
}

// runMatch plays one seeded match headlessly and returns its stats and log.
func runMatch(runIndex int, seed int64, ticks int, tuning game.Tuning, verbose bool) (runStats, string) {
	ts := game.NewTestSim(
		game.WithSeed(seed),
		game.WithSimTuning(tuning),
		game.WithVerbose(true),
	)
	reporter := game.NewRoundReporter(ts.Match)
	ts.RunTicks(ticks)

	entries := ts.SimLog.Entries()
	rs := runStats{
		runIndex:     runIndex,
		seed:         seed,
		ticks:        ticks,
		rounds:       len(reporter.History()),
		firstHitTick: firstTick(entries, "hit", "", ""),
		firstKOTick:  firstTick(entries, "match", "ko", ""),
		stateChanges: ts.SimLog.CountCategory("state", ""),
		summary:      reporter.Summary(),
		grades:       ts.Grades(),
	}
	for i, a := range ts.Match.Agents() {
		st := a.Stats()
		rs.names[i] = a.Name
		rs.bodyHits[i] = st.BodyHits
		rs.limbHits[i] = st.LimbHits
		rs.deflections[i] = st.Deflections
		rs.dealt[i] = st.DamageDealt
		rs.blocked[i] = st.DamageBlocked
		rs.hpLeft[i] = a.HP
	}
	return rs, ts.SimLog.Format()
}

func firstTick(entries []game.SimLogEntry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || (key != "" && e.Key != key) {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Tick
		}
	}
	return -1
}

// detectStalemate flags a run in which nobody was knocked out, and says why
// the fight stalled.
func detectStalemate(rs runStats) (bool, string) {
	if rs.rounds > 0 {
		return false, "decisive"
	}
	reasons := []string{"no_knockout"}
	if rs.ticks > 0 && float64(rs.totalHits())*1000/float64(rs.ticks) < lowContactHitsPer1k {
		reasons = append(reasons, "low_contact")
	}
	if math.Abs(rs.hpLeft[0]-rs.hpLeft[1]) < hpParityMargin {
		reasons = append(reasons, "hp_parity")
	}
	return true, strings.Join(reasons, "+")
}

func printRun(out io.Writer, rs runStats) {
	fmt.Fprintf(out, "--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Fprintf(out, "phase_markers: first_hit=%d first_ko=%d rounds=%d state_changes=%d\n",
		rs.firstHitTick, rs.firstKOTick, rs.rounds, rs.stateChanges)
	for i, name := range rs.names {
		fmt.Fprintf(out, "%s: body_hits=%d limb_hits=%d deflections=%d dealt=%.0f blocked=%.0f hp_left=%.0f wins=%d\n",
			name, rs.bodyHits[i], rs.limbHits[i], rs.deflections[i], rs.dealt[i], rs.blocked[i], rs.hpLeft[i],
			rs.summary.Wins[name])
	}
	if stale, reason := detectStalemate(rs); stale {
		fmt.Fprintf(out, "stalemate: %s\n", reason)
	}
	fmt.Fprint(out, game.FormatGrades(rs.grades))
	fmt.Fprintln(out)
}

func printAggregate(out io.Writer, all []runStats) {
	parts := make([]*game.SeriesSummary, 0, len(all))
	firstHits := make([]int, 0, len(all))
	firstKOs := make([]int, 0, len(all))
	stalemates := 0
	totalHits := 0
	for _, rs := range all {
		parts = append(parts, rs.summary)
		if rs.firstHitTick >= 0 {
			firstHits = append(firstHits, rs.firstHitTick)
		}
		if rs.firstKOTick >= 0 {
			firstKOs = append(firstKOs, rs.firstKOTick)
		}
		if stale, _ := detectStalemate(rs); stale {
			stalemates++
		}
		totalHits += rs.totalHits()
	}

	fmt.Fprintln(out, "=== Aggregate ===")
	fmt.Fprintf(out, "runs=%d stalemates=%d avg_hits_per_run=%.1f\n", len(all), stalemates, avg(totalHits, len(all)))
	fmt.Fprintf(out, "phase_marker_avg_ticks: first_hit=%s first_ko=%s\n",
		avgTickString(firstHits), avgTickString(firstKOs))
	fmt.Fprintln(out)
	fmt.Fprint(out, game.MergeSummaries(parts...).Format())
	fmt.Fprintln(out, "\n--- Fighter Grades (all runs) ---")
	fmt.Fprint(out, game.FormatGradesSummary(collectAllGrades(all)))
}

func collectAllGrades(all []runStats) []game.AgentGrade {
	var out []game.AgentGrade
	for _, rs := range all {
		out = append(out, rs.grades...)
	}
	return out
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}
