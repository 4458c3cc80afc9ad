package game

import (
	"fmt"
	"sort"
	"strings"
)

// RoundReport captures one finished round.
type RoundReport struct {
	Round      int
	Outcome    MatchOutcome
	Winner     string
	StartTick  int
	EndTick    int
	DurationMs float64
	HPLeft     [2]float64

	// Behaviours rolled during the round, per state.
	States map[AgentState]int
}

// Ticks is the round length in frames.
func (r RoundReport) Ticks() int { return r.EndTick - r.StartTick }

// RoundReporter records every round a match plays.
type RoundReporter struct {
	m       *Match
	history []RoundReport

	cur     RoundReport
	startMs float64
}

// NewRoundReporter starts recording m from its current round.
func NewRoundReporter(m *Match) *RoundReporter {
	r := &RoundReporter{m: m}
	r.begin(m.Round(), m.Tick(), m.NowMs())
	m.Events().Subscribe(r.observe)
	return r
}

func (r *RoundReporter) begin(round, tick int, nowMs float64) {
	r.cur = RoundReport{
		Round:     round,
		StartTick: tick,
		States:    make(map[AgentState]int),
	}
	r.startMs = nowMs
}

func (r *RoundReporter) observe(e Event) {
	switch ev := e.(type) {
	case StateChangeEvent:
		r.cur.States[ev.To]++
	case KOEvent:
		r.cur.Outcome = ev.Outcome
		r.cur.Winner = ev.Winner
		r.cur.EndTick = r.m.Tick()
		r.cur.DurationMs = ev.TimeMs - r.startMs
		for i, a := range r.m.Agents() {
			r.cur.HPLeft[i] = a.HP
		}
		r.history = append(r.history, r.cur)
	case ResetEvent:
		r.begin(ev.Round, r.m.Tick(), ev.TimeMs)
	}
}

// History returns finished rounds, oldest first.
func (r *RoundReporter) History() []RoundReport { return r.history }

// Latest returns the most recent finished round, or nil.
func (r *RoundReporter) Latest() *RoundReport {
	if len(r.history) == 0 {
		return nil
	}
	return &r.history[len(r.history)-1]
}

// Summary aggregates every finished round.
func (r *RoundReporter) Summary() *SeriesSummary {
	s := newSeriesSummary()
	for _, rr := range r.history {
		s.add(rr)
	}
	return s
}

// SeriesSummary aggregates finished rounds, possibly across several matches.
type SeriesSummary struct {
	Rounds     int
	Wins       map[string]int
	DoubleKOs  int
	TotalTicks int
	MinTicks   int
	MaxTicks   int
	States     map[AgentState]int
}

func newSeriesSummary() *SeriesSummary {
	return &SeriesSummary{
		Wins:   make(map[string]int),
		States: make(map[AgentState]int),
	}
}

func (s *SeriesSummary) add(r RoundReport) {
	ticks := r.Ticks()
	if s.Rounds == 0 || ticks < s.MinTicks {
		s.MinTicks = ticks
	}
	if ticks > s.MaxTicks {
		s.MaxTicks = ticks
	}
	s.Rounds++
	s.TotalTicks += ticks
	if r.Outcome == OutcomeDoubleKO {
		s.DoubleKOs++
	} else if r.Winner != "" {
		s.Wins[r.Winner]++
	}
	for st, n := range r.States {
		s.States[st] += n
	}
}

// AvgTicks is the mean round length in frames.
func (s *SeriesSummary) AvgTicks() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(s.TotalTicks) / float64(s.Rounds)
}

// MergeSummaries combines summaries from independent matches. Nil entries
// are skipped.
func MergeSummaries(parts ...*SeriesSummary) *SeriesSummary {
	out := newSeriesSummary()
	for _, p := range parts {
		if p == nil || p.Rounds == 0 {
			continue
		}
		if out.Rounds == 0 || p.MinTicks < out.MinTicks {
			out.MinTicks = p.MinTicks
		}
		if p.MaxTicks > out.MaxTicks {
			out.MaxTicks = p.MaxTicks
		}
		out.Rounds += p.Rounds
		out.TotalTicks += p.TotalTicks
		out.DoubleKOs += p.DoubleKOs
		for k, v := range p.Wins {
			out.Wins[k] += v
		}
		for k, v := range p.States {
			out.States[k] += v
		}
	}
	return out
}

// Format returns a human-readable multi-line summary.
func (s *SeriesSummary) Format() string {
	if s == nil || s.Rounds == 0 {
		return "No rounds finished.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Series Report (%d rounds) ===\n", s.Rounds)

	sb.WriteString("\n--- Results ---\n")
	names := make([]string, 0, len(s.Wins))
	for n := range s.Wins {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(&sb, "  %-10s wins=%-4d %5.1f%%\n", n, s.Wins[n], pct(s.Wins[n], s.Rounds))
	}
	fmt.Fprintf(&sb, "  %-10s      %-4d %5.1f%%\n", "double KO", s.DoubleKOs, pct(s.DoubleKOs, s.Rounds))

	sb.WriteString("\n--- Round Length (ticks) ---\n")
	fmt.Fprintf(&sb, "  avg=%.0f  min=%d  max=%d\n", s.AvgTicks(), s.MinTicks, s.MaxTicks)

	total := 0
	for _, n := range s.States {
		total += n
	}
	sb.WriteString("\n--- Behaviour Distribution ---\n")
	for st := AgentState(0); st < stateCount; st++ {
		if n := s.States[st]; n > 0 {
			fmt.Fprintf(&sb, "  %-18s %5.1f%%\n", st, pct(n, total))
		}
	}
	return sb.String()
}

func pct(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return float64(n) * 100 / float64(of)
}
