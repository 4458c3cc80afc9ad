package game

import (
	"strings"
	"testing"
)

// playTwoRounds ends round 1 with an Agent0 win at tick 1 and round 2 with a
// double KO at tick 2.
func playTwoRounds(t *testing.T) (*Match, *RoundReporter) {
	t.Helper()
	m := NewMatch(WithMatchSeed(1))
	r := NewRoundReporter(m)

	m.AssignState(m.Agent(0), StateJabLeft)
	m.Agent(1).HP = 0
	m.Step(16, 16)
	m.Restart()

	m.Agent(0).HP = 0
	m.Agent(1).HP = 0
	m.Step(32, 16)
	return m, r
}

func TestRoundReporter_RecordsRounds(t *testing.T) {
	_, r := playTwoRounds(t)

	hist := r.History()
	if len(hist) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(hist))
	}
	first := hist[0]
	if first.Round != 1 || first.Outcome != OutcomeAgent0Wins || first.Winner != "Agent0" {
		t.Fatalf("unexpected first round %+v", first)
	}
	if first.Ticks() != 1 || first.DurationMs != 16 || first.HPLeft[1] != 0 {
		t.Fatalf("first round length or hp wrong: %+v", first)
	}
	if first.States[StateJabLeft] != 1 {
		t.Fatalf("behaviour tally missing: %v", first.States)
	}

	last := r.Latest()
	if last == nil || last.Round != 2 || last.Outcome != OutcomeDoubleKO || last.Winner != "" {
		t.Fatalf("unexpected latest round %+v", last)
	}
	if last.StartTick != 1 || last.EndTick != 2 {
		t.Fatalf("second round should span ticks 1..2, got %d..%d", last.StartTick, last.EndTick)
	}
}

func TestRoundReporter_Summary(t *testing.T) {
	_, r := playTwoRounds(t)
	s := r.Summary()
	if s.Rounds != 2 || s.Wins["Agent0"] != 1 || s.DoubleKOs != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.MinTicks != 1 || s.MaxTicks != 1 || s.AvgTicks() != 1 {
		t.Fatalf("round length stats wrong: %+v", s)
	}
}

func TestRoundReporter_LatestEmpty(t *testing.T) {
	r := NewRoundReporter(NewMatch(WithMatchSeed(1)))
	if r.Latest() != nil || r.Summary().Rounds != 0 {
		t.Fatal("fresh reporter should have no rounds")
	}
}

func TestMergeSummaries(t *testing.T) {
	a := newSeriesSummary()
	a.add(RoundReport{StartTick: 0, EndTick: 100, Outcome: OutcomeAgent0Wins, Winner: "Agent0",
		States: map[AgentState]int{StateForward: 2}})
	b := newSeriesSummary()
	b.add(RoundReport{StartTick: 0, EndTick: 40, Outcome: OutcomeAgent1Wins, Winner: "Agent1",
		States: map[AgentState]int{StateForward: 1, StateJabLeft: 3}})
	b.add(RoundReport{StartTick: 40, EndTick: 300, Outcome: OutcomeAgent1Wins, Winner: "Agent1"})

	m := MergeSummaries(a, nil, newSeriesSummary(), b)
	if m.Rounds != 3 || m.Wins["Agent0"] != 1 || m.Wins["Agent1"] != 2 {
		t.Fatalf("unexpected merge %+v", m)
	}
	if m.MinTicks != 40 || m.MaxTicks != 260 || m.TotalTicks != 400 {
		t.Fatalf("tick stats wrong: min=%d max=%d total=%d", m.MinTicks, m.MaxTicks, m.TotalTicks)
	}
	if m.States[StateForward] != 3 || m.States[StateJabLeft] != 3 {
		t.Fatalf("state tallies wrong: %v", m.States)
	}
}

func TestSeriesSummary_Format(t *testing.T) {
	_, r := playTwoRounds(t)
	out := r.Summary().Format()
	for _, want := range []string{
		"=== Series Report (2 rounds) ===",
		"--- Results ---",
		"Agent0",
		"double KO",
		"--- Behaviour Distribution ---",
		"jab_left",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("format missing %q:\n%s", want, out)
		}
	}

	var empty *SeriesSummary
	if empty.Format() != "No rounds finished.\n" {
		t.Fatal("nil summary should format as empty")
	}
}
