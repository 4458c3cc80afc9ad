package game

import (
	"strings"
	"testing"
)

func TestSimLog_RecordsEvents(t *testing.T) {
	bus := NewEventBus()
	tick := 0
	sl := NewSimLog(false)
	sl.Attach(bus, func() int { return tick })

	tick = 5
	bus.Emit(DamageEvent{Attacker: "Agent0", Target: "Agent1", Kind: HitBody, Amount: 20, HPLeft: 80})
	bus.Emit(StateChangeEvent{Agent: "Agent0", From: StateForward, To: StateJabLeft})
	tick = 9
	bus.Emit(KOEvent{Outcome: OutcomeAgent0Wins, Winner: "Agent0"})
	bus.Emit(ResetEvent{Round: 2})

	if n := len(sl.Entries()); n != 3 {
		t.Fatalf("state changes are verbose-only; expected 3 entries, got %d", n)
	}
	hit, ok := sl.LastOf("hit", "body")
	if !ok || hit.Tick != 5 || hit.Agent != "Agent0" || hit.NumVal != 20 {
		t.Fatalf("unexpected hit entry %+v", hit)
	}
	if !strings.Contains(hit.Value, "Agent1 (80 left)") {
		t.Fatalf("hit value missing target: %q", hit.Value)
	}
	if !sl.HasEntry("match", "ko", "winner=Agent0") || !sl.HasEntry("match", "reset", "round 2") {
		t.Fatalf("match entries missing:\n%s", sl.Format())
	}
}

func TestSimLog_VerboseRecordsStates(t *testing.T) {
	bus := NewEventBus()
	sl := NewSimLog(true)
	sl.Attach(bus, func() int { return 1 })
	bus.Emit(StateChangeEvent{Agent: "Agent1", From: StateForward, To: StateDefendLeft})

	e, ok := sl.LastOf("state", "defend_left")
	if !ok || e.Agent != "Agent1" || e.Value != "forward → defend_left" {
		t.Fatalf("unexpected state entry %+v", e)
	}
}

func TestSimLog_Filters(t *testing.T) {
	sl := NewSimLog(false)
	sl.Add(1, "Agent0", "hit", "body", "a", 0)
	sl.Add(2, "Agent1", "hit", "limb", "b", 0)
	sl.Add(3, "--", "match", "ko", "c", 0)

	if n := sl.CountCategory("hit", ""); n != 2 {
		t.Fatalf("expected 2 hits, got %d", n)
	}
	if n := len(sl.FilterAgent("Agent1")); n != 1 {
		t.Fatalf("expected 1 Agent1 entry, got %d", n)
	}
	if n := len(sl.FilterTickRange(2, 3)); n != 2 {
		t.Fatalf("expected 2 entries in T=2..3, got %d", n)
	}
	if out := sl.FormatRange(3, 3); !strings.HasPrefix(out, "[T=0003] --") {
		t.Fatalf("unexpected range format %q", out)
	}
	if _, ok := sl.LastOf("match", "reset"); ok {
		t.Fatal("LastOf should miss absent entries")
	}
}

func TestSimLog_Summary(t *testing.T) {
	ts := NewTestSim(WithSeed(1), WithFrozenStates())
	ts.RunTicks(3)
	out := ts.SimLog.Summary(ts.Match)
	if !strings.Contains(out, "T=0003") || !strings.Contains(out, "Agent0: hp=100/100") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}
