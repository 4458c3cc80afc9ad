package game

import (
	"testing"
)

// --- Invariant helpers ---

// checkHPBounded verifies hp never leaves [0, MaxHP].
func checkHPBounded(t *testing.T, ts *TestSim) {
	t.Helper()
	for _, a := range ts.Match.Agents() {
		if a.HP < 0 || a.HP > a.MaxHP {
			t.Errorf("T=%d %s has out-of-bounds hp: %.2f", ts.CurrentTick(), a.Name, a.HP)
		}
	}
}

// checkInsideArena verifies every body centre stays at least one radius from
// each wall.
func checkInsideArena(t *testing.T, ts *TestSim) {
	t.Helper()
	tun := ts.Match.Tuning()
	lo, hi := tun.AgentRadius, tun.ArenaSize-tun.AgentRadius
	for _, a := range ts.Match.Agents() {
		if a.Pos.X < lo || a.Pos.X > hi || a.Pos.Y < lo || a.Pos.Y > hi {
			t.Errorf("T=%d %s left the arena: (%.1f,%.1f)", ts.CurrentTick(), a.Name, a.Pos.X, a.Pos.Y)
		}
	}
}

// checkLimbReach verifies limb length stays between rest and full extension.
func checkLimbReach(t *testing.T, ts *TestSim) {
	t.Helper()
	tun := ts.Match.Tuning()
	const slack = 1e-6
	for _, a := range ts.Match.Agents() {
		for i, l := range a.Limbs {
			if l.Len < tun.BaseLimbLen-slack || l.Len > tun.BaseLimbLen+tun.LimbExtraRange+slack {
				t.Errorf("T=%d %s limb %d length %.2f out of reach", ts.CurrentTick(), a.Name, i, l.Len)
			}
			if l.Extending && l.Retracting {
				t.Errorf("T=%d %s limb %d both extending and retracting", ts.CurrentTick(), a.Name, i)
			}
		}
	}
}

// checkOneKOPerRound verifies a round is decided at most once.
func checkOneKOPerRound(t *testing.T, ts *TestSim) {
	t.Helper()
	kos := ts.SimLog.CountCategory("match", "ko")
	resets := ts.SimLog.CountCategory("match", "reset")
	if kos > resets+1 {
		t.Errorf("%d knockouts over %d resets", kos, resets)
	}
}

// checkRerollSpacing verifies behaviour re-rolls are at least one interval
// apart. Needs a verbose SimLog.
func checkRerollSpacing(t *testing.T, ts *TestSim) {
	t.Helper()
	minGap := int(ts.Match.Tuning().StateIntervalMs / simFrameMs)
	last := -1
	for _, e := range ts.SimLog.Filter("state", "") {
		if e.Tick == last {
			continue
		}
		if last >= 0 && e.Tick-last < minGap {
			t.Errorf("re-rolls at T=%d and T=%d are closer than %d ticks", last, e.Tick, minGap)
		}
		last = e.Tick
	}
}

// runChecked steps ts for n ticks, running the per-tick checks after each.
func runChecked(t *testing.T, ts *TestSim, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		ts.RunTicks(1)
		checkHPBounded(t, ts)
		checkInsideArena(t, ts)
		checkLimbReach(t, ts)
		if t.Failed() {
			t.Fatalf("invariant broken at T=%d\n%s", ts.CurrentTick(), ts.SimLog.Summary(ts.Match))
		}
	}
}

// --- Invariant test scenarios (run with verbose logging) ---

func TestInvariant_BoundsHold_LongRun(t *testing.T) {
	for _, seed := range []int64{3, 42, 1234} {
		ts := NewTestSim(WithSeed(seed), WithVerbose(true))
		runChecked(t, ts, 6000)
		checkOneKOPerRound(t, ts)
		checkRerollSpacing(t, ts)
	}
}

func TestInvariant_BoundsHold_Cornered(t *testing.T) {
	tun := DefaultTuning()
	ts := NewTestSim(
		WithSeed(11),
		WithAgentPos(0, tun.AgentRadius, tun.AgentRadius),
		WithAgentPos(1, tun.AgentRadius+85, tun.AgentRadius),
		WithAgentState(0, StateDefendCenter),
		WithAgentState(1, StateSideAttackLeft),
	)
	runChecked(t, ts, 2000)
}

func TestInvariant_KnockedOutStaysDownUntilReset(t *testing.T) {
	ts := NewTestSim(WithSeed(5), WithAgentHP(1, 0))
	for i := 0; i < 150; i++ {
		ts.RunTicks(1)
		if ts.Match.Round() != 1 {
			break
		}
		if hp := ts.Agent(1).HP; hp != 0 {
			t.Fatalf("T=%d knocked-out agent recovered to %.1f before reset", ts.CurrentTick(), hp)
		}
		if ts.Match.Outcome() != OutcomeAgent0Wins {
			t.Fatalf("T=%d outcome changed to %s", ts.CurrentTick(), ts.Match.Outcome())
		}
	}
}

func TestInvariant_SeparationAfterClosing(t *testing.T) {
	ts := NewTestSim(WithSeed(1), WithFrozenStates())
	ts.RunTicks(300)
	tun := DefaultTuning()
	if d := Distance(ts.Agent(0).Pos, ts.Agent(1).Pos); d < tun.AgentRadius*2 {
		t.Fatalf("bodies overlap without any knockback: %.1f", d)
	}
}
