package game

import (
	"testing"
)

func TestAgent_ForwardClosesDistance(t *testing.T) {
	ts := NewTestSim(WithSeed(1), WithFrozenStates())
	before := Distance(ts.Agent(0).Pos, ts.Agent(1).Pos)
	ts.RunTicks(10)
	after := Distance(ts.Agent(0).Pos, ts.Agent(1).Pos)

	if before-after < 30 {
		t.Fatalf("expected both agents to close ~40px in 10 ticks, closed %.1f", before-after)
	}
}

func TestAgent_ForwardStopsOutsideStandoff(t *testing.T) {
	ts := NewTestSim(WithSeed(1), WithFrozenStates())
	ts.RunTicks(400)

	tun := DefaultTuning()
	d := Distance(ts.Agent(0).Pos, ts.Agent(1).Pos)
	if d > tun.AgentRadius*forwardStopFactor+tun.MoveSpeed*2 {
		t.Fatalf("agents should have closed to the standoff distance, at %.1f", d)
	}
	if d < tun.AgentRadius*2+separationBuffer {
		t.Fatalf("agents overlap after closing: %.1f", d)
	}
}

func TestAgent_BackwardRetreats(t *testing.T) {
	ts := NewTestSim(WithSeed(1), WithFrozenStates(),
		WithAgentPos(0, 200, 250), WithAgentPos(1, 300, 250),
		WithAgentState(0, StateBackward))
	ts.RunTicks(5)

	if x := ts.Agent(0).Pos.X; x >= 200 {
		t.Fatalf("agent0 should retreat along -x, at %.1f", x)
	}
}

func TestAgent_StrafeKeepsRange(t *testing.T) {
	ts := NewTestSim(WithSeed(1), WithFrozenStates(),
		WithAgentPos(0, 150, 250), WithAgentPos(1, 350, 250),
		WithAgentState(0, StateStrafeRight))
	start := ts.Agent(0).Pos
	ts.Agent(1).State = StateDefendCenter
	ts.RunTicks(1)

	a := ts.Agent(0)
	if a.Pos.Y == start.Y {
		t.Fatal("strafe should move perpendicular to the opponent")
	}
	if !approx(a.Pos.X, start.X, 1e-9) {
		t.Fatalf("strafe should not close distance on the first tick, x moved to %.3f", a.Pos.X)
	}
}

func TestAgent_TryMoveBlocksOverlap(t *testing.T) {
	tun := DefaultTuning()
	a := NewAgent("a", agent0Color, Vec2{X: 100, Y: 200}, tun)
	b := NewAgent("b", agent1Color, Vec2{X: 183, Y: 200}, tun)

	a.tryMove(Vec2{X: 2}, b, tun)
	if a.Pos.X != 100 {
		t.Fatalf("move into the buffer should be refused, x=%.1f", a.Pos.X)
	}
}

func TestAgent_TryMovePushesApartWhenOverlapping(t *testing.T) {
	tun := DefaultTuning()
	a := NewAgent("a", agent0Color, Vec2{X: 200, Y: 200}, tun)
	b := NewAgent("b", agent1Color, Vec2{X: 250, Y: 200}, tun)

	a.tryMove(Vec2{X: 2}, b, tun)
	// min distance 82, overlap 32, half of it applied.
	if !approx(a.Pos.X, 184, 1e-9) || a.Pos.Y != 200 {
		t.Fatalf("expected push to (184,200), got %+v", a.Pos)
	}
}

func TestAgent_ClampToArena(t *testing.T) {
	tun := DefaultTuning()
	a := NewAgent("a", agent0Color, Vec2{}, tun)
	a.Pos = Vec2{X: -50, Y: 600}
	a.clampToArena(tun)
	if a.Pos != (Vec2{X: tun.AgentRadius, Y: tun.ArenaSize - tun.AgentRadius}) {
		t.Fatalf("expected clamp to arena interior, got %+v", a.Pos)
	}
}

func TestAgent_RotationEasesTowardOpponent(t *testing.T) {
	ts := NewTestSim(WithSeed(1), WithFrozenStates())
	ts.RunTicks(1)
	if r := ts.Agent(0).Rot; !approx(r, 45*rotationSmoothing, 1e-6) {
		t.Fatalf("expected rot %.2f after one tick, got %.4f", 45*rotationSmoothing, r)
	}
	ts.RunTicks(200)
	if r := ts.Agent(0).Rot; !approx(r, 45, 0.5) {
		t.Fatalf("rot should converge to the bearing 45, got %.2f", r)
	}
}

func TestAgent_KnockbackOverridesBehaviour(t *testing.T) {
	ts := NewTestSim(WithSeed(1), WithFrozenStates(),
		WithAgentPos(0, 200, 250), WithAgentPos(1, 400, 250))
	a := ts.Agent(0)
	a.Velocity = Vec2{X: -20}
	a.KnockbackTimer = 300
	ts.RunTicks(1)

	// 200 + (-20 * 16 * 0.1) instead of stepping forward.
	if !approx(a.Pos.X, 168, 1e-9) {
		t.Fatalf("expected knockback drift to x=168, got %.3f", a.Pos.X)
	}
	if !approx(a.Velocity.X, -18, 1e-9) {
		t.Fatalf("velocity should decay by 0.9, got %.3f", a.Velocity.X)
	}
	if a.KnockbackTimer != 284 {
		t.Fatalf("timer should count down by dt, got %.1f", a.KnockbackTimer)
	}
}

func TestAgent_ResetRestoresSpawn(t *testing.T) {
	tun := DefaultTuning()
	a := NewAgent("a", agent0Color, Vec2{X: 40, Y: 40}, tun)
	a.Pos = Vec2{X: 300, Y: 300}
	a.HP = 12
	a.Rot = 90
	a.State = StateDefendLeft
	a.Limbs[0].forceExtend()
	a.DamageFlash = 100

	a.Reset(tun)
	if a.Pos != a.Spawn() || a.HP != tun.MaxHP || a.Rot != 0 || a.State != StateForward {
		t.Fatalf("reset left stale state: %+v", a)
	}
	if a.Limbs[0].Active() || a.Limbs[0].Angle != restLimbAngleDeg || a.Limbs[1].Angle != -restLimbAngleDeg {
		t.Fatal("limbs should be back at rest")
	}
	if a.DamageFlash != 0 || a.KnockbackTimer != 0 {
		t.Fatal("timers should be cleared")
	}
}

func TestAgentState_Classes(t *testing.T) {
	for s := AgentState(0); s < stateCount; s++ {
		n := 0
		for _, in := range []bool{s.IsMovement(), s.IsAttack(), s.IsDefense()} {
			if in {
				n++
			}
		}
		if n != 1 {
			t.Errorf("state %s should belong to exactly one class", s)
		}
	}
	if StateJabRight.attackLimb() != 1 || StateSideAttackLeft.attackLimb() != 0 {
		t.Fatal("attack limb mapping wrong")
	}
}
