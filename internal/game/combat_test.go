package game

import (
	"math/rand"
	"testing"
)

// combatRig is a bare SimContext wired to a recording bus.
type combatRig struct {
	ctx    *SimContext
	events []Event
}

func newCombatRig() *combatRig {
	r := &combatRig{}
	bus := NewEventBus()
	bus.Subscribe(func(e Event) { r.events = append(r.events, e) })
	r.ctx = &SimContext{
		Tuning: DefaultTuning(),
		Rng:    rand.New(rand.NewSource(9)),
		Events: bus,
		NowMs:  1000,
	}
	return r
}

func (r *combatRig) damageEvents() []DamageEvent {
	var out []DamageEvent
	for _, e := range r.events {
		if d, ok := e.(DamageEvent); ok {
			out = append(out, d)
		}
	}
	return out
}

// newStriker returns an attacker at (100,200) facing +x whose left limb is
// extending at length 100.
func newStriker(tun Tuning) *Agent {
	a := NewAgent("Agent0", agent0Color, Vec2{X: 100, Y: 200}, tun)
	a.Limbs[0].Len = 100
	a.Limbs[0].Extending = true
	return a
}

func TestCombat_BodyHit(t *testing.T) {
	r := newCombatRig()
	tun := r.ctx.Tuning
	a := newStriker(tun)
	tip := a.LimbTip(0)
	target := NewAgent("Agent1", agent1Color, tip.Add(Vec2{X: 10}), tun)

	a.checkLimbCollisions(r.ctx, target, 0)

	if target.HP != tun.MaxHP-tun.BodyDamage {
		t.Fatalf("expected hp %.0f, got %.0f", tun.MaxHP-tun.BodyDamage, target.HP)
	}
	if !a.Limbs[0].Retracting {
		t.Fatal("a landed limb should retract")
	}
	if target.KnockbackTimer != bodyKnockbackMs || target.DamageFlash != damageFlashMs {
		t.Fatalf("expected knockback %v and flash %v, got %v/%v",
			float64(bodyKnockbackMs), float64(damageFlashMs), target.KnockbackTimer, target.DamageFlash)
	}
	if target.Velocity.X <= 0 {
		t.Fatalf("knockback should push away from the impact, velocity %+v", target.Velocity)
	}

	evs := r.damageEvents()
	if len(evs) != 1 {
		t.Fatalf("expected 1 damage event, got %d", len(evs))
	}
	ev := evs[0]
	if ev.Kind != HitBody || ev.Amount != tun.BodyDamage || ev.Blocked || ev.Attacker != "Agent0" || ev.Target != "Agent1" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.TimeMs != 1000 || ev.HPLeft != target.HP {
		t.Fatalf("event should carry the frame time and hp left: %+v", ev)
	}
	if st := a.Stats(); st.BodyHits != 1 || st.DamageDealt != tun.BodyDamage {
		t.Fatalf("attacker stats not recorded: %+v", st)
	}
}

func TestCombat_DefenseReducesDamage(t *testing.T) {
	r := newCombatRig()
	tun := r.ctx.Tuning
	a := newStriker(tun)
	target := NewAgent("Agent1", agent1Color, a.LimbTip(0).Add(Vec2{X: 10}), tun)
	target.State = StateDefendCenter

	a.checkLimbCollisions(r.ctx, target, 0)

	want := tun.BodyDamage * tun.DefenseBlockMult
	if !approx(target.HP, tun.MaxHP-want, 1e-9) {
		t.Fatalf("expected hp %.1f, got %.1f", tun.MaxHP-want, target.HP)
	}
	ev := r.damageEvents()[0]
	if !ev.Blocked || !approx(ev.Amount, want, 1e-9) {
		t.Fatalf("expected blocked %.1f, got %+v", want, ev)
	}
	st := target.Stats()
	if !approx(st.DamageBlocked, tun.BodyDamage-want, 1e-9) || !approx(st.DamageTaken, want, 1e-9) {
		t.Fatalf("defender stats wrong: %+v", st)
	}
}

func TestCombat_HPFloorsAtZero(t *testing.T) {
	r := newCombatRig()
	tun := r.ctx.Tuning
	a := newStriker(tun)
	target := NewAgent("Agent1", agent1Color, a.LimbTip(0).Add(Vec2{X: 10}), tun)
	target.HP = 5

	a.checkLimbCollisions(r.ctx, target, 0)
	if target.HP != 0 || !target.KnockedOut() {
		t.Fatalf("hp should floor at 0, got %.1f", target.HP)
	}
}

func TestCombat_RetractingLimbCannotHit(t *testing.T) {
	r := newCombatRig()
	tun := r.ctx.Tuning
	a := newStriker(tun)
	a.Limbs[0].retract()
	target := NewAgent("Agent1", agent1Color, a.LimbTip(0).Add(Vec2{X: 10}), tun)

	a.checkLimbCollisions(r.ctx, target, 0)
	if target.HP != tun.MaxHP || len(r.events) != 0 {
		t.Fatal("a retracting limb must not deal damage")
	}
}

func TestCombat_LimbClashDeflects(t *testing.T) {
	r := newCombatRig()
	tun := r.ctx.Tuning
	a := newStriker(tun)
	tip := a.LimbTip(0)

	// Defender faces -x with its left limb pointing straight at the tip and
	// its right limb swung well clear.
	target := NewAgent("Agent1", agent1Color, tip.Add(Vec2{X: tun.BaseLimbLen}), tun)
	target.Rot = 180
	target.Limbs[0].Angle = 0
	target.Limbs[1].Angle = 60

	a.checkLimbCollisions(r.ctx, target, 0)

	evs := r.damageEvents()
	if len(evs) != 1 || evs[0].Kind != HitLimb || evs[0].Amount != tun.LimbDamage {
		t.Fatalf("expected one limb hit of %.0f, got %+v", tun.LimbDamage, evs)
	}
	if target.HP != tun.MaxHP-tun.LimbDamage {
		t.Fatalf("expected hp %.0f, got %.0f", tun.MaxHP-tun.LimbDamage, target.HP)
	}
	if ta := target.Limbs[0].TargetAngle; ta < -deflectLimitDeg || ta > deflectLimitDeg {
		t.Fatalf("deflected angle %.1f outside limits", ta)
	}
	if target.KnockbackTimer != limbKnockbackMs {
		t.Fatalf("expected limb knockback timer, got %.0f", target.KnockbackTimer)
	}
	if a.Stats().Deflections != 1 || a.Stats().LimbHits != 1 {
		t.Fatalf("attacker stats wrong: %+v", a.Stats())
	}
	if !a.Limbs[0].Retracting {
		t.Fatal("attacking limb should retract after the clash")
	}
}

func TestCombat_AttackWithLimbStartsIdleLimb(t *testing.T) {
	r := newCombatRig()
	tun := r.ctx.Tuning
	a := NewAgent("Agent0", agent0Color, Vec2{X: 100, Y: 100}, tun)
	target := NewAgent("Agent1", agent1Color, Vec2{X: 400, Y: 400}, tun)

	a.attackWithLimb(r.ctx, target, 1)
	if !a.Limbs[1].Extending || a.Limbs[0].Active() {
		t.Fatal("only the chosen limb should extend")
	}
	if len(r.events) != 0 {
		t.Fatal("no hit expected at range")
	}
}
