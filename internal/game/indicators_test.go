package game

import "testing"

func TestIndicators_FromDamageEvents(t *testing.T) {
	bus := NewEventBus()
	in := NewIndicators(0)
	in.Attach(bus)

	bus.Emit(DamageEvent{TimeMs: 100, Amount: 20, Pos: Vec2{X: 5, Y: 6}})
	bus.Emit(DamageEvent{TimeMs: 200, Amount: 1.5, Blocked: true})
	bus.Emit(StateChangeEvent{TimeMs: 200})

	live := in.Live()
	if len(live) != 2 {
		t.Fatalf("expected 2 indicators, got %d", len(live))
	}
	if live[0].Text != "-20" || live[0].Pos != (Vec2{X: 5, Y: 6}) || live[0].Blocked {
		t.Fatalf("unexpected first indicator %+v", live[0])
	}
	if live[1].Text != "-2" || !live[1].Blocked {
		t.Fatalf("unexpected second indicator %+v", live[1])
	}
}

func TestIndicators_ExpireAfterTTL(t *testing.T) {
	bus := NewEventBus()
	in := NewIndicators(0)
	in.Attach(bus)
	if in.TTL() != damageIndicatorTTLMs {
		t.Fatalf("zero ttl should default to %d, got %.0f", damageIndicatorTTLMs, in.TTL())
	}

	bus.Emit(DamageEvent{TimeMs: 0, Amount: 5})
	bus.Emit(DamageEvent{TimeMs: 600, Amount: 5})

	in.Expire(999)
	if len(in.Live()) != 2 {
		t.Fatal("nothing should expire before the ttl")
	}
	in.Expire(1000)
	if len(in.Live()) != 1 || in.Live()[0].BornMs != 600 {
		t.Fatalf("only the first indicator should expire, got %+v", in.Live())
	}
}

func TestIndicators_ClearedOnReset(t *testing.T) {
	bus := NewEventBus()
	in := NewIndicators(500)
	in.Attach(bus)
	bus.Emit(DamageEvent{Amount: 5})
	bus.Emit(ResetEvent{Round: 2})
	if len(in.Live()) != 0 {
		t.Fatal("reset should clear indicators")
	}
}

func TestDamageIndicator_Alpha(t *testing.T) {
	d := DamageIndicator{BornMs: 100}
	if a := d.Alpha(100, 1000); a != 1 {
		t.Fatalf("fresh indicator should be opaque, got %v", a)
	}
	if a := d.Alpha(600, 1000); !approx(a, 0.5, 1e-9) {
		t.Fatalf("half-life alpha should be 0.5, got %v", a)
	}
	if a := d.Alpha(5000, 1000); a != 0 {
		t.Fatalf("expired indicator should be transparent, got %v", a)
	}
	if a := d.Alpha(100, 0); a != 0 {
		t.Fatal("zero ttl should be transparent")
	}
}
