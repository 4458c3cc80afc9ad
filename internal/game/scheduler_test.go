package game

import "testing"

func TestScheduler_FiresWhenDue(t *testing.T) {
	clock := &ManualClock{}
	s := NewScheduler(clock)

	var fired []string
	s.After(100, func() { fired = append(fired, "a") })
	s.After(50, func() { fired = append(fired, "b") })

	if n := s.Poll(); n != 0 {
		t.Fatalf("nothing due yet, %d fired", n)
	}
	clock.Set(60)
	if n := s.Poll(); n != 1 || len(fired) != 1 || fired[0] != "b" {
		t.Fatalf("expected only b, got %v", fired)
	}
	clock.Advance(40)
	if n := s.Poll(); n != 1 || fired[1] != "a" {
		t.Fatalf("expected a at t=100, got %v", fired)
	}
	if s.Len() != 0 {
		t.Fatalf("queue should be empty, has %d", s.Len())
	}
}

func TestScheduler_Cancel(t *testing.T) {
	clock := &ManualClock{}
	s := NewScheduler(clock)

	ran := false
	tok := s.After(10, func() { ran = true })
	if !tok.Valid() || !s.Pending(tok) {
		t.Fatal("fresh token should be valid and pending")
	}
	if !s.Cancel(tok) {
		t.Fatal("cancel should report removal")
	}
	if s.Cancel(tok) {
		t.Fatal("second cancel should be a no-op")
	}
	clock.Set(100)
	s.Poll()
	if ran {
		t.Fatal("cancelled callback ran")
	}
}

func TestScheduler_ZeroTokenNeverMatches(t *testing.T) {
	s := NewScheduler(&ManualClock{})
	s.After(10, func() {})
	var zero Token
	if zero.Valid() || s.Pending(zero) || s.Cancel(zero) {
		t.Fatal("zero token must not match a scheduled event")
	}
}

func TestScheduler_CallbackMayReschedule(t *testing.T) {
	clock := &ManualClock{}
	s := NewScheduler(clock)

	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 3 {
			s.After(10, tick)
		}
	}
	s.After(10, tick)
	for i := 0; i < 5; i++ {
		clock.Advance(10)
		s.Poll()
	}
	if count != 3 {
		t.Fatalf("expected 3 runs, got %d", count)
	}
}

func TestWallClock_Advances(t *testing.T) {
	c := NewWallClock()
	if c.NowMs() < 0 {
		t.Fatal("wall clock went negative")
	}
}
