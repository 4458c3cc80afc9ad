package game

import "time"

// Clock reports elapsed milliseconds on some timeline.
type Clock interface {
	NowMs() float64
}

// WallClock measures real time since construction.
type WallClock struct {
	start time.Time
}

// NewWallClock starts a wall clock at zero.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

// NowMs returns milliseconds since the clock was created.
func (c *WallClock) NowMs() float64 {
	return float64(time.Since(c.start)) / float64(time.Millisecond)
}

// ManualClock only moves when told to. Used by headless runs and tests.
type ManualClock struct {
	ms float64
}

// NowMs returns the current manual time.
func (c *ManualClock) NowMs() float64 { return c.ms }

// Set moves the clock to ms.
func (c *ManualClock) Set(ms float64) { c.ms = ms }

// Advance moves the clock forward by ms.
func (c *ManualClock) Advance(ms float64) { c.ms += ms }

// Token identifies a scheduled event. The zero Token never matches.
type Token struct {
	id uint64
}

// Valid reports whether the token was issued by a scheduler.
func (t Token) Valid() bool { return t.id != 0 }

type scheduled struct {
	id  uint64
	due float64
	fn  func()
}

// Scheduler runs one-shot callbacks once their due time has passed on its
// clock. Callbacks only ever run inside Poll, so they execute on whichever
// goroutine drives the simulation.
type Scheduler struct {
	clock   Clock
	nextID  uint64
	pending []scheduled
}

// NewScheduler creates a scheduler reading time from clock.
func NewScheduler(clock Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

// After schedules fn to run delayMs from now and returns its cancellation token.
func (s *Scheduler) After(delayMs float64, fn func()) Token {
	s.nextID++
	s.pending = append(s.pending, scheduled{
		id:  s.nextID,
		due: s.clock.NowMs() + delayMs,
		fn:  fn,
	})
	return Token{id: s.nextID}
}

// Cancel invalidates a pending event. It reports whether anything was removed.
func (s *Scheduler) Cancel(tok Token) bool {
	for i, p := range s.pending {
		if p.id == tok.id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Pending reports whether tok is still waiting to fire.
func (s *Scheduler) Pending(tok Token) bool {
	for _, p := range s.pending {
		if p.id == tok.id {
			return true
		}
	}
	return false
}

// Len returns the number of waiting events.
func (s *Scheduler) Len() int { return len(s.pending) }

// Poll fires every due event in scheduling order and returns how many ran.
func (s *Scheduler) Poll() int {
	now := s.clock.NowMs()
	var due []scheduled
	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.due <= now {
			due = append(due, p)
		} else {
			kept = append(kept, p)
		}
	}
	s.pending = kept
	for _, p := range due {
		p.fn()
	}
	return len(due)
}
