package game

import "fmt"

// DamageIndicator is a floating damage number shown at an impact point.
type DamageIndicator struct {
	Pos     Vec2
	Text    string
	Blocked bool
	BornMs  float64
}

// Age returns how long the indicator has been visible at nowMs.
func (d DamageIndicator) Age(nowMs float64) float64 { return nowMs - d.BornMs }

// Alpha fades linearly from 1 to 0 over ttlMs.
func (d DamageIndicator) Alpha(nowMs, ttlMs float64) float64 {
	if ttlMs <= 0 {
		return 0
	}
	return Clamp(1-d.Age(nowMs)/ttlMs, 0, 1)
}

// Indicators tracks short-lived damage numbers fed from DamageEvents.
type Indicators struct {
	ttlMs float64
	items []DamageIndicator
}

// NewIndicators creates a tracker whose entries live for ttlMs. A zero ttl
// uses the stock one second.
func NewIndicators(ttlMs float64) *Indicators {
	if ttlMs <= 0 {
		ttlMs = damageIndicatorTTLMs
	}
	return &Indicators{ttlMs: ttlMs}
}

// Attach subscribes the tracker to a bus.
func (in *Indicators) Attach(b *EventBus) {
	b.Subscribe(in.observe)
}

func (in *Indicators) observe(e Event) {
	switch ev := e.(type) {
	case DamageEvent:
		in.items = append(in.items, DamageIndicator{
			Pos:     ev.Pos,
			Text:    fmt.Sprintf("-%.0f", ev.Amount),
			Blocked: ev.Blocked,
			BornMs:  ev.TimeMs,
		})
	case ResetEvent:
		in.items = in.items[:0]
	}
}

// Expire drops indicators older than the ttl.
func (in *Indicators) Expire(nowMs float64) {
	kept := in.items[:0]
	for _, d := range in.items {
		if d.Age(nowMs) < in.ttlMs {
			kept = append(kept, d)
		}
	}
	in.items = kept
}

// Live returns the current indicators, oldest first.
func (in *Indicators) Live() []DamageIndicator { return in.items }

// TTL returns the lifetime in milliseconds.
func (in *Indicators) TTL() float64 { return in.ttlMs }
