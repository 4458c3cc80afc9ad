package game

import (
	"image/color"
	"math"
)

// Health bar bands.
var (
	hpColorHigh = color.RGBA{R: 0x00, G: 0xFF, B: 0x00, A: 0xFF} // lime
	hpColorMid  = color.RGBA{R: 0xFF, G: 0xFF, B: 0x00, A: 0xFF} // yellow
	hpColorLow  = color.RGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF} // red
)

// LimbSnapshot is one limb drawn as a segment from the body centre to a disc.
type LimbSnapshot struct {
	Origin Vec2
	Tip    Vec2 // clamped to the opponent's body surface
	RawTip Vec2 // simulation tip, used for collisions
	Radius float64
	Active bool
}

// AgentSnapshot is what a renderer needs to draw one agent.
type AgentSnapshot struct {
	Name       string
	Pos        Vec2
	Rot        float64
	Radius     float64
	BaseColor  color.RGBA
	Fill       color.RGBA // base colour, or the damage flash colour
	Flashing   bool
	State      AgentState
	HP         float64
	MaxHP      float64
	HPColor    color.RGBA
	Knockback  bool
	Limbs      [2]LimbSnapshot
	HealthBarW float64
	HealthBarH float64
	HealthBarY float64 // top edge of the bar
}

// HPFraction is HP/MaxHP in [0,1].
func (s AgentSnapshot) HPFraction() float64 {
	if s.MaxHP <= 0 {
		return 0
	}
	return Clamp(s.HP/s.MaxHP, 0, 1)
}

// MatchSnapshot is an immutable view of a whole frame.
type MatchSnapshot struct {
	Tick         int
	Round        int
	NowMs        float64
	ArenaSize    float64
	Outcome      MatchOutcome
	Winner       string
	ResetPending bool
	Agents       [2]AgentSnapshot
}

// Snapshot captures the current frame for rendering.
func (m *Match) Snapshot() MatchSnapshot {
	a0, a1 := m.agents[0], m.agents[1]
	return MatchSnapshot{
		Tick:         m.tick,
		Round:        m.round,
		NowMs:        m.frames.now,
		ArenaSize:    m.tuning.ArenaSize,
		Outcome:      m.outcome,
		Winner:       winnerName(m.outcome, a0, a1),
		ResetPending: m.ResetPending(),
		Agents: [2]AgentSnapshot{
			snapshotAgent(a0, a1, m.tuning),
			snapshotAgent(a1, a0, m.tuning),
		},
	}
}

func snapshotAgent(a, opp *Agent, t Tuning) AgentSnapshot {
	s := AgentSnapshot{
		Name:       a.Name,
		Pos:        a.Pos,
		Rot:        a.Rot,
		Radius:     t.AgentRadius,
		BaseColor:  a.Color,
		Fill:       a.Color,
		Flashing:   a.DamageFlash > 0,
		State:      a.State,
		HP:         a.HP,
		MaxHP:      a.MaxHP,
		Knockback:  a.KnockbackTimer > 0,
		HealthBarW: t.AgentRadius * 1.5,
		HealthBarH: 6,
		HealthBarY: a.Pos.Y - t.AgentRadius - 15,
	}
	if s.Flashing {
		s.Fill = FlashColor(a.DamageFlash)
	}
	s.HPColor = HealthColor(s.HPFraction())

	for i := range a.Limbs {
		raw := a.LimbTip(i)
		s.Limbs[i] = LimbSnapshot{
			Origin: a.Pos,
			Tip:    clampTipToBody(raw, opp.Pos, t),
			RawTip: raw,
			Radius: t.LimbRadius,
			Active: a.Limbs[i].Active(),
		}
	}
	return s
}

// FlashColor pulses between red and light grey while flashMs counts down.
func FlashColor(flashMs float64) color.RGBA {
	fi := math.Sin(flashMs*0.05)*0.5 + 0.5
	grey := 217 * (1 - fi)
	return color.RGBA{
		R: uint8(Clamp(255*fi+grey, 0, 255)),
		G: uint8(Clamp(grey, 0, 255)),
		B: uint8(Clamp(grey, 0, 255)),
		A: 0xFF,
	}
}

// HealthColor picks the health bar band for a fraction of max HP.
func HealthColor(frac float64) color.RGBA {
	switch {
	case frac > 0.5:
		return hpColorHigh
	case frac > 0.25:
		return hpColorMid
	default:
		return hpColorLow
	}
}

// clampTipToBody pulls a drawn limb tip that overlaps the opponent's body
// back to just inside contact distance, so a disc never renders inside the
// other agent.
func clampTipToBody(tip, body Vec2, t Tuning) Vec2 {
	contact := t.AgentRadius + t.LimbRadius
	if Distance(tip, body) >= contact {
		return tip
	}
	dir := Normalize(tip.X-body.X, tip.Y-body.Y)
	return body.Add(dir.Scale(contact - 2))
}
