package game

// AgentStats counts one agent's combat activity.
type AgentStats struct {
	BodyHits      int     // body hits landed
	LimbHits      int     // limb clashes won
	Deflections   int     // opponent limbs knocked off line
	DamageDealt   float64 // after the opponent's defense reduction
	DamageTaken   float64
	DamageBlocked float64 // damage prevented by own defense states
	Attacks       int     // attack states rolled
	KOs           int     // rounds won by knockout
}

// Hits is the total number of landed hits of any kind.
func (s AgentStats) Hits() int {
	return s.BodyHits + s.LimbHits
}

// BlockRatio is the share of incoming raw damage prevented by defending.
func (s AgentStats) BlockRatio() float64 {
	raw := s.DamageTaken + s.DamageBlocked
	if raw == 0 {
		return 0
	}
	return s.DamageBlocked / raw
}

func (s *AgentStats) recordDealt(kind HitKind, dmg float64) {
	switch kind {
	case HitBody:
		s.BodyHits++
	case HitLimb:
		s.LimbHits++
	}
	s.DamageDealt += dmg
}

func (s *AgentStats) recordTaken(dmg, prevented float64) {
	s.DamageTaken += dmg
	s.DamageBlocked += prevented
}
