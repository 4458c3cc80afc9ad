package game

import (
	"time"

	"github.com/Garsondee/Duel-Sense/internal/config"
)

// Tuning holds every numeric constant of a match. Distances are arena pixels,
// speeds are pixels per tick, times are milliseconds.
type Tuning struct {
	ArenaSize        float64
	AgentRadius      float64
	LimbRadius       float64
	MoveSpeed        float64
	BaseLimbLen      float64
	LimbExtraRange   float64
	LimbDamage       float64 // limb-vs-limb hit
	BodyDamage       float64 // limb-vs-body hit
	DefenseBlockMult float64 // damage multiplier while defending
	KnockbackForce   float64
	LimbSmoothing    float64
	StateIntervalMs  float64 // behaviour re-roll period
	ResetDelayMs     float64 // KO to reset delay
	MaxHP            float64
}

// DefaultTuning returns the stock arena.
func DefaultTuning() Tuning {
	return Tuning{
		ArenaSize:        500,
		AgentRadius:      40,
		LimbRadius:       20,
		MoveSpeed:        2,
		BaseLimbLen:      75,
		LimbExtraRange:   40,
		LimbDamage:       5,
		BodyDamage:       20,
		DefenseBlockMult: 0.3,
		KnockbackForce:   15,
		LimbSmoothing:    0.15,
		StateIntervalMs:  2000,
		ResetDelayMs:     3000,
		MaxHP:            100,
	}
}

// TuningFromConfig converts the sim section of the configuration. Durations
// become milliseconds.
func TuningFromConfig(c config.SimConfig) Tuning {
	return Tuning{
		ArenaSize:        c.ArenaSize,
		AgentRadius:      c.AgentRadius,
		LimbRadius:       c.LimbRadius,
		MoveSpeed:        c.MoveSpeed,
		BaseLimbLen:      c.BaseLimbLen,
		LimbExtraRange:   c.LimbExtraRange,
		LimbDamage:       c.LimbDamage,
		BodyDamage:       c.BodyDamage,
		DefenseBlockMult: c.DefenseBlockMult,
		KnockbackForce:   c.KnockbackForce,
		LimbSmoothing:    c.LimbSmoothing,
		StateIntervalMs:  durationMs(c.StateInterval),
		ResetDelayMs:     durationMs(c.ResetDelay),
		MaxHP:            c.MaxHP,
	}
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Motion-model constants. Not exposed through configuration.
const (
	rotationSmoothing    = 0.1  // rot -> targetRot per tick
	extendLerp           = 0.3  // len -> extended length per tick
	retractLerp          = 0.2  // len -> rest length per tick
	idleLerp             = 0.1  // passive drift to targetLen
	extendSnap           = 2.0  // |len-target| below this flips to retracting
	retractSnap          = 1.0  // |len-target| below this ends the attack
	forwardStopFactor    = 2.5  // Forward stops closing inside radius*this
	separationBuffer     = 2.0  // extra gap on top of 2*radius
	knockbackVelScale    = 0.1  // position += velocity*dt*this
	knockbackDecay       = 0.9  // velocity *= this per tick
	bodyKnockbackMs      = 300  // timer after a body hit
	limbKnockbackMs      = 200  // timer after a limb clash
	limbKnockbackMul     = 0.3  // share of KnockbackForce for limb clashes
	damageFlashMs        = 500  // flash timer after any hit
	deflectJitterDeg     = 30.0 // uniform jitter on deflection
	deflectLimitDeg      = 120.0
	sideAttackAngleDeg   = 90.0
	restLimbAngleDeg     = 15.0
	stateCount           = 11
	damageIndicatorTTLMs = 1000
)
