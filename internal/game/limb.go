package game

import "math"

// Limb is one of an agent's two striking appendages. Angles are degrees
// relative to the owner's facing; lengths are measured from the owner's centre.
type Limb struct {
	Angle       float64
	TargetAngle float64
	Len         float64
	TargetLen   float64
	Extending   bool
	Retracting  bool
}

func newLimb(restAngle, baseLen float64) Limb {
	return Limb{
		Angle:       restAngle,
		TargetAngle: restAngle,
		Len:         baseLen,
		TargetLen:   baseLen,
	}
}

// Active reports whether the limb is mid-attack.
func (l *Limb) Active() bool {
	return l.Extending || l.Retracting
}

// Idle reports whether the limb is passively tracking its target length.
func (l *Limb) Idle() bool {
	return !l.Extending && !l.Retracting
}

// extend starts an attack only from idle.
func (l *Limb) extend() {
	if l.Idle() {
		l.Extending = true
	}
}

// forceExtend restarts an attack regardless of the current phase.
func (l *Limb) forceExtend() {
	l.Extending = true
	l.Retracting = false
}

// retract flips an extending limb into its return phase.
func (l *Limb) retract() {
	l.Extending = false
	l.Retracting = true
}

func (l *Limb) reset(restAngle, baseLen float64) {
	*l = newLimb(restAngle, baseLen)
}

// update advances the limb one tick. It returns true on the tick an attack
// completes, i.e. retraction has converged on the rest length.
func (l *Limb) update(t Tuning) bool {
	l.Angle = LerpAngle(l.Angle, l.TargetAngle, t.LimbSmoothing)

	switch {
	case l.Extending:
		l.TargetLen = t.BaseLimbLen + t.LimbExtraRange
		l.Len = Lerp(l.Len, l.TargetLen, extendLerp)
		if math.Abs(l.Len-l.TargetLen) < extendSnap {
			l.retract()
		}
	case l.Retracting:
		l.TargetLen = t.BaseLimbLen
		l.Len = Lerp(l.Len, l.TargetLen, retractLerp)
		if math.Abs(l.Len-l.TargetLen) < retractSnap {
			l.Retracting = false
			return true
		}
	default:
		l.Len = Lerp(l.Len, l.TargetLen, idleLerp)
	}
	return false
}
