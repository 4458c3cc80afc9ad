package game

import (
	"image/color"
	"math/rand"

	"go.uber.org/zap"
)

// AgentState is the behaviour an agent executes until the next re-roll.
type AgentState int

const (
	StateForward AgentState = iota
	StateBackward
	StateStrafeRight
	StateStrafeLeft
	StateJabLeft
	StateJabRight
	StateSideAttackLeft
	StateSideAttackRight
	StateDefendCenter
	StateDefendRight
	StateDefendLeft
)

func (s AgentState) String() string {
	switch s {
	case StateForward:
		return "forward"
	case StateBackward:
		return "backward"
	case StateStrafeRight:
		return "strafe_right"
	case StateStrafeLeft:
		return "strafe_left"
	case StateJabLeft:
		return "jab_left"
	case StateJabRight:
		return "jab_right"
	case StateSideAttackLeft:
		return "side_attack_left"
	case StateSideAttackRight:
		return "side_attack_right"
	case StateDefendCenter:
		return "defend_center"
	case StateDefendRight:
		return "defend_right"
	case StateDefendLeft:
		return "defend_left"
	default:
		return "unknown"
	}
}

// IsAttack reports states 4-7.
func (s AgentState) IsAttack() bool {
	return s >= StateJabLeft && s <= StateSideAttackRight
}

// IsDefense reports states 8-10.
func (s AgentState) IsDefense() bool {
	return s >= StateDefendCenter && s <= StateDefendLeft
}

// IsMovement reports states 0-3.
func (s AgentState) IsMovement() bool {
	return s >= StateForward && s <= StateStrafeLeft
}

// attackLimb returns the limb index an attack state drives.
func (s AgentState) attackLimb() int {
	if s == StateJabRight || s == StateSideAttackRight {
		return 1
	}
	return 0
}

// SimContext carries everything an agent tick needs beyond the two agents.
// It is owned by the Match and passed into each step.
type SimContext struct {
	Tuning Tuning
	Rng    *rand.Rand
	Events EventSink
	Logger *zap.Logger
	NowMs  float64
}

func (ctx *SimContext) emit(e Event) {
	if ctx.Events != nil {
		ctx.Events.Emit(e)
	}
}

// Agent is one autonomous fighter.
type Agent struct {
	Name  string
	Color color.RGBA

	Pos       Vec2
	Velocity  Vec2
	Rot       float64 // facing, degrees
	TargetRot float64

	State AgentState
	HP    float64
	MaxHP float64

	KnockbackTimer float64 // ms, >0 while drifting from a hit
	DamageFlash    float64 // ms, >0 while flashing from a hit

	Limbs [2]Limb

	spawn Vec2
	stats AgentStats
}

// NewAgent creates an agent at its spawn point with full health and limbs at rest.
func NewAgent(name string, c color.RGBA, spawn Vec2, t Tuning) *Agent {
	a := &Agent{
		Name:  name,
		Color: c,
		spawn: spawn,
	}
	a.Reset(t)
	return a
}

// Reset reverts the agent to spawn defaults. Identity is kept.
func (a *Agent) Reset(t Tuning) {
	a.Pos = a.spawn
	a.Velocity = Vec2{}
	a.Rot = 0
	a.TargetRot = 0
	a.State = StateForward
	a.MaxHP = t.MaxHP
	a.HP = t.MaxHP
	a.KnockbackTimer = 0
	a.DamageFlash = 0
	a.Limbs[0].reset(restLimbAngleDeg, t.BaseLimbLen)
	a.Limbs[1].reset(-restLimbAngleDeg, t.BaseLimbLen)
}

// Spawn returns the agent's spawn point.
func (a *Agent) Spawn() Vec2 { return a.spawn }

// Stats returns combat counters accumulated since construction.
func (a *Agent) Stats() AgentStats { return a.stats }

// IsDefending reports whether incoming damage is reduced this tick.
func (a *Agent) IsDefending() bool { return a.State.IsDefense() }

// KnockedOut reports hp <= 0.
func (a *Agent) KnockedOut() bool { return a.HP <= 0 }

// LimbTip returns the world-space tip of limb i.
func (a *Agent) LimbTip(i int) Vec2 {
	l := &a.Limbs[i]
	return polar(a.Pos, a.Rot+l.Angle, l.Len)
}

// Update advances the agent one tick against its opponent.
func (a *Agent) Update(ctx *SimContext, target *Agent, dt float64) {
	a.updateRotation(target)
	a.updateLimbs(ctx.Tuning)
	a.updateMovement(ctx, target, dt)
	a.updateTimers(dt)
}

func (a *Agent) updateRotation(target *Agent) {
	a.TargetRot = bearing(a.Pos, target.Pos)
	a.Rot = LerpAngle(a.Rot, a.TargetRot, rotationSmoothing)
}

func (a *Agent) updateLimbs(t Tuning) {
	for i := range a.Limbs {
		if a.Limbs[i].update(t) {
			// A completed attack always returns the owner to neutral movement.
			a.State = StateForward
		}
	}
}

func (a *Agent) updateMovement(ctx *SimContext, target *Agent, dt float64) {
	t := ctx.Tuning
	if a.KnockbackTimer > 0 {
		a.Pos = a.Pos.Add(a.Velocity.Scale(dt * knockbackVelScale))
		a.Velocity = a.Velocity.Scale(knockbackDecay)
	} else {
		a.executeState(ctx, target)
	}
	a.clampToArena(t)
}

func (a *Agent) clampToArena(t Tuning) {
	lo, hi := t.AgentRadius, t.ArenaSize-t.AgentRadius
	a.Pos.X = Clamp(a.Pos.X, lo, hi)
	a.Pos.Y = Clamp(a.Pos.Y, lo, hi)
}

// executeState runs the behaviour table for the current state.
func (a *Agent) executeState(ctx *SimContext, target *Agent) {
	t := ctx.Tuning
	d := target.Pos.Sub(a.Pos)
	var move Vec2

	switch a.State {
	case StateForward:
		if Distance(a.Pos, target.Pos) > t.AgentRadius*forwardStopFactor {
			move = Normalize(d.X, d.Y).Scale(t.MoveSpeed)
		}
		a.setLimbTargets(restLimbAngleDeg, -restLimbAngleDeg)
	case StateBackward:
		move = Normalize(-d.X, -d.Y).Scale(t.MoveSpeed)
		a.setLimbTargets(restLimbAngleDeg, -restLimbAngleDeg)
	case StateStrafeRight:
		dir := Normalize(d.X, d.Y)
		move = Vec2{X: -dir.Y, Y: dir.X}.Scale(t.MoveSpeed)
		a.setLimbTargets(restLimbAngleDeg, -restLimbAngleDeg)
	case StateStrafeLeft:
		dir := Normalize(d.X, d.Y)
		move = Vec2{X: dir.Y, Y: -dir.X}.Scale(t.MoveSpeed)
		a.setLimbTargets(restLimbAngleDeg, -restLimbAngleDeg)
	case StateJabLeft:
		a.attackWithLimb(ctx, target, 0)
	case StateJabRight:
		a.attackWithLimb(ctx, target, 1)
	case StateSideAttackLeft:
		a.Limbs[0].TargetAngle = -sideAttackAngleDeg
		a.attackWithLimb(ctx, target, 0)
	case StateSideAttackRight:
		a.Limbs[1].TargetAngle = sideAttackAngleDeg
		a.attackWithLimb(ctx, target, 1)
	case StateDefendCenter:
		a.setLimbTargets(0, 0)
	case StateDefendRight:
		a.setLimbTargets(-30, -10)
	case StateDefendLeft:
		a.setLimbTargets(30, 10)
	}

	if move != (Vec2{}) {
		a.tryMove(move, target, t)
	}
}

// tryMove applies a motion vector unless it would bring the two bodies closer
// than 2*radius+buffer. Already-overlapping agents are pushed apart by half
// the overlap instead.
func (a *Agent) tryMove(move Vec2, target *Agent, t Tuning) {
	next := a.Pos.Add(move)
	minDist := t.AgentRadius*2 + separationBuffer
	if Distance(next, target.Pos) >= minDist {
		a.Pos = next
		return
	}
	cur := Distance(a.Pos, target.Pos)
	if cur < minDist {
		push := Normalize(a.Pos.X-target.Pos.X, a.Pos.Y-target.Pos.Y)
		a.Pos = a.Pos.Add(push.Scale((minDist - cur) / 2))
	}
}

func (a *Agent) setLimbTargets(left, right float64) {
	a.Limbs[0].TargetAngle = left
	a.Limbs[1].TargetAngle = right
}

func (a *Agent) updateTimers(dt float64) {
	if a.KnockbackTimer > 0 {
		a.KnockbackTimer -= dt
	}
	if a.DamageFlash > 0 {
		a.DamageFlash -= dt
	}
}
