package game

import (
	"go.uber.org/zap"
)

// --- Limb attacks and hit resolution ---

// attackWithLimb starts an attack on limb i if it is idle, then tests the
// limb against the target.
func (a *Agent) attackWithLimb(ctx *SimContext, target *Agent, i int) {
	a.Limbs[i].extend()
	a.checkLimbCollisions(ctx, target, i)
}

// checkLimbCollisions tests limb i's tip against the target body, then
// against each of the target's limb tips. Only an extending limb can hit, so
// a body hit (which flips the limb to retracting) suppresses the limb check
// within the same call.
func (a *Agent) checkLimbCollisions(ctx *SimContext, target *Agent, i int) {
	t := ctx.Tuning
	limb := &a.Limbs[i]
	tip := a.LimbTip(i)

	if limb.Extending && Distance(tip, target.Pos) <= t.AgentRadius+t.LimbRadius {
		a.dealDamage(ctx, target, t.BodyDamage, HitBody, tip)
		limb.retract()
		a.applyKnockback(target, tip, t)
	}

	for j := range target.Limbs {
		if !limb.Extending {
			return
		}
		otherTip := target.LimbTip(j)
		if Distance(tip, otherTip) > t.LimbRadius*2 {
			continue
		}
		a.dealDamage(ctx, target, t.LimbDamage, HitLimb, otherTip)
		limb.retract()
		a.deflect(ctx, target, j, tip, otherTip)
	}
}

// deflect knocks the struck limb off line and shoves its owner along the
// clash bearing.
func (a *Agent) deflect(ctx *SimContext, target *Agent, j int, attackerTip, defenderTip Vec2) {
	t := ctx.Tuning
	clash := bearing(attackerTip, defenderTip)

	angle := clash - target.Rot + RandomRange(ctx.Rng, -deflectJitterDeg, deflectJitterDeg)
	target.Limbs[j].TargetAngle = Clamp(angle, -deflectLimitDeg, deflectLimitDeg)

	force := t.KnockbackForce * limbKnockbackMul
	target.Velocity = target.Velocity.Add(polar(Vec2{}, clash, force))
	target.KnockbackTimer = limbKnockbackMs
	a.stats.Deflections++
}

// applyKnockback pushes the target away from the impact point at full force.
func (a *Agent) applyKnockback(target *Agent, impact Vec2, t Tuning) {
	dir := Normalize(target.Pos.X-impact.X, target.Pos.Y-impact.Y)
	target.Velocity = target.Velocity.Add(dir.Scale(t.KnockbackForce))
	target.KnockbackTimer = bodyKnockbackMs
}

// dealDamage subtracts damage from the target, reduced while it defends.
// HP never drops below zero.
func (a *Agent) dealDamage(ctx *SimContext, target *Agent, damage float64, kind HitKind, impact Vec2) {
	raw := damage
	blocked := target.IsDefending()
	if blocked {
		damage *= ctx.Tuning.DefenseBlockMult
	}

	target.HP = max(0, target.HP-damage)
	target.DamageFlash = damageFlashMs

	a.stats.recordDealt(kind, damage)
	target.stats.recordTaken(damage, raw-damage)

	if ctx.Logger != nil {
		ctx.Logger.Debug("hit",
			zap.String("attacker", a.Name),
			zap.String("target", target.Name),
			zap.Stringer("kind", kind),
			zap.Float64("damage", damage),
			zap.Bool("blocked", blocked),
			zap.Float64("hp_left", target.HP),
		)
	}
	ctx.emit(DamageEvent{
		TimeMs:   ctx.NowMs,
		Attacker: a.Name,
		Target:   target.Name,
		Kind:     kind,
		Amount:   damage,
		Blocked:  blocked,
		Pos:      impact,
		HPLeft:   target.HP,
	})
}
