package game

import (
	"image/color"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

var (
	agent0Color = color.RGBA{R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF} // green
	agent1Color = color.RGBA{R: 0x21, G: 0x96, B: 0xF3, A: 0xFF} // blue
)

// pairing binds an agent to the opponent it steps against.
type pairing struct {
	agent    *Agent
	opponent *Agent
}

// frameClock follows the timestamps handed to Match.Update.
type frameClock struct {
	now float64
}

func (c *frameClock) NowMs() float64 { return c.now }

// Match owns both agents, re-rolls their behaviour periodically, steps them
// against each other and resets the arena after a knockout.
type Match struct {
	tuning Tuning
	ctx    SimContext
	bus    *EventBus
	logger *zap.Logger

	agents []*Agent
	pairs  []pairing

	frames     *frameClock
	resetClock Clock
	sched      *Scheduler
	resetTok   Token

	lastTime        float64
	lastStateChange float64
	tick            int
	round           int
	outcome         MatchOutcome
}

// MatchOption configures a Match at construction.
type MatchOption func(*Match)

// WithTuning replaces the default constants.
func WithTuning(t Tuning) MatchOption {
	return func(m *Match) { m.tuning = t }
}

// WithRand sets the random source used for state re-rolls and deflection jitter.
func WithRand(rng *rand.Rand) MatchOption {
	return func(m *Match) { m.ctx.Rng = rng }
}

// WithMatchSeed seeds a private random source.
func WithMatchSeed(seed int64) MatchOption {
	return func(m *Match) { m.ctx.Rng = rand.New(rand.NewSource(seed)) } // #nosec G404 -- game only
}

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) MatchOption {
	return func(m *Match) { m.logger = l }
}

// WithResetClock sets the clock the post-KO reset delay is measured on.
// By default the delay runs on the frame timestamps passed to Update.
func WithResetClock(c Clock) MatchOption {
	return func(m *Match) { m.resetClock = c }
}

// WithEventBus shares an existing bus instead of creating one.
func WithEventBus(b *EventBus) MatchOption {
	return func(m *Match) { m.bus = b }
}

// NewMatch builds an arena with two agents at opposing corners.
func NewMatch(opts ...MatchOption) *Match {
	m := &Match{
		tuning: DefaultTuning(),
		frames: &frameClock{},
		round:  1,
	}
	for _, o := range opts {
		o(m)
	}
	if m.ctx.Rng == nil {
		m.ctx.Rng = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 -- game only
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.bus == nil {
		m.bus = NewEventBus()
	}
	if m.resetClock == nil {
		m.resetClock = m.frames
	}
	m.sched = NewScheduler(m.resetClock)

	t := m.tuning
	r := t.AgentRadius
	a0 := NewAgent("Agent0", agent0Color, Vec2{X: r, Y: r}, t)
	a1 := NewAgent("Agent1", agent1Color, Vec2{X: t.ArenaSize - r, Y: t.ArenaSize - r}, t)
	m.agents = []*Agent{a0, a1}
	m.pairs = []pairing{
		{agent: a0, opponent: a1},
		{agent: a1, opponent: a0},
	}

	m.ctx.Tuning = t
	m.ctx.Events = m.bus
	m.ctx.Logger = m.logger.Named("combat")
	return m
}

// Tuning returns the match constants.
func (m *Match) Tuning() Tuning { return m.tuning }

// Events returns the bus that receives every simulation event.
func (m *Match) Events() *EventBus { return m.bus }

// Agents returns both fighters, index 0 first.
func (m *Match) Agents() []*Agent { return m.agents }

// Agent returns fighter i.
func (m *Match) Agent(i int) *Agent { return m.agents[i] }

// Opponent returns the agent a is paired against, or nil.
func (m *Match) Opponent(a *Agent) *Agent {
	for _, p := range m.pairs {
		if p.agent == a {
			return p.opponent
		}
	}
	return nil
}

// Tick returns the number of frames stepped.
func (m *Match) Tick() int { return m.tick }

// Round returns the current round, starting at 1.
func (m *Match) Round() int { return m.round }

// Outcome returns the result of the current round.
func (m *Match) Outcome() MatchOutcome { return m.outcome }

// ResetPending reports whether a post-KO reset is waiting to fire.
func (m *Match) ResetPending() bool { return m.sched.Pending(m.resetTok) }

// NowMs returns the most recent frame timestamp.
func (m *Match) NowMs() float64 { return m.frames.now }

// Update advances one frame. now is a monotonically increasing timestamp in
// milliseconds; the frame delta is derived from the previous call.
func (m *Match) Update(now float64) {
	dt := now - m.lastTime
	m.lastTime = now
	m.Step(now, dt)
}

// Step advances one frame with an explicit delta.
func (m *Match) Step(now, dt float64) {
	m.tick++
	m.frames.now = now
	m.ctx.NowMs = now
	m.sched.Poll()

	if now-m.lastStateChange > m.tuning.StateIntervalMs {
		m.decideStates()
		m.lastStateChange = now
	}

	// Pairs resolve in index order: agent 0 hits first within a frame.
	for _, p := range m.pairs {
		p.agent.Update(&m.ctx, p.opponent, dt)
	}

	m.checkKO()
}

// decideStates re-rolls every agent's behaviour uniformly over all states.
func (m *Match) decideStates() {
	for _, a := range m.agents {
		m.AssignState(a, AgentState(m.ctx.Rng.Intn(stateCount)))
	}
}

// AssignState applies a behaviour transition: leaving an attack for a
// movement state puts both limbs back at rest; entering an attack
// force-extends the attacking limb, and side attacks snap its target angle.
func (m *Match) AssignState(a *Agent, next AgentState) {
	prev := a.State
	a.State = next

	if prev.IsAttack() && next.IsMovement() {
		a.setLimbTargets(restLimbAngleDeg, -restLimbAngleDeg)
	}

	switch next {
	case StateJabLeft, StateJabRight:
		a.Limbs[next.attackLimb()].forceExtend()
	case StateSideAttackLeft:
		a.Limbs[0].TargetAngle = -sideAttackAngleDeg
		a.Limbs[0].forceExtend()
	case StateSideAttackRight:
		a.Limbs[1].TargetAngle = sideAttackAngleDeg
		a.Limbs[1].forceExtend()
	}
	if next.IsAttack() {
		a.stats.Attacks++
	}

	m.bus.Emit(StateChangeEvent{TimeMs: m.ctx.NowMs, Agent: a.Name, From: prev, To: next})
}

// checkKO ends the round once either agent is out, logging the result and
// scheduling a single reset.
func (m *Match) checkKO() {
	if m.outcome != OutcomeInProgress {
		return
	}
	a0, a1 := m.agents[0], m.agents[1]
	o := DetermineOutcome(a0, a1)
	if o == OutcomeInProgress {
		return
	}
	m.outcome = o
	winner := winnerName(o, a0, a1)
	for _, a := range m.agents {
		if a.Name == winner {
			a.stats.KOs++
		}
	}

	m.logger.Info("knockout",
		zap.Int("round", m.round),
		zap.Stringer("outcome", o),
		zap.String("winner", winner),
		zap.Int("tick", m.tick),
	)
	m.bus.Emit(KOEvent{TimeMs: m.ctx.NowMs, Outcome: o, Winner: winner})

	m.resetTok = m.sched.After(m.tuning.ResetDelayMs, m.Reset)
}

// Reset returns both agents to spawn state and opens the next round.
func (m *Match) Reset() {
	m.sched.Cancel(m.resetTok)
	m.resetTok = Token{}
	for _, a := range m.agents {
		a.Reset(m.tuning)
	}
	m.outcome = OutcomeInProgress
	m.round++
	m.logger.Debug("arena reset", zap.Int("round", m.round))
	m.bus.Emit(ResetEvent{TimeMs: m.ctx.NowMs, Round: m.round})
}

// Restart starts a new round immediately. Any reset still pending from an
// earlier knockout is cancelled so it cannot fire into the new round.
func (m *Match) Restart() {
	m.Reset()
}
