package game

import (
	"math/rand"

	"go.uber.org/zap"
)

// simFrameMs is the fixed frame step used by headless runs (~60 FPS).
const simFrameMs = 16.0

// TestSim is a headless match harness used by tests and the headless report.
// It mirrors Game.Update but has no Ebiten dependency and supports
// deterministic seeding and structured logging.
type TestSim struct {
	Match  *Match
	SimLog *SimLog
	Perf   []*PerfTracker // one per agent, updated every tick

	tuning  Tuning
	rng     *rand.Rand
	logger  *zap.Logger
	verbose bool
	nowMs   float64

	// Freeze stops the periodic state re-roll so tests can pin behaviours.
	freeze bool
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota // seed, tuning, verbose: applied before the match exists
	simOptAgent                      // agent placement and state: applied after
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- test harness
	}}
}

// WithSimTuning overrides the match constants.
func WithSimTuning(t Tuning) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.tuning = t
	}}
}

// WithVerbose also records state re-rolls in the SimLog.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.verbose = v
	}}
}

// WithSimLogger routes match logging to l.
func WithSimLogger(l *zap.Logger) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.logger = l
	}}
}

// WithFrozenStates disables the periodic behaviour re-roll.
func WithFrozenStates() SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.freeze = true
	}}
}

// WithAgentPos places agent i at (x, y).
func WithAgentPos(i int, x, y float64) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		ts.Match.Agent(i).Pos = Vec2{X: x, Y: y}
	}}
}

// WithAgentState assigns agent i's behaviour through the normal transition path.
func WithAgentState(i int, s AgentState) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		ts.Match.AssignState(ts.Match.Agent(i), s)
	}}
}

// WithAgentHP sets agent i's health.
func WithAgentHP(i int, hp float64) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		ts.Match.Agent(i).HP = hp
	}}
}

// WithAgentRot points agent i's facing at deg, both current and target.
func WithAgentRot(i int, deg float64) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		a := ts.Match.Agent(i)
		a.Rot = deg
		a.TargetRot = deg
	}}
}

// NewTestSim constructs a TestSim from the given options in two ordered passes:
//  1. Infrastructure (seed, tuning, verbose)
//  2. Agent placement
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		tuning: DefaultTuning(),
		rng:    rand.New(rand.NewSource(1)), // #nosec G404 -- test harness default
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	if ts.freeze {
		ts.tuning.StateIntervalMs = 1e12
	}
	ts.Match = NewMatch(
		WithTuning(ts.tuning),
		WithRand(ts.rng),
		WithLogger(ts.logger),
	)
	ts.SimLog = NewSimLog(ts.verbose)
	ts.SimLog.Attach(ts.Match.Events(), ts.Match.Tick)
	for _, o := range opts {
		if o.kind == simOptAgent {
			o.fn(ts)
		}
	}
	for i := range ts.Match.Agents() {
		ts.Perf = append(ts.Perf, NewPerfTracker(ts.Match, i))
	}
	return ts
}

// RunTicks advances the match n frames.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.step()
	}
}

// RunUntil advances the match up to maxTicks, stopping early if predicate
// returns true. Returns the tick at which the predicate was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.step()
		if predicate(ts) {
			return ts.Match.Tick()
		}
	}
	return -1
}

func (ts *TestSim) step() {
	ts.nowMs += simFrameMs
	ts.Match.Update(ts.nowMs)
	for _, pt := range ts.Perf {
		pt.Update(ts.Match)
	}
}

// Grades finalizes the performance trackers and grades both agents.
func (ts *TestSim) Grades() []AgentGrade {
	for _, pt := range ts.Perf {
		pt.Finalize(ts.Match)
	}
	return GradePerformance(ts.Perf)
}

// NowMs returns the simulated time in milliseconds.
func (ts *TestSim) NowMs() float64 { return ts.nowMs }

// CurrentTick returns the current simulation tick.
func (ts *TestSim) CurrentTick() int {
	return ts.Match.Tick()
}

// Agent returns agent i of the underlying match.
func (ts *TestSim) Agent(i int) *Agent { return ts.Match.Agent(i) }

// Snapshot returns the current render view of the match.
func (ts *TestSim) Snapshot() MatchSnapshot {
	return ts.Match.Snapshot()
}
