package game

// HitKind tells which hitbox an attack connected with.
type HitKind int

const (
	HitBody HitKind = iota // limb tip against opponent body
	HitLimb                // limb tip against opponent limb tip
)

func (k HitKind) String() string {
	switch k {
	case HitBody:
		return "body"
	case HitLimb:
		return "limb"
	default:
		return "unknown"
	}
}

// Event is anything the simulation announces to presentation code.
// Events are immutable values delivered on the simulation thread.
type Event interface {
	eventTimeMs() float64
}

// DamageEvent is emitted for every hit that subtracts health.
type DamageEvent struct {
	TimeMs   float64
	Attacker string
	Target   string
	Kind     HitKind
	Amount   float64 // after defense reduction
	Blocked  bool    // target was in a defense state
	Pos      Vec2    // impact point
	HPLeft   float64
}

// StateChangeEvent is emitted when the periodic re-roll assigns a new state.
type StateChangeEvent struct {
	TimeMs float64
	Agent  string
	From   AgentState
	To     AgentState
}

// KOEvent is emitted once when a match ends.
type KOEvent struct {
	TimeMs  float64
	Outcome MatchOutcome
	Winner  string // empty on a double KO
}

// ResetEvent is emitted when the arena reverts to spawn state.
type ResetEvent struct {
	TimeMs float64
	Round  int // round number starting after the reset
}

func (e DamageEvent) eventTimeMs() float64      { return e.TimeMs }
func (e StateChangeEvent) eventTimeMs() float64 { return e.TimeMs }
func (e KOEvent) eventTimeMs() float64          { return e.TimeMs }
func (e ResetEvent) eventTimeMs() float64       { return e.TimeMs }

// EventSink receives simulation events.
type EventSink interface {
	Emit(Event)
}

// EventBus fans events out to subscribers in subscription order.
type EventBus struct {
	subs []func(Event)
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers fn for every subsequent event.
func (b *EventBus) Subscribe(fn func(Event)) {
	b.subs = append(b.subs, fn)
}

// Emit delivers e to all subscribers synchronously.
func (b *EventBus) Emit(e Event) {
	for _, fn := range b.subs {
		fn(e)
	}
}
