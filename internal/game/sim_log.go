package game

import (
	"fmt"
	"strings"
)

// SimLogEntry is one recorded event during a headless simulation.
type SimLogEntry struct {
	Tick     int
	Agent    string  // agent name, or "--" for match-wide events
	Category string  // hit, state, match
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=0042] Agent0 hit       body             -20 -> Agent1 (80 left)
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%04d] %-6s %-9s %-16s %s",
		e.Tick, e.Agent, e.Category, e.Key, e.Value)
}

// SimLog collects structured events from a match. Unlike the on-screen combat
// log it is unbounded and machine-readable.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. If verbose is true, state re-rolls are also
// recorded.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Attach records every event published on b. tick reports the frame number
// to stamp entries with.
func (sl *SimLog) Attach(b *EventBus, tick func() int) {
	b.Subscribe(func(e Event) {
		sl.record(tick(), e)
	})
}

func (sl *SimLog) record(tick int, e Event) {
	switch ev := e.(type) {
	case DamageEvent:
		val := fmt.Sprintf("-%.1f -> %s (%.0f left)", ev.Amount, ev.Target, ev.HPLeft)
		if ev.Blocked {
			val += " blocked"
		}
		sl.Add(tick, ev.Attacker, "hit", ev.Kind.String(), val, ev.Amount)
	case StateChangeEvent:
		sl.AddVerbose(tick, ev.Agent, "state", ev.To.String(),
			fmt.Sprintf("%s → %s", ev.From, ev.To), float64(ev.To))
	case KOEvent:
		winner := ev.Winner
		if winner == "" {
			winner = "none"
		}
		sl.Add(tick, "--", "match", "ko", fmt.Sprintf("%s winner=%s", ev.Outcome, winner), 0)
	case ResetEvent:
		sl.Add(tick, "--", "match", "reset", fmt.Sprintf("round %d", ev.Round), float64(ev.Round))
	}
}

// Add records a new entry.
func (sl *SimLog) Add(tick int, agent, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Agent:    agent,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick int, agent, category, key, value string, numVal float64) {
	if !sl.verbose {
		return
	}
	sl.Add(tick, agent, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterAgent returns entries for one agent.
func (sl *SimLog) FilterAgent(name string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Agent == name {
			out = append(out, e)
		}
	}
	return out
}

// FilterTickRange returns entries within [fromTick, toTick] inclusive.
func (sl *SimLog) FilterTickRange(fromTick, toTick int) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Tick >= fromTick && e.Tick <= toTick {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return SimLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatRange returns a log string filtered to a tick range.
func (sl *SimLog) FormatRange(fromTick, toTick int) string {
	var sb strings.Builder
	for _, e := range sl.FilterTickRange(fromTick, toTick) {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable summary of the match state.
func (sl *SimLog) Summary(m *Match) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%04d (round %d) ---\n", m.Tick(), m.Round())
	for _, a := range m.Agents() {
		st := a.Stats()
		fmt.Fprintf(&sb, "%s: hp=%.0f/%.0f state=%s hits=%d (body %d, limb %d) dealt=%.0f blocked=%.0f\n",
			a.Name, a.HP, a.MaxHP, a.State, st.Hits(), st.BodyHits, st.LimbHits, st.DamageDealt, st.DamageBlocked)
	}
	fmt.Fprintf(&sb, "Distance: %.1fpx  outcome: %s\n", Distance(m.Agent(0).Pos, m.Agent(1).Pos), m.Outcome())
	return sb.String()
}
