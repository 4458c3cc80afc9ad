package game

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCombatLog_FromEvents(t *testing.T) {
	m := NewMatch(WithMatchSeed(1))
	cl := NewCombatLog()
	tick := 7
	cl.Attach(m.Events(), func() int { return tick }, m.Agents())

	bus := m.Events()
	bus.Emit(DamageEvent{Attacker: "Agent0", Target: "Agent1", Kind: HitLimb, Amount: 5})
	bus.Emit(DamageEvent{Attacker: "Agent1", Target: "Agent0", Kind: HitBody, Amount: 6, Blocked: true})
	bus.Emit(KOEvent{Outcome: OutcomeAgent1Wins, Winner: "Agent1"})
	bus.Emit(KOEvent{Outcome: OutcomeDoubleKO})
	bus.Emit(ResetEvent{Round: 3})

	var got []string
	for _, e := range cl.Recent() {
		got = append(got, e.Message)
	}
	want := []string{
		"Agent0 limb hit -> Agent1 -5",
		"Agent1 body hit -> Agent0 -6 (blocked)",
		"KO! Agent1 wins",
		"double KO",
		"round 3",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("log lines mismatch (-want +got):\n%s", diff)
	}

	entries := cl.Recent()
	if entries[0].Color != agent0Color || entries[1].Color != agent1Color {
		t.Fatal("hit lines should use the attacker's colour")
	}
	if entries[2].Source != SourceMatch || entries[2].Tick != 7 {
		t.Fatalf("match line should be stamped as match-wide: %+v", entries[2])
	}
}

func TestCombatLog_RingBufferKeepsNewest(t *testing.T) {
	cl := NewCombatLog()
	for i := 0; i < logMaxEntries+15; i++ {
		cl.Add(i, SourceMatch, fmt.Sprintf("line %d", i))
	}
	recent := cl.Recent()
	if len(recent) != logMaxEntries {
		t.Fatalf("expected %d entries, got %d", logMaxEntries, len(recent))
	}
	if recent[0].Message != "line 15" || recent[len(recent)-1].Message != fmt.Sprintf("line %d", logMaxEntries+14) {
		t.Fatalf("ring buffer order wrong: first=%q last=%q", recent[0].Message, recent[len(recent)-1].Message)
	}
}

func TestCombatLog_AddChatWraps(t *testing.T) {
	cl := NewCombatLog()
	text := strings.Repeat("a", 100)
	cl.AddChat(1, "you", text)

	lines := cl.Recent()
	if len(lines) != 3 {
		t.Fatalf("expected 3 wrapped lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0].Message, "you: ") || !strings.HasPrefix(lines[1].Message, "  ") {
		t.Fatalf("unexpected wrap prefixes: %q / %q", lines[0].Message, lines[1].Message)
	}
	total := 0
	for _, l := range lines {
		if len(l.Message) > logLineChars {
			t.Fatalf("line exceeds panel width: %q", l.Message)
		}
		total += strings.Count(l.Message, "a")
	}
	if total != 100 {
		t.Fatalf("wrapping lost text: %d of 100 chars kept", total)
	}
}

func TestCombatLog_ChatColours(t *testing.T) {
	cl := NewCombatLog()
	cl.AddChat(1, SourceCoach, "keep your guard up")
	cl.AddChat(2, "bob", "hi")
	r := cl.Recent()
	if r[0].Color == r[1].Color {
		t.Fatal("coach and other players should be told apart by colour")
	}
}
