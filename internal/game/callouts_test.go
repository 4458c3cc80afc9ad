package game

import "testing"

func calloutFor(c *Callouts, agent string) (Callout, bool) {
	for _, co := range c.Live() {
		if co.Agent == agent {
			return co, true
		}
	}
	return Callout{}, false
}

func TestCallouts_StateChanges(t *testing.T) {
	m := NewMatch(WithMatchSeed(1))
	c := NewCallouts()
	c.Attach(m.Events(), m.Agents())

	m.AssignState(m.Agent(0), StateForward)
	if len(c.Live()) != 0 {
		t.Fatal("re-rolling the same state should stay quiet")
	}

	m.AssignState(m.Agent(0), StateJabLeft)
	m.AssignState(m.Agent(0), StateDefendCenter)
	co, ok := calloutFor(c, "Agent0")
	if !ok || co.Text != "Full guard" {
		t.Fatalf("expected the latest callout only, got %+v", c.Live())
	}
	if len(c.Live()) != 1 {
		t.Fatalf("one callout per agent, got %d", len(c.Live()))
	}
}

func TestCallouts_KnockoutAndReset(t *testing.T) {
	m := NewMatch(WithMatchSeed(1))
	c := NewCallouts()
	c.Attach(m.Events(), m.Agents())

	m.Agent(1).HP = 0
	m.Step(16, 16)
	win, _ := calloutFor(c, "Agent0")
	lose, _ := calloutFor(c, "Agent1")
	if win.Text != "KO!" || lose.Text != "Down!" {
		t.Fatalf("unexpected KO callouts %+v", c.Live())
	}

	m.Restart()
	if len(c.Live()) != 0 {
		t.Fatal("reset should clear callouts")
	}
}

func TestCallouts_Expire(t *testing.T) {
	bus := NewEventBus()
	c := NewCallouts()
	c.Attach(bus, nil)
	bus.Emit(StateChangeEvent{TimeMs: 0, Agent: "Agent0", From: StateForward, To: StateBackward})
	bus.Emit(StateChangeEvent{TimeMs: 500, Agent: "Agent1", From: StateForward, To: StateStrafeLeft})

	c.Expire(calloutLifetimeMs)
	if len(c.Live()) != 1 || c.Live()[0].Text != "Circling" {
		t.Fatalf("only the older callout should expire, got %+v", c.Live())
	}
}
