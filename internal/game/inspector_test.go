package game

import "testing"

func TestPickAgent(t *testing.T) {
	m := NewMatch(WithMatchSeed(1))
	agents := m.Agents()
	a0 := agents[0].Pos

	if got := pickAgent(agents, a0.Add(Vec2{X: 5}), 26); got != 0 {
		t.Fatalf("click beside agent 0 picked %d", got)
	}
	if got := pickAgent(agents, agents[1].Pos, 26); got != 1 {
		t.Fatalf("click on agent 1 picked %d", got)
	}
	if got := pickAgent(agents, Vec2{X: 300, Y: 300}, 26); got != -1 {
		t.Fatalf("click on empty floor picked %d", got)
	}
}

func TestPickAgent_PrefersClosest(t *testing.T) {
	m := NewMatch(WithMatchSeed(1))
	agents := m.Agents()
	agents[0].Pos = Vec2{X: 100, Y: 100}
	agents[1].Pos = Vec2{X: 130, Y: 100}

	if got := pickAgent(agents, Vec2{X: 120, Y: 100}, 40); got != 1 {
		t.Fatalf("picked %d, want the nearer agent 1", got)
	}
}

func TestInspectorBar(t *testing.T) {
	cases := map[float64]string{
		0:    "[..........]",
		0.5:  "[#####.....]",
		1:    "[##########]",
		1.7:  "[##########]",
		-0.2: "[..........]",
	}
	for v, want := range cases {
		if got := inspectorBar(v); got != want {
			t.Fatalf("inspectorBar(%v) = %q, want %q", v, got, want)
		}
	}
}
