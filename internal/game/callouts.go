package game

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// calloutLifetimeMs is how long a callout stays visible.
const calloutLifetimeMs = 1200

// Callout is a short shout above an agent announcing its new behaviour.
type Callout struct {
	Agent  string
	Text   string
	BornMs float64
}

// calloutText maps a behaviour to what the agent shouts when it starts it.
var calloutText = map[AgentState]string{
	StateForward:         "Closing in",
	StateBackward:        "Backing off",
	StateStrafeRight:     "Circling",
	StateStrafeLeft:      "Circling",
	StateJabLeft:         "Jab!",
	StateJabRight:        "Jab!",
	StateSideAttackLeft:  "Hook!",
	StateSideAttackRight: "Hook!",
	StateDefendCenter:    "Full guard",
	StateDefendRight:     "Guard",
	StateDefendLeft:      "Guard",
}

// Callouts keeps one live callout per agent, fed from state changes and
// knockouts.
type Callouts struct {
	items []Callout
}

// NewCallouts creates an empty set.
func NewCallouts() *Callouts { return &Callouts{} }

// Attach subscribes to b.
func (c *Callouts) Attach(b *EventBus, agents []*Agent) {
	b.Subscribe(func(e Event) {
		switch ev := e.(type) {
		case StateChangeEvent:
			if ev.From == ev.To {
				return
			}
			if txt, ok := calloutText[ev.To]; ok {
				c.add(Callout{Agent: ev.Agent, Text: txt, BornMs: ev.TimeMs})
			}
		case KOEvent:
			for _, a := range agents {
				txt := "Down!"
				if a.Name == ev.Winner {
					txt = "KO!"
				}
				c.add(Callout{Agent: a.Name, Text: txt, BornMs: ev.TimeMs})
			}
		case ResetEvent:
			c.items = c.items[:0]
		}
	})
}

// add replaces any callout the agent already has.
func (c *Callouts) add(co Callout) {
	for i := range c.items {
		if c.items[i].Agent == co.Agent {
			c.items[i] = co
			return
		}
	}
	c.items = append(c.items, co)
}

// Expire drops callouts older than their lifetime.
func (c *Callouts) Expire(nowMs float64) {
	kept := c.items[:0]
	for _, co := range c.items {
		if nowMs-co.BornMs < calloutLifetimeMs {
			kept = append(kept, co)
		}
	}
	c.items = kept
}

// Live returns the visible callouts.
func (c *Callouts) Live() []Callout { return c.items }

// Draw renders each callout above its agent, fading over the last 30% of
// its life.
func (c *Callouts) Draw(screen *ebiten.Image, snap MatchSnapshot, v arenaView) {
	for _, co := range c.items {
		var as *AgentSnapshot
		for i := range snap.Agents {
			if snap.Agents[i].Name == co.Agent {
				as = &snap.Agents[i]
			}
		}
		if as == nil {
			continue
		}
		progress := (snap.NowMs - co.BornMs) / calloutLifetimeMs
		alpha := float32(1.0)
		if progress > 0.70 {
			alpha = float32(1.0 - (progress-0.70)/0.30)
		}
		if alpha < 0.05 {
			continue
		}

		const charW = 6
		const lineH = 14
		const padX = 5
		const padY = 3

		bgW := float32(len(co.Text)*charW + padX*2)
		bgH := float32(lineH + padY*2)
		sx, sy := v.pt(as.Pos)
		top := sy - float32(as.Radius+22)*v.scale
		bgX := sx - bgW/2
		bgY := top - bgH

		vector.FillRect(screen, bgX, bgY, bgW, bgH, color.RGBA{R: 20, G: 22, B: 28, A: uint8(210 * alpha)}, false)
		accent := as.BaseColor
		accent.A = uint8(220 * alpha)
		vector.FillRect(screen, bgX, bgY, 3, bgH, accent, false)
		vector.StrokeRect(screen, bgX, bgY, bgW, bgH, 0.5, color.RGBA{R: 100, G: 100, B: 100, A: uint8(80 * alpha)}, false)
		ebitenutil.DebugPrintAt(screen, co.Text, int(bgX)+padX+1, int(bgY)+padY)
	}
}
