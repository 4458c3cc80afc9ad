package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	logPanelWidth = 300
	logMaxEntries = 80
	logLineHeight = 11
	logLineChars  = 46 // DebugPrint glyphs are 6px wide
)

// Log line sources.
const (
	SourceMatch = "--"
	SourceCoach = "coach"
)

// CombatLogEntry is a single line in the on-screen log.
type CombatLogEntry struct {
	Tick    int
	Source  string // agent name, SourceMatch or a chat sender
	Color   color.RGBA
	Message string
}

// CombatLog is a ring buffer of match and chat lines rendered in the side
// panel.
type CombatLog struct {
	entries []CombatLogEntry
	head    int
	count   int
	colors  map[string]color.RGBA
}

// NewCombatLog creates a log with a fixed capacity.
func NewCombatLog() *CombatLog {
	return &CombatLog{
		entries: make([]CombatLogEntry, logMaxEntries),
		colors:  make(map[string]color.RGBA),
	}
}

// Attach records hits, knockouts and resets from b, stamped with tick().
// The dot colour of agent lines follows each agent's body colour.
func (cl *CombatLog) Attach(b *EventBus, tick func() int, agents []*Agent) {
	for _, a := range agents {
		cl.colors[a.Name] = a.Color
	}
	b.Subscribe(func(e Event) {
		switch ev := e.(type) {
		case DamageEvent:
			msg := fmt.Sprintf("%s %s hit -> %s -%.0f", ev.Attacker, ev.Kind, ev.Target, ev.Amount)
			if ev.Blocked {
				msg += " (blocked)"
			}
			cl.Add(tick(), ev.Attacker, msg)
		case KOEvent:
			if ev.Winner == "" {
				cl.Add(tick(), SourceMatch, "double KO")
			} else {
				cl.Add(tick(), SourceMatch, "KO! "+ev.Winner+" wins")
			}
		case ResetEvent:
			cl.Add(tick(), SourceMatch, fmt.Sprintf("round %d", ev.Round))
		}
	})
}

// Add appends an entry to the log.
func (cl *CombatLog) Add(tick int, source, msg string) {
	cl.entries[cl.head] = CombatLogEntry{
		Tick:    tick,
		Source:  source,
		Color:   cl.colorFor(source),
		Message: msg,
	}
	cl.head = (cl.head + 1) % logMaxEntries
	if cl.count < logMaxEntries {
		cl.count++
	}
}

// AddChat appends a chat line. Long messages wrap over several entries.
func (cl *CombatLog) AddChat(tick int, from, text string) {
	prefix := from + ": "
	width := logLineChars - len(prefix)
	if width < 8 {
		width = 8
	}
	runes := []rune(text)
	for len(runes) > width {
		cl.Add(tick, from, prefix+string(runes[:width]))
		runes = runes[width:]
		prefix = "  "
	}
	cl.Add(tick, from, prefix+string(runes))
}

func (cl *CombatLog) colorFor(source string) color.RGBA {
	if c, ok := cl.colors[source]; ok {
		return c
	}
	switch source {
	case SourceMatch:
		return color.RGBA{R: 236, G: 240, B: 241, A: 255}
	case SourceCoach:
		return color.RGBA{R: 255, G: 193, B: 7, A: 255}
	default:
		return color.RGBA{R: 156, G: 39, B: 176, A: 255}
	}
}

// Recent returns entries in chronological order (oldest first).
func (cl *CombatLog) Recent() []CombatLogEntry {
	result := make([]CombatLogEntry, cl.count)
	for i := 0; i < cl.count; i++ {
		idx := (cl.head - cl.count + i + logMaxEntries) % logMaxEntries
		result[i] = cl.entries[idx]
	}
	return result
}

// Draw renders the log panel at panelX, newest line at the bottom.
// bottomReserve leaves room under the list for the chat input.
func (cl *CombatLog) Draw(screen *ebiten.Image, panelX, panelH, bottomReserve int) {
	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), float32(panelH), color.RGBA{R: 20, G: 28, B: 36, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 52, G: 73, B: 94, A: 255}, false)

	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), 16, color.RGBA{R: 44, G: 62, B: 80, A: 255}, false)
	ebitenutil.DebugPrintAt(screen, "COMBAT LOG", panelX+8, 2)
	vector.StrokeLine(screen, float32(panelX), 16, float32(panelX+logPanelWidth), 16, 1.0, color.RGBA{R: 70, G: 90, B: 110, A: 200}, false)

	entries := cl.Recent()
	maxVisible := (panelH - 24 - bottomReserve) / logLineHeight
	if maxVisible < 0 {
		maxVisible = 0
	}
	startIdx := 0
	if len(entries) > maxVisible {
		startIdx = len(entries) - maxVisible
	}
	visible := entries[startIdx:]
	const recent = 3

	y := 20
	for i, e := range visible {
		if i >= len(visible)-recent {
			vector.FillRect(screen, float32(panelX+2), float32(y), float32(logPanelWidth-4), float32(logLineHeight), color.RGBA{R: 40, G: 55, B: 70, A: 160}, false)
		}
		vector.FillRect(screen, float32(panelX+5), float32(y+3), 3, 5, e.Color, false)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%4d %s", e.Tick, e.Message), panelX+12, y)
		y += logLineHeight
	}
}
