// Package sound plays short synthesized tones for hits and knockouts.
package sound

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"

	"github.com/Garsondee/Duel-Sense/internal/config"
	"github.com/Garsondee/Duel-Sense/internal/game"
)

const defaultSampleRate = 44100

// Tone is one synthesized beep.
type Tone struct {
	Freq     float64
	Duration time.Duration
	Volume   float64 // linear, 1 = unchanged
}

var (
	bodyTone    = Tone{Freq: 220, Duration: 90 * time.Millisecond, Volume: 0.8}
	limbTone    = Tone{Freq: 880, Duration: 50 * time.Millisecond, Volume: 0.5}
	blockedMult = 0.4
	koTones     = []Tone{
		{Freq: 660, Duration: 120 * time.Millisecond, Volume: 0.7},
		{Freq: 440, Duration: 120 * time.Millisecond, Volume: 0.7},
		{Freq: 330, Duration: 240 * time.Millisecond, Volume: 0.7},
	}
)

// Player turns simulation events into sounds. A Player whose speaker failed
// to open stays silent.
type Player struct {
	rate   beep.SampleRate
	logger *zap.Logger

	mu     sync.Mutex
	mixer  *beep.Mixer
	ready  bool
	output func(beep.Streamer)
}

// New creates a player. Nothing is opened until Init.
func New(cfg config.AudioConfig, logger *zap.Logger) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = defaultSampleRate
	}
	return &Player{
		rate:   beep.SampleRate(rate),
		logger: logger.Named("sound"),
		mixer:  &beep.Mixer{},
	}
}

// Init opens the speaker. Failure is returned but leaves the player usable
// and silent.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}
	if err := speaker.Init(p.rate, p.rate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("open speaker: %w", err)
	}
	speaker.Play(p.mixer)
	p.output = func(s beep.Streamer) {
		speaker.Lock()
		p.mixer.Add(s)
		speaker.Unlock()
	}
	p.ready = true
	return nil
}

// Close stops playback.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return
	}
	speaker.Clear()
	speaker.Close()
	p.ready = false
	p.output = nil
}

// Attach plays a sound for every hit and knockout published on b.
func (p *Player) Attach(b *game.EventBus) {
	b.Subscribe(p.observe)
}

func (p *Player) observe(e game.Event) {
	switch ev := e.(type) {
	case game.DamageEvent:
		p.play(hitTones(ev)...)
	case game.KOEvent:
		p.play(koTones...)
	}
}

// hitTones picks the sound for a hit: a low thud for body hits, a click for
// limb clashes, quieter when the target was guarding.
func hitTones(ev game.DamageEvent) []Tone {
	t := limbTone
	if ev.Kind == game.HitBody {
		t = bodyTone
	}
	if ev.Blocked {
		t.Volume *= blockedMult
	}
	return []Tone{t}
}

func (p *Player) play(tones ...Tone) {
	p.mu.Lock()
	out := p.output
	p.mu.Unlock()
	if out == nil {
		return
	}
	s, err := p.streamer(tones)
	if err != nil {
		p.logger.Debug("tone skipped", zap.Error(err))
		return
	}
	out(s)
}

// streamer renders tones back to back.
func (p *Player) streamer(tones []Tone) (beep.Streamer, error) {
	parts := make([]beep.Streamer, 0, len(tones))
	for _, t := range tones {
		sine, err := generators.SineTone(p.rate, t.Freq)
		if err != nil {
			return nil, fmt.Errorf("sine %.0fHz: %w", t.Freq, err)
		}
		parts = append(parts, withVolume(beep.Take(p.rate.N(t.Duration), sine), t.Volume))
	}
	return beep.Seq(parts...), nil
}

// withVolume scales s linearly. math.Log2(0) is -Inf, so zero is silence.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
