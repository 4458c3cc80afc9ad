package game

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Performance grading thresholds.
const (
	perfMinAttacks      = 3
	perfMinObserveTicks = 60
	perfWallMargin      = 10.0 // px beyond the radius that still counts as against the wall
	perfRateTicks       = 1000 // damage rates are per this many ticks
	perfRateCeiling     = 60.0 // damage per perfRateTicks that saturates a score
)

// ---------------------------------------------------------------------------
// PerfTracker: per-agent, per-tick accumulator
// ---------------------------------------------------------------------------

// PerfTracker accumulates per-tick performance metrics for one agent.
type PerfTracker struct {
	Name  string
	index int

	TicksObserved int

	// Range bands, measured centre to centre.
	TicksAtCloseRange int // opponent body inside full limb reach
	TicksAtMidRange   int
	TicksAtLongRange  int

	// Behaviour-time counters.
	TicksAttacking  int
	TicksDefending  int
	TicksClosing    int // Forward
	TicksRetreating int // Backward
	TicksCircling   int // strafing

	// Quality metrics.
	TicksAgainstWall int
	TicksInKnockback int
	TicksDown        int // knocked out, waiting for the reset

	DistanceTraveled float64
	RoundsWon        int
	RoundsLost       int

	// Combat counters accumulated since the tracker started.
	Stats AgentStats

	start   AgentStats
	prevPos Vec2
}

// rangeBand classifies the centre-to-centre distance between the fighters.
type rangeBand int

const (
	rangeClose rangeBand = iota // opponent body inside full limb reach
	rangeMid
	rangeLong
)

// strikeReach is the furthest centre distance a fully extended limb covers.
func strikeReach(t Tuning) float64 {
	return t.AgentRadius + t.BaseLimbLen + t.LimbExtraRange
}

func rangeBandOf(t Tuning, d float64) rangeBand {
	reach := strikeReach(t)
	switch {
	case d <= reach:
		return rangeClose
	case d <= reach*1.5:
		return rangeMid
	default:
		return rangeLong
	}
}

// NewPerfTracker creates a tracker for agent i, baselined on its current stats.
func NewPerfTracker(m *Match, i int) *PerfTracker {
	a := m.Agent(i)
	return &PerfTracker{
		Name:    a.Name,
		index:   i,
		start:   a.Stats(),
		prevPos: a.Pos,
	}
}

// Update accumulates one tick of data from the match.
func (pt *PerfTracker) Update(m *Match) {
	a := m.Agent(pt.index)
	opp := m.Opponent(a)
	t := m.Tuning()
	pt.TicksObserved++

	if a.KnockedOut() {
		pt.TicksDown++
		pt.prevPos = a.Pos
		return
	}

	// A reset teleports the agent back to spawn; skip that jump.
	if step := Distance(a.Pos, pt.prevPos); step < t.ArenaSize/4 {
		pt.DistanceTraveled += step
	}
	pt.prevPos = a.Pos

	switch rangeBandOf(t, Distance(a.Pos, opp.Pos)) {
	case rangeClose:
		pt.TicksAtCloseRange++
	case rangeMid:
		pt.TicksAtMidRange++
	default:
		pt.TicksAtLongRange++
	}

	switch {
	case a.State.IsAttack():
		pt.TicksAttacking++
	case a.State.IsDefense():
		pt.TicksDefending++
	case a.State == StateForward:
		pt.TicksClosing++
	case a.State == StateBackward:
		pt.TicksRetreating++
	default:
		pt.TicksCircling++
	}

	wall := t.AgentRadius + perfWallMargin
	if a.Pos.X <= wall || a.Pos.Y <= wall || a.Pos.X >= t.ArenaSize-wall || a.Pos.Y >= t.ArenaSize-wall {
		pt.TicksAgainstWall++
	}
	if a.KnockbackTimer > 0 {
		pt.TicksInKnockback++
	}
}

// Finalize snapshots combat counters and round results.
func (pt *PerfTracker) Finalize(m *Match) {
	a := m.Agent(pt.index)
	opp := m.Opponent(a)
	now := a.Stats()
	pt.Stats = AgentStats{
		BodyHits:      now.BodyHits - pt.start.BodyHits,
		LimbHits:      now.LimbHits - pt.start.LimbHits,
		Deflections:   now.Deflections - pt.start.Deflections,
		DamageDealt:   now.DamageDealt - pt.start.DamageDealt,
		DamageTaken:   now.DamageTaken - pt.start.DamageTaken,
		DamageBlocked: now.DamageBlocked - pt.start.DamageBlocked,
		Attacks:       now.Attacks - pt.start.Attacks,
		KOs:           now.KOs - pt.start.KOs,
	}
	pt.RoundsWon = pt.Stats.KOs
	pt.RoundsLost = opp.Stats().KOs
}

// ---------------------------------------------------------------------------
// AgentGrade: computed performance result
// ---------------------------------------------------------------------------

// AgentGrade is the computed performance grade for one fighter.
type AgentGrade struct {
	Name       string
	Grade      string  // A+, A, B+, B, C+, C, D, F
	Score      float64 // 0-100
	RoundsWon  int
	RoundsLost int

	// Situation scores (0-100; -1 = not enough data to grade).
	OffenseScore    float64
	DefenseScore    float64
	RingScore       float64
	AggressionScore float64
	ComposureScore  float64

	// Observed traits.
	GoodTraits []string
	BadTraits  []string

	// Key stats.
	Accuracy     float64 // hits per attack
	DealtPer1k   float64
	TakenPer1k   float64
	BlockRatio   float64
	CloseTimePct float64
}

// ---------------------------------------------------------------------------
// Grading logic
// ---------------------------------------------------------------------------

// GradePerformance computes grades from accumulated tracker data, best first.
func GradePerformance(trackers []*PerfTracker) []AgentGrade {
	grades := make([]AgentGrade, 0, len(trackers))
	for _, pt := range trackers {
		grades = append(grades, computeGrade(pt))
	}
	sort.SliceStable(grades, func(i, j int) bool {
		return grades[i].Score > grades[j].Score
	})
	return grades
}

func computeGrade(pt *PerfTracker) AgentGrade {
	st := pt.Stats
	g := AgentGrade{
		Name:            pt.Name,
		RoundsWon:       pt.RoundsWon,
		RoundsLost:      pt.RoundsLost,
		OffenseScore:    -1,
		DefenseScore:    -1,
		RingScore:       -1,
		AggressionScore: -1,
		ComposureScore:  -1,
		BlockRatio:      st.BlockRatio(),
	}

	alive := pt.TicksObserved - pt.TicksDown
	if st.Attacks > 0 {
		g.Accuracy = math.Min(1, float64(st.Hits())/float64(st.Attacks))
	}
	if pt.TicksObserved > 0 {
		g.DealtPer1k = st.DamageDealt * perfRateTicks / float64(pt.TicksObserved)
		g.TakenPer1k = st.DamageTaken * perfRateTicks / float64(pt.TicksObserved)
	}
	if alive > 0 {
		g.CloseTimePct = perfFrac(pt.TicksAtCloseRange, alive) * 100
	}

	// --- Offense: landing what is thrown ---
	if st.Attacks >= perfMinAttacks {
		s := 40.0
		s += 40.0 * g.Accuracy
		s += 20.0 * math.Min(1, g.DealtPer1k/perfRateCeiling)
		g.OffenseScore = perfClamp(s)
	}

	// --- Defense: soaking and blocking incoming damage ---
	if raw := st.DamageTaken + st.DamageBlocked; raw > 0 {
		s := 60.0
		s += 40.0 * g.BlockRatio
		s -= 40.0 * math.Min(1, g.TakenPer1k/perfRateCeiling)
		g.DefenseScore = perfClamp(s)
	}

	// --- Ring control: staying off the walls ---
	if alive >= perfMinObserveTicks {
		s := 75.0
		s -= 50.0 * perfFrac(pt.TicksAgainstWall, alive)
		s += 15.0 * perfFrac(pt.TicksCircling, alive)
		g.RingScore = perfClamp(s)
	}

	// --- Aggression: closing distance and pressing ---
	if alive >= perfMinObserveTicks {
		s := 40.0
		s += 35.0 * perfFrac(pt.TicksAtCloseRange, alive)
		s += 25.0 * perfFrac(pt.TicksAttacking, alive)
		s -= 20.0 * perfFrac(pt.TicksRetreating, alive)
		g.AggressionScore = perfClamp(s)
	}

	// --- Composure: not being bounced around ---
	if alive >= perfMinObserveTicks {
		s := 80.0
		s -= 60.0 * perfFrac(pt.TicksInKnockback, alive)
		g.ComposureScore = perfClamp(s)
	}

	// --- Overall weighted average ---
	type scoredWeight struct {
		score  float64
		weight float64
	}
	var items []scoredWeight
	if g.OffenseScore >= 0 {
		items = append(items, scoredWeight{g.OffenseScore, 0.35})
	}
	if g.DefenseScore >= 0 {
		items = append(items, scoredWeight{g.DefenseScore, 0.25})
	}
	if g.RingScore >= 0 {
		items = append(items, scoredWeight{g.RingScore, 0.15})
	}
	if g.AggressionScore >= 0 {
		items = append(items, scoredWeight{g.AggressionScore, 0.15})
	}
	if g.ComposureScore >= 0 {
		items = append(items, scoredWeight{g.ComposureScore, 0.10})
	}

	if len(items) > 0 {
		totalW := 0.0
		totalS := 0.0
		for _, it := range items {
			totalW += it.weight
			totalS += it.score * it.weight
		}
		g.Score = totalS / totalW
	} else {
		g.Score = 50.0
	}

	switch {
	case pt.RoundsWon > pt.RoundsLost:
		g.Score = math.Min(100, g.Score+5)
	case pt.RoundsWon < pt.RoundsLost:
		g.Score = math.Max(0, g.Score-5)
	}

	g.Grade = PerfLetterGrade(g.Score)
	g.GoodTraits, g.BadTraits = perfDetectTraits(pt, g)
	return g
}

// ---------------------------------------------------------------------------
// Trait detection
// ---------------------------------------------------------------------------

func perfDetectTraits(pt *PerfTracker, g AgentGrade) (good, bad []string) {
	st := pt.Stats
	alive := pt.TicksObserved - pt.TicksDown

	if st.Attacks >= 5 && g.Accuracy >= 0.5 {
		good = append(good, "accurate")
	}
	if g.DealtPer1k >= perfRateCeiling*2/3 {
		good = append(good, "heavy_hitter")
	}
	if st.DamageTaken+st.DamageBlocked >= 20 && g.BlockRatio >= 0.4 {
		good = append(good, "iron_guard")
	}
	if st.Deflections >= 3 {
		good = append(good, "deflector")
	}
	if alive >= 300 && perfFrac(pt.TicksAgainstWall, alive) < 0.05 {
		good = append(good, "ring_general")
	}
	if alive >= perfMinObserveTicks && perfFrac(pt.TicksAtCloseRange, alive) >= 0.5 {
		good = append(good, "pressure_fighter")
	}

	if st.Attacks >= 5 && g.Accuracy < 0.15 {
		bad = append(bad, "wild_swings")
	}
	if g.TakenPer1k >= perfRateCeiling {
		bad = append(bad, "glass_jaw")
	}
	if alive >= perfMinObserveTicks && perfFrac(pt.TicksAgainstWall, alive) >= 0.3 {
		bad = append(bad, "cornered")
	}
	if alive >= 600 && (st.Attacks == 0 || perfFrac(pt.TicksAtCloseRange, alive) < 0.1) {
		bad = append(bad, "passive")
	}
	if alive >= perfMinObserveTicks && perfFrac(pt.TicksInKnockback, alive) >= 0.2 {
		bad = append(bad, "rattled")
	}
	return good, bad
}

// ---------------------------------------------------------------------------
// Formatting
// ---------------------------------------------------------------------------

// FormatGrades returns a human-readable performance report.
func FormatGrades(grades []AgentGrade) string {
	var sb strings.Builder
	sb.WriteString("\n=== Fighter Performance Grades ===\n")

	for _, g := range grades {
		fmt.Fprintf(&sb, "  %-3s  %-7s  [W%d L%d]  acc=%.0f%%  dealt/1k=%.0f  taken/1k=%.0f  block=%.0f%%  close=%.0f%%\n",
			g.Grade, g.Name, g.RoundsWon, g.RoundsLost, g.Accuracy*100,
			g.DealtPer1k, g.TakenPer1k, g.BlockRatio*100, g.CloseTimePct)

		if len(g.GoodTraits) > 0 {
			fmt.Fprintf(&sb, "       Good: %s\n", strings.Join(g.GoodTraits, ", "))
		}
		if len(g.BadTraits) > 0 {
			fmt.Fprintf(&sb, "       Bad:  %s\n", strings.Join(g.BadTraits, ", "))
		}

		var scores []string
		if g.OffenseScore >= 0 {
			scores = append(scores, fmt.Sprintf("Offense=%.0f", g.OffenseScore))
		}
		if g.DefenseScore >= 0 {
			scores = append(scores, fmt.Sprintf("Defense=%.0f", g.DefenseScore))
		}
		if g.RingScore >= 0 {
			scores = append(scores, fmt.Sprintf("Ring=%.0f", g.RingScore))
		}
		if g.AggressionScore >= 0 {
			scores = append(scores, fmt.Sprintf("Aggression=%.0f", g.AggressionScore))
		}
		if g.ComposureScore >= 0 {
			scores = append(scores, fmt.Sprintf("Composure=%.0f", g.ComposureScore))
		}
		if len(scores) > 0 {
			fmt.Fprintf(&sb, "       Scores: %s\n", strings.Join(scores, "  "))
		}
	}

	return sb.String()
}

// FormatGradesSummary returns a compact per-fighter summary over many grades,
// typically one per run.
func FormatGradesSummary(grades []AgentGrade) string {
	var sb strings.Builder

	type fighterStats struct {
		count     int
		scoreSum  float64
		won       int
		lost      int
		goodCount map[string]int
		badCount  map[string]int
	}
	fighters := map[string]*fighterStats{}
	for _, g := range grades {
		fs, ok := fighters[g.Name]
		if !ok {
			fs = &fighterStats{goodCount: map[string]int{}, badCount: map[string]int{}}
			fighters[g.Name] = fs
		}
		fs.count++
		fs.scoreSum += g.Score
		fs.won += g.RoundsWon
		fs.lost += g.RoundsLost
		for _, t := range g.GoodTraits {
			fs.goodCount[t]++
		}
		for _, t := range g.BadTraits {
			fs.badCount[t]++
		}
	}

	names := make([]string, 0, len(fighters))
	for n := range fighters {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		fs := fighters[name]
		avg := fs.scoreSum / float64(fs.count)
		fmt.Fprintf(&sb, "  %s: avg_score=%.1f (%s)  rounds W%d L%d\n",
			name, avg, PerfLetterGrade(avg), fs.won, fs.lost)

		if len(fs.goodCount) > 0 {
			fmt.Fprintf(&sb, "    Top good: %s\n", perfTopTraits(fs.goodCount, 4))
		}
		if len(fs.badCount) > 0 {
			fmt.Fprintf(&sb, "    Top bad:  %s\n", perfTopTraits(fs.badCount, 4))
		}
	}

	return sb.String()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func perfFrac(num, denom int) float64 {
	if denom <= 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

func perfClamp(s float64) float64 {
	return Clamp(s, 0, 100)
}

// PerfLetterGrade maps a 0-100 score to a letter grade.
func PerfLetterGrade(score float64) string {
	switch {
	case score >= 93:
		return "A+"
	case score >= 85:
		return "A"
	case score >= 78:
		return "B+"
	case score >= 70:
		return "B"
	case score >= 62:
		return "C+"
	case score >= 55:
		return "C"
	case score >= 45:
		return "D"
	default:
		return "F"
	}
}

func perfTopTraits(counts map[string]int, n int) string {
	type kv struct {
		trait string
		count int
	}
	var items []kv
	for k, v := range counts {
		items = append(items, kv{k, v})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].count != items[j].count {
			return items[i].count > items[j].count
		}
		return items[i].trait < items[j].trait
	})
	if len(items) > n {
		items = items[:n]
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%s(%d)", it.trait, it.count)
	}
	return strings.Join(parts, ", ")
}
