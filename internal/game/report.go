package game

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

// MatchReport renders a plain-text summary of the match so far, including
// the most recent lastTicks frames of the log when log is non-nil.
func MatchReport(m *Match, log *SimLog, lastTicks int) string {
	if lastTicks <= 0 {
		lastTicks = 300
	}
	toTick := m.Tick()
	fromTick := toTick - lastTicks + 1
	if fromTick < 0 {
		fromTick = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- DuelSense match report ---\n")
	fmt.Fprintf(&b, "tick=%d round=%d outcome=%s reset_pending=%v\n\n",
		toTick, m.Round(), m.Outcome(), m.ResetPending())

	for _, a := range m.Agents() {
		st := a.Stats()
		fmt.Fprintf(&b, "== %s ==\n", a.Name)
		fmt.Fprintf(&b, "pos=(%.1f,%.1f) rot=%.1f state=%s hp=%.0f/%.0f\n",
			a.Pos.X, a.Pos.Y, a.Rot, a.State, a.HP, a.MaxHP)
		fmt.Fprintf(&b, "attacks=%d hits=%d body=%d limb=%d deflections=%d kos=%d\n",
			st.Attacks, st.Hits(), st.BodyHits, st.LimbHits, st.Deflections, st.KOs)
		fmt.Fprintf(&b, "dealt=%.1f taken=%.1f blocked=%.1f block_ratio=%.2f\n\n",
			st.DamageDealt, st.DamageTaken, st.DamageBlocked, st.BlockRatio())
	}

	if log != nil {
		fmt.Fprintf(&b, "== log T=%d..%d ==\n", fromTick, toTick)
		b.WriteString(log.FormatRange(fromTick, toTick))
	}
	return b.String()
}

// copyToClipboard places text on the system clipboard.
func copyToClipboard(text string) error {
	if text == "" {
		text = " "
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
