package game

// MatchOutcome is how a round ended.
type MatchOutcome int

const (
	OutcomeInProgress MatchOutcome = iota
	OutcomeAgent0Wins
	OutcomeAgent1Wins
	OutcomeDoubleKO
)

func (o MatchOutcome) String() string {
	switch o {
	case OutcomeInProgress:
		return "in_progress"
	case OutcomeAgent0Wins:
		return "agent0_wins"
	case OutcomeAgent1Wins:
		return "agent1_wins"
	case OutcomeDoubleKO:
		return "double_ko"
	default:
		return "unknown"
	}
}

// DetermineOutcome inspects both fighters' health.
func DetermineOutcome(a0, a1 *Agent) MatchOutcome {
	switch {
	case a0.KnockedOut() && a1.KnockedOut():
		return OutcomeDoubleKO
	case a1.KnockedOut():
		return OutcomeAgent0Wins
	case a0.KnockedOut():
		return OutcomeAgent1Wins
	default:
		return OutcomeInProgress
	}
}

// winnerName returns the surviving agent's name, or "" on a double KO.
func winnerName(o MatchOutcome, a0, a1 *Agent) string {
	switch o {
	case OutcomeAgent0Wins:
		return a0.Name
	case OutcomeAgent1Wins:
		return a1.Name
	default:
		return ""
	}
}
