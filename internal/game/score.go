package game

import "slices"

// =============================================================================
// SCORE CONTROLLER
// =============================================================================

// Score awards points and evaluates win conditions for both modes.
type Score struct {
	state *GameState
}

func NewScore(state *GameState) *Score {
	return &Score{state: state}
}

func (sc *Score) AwardTeamPoint(teamIndex int) {
	if teamIndex < 0 || teamIndex >= len(sc.state.Teams) {
		return
	}
	sc.state.Teams[teamIndex].Score++
}

func (sc *Score) AwardPlayerPoint(sessionID string) {
	sc.state.PlayerScores[sessionID]++
}

// TeamWinner returns the winning team index, or -1 while the game is still
// open. Points mode: the lowest index at or past the target. Rounds mode:
// once all rounds are played, the strictly highest score wins, so ties
// resolve to the lowest team index.
func (sc *Score) TeamWinner() int {
	settings := sc.state.Settings
	if settings.WinMode == WinByPoints {
		for i, team := range sc.state.Teams {
			if team.Score >= settings.TargetScore {
				return i
			}
		}
		return -1
	}
	if sc.state.CurrentRound < settings.TotalRounds {
		return -1
	}
	winner := -1
	best := -1
	for i, team := range sc.state.Teams {
		if team.Score > best {
			best = team.Score
			winner = i
		}
	}
	return winner
}

// FFAWinners returns every session id holding the max score once the win
// condition is met; an empty slice means the game continues. A zero max
// never wins. Two or more ids mean sudden death. Pool members come first
// in pool order, then any scorer outside the pool (a late joiner can guess
// and win) sorted by id, so the result is deterministic.
func (sc *Score) FFAWinners() []string {
	settings := sc.state.Settings
	maxScore := 0
	for _, score := range sc.state.PlayerScores {
		if score > maxScore {
			maxScore = score
		}
	}
	if settings.WinMode == WinByPoints && maxScore < settings.TargetScore {
		return nil
	}
	if settings.WinMode == WinByRounds && sc.state.CurrentRound < settings.TotalRounds {
		return nil
	}
	if maxScore == 0 {
		return nil
	}
	winners := make([]string, 0, 2)
	inPool := make(map[string]bool, len(sc.state.FFAPool))
	for _, id := range sc.state.FFAPool {
		inPool[id] = true
		if sc.state.PlayerScores[id] == maxScore {
			winners = append(winners, id)
		}
	}
	rest := make([]string, 0)
	for id, score := range sc.state.PlayerScores {
		if score == maxScore && !inPool[id] {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	return append(winners, rest...)
}

func (sc *Score) ResetTeamScores() {
	for _, team := range sc.state.Teams {
		team.Score = 0
	}
}

func (sc *Score) ResetPlayerScores() {
	sc.state.PlayerScores = make(map[string]int)
}
