package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newScoreFixture(teams int) (*GameState, *Score) {
	gs := NewGameState()
	NewRoster(gs).InitTeams(teams)
	return gs, NewScore(gs)
}

func TestTeamWinnerByPoints(t *testing.T) {
	gs, sc := newScoreFixture(2)
	gs.Settings.WinMode = WinByPoints
	gs.Settings.TargetScore = 2

	assert.Equal(t, -1, sc.TeamWinner())
	sc.AwardTeamPoint(1)
	assert.Equal(t, -1, sc.TeamWinner())
	sc.AwardTeamPoint(1)
	assert.Equal(t, 1, sc.TeamWinner())
}

func TestTeamWinnerByRoundsWaitsForAllRounds(t *testing.T) {
	gs, sc := newScoreFixture(2)
	gs.Settings.WinMode = WinByRounds
	gs.Settings.TotalRounds = 4
	gs.Teams[0].Score = 3

	gs.CurrentRound = 3
	assert.Equal(t, -1, sc.TeamWinner())
	gs.CurrentRound = 4
	assert.Equal(t, 0, sc.TeamWinner())
}

func TestTeamWinnerByRoundsTieGoesToLowestIndex(t *testing.T) {
	gs, sc := newScoreFixture(3)
	gs.Settings.WinMode = WinByRounds
	gs.Settings.TotalRounds = 2
	gs.CurrentRound = 2
	gs.Teams[1].Score = 2
	gs.Teams[2].Score = 2

	assert.Equal(t, 1, sc.TeamWinner())
}

func TestFFAWinnersByPoints(t *testing.T) {
	gs := NewGameState()
	sc := NewScore(gs)
	gs.Settings.GameMode = ModeFFA
	gs.Settings.WinMode = WinByPoints
	gs.Settings.TargetScore = 2
	gs.FFAPool = []string{"a", "b", "c"}

	gs.PlayerScores["b"] = 1
	assert.Empty(t, sc.FFAWinners())
	gs.PlayerScores["b"] = 2
	assert.Equal(t, []string{"b"}, sc.FFAWinners())
}

func TestFFAWinnersTieInPoolOrder(t *testing.T) {
	gs := NewGameState()
	sc := NewScore(gs)
	gs.Settings.WinMode = WinByRounds
	gs.Settings.TotalRounds = 2
	gs.CurrentRound = 2
	gs.FFAPool = []string{"c", "a", "b"}
	gs.PlayerScores["a"] = 1
	gs.PlayerScores["c"] = 1

	assert.Equal(t, []string{"c", "a"}, sc.FFAWinners())
}

func TestFFAWinnersZeroScoreNeverWins(t *testing.T) {
	gs := NewGameState()
	sc := NewScore(gs)
	gs.Settings.WinMode = WinByRounds
	gs.Settings.TotalRounds = 1
	gs.CurrentRound = 1
	gs.FFAPool = []string{"a", "b"}

	assert.Empty(t, sc.FFAWinners(), "a scoreless game keeps going")
}

func TestFFAWinnersIncludeScorersOutsidePool(t *testing.T) {
	gs := NewGameState()
	sc := NewScore(gs)
	gs.Settings.WinMode = WinByPoints
	gs.Settings.TargetScore = 1
	gs.FFAPool = []string{"a", "b"}
	gs.PlayerScores["z"] = 1

	assert.Equal(t, []string{"z"}, sc.FFAWinners())
}

func TestFFAWinnersOrderPoolFirstThenSortedRest(t *testing.T) {
	gs := NewGameState()
	sc := NewScore(gs)
	gs.Settings.WinMode = WinByPoints
	gs.Settings.TargetScore = 1
	gs.FFAPool = []string{"b", "a"}
	gs.PlayerScores["b"] = 1
	gs.PlayerScores["z"] = 1
	gs.PlayerScores["c"] = 1

	assert.Equal(t, []string{"b", "c", "z"}, sc.FFAWinners())
}

func TestResetScores(t *testing.T) {
	gs, sc := newScoreFixture(2)
	gs.Teams[0].Score = 5
	gs.PlayerScores["a"] = 3

	sc.ResetTeamScores()
	sc.ResetPlayerScores()
	assert.Zero(t, gs.Teams[0].Score)
	assert.Empty(t, gs.PlayerScores)
}
