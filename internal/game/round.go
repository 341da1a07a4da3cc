package game

import (
	"log"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/shiblyc-four/party-games/internal/words"
)

// =============================================================================
// ROUND CONTROLLER - PHASE STATE MACHINE
// =============================================================================

// Broadcaster is the small surface controllers get for talking to clients,
// so they never hold a Room back-reference.
type Broadcaster interface {
	BroadcastAll(msgType string, data any)
	BroadcastExcept(excludeID string, msgType string, data any)
	SendTo(sessionID string, msgType string, data any)
	// ClearCanvas wipes the authoritative stroke history and notifies
	// every client.
	ClearCanvas()
	// SyncState pushes a replication snapshot immediately, so directed
	// messages sent afterwards observe the mutations already applied.
	SyncState()
}

// Round drives the phase machine for one room: drawer selection, word
// offers, the drawing and hint timers, guess arbitration, round end and
// sudden death. The secret word lives only here, never in GameState.
type Round struct {
	roomID string
	state  *GameState
	roster *Roster
	score  *Score
	b      Broadcaster
	sched  Scheduler
	rng    *rand.Rand

	// run executes fn serialized with the room's event handling; timer
	// callbacks are funneled through it.
	run func(fn func())

	currentWord string
	choices     []string
	hint        *words.Hint

	// epoch invalidates every armed timer when it advances; a callback
	// that wakes up in a later epoch is a no-op.
	epoch     int
	pickTimer Cancelable
	tickTimer Cancelable
	hintTimer Cancelable
	endTimer  Cancelable
}

func NewRound(roomID string, state *GameState, roster *Roster, score *Score, b Broadcaster, sched Scheduler, rng *rand.Rand, run func(fn func())) *Round {
	return &Round{
		roomID: roomID,
		state:  state,
		roster: roster,
		score:  score,
		b:      b,
		sched:  sched,
		rng:    rng,
		run:    run,
	}
}

// after arms a timer whose callback is dropped if the round has moved on.
func (rc *Round) after(d time.Duration, fn func()) Cancelable {
	epoch := rc.epoch
	return rc.sched.After(d, func() {
		rc.run(func() {
			if rc.epoch != epoch {
				return
			}
			fn()
		})
	})
}

// ClearTimers cancels every pending timer and invalidates in-flight fires.
func (rc *Round) ClearTimers() {
	rc.epoch++
	cancelTimer(&rc.pickTimer)
	cancelTimer(&rc.tickTimer)
	cancelTimer(&rc.hintTimer)
	cancelTimer(&rc.endTimer)
}

// Reset returns the controller to its pre-game state (playAgain path).
func (rc *Round) Reset() {
	rc.ClearTimers()
	rc.currentWord = ""
	rc.choices = nil
	rc.hint = nil
}

// CurrentWord exposes the secret for guard checks inside the package.
func (rc *Round) CurrentWord() string {
	return rc.currentWord
}

// StartGame resets all round state and kicks off round one. joinOrder
// seeds the FFA pool so drawer rotation follows join order.
func (rc *Round) StartGame(joinOrder []string) {
	gs := rc.state
	gs.CurrentRound = 0
	gs.ActiveTeamIndex = 0
	gs.WinningTeamIndex = -1
	gs.IsSuddenDeath = false
	gs.WinnerSessionIDs = make([]string, 0)

	if gs.Settings.GameMode == ModeFFA {
		rc.score.ResetPlayerScores()
		rc.roster.InitFFA(joinOrder)
	} else {
		rc.score.ResetTeamScores()
	}

	log.Printf("[StartGame] room=%s mode=%s win=%s", rc.roomID, gs.Settings.GameMode, gs.Settings.WinMode)
	rc.StartNextRound()
}

// StartNextRound advances to the next drawer and offers word choices.
func (rc *Round) StartNextRound() {
	gs := rc.state
	rc.ClearTimers()
	rc.b.ClearCanvas()

	gs.Guesses = make([]GuessEntry, 0)
	gs.WordHint = ""
	gs.TimeRemaining = 0
	rc.currentWord = ""
	rc.hint = nil
	gs.CurrentRound++

	var drawerID string
	var ok bool
	if gs.Settings.GameMode == ModeFFA {
		drawerID, ok = rc.roster.NextFFADrawer()
	} else {
		for attempts := 0; attempts < len(gs.Teams); attempts++ {
			drawerID, ok = rc.roster.NextDrawer(gs.ActiveTeamIndex)
			if ok {
				break
			}
			gs.ActiveTeamIndex = (gs.ActiveTeamIndex + 1) % len(gs.Teams)
		}
	}
	if !ok {
		log.Printf("[StartNextRound] room=%s: no eligible drawer, aborting round", rc.roomID)
		rc.abortToLobby()
		return
	}

	gs.CurrentDrawer = drawerID
	if gs.Settings.GameMode == ModeFFA {
		rc.roster.AssignFFARoles(drawerID)
	} else {
		rc.roster.AssignRoles(drawerID, gs.ActiveTeamIndex)
	}

	rc.offerWords(drawerID)
	log.Printf("[StartNextRound] room=%s round=%d drawer=%s", rc.roomID, gs.CurrentRound, drawerID)
}

func (rc *Round) abortToLobby() {
	gs := rc.state
	gs.Phase = PhaseLobby
	gs.CurrentDrawer = ""
	for _, p := range gs.Players {
		if p.TeamIndex < 0 {
			p.Role = RoleSpectator
		} else {
			p.Role = RoleGuesser
		}
	}
}

// offerWords sends three choices to the drawer only and arms the auto-pick.
func (rc *Round) offerWords(drawerID string) {
	gs := rc.state
	rc.choices = words.Choices(rc.rng, gs.Settings.WordCategory, WordChoiceCount)
	gs.Phase = PhaseWordSelect

	rc.b.SyncState()
	rc.b.SendTo(drawerID, MsgWordChoices, WordChoicesData{Words: rc.choices})

	rc.pickTimer = rc.after(WordSelectTimeout, func() {
		index := rc.rng.Intn(len(rc.choices))
		log.Printf("[offerWords] room=%s: auto-picking choice %d for drawer %s", rc.roomID, index, gs.CurrentDrawer)
		rc.SelectWord(gs.CurrentDrawer, index)
	})
}

// SelectWord stores the chosen secret, reveals the masked hint and starts
// the drawing timers. Callers have already verified phase and sender.
func (rc *Round) SelectWord(sessionID string, index int) {
	gs := rc.state
	if gs.Phase != PhaseWordSelect || sessionID != gs.CurrentDrawer {
		return
	}
	if index < 0 || index >= len(rc.choices) {
		return
	}
	cancelTimer(&rc.pickTimer)

	rc.currentWord = rc.choices[index]
	rc.hint = words.NewHint(rc.currentWord)
	gs.WordHint = rc.hint.Masked()
	gs.TimeRemaining = gs.Settings.DrawTime
	gs.Phase = PhaseDrawing

	rc.b.SyncState()
	rc.b.SendTo(gs.CurrentDrawer, MsgSecretWord, SecretWordData{Word: rc.currentWord})

	rc.armTick()
	rc.armHint()
	log.Printf("[SelectWord] room=%s round=%d drawTime=%ds", rc.roomID, gs.CurrentRound, gs.Settings.DrawTime)
}

func (rc *Round) armTick() {
	rc.tickTimer = rc.after(time.Second, func() {
		gs := rc.state
		if gs.Phase != PhaseDrawing {
			return
		}
		gs.TimeRemaining--
		if gs.TimeRemaining <= 0 {
			gs.TimeRemaining = 0
			rc.EndRound(false)
			return
		}
		rc.armTick()
	})
}

func (rc *Round) armHint() {
	rc.hintTimer = rc.after(HintInterval, func() {
		if rc.state.Phase != PhaseDrawing || rc.hint == nil {
			return
		}
		if rc.hint.RevealRandom(rc.rng) {
			rc.state.WordHint = rc.hint.Masked()
		}
		rc.armHint()
	})
}

// ProcessGuess logs the guess and, when correct, scores and ends the round.
// The Room has already enforced the role/phase guards.
func (rc *Round) ProcessGuess(playerID, nickname, text string) {
	gs := rc.state
	if gs.Phase != PhaseDrawing {
		return
	}
	guess := strings.ToLower(strings.TrimSpace(text))
	secret := strings.ToLower(strings.TrimSpace(rc.currentWord))
	correct := secret != "" && guess == secret

	entry := GuessEntry{
		PlayerID:  playerID,
		Nickname:  nickname,
		Text:      text,
		Timestamp: nowMillis(),
		IsCorrect: correct,
	}
	if correct {
		entry.Text = CorrectGuessPlaceholder
	}
	gs.Guesses = append(gs.Guesses, entry)

	if !correct {
		return
	}

	log.Printf("[ProcessGuess] room=%s: %s guessed the word", rc.roomID, nickname)
	rc.b.BroadcastAll(MsgCorrectGuess, CorrectGuessData{
		PlayerID: playerID,
		Nickname: nickname,
		Word:     rc.currentWord,
	})

	switch {
	case gs.Settings.GameMode == ModeTeams:
		rc.score.AwardTeamPoint(gs.ActiveTeamIndex)
		rc.EndRound(true)
	case gs.IsSuddenDeath:
		rc.EndSuddenDeathWin(playerID)
	default:
		rc.score.AwardPlayerPoint(playerID)
		rc.EndRound(true)
	}
}

// EndRound closes the drawing phase, reveals the word and schedules the
// next transition after the round-end delay.
func (rc *Round) EndRound(wasCorrect bool) {
	gs := rc.state
	rc.ClearTimers()
	gs.Phase = PhaseRoundEnd

	result := RoundResultData{
		Word:       rc.currentWord,
		WasCorrect: wasCorrect,
		TeamIndex:  -1,
	}
	if gs.Settings.GameMode == ModeTeams && gs.ActiveTeamIndex < len(gs.Teams) {
		result.TeamIndex = gs.ActiveTeamIndex
		result.TeamName = gs.Teams[gs.ActiveTeamIndex].Name
	}
	rc.b.SyncState()
	rc.b.BroadcastAll(MsgRoundResult, result)

	if gs.Settings.GameMode == ModeTeams {
		winner := rc.score.TeamWinner()
		if winner >= 0 {
			rc.endTimer = rc.after(RoundEndDelay, func() {
				gs.WinningTeamIndex = winner
				gs.Phase = PhaseGameOver
				log.Printf("[EndRound] room=%s: team %d wins", rc.roomID, winner)
			})
			return
		}
		if len(gs.Teams) > 0 {
			gs.ActiveTeamIndex = (gs.ActiveTeamIndex + 1) % len(gs.Teams)
		}
		rc.endTimer = rc.after(RoundEndDelay, rc.StartNextRound)
		return
	}

	winners := rc.score.FFAWinners()
	switch {
	case len(winners) == 1:
		rc.endTimer = rc.after(RoundEndDelay, func() {
			gs.WinnerSessionIDs = winners
			gs.Phase = PhaseGameOver
			log.Printf("[EndRound] room=%s: %s wins", rc.roomID, winners[0])
		})
	case len(winners) > 1:
		rc.endTimer = rc.after(RoundEndDelay, func() {
			rc.StartSuddenDeath(winners)
		})
	default:
		rc.endTimer = rc.after(RoundEndDelay, rc.StartNextRound)
	}
}

// StartSuddenDeath runs the tie-breaker: a non-tied player draws and only
// the tied players may guess; first correct guess wins the game outright.
func (rc *Round) StartSuddenDeath(tiedIDs []string) {
	gs := rc.state
	rc.ClearTimers()
	rc.b.ClearCanvas()

	gs.IsSuddenDeath = true
	gs.WinnerSessionIDs = append(make([]string, 0, len(tiedIDs)), tiedIDs...)
	gs.Guesses = make([]GuessEntry, 0)
	gs.WordHint = ""
	gs.TimeRemaining = 0
	rc.currentWord = ""
	rc.hint = nil

	drawerID := rc.roster.SuddenDeathDrawer(tiedIDs)
	if drawerID == "" {
		log.Printf("[StartSuddenDeath] room=%s: no drawer available, aborting", rc.roomID)
		rc.abortToLobby()
		return
	}
	gs.CurrentDrawer = drawerID

	for _, p := range gs.Players {
		switch {
		case p.SessionID == drawerID:
			p.Role = RoleDrawer
		case slices.Contains(tiedIDs, p.SessionID):
			p.Role = RoleGuesser
		default:
			p.Role = RoleSpectator
		}
	}

	log.Printf("[StartSuddenDeath] room=%s: drawer=%s tied=%v", rc.roomID, drawerID, tiedIDs)
	rc.offerWords(drawerID)
}

// EndSuddenDeathWin ends the whole game immediately in favor of sessionID.
func (rc *Round) EndSuddenDeathWin(sessionID string) {
	gs := rc.state
	rc.ClearTimers()
	gs.IsSuddenDeath = false
	gs.WinnerSessionIDs = []string{sessionID}
	gs.Phase = PhaseGameOver
	log.Printf("[EndSuddenDeathWin] room=%s: %s wins sudden death", rc.roomID, sessionID)
}
