package game

import "encoding/json"

// =============================================================================
// WIRE MESSAGES
// =============================================================================

// Message is the envelope for every frame in both directions.
type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Client -> server message types.
const (
	MsgSetGameMode = "setGameMode"
	MsgJoinTeam    = "joinTeam"
	MsgSpectate    = "spectate"
	MsgStartGame   = "startGame"
	MsgSelectWord  = "selectWord"
	MsgDraw        = "draw"
	MsgClearCanvas = "clearCanvas"
	MsgUndo        = "undo"
	MsgGuess       = "guess"
	MsgChat        = "chat"
	MsgPlayAgain   = "playAgain"
)

// Server -> client message types. MsgState carries the replicated GameState
// snapshot; the rest are ad-hoc directed or broadcast messages.
const (
	MsgState         = "state"
	MsgWordChoices   = "wordChoices"
	MsgSecretWord    = "secretWord"
	MsgStrokeHistory = "strokeHistory"
	MsgCorrectGuess  = "correctGuess"
	MsgRoundResult   = "roundResult"
	MsgError         = "error"
)

type SetGameModePayload struct {
	GameMode string `json:"gameMode"`
}

type JoinTeamPayload struct {
	TeamIndex int `json:"teamIndex"`
}

// SettingsPatch is the partial settings merge accepted with startGame.
// Nil fields leave the current setting untouched.
type SettingsPatch struct {
	WinMode      *string `json:"winMode,omitempty"`
	TargetScore  *int    `json:"targetScore,omitempty"`
	TotalRounds  *int    `json:"totalRounds,omitempty"`
	DrawTime     *int    `json:"drawTime,omitempty"`
	WordCategory *string `json:"wordCategory,omitempty"`
}

type StartGamePayload struct {
	Settings *SettingsPatch `json:"settings,omitempty"`
}

type SelectWordPayload struct {
	WordIndex int `json:"wordIndex"`
}

type TextPayload struct {
	Text string `json:"text"`
}

type WordChoicesData struct {
	Words []string `json:"words"`
}

type SecretWordData struct {
	Word string `json:"word"`
}

type CorrectGuessData struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Word     string `json:"word"`
}

type RoundResultData struct {
	Word       string `json:"word"`
	WasCorrect bool   `json:"wasCorrect"`
	TeamIndex  int    `json:"teamIndex"`
	TeamName   string `json:"teamName"`
}

type ErrorData struct {
	Message string `json:"message"`
}

func decodePayload[T any](raw json.RawMessage, into *T) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, into) == nil
}
