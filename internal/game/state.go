package game

import "time"

// =============================================================================
// CONSTANTS & SHARED TABLES
// =============================================================================

const (
	MaxClientsPerRoom = 16
	MaxNicknameLength = 20

	WordChoiceCount = 3

	DefaultTargetScore = 10
	DefaultTotalRounds = 10
	DefaultDrawTime    = 75
	MinDrawTime        = 30
	MaxDrawTime        = 120

	WordSelectTimeout = 15 * time.Second
	HintInterval      = 20 * time.Second
	RoundEndDelay     = 5 * time.Second
	StartGameDelay    = 500 * time.Millisecond
	ReconnectGrace    = 20 * time.Second

	// Chat log is trimmed to the newest ChatKeepCount entries once it grows
	// past ChatTrimThreshold.
	ChatTrimThreshold = 100
	ChatKeepCount     = 50

	// Placeholder logged instead of a correct guess so the answer never
	// reaches late observers through the guess log.
	CorrectGuessPlaceholder = "✓ Correct!"
)

type Phase string

const (
	PhaseModeSelect Phase = "mode-select"
	PhaseLobby      Phase = "lobby"
	PhaseWordSelect Phase = "word-select"
	PhaseDrawing    Phase = "drawing"
	PhaseRoundEnd   Phase = "round-end"
	PhaseGameOver   Phase = "game-over"
)

type Role string

const (
	RoleDrawer    Role = "drawer"
	RoleGuesser   Role = "guesser"
	RoleOpponent  Role = "opponent"
	RoleSpectator Role = "spectator"
)

type GameMode string

const (
	ModeTeams GameMode = "teams"
	ModeFFA   GameMode = "ffa"
)

type WinMode string

const (
	WinByPoints WinMode = "points"
	WinByRounds WinMode = "rounds"
)

// AvatarPalette is assigned round-robin on join order.
var AvatarPalette = [12]string{
	"#ef4444", "#f97316", "#eab308", "#84cc16",
	"#22c55e", "#14b8a6", "#06b6d4", "#3b82f6",
	"#8b5cf6", "#d946ef", "#ec4899", "#f43f5e",
}

// TeamPreset pairs a team name with its display color.
type TeamPreset struct {
	Name  string
	Color string
}

var TeamPresets = []TeamPreset{
	{Name: "Blaze", Color: "#ef4444"},
	{Name: "Wave", Color: "#3b82f6"},
	{Name: "Leaf", Color: "#22c55e"},
	{Name: "Bolt", Color: "#eab308"},
	{Name: "Frost", Color: "#06b6d4"},
	{Name: "Plum", Color: "#8b5cf6"},
}

// =============================================================================
// DATA MODEL
// =============================================================================

type Player struct {
	SessionID   string `json:"sessionId"`
	Nickname    string `json:"nickname"`
	AvatarColor string `json:"avatarColor"`
	TeamIndex   int    `json:"teamIndex"`
	Role        Role   `json:"role"`
	IsHost      bool   `json:"isHost"`
	IsConnected bool   `json:"isConnected"`
}

type Team struct {
	Name        string   `json:"name"`
	Color       string   `json:"color"`
	Score       int      `json:"score"`
	DrawerQueue []string `json:"drawerQueue"`
}

type GameSettings struct {
	GameMode     GameMode `json:"gameMode"`
	WinMode      WinMode  `json:"winMode"`
	TargetScore  int      `json:"targetScore"`
	TotalRounds  int      `json:"totalRounds"`
	DrawTime     int      `json:"drawTime"`
	WordCategory string   `json:"wordCategory"`
}

func DefaultSettings() GameSettings {
	return GameSettings{
		GameMode:     ModeTeams,
		WinMode:      WinByPoints,
		TargetScore:  DefaultTargetScore,
		TotalRounds:  DefaultTotalRounds,
		DrawTime:     DefaultDrawTime,
		WordCategory: "mixed",
	}
}

type GuessEntry struct {
	PlayerID  string `json:"playerId"`
	Nickname  string `json:"nickname"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	IsCorrect bool   `json:"isCorrect"`
}

type ChatEntry struct {
	PlayerID  string `json:"playerId"`
	Nickname  string `json:"nickname"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type StrokePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DrawStroke is one polyline with normalized coordinates in [0,1].
type DrawStroke struct {
	Points []StrokePoint `json:"points"`
	Color  string        `json:"color"`
	Width  int           `json:"width"`
	Tool   string        `json:"tool"`
}

const (
	ToolPen    = "pen"
	ToolEraser = "eraser"
)

// GameState is the authoritative, replicated snapshot of one room. The
// secret word is deliberately absent; only the masked hint appears here.
type GameState struct {
	Phase    Phase              `json:"phase"`
	Players  map[string]*Player `json:"players"`
	Teams    []*Team            `json:"teams"`
	Settings GameSettings       `json:"settings"`

	CurrentRound     int    `json:"currentRound"`
	ActiveTeamIndex  int    `json:"activeTeamIndex"`
	CurrentDrawer    string `json:"currentDrawer"`
	WordHint         string `json:"wordHint"`
	TimeRemaining    int    `json:"timeRemaining"`
	WinningTeamIndex int    `json:"winningTeamIndex"`

	Guesses      []GuessEntry `json:"guesses"`
	ChatMessages []ChatEntry  `json:"chatMessages"`

	// Free-for-all fields. FFAPool is the single round-robin drawer queue
	// used instead of a pseudo-team at index 0.
	FFAPool          []string       `json:"ffaPool"`
	PlayerScores     map[string]int `json:"playerScores"`
	WinnerSessionIDs []string       `json:"winnerSessionIds"`
	IsSuddenDeath    bool           `json:"isSuddenDeath"`
}

func NewGameState() *GameState {
	return &GameState{
		Phase:            PhaseModeSelect,
		Players:          make(map[string]*Player),
		Teams:            make([]*Team, 0),
		Settings:         DefaultSettings(),
		ActiveTeamIndex:  0,
		WinningTeamIndex: -1,
		Guesses:          make([]GuessEntry, 0),
		ChatMessages:     make([]ChatEntry, 0),
		FFAPool:          make([]string, 0),
		PlayerScores:     make(map[string]int),
		WinnerSessionIDs: make([]string, 0),
	}
}

func (gs *GameState) ConnectedCount() int {
	count := 0
	for _, p := range gs.Players {
		if p.IsConnected {
			count++
		}
	}
	return count
}

func (gs *GameState) AppendChat(entry ChatEntry) {
	gs.ChatMessages = append(gs.ChatMessages, entry)
	if len(gs.ChatMessages) > ChatTrimThreshold {
		keep := gs.ChatMessages[len(gs.ChatMessages)-ChatKeepCount:]
		gs.ChatMessages = append(make([]ChatEntry, 0, ChatKeepCount), keep...)
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
