package game

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"slices"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/shiblyc-four/party-games/internal/words"
)

// =============================================================================
// ROOM
// =============================================================================

// Sender is one connected client as the room sees it. Send must marshal
// synchronously and never block; the transport buffers outbound frames.
type Sender interface {
	SessionID() string
	Send(v any)
}

// Stroke flood control for the drawer.
const (
	drawRateLimit = 60
	drawRateBurst = 120
)

// RoomInfo is the directory-facing summary of a room.
type RoomInfo struct {
	Code        string `json:"code"`
	Phase       Phase  `json:"phase"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
}

// Room owns one GameState, the three controllers and the stroke history.
// A single mutex is held for the whole of every event handler, so inside a
// room all mutations are serial; timer callbacks funnel through withLock.
type Room struct {
	Code string

	mu       sync.Mutex
	disposed bool

	state  *GameState
	roster *Roster
	score  *Score
	round  *Round
	sched  Scheduler
	rng    *rand.Rand

	conns      map[string]Sender
	joinOrder  []string
	colorIndex int
	limiters   map[string]*rate.Limiter

	strokes []DrawStroke

	startTimer  Cancelable
	graceTimers map[string]Cancelable

	// onEmpty fires once when the room disposes; onUpdate mirrors the
	// directory summary after events. Both run outside the room lock.
	onEmpty  func(code string)
	onUpdate func(info RoomInfo)
}

func NewRoom(code string, sched Scheduler, rng *rand.Rand) *Room {
	state := NewGameState()
	roster := NewRoster(state)
	score := NewScore(state)
	r := &Room{
		Code:        code,
		state:       state,
		roster:      roster,
		score:       score,
		sched:       sched,
		rng:         rng,
		conns:       make(map[string]Sender),
		limiters:    make(map[string]*rate.Limiter),
		strokes:     make([]DrawStroke, 0),
		graceTimers: make(map[string]Cancelable),
	}
	r.round = NewRound(code, state, roster, score, r, sched, rng, r.withLock)
	return r
}

func (r *Room) SetOnEmpty(fn func(code string)) {
	r.mu.Lock()
	r.onEmpty = fn
	r.mu.Unlock()
}

func (r *Room) SetOnUpdate(fn func(info RoomInfo)) {
	r.mu.Lock()
	r.onUpdate = fn
	r.mu.Unlock()
}

// withLock serializes timer callbacks with client events and pushes a
// replication snapshot after the callback body ran.
func (r *Room) withLock(fn func()) {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	fn()
	r.pushStateLocked()
	r.notifyLocked()
	r.mu.Unlock()
}

// Info returns the directory summary.
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infoLocked()
}

func (r *Room) infoLocked() RoomInfo {
	return RoomInfo{
		Code:        r.Code,
		Phase:       r.state.Phase,
		PlayerCount: len(r.conns),
		MaxPlayers:  MaxClientsPerRoom,
	}
}

func (r *Room) notifyLocked() {
	if r.onUpdate == nil || r.disposed {
		return
	}
	info := r.infoLocked()
	go r.onUpdate(info)
}

// =============================================================================
// JOIN / LEAVE / RECONNECT
// =============================================================================

// Join admits a client, either as a fresh player or as a nickname-matched
// reconnection that takes over a disconnected player's identity.
func (r *Room) Join(conn Sender, nickname string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return fmt.Errorf("room %s is closed", r.Code)
	}
	if len(r.conns) >= MaxClientsPerRoom {
		return fmt.Errorf("room %s is full", r.Code)
	}

	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		nickname = "Anonymous"
	}
	if runes := []rune(nickname); len(runes) > MaxNicknameLength {
		nickname = string(runes[:MaxNicknameLength])
	}

	sessionID := conn.SessionID()
	if old := r.findDisconnectedLocked(nickname); old != nil {
		r.reconnectLocked(old, sessionID)
	} else {
		player := &Player{
			SessionID:   sessionID,
			Nickname:    nickname,
			AvatarColor: AvatarPalette[r.colorIndex%len(AvatarPalette)],
			TeamIndex:   -1,
			Role:        RoleSpectator,
			IsHost:      len(r.conns) == 0,
			IsConnected: true,
		}
		r.colorIndex++
		r.state.Players[sessionID] = player
		r.joinOrder = append(r.joinOrder, sessionID)
		r.state.AppendChat(ChatEntry{
			Nickname:  "system",
			Text:      fmt.Sprintf("%s joined the room", nickname),
			Timestamp: nowMillis(),
		})
		log.Printf("[Join] room=%s: %s joined as %s", r.Code, nickname, sessionID)
	}

	r.conns[sessionID] = conn
	r.limiters[sessionID] = rate.NewLimiter(rate.Limit(drawRateLimit), drawRateBurst)

	r.pushStateLocked()
	if r.state.Phase == PhaseDrawing && len(r.strokes) > 0 {
		conn.Send(Message[[]DrawStroke]{Type: MsgStrokeHistory, Data: r.strokes})
	}
	r.notifyLocked()
	return nil
}

func (r *Room) findDisconnectedLocked(nickname string) *Player {
	for _, id := range r.joinOrder {
		p := r.state.Players[id]
		if p != nil && !p.IsConnected && strings.EqualFold(p.Nickname, nickname) {
			return p
		}
	}
	return nil
}

// reconnectLocked remaps a disconnected player onto a new session id,
// preserving nickname, color, team, role, host flag and queue position.
func (r *Room) reconnectLocked(old *Player, sessionID string) {
	if t, ok := r.graceTimers[old.SessionID]; ok {
		t.Cancel()
		delete(r.graceTimers, old.SessionID)
	}

	restored := &Player{
		SessionID:   sessionID,
		Nickname:    old.Nickname,
		AvatarColor: old.AvatarColor,
		TeamIndex:   old.TeamIndex,
		Role:        old.Role,
		IsHost:      old.IsHost,
		IsConnected: true,
	}
	delete(r.state.Players, old.SessionID)
	r.state.Players[sessionID] = restored
	r.roster.ReplaceSessionID(old.SessionID, sessionID, restored.TeamIndex)
	for i, id := range r.joinOrder {
		if id == old.SessionID {
			r.joinOrder[i] = sessionID
		}
	}
	delete(r.limiters, old.SessionID)

	r.state.AppendChat(ChatEntry{
		Nickname:  "system",
		Text:      fmt.Sprintf("%s reconnected", restored.Nickname),
		Timestamp: nowMillis(),
	})
	log.Printf("[Join] room=%s: %s reconnected (%s -> %s)", r.Code, restored.Nickname, old.SessionID, sessionID)
}

// Leave handles both consented departures and raw connection drops. A drop
// opens the reconnection grace window instead of removing the player.
func (r *Room) Leave(sessionID string, consented bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}

	delete(r.conns, sessionID)
	delete(r.limiters, sessionID)

	p := r.state.Players[sessionID]
	if p == nil {
		return
	}

	if consented {
		r.removePlayerLocked(sessionID)
	} else {
		r.roster.HandleDisconnect(p)
		if p.IsHost {
			r.promoteHostLocked(sessionID)
		}
		r.graceTimers[sessionID] = r.sched.After(ReconnectGrace, func() {
			r.withLock(func() { r.expireGraceLocked(sessionID) })
		})
		log.Printf("[Leave] room=%s: %s disconnected, grace window open", r.Code, p.Nickname)
	}

	r.pushStateLocked()
	r.notifyLocked()
}

func (r *Room) expireGraceLocked(sessionID string) {
	delete(r.graceTimers, sessionID)
	p := r.state.Players[sessionID]
	if p == nil || p.IsConnected {
		return
	}
	log.Printf("[Leave] room=%s: grace expired for %s", r.Code, p.Nickname)
	r.removePlayerLocked(sessionID)
}

func (r *Room) removePlayerLocked(sessionID string) {
	p := r.state.Players[sessionID]
	if p == nil {
		return
	}
	if t, ok := r.graceTimers[sessionID]; ok {
		t.Cancel()
		delete(r.graceTimers, sessionID)
	}

	wasHost := p.IsHost
	wasDrawer := r.state.CurrentDrawer == sessionID

	r.roster.RemovePlayer(sessionID)
	r.joinOrder = slices.DeleteFunc(r.joinOrder, func(id string) bool {
		return id == sessionID
	})
	r.state.AppendChat(ChatEntry{
		Nickname:  "system",
		Text:      fmt.Sprintf("%s left the room", p.Nickname),
		Timestamp: nowMillis(),
	})
	log.Printf("[Leave] room=%s: removed %s", r.Code, p.Nickname)

	if wasHost {
		r.promoteHostLocked(sessionID)
	}
	if wasDrawer && (r.state.Phase == PhaseWordSelect || r.state.Phase == PhaseDrawing) {
		r.round.EndRound(false)
	}

	if len(r.conns) == 0 && len(r.graceTimers) == 0 {
		r.disposeLocked()
	}
}

// promoteHostLocked hands the host flag to the earliest joined connected
// player. The departing/disconnected session keeps nothing.
func (r *Room) promoteHostLocked(departing string) {
	for _, p := range r.state.Players {
		p.IsHost = false
	}
	for _, id := range r.joinOrder {
		if id == departing {
			continue
		}
		if p := r.state.Players[id]; p != nil && p.IsConnected {
			p.IsHost = true
			log.Printf("[Leave] room=%s: %s is now host", r.Code, p.Nickname)
			return
		}
	}
	// nobody connected; the earliest player still in the room (possibly
	// inside the grace window, possibly the departing player on an
	// unconsented drop) keeps the flag so a reconnect restores it
	for _, id := range r.joinOrder {
		if p := r.state.Players[id]; p != nil {
			p.IsHost = true
			return
		}
	}
}

// Dispose tears the room down and cancels every timer.
func (r *Room) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.disposed {
		r.disposeLocked()
	}
}

func (r *Room) disposeLocked() {
	r.disposed = true
	r.round.Reset()
	cancelTimer(&r.startTimer)
	for id, t := range r.graceTimers {
		t.Cancel()
		delete(r.graceTimers, id)
	}
	log.Printf("[Dispose] room=%s disposed", r.Code)
	if r.onEmpty != nil {
		go r.onEmpty(r.Code)
	}
}

// =============================================================================
// MESSAGE DISPATCH
// =============================================================================

// HandleMessage is the single entry point for client frames. Guards run in
// order: phase, then identity, then payload validation.
func (r *Room) HandleMessage(sessionID string, raw []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	p := r.state.Players[sessionID]
	if p == nil {
		return
	}

	var env Message[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("[HandleMessage] room=%s: malformed frame from %s: %v", r.Code, sessionID, err)
		return
	}

	r.dispatchLocked(p, env.Type, env.Data)
	r.pushStateLocked()
	r.notifyLocked()
}

func (r *Room) dispatchLocked(p *Player, msgType string, raw json.RawMessage) {
	gs := r.state
	switch msgType {

	case MsgSetGameMode:
		if gs.Phase != PhaseModeSelect {
			return
		}
		if !p.IsHost {
			r.sendErrorLocked(p.SessionID, "only the host can set the game mode")
			return
		}
		var payload SetGameModePayload
		if !decodePayload(raw, &payload) {
			return
		}
		switch GameMode(payload.GameMode) {
		case ModeFFA:
			gs.Settings.GameMode = ModeFFA
			gs.Teams = make([]*Team, 0)
			gs.FFAPool = make([]string, 0)
			gs.Phase = PhaseLobby
		case ModeTeams:
			gs.Settings.GameMode = ModeTeams
			if len(gs.Teams) == 0 {
				r.roster.InitTeams(2)
			}
			gs.Phase = PhaseLobby
		default:
			r.sendErrorLocked(p.SessionID, fmt.Sprintf("unknown game mode %q", payload.GameMode))
		}

	case MsgJoinTeam:
		if gs.Phase != PhaseLobby {
			return
		}
		var payload JoinTeamPayload
		if !decodePayload(raw, &payload) {
			return
		}
		if err := r.roster.JoinTeam(p, payload.TeamIndex); err != nil {
			log.Printf("[dispatch] room=%s: joinTeam rejected: %v", r.Code, err)
		}

	case MsgSpectate:
		if gs.Phase != PhaseLobby {
			return
		}
		r.roster.SetSpectator(p)

	case MsgStartGame:
		if gs.Phase != PhaseLobby {
			return
		}
		if !p.IsHost {
			r.sendErrorLocked(p.SessionID, "only the host can start the game")
			return
		}
		if err := r.roster.CanStartGame(); err != nil {
			r.sendErrorLocked(p.SessionID, err.Error())
			return
		}
		var payload StartGamePayload
		decodePayload(raw, &payload)
		if payload.Settings != nil {
			r.mergeSettingsLocked(payload.Settings)
		}
		order := append([]string(nil), r.joinOrder...)
		cancelTimer(&r.startTimer)
		r.startTimer = r.sched.After(StartGameDelay, func() {
			r.withLock(func() {
				if r.state.Phase == PhaseLobby {
					r.round.StartGame(order)
				}
			})
		})

	case MsgSelectWord:
		if gs.Phase != PhaseWordSelect || p.SessionID != gs.CurrentDrawer {
			return
		}
		var payload SelectWordPayload
		if !decodePayload(raw, &payload) {
			return
		}
		r.round.SelectWord(p.SessionID, payload.WordIndex)

	case MsgDraw:
		if gs.Phase != PhaseDrawing || p.SessionID != gs.CurrentDrawer {
			return
		}
		if lim := r.limiters[p.SessionID]; lim != nil && !lim.Allow() {
			return
		}
		var stroke DrawStroke
		if !decodePayload(raw, &stroke) || !validStroke(stroke) {
			return
		}
		r.strokes = append(r.strokes, stroke)
		r.broadcastExceptLocked(p.SessionID, MsgDraw, stroke)

	case MsgClearCanvas:
		if gs.Phase != PhaseDrawing || p.SessionID != gs.CurrentDrawer {
			return
		}
		r.clearCanvasLocked()

	case MsgUndo:
		if gs.Phase != PhaseDrawing || p.SessionID != gs.CurrentDrawer {
			return
		}
		if n := len(r.strokes); n > 0 {
			r.strokes = r.strokes[:n-1]
		}
		r.broadcastAllLocked(MsgUndo, nil)

	case MsgGuess:
		if gs.Phase != PhaseDrawing {
			return
		}
		switch {
		case gs.Settings.GameMode == ModeTeams:
			if p.Role != RoleGuesser {
				r.sendErrorLocked(p.SessionID, "you cannot guess this round")
				return
			}
		case gs.IsSuddenDeath:
			if !slices.Contains(gs.WinnerSessionIDs, p.SessionID) {
				r.sendErrorLocked(p.SessionID, "only tied players can guess in sudden death")
				return
			}
		default:
			if p.SessionID == gs.CurrentDrawer {
				r.sendErrorLocked(p.SessionID, "the drawer cannot guess")
				return
			}
		}
		var payload TextPayload
		if !decodePayload(raw, &payload) || strings.TrimSpace(payload.Text) == "" {
			return
		}
		r.round.ProcessGuess(p.SessionID, p.Nickname, payload.Text)

	case MsgChat:
		if gs.Phase == PhaseDrawing && p.Role == RoleGuesser {
			r.sendErrorLocked(p.SessionID, "no chatting while you can guess")
			return
		}
		var payload TextPayload
		if !decodePayload(raw, &payload) || strings.TrimSpace(payload.Text) == "" {
			return
		}
		gs.AppendChat(ChatEntry{
			PlayerID:  p.SessionID,
			Nickname:  p.Nickname,
			Text:      payload.Text,
			Timestamp: nowMillis(),
		})

	case MsgPlayAgain:
		if !p.IsHost {
			return
		}
		r.resetForNewGameLocked()

	default:
		log.Printf("[dispatch] room=%s: unknown message type %q from %s", r.Code, msgType, p.SessionID)
	}
}

func (r *Room) mergeSettingsLocked(patch *SettingsPatch) {
	settings := &r.state.Settings
	if patch.WinMode != nil {
		switch WinMode(*patch.WinMode) {
		case WinByPoints, WinByRounds:
			settings.WinMode = WinMode(*patch.WinMode)
		}
	}
	if patch.TargetScore != nil && *patch.TargetScore > 0 {
		settings.TargetScore = *patch.TargetScore
	}
	if patch.TotalRounds != nil && *patch.TotalRounds > 0 {
		settings.TotalRounds = *patch.TotalRounds
	}
	if patch.DrawTime != nil {
		settings.DrawTime = min(max(*patch.DrawTime, MinDrawTime), MaxDrawTime)
	}
	if patch.WordCategory != nil && words.IsCategory(*patch.WordCategory) {
		settings.WordCategory = *patch.WordCategory
	}
}

// resetForNewGameLocked implements playAgain: back to mode-select with two
// fresh default teams and everyone benched.
func (r *Room) resetForNewGameLocked() {
	gs := r.state
	r.round.Reset()
	r.clearCanvasLocked()

	gs.CurrentRound = 0
	gs.ActiveTeamIndex = 0
	gs.CurrentDrawer = ""
	gs.WordHint = ""
	gs.TimeRemaining = 0
	gs.WinningTeamIndex = -1
	gs.Guesses = make([]GuessEntry, 0)
	gs.FFAPool = make([]string, 0)
	gs.PlayerScores = make(map[string]int)
	gs.WinnerSessionIDs = make([]string, 0)
	gs.IsSuddenDeath = false

	for _, p := range gs.Players {
		p.Role = RoleSpectator
		p.TeamIndex = -1
	}
	r.roster.InitTeams(2)
	gs.Settings.GameMode = ModeTeams
	gs.Phase = PhaseModeSelect
	log.Printf("[playAgain] room=%s reset to mode select", r.Code)
}

func validStroke(s DrawStroke) bool {
	if len(s.Points) == 0 || s.Width <= 0 {
		return false
	}
	if s.Tool != ToolPen && s.Tool != ToolEraser {
		return false
	}
	for _, pt := range s.Points {
		if pt.X < 0 || pt.X > 1 || pt.Y < 0 || pt.Y > 1 {
			return false
		}
	}
	return true
}

// =============================================================================
// BROADCASTER (room lock held by callers)
// =============================================================================

// The Broadcaster methods below are invoked from within event handlers and
// timer callbacks, i.e. with the room lock already held. Sends are
// non-blocking channel pushes in the transport, so no I/O happens here.

func (r *Room) BroadcastAll(msgType string, data any) {
	r.broadcastAllLocked(msgType, data)
}

func (r *Room) BroadcastExcept(excludeID string, msgType string, data any) {
	r.broadcastExceptLocked(excludeID, msgType, data)
}

func (r *Room) SendTo(sessionID string, msgType string, data any) {
	if conn, ok := r.conns[sessionID]; ok {
		conn.Send(Message[any]{Type: msgType, Data: data})
	}
}

func (r *Room) ClearCanvas() {
	r.clearCanvasLocked()
}

func (r *Room) SyncState() {
	r.pushStateLocked()
}

func (r *Room) broadcastAllLocked(msgType string, data any) {
	msg := Message[any]{Type: msgType, Data: data}
	for _, conn := range r.conns {
		conn.Send(msg)
	}
}

func (r *Room) broadcastExceptLocked(excludeID string, msgType string, data any) {
	msg := Message[any]{Type: msgType, Data: data}
	for id, conn := range r.conns {
		if id == excludeID {
			continue
		}
		conn.Send(msg)
	}
}

func (r *Room) sendErrorLocked(sessionID, message string) {
	r.SendTo(sessionID, MsgError, ErrorData{Message: message})
}

func (r *Room) clearCanvasLocked() {
	r.strokes = r.strokes[:0]
	r.broadcastAllLocked(MsgClearCanvas, nil)
}

// pushStateLocked is the replication adapter: the full authoritative state
// (secret word excluded by construction) goes to every member.
func (r *Room) pushStateLocked() {
	msg := Message[*GameState]{Type: MsgState, Data: r.state}
	for _, conn := range r.conns {
		conn.Send(msg)
	}
}
