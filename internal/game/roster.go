package game

import (
	"errors"
	"fmt"
	"slices"
)

// =============================================================================
// TEAM / ROSTER CONTROLLER
// =============================================================================

var (
	ErrNeedTwoTeams   = errors.New("need at least two teams with a player each")
	ErrNeedTwoPlayers = errors.New("need at least two connected players")
)

// Roster manages team membership, drawer queues and per-round role
// assignment. It only mutates the GameState it was built around, and only
// while the owning Room handles an event.
type Roster struct {
	state *GameState
}

func NewRoster(state *GameState) *Roster {
	return &Roster{state: state}
}

// InitTeams replaces the teams array with count fresh presets, clearing
// queues and scores.
func (ro *Roster) InitTeams(count int) {
	if count > len(TeamPresets) {
		count = len(TeamPresets)
	}
	teams := make([]*Team, 0, count)
	for i := 0; i < count; i++ {
		teams = append(teams, &Team{
			Name:        TeamPresets[i].Name,
			Color:       TeamPresets[i].Color,
			DrawerQueue: make([]string, 0),
		})
	}
	ro.state.Teams = teams
}

// JoinTeam moves the player onto the target team's queue tail. Rejoining the
// same team reorders the player to the tail.
func (ro *Roster) JoinTeam(p *Player, teamIndex int) error {
	if teamIndex < 0 || teamIndex >= len(ro.state.Teams) {
		return fmt.Errorf("team index %d out of range", teamIndex)
	}
	ro.removeFromQueues(p.SessionID)
	p.TeamIndex = teamIndex
	p.Role = RoleGuesser
	team := ro.state.Teams[teamIndex]
	team.DrawerQueue = append(team.DrawerQueue, p.SessionID)
	return nil
}

// SetSpectator pulls the player out of every queue and benches them.
func (ro *Roster) SetSpectator(p *Player) {
	ro.removeFromQueues(p.SessionID)
	p.TeamIndex = -1
	p.Role = RoleSpectator
}

func (ro *Roster) removeFromQueues(sessionID string) {
	for _, team := range ro.state.Teams {
		team.DrawerQueue = slices.DeleteFunc(team.DrawerQueue, func(id string) bool {
			return id == sessionID
		})
	}
	ro.state.FFAPool = slices.DeleteFunc(ro.state.FFAPool, func(id string) bool {
		return id == sessionID
	})
}

// RemovePlayer drops the session id from all queues and the player map.
func (ro *Roster) RemovePlayer(sessionID string) {
	ro.removeFromQueues(sessionID)
	delete(ro.state.Players, sessionID)
	delete(ro.state.PlayerScores, sessionID)
}

// nextFromQueue rotates the queue until it finds a connected member.
// Disconnected members stay queued (grace window) but are skipped.
func (ro *Roster) nextFromQueue(queue []string) ([]string, string, bool) {
	for range queue {
		id := queue[0]
		queue = append(queue[1:], id)
		if p, ok := ro.state.Players[id]; ok && p.IsConnected {
			return queue, id, true
		}
	}
	return queue, "", false
}

// NextDrawer round-robins the team's queue: pop front, push tail, return.
func (ro *Roster) NextDrawer(teamIndex int) (string, bool) {
	if teamIndex < 0 || teamIndex >= len(ro.state.Teams) {
		return "", false
	}
	team := ro.state.Teams[teamIndex]
	queue, id, ok := ro.nextFromQueue(team.DrawerQueue)
	team.DrawerQueue = queue
	return id, ok
}

// AssignRoles sets every player's role for a teams-mode round.
func (ro *Roster) AssignRoles(drawerID string, activeTeamIndex int) {
	for _, p := range ro.state.Players {
		switch {
		case p.SessionID == drawerID:
			p.Role = RoleDrawer
		case p.TeamIndex == activeTeamIndex:
			p.Role = RoleGuesser
		case p.TeamIndex >= 0:
			p.Role = RoleOpponent
		default:
			p.Role = RoleSpectator
		}
	}
}

// InitFFA clears the teams and pools every connected player into the single
// free-for-all drawer queue, in join order where the caller provides one.
func (ro *Roster) InitFFA(joinOrder []string) {
	ro.state.Teams = make([]*Team, 0)
	ro.state.FFAPool = make([]string, 0, len(ro.state.Players))
	for _, id := range joinOrder {
		p, ok := ro.state.Players[id]
		if !ok || !p.IsConnected {
			continue
		}
		p.TeamIndex = 0
		ro.state.FFAPool = append(ro.state.FFAPool, id)
	}
}

// AssignFFARoles marks the drawer and every other pooled player a guesser.
func (ro *Roster) AssignFFARoles(drawerID string) {
	for _, p := range ro.state.Players {
		switch {
		case p.SessionID == drawerID:
			p.Role = RoleDrawer
		case slices.Contains(ro.state.FFAPool, p.SessionID):
			p.Role = RoleGuesser
		default:
			p.Role = RoleSpectator
		}
	}
}

// NextFFADrawer round-robins the free-for-all pool.
func (ro *Roster) NextFFADrawer() (string, bool) {
	queue, id, ok := ro.nextFromQueue(ro.state.FFAPool)
	ro.state.FFAPool = queue
	return id, ok
}

// SuddenDeathDrawer picks the first connected pool member who is not tied;
// when everyone is tied it falls back to the first tied id.
func (ro *Roster) SuddenDeathDrawer(tiedIDs []string) string {
	for _, id := range ro.state.FFAPool {
		p, ok := ro.state.Players[id]
		if !ok || !p.IsConnected {
			continue
		}
		if !slices.Contains(tiedIDs, id) {
			return id
		}
	}
	if len(tiedIDs) > 0 {
		return tiedIDs[0]
	}
	return ""
}

// CanStartGame checks the per-mode start condition; nil means go.
func (ro *Roster) CanStartGame() error {
	if ro.state.Settings.GameMode == ModeFFA {
		if ro.state.ConnectedCount() < 2 {
			return ErrNeedTwoPlayers
		}
		return nil
	}
	ready := 0
	for _, team := range ro.state.Teams {
		for _, id := range team.DrawerQueue {
			if p, ok := ro.state.Players[id]; ok && p.IsConnected {
				ready++
				break
			}
		}
	}
	if ready < 2 {
		return ErrNeedTwoTeams
	}
	return nil
}

// HandleDisconnect flips the flag; queue membership survives the grace
// window untouched.
func (ro *Roster) HandleDisconnect(p *Player) {
	p.IsConnected = false
}

func (ro *Roster) HandleReconnect(p *Player) {
	p.IsConnected = true
}

// ReplaceSessionID patches oldID to newID everywhere a stale id could
// otherwise survive a reconnection remap: team queues, the FFA pool,
// currentDrawer, FFA scores and the sudden-death winner list. Queue
// position is kept; an id missing from its team's queue is appended.
func (ro *Roster) ReplaceSessionID(oldID, newID string, teamIndex int) {
	replaced := false
	for _, team := range ro.state.Teams {
		for i, id := range team.DrawerQueue {
			if id == oldID {
				team.DrawerQueue[i] = newID
				replaced = true
			}
		}
	}
	for i, id := range ro.state.FFAPool {
		if id == oldID {
			ro.state.FFAPool[i] = newID
			replaced = true
		}
	}
	if !replaced && teamIndex >= 0 && teamIndex < len(ro.state.Teams) {
		team := ro.state.Teams[teamIndex]
		team.DrawerQueue = append(team.DrawerQueue, newID)
	}
	if ro.state.CurrentDrawer == oldID {
		ro.state.CurrentDrawer = newID
	}
	if score, ok := ro.state.PlayerScores[oldID]; ok {
		delete(ro.state.PlayerScores, oldID)
		ro.state.PlayerScores[newID] = score
	}
	for i, id := range ro.state.WinnerSessionIDs {
		if id == oldID {
			ro.state.WinnerSessionIDs[i] = newID
		}
	}
}
