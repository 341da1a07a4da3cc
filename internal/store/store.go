// Package store keeps the out-of-room metadata: the public room directory
// and the session-to-room mapping used by reconnection. Game state itself
// never leaves process memory.
package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("store: not found")

// RoomMeta is the directory entry for one live room.
type RoomMeta struct {
	Code        string    `json:"code"`
	Phase       string    `json:"phase"`
	PlayerCount int       `json:"playerCount"`
	MaxPlayers  int       `json:"maxPlayers"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Session maps a session id to the room it belongs to, so a client that
// lost its socket can find its way back.
type Session struct {
	SessionID string    `json:"sessionId"`
	RoomCode  string    `json:"roomCode"`
	Nickname  string    `json:"nickname"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is the metadata backend. Implementations must be safe for
// concurrent use.
type Store interface {
	SaveRoom(ctx context.Context, meta RoomMeta) error
	GetRoom(ctx context.Context, code string) (RoomMeta, error)
	DeleteRoom(ctx context.Context, code string) error
	ListRooms(ctx context.Context) ([]RoomMeta, error)

	SaveSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, sessionID string) (Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// =============================================================================
// IN-MEMORY STORE
// =============================================================================

// MemoryStore is the default backend when no Redis address is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[string]RoomMeta
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[string]RoomMeta),
		sessions: make(map[string]Session),
	}
}

func (m *MemoryStore) SaveRoom(_ context.Context, meta RoomMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[meta.Code] = meta
	return nil
}

func (m *MemoryStore) GetRoom(_ context.Context, code string) (RoomMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.rooms[code]
	if !ok {
		return RoomMeta{}, ErrNotFound
	}
	return meta, nil
}

func (m *MemoryStore) DeleteRoom(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, code)
	return nil
}

func (m *MemoryStore) ListRooms(_ context.Context) ([]RoomMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomMeta, 0, len(m.rooms))
	for _, meta := range m.rooms {
		out = append(out, meta)
	}
	return out, nil
}

func (m *MemoryStore) SaveSession(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.SessionID] = s
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, sessionID string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
