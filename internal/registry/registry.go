// Package registry tracks the live rooms in this process and hands out
// join codes.
package registry

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	mrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/shiblyc-four/party-games/internal/game"
	"github.com/shiblyc-four/party-games/internal/store"
)

// Codes avoid 0/O, 1/I/L so they survive being read aloud.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 5

// Registry owns the code-to-room map and mirrors each room's summary into
// the metadata store.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*game.Room
	sched game.Scheduler
	meta  store.Store
}

func New(sched game.Scheduler, meta store.Store) *Registry {
	return &Registry{
		rooms: make(map[string]*game.Room),
		sched: sched,
		meta:  meta,
	}
}

// Create allocates a fresh room under a unique code.
func (reg *Registry) Create(ctx context.Context) (*game.Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var code string
	for attempt := 0; ; attempt++ {
		if attempt >= 100 {
			return nil, fmt.Errorf("could not allocate a unique room code")
		}
		c, err := newCode()
		if err != nil {
			return nil, err
		}
		if _, taken := reg.rooms[c]; !taken {
			code = c
			break
		}
	}

	rng := mrand.New(mrand.NewSource(time.Now().UnixNano()))
	room := game.NewRoom(code, reg.sched, rng)
	room.SetOnEmpty(reg.removeRoom)
	room.SetOnUpdate(reg.updateMeta)
	reg.rooms[code] = room

	if err := reg.meta.SaveRoom(ctx, metaFor(room.Info())); err != nil {
		log.Printf("[Registry] save room %s metadata: %v", code, err)
	}
	log.Printf("[Registry] created room %s", code)
	return room, nil
}

// Get looks a room up by code, case-insensitively.
func (reg *Registry) Get(code string) (*game.Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[strings.ToUpper(strings.TrimSpace(code))]
	return room, ok
}

// List returns the live rooms' summaries.
func (reg *Registry) List() []game.RoomInfo {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]game.RoomInfo, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		out = append(out, room.Info())
	}
	return out
}

// Shutdown disposes every live room.
func (reg *Registry) Shutdown() {
	reg.mu.Lock()
	rooms := make([]*game.Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.rooms = make(map[string]*game.Room)
	reg.mu.Unlock()

	for _, room := range rooms {
		room.Dispose()
	}
}

func (reg *Registry) removeRoom(code string) {
	reg.mu.Lock()
	delete(reg.rooms, code)
	reg.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := reg.meta.DeleteRoom(ctx, code); err != nil {
		log.Printf("[Registry] delete room %s metadata: %v", code, err)
	}
	log.Printf("[Registry] removed empty room %s", code)
}

// updateMeta saves while holding the read lock: removeRoom cannot drop the
// room from the map until the save finishes, and once it has, later saves
// see the room gone. A stale save can therefore never land after the
// delete and resurrect metadata for a disposed room.
func (reg *Registry) updateMeta(info game.RoomInfo) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if _, live := reg.rooms[info.Code]; !live {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := reg.meta.SaveRoom(ctx, metaFor(info)); err != nil {
		log.Printf("[Registry] save room %s metadata: %v", info.Code, err)
	}
}

func metaFor(info game.RoomInfo) store.RoomMeta {
	return store.RoomMeta{
		Code:        info.Code,
		Phase:       string(info.Phase),
		PlayerCount: info.PlayerCount,
		MaxPlayers:  info.MaxPlayers,
		CreatedAt:   time.Now().UTC(),
	}
}

func newCode() (string, error) {
	// rejection sampling: 248 is the largest multiple of 31 that fits in a
	// byte, so anything above it would bias the low alphabet characters
	const limit = (256 / len(codeAlphabet)) * len(codeAlphabet)

	var b strings.Builder
	buf := make([]byte, 2*codeLength)
	for b.Len() < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, c := range buf {
			if int(c) >= limit {
				continue
			}
			b.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
			if b.Len() == codeLength {
				break
			}
		}
	}
	return b.String(), nil
}
