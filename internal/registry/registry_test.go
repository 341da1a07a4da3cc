package registry

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiblyc-four/party-games/internal/game"
	"github.com/shiblyc-four/party-games/internal/store"
)

type nullConn struct{ id string }

func (c *nullConn) SessionID() string { return c.id }
func (c *nullConn) Send(any)          {}

func TestNewCodeShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := newCode()
		require.NoError(t, err)
		assert.Len(t, code, codeLength)
		for _, c := range code {
			assert.Contains(t, codeAlphabet, string(c))
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "codes must not collide constantly")
}

func TestNewCodeDrawsUniformly(t *testing.T) {
	counts := make(map[rune]int)
	for i := 0; i < 10000; i++ {
		code, err := newCode()
		require.NoError(t, err)
		for _, c := range code {
			counts[c]++
		}
	}
	require.Len(t, counts, len(codeAlphabet), "every character must appear")

	// a modulo-biased draw gives the first eight characters double weight;
	// uniform sampling keeps the spread far tighter than 2x
	minCount, maxCount := counts['A'], counts['A']
	for _, n := range counts {
		minCount = min(minCount, n)
		maxCount = max(maxCount, n)
	}
	assert.Less(t, float64(maxCount), 1.5*float64(minCount))
}

func TestCreateAndGetCaseInsensitive(t *testing.T) {
	reg := New(game.NewScheduler(), store.NewMemoryStore())
	room, err := reg.Create(context.Background())
	require.NoError(t, err)

	got, ok := reg.Get(strings.ToLower(room.Code))
	require.True(t, ok)
	assert.Same(t, room, got)

	got, ok = reg.Get(" " + room.Code + " ")
	require.True(t, ok)
	assert.Same(t, room, got)

	_, ok = reg.Get("ZZZZZ")
	assert.False(t, ok)

	assert.Len(t, reg.List(), 1)
}

func TestCreateMirrorsMetadata(t *testing.T) {
	st := store.NewMemoryStore()
	reg := New(game.NewScheduler(), st)
	room, err := reg.Create(context.Background())
	require.NoError(t, err)

	meta, err := st.GetRoom(context.Background(), room.Code)
	require.NoError(t, err)
	assert.Equal(t, room.Code, meta.Code)
	assert.Equal(t, game.MaxClientsPerRoom, meta.MaxPlayers)
}

func TestEmptyRoomIsRemoved(t *testing.T) {
	st := store.NewMemoryStore()
	reg := New(game.NewScheduler(), st)
	room, err := reg.Create(context.Background())
	require.NoError(t, err)

	require.NoError(t, room.Join(&nullConn{id: "s1"}, "alice"))
	room.Leave("s1", true)

	require.Eventually(t, func() bool {
		_, ok := reg.Get(room.Code)
		return !ok
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_, err := st.GetRoom(context.Background(), room.Code)
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestMetadataNeverOutlivesRoom(t *testing.T) {
	st := store.NewMemoryStore()
	reg := New(game.NewScheduler(), st)

	// churn rooms so a directory update from the join can race the
	// removal triggered by the leave
	for i := 0; i < 25; i++ {
		room, err := reg.Create(context.Background())
		require.NoError(t, err)
		require.NoError(t, room.Join(&nullConn{id: "s1"}, "alice"))
		room.Leave("s1", true)
	}

	require.Eventually(t, func() bool {
		list, err := st.ListRooms(context.Background())
		return err == nil && len(list) == 0
	}, 2*time.Second, 10*time.Millisecond, "disposed rooms must vanish from the directory")
}

func TestShutdownDisposesRooms(t *testing.T) {
	reg := New(game.NewScheduler(), store.NewMemoryStore())
	room, err := reg.Create(context.Background())
	require.NoError(t, err)

	reg.Shutdown()
	assert.Empty(t, reg.List())
	assert.Error(t, room.Join(&nullConn{id: "s1"}, "alice"))
}
