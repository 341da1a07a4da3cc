package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRooms(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	_, err := st.GetRoom(ctx, "ABCDE")
	assert.ErrorIs(t, err, ErrNotFound)

	meta := RoomMeta{
		Code:        "ABCDE",
		Phase:       "lobby",
		PlayerCount: 3,
		MaxPlayers:  16,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, st.SaveRoom(ctx, meta))

	got, err := st.GetRoom(ctx, "ABCDE")
	require.NoError(t, err)
	assert.Equal(t, meta, got)

	// saving again overwrites
	meta.PlayerCount = 4
	require.NoError(t, st.SaveRoom(ctx, meta))
	got, err = st.GetRoom(ctx, "ABCDE")
	require.NoError(t, err)
	assert.Equal(t, 4, got.PlayerCount)

	list, err := st.ListRooms(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, st.DeleteRoom(ctx, "ABCDE"))
	_, err = st.GetRoom(ctx, "ABCDE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSessions(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	_, err := st.GetSession(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)

	sess := Session{
		SessionID: "sess-1",
		RoomCode:  "ABCDE",
		Nickname:  "alice",
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.SaveSession(ctx, sess))

	got, err := st.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	require.NoError(t, st.DeleteSession(ctx, "sess-1"))
	_, err = st.GetSession(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
