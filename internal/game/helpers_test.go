package game

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeScheduler collects armed timers so tests fire them by hand.
type fakeScheduler struct {
	timers []*fakeTimer
}

type fakeTimer struct {
	d        time.Duration
	fn       func()
	fired    bool
	canceled bool
}

func (t *fakeTimer) Cancel() bool {
	if t.fired || t.canceled {
		return false
	}
	t.canceled = true
	return true
}

func (s *fakeScheduler) After(d time.Duration, fn func()) Cancelable {
	t := &fakeTimer{d: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// fire runs every pending timer armed with exactly duration d. Callbacks
// that arm new timers leave them pending for the next call, so re-arming
// timers advance one step per fire.
func (s *fakeScheduler) fire(d time.Duration) int {
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.fired && !t.canceled && t.d == d {
			t.fired = true
			due = append(due, t)
		}
	}
	for _, t := range due {
		t.fn()
	}
	return len(due)
}

// fakeConn records every outbound frame for inspection.
type fakeConn struct {
	id     string
	frames []wireFrame
}

type wireFrame struct {
	Type string
	Raw  json.RawMessage
}

func (c *fakeConn) SessionID() string { return c.id }

func (c *fakeConn) Send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		panic(err)
	}
	c.frames = append(c.frames, wireFrame{Type: env.Type, Raw: env.Data})
}

func (c *fakeConn) lastOfType(msgType string) (json.RawMessage, bool) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Type == msgType {
			return c.frames[i].Raw, true
		}
	}
	return nil, false
}

func (c *fakeConn) countType(msgType string) int {
	n := 0
	for _, f := range c.frames {
		if f.Type == msgType {
			n++
		}
	}
	return n
}

// lastState decodes the newest replicated snapshot the client saw.
func (c *fakeConn) lastState(t *testing.T) *GameState {
	t.Helper()
	raw, ok := c.lastOfType(MsgState)
	require.True(t, ok, "client %s never received a state snapshot", c.id)
	var gs GameState
	require.NoError(t, json.Unmarshal(raw, &gs))
	return &gs
}

func newTestRoom() (*Room, *fakeScheduler) {
	sched := &fakeScheduler{}
	return NewRoom("ABCDE", sched, rand.New(rand.NewSource(42))), sched
}

func join(t *testing.T, r *Room, id, nickname string) *fakeConn {
	t.Helper()
	c := &fakeConn{id: id}
	require.NoError(t, r.Join(c, nickname))
	return c
}

func send(t *testing.T, r *Room, id, msgType string, payload any) {
	t.Helper()
	env := map[string]any{"type": msgType}
	if payload != nil {
		env["data"] = payload
	}
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	r.HandleMessage(id, raw)
}

// pickWord has the current drawer take their first offered choice and
// returns the secret revealed to them.
func pickWord(t *testing.T, r *Room, drawer *fakeConn) string {
	t.Helper()
	raw, ok := drawer.lastOfType(MsgWordChoices)
	require.True(t, ok, "drawer never got word choices")
	var choices WordChoicesData
	require.NoError(t, json.Unmarshal(raw, &choices))
	require.Len(t, choices.Words, WordChoiceCount)

	send(t, r, drawer.id, MsgSelectWord, SelectWordPayload{WordIndex: 0})

	raw, ok = drawer.lastOfType(MsgSecretWord)
	require.True(t, ok, "drawer never got the secret word")
	var secret SecretWordData
	require.NoError(t, json.Unmarshal(raw, &secret))
	require.Equal(t, choices.Words[0], secret.Word)
	return secret.Word
}

// startGame drives the host through startGame and past the start delay.
func startGame(t *testing.T, r *Room, sched *fakeScheduler, hostID string, settings *SettingsPatch) {
	t.Helper()
	send(t, r, hostID, MsgStartGame, StartGamePayload{Settings: settings})
	require.Equal(t, PhaseLobby, r.state.Phase, "game must not start before the delay")
	require.Equal(t, 1, sched.fire(StartGameDelay))
	require.Equal(t, PhaseWordSelect, r.state.Phase)
}

func revealedCount(hint string) int {
	n := 0
	for _, r := range hint {
		if r != '_' && r != ' ' {
			n++
		}
	}
	return n
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
