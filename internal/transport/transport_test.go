package transport

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithOrigin(origin string) *http.Request {
	r, _ := http.NewRequest(http.MethodGet, "/ws/ABCDE", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestOriginCheckerOpenByDefault(t *testing.T) {
	check := originChecker(nil)
	assert.True(t, check(requestWithOrigin("https://anywhere.example")))
	assert.True(t, check(requestWithOrigin("")))
}

func TestOriginCheckerAllowList(t *testing.T) {
	check := originChecker([]string{"https://game.example"})
	assert.True(t, check(requestWithOrigin("https://game.example")))
	assert.True(t, check(requestWithOrigin("")), "non-browser clients carry no origin")
	assert.False(t, check(requestWithOrigin("https://evil.example")))
}

func TestKeepaliveDropWindow(t *testing.T) {
	assert.Equal(t, 10*time.Second, pingPeriod)
	assert.Equal(t, missedPingLimit*pingPeriod, pongWait)
	assert.Equal(t, time.Minute, pongWait)
	assert.Less(t, pingPeriod, pongWait, "there must be retry margin before the drop")
}

func TestNewSessionIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := newSessionID()
		require.NoError(t, err)
		assert.Len(t, id, 32)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
