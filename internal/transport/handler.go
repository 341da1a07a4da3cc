package transport

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/shiblyc-four/party-games/internal/game"
	"github.com/shiblyc-four/party-games/internal/registry"
	"github.com/shiblyc-four/party-games/internal/store"
)

// Handler upgrades websocket requests and binds each connection to a room.
type Handler struct {
	registry *registry.Registry
	sessions store.Store
	upgrader websocket.Upgrader
}

func NewHandler(reg *registry.Registry, sessions store.Store, allowedOrigins []string) *Handler {
	return &Handler{
		registry: reg,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// CreateRoom handles GET /ws/create?nickname=...: allocates a room and
// joins the caller as its host.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.registry.Create(r.Context())
	if err != nil {
		log.Printf("[CreateRoom] create room: %v", err)
		http.Error(w, "could not create room", http.StatusInternalServerError)
		return
	}
	h.serve(w, r, room)
}

// JoinRoom handles GET /ws/{code}?nickname=...: joins an existing room.
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	room, ok := h.registry.Get(code)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	h.serve(w, r, room)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, room *game.Room) {
	nickname := r.URL.Query().Get("nickname")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[serve] room=%s upgrade: %v", room.Code, err)
		return
	}

	client, err := newClient(conn)
	if err != nil {
		log.Printf("[serve] room=%s session id: %v", room.Code, err)
		conn.Close()
		return
	}

	if err := room.Join(client, nickname); err != nil {
		log.Printf("[serve] room=%s join rejected: %v", room.Code, err)
		client.Send(game.Message[game.ErrorData]{
			Type: game.MsgError,
			Data: game.ErrorData{Message: err.Error()},
		})
		go client.writePump()
		time.Sleep(100 * time.Millisecond)
		client.close()
		return
	}

	h.saveSession(client.sessionID, room.Code, nickname)
	go client.writePump()

	consented := client.readPump(func(raw []byte) {
		room.HandleMessage(client.sessionID, raw)
	})
	client.close()
	room.Leave(client.sessionID, consented)
	if consented {
		h.deleteSession(client.sessionID)
	}
	log.Printf("[serve] room=%s session=%s gone (consented=%t)", room.Code, client.sessionID, consented)
}

func (h *Handler) saveSession(sessionID, roomCode, nickname string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := h.sessions.SaveSession(ctx, store.Session{
		SessionID: sessionID,
		RoomCode:  roomCode,
		Nickname:  nickname,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[serve] save session %s: %v", sessionID, err)
	}
}

func (h *Handler) deleteSession(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.sessions.DeleteSession(ctx, sessionID); err != nil {
		log.Printf("[serve] delete session %s: %v", sessionID, err)
	}
}
