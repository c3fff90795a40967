package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Gate authorizes a connection attempt during the websocket handshake and
// resolves the user identity to bind. A rejected attempt never reaches
// handler code.
type Gate interface {
	Authenticate(r *http.Request) (userID string, err error)
}

// Fanout is the backplane contract the hub replicates broadcasts through.
// Implementations must fail fast when unavailable.
type Fanout interface {
	Publish(ctx context.Context, payload []byte) error
	Messages() <-chan []byte
	Available() bool
}

// ErrNoGate is returned for connection attempts made before a session gate
// has been attached.
var ErrNoGate = errors.New("realtime: no authentication gate attached")

const publishTimeout = 5 * time.Second

// envelope is the wire format for broadcasts replicated across processes.
// Origin lets each hub discard its own frames on the way back in.
type envelope struct {
	Origin        string          `json:"origin"`
	Room          string          `json:"room"`
	Payload       json.RawMessage `json:"payload"`
	ExcludeUserID string          `json:"excludeUserID,omitempty"`
}

// Hub owns the process-local room state: which connections exist and which
// rooms they belong to. Rooms are implicit; they exist only as the set of
// connections currently joined. When a backplane is adapted, broadcasts are
// additionally replicated to hubs in other processes.
type Hub struct {
	id   string
	gate Gate

	fanout Fanout

	mu           sync.RWMutex
	sessions     map[string]*Connection            // sessionID -> connection
	rooms        map[string]map[string]*Connection // conversationID -> sessionID -> connection
	sessionRooms map[string]map[string]struct{}    // sessionID -> set of conversationIDs
}

// NewHub constructs an initialized Hub with no backplane.
func NewHub() *Hub {
	return &Hub{
		id:           uuid.NewString(),
		sessions:     make(map[string]*Connection),
		rooms:        make(map[string]map[string]*Connection),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// AttachAuth installs the session gate. It must be called before the hub
// starts accepting connections.
func (h *Hub) AttachAuth(gate Gate) {
	h.gate = gate
}

// Authorize runs the session gate against a handshake request and returns
// the resolved user identity. Connections are only constructed for requests
// that pass.
func (h *Hub) Authorize(r *http.Request) (string, error) {
	if h.gate == nil {
		return "", ErrNoGate
	}
	return h.gate.Authenticate(r)
}

// Adapt wires broadcast fan-out through the backplane when it is available.
// The decision is made once at startup and logged; with no usable backplane
// the hub transparently stays in-process only.
func (h *Hub) Adapt(f Fanout) bool {
	if f == nil || !f.Available() {
		log.Printf("realtime: backplane unavailable, using in-process fan-out only (no horizontal scaling)")
		return false
	}
	h.fanout = f
	go h.relayLoop()
	log.Printf("realtime: backplane adapter enabled, broadcasts replicated across processes")
	return true
}

// Attach registers a connection and starts its write loop.
func (h *Hub) Attach(conn *Connection) {
	h.mu.Lock()
	h.sessions[conn.ID] = conn
	h.sessionRooms[conn.ID] = make(map[string]struct{})
	h.mu.Unlock()

	conn.Start()
}

// Detach removes a connection and all its room memberships. Membership is
// not persisted anywhere; rejoining after reconnect is the client's job.
func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	h.detachLocked(conn.ID)
	h.mu.Unlock()
}

// Join adds the connection to the room. Idempotent; rooms are created on
// first join.
func (h *Hub) Join(conversationID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[conn.ID]; !ok {
		return
	}

	room := h.rooms[conversationID]
	if room == nil {
		room = make(map[string]*Connection)
		h.rooms[conversationID] = room
	}
	room[conn.ID] = conn
	h.sessionRooms[conn.ID][conversationID] = struct{}{}
}

// Leave removes the connection from the room.
func (h *Hub) Leave(conversationID string, conn *Connection) {
	h.mu.Lock()
	h.leaveLocked(conversationID, conn.ID)
	h.mu.Unlock()
}

// Broadcast delivers payload to every current member of the room, at most
// once per member. excludeUserID, when non-empty, skips that user's
// connections (typing indicators exclude the sender). When a backplane is
// adapted the frame is also replicated to other processes; replication
// failure degrades to local-only delivery, it never fails the broadcast.
func (h *Hub) Broadcast(conversationID string, payload []byte, excludeUserID string) int {
	delivered := h.localBroadcast(conversationID, payload, excludeUserID)

	if h.fanout != nil && h.fanout.Available() {
		env := envelope{
			Origin:        h.id,
			Room:          conversationID,
			Payload:       payload,
			ExcludeUserID: excludeUserID,
		}
		frame, err := json.Marshal(env)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			err = h.fanout.Publish(ctx, frame)
			cancel()
		}
		if err != nil {
			log.Printf("realtime: backplane publish failed, delivered locally only: %v", err)
		}
	}

	return delivered
}

func (h *Hub) localBroadcast(conversationID string, payload []byte, excludeUserID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room := h.rooms[conversationID]
	if len(room) == 0 {
		return 0
	}

	delivered := 0
	for _, conn := range room {
		if excludeUserID != "" && conn.UserID == excludeUserID {
			continue
		}
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// relayLoop applies frames published by hubs in other processes to the
// local rooms. Frames this hub originated are discarded by origin id.
func (h *Hub) relayLoop() {
	for frame := range h.fanout.Messages() {
		var env envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			log.Printf("realtime: discarding malformed backplane frame: %v", err)
			continue
		}
		if env.Origin == h.id {
			continue
		}
		h.localBroadcast(env.Room, env.Payload, env.ExcludeUserID)
	}
}

// Close terminates all tracked connections and clears hub state.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make([]*Connection, 0, len(h.sessions))
	for _, conn := range h.sessions {
		sessions = append(sessions, conn)
	}
	h.sessions = make(map[string]*Connection)
	h.rooms = make(map[string]map[string]*Connection)
	h.sessionRooms = make(map[string]map[string]struct{})
	h.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "hub shutdown")
	}
}

func (h *Hub) detachLocked(sessionID string) {
	if _, ok := h.sessions[sessionID]; !ok {
		return
	}
	delete(h.sessions, sessionID)

	for roomID := range h.sessionRooms[sessionID] {
		h.leaveLocked(roomID, sessionID)
	}
	delete(h.sessionRooms, sessionID)
}

func (h *Hub) leaveLocked(conversationID string, sessionID string) {
	room := h.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(h.rooms, conversationID)
	}
	if memberships, ok := h.sessionRooms[sessionID]; ok {
		delete(memberships, conversationID)
	}
}
