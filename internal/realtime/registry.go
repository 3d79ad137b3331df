package realtime

import (
	"encoding/json"
	"sync"
)

// connMeta is the registry's per-connection bookkeeping, including the
// reverse room index needed so disconnect can purge every room bucket the
// connection joined without scanning all rooms.
type connMeta struct {
	userID string
	rooms  map[string]struct{}
}

// Registry maintains the live connections and fans out notifications to one
// user, one room, or everyone. It holds three coupled indices under one lock:
// per-user connection sets, per-room connection sets, and per-connection
// metadata. Socket writes never happen while the lock is held: every fan-out
// snapshots its targets first, releases the lock, then attempts sends, so a
// stalled client cannot stall connects, disconnects, or other fan-outs.
//
// One Registry instance is constructed at startup and passed by handle to
// whichever code needs to dispatch; there is no package-level singleton.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]map[*Connection]struct{}
	byRoom map[string]map[*Connection]struct{}
	meta   map[*Connection]*connMeta
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]map[*Connection]struct{}),
		byRoom: make(map[string]map[*Connection]struct{}),
		meta:   make(map[*Connection]*connMeta),
	}
}

// Connect registers a new connection for an already-authenticated userID and
// acknowledges it with a connection_established envelope. The transport
// handshake happened upstream; by the time Connect runs there is nothing left
// to fail, so it always returns a Connection. If the acknowledgement send
// detects a dead transport the connection is purged again before returning
// and the caller's read loop will exit on its own.
func (r *Registry) Connect(transport Transport, userID, connType string) *Connection {
	c := newConnection(transport, userID, connType)

	r.mu.Lock()
	if _, ok := r.byUser[userID]; !ok {
		r.byUser[userID] = make(map[*Connection]struct{})
	}
	r.byUser[userID][c] = struct{}{}
	r.meta[c] = &connMeta{
		userID: userID,
		rooms:  make(map[string]struct{}),
	}
	r.mu.Unlock()

	c.markOpen()

	ack := NewEnvelope(
		TypeConnectionEstablished,
		"Connected",
		"Real-time notifications are active",
		map[string]any{"connectionId": c.ID},
		PriorityInfo,
	)
	r.SendToConnection(c, ack)

	return c
}

// Disconnect removes the connection from the user index, from every room
// bucket referencing it, and from metadata, then closes the transport. It is
// idempotent: concurrent failure-detection paths may both land here and the
// second call is a no-op.
func (r *Registry) Disconnect(c *Connection) {
	if c == nil {
		return
	}
	c.beginClosing()
	r.purge(c)
}

// drop is the lazy-cleanup path taken when a send attempt detects a dead
// transport. The connection jumps straight to Closed, skipping Closing.
func (r *Registry) drop(c *Connection) {
	c.markClosed()
	r.purge(c)
}

// purge is the single cleanup routine every exit path routes through
// (explicit disconnect, lazy failure on send, process shutdown), so the
// three indices can never be left half-applied.
func (r *Registry) purge(c *Connection) {
	r.mu.Lock()
	m, ok := r.meta[c]
	if !ok {
		// Already purged by a concurrent path.
		r.mu.Unlock()
		c.markClosed()
		return
	}
	delete(r.meta, c)
	if set, ok := r.byUser[m.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.byUser, m.userID)
		}
	}
	for roomID := range m.rooms {
		if set, ok := r.byRoom[roomID]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(r.byRoom, roomID)
			}
		}
	}
	r.mu.Unlock()

	c.markClosed()
	c.transport.Close()
}

// JoinRoom adds the connection to a room, creating the bucket if absent.
// Joining twice is a no-op, as is joining with a connection the registry no
// longer tracks.
func (r *Registry) JoinRoom(c *Connection, roomID string) {
	if c == nil || roomID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.meta[c]
	if !ok {
		return
	}
	if _, ok := r.byRoom[roomID]; !ok {
		r.byRoom[roomID] = make(map[*Connection]struct{})
	}
	r.byRoom[roomID][c] = struct{}{}
	m.rooms[roomID] = struct{}{}
}

// LeaveRoom removes the connection from a room; the bucket is deleted once
// empty. Leaving a room the connection never joined is a no-op.
func (r *Registry) LeaveRoom(c *Connection, roomID string) {
	if c == nil || roomID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.meta[c]
	if !ok {
		return
	}
	delete(m.rooms, roomID)
	if set, ok := r.byRoom[roomID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.byRoom, roomID)
		}
	}
}

// SendToConnection attempts one delivery to a single connection. Failure is
// a return value, never a panic or error to the caller; a failed send purges
// the connection so later fan-outs stop targeting it.
func (r *Registry) SendToConnection(c *Connection, env Envelope) bool {
	if c == nil || c.State() == StateClosed {
		return false
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return false
	}
	if !c.transport.Send(payload) {
		r.drop(c)
		return false
	}
	return true
}

// SendToUser delivers the envelope to every live connection of one user and
// returns how many sends succeeded. A dead connection never aborts delivery
// to the rest.
func (r *Registry) SendToUser(userID string, env Envelope) int {
	r.mu.RLock()
	targets := make([]*Connection, 0, len(r.byUser[userID]))
	for c := range r.byUser[userID] {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	return r.fanOut(targets, env)
}

// SendToRoom delivers the envelope to every connection currently in a room.
// An unknown room is an empty target set, not an error.
func (r *Registry) SendToRoom(roomID string, env Envelope) int {
	r.mu.RLock()
	targets := make([]*Connection, 0, len(r.byRoom[roomID]))
	for c := range r.byRoom[roomID] {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	return r.fanOut(targets, env)
}

// BroadcastAll delivers the envelope to every registered connection.
func (r *Registry) BroadcastAll(env Envelope) int {
	r.mu.RLock()
	targets := make([]*Connection, 0, len(r.meta))
	for c := range r.meta {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	return r.fanOut(targets, env)
}

// fanOut attempts one send per target outside the registry lock, collects the
// failures, and purges them only after the loop so the set being iterated is
// never mutated mid-flight. Delivery order across targets is unspecified.
func (r *Registry) fanOut(targets []*Connection, env Envelope) int {
	if len(targets) == 0 {
		return 0
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return 0
	}

	delivered := 0
	var failed []*Connection
	for _, c := range targets {
		if c.State() == StateClosed {
			continue
		}
		if c.transport.Send(payload) {
			delivered++
		} else {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		r.drop(c)
	}
	return delivered
}

// ActiveUserIDs returns a snapshot of the users with at least one live
// connection.
func (r *Registry) ActiveUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byUser))
	for id := range r.byUser {
		ids = append(ids, id)
	}
	return ids
}

// ConnectionCount returns the number of registered connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.meta)
}

// Shutdown disconnects every remaining connection. Called on process exit so
// clients see a clean close instead of a dropped socket.
func (r *Registry) Shutdown() {
	r.mu.RLock()
	conns := make([]*Connection, 0, len(r.meta))
	for c := range r.meta {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		r.Disconnect(c)
	}
}
