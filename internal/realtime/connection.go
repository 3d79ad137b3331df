package realtime

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Transport is one ordered, bidirectional message channel to a client.
// We keep it minimal here; the actual network conn is managed in the ws handler.
// Send must bound each attempt with a write deadline and report success as a
// bool; Close must be safe to call more than once.
type Transport interface {
	Send(payload []byte) bool
	Close()
}

// State is the lifecycle state of a Connection.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Connection is the registry's handle to one live client channel. It is
// created by Registry.Connect, owned by the registry for its lifetime, and
// discarded once Closed; a Connection is never reused.
type Connection struct {
	ID          string
	UserID      string
	Type        string
	ConnectedAt time.Time

	transport Transport
	state     atomic.Int32
}

func newConnection(transport Transport, userID, connType string) *Connection {
	c := &Connection{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        connType,
		ConnectedAt: time.Now().UTC(),
	}
	c.transport = transport
	c.state.Store(int32(StateConnecting))
	return c
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

func (c *Connection) markOpen() {
	c.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen))
}

// beginClosing moves an open connection into Closing. The lazy-cleanup path
// never calls this; a dead transport jumps straight to Closed.
func (c *Connection) beginClosing() {
	c.state.CompareAndSwap(int32(StateOpen), int32(StateClosing))
}

// markClosed is terminal; it wins from any state.
func (c *Connection) markClosed() {
	c.state.Store(int32(StateClosed))
}
