// internal/room/conn.go
package room

import (
	"log"
	"sync"

	"github.com/KennyPhan123/spicy-online/internal/game"
)

// CloseKind tells the transport's write pump why the room closed the
// out-channel, so it can pick the matching close frame. The room sets it
// before shutdown; the channel close publishes it to the pump.
type CloseKind int

const (
	CloseNormal CloseKind = iota
	CloseRoomNotFound
)

// Conn is a single player's presence in a room: a stable player id, a
// buffered outgoing event channel drained by the transport's write pump, and
// a cancel func that tears down the transport goroutines.
type Conn struct {
	PlayerID  string
	OutChan   chan game.Event
	Cancel    func()
	CloseKind CloseKind

	closeOnce sync.Once
}

// NewConn builds a connection handle for the given player identity.
func NewConn(playerID string, cancel func()) *Conn {
	return &Conn{
		PlayerID: playerID,
		OutChan:  make(chan game.Event, 32),
		Cancel:   cancel,
	}
}

// Write pushes an event onto the connection's OutChan non-blockingly. A full
// or closed channel drops the event for this one connection; delivery to the
// rest of the room is unaffected.
func (c *Conn) Write(ev game.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Conn %s: dropped event type '%s' on closed channel.", c.PlayerID, ev.Type)
		}
	}()
	select {
	case c.OutChan <- ev:
	default:
		log.Printf("Conn %s: OutChan full. Dropped event type '%s'.", c.PlayerID, ev.Type)
	}
}

// shutdown closes the outgoing channel exactly once. Events already queued
// are still drained by the write pump before it observes the close.
func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.OutChan)
		if c.Cancel != nil {
			c.Cancel()
		}
	})
}
