// internal/room/room.go
package room

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/KennyPhan123/spicy-online/internal/deck"
	"github.com/KennyPhan123/spicy-online/internal/game"
)

// envelopeKind discriminates the three lifecycle events a room processes.
type envelopeKind int

const (
	envConnect envelopeKind = iota
	envMessage
	envDisconnect
)

type envelope struct {
	kind     envelopeKind
	playerID string
	conn     *Conn
	msg      game.Message
}

// Room is the actor bound to one room code. It owns the single game.Game
// instance for the room's lifetime and a registry of live connections, and it
// drains an exclusive mailbox: every envelope is processed end to end before
// the next is considered, which is the only concurrency control the game
// core needs.
type Room struct {
	Code string
	Game *game.Game

	conns map[string]*Conn
	inbox chan envelope
	done  chan struct{}

	// OnEmpty is called once the last connection has left, after which the
	// actor goroutine exits. Typically assigned by the store:
	//   room.OnEmpty = func(code string) { store.remove(code) }
	OnEmpty func(code string)

	logger *logrus.Logger
}

// NewRoom constructs the room and its fresh LOBBY game, wires the game's
// broadcast callbacks to the connection registry, and starts the actor
// goroutine.
func NewRoom(code string, ids deck.IDGenerator, logger *logrus.Logger) *Room {
	r := &Room{
		Code:   code,
		Game:   game.NewGame(code, ids),
		conns:  make(map[string]*Conn),
		inbox:  make(chan envelope, 64),
		done:   make(chan struct{}),
		logger: logger,
	}

	// Both callbacks run inside the actor goroutine (handlers are only ever
	// invoked from run), so reading conns here is race-free. Fan-out is
	// best-effort and sequential; Conn.Write never blocks.
	r.Game.BroadcastFn = func(ev game.Event) {
		for _, c := range r.conns {
			c.Write(ev)
		}
	}
	r.Game.UnicastFn = func(playerID string, ev game.Event) {
		if c, ok := r.conns[playerID]; ok {
			c.Write(ev)
		}
	}

	go r.run()
	return r
}

// Connect registers a connection with the room. A second connection for the
// same player id replaces the first (reconnect with the same identity).
func (r *Room) Connect(conn *Conn) {
	r.post(envelope{kind: envConnect, playerID: conn.PlayerID, conn: conn})
}

// Deliver hands one inbound message to the room's mailbox.
func (r *Room) Deliver(playerID string, msg game.Message) {
	r.post(envelope{kind: envMessage, playerID: playerID, msg: msg})
}

// Disconnect reports a closed connection; the room synthesizes a leave.
func (r *Room) Disconnect(conn *Conn) {
	r.post(envelope{kind: envDisconnect, playerID: conn.PlayerID, conn: conn})
}

// Done is closed when the actor has shut down (room became empty).
func (r *Room) Done() <-chan struct{} {
	return r.done
}

func (r *Room) post(env envelope) {
	select {
	case r.inbox <- env:
	case <-r.done:
		r.logger.Warnf("Room %s: dropped %v envelope for player %s, room already closed.", r.Code, env.kind, env.playerID)
	}
}

// run is the actor loop. It is the only goroutine that touches the game or
// the connection registry.
func (r *Room) run() {
	defer close(r.done)

	for env := range r.inbox {
		switch env.kind {
		case envConnect:
			r.handleConnect(env.conn)
		case envMessage:
			r.handleMessage(env.playerID, env.msg)
		case envDisconnect:
			if r.handleDisconnect(env.conn) {
				return
			}
		}
	}
}

func (r *Room) handleConnect(conn *Conn) {
	if old, ok := r.conns[conn.PlayerID]; ok && old != conn {
		r.logger.Infof("Room %s: player %s re-established connection.", r.Code, conn.PlayerID)
		old.shutdown()
	}
	r.conns[conn.PlayerID] = conn

	// A fresh client needs the public snapshot before anything else.
	r.Game.SendState(conn.PlayerID)
}

func (r *Room) handleMessage(playerID string, msg game.Message) {
	// Keepalive: acknowledged, never touches game state.
	if msg.Type == "ping" {
		if c, ok := r.conns[playerID]; ok {
			c.Write(game.Event{Type: game.EventPong})
		}
		return
	}

	err := r.Game.HandleMessage(playerID, msg)
	if errors.Is(err, game.ErrRoomNotFound) {
		// The error event is already queued on the connection; closing the
		// out-channel flushes it and cancels the transport. The connection
		// stays registered so the transport's disconnect envelope still runs
		// the removal and the empty check.
		if c, ok := r.conns[playerID]; ok {
			c.CloseKind = CloseRoomNotFound
			c.shutdown()
		}
	}
}

// handleDisconnect removes the connection and synthesizes a leave. Returns
// true when the room has become empty and the actor should exit.
func (r *Room) handleDisconnect(conn *Conn) bool {
	current, ok := r.conns[conn.PlayerID]
	if !ok || current != conn {
		// A stale disconnect from a connection that was already replaced.
		conn.shutdown()
		return false
	}

	delete(r.conns, conn.PlayerID)
	conn.shutdown()
	r.Game.HandleLeave(conn.PlayerID)

	if len(r.conns) == 0 {
		r.logger.Infof("Room %s is now empty. Shutting down.", r.Code)
		if r.OnEmpty != nil {
			r.OnEmpty(r.Code)
		}
		return true
	}
	return false
}
