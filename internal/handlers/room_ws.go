// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/KennyPhan123/spicy-online/internal/game"
	"github.com/KennyPhan123/spicy-online/internal/middleware"
	"github.com/KennyPhan123/spicy-online/internal/room"
)

// roomCodePattern accepts the short invite codes clients generate.
var roomCodePattern = regexp.MustCompile(`^[A-Z0-9]{1,12}$`)

// RoomWSHandler upgrades /rooms/ws/{code} requests and bridges the websocket
// to the room actor. The room is created on first connection; membership is
// only granted once the client sends its join message.
func RoomWSHandler(logger *logrus.Logger, rs *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		code := strings.ToUpper(strings.Trim(strings.TrimPrefix(r.URL.Path, "/rooms/ws/"), "/"))
		if !roomCodePattern.MatchString(code) {
			http.Error(w, "invalid room code", http.StatusBadRequest)
			return
		}

		// Identity first: EnsurePlayerIdentity may set a cookie, which must
		// happen before the upgrade hijacks the response.
		playerID, err := EnsurePlayerIdentity(w, r)
		if err != nil {
			logger.Warnf("Player identity failed for room %s: %v", code, err)
			http.Error(w, "authentication failed", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"spicy"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "spicy" {
			c.Close(BadSubprotocolError, "client must speak the spicy subprotocol")
			return
		}

		rm := rs.Rooms.GetOrCreate(code)

		ctx, cancel := context.WithCancel(r.Context())
		conn := room.NewConn(playerID, cancel)
		rm.Connect(conn)

		middleware.LogWebSocketConnect(logger, remoteAddr, r.URL.Path)
		logger.Infof("Player %s (%s) connected to room %s", playerID, remoteAddr, code)

		go writePump(ctx, c, conn, logger)

		readPump(ctx, c, rm, conn, logger, code)

		// readPump exited: the socket is gone or the room evicted us.
		rm.Disconnect(conn)
		middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, nil)
	}
}

// readPump forwards inbound frames to the room's mailbox until the socket
// closes or the context is cancelled.
func readPump(ctx context.Context, c *websocket.Conn, rm *room.Room, conn *room.Conn, logger *logrus.Logger, code string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		typ, data, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("Room %s: WebSocket closed normally for player %s.", code, conn.PlayerID)
			} else if !strings.Contains(err.Error(), "context canceled") {
				logger.Warnf("Room %s: Read error for player %s: %v (CloseStatus: %d)", code, conn.PlayerID, err, closeStatus)
			}
			return
		}

		if typ != websocket.MessageText {
			logger.Warnf("Room %s: Received non-text message type %d from player %s. Ignoring.", code, typ, conn.PlayerID)
			continue
		}

		var msg game.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Room %s: Invalid json from player %s: %v", code, conn.PlayerID, err)
			continue
		}

		rm.Deliver(conn.PlayerID, msg)
	}
}

// writePump drains the connection's out-channel onto the socket and sends
// periodic protocol pings. It exits when the room closes the channel or the
// context is cancelled.
func writePump(ctx context.Context, c *websocket.Conn, conn *room.Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-conn.OutChan:
			if !ok {
				// The room shut this connection down; any queued events were
				// already drained above.
				if conn.CloseKind == room.CloseRoomNotFound {
					c.Close(RoomNotFoundError, "room not found")
				} else {
					c.Close(websocket.StatusNormalClosure, "room closed connection")
				}
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("Failed to marshal outgoing event for player %s: %v", conn.PlayerID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write to websocket for player %s: %v", conn.PlayerID, err)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Failed to send ping to player %s: %v. Assuming disconnect.", conn.PlayerID, err)
				return
			}
		}
	}
}
