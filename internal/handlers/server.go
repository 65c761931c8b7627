// internal/handlers/server.go
package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/KennyPhan123/spicy-online/internal/deck"
	"github.com/KennyPhan123/spicy-online/internal/room"
)

// RoomServer holds the room store shared by all websocket connections.
type RoomServer struct {
	Rooms  *room.Store
	Logger *logrus.Logger
}

func NewRoomServer(logger *logrus.Logger) *RoomServer {
	return &RoomServer{
		Rooms:  room.NewStore(deck.UUIDGenerator{}, logger),
		Logger: logger,
	}
}
