// internal/game/game.go
package game

import (
	"context"
	"log"
	"time"

	"github.com/KennyPhan123/spicy-online/internal/cache"
	"github.com/KennyPhan123/spicy-online/internal/deck"
)

// Phase is the room's lifecycle phase. PLAYING is terminal for automatic
// transitions; only an explicit reset returns to a fresh LOBBY.
type Phase string

const (
	PhaseLobby   Phase = "LOBBY"
	PhasePlaying Phase = "PLAYING"
)

// MaxPlayers is the room capacity.
const MaxPlayers = 6

// HandSize is the number of cards dealt to each player at game start.
const HandSize = 6

// Player is one seat in the room. Hand and PointsZone are private to the
// owner and must never appear in a payload addressed to anyone else.
type Player struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Hand       []deck.Card `json:"hand"`
	PointsZone []deck.Card `json:"pointsZone"`
}

// Trophy is a bonus scoring token with independent claim and take flags.
type Trophy struct {
	ID        string `json:"id"`
	Available bool   `json:"available"`
	OwnerID   string `json:"ownerId,omitempty"`
	Taken     bool   `json:"taken,omitempty"`
	TakenBy   string `json:"takenBy,omitempty"`
}

// TrophyIDs is the fixed set of trophy ids present in every room.
var TrophyIDs = []string{"trophy1", "trophy2", "trophy3"}

// Game holds the entire state for a single room in memory. It is not safe for
// concurrent use: the owning room actor processes messages one at a time, so
// every handler runs to completion before the next is considered. That
// serialization is what makes the check-then-set sequences here (trophy
// claims, deck empties, the start transition) correct without a lock.
type Game struct {
	RoomCode string

	Phase              Phase
	Players            []*Player
	HostID             string
	GameStarted        bool
	SpiceItUpMode      bool
	SpiceItUpCards     []deck.Card
	LastActivePlayerID string

	Deck               []deck.Card
	WorldsEndTriggered bool

	SpicyStack     []deck.Card
	StackCardFlips map[string]bool
	TrophyFlips    map[string]bool
	Trophies       []*Trophy

	// IDs generates card ids at deck construction time.
	IDs deck.IDGenerator

	// BroadcastFn sends an event to every connection in the room. If nil, no
	// broadcast is done.
	BroadcastFn func(ev Event)

	// UnicastFn sends an event to a single player's connection.
	UnicastFn func(playerID string, ev Event)

	actionIndex int
}

// NewGame builds an empty LOBBY-phase game for one room.
func NewGame(roomCode string, ids deck.IDGenerator) *Game {
	if ids == nil {
		ids = deck.UUIDGenerator{}
	}
	return &Game{
		RoomCode:       roomCode,
		Phase:          PhaseLobby,
		Players:        []*Player{},
		SpiceItUpCards: []deck.Card{},
		Deck:           []deck.Card{},
		SpicyStack:     []deck.Card{},
		StackCardFlips: make(map[string]bool),
		TrophyFlips:    make(map[string]bool),
		Trophies:       newTrophies(),
		IDs:            ids,
	}
}

func newTrophies() []*Trophy {
	trophies := make([]*Trophy, 0, len(TrophyIDs))
	for _, id := range TrophyIDs {
		trophies = append(trophies, &Trophy{ID: id, Available: true})
	}
	return trophies
}

// getPlayerByID returns the player with the given id, or nil.
func (g *Game) getPlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// getTrophyByID returns the trophy with the given id, or nil.
func (g *Game) getTrophyByID(id string) *Trophy {
	for _, t := range g.Trophies {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// fireEvent broadcasts an event to every connection in the room.
func (g *Game) fireEvent(ev Event) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	} else {
		log.Printf("Warning: BroadcastFn is nil for room %s, cannot broadcast event type %s.", g.RoomCode, ev.Type)
	}
}

// fireEventToPlayer sends an event only to a specific player.
func (g *Game) fireEventToPlayer(playerID string, ev Event) {
	if g.UnicastFn != nil {
		g.UnicastFn(playerID, ev)
	} else {
		log.Printf("Warning: UnicastFn is nil for room %s, cannot send private event type %s to player %s.", g.RoomCode, ev.Type, playerID)
	}
}

// fireError unicasts an error{message} to the requesting connection only.
func (g *Game) fireError(playerID, message string) {
	g.fireEventToPlayer(playerID, Event{Type: EventError, Message: message})
}

// logAction publishes a committed mutation to the Redis action journal for
// the historian. Fire and forget: a missing or slow Redis never affects room
// state.
func (g *Game) logAction(actorID, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.RoomActionRecord{
		RoomCode:      g.RoomCode,
		ActionIndex:   g.actionIndex,
		ActorPlayerID: actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec cache.RoomActionRecord) {
		if cache.Rdb == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishRoomAction(ctx, rec); err != nil {
			log.Printf("Error publishing action %d to Redis for room %s: %v", rec.ActionIndex, g.RoomCode, err)
		}
	}(record)
}
