// internal/game/events.go
package game

import (
	"github.com/KennyPhan123/spicy-online/internal/deck"
)

// EventType is an enum-like type for outbound room events.
type EventType string

const (
	EventState             EventType = "state"
	EventPlayerJoined      EventType = "playerJoined"
	EventPlayerLeft        EventType = "playerLeft"
	EventSpiceItUpToggled  EventType = "spiceItUpToggled"
	EventGameStarted       EventType = "gameStarted"
	EventCardDrawn         EventType = "cardDrawn"
	EventDeckUpdated       EventType = "deckUpdated"
	EventCardPlayed        EventType = "cardPlayed"
	EventStackUpdated      EventType = "stackUpdated"
	EventPointsUpdated     EventType = "pointsUpdated"
	EventTrophyClaimed     EventType = "trophyClaimed"
	EventTrophyTaken       EventType = "trophyTaken"
	EventStackCardFlipped  EventType = "stackCardFlipped"
	EventTrophyFlipped     EventType = "trophyFlipped"
	EventWorldsEndRevealed EventType = "worldsEndRevealed"
	EventGameReset         EventType = "gameReset"
	EventError             EventType = "error"
	EventPong              EventType = "pong"
)

// Message is the closed inbound protocol. Every client message carries a
// type tag plus the optional typed fields that tag requires; anything that
// fails to parse into this shape is logged and discarded at the boundary.
type Message struct {
	Type string `json:"type"`

	// join
	Name      string `json:"name,omitempty"`
	IsCreator bool   `json:"isCreator,omitempty"`

	// playCard, flipStackCard, addToPoints (single-card variant)
	CardID string `json:"cardId,omitempty"`

	// claimTrophy, takeTrophy, flipTrophy
	TrophyID string `json:"trophyId,omitempty"`

	// addToPoints (whole-stack variant)
	FromStack bool `json:"fromStack,omitempty"`
}

// Event is the single outbound envelope. Fields are pointers or omitempty so
// each event type serializes exactly the fields it needs; slice-valued fields
// that must appear even when empty (a hand after its last card is played, the
// stack after it is collected) use slice pointers.
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`

	State   *PublicState   `json:"state,omitempty"`
	Player  *PublicPlayer  `json:"player,omitempty"`
	Players []PublicPlayer `json:"players,omitempty"`

	PlayerID      string `json:"playerId,omitempty"`
	HostID        string `json:"hostId,omitempty"`
	SpiceItUpMode *bool  `json:"spiceItUpMode,omitempty"`

	MyHand     *[]deck.Card `json:"myHand,omitempty"`
	PointsZone *[]deck.Card `json:"pointsZone,omitempty"`

	DeckCount  *int         `json:"deckCount,omitempty"`
	Stack      *[]deck.Card `json:"stack,omitempty"`
	StackCount *int         `json:"stackCount,omitempty"`

	Trophies    []*Trophy `json:"trophies,omitempty"`
	TrophyID    string    `json:"trophyId,omitempty"`
	OwnerID     string    `json:"ownerId,omitempty"`
	OwnerName   string    `json:"ownerName,omitempty"`
	TakenBy     string    `json:"takenBy,omitempty"`
	TakenByName string    `json:"takenByName,omitempty"`

	CardID         string          `json:"cardId,omitempty"`
	IsFlipped      *bool           `json:"isFlipped,omitempty"`
	StackCardFlips map[string]bool `json:"stackCardFlips,omitempty"`
	TrophyFlips    map[string]bool `json:"trophyFlips,omitempty"`
}

// PublicPlayer is the roster entry visible to the whole room: counts only,
// never hand or points-zone contents.
type PublicPlayer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HandCount   int    `json:"handCount"`
	PointsCount int    `json:"pointsCount"`
}

// PublicState is the room-wide projection of the game. It must never contain
// any player's hand or points-zone contents.
type PublicState struct {
	Players            []PublicPlayer  `json:"players"`
	Phase              Phase           `json:"phase"`
	HostID             string          `json:"hostId,omitempty"`
	GameStarted        bool            `json:"gameStarted"`
	LastActivePlayerID string          `json:"lastActivePlayerId,omitempty"`
	SpiceItUpMode      bool            `json:"spiceItUpMode"`
	SpiceItUpCards     []deck.Card     `json:"spiceItUpCards"`
	DeckCount          int             `json:"deckCount"`
	WorldsEndTriggered bool            `json:"worldsEndTriggered"`
	StackCount         int             `json:"stackCount"`
	Stack              []deck.Card     `json:"stack"`
	StackCardFlips     map[string]bool `json:"stackCardFlips"`
	Trophies           []*Trophy       `json:"trophies"`
	TrophyFlips        map[string]bool `json:"trophyFlips"`
}

// PublicPlayers projects the roster with hand/points counts only.
func (g *Game) PublicPlayers() []PublicPlayer {
	players := make([]PublicPlayer, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, PublicPlayer{
			ID:          p.ID,
			Name:        p.Name,
			HandCount:   len(p.Hand),
			PointsCount: len(p.PointsZone),
		})
	}
	return players
}

// PublicState builds the room-wide projection. Every collection is copied:
// the write pumps marshal events concurrently with the actor's next mutation,
// so an event must never share a map or slice with the live game.
func (g *Game) PublicState() *PublicState {
	stack := make([]deck.Card, len(g.SpicyStack))
	copy(stack, g.SpicyStack)
	modifiers := make([]deck.Card, len(g.SpiceItUpCards))
	copy(modifiers, g.SpiceItUpCards)
	return &PublicState{
		Players:            g.PublicPlayers(),
		Phase:              g.Phase,
		HostID:             g.HostID,
		GameStarted:        g.GameStarted,
		LastActivePlayerID: g.LastActivePlayerID,
		SpiceItUpMode:      g.SpiceItUpMode,
		SpiceItUpCards:     modifiers,
		DeckCount:          len(g.Deck),
		WorldsEndTriggered: g.WorldsEndTriggered,
		StackCount:         len(g.SpicyStack),
		Stack:              stack,
		StackCardFlips:     flipsRef(g.StackCardFlips),
		Trophies:           trophiesRef(g.Trophies),
		TrophyFlips:        flipsRef(g.TrophyFlips),
	}
}

// cardsRef copies a card slice and returns a pointer to it, so the event
// serializes a stable snapshot (and an empty array rather than nothing).
func cardsRef(cards []deck.Card) *[]deck.Card {
	snapshot := make([]deck.Card, len(cards))
	copy(snapshot, cards)
	return &snapshot
}

// flipsRef copies a flip map into a snapshot safe to hand to a write pump.
func flipsRef(flips map[string]bool) map[string]bool {
	snapshot := make(map[string]bool, len(flips))
	for id, v := range flips {
		snapshot[id] = v
	}
	return snapshot
}

// trophiesRef copies the trophy list, values included.
func trophiesRef(trophies []*Trophy) []*Trophy {
	snapshot := make([]*Trophy, 0, len(trophies))
	for _, t := range trophies {
		copied := *t
		snapshot = append(snapshot, &copied)
	}
	return snapshot
}

func intRef(v int) *int    { return &v }
func boolRef(v bool) *bool { return &v }
