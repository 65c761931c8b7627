// internal/game/handlers.go
//
// One handler per inbound message tag. Every handler follows the same shape:
// validate preconditions (returning with no mutation and no broadcast on
// failure, except where an explicit error is specified), mutate the game,
// then emit unicasts of private data and a broadcast of the public
// projection.
package game

import (
	"errors"
	"log"

	"github.com/KennyPhan123/spicy-online/internal/deck"
)

// ErrRoomNotFound is returned by HandleJoin when a non-creator attempts to
// join a room that was never created. The transport layer uses it to tell the
// client to abandon the connection attempt.
var ErrRoomNotFound = errors.New("room not found")

const roomNotFoundMessage = "Room not found. Please check the room code and try again."

// HandleMessage routes an inbound message by tag. Unrecognized tags are
// logged and ignored. The only error ever returned is ErrRoomNotFound, which
// the caller translates into a connection close.
func (g *Game) HandleMessage(playerID string, msg Message) error {
	switch msg.Type {
	case "join":
		return g.HandleJoin(playerID, msg.Name, msg.IsCreator)
	case "leave":
		g.HandleLeave(playerID)
	case "toggleSpiceItUp":
		g.HandleToggleSpiceItUp(playerID)
	case "start":
		g.HandleStart(playerID)
	case "drawCard":
		g.HandleDrawCard(playerID)
	case "playCard":
		g.HandlePlayCard(playerID, msg.CardID)
	case "takeFromStack":
		g.HandleTakeFromStack(playerID)
	case "addToPoints":
		g.HandleAddToPoints(playerID, msg.CardID, msg.FromStack)
	case "claimTrophy":
		g.HandleClaimTrophy(playerID, msg.TrophyID)
	case "takeTrophy":
		g.HandleTakeTrophy(playerID, msg.TrophyID)
	case "flipStackCard":
		g.HandleFlipStackCard(playerID, msg.CardID)
	case "flipTrophy":
		g.HandleFlipTrophy(playerID, msg.TrophyID)
	case "reset":
		g.HandleReset(playerID)
	default:
		log.Printf("Room %s: unknown message type '%s' from player %s. Ignoring.", g.RoomCode, msg.Type, playerID)
	}
	return nil
}

// SendState unicasts the current public projection to one player. Used on
// connect so a fresh or reconnecting client can render the room.
func (g *Game) SendState(playerID string) {
	g.fireEventToPlayer(playerID, Event{Type: EventState, State: g.PublicState()})
}

// HandleJoin adds the sender to the roster. Joining with an id already
// present is idempotent; the first player to join becomes host.
func (g *Game) HandleJoin(playerID, name string, isCreator bool) error {
	if g.GameStarted {
		g.fireError(playerID, "Game already started")
		return nil
	}
	if len(g.Players) >= MaxPlayers {
		g.fireError(playerID, "Room is full (max 6 players)")
		return nil
	}

	existing := g.getPlayerByID(playerID)

	// A room with zero players only accepts the creator; anyone else typed a
	// code for a room that was never created.
	if existing == nil && len(g.Players) == 0 && !isCreator {
		g.fireError(playerID, roomNotFoundMessage)
		return ErrRoomNotFound
	}

	if existing == nil {
		g.Players = append(g.Players, &Player{
			ID:         playerID,
			Name:       name,
			Hand:       []deck.Card{},
			PointsZone: []deck.Card{},
		})
	}

	if len(g.Players) == 1 {
		g.HostID = playerID
	}

	g.logAction(playerID, "join", map[string]interface{}{"name": name, "reconnect": existing != nil})

	joined := g.PublicPlayers()
	var self *PublicPlayer
	for i := range joined {
		if joined[i].ID == playerID {
			self = &joined[i]
			break
		}
	}
	g.fireEvent(Event{
		Type:    EventPlayerJoined,
		Player:  self,
		HostID:  g.HostID,
		Players: joined,
	})
	return nil
}

// HandleLeave removes the player by id. If the host leaves, the
// earliest-joined remaining player becomes host. Cards held by the departing
// player leave with them.
func (g *Game) HandleLeave(playerID string) {
	idx := -1
	for i, p := range g.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)

	if g.HostID == playerID {
		if len(g.Players) > 0 {
			g.HostID = g.Players[0].ID
		} else {
			g.HostID = ""
		}
	}

	g.logAction(playerID, "leave", nil)
	g.fireEvent(Event{
		Type:     EventPlayerLeft,
		PlayerID: playerID,
		HostID:   g.HostID,
		Players:  g.PublicPlayers(),
	})
}

// HandleToggleSpiceItUp flips the variant mode. Host-only, pre-start only.
func (g *Game) HandleToggleSpiceItUp(playerID string) {
	if playerID != g.HostID || g.GameStarted {
		return
	}
	g.SpiceItUpMode = !g.SpiceItUpMode

	g.logAction(playerID, "toggleSpiceItUp", map[string]interface{}{"spiceItUpMode": g.SpiceItUpMode})
	g.fireEvent(Event{
		Type:          EventSpiceItUpToggled,
		SpiceItUpMode: boolRef(g.SpiceItUpMode),
	})
}

// HandleStart performs the LOBBY->PLAYING transition: build and shuffle the
// deck, deal, seed the worlds_end marker into the remainder, and send each
// player their private hand with the new public state.
func (g *Game) HandleStart(playerID string) {
	if playerID != g.HostID || g.GameStarted {
		return
	}
	if len(g.Players) < 2 {
		g.fireError(playerID, "Need at least 2 players")
		return
	}

	g.GameStarted = true
	g.Phase = PhasePlaying

	cards := deck.Shuffle(deck.NewSpicyDeck(g.IDs))

	// Deal 6 to each player in join order, front of deck first.
	for _, p := range g.Players {
		hand := make([]deck.Card, HandSize)
		copy(hand, cards[:HandSize])
		p.Hand = hand
		p.PointsZone = []deck.Card{}
		cards = cards[HandSize:]
	}

	// The worlds_end marker goes into the remaining deck at a depth that
	// scales with the table size: 2 players play a quarter of the deck,
	// 3-4 players half, 5+ players three quarters.
	remaining := len(cards)
	var position int
	switch {
	case len(g.Players) == 2:
		position = remaining / 4
	case len(g.Players) <= 4:
		position = remaining / 2
	default:
		position = remaining * 3 / 4
	}

	withMarker := make([]deck.Card, 0, remaining+1)
	withMarker = append(withMarker, cards[:position]...)
	withMarker = append(withMarker, deck.NewWorldsEndCard())
	withMarker = append(withMarker, cards[position:]...)
	g.Deck = withMarker
	g.WorldsEndTriggered = false
	g.SpicyStack = []deck.Card{}

	if g.SpiceItUpMode {
		modifiers := deck.Shuffle(deck.NewSpiceItUpDeck(g.IDs))
		g.SpiceItUpCards = []deck.Card{modifiers[0]}
	}

	g.logAction(playerID, "start", map[string]interface{}{
		"players":   len(g.Players),
		"deckCount": len(g.Deck),
	})

	// Each player gets a private payload: their dealt hand plus the newly
	// public state.
	state := g.PublicState()
	for _, p := range g.Players {
		g.fireEventToPlayer(p.ID, Event{
			Type:   EventGameStarted,
			State:  state,
			MyHand: cardsRef(p.Hand),
		})
	}
}

// HandleDrawCard pops the front card of the deck into the drawer's hand, or
// ends active deck play when the worlds_end marker surfaces.
func (g *Game) HandleDrawCard(playerID string) {
	if !g.GameStarted || g.WorldsEndTriggered {
		return
	}
	player := g.getPlayerByID(playerID)
	if player == nil {
		return
	}
	if len(g.Deck) == 0 {
		g.fireError(playerID, "Deck is empty")
		return
	}

	card := g.Deck[0]
	g.Deck = g.Deck[1:]

	if card.Type == deck.TypeWorldsEnd {
		// The marker is consumed, never granted to anyone.
		g.WorldsEndTriggered = true
		g.logAction(playerID, "worldsEndRevealed", nil)
		g.fireEvent(Event{
			Type:    EventWorldsEndRevealed,
			Message: "World's End card revealed! Game ends!",
		})
		return
	}

	player.Hand = append(player.Hand, card)

	g.logAction(playerID, "drawCard", map[string]interface{}{"cardId": card.ID})
	g.fireEventToPlayer(playerID, Event{Type: EventCardDrawn, MyHand: cardsRef(player.Hand)})
	g.fireEvent(Event{
		Type:      EventDeckUpdated,
		DeckCount: intRef(len(g.Deck)),
		Players:   g.PublicPlayers(),
	})
}

// HandlePlayCard moves a card from the sender's hand onto the shared stack,
// annotated with the player's identity. A card entering the stack is always
// face down, whatever its flip state before.
func (g *Game) HandlePlayCard(playerID, cardID string) {
	if !g.GameStarted {
		return
	}
	player := g.getPlayerByID(playerID)
	if player == nil {
		return
	}

	idx := -1
	for i, c := range player.Hand {
		if c.ID == cardID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	card := player.Hand[idx]
	player.Hand = append(player.Hand[:idx], player.Hand[idx+1:]...)

	card.PlayedBy = playerID
	card.PlayedByName = player.Name
	g.SpicyStack = append(g.SpicyStack, card)

	g.LastActivePlayerID = playerID
	delete(g.StackCardFlips, cardID)

	g.logAction(playerID, "playCard", map[string]interface{}{"cardId": cardID})
	g.fireEventToPlayer(playerID, Event{Type: EventCardPlayed, MyHand: cardsRef(player.Hand)})
	g.broadcastStack()
}

// HandleTakeFromStack pops the most recently played card back into the
// sender's hand, with its play annotations stripped.
func (g *Game) HandleTakeFromStack(playerID string) {
	if !g.GameStarted {
		return
	}
	player := g.getPlayerByID(playerID)
	if player == nil {
		return
	}
	if len(g.SpicyStack) == 0 {
		return
	}

	card := g.SpicyStack[len(g.SpicyStack)-1]
	g.SpicyStack = g.SpicyStack[:len(g.SpicyStack)-1]
	player.Hand = append(player.Hand, card.StripPlayAnnotations())

	g.logAction(playerID, "takeFromStack", map[string]interface{}{"cardId": card.ID})
	g.fireEventToPlayer(playerID, Event{Type: EventCardDrawn, MyHand: cardsRef(player.Hand)})
	g.broadcastStack()
}

// HandleAddToPoints moves cards into the sender's points zone. The fromStack
// variant collects the entire stack in its current order; the cardId variant
// moves a single card out of the sender's hand.
func (g *Game) HandleAddToPoints(playerID, cardID string, fromStack bool) {
	if !g.GameStarted {
		return
	}
	player := g.getPlayerByID(playerID)
	if player == nil {
		return
	}

	switch {
	case fromStack:
		if len(g.SpicyStack) == 0 {
			return
		}
		player.PointsZone = append(player.PointsZone, g.SpicyStack...)
		g.SpicyStack = []deck.Card{}
		g.logAction(playerID, "addToPoints", map[string]interface{}{"fromStack": true})

	case cardID != "":
		idx := -1
		for i, c := range player.Hand {
			if c.ID == cardID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return
		}
		card := player.Hand[idx]
		player.Hand = append(player.Hand[:idx], player.Hand[idx+1:]...)
		player.PointsZone = append(player.PointsZone, card)
		g.logAction(playerID, "addToPoints", map[string]interface{}{"cardId": cardID})

	default:
		return
	}

	g.fireEventToPlayer(playerID, Event{Type: EventPointsUpdated, PointsZone: cardsRef(player.PointsZone)})
	g.broadcastStack()
}

// HandleClaimTrophy marks an available trophy as claimed by the sender.
// Messages are serialized per room, so of two racing claims the first wins
// and the second finds available already false.
func (g *Game) HandleClaimTrophy(playerID, trophyID string) {
	if !g.GameStarted {
		return
	}
	player := g.getPlayerByID(playerID)
	if player == nil {
		return
	}
	trophy := g.getTrophyByID(trophyID)
	if trophy == nil || !trophy.Available {
		return
	}

	trophy.Available = false
	trophy.OwnerID = playerID

	g.logAction(playerID, "claimTrophy", map[string]interface{}{"trophyId": trophyID})
	g.fireEvent(Event{
		Type:      EventTrophyClaimed,
		TrophyID:  trophy.ID,
		OwnerID:   playerID,
		OwnerName: player.Name,
		Trophies:  trophiesRef(g.Trophies),
	})
}

// HandleTakeTrophy marks a trophy taken and appends a trophy pseudo-card to
// the sender's points zone. Taking is deliberately independent of the claim
// flags: a trophy can be taken whether or not it was ever claimed.
func (g *Game) HandleTakeTrophy(playerID, trophyID string) {
	if !g.GameStarted {
		return
	}
	player := g.getPlayerByID(playerID)
	if player == nil {
		return
	}
	trophy := g.getTrophyByID(trophyID)
	if trophy == nil {
		return
	}

	trophy.Taken = true
	trophy.TakenBy = playerID
	player.PointsZone = append(player.PointsZone, deck.Card{
		ID:    trophy.ID,
		Type:  deck.TypeTrophy,
		Image: "trophy.png",
	})

	g.logAction(playerID, "takeTrophy", map[string]interface{}{"trophyId": trophyID})
	g.fireEvent(Event{
		Type:        EventTrophyTaken,
		TrophyID:    trophy.ID,
		TakenBy:     playerID,
		TakenByName: player.Name,
		Trophies:    trophiesRef(g.Trophies),
	})
}

// HandleFlipStackCard toggles the cosmetic face-up state of a stack card.
func (g *Game) HandleFlipStackCard(playerID, cardID string) {
	if !g.GameStarted || cardID == "" {
		return
	}
	g.StackCardFlips[cardID] = !g.StackCardFlips[cardID]

	g.fireEvent(Event{
		Type:           EventStackCardFlipped,
		CardID:         cardID,
		IsFlipped:      boolRef(g.StackCardFlips[cardID]),
		StackCardFlips: flipsRef(g.StackCardFlips),
	})
}

// HandleFlipTrophy toggles the cosmetic face-up state of a trophy.
func (g *Game) HandleFlipTrophy(playerID, trophyID string) {
	if !g.GameStarted || trophyID == "" {
		return
	}
	g.TrophyFlips[trophyID] = !g.TrophyFlips[trophyID]

	g.fireEvent(Event{
		Type:        EventTrophyFlipped,
		TrophyID:    trophyID,
		IsFlipped:   boolRef(g.TrophyFlips[trophyID]),
		TrophyFlips: flipsRef(g.TrophyFlips),
	})
}

// HandleReset replaces the game with a fresh LOBBY instance, re-seeding the
// roster (trimmed to id and name), the host, and the spice-it-up mode from
// the outgoing state. Any player may reset.
func (g *Game) HandleReset(playerID string) {
	hostID := g.HostID
	spiceItUpMode := g.SpiceItUpMode
	roster := make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		roster = append(roster, &Player{
			ID:         p.ID,
			Name:       p.Name,
			Hand:       []deck.Card{},
			PointsZone: []deck.Card{},
		})
	}

	fresh := NewGame(g.RoomCode, g.IDs)
	fresh.Players = roster
	fresh.HostID = hostID
	fresh.SpiceItUpMode = spiceItUpMode

	// Keep the same aggregate identity (the room actor holds a pointer) but
	// swap in the fresh state wholesale.
	broadcast, unicast, actions := g.BroadcastFn, g.UnicastFn, g.actionIndex
	*g = *fresh
	g.BroadcastFn, g.UnicastFn, g.actionIndex = broadcast, unicast, actions

	g.logAction(playerID, "reset", nil)
	g.fireEvent(Event{Type: EventGameReset, State: g.PublicState()})
}

// broadcastStack publishes the full stack contents, stack size, and the
// per-player hand/points count summary.
func (g *Game) broadcastStack() {
	stack := cardsRef(g.SpicyStack)
	g.fireEvent(Event{
		Type:       EventStackUpdated,
		StackCount: intRef(len(g.SpicyStack)),
		Stack:      stack,
		Players:    g.PublicPlayers(),
	})
}
