// internal/deck/card.go
package deck

import "github.com/google/uuid"

// CardType classifies a card. The zero value is invalid; every constructor
// sets an explicit type.
type CardType string

const (
	TypeNumber      CardType = "number"
	TypeWildNumbers CardType = "wild_numbers"
	TypeWildSpices  CardType = "wild_spices"
	TypeSpiceItUp   CardType = "spice_it_up"
	TypeWorldsEnd   CardType = "worlds_end"
	TypeTrophy      CardType = "trophy"
)

// Spice is the suit-like category of a numbered card.
type Spice string

const (
	SpiceChilli Spice = "chilli"
	SpicePepper Spice = "pepper"
	SpiceWasabi Spice = "wasabi"
)

// Spices lists every spice in deck-construction order.
var Spices = []Spice{SpiceChilli, SpicePepper, SpiceWasabi}

// WorldsEndID is the fixed id of the single marker card seeded into the deck.
const WorldsEndID = "worlds_end"

// Card is a value type; copies are cheap and intentional. PlayedBy and
// PlayedByName are transient annotations that only exist while the card sits
// on the shared stack.
type Card struct {
	ID           string   `json:"id"`
	Type         CardType `json:"type"`
	Spice        Spice    `json:"spice,omitempty"`
	Number       int      `json:"number,omitempty"`
	Name         string   `json:"name,omitempty"`
	Image        string   `json:"image"`
	PlayedBy     string   `json:"playedBy,omitempty"`
	PlayedByName string   `json:"playedByName,omitempty"`
}

// StripPlayAnnotations returns a copy of the card with its stack-residency
// annotations cleared. Used when a card moves from the stack back to a hand.
func (c Card) StripPlayAnnotations() Card {
	c.PlayedBy = ""
	c.PlayedByName = ""
	return c
}

// IDGenerator mints opaque unique card ids at deck construction time. Tests
// substitute a deterministic implementation.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator is the production id source.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// NewWorldsEndCard builds the marker card that ends active deck play.
func NewWorldsEndCard() Card {
	return Card{
		ID:    WorldsEndID,
		Type:  TypeWorldsEnd,
		Image: "worlds end card.png",
	}
}
