// internal/deck/deck.go
package deck

import (
	"fmt"
	"math/rand"
)

// NewSpicyDeck builds the 100-card playing deck: 3 spices x numbers 1-10 x 3
// copies = 90 numbered cards, plus 5 wild-numbers and 5 wild-spices cards.
// Construction order is deterministic; callers shuffle separately.
func NewSpicyDeck(ids IDGenerator) []Card {
	cards := make([]Card, 0, 100)

	for _, spice := range Spices {
		for number := 1; number <= 10; number++ {
			for copyN := 0; copyN < 3; copyN++ {
				cards = append(cards, Card{
					ID:     ids.NewID(),
					Type:   TypeNumber,
					Spice:  spice,
					Number: number,
					Image:  fmt.Sprintf("%d %s.png", number, spice),
				})
			}
		}
	}

	for i := 0; i < 5; i++ {
		cards = append(cards, Card{
			ID:    ids.NewID(),
			Type:  TypeWildNumbers,
			Image: "numbers wild.png",
		})
	}
	for i := 0; i < 5; i++ {
		cards = append(cards, Card{
			ID:    ids.NewID(),
			Type:  TypeWildSpices,
			Image: "spices wild.png",
		})
	}

	return cards
}

// spiceItUpCards are the six fixed modifier cards of the optional variant.
// Names and images are client-facing identifiers and must stay stable.
var spiceItUpCards = []struct {
	name  string
	image string
}{
	{"we_love_chilli", "we love chilli.png"},
	{"start_it_up", "start it up.png"},
	{"spice_raider", "spice raider.png"},
	{"change_your_luck", "change your luck.png"},
	{"turn_it_up", "turn it up.png"},
	{"copycat", "copycat.png"},
}

// NewSpiceItUpDeck builds the independent 6-card modifier deck.
func NewSpiceItUpDeck(ids IDGenerator) []Card {
	cards := make([]Card, 0, len(spiceItUpCards))
	for _, sc := range spiceItUpCards {
		cards = append(cards, Card{
			ID:    ids.NewID(),
			Type:  TypeSpiceItUp,
			Name:  sc.name,
			Image: sc.image,
		})
	}
	return cards
}

// Shuffle returns a uniform Fisher-Yates permutation of the input. The input
// slice is never modified.
func Shuffle(cards []Card) []Card {
	shuffled := make([]Card, len(cards))
	copy(shuffled, cards)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
