// internal/deck/deck_test.go
package deck

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqGen struct{ n int }

func (s *seqGen) NewID() string {
	s.n++
	return fmt.Sprintf("card-%03d", s.n)
}

func TestNewSpicyDeckComposition(t *testing.T) {
	cards := NewSpicyDeck(&seqGen{})
	require.Len(t, cards, 100)

	counts := map[CardType]int{}
	combos := map[string]int{}
	for _, c := range cards {
		counts[c.Type]++
		if c.Type == TypeNumber {
			assert.GreaterOrEqual(t, c.Number, 1)
			assert.LessOrEqual(t, c.Number, 10)
			combos[fmt.Sprintf("%s-%d", c.Spice, c.Number)]++
		}
	}

	assert.Equal(t, 90, counts[TypeNumber])
	assert.Equal(t, 5, counts[TypeWildNumbers])
	assert.Equal(t, 5, counts[TypeWildSpices])

	// 3 spices x 10 numbers, 3 copies of each combination.
	require.Len(t, combos, 30)
	for combo, n := range combos {
		assert.Equal(t, 3, n, combo)
	}
}

func TestNewSpicyDeckUniqueIDs(t *testing.T) {
	cards := NewSpicyDeck(UUIDGenerator{})
	seen := map[string]bool{}
	for _, c := range cards {
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
	}
}

func TestNewSpiceItUpDeck(t *testing.T) {
	cards := NewSpiceItUpDeck(&seqGen{})
	require.Len(t, cards, 6)

	// Names and images are rendered by clients; they are part of the wire
	// contract, not free to change.
	wantNames := []string{
		"we_love_chilli", "start_it_up", "spice_raider",
		"change_your_luck", "turn_it_up", "copycat",
	}
	for i, c := range cards {
		assert.Equal(t, TypeSpiceItUp, c.Type)
		assert.Equal(t, wantNames[i], c.Name)
		assert.NotEmpty(t, c.Image)
	}
	assert.Equal(t, "we love chilli.png", cards[0].Image)
	assert.Equal(t, "copycat.png", cards[5].Image)
}

func TestCardImageTokens(t *testing.T) {
	cards := NewSpicyDeck(&seqGen{})
	for _, c := range cards {
		switch c.Type {
		case TypeNumber:
			assert.Equal(t, fmt.Sprintf("%d %s.png", c.Number, c.Spice), c.Image)
		case TypeWildNumbers:
			assert.Equal(t, "numbers wild.png", c.Image)
		case TypeWildSpices:
			assert.Equal(t, "spices wild.png", c.Image)
		}
	}

	assert.Equal(t, "worlds end card.png", NewWorldsEndCard().Image)
}

func TestShuffleIsPermutation(t *testing.T) {
	original := NewSpicyDeck(&seqGen{})
	originalIDs := make([]string, len(original))
	for i, c := range original {
		originalIDs[i] = c.ID
	}

	shuffled := Shuffle(original)
	require.Len(t, shuffled, len(original))

	// Input untouched.
	for i, c := range original {
		assert.Equal(t, originalIDs[i], c.ID)
	}

	// Same multiset of ids.
	want := map[string]int{}
	got := map[string]int{}
	for _, c := range original {
		want[c.ID]++
	}
	for _, c := range shuffled {
		got[c.ID]++
	}
	assert.Equal(t, want, got)
}

func TestStripPlayAnnotations(t *testing.T) {
	c := Card{ID: "x", Type: TypeNumber, PlayedBy: "p1", PlayedByName: "Alice"}
	stripped := c.StripPlayAnnotations()

	assert.Empty(t, stripped.PlayedBy)
	assert.Empty(t, stripped.PlayedByName)
	assert.Equal(t, "p1", c.PlayedBy, "original copy unchanged")
}

func TestWorldsEndCard(t *testing.T) {
	c := NewWorldsEndCard()
	assert.Equal(t, WorldsEndID, c.ID)
	assert.Equal(t, TypeWorldsEnd, c.Type)
}
