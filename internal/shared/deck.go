package shared

import (
	"fmt"
	"math/rand/v2"
)

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

// Deck represents a collection of cards that shrinks as it is dealt.
type Deck struct {
	Cards []Card
}

// NewDeck creates a standard 52-card deck, one card per rank and suit.
func NewDeck() *Deck {
	cards := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, Card{Rank: rank, Suit: suit})
		}
	}
	return &Deck{Cards: cards}
}

// Shuffle randomizes the order of cards in the deck.
func (d *Deck) Shuffle() {
	rand.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

// ShuffleWith shuffles using the given source, for reproducible deals.
func (d *Deck) ShuffleWith(r *rand.Rand) {
	r.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

// Len returns the number of cards left in the deck.
func (d *Deck) Len() int {
	return len(d.Cards)
}

// Deal removes and returns the first n cards.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 || n > len(d.Cards) {
		return nil, fmt.Errorf("deal %d cards: only %d left in deck", n, len(d.Cards))
	}

	dealt := make([]Card, n)
	copy(dealt, d.Cards[:n])
	d.Cards = d.Cards[n:]
	return dealt, nil
}
