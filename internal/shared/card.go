package shared

import "fmt"

// Suit represents the suit of a card.
type Suit string

const (
	Hearts   Suit = "Hearts"
	Diamonds Suit = "Diamonds"
	Clubs    Suit = "Clubs"
	Spades   Suit = "Spades"
)

// Rank is one of the 13 card ranks.
type Rank string

const (
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
	Two   Rank = "2"
)

// Suits lists every suit in deck construction order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Ranks lists every rank from weakest to strongest.
var Ranks = []Rank{Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace, Two}

// Define rank order for comparisons. 2 is the strongest rank.
var rankOrder = map[Rank]int{
	Three: 1,
	Four:  2,
	Five:  3,
	Six:   4,
	Seven: 5,
	Eight: 6,
	Nine:  7,
	Ten:   8,
	Jack:  9,
	Queen: 10,
	King:  11,
	Ace:   12,
	Two:   13,
}

var suitOrder = map[Suit]int{
	Hearts:   1,
	Diamonds: 2,
	Clubs:    3,
	Spades:   4,
}

// Order returns the strength of the rank (higher is better). Unknown ranks return 0.
func (r Rank) Order() int {
	return rankOrder[r]
}

// Valid reports whether r is one of the 13 known ranks.
func (r Rank) Valid() bool {
	_, ok := rankOrder[r]
	return ok
}

// Card represents a single playing card. Cards compare by value.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

// Less orders cards by rank, then by suit for a stable presentation.
func (c Card) Less(other Card) bool {
	if c.Rank != other.Rank {
		return c.Rank.Order() < other.Rank.Order()
	}
	return suitOrder[c.Suit] < suitOrder[other.Suit]
}

// SetRank returns the strongest rank in a set of cards, or "" for an empty set.
func SetRank(cards []Card) Rank {
	var best Rank
	for _, c := range cards {
		if c.Rank.Order() > best.Order() {
			best = c.Rank
		}
	}
	return best
}
