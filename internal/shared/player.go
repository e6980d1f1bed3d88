package shared

import (
	"fmt"
	"sort"
)

// Player represents a seated player. Bots carry a Strategy, humans do not.
type Player struct {
	ID       string   // Unique identifier for the player (connection id or bot id)
	Name     string   // Player's chosen name
	Hand     []Card   // Cards currently held by the player
	Strategy Strategy // Move source for bots, nil for humans
}

// NewPlayer creates a new human player with the given ID and name.
func NewPlayer(id string, name string) *Player {
	return &Player{
		ID:   id,
		Name: name,
		Hand: []Card{},
	}
}

// NewBot creates a player whose moves come from the given strategy.
func NewBot(id string, name string, strategy Strategy) *Player {
	if strategy == nil {
		strategy = LowestSingleStrategy{}
	}
	return &Player{
		ID:       id,
		Name:     name,
		Hand:     []Card{},
		Strategy: strategy,
	}
}

// IsBot reports whether the player computes its own moves.
func (p *Player) IsBot() bool {
	return p.Strategy != nil
}

// ReceiveCard adds a card to the player's hand.
func (p *Player) ReceiveCard(card Card) {
	p.Hand = append(p.Hand, card)
}

// SortHand orders the hand by ascending rank strength.
func (p *Player) SortHand() {
	sort.SliceStable(p.Hand, func(i, j int) bool {
		return p.Hand[i].Less(p.Hand[j])
	})
}

// SelectCards returns the cards at the given hand positions without removing them.
// Indices must be in range and unique.
func (p *Player) SelectCards(indices []int) ([]Card, error) {
	if len(indices) == 0 {
		return nil, ErrBadSelection
	}
	seen := make(map[int]bool, len(indices))
	selected := make([]Card, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(p.Hand) {
			return nil, NewError(CodeBadSelection, fmt.Sprintf("Card index %d is out of range.", idx))
		}
		if seen[idx] {
			return nil, NewError(CodeBadSelection, fmt.Sprintf("Card index %d was selected twice.", idx))
		}
		seen[idx] = true
		selected = append(selected, p.Hand[idx])
	}
	return selected, nil
}

// PlayCards removes the cards at the given hand positions and returns them.
// An out-of-range index is a programming error and panics.
func (p *Player) PlayCards(indices []int) []Card {
	remove := make(map[int]bool, len(indices))
	played := make([]Card, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(p.Hand) {
			panic(fmt.Sprintf("player %s: card index %d out of range (hand size %d)", p.ID, idx, len(p.Hand)))
		}
		played = append(played, p.Hand[idx])
		remove[idx] = true
	}

	kept := make([]Card, 0, len(p.Hand)-len(remove))
	for i, c := range p.Hand {
		if !remove[i] {
			kept = append(kept, c)
		}
	}
	p.Hand = kept
	return played
}

// MakeMove asks the player's strategy for a move. Humans always get ok=false.
func (p *Player) MakeMove(t *Trick) (move Move, ok bool) {
	if p.Strategy == nil {
		return Move{}, false
	}
	return p.Strategy.MakeMove(p, t), true
}
