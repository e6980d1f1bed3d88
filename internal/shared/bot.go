package shared

// Move is an action chosen by a bot: either a pass or a set of hand indices to play.
type Move struct {
	Pass    bool
	Indices []int
}

// PassMove is the move that passes the turn.
var PassMove = Move{Pass: true}

// Strategy computes a bot's next move synchronously from its hand and the trick state.
type Strategy interface {
	MakeMove(p *Player, t *Trick) Move
}

// LowestSingleStrategy plays the first single card in hand order that the trick
// would accept, and passes otherwise. It never plays more than one card.
type LowestSingleStrategy struct{}

// MakeMove implements Strategy.
func (LowestSingleStrategy) MakeMove(p *Player, t *Trick) Move {
	if t.IsConsecutive(p) {
		return PassMove
	}
	for i, card := range p.Hand {
		if t.ValidateMove([]Card{card}) == nil {
			return Move{Indices: []int{i}}
		}
	}
	return PassMove
}
