package shared

import (
	"fmt"
	"strings"
)

// Rules validates a selection of cards against what is currently on the table.
// last is nil when the table is clear; cardsToPlay is the count that opened
// the current streak, or 0 when the table is clear.
type Rules interface {
	Validate(selected, last []Card, cardsToPlay int) error
}

// LenientRules accepts any non-empty selection.
type LenientRules struct{}

// Validate implements Rules.
func (LenientRules) Validate(selected, _ []Card, _ int) error {
	if len(selected) == 0 {
		return InvalidMove("select at least one card")
	}
	return nil
}

// StandardRules requires a single rank, the streak's card count, and a rank
// at least as strong as the last play.
type StandardRules struct{}

// Validate implements Rules.
func (StandardRules) Validate(selected, last []Card, cardsToPlay int) error {
	if len(selected) == 0 {
		return InvalidMove("select at least one card")
	}
	rank := selected[0].Rank
	for _, c := range selected[1:] {
		if c.Rank != rank {
			return InvalidMove("all cards must share one rank")
		}
	}
	if len(last) == 0 {
		return nil
	}
	if cardsToPlay > 0 && len(selected) != cardsToPlay {
		return InvalidMove(fmt.Sprintf("you must play %d card(s)", cardsToPlay))
	}
	if rank.Order() < SetRank(last).Order() {
		return InvalidMove(fmt.Sprintf("%s does not beat %s", rank, SetRank(last)))
	}
	return nil
}

// RulesByName resolves a configured rule set name.
func RulesByName(name string) (Rules, error) {
	switch strings.ToLower(name) {
	case "", "standard":
		return StandardRules{}, nil
	case "lenient":
		return LenientRules{}, nil
	default:
		return nil, fmt.Errorf("unknown rule set %q", name)
	}
}
