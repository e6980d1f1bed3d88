package shared

// OutcomeAction tells the caller what happened after a play or pass.
type OutcomeAction string

const (
	ActionNext    OutcomeAction = "next"
	ActionGameEnd OutcomeAction = "game_end"
)

// Outcome is the structured result of a successful play or pass.
type Outcome struct {
	Action   OutcomeAction
	Next     *Player   // Player whose turn it is now (nil once the round ended)
	Skipped  *Player   // Player whose turn was bypassed, if any
	Finished *Player   // Player who emptied their hand with this play, if any
	Standing *Standing // Finish record reported by the observer, if any
}

// FinishObserver is told when a player empties their hand. It must drop the
// player from the trick with RemoveActivePlayer.
type FinishObserver interface {
	PlayerFinished(p *Player) Standing
}

// Trick is the turn state machine for one round.
type Trick struct {
	Players         []*Player // Seating order at round start
	Active          []*Player // Players still holding cards, in seating order
	PlayedCards     [][]Card  // Every non-empty play of the round, in order
	LastPlayedCards []Card    // Cards to beat, nil when the table is clear
	LastPlayedBy    *Player   // Who played LastPlayedCards
	CardsToPlay     int       // Card count that opened the current streak, 0 when clear

	current            int
	skips              map[string]bool
	passCount          int
	actedSinceLastPlay bool
	rules              Rules
	observer           FinishObserver
}

// NewTrick creates the trick state for a round. The first seated player starts.
func NewTrick(players []*Player, rules Rules, observer FinishObserver) *Trick {
	if rules == nil {
		rules = StandardRules{}
	}
	seated := make([]*Player, len(players))
	copy(seated, players)
	active := make([]*Player, len(players))
	copy(active, players)

	return &Trick{
		Players:     seated,
		Active:      active,
		PlayedCards: [][]Card{},
		skips:       make(map[string]bool),
		rules:       rules,
		observer:    observer,
	}
}

// CurrentPlayer returns the player whose turn it is, or nil once nobody is active.
func (t *Trick) CurrentPlayer() *Player {
	if len(t.Active) == 0 {
		return nil
	}
	return t.Active[t.current]
}

// IsActive reports whether p still holds cards in this round.
func (t *Trick) IsActive(p *Player) bool {
	return t.activeIndex(p) >= 0
}

// IsPendingSkip reports whether the player's next turn will be bypassed.
func (t *Trick) IsPendingSkip(p *Player) bool {
	return t.skips[p.ID]
}

// IsConsecutive reports whether p made the last play and nobody has acted since.
func (t *Trick) IsConsecutive(p *Player) bool {
	return t.LastPlayedBy == p && !t.actedSinceLastPlay
}

// ValidateMove checks a selection against the table with the round's rules.
func (t *Trick) ValidateMove(selected []Card) error {
	return t.rules.Validate(selected, t.LastPlayedCards, t.CardsToPlay)
}

// PlayCard plays the cards at the given hand positions for the acting player.
// Errors leave the trick and the player's hand unchanged.
func (t *Trick) PlayCard(p *Player, indices []int) (Outcome, error) {
	if len(t.Active) == 0 {
		return Outcome{}, ErrRoundOver
	}
	if p != t.CurrentPlayer() {
		return Outcome{}, ErrNotYourTurn
	}
	if t.IsConsecutive(p) {
		return Outcome{}, ErrConsecutivePlay
	}

	selected, err := p.SelectCards(indices)
	if err != nil {
		return Outcome{}, err
	}
	if err := t.ValidateMove(selected); err != nil {
		return Outcome{}, err
	}

	skipTrigger := len(t.LastPlayedCards) > 0 && SetRank(selected) == SetRank(t.LastPlayedCards)

	played := p.PlayCards(indices)
	if len(t.LastPlayedCards) == 0 {
		t.CardsToPlay = len(played)
	}
	t.PlayedCards = append(t.PlayedCards, played)
	t.LastPlayedCards = played
	t.LastPlayedBy = p
	t.passCount = 0
	t.actedSinceLastPlay = false

	if len(p.Hand) == 0 {
		outcome := Outcome{Finished: p}
		if t.observer != nil {
			standing := t.observer.PlayerFinished(p)
			outcome.Standing = &standing
		} else {
			t.RemoveActivePlayer(p)
		}
		if len(t.Active) == 0 {
			outcome.Action = ActionGameEnd
			return outcome, nil
		}
		outcome.Action = ActionNext
		outcome.Next = t.CurrentPlayer()
		return outcome, nil
	}

	outcome := Outcome{Action: ActionNext}
	if skipTrigger {
		if next := t.Active[(t.current+1)%len(t.Active)]; next != p {
			t.skips[next.ID] = true
			outcome.Skipped = next
		}
	}
	t.advanceTurn()
	outcome.Next = t.CurrentPlayer()
	return outcome, nil
}

// PassTurn passes the acting player's turn. When the turn comes back around to
// the player who made the last play, the table is cleared.
func (t *Trick) PassTurn(p *Player) (Outcome, error) {
	if len(t.Active) == 0 {
		return Outcome{}, ErrRoundOver
	}
	if p != t.CurrentPlayer() {
		return Outcome{}, ErrNotYourTurn
	}

	t.passCount++
	t.actedSinceLastPlay = true
	t.advanceTurn()

	if t.LastPlayedBy != nil {
		backToLeader := t.CurrentPlayer() == t.LastPlayedBy
		// The leader may have finished, in which case everyone left must pass.
		leaderGone := !t.IsActive(t.LastPlayedBy) && t.passCount >= len(t.Active)
		if backToLeader || leaderGone {
			t.clearTable()
		}
	}

	return Outcome{Action: ActionNext, Next: t.CurrentPlayer()}, nil
}

// RemoveActivePlayer drops a finished player from the active set, keeping the
// turn index on the same logical player.
func (t *Trick) RemoveActivePlayer(p *Player) {
	idx := t.activeIndex(p)
	if idx < 0 {
		return
	}
	t.Active = append(t.Active[:idx:idx], t.Active[idx+1:]...)
	delete(t.skips, p.ID)

	if idx < t.current {
		t.current--
	}
	if t.current >= len(t.Active) {
		t.current = 0
	}
}

// advanceTurn walks to the next active seat, consuming pending skips on the way.
func (t *Trick) advanceTurn() {
	n := len(t.Active)
	if n == 0 {
		return
	}
	idx := t.current
	for step := 0; step < 2*n; step++ {
		idx = (idx + 1) % n
		id := t.Active[idx].ID
		if t.skips[id] {
			delete(t.skips, id)
			continue
		}
		break
	}
	t.current = idx
}

func (t *Trick) clearTable() {
	t.LastPlayedCards = nil
	t.LastPlayedBy = nil
	t.CardsToPlay = 0
	t.passCount = 0
}

func (t *Trick) activeIndex(p *Player) int {
	for i, a := range t.Active {
		if a == p {
			return i
		}
	}
	return -1
}
