package game

import (
	"encoding/json"
	"io"
	"math/rand/v2"
	"sync"
	"testing"

	"presidents-game/internal/protocol"
	"presidents-game/internal/shared"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSender records every message sent to each client.
type captureSender struct {
	mu       sync.Mutex
	messages map[string][]protocol.Message
}

func newCaptureSender() *captureSender {
	return &captureSender{messages: make(map[string][]protocol.Message)}
}

func (c *captureSender) send(clientID string, raw []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		panic(err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages[clientID] = append(c.messages[clientID], msg)
}

func (c *captureSender) lastOfType(clientID, msgType string) *protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.messages[clientID]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == msgType {
			return &msgs[i]
		}
	}
	return nil
}

func (c *captureSender) countOfType(clientID, msgType string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.messages[clientID] {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func seededShuffle(seed uint64) func(*shared.Deck) {
	return func(d *shared.Deck) {
		d.ShuffleWith(rand.New(rand.NewPCG(seed, seed)))
	}
}

type roundEnd struct {
	code      string
	round     int
	standings []shared.Standing
}

func newTestSession(numPlayers, numBots int) (*Session, *captureSender, *[]roundEnd) {
	sender := newCaptureSender()
	ends := &[]roundEnd{}
	s := NewSession(Config{
		Code:       "TEST01",
		NumPlayers: numPlayers,
		NumBots:    numBots,
		Rules:      shared.StandardRules{},
		Sender:     sender.send,
		Logger:     quietLogger(),
		OnRoundEnd: func(code string, round int, standings []shared.Standing) {
			*ends = append(*ends, roundEnd{code: code, round: round, standings: standings})
		},
		Shuffle: seededShuffle(3),
	})
	return s, sender, ends
}

func joinHumans(t *testing.T, s *Session, n int) {
	t.Helper()
	names := []string{"A", "B", "C", "D", "E", "F"}
	for i := 0; i < n; i++ {
		require.NoError(t, s.Join("p"+string(rune('1'+i)), names[i]))
	}
}

// rig replaces the dealt hands and restarts the trick over them.
func rig(s *Session, hands ...[]shared.Card) {
	for i, h := range hands {
		s.Players[i].Hand = append([]shared.Card{}, h...)
	}
	s.Finished = []shared.Standing{}
	s.Trick = shared.NewTrick(s.Players, s.rules, s)
}

func c(r shared.Rank, suit shared.Suit) shared.Card {
	return shared.Card{Rank: r, Suit: suit}
}

func assertFullDeal(t *testing.T, s *Session) {
	t.Helper()
	seen := make(map[shared.Card]bool)
	for _, p := range s.Players {
		for i, card := range p.Hand {
			assert.False(t, seen[card], "duplicate card %s", card)
			seen[card] = true
			if i > 0 {
				assert.False(t, card.Less(p.Hand[i-1]), "hand of %s is not sorted", p.Name)
			}
		}
	}
	assert.Len(t, seen, shared.DeckSize)
}

func TestJoinStartsWhenFull(t *testing.T) {
	s, sender, _ := newTestSession(4, 0)

	joinHumans(t, s, 3)
	assert.Nil(t, s.Trick)
	lobby := sender.lastOfType("p1", protocol.TypeGameState)
	require.NotNil(t, lobby)

	assert.ErrorIs(t, s.Join("p1", "A"), shared.ErrDuplicatePlayer)
	assert.Len(t, s.Players, 3)

	require.NoError(t, s.Join("p4", "D"))
	require.NotNil(t, s.Trick)
	assert.Equal(t, 1, s.Round)
	for _, p := range s.Players {
		assert.Len(t, p.Hand, 13)
	}
	assertFullDeal(t, s)

	assert.ErrorIs(t, s.Join("p5", "E"), shared.ErrSessionFull)
}

func TestUnevenDealDiffersByAtMostOne(t *testing.T) {
	s, _, _ := newTestSession(5, 0)
	joinHumans(t, s, 5)

	for i, p := range s.Players {
		want := 10
		if i < 2 {
			want = 11
		}
		assert.Len(t, p.Hand, want, "seat %d", i)
	}
	assertFullDeal(t, s)
}

func TestJoinSeatsBots(t *testing.T) {
	s, _, _ := newTestSession(4, 2)
	joinHumans(t, s, 1)
	assert.Nil(t, s.Trick)

	require.NoError(t, s.Join("p2", "B"))

	require.Len(t, s.Players, 4)
	assert.Equal(t, "bot-1", s.Players[2].ID)
	assert.Equal(t, "Bot 2", s.Players[3].Name)
	assert.True(t, s.Players[3].IsBot())
	require.NotNil(t, s.Trick)
	assert.Equal(t, "p1", s.Trick.CurrentPlayer().ID)

	assert.ErrorIs(t, s.Join("p3", "C"), shared.ErrSessionFull)
}

func TestPlayBeforeStart(t *testing.T) {
	s, _, _ := newTestSession(3, 0)
	joinHumans(t, s, 1)

	_, err := s.Play("p1", []int{0})
	assert.ErrorIs(t, err, shared.ErrGameNotStarted)
	_, err = s.Pass("nobody")
	assert.ErrorIs(t, err, shared.ErrPlayerNotFound)
}

func TestOutOfTurnActionIsRejected(t *testing.T) {
	s, _, _ := newTestSession(3, 0)
	joinHumans(t, s, 3)
	hand := append([]shared.Card{}, s.Players[1].Hand...)

	_, err := s.Play("p2", []int{0})
	assert.ErrorIs(t, err, shared.ErrNotYourTurn)
	_, err = s.Pass("p3")
	assert.ErrorIs(t, err, shared.ErrNotYourTurn)

	assert.Equal(t, hand, s.Players[1].Hand)
	assert.Equal(t, "p1", s.Trick.CurrentPlayer().ID)
	assert.Empty(t, s.Trick.PlayedCards)
}

func TestFourPlayerTitles(t *testing.T) {
	s, sender, ends := newTestSession(4, 0)
	joinHumans(t, s, 4)
	rig(s,
		[]shared.Card{c(shared.Three, shared.Hearts)},
		[]shared.Card{c(shared.Four, shared.Hearts)},
		[]shared.Card{c(shared.Five, shared.Hearts), c(shared.King, shared.Hearts)},
		[]shared.Card{c(shared.Six, shared.Hearts), c(shared.Ace, shared.Hearts)},
	)

	outcome, err := s.Play("p1", []int{0})
	require.NoError(t, err)
	require.NotNil(t, outcome.Standing)
	assert.Equal(t, shared.President, outcome.Standing.Title)
	assert.Equal(t, "p2", outcome.Next.ID)

	outcome, err = s.Play("p2", []int{0})
	require.NoError(t, err)
	assert.Equal(t, shared.VicePresident, outcome.Standing.Title)

	_, err = s.Play("p3", []int{0})
	require.NoError(t, err)
	_, err = s.Play("p4", []int{0})
	require.NoError(t, err)
	assert.Empty(t, ends, "titles are only final once the round ends")

	outcome, err = s.Play("p3", []int{0})
	require.NoError(t, err)
	assert.Equal(t, shared.ActionGameEnd, outcome.Action)

	want := []shared.Standing{
		{ID: "p1", Name: "A", Title: shared.President, Position: 1},
		{ID: "p2", Name: "B", Title: shared.VicePresident, Position: 2},
		{ID: "p3", Name: "C", Title: shared.ViceScum, Position: 3},
		{ID: "p4", Name: "D", Title: shared.Scum, Position: 4},
	}
	assert.Equal(t, want, s.Finished)
	assert.Equal(t, []shared.Title{shared.Scum}, s.Leaderboard.Titles("p4"))

	require.Len(t, *ends, 1)
	assert.Equal(t, "TEST01", (*ends)[0].code)
	assert.Equal(t, 1, (*ends)[0].round)
	assert.Equal(t, want, (*ends)[0].standings)

	end := sender.lastOfType("p2", protocol.TypeGameEnd)
	require.NotNil(t, end)
	var payload protocol.GameEndPayload
	require.NoError(t, json.Unmarshal(end.Payload, &payload))
	assert.Equal(t, want, payload.FinishedPlayers)
	assert.Equal(t, 3, sender.countOfType("p4", protocol.TypePlayerFinished))
}

func TestFivePlayerTitlesIncludeNeutral(t *testing.T) {
	s, _, _ := newTestSession(5, 0)
	joinHumans(t, s, 5)
	rig(s,
		[]shared.Card{c(shared.Three, shared.Hearts)},
		[]shared.Card{c(shared.Four, shared.Hearts)},
		[]shared.Card{c(shared.Five, shared.Hearts)},
		[]shared.Card{c(shared.Six, shared.Hearts), c(shared.King, shared.Hearts)},
		[]shared.Card{c(shared.Seven, shared.Hearts), c(shared.Ace, shared.Hearts)},
	)

	for _, id := range []string{"p1", "p2", "p3", "p4", "p5", "p4"} {
		_, err := s.Play(id, []int{0})
		require.NoError(t, err, "play by %s", id)
	}

	titles := make([]shared.Title, len(s.Finished))
	for i, st := range s.Finished {
		titles[i] = st.Title
	}
	assert.Equal(t, []shared.Title{shared.President, shared.VicePresident, shared.Neutral, shared.ViceScum, shared.Scum}, titles)
	assert.Equal(t, "p5", s.Finished[4].ID)
}

func TestSkipEventIsBroadcast(t *testing.T) {
	s, sender, _ := newTestSession(3, 0)
	joinHumans(t, s, 3)
	rig(s,
		[]shared.Card{c(shared.Five, shared.Hearts), c(shared.Nine, shared.Hearts)},
		[]shared.Card{c(shared.Five, shared.Spades), c(shared.Nine, shared.Spades)},
		[]shared.Card{c(shared.Six, shared.Clubs), c(shared.Nine, shared.Clubs)},
	)

	_, err := s.Play("p1", []int{0})
	require.NoError(t, err)
	outcome, err := s.Play("p2", []int{0})
	require.NoError(t, err)
	assert.Equal(t, "p3", outcome.Skipped.ID)
	assert.Equal(t, "p1", outcome.Next.ID)

	msg := sender.lastOfType("p3", protocol.TypePlayerSkipped)
	require.NotNil(t, msg)
	var payload protocol.PlayerSkippedPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "C", payload.SkippedPlayer)
}

func TestSnapshotHidesOtherHands(t *testing.T) {
	s, sender, _ := newTestSession(3, 0)
	joinHumans(t, s, 3)

	msg := sender.lastOfType("p2", protocol.TypeGameState)
	require.NotNil(t, msg)
	var state protocol.GameStatePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &state))

	assert.True(t, state.Started)
	assert.Equal(t, "A", state.CurrentPlayer)
	assert.Equal(t, []string{"A", "B", "C"}, state.ActivePlayers)
	assert.Equal(t, s.Players[1].Hand, state.Hand)
	for _, p := range state.Players {
		if p.ID == "p2" {
			assert.Equal(t, s.Players[1].Hand, p.Hand)
			continue
		}
		assert.Nil(t, p.Hand, "hand of %s leaked", p.Name)
		assert.Greater(t, p.CardCount, 0)
	}
}

func TestVoteReplayKeepsLeaderboard(t *testing.T) {
	s, sender, _ := newTestSession(2, 0)
	joinHumans(t, s, 2)

	_, err := s.VoteReplay("p1")
	assert.ErrorIs(t, err, shared.ErrRoundInProgress)

	rig(s,
		[]shared.Card{c(shared.Three, shared.Hearts)},
		[]shared.Card{c(shared.Four, shared.Hearts), c(shared.Five, shared.Hearts)},
	)
	outcome, err := s.Play("p1", []int{0})
	require.NoError(t, err)
	require.Equal(t, shared.ActionGameEnd, outcome.Action)
	assert.Equal(t, shared.Scum, s.Finished[1].Title)

	restarted, err := s.VoteReplay("p1")
	require.NoError(t, err)
	assert.False(t, restarted)
	assert.Equal(t, 1, s.Round)

	restarted, err = s.VoteReplay("p2")
	require.NoError(t, err)
	assert.True(t, restarted)

	assert.Equal(t, 2, s.Round)
	assert.Empty(t, s.Finished)
	assert.Empty(t, s.playAgainVotes)
	require.NotNil(t, s.Trick)
	assert.Empty(t, s.Trick.PlayedCards)
	assert.Nil(t, s.Trick.LastPlayedCards)
	assert.Len(t, s.Trick.Active, 2)
	assertFullDeal(t, s)

	assert.Equal(t, []shared.Title{shared.President}, s.Leaderboard.Titles("p1"))
	assert.Equal(t, []shared.Title{shared.Scum}, s.Leaderboard.Titles("p2"))
	assert.NotNil(t, sender.lastOfType("p2", protocol.TypeGameRestarted))
}

func TestBotsPlayOutRound(t *testing.T) {
	s, _, ends := newTestSession(4, 4)
	s.SeatBots()

	require.NotNil(t, s.Trick)
	assert.Empty(t, s.Trick.Active)
	require.Len(t, s.Finished, 4)
	require.Len(t, *ends, 1)

	played := 0
	for _, set := range s.Trick.PlayedCards {
		played += len(set)
	}
	held := 0
	for _, p := range s.Players {
		held += len(p.Hand)
	}
	assert.Equal(t, shared.DeckSize, played+held)

	require.NoError(t, s.Replay())
	assert.Equal(t, 2, s.Round)
	require.Len(t, *ends, 2)
	for _, e := range s.Leaders() {
		assert.Len(t, e.Titles, 2)
	}
}

func TestHumanAgainstBots(t *testing.T) {
	s, sender, _ := newTestSession(4, 3)
	joinHumans(t, s, 1)
	require.NotNil(t, s.Trick)

	for i := 0; len(s.Trick.Active) > 0; i++ {
		require.Less(t, i, 500, "round did not end")
		require.Equal(t, "p1", s.Trick.CurrentPlayer().ID)
		_, err := s.Pass("p1")
		require.NoError(t, err)
	}

	require.Len(t, s.Finished, 4)
	last := s.Finished[3]
	assert.Equal(t, "p1", last.ID)
	assert.Equal(t, shared.Scum, last.Title)
	assert.NotNil(t, sender.lastOfType("p1", protocol.TypeGameEnd))

	seen := make(map[shared.Card]bool)
	for _, set := range s.Trick.PlayedCards {
		for _, card := range set {
			seen[card] = true
		}
	}
	for _, p := range s.Players {
		for _, card := range p.Hand {
			assert.False(t, seen[card])
			seen[card] = true
		}
	}
	assert.Len(t, seen, shared.DeckSize)
}

func TestDisconnectCountsRemainingHumans(t *testing.T) {
	s, _, _ := newTestSession(4, 2)
	joinHumans(t, s, 2)

	require.Equal(t, "p1", s.Trick.CurrentPlayer().ID)
	assert.Equal(t, 1, s.Disconnect("p1"))
	assert.True(t, s.Players[0].IsBot(), "a bot takes over the seat")
	assert.Equal(t, "p2", s.Trick.CurrentPlayer().ID, "the taken-over seat plays at once")
	assert.Len(t, s.Players, 4)

	assert.Equal(t, 0, s.Disconnect("p2"))
}

func TestDisconnectInLobbyFreesSeat(t *testing.T) {
	s, sender, _ := newTestSession(3, 0)
	joinHumans(t, s, 2)

	assert.Equal(t, 1, s.Disconnect("p1"))
	require.Len(t, s.Players, 1)
	assert.Equal(t, "p2", s.Players[0].ID)

	msg := sender.lastOfType("p2", protocol.TypeGameState)
	require.NotNil(t, msg)
	var state protocol.GameStatePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.Equal(t, 1, state.NumPlayersConnected)

	require.NoError(t, s.Join("p3", "C"))
	require.NoError(t, s.Join("p4", "D"))
	assert.NotNil(t, s.Trick)
}

func TestAssignFinalTitles(t *testing.T) {
	build := func(n int) []shared.Standing {
		out := make([]shared.Standing, n)
		for i := range out {
			out[i] = shared.Standing{Position: i + 1, Title: titleForPosition(i + 1)}
		}
		// The last finisher is closed out by the session without a provisional title.
		out[n-1].Title = ""
		return out
	}

	tests := []struct {
		n    int
		want []shared.Title
	}{
		{n: 2, want: []shared.Title{shared.President, shared.Scum}},
		{n: 3, want: []shared.Title{shared.President, shared.VicePresident, shared.Scum}},
		{n: 4, want: []shared.Title{shared.President, shared.VicePresident, shared.ViceScum, shared.Scum}},
		{n: 6, want: []shared.Title{shared.President, shared.VicePresident, shared.Neutral, shared.Neutral, shared.ViceScum, shared.Scum}},
	}
	for _, tt := range tests {
		standings := build(tt.n)
		assignFinalTitles(standings)
		got := make([]shared.Title, len(standings))
		for i, s := range standings {
			got[i] = s.Title
		}
		assert.Equal(t, tt.want, got, "%d players", tt.n)
	}
}

func TestActionObserverSeesEveryAction(t *testing.T) {
	var plays, passes int
	s := NewSession(Config{
		Code:       "OBS001",
		NumPlayers: 3,
		NumBots:    3,
		Logger:     quietLogger(),
		Shuffle:    seededShuffle(9),
		OnAction: func(actor *shared.Player, played []shared.Card, outcome shared.Outcome) {
			if played == nil {
				passes++
				return
			}
			plays++
		},
	})
	s.SeatBots()

	require.Len(t, s.Finished, 3)
	assert.Equal(t, len(s.Trick.PlayedCards), plays)
	assert.Greater(t, passes, 0)
}

func TestDisconnectAfterVotesRestarts(t *testing.T) {
	s, sender, _ := newTestSession(3, 0)
	joinHumans(t, s, 3)
	rig(s,
		[]shared.Card{c(shared.Three, shared.Hearts)},
		[]shared.Card{c(shared.Four, shared.Hearts)},
		[]shared.Card{c(shared.Five, shared.Hearts), c(shared.Six, shared.Hearts)},
	)
	_, err := s.Play("p1", []int{0})
	require.NoError(t, err)
	outcome, err := s.Play("p2", []int{0})
	require.NoError(t, err)
	require.Equal(t, shared.ActionGameEnd, outcome.Action)

	for _, id := range []string{"p1", "p2"} {
		restarted, err := s.VoteReplay(id)
		require.NoError(t, err)
		assert.False(t, restarted)
	}

	assert.Equal(t, 2, s.Disconnect("p3"))
	assert.Equal(t, 2, s.Round, "the remaining votes are enough once p3 is gone")
	assert.Len(t, s.Trick.Active, 3)
	assert.Empty(t, s.playAgainVotes)
	assert.NotNil(t, sender.lastOfType("p1", protocol.TypeGameRestarted))
}

func TestDisconnectAfterRoundWaitsForVotes(t *testing.T) {
	s, _, _ := newTestSession(3, 0)
	joinHumans(t, s, 3)
	rig(s,
		[]shared.Card{c(shared.Three, shared.Hearts)},
		[]shared.Card{c(shared.Four, shared.Hearts)},
		[]shared.Card{c(shared.Five, shared.Hearts), c(shared.Six, shared.Hearts)},
	)
	_, err := s.Play("p1", []int{0})
	require.NoError(t, err)
	_, err = s.Play("p2", []int{0})
	require.NoError(t, err)

	_, err = s.VoteReplay("p1")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Disconnect("p3"))
	assert.Equal(t, 1, s.Round)

	restarted, err := s.VoteReplay("p2")
	require.NoError(t, err)
	assert.True(t, restarted)
	assert.Equal(t, 2, s.Round)
}

func TestConcurrentActionsOnOneSession(t *testing.T) {
	s, _, _ := newTestSession(4, 0)
	joinHumans(t, s, 4)

	allowed := map[shared.Code]bool{
		shared.CodeNotYourTurn:     true,
		shared.CodeInvalidMove:     true,
		shared.CodeConsecutivePlay: true,
		shared.CodeRoundOver:       true,
		shared.CodeBadSelection:    true,
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		id := "p" + string(rune('1'+i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 300; j++ {
				var err error
				if j%3 == 0 {
					_, err = s.Pass(id)
				} else {
					_, err = s.Play(id, []int{0})
				}
				if err != nil {
					assert.True(t, allowed[shared.CodeOf(err)], "unexpected error: %v", err)
				}

				state := s.Snapshot(id)
				if state.CurrentPlayer != "" {
					assert.Contains(t, state.ActivePlayers, state.CurrentPlayer)
				}
				held := len(state.Hand)
				for _, p := range state.Players {
					if p.ID != id {
						held += p.CardCount
					}
				}
				assert.Equal(t, shared.DeckSize, held+len(state.PlayedCards))
			}
		}()
	}
	wg.Wait()

	seen := make(map[shared.Card]bool)
	for _, set := range s.Trick.PlayedCards {
		for _, card := range set {
			seen[card] = true
		}
	}
	for _, p := range s.Players {
		for _, card := range p.Hand {
			assert.False(t, seen[card], "card %s is both held and played", card)
			seen[card] = true
		}
	}
	assert.Len(t, seen, shared.DeckSize)
	if current := s.Trick.CurrentPlayer(); current != nil {
		assert.True(t, s.Trick.IsActive(current))
	}
}

func TestSessionLogsCarrySessionID(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewSession(Config{Code: "LOG001", NumPlayers: 2, Logger: logger})

	require.NoError(t, s.Join("p1", "A"))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, s.ID, entry.Data["session"])
	assert.Equal(t, "LOG001", entry.Data["game"])
}
