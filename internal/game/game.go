package game

import (
	"fmt"
	"sync"

	"presidents-game/internal/protocol"
	"presidents-game/internal/shared"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MessageSender defines the function signature for sending messages back to clients.
// The Hub will provide an implementation of this. It must not block.
type MessageSender func(clientID string, message []byte)

// RoundEndFunc is called with the final standings of every completed round.
type RoundEndFunc func(gameCode string, round int, standings []shared.Standing)

// ActionFunc observes every applied action. played is nil for a pass.
type ActionFunc func(actor *shared.Player, played []shared.Card, outcome shared.Outcome)

// Config holds the settings for a new Session.
type Config struct {
	Code       string
	NumPlayers int
	NumBots    int
	Rules      shared.Rules
	Sender     MessageSender
	Logger     logrus.FieldLogger
	OnRoundEnd RoundEndFunc
	OnAction   ActionFunc
	Shuffle    func(*shared.Deck) // defaults to a uniform random shuffle
}

// Session orchestrates the rounds played by one seated group. All exported
// methods serialize on the session lock.
type Session struct {
	ID          string
	Code        string
	NumPlayers  int
	NumBots     int
	Players     []*shared.Player
	Trick       *shared.Trick
	Finished    []shared.Standing
	Leaderboard *Leaderboard
	Round       int

	playAgainVotes map[string]bool
	connected      map[string]bool
	rules          shared.Rules
	mu             sync.Mutex
	sendMessage    MessageSender
	onRoundEnd     RoundEndFunc
	onAction       ActionFunc
	shuffle        func(*shared.Deck)
	log            logrus.FieldLogger
}

// NewSession creates an empty session waiting for players.
func NewSession(cfg Config) *Session {
	if cfg.Rules == nil {
		cfg.Rules = shared.StandardRules{}
	}
	if cfg.Shuffle == nil {
		cfg.Shuffle = (*shared.Deck).Shuffle
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	id := uuid.NewString()
	return &Session{
		ID:             id,
		Code:           cfg.Code,
		NumPlayers:     cfg.NumPlayers,
		NumBots:        cfg.NumBots,
		Players:        []*shared.Player{},
		Finished:       []shared.Standing{},
		Leaderboard:    NewLeaderboard(),
		playAgainVotes: make(map[string]bool),
		connected:      make(map[string]bool),
		rules:          cfg.Rules,
		sendMessage:    cfg.Sender,
		onRoundEnd:     cfg.OnRoundEnd,
		onAction:       cfg.OnAction,
		shuffle:        cfg.Shuffle,
		log:            cfg.Logger.WithFields(logrus.Fields{"game": cfg.Code, "session": id}),
	}
}

// Join seats a human player. The round starts as soon as the last seat is filled.
func (s *Session) Join(playerID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playerByID(playerID) != nil {
		s.log.WithField("player", playerID).Info("Player is already in the game")
		return shared.ErrDuplicatePlayer
	}
	if len(s.Players) >= s.NumPlayers || s.humanCount() >= s.NumPlayers-s.NumBots {
		return shared.ErrSessionFull
	}

	s.Players = append(s.Players, shared.NewPlayer(playerID, name))
	s.connected[playerID] = true
	s.log.WithField("player", playerID).Infof("%s joined (%d/%d)", name, len(s.Players), s.NumPlayers)

	if s.humanCount() == s.NumPlayers-s.NumBots {
		s.seatBots()
	}
	if s.Trick == nil {
		s.broadcastGameState()
	}
	return nil
}

// SeatBots fills every remaining seat with a bot and starts the round.
func (s *Session) SeatBots() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seatBots()
}

// Play applies a play action for the given player.
func (s *Session) Play(playerID string, indices []int) (shared.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.actor(playerID)
	if err != nil {
		return shared.Outcome{}, err
	}
	outcome, err := s.Trick.PlayCard(player, indices)
	if err != nil {
		s.log.WithFields(logrus.Fields{"player": playerID, "indices": indices}).Debugf("Play rejected: %v", err)
		return shared.Outcome{}, err
	}

	s.announce(player, s.Trick.LastPlayedCards, outcome)
	s.runBots()
	return outcome, nil
}

// Pass applies a pass action for the given player.
func (s *Session) Pass(playerID string) (shared.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.actor(playerID)
	if err != nil {
		return shared.Outcome{}, err
	}
	outcome, err := s.Trick.PassTurn(player)
	if err != nil {
		s.log.WithField("player", playerID).Debugf("Pass rejected: %v", err)
		return shared.Outcome{}, err
	}

	s.announce(player, nil, outcome)
	s.runBots()
	return outcome, nil
}

// VoteReplay records a vote to play again once the round is over. When every
// human has voted the session resets and a new round starts. Bots always agree.
func (s *Session) VoteReplay(playerID string) (restarted bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playerByID(playerID) == nil {
		return false, shared.ErrPlayerNotFound
	}
	if s.Trick == nil {
		return false, shared.ErrGameNotStarted
	}
	if len(s.Trick.Active) > 0 {
		return false, shared.ErrRoundInProgress
	}

	s.playAgainVotes[playerID] = true
	if !s.allHumansVoted() {
		s.log.WithField("player", playerID).Infof("Replay vote recorded (%d votes)", len(s.playAgainVotes))
		return false, nil
	}

	s.replay()
	return true, nil
}

// Replay resets a finished round and deals a new one without waiting for votes.
func (s *Session) Replay() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Trick == nil {
		return shared.ErrGameNotStarted
	}
	if len(s.Trick.Active) > 0 {
		return shared.ErrRoundInProgress
	}
	s.replay()
	return nil
}

// Snapshot returns the state as seen by viewerID.
func (s *Session) Snapshot(viewerID string) protocol.GameStatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(viewerID)
}

// Disconnect marks a human as gone and returns how many humans remain connected.
// A lobby seat is freed; a seat in a dealt round is handed to a bot.
func (s *Session) Disconnect(playerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.connected, playerID)
	delete(s.playAgainVotes, playerID)
	log := s.log.WithField("player", playerID)
	log.Infof("Player disconnected, %d still connected", len(s.connected))

	player := s.playerByID(playerID)
	if player == nil || player.IsBot() {
		return len(s.connected)
	}
	if s.Trick == nil {
		s.removePlayer(player)
		s.broadcastGameState()
		return len(s.connected)
	}

	player.Strategy = shared.LowestSingleStrategy{}
	log.Infof("%s is now played by a bot", player.Name)
	if len(s.connected) == 0 {
		return len(s.connected)
	}
	if len(s.Trick.Active) == 0 && s.allHumansVoted() {
		s.replay()
		return len(s.connected)
	}
	s.broadcastGameState()
	s.runBots()
	return len(s.connected)
}

// Leaders returns the cross-round leaderboard.
func (s *Session) Leaders() []LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Leaderboard.Entries()
}

// --- Round lifecycle (lock held) ---

func (s *Session) seatBots() {
	for i := 1; len(s.Players) < s.NumPlayers; i++ {
		bot := shared.NewBot(fmt.Sprintf("bot-%d", i), fmt.Sprintf("Bot %d", i), nil)
		s.Players = append(s.Players, bot)
	}
	if s.Trick == nil && len(s.Players) == s.NumPlayers {
		s.start()
	}
}

// start deals a fresh shuffled deck round-robin to exhaustion and builds the trick.
func (s *Session) start() {
	deck := shared.NewDeck()
	s.shuffle(deck)

	for _, p := range s.Players {
		p.Hand = []shared.Card{}
	}
	for seat := 0; deck.Len() > 0; seat = (seat + 1) % len(s.Players) {
		dealt, err := deck.Deal(1)
		if err != nil {
			s.log.Errorf("Dealing failed: %v", err)
			return
		}
		s.Players[seat].ReceiveCard(dealt[0])
	}
	for _, p := range s.Players {
		p.SortHand()
	}

	s.Trick = shared.NewTrick(s.Players, s.rules, s)
	s.Round++
	s.log.WithField("round", s.Round).Infof("Round started. %s's turn.", s.Trick.CurrentPlayer().Name)

	s.broadcastGameState()
	s.runBots()
}

// PlayerFinished implements shared.FinishObserver. It records the finisher,
// drops them from the trick, and closes the round when one or no players remain.
func (s *Session) PlayerFinished(p *shared.Player) shared.Standing {
	standing := s.recordFinish(p, titleForPosition(len(s.Finished)+1))
	s.Trick.RemoveActivePlayer(p)

	if len(s.Trick.Active) == 1 {
		last := s.Trick.Active[0]
		s.recordFinish(last, "")
		s.Trick.RemoveActivePlayer(last)
	}
	if len(s.Trick.Active) == 0 {
		s.handleGameEnd()
	}
	return standing
}

func (s *Session) recordFinish(p *shared.Player, title shared.Title) shared.Standing {
	standing := shared.Standing{
		ID:       p.ID,
		Name:     p.Name,
		Title:    title,
		Position: len(s.Finished) + 1,
	}
	s.Finished = append(s.Finished, standing)
	s.log.WithFields(logrus.Fields{"player": p.ID, "round": s.Round}).Infof("%s finished in position %d", p.Name, standing.Position)
	return standing
}

func (s *Session) handleGameEnd() {
	assignFinalTitles(s.Finished)
	s.Leaderboard.Record(s.Finished)
	s.log.WithField("round", s.Round).Info("Round ended")

	if s.onRoundEnd != nil {
		standings := make([]shared.Standing, len(s.Finished))
		copy(standings, s.Finished)
		s.onRoundEnd(s.Code, s.Round, standings)
	}
}

// resetGame clears round state. Players and the leaderboard are kept.
func (s *Session) resetGame() {
	s.Trick = nil
	s.playAgainVotes = make(map[string]bool)
	s.Finished = []shared.Standing{}
}

func (s *Session) replay() {
	s.resetGame()
	s.start()
	msg, _ := protocol.NewMessage(protocol.TypeGameRestarted, nil)
	s.broadcast(msg)
}

// runBots plays consecutive bot turns until a human is up or the round ends.
func (s *Session) runBots() {
	limit := shared.DeckSize * (len(s.Players) + 1) * 2
	for i := 0; i < limit; i++ {
		if s.Trick == nil {
			return
		}
		bot := s.Trick.CurrentPlayer()
		if bot == nil || !bot.IsBot() {
			return
		}

		move, _ := bot.MakeMove(s.Trick)
		var outcome shared.Outcome
		var played []shared.Card
		var err error
		if !move.Pass {
			outcome, err = s.Trick.PlayCard(bot, move.Indices)
			if err != nil {
				s.log.WithField("player", bot.ID).Debugf("Bot play rejected, passing: %v", err)
				move.Pass = true
			} else {
				played = s.Trick.LastPlayedCards
			}
		}
		if move.Pass {
			outcome, err = s.Trick.PassTurn(bot)
		}
		if err != nil {
			s.log.WithField("player", bot.ID).Errorf("Bot could not act: %v", err)
			return
		}
		s.announce(bot, played, outcome)
	}
	s.log.Warn("Bot turn limit reached")
}

// actor resolves the acting player for a play or pass.
func (s *Session) actor(playerID string) (*shared.Player, error) {
	player := s.playerByID(playerID)
	if player == nil {
		return nil, shared.ErrPlayerNotFound
	}
	if s.Trick == nil {
		return nil, shared.ErrGameNotStarted
	}
	return player, nil
}

func (s *Session) playerByID(id string) *shared.Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) removePlayer(p *shared.Player) {
	for i, seated := range s.Players {
		if seated == p {
			s.Players = append(s.Players[:i:i], s.Players[i+1:]...)
			return
		}
	}
}

// allHumansVoted reports whether every human still seated wants another round.
// Bots always agree.
func (s *Session) allHumansVoted() bool {
	for _, p := range s.Players {
		if !p.IsBot() && !s.playAgainVotes[p.ID] {
			return false
		}
	}
	return true
}

func (s *Session) humanCount() int {
	n := 0
	for _, p := range s.Players {
		if !p.IsBot() {
			n++
		}
	}
	return n
}

func (s *Session) standingOf(id string) (shared.Standing, bool) {
	for _, st := range s.Finished {
		if st.ID == id {
			return st, true
		}
	}
	return shared.Standing{}, false
}

// --- Messaging Helpers (lock held) ---

// announce broadcasts the new state and the events an outcome carries.
func (s *Session) announce(actor *shared.Player, played []shared.Card, outcome shared.Outcome) {
	if s.onAction != nil {
		s.onAction(actor, append([]shared.Card(nil), played...), outcome)
	}
	s.broadcastGameState()

	if outcome.Skipped != nil {
		msg, _ := protocol.NewMessage(protocol.TypePlayerSkipped, protocol.PlayerSkippedPayload{
			Message:       fmt.Sprintf("%s has been skipped!", outcome.Skipped.Name),
			SkippedPlayer: outcome.Skipped.Name,
		})
		s.broadcast(msg)
	}

	if outcome.Finished != nil {
		standing, _ := s.standingOf(outcome.Finished.ID)
		text := fmt.Sprintf("%s has finished!", standing.Name)
		if standing.Title != "" {
			text = fmt.Sprintf("%s has finished and is the %s!", standing.Name, standing.Title)
		}
		msg, _ := protocol.NewMessage(protocol.TypePlayerFinished, protocol.PlayerFinishedPayload{
			Message:        text,
			FinishedPlayer: standing,
		})
		s.broadcast(msg)
	}

	if outcome.Action == shared.ActionGameEnd {
		msg, _ := protocol.NewMessage(protocol.TypeGameEnd, protocol.GameEndPayload{
			Message:         "The game has ended!",
			FinishedPlayers: append([]shared.Standing{}, s.Finished...),
		})
		s.broadcast(msg)
	}

	s.log.WithFields(logrus.Fields{"player": actor.ID, "action": outcome.Action}).Debug("Action applied")
}

// broadcast sends a message to every human player in the game.
func (s *Session) broadcast(message []byte) {
	for _, p := range s.Players {
		if !p.IsBot() {
			s.sendToPlayer(p.ID, message)
		}
	}
}

// sendToPlayer sends a message to a specific player by ID.
func (s *Session) sendToPlayer(playerID string, message []byte) {
	if s.sendMessage == nil {
		return
	}
	s.sendMessage(playerID, message)
}

// broadcastGameState sends each human their own view of the game.
func (s *Session) broadcastGameState() {
	for _, p := range s.Players {
		if p.IsBot() {
			continue
		}
		msg, err := protocol.NewMessage(protocol.TypeGameState, s.snapshot(p.ID))
		if err != nil {
			s.log.WithField("player", p.ID).Errorf("Error creating game_state message: %v", err)
			continue
		}
		s.sendToPlayer(p.ID, msg)
	}
}
