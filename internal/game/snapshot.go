package game

import (
	"presidents-game/internal/protocol"
	"presidents-game/internal/shared"
)

// snapshot builds the view of the game for one viewer. Only the viewer's own
// hand is included; other players are reduced to card counts.
func (s *Session) snapshot(viewerID string) protocol.GameStatePayload {
	state := protocol.GameStatePayload{
		GameCode:            s.Code,
		Round:               s.Round,
		Players:             make([]protocol.PlayerInfo, len(s.Players)),
		Hand:                []shared.Card{},
		LastPlayedCards:     []shared.Card{},
		PlayedCards:         []shared.Card{},
		ActivePlayers:       []string{},
		FinishedPlayers:     append([]shared.Standing{}, s.Finished...),
		Started:             s.Trick != nil,
		NumPlayersConnected: len(s.Players),
		NumPlayersExpected:  s.NumPlayers,
		Leaderboard:         s.Leaderboard.payload(),
	}

	for i, p := range s.Players {
		info := protocol.PlayerInfo{
			ID:        p.ID,
			Name:      p.Name,
			IsBot:     p.IsBot(),
			CardCount: len(p.Hand),
			Position:  i,
		}
		if p.ID == viewerID {
			info.Hand = append([]shared.Card{}, p.Hand...)
			state.Hand = info.Hand
		}
		state.Players[i] = info
	}

	if s.Trick == nil {
		return state
	}

	state.LastPlayedCards = append(state.LastPlayedCards, s.Trick.LastPlayedCards...)
	if s.Trick.LastPlayedBy != nil {
		state.LastPlayedBy = s.Trick.LastPlayedBy.Name
	}
	for _, set := range s.Trick.PlayedCards {
		state.PlayedCards = append(state.PlayedCards, set...)
	}
	if current := s.Trick.CurrentPlayer(); current != nil {
		state.CurrentPlayer = current.Name
		state.CurrentPlayerID = current.ID
	}
	for _, p := range s.Trick.Active {
		state.ActivePlayers = append(state.ActivePlayers, p.Name)
	}
	return state
}
