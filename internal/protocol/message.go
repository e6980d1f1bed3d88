package protocol

import (
	"encoding/json"

	"presidents-game/internal/shared"
)

// Message represents a generic WebSocket message structure.
type Message struct {
	Type    string          `json:"type"`              // Type of the message (e.g., "join_game", "play_card")
	Payload json.RawMessage `json:"payload,omitempty"` // Raw JSON payload, allows flexible structures
}

// Message types exchanged over the socket.
const (
	TypeCreateGame = "create_game"
	TypeJoinGame   = "join_game"
	TypePlayCard   = "play_card"
	TypePassTurn   = "pass_turn"
	TypePlayAgain  = "play_again"
	TypePing       = "ping"

	TypePong           = "pong"
	TypeGameCreated    = "game_created"
	TypeGameJoined     = "game_joined"
	TypeJoinError      = "join_error"
	TypeError          = "error"
	TypeGameState      = "game_state"
	TypePlayerSkipped  = "player_skipped"
	TypePlayerFinished = "player_finished"
	TypeGameEnd        = "game_end"
	TypeGameRestarted  = "game_restarted"
)

// --- Client -> Server Payload Structs ---

type CreateGamePayload struct {
	Name       string `json:"name"`
	NumPlayers int    `json:"num_players"`
	NumBots    int    `json:"num_bots"`
}

type JoinGamePayload struct {
	Name     string `json:"name"`
	GameCode string `json:"game_code"`
}

type PlayCardPayload struct {
	Indices []int `json:"indices"`
}

// --- Server -> Client Payload Structs ---

type GameCreatedPayload struct {
	GameCode string `json:"game_code"`
	PlayerID string `json:"player_id"`
}

type GameJoinedPayload struct {
	GameCode string `json:"game_code"`
	PlayerID string `json:"player_id"`
}

type JoinErrorPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string      `json:"message"`
	Code    shared.Code `json:"code,omitempty"`
}

// PlayerInfo is the public view of a seated player. Hand is only set for the viewer.
type PlayerInfo struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	IsBot     bool          `json:"is_bot"`
	CardCount int           `json:"card_count"`
	Position  int           `json:"position"` // Seat index
	Hand      []shared.Card `json:"hand,omitempty"`
}

type LeaderboardEntry struct {
	PlayerID string         `json:"player_id"`
	Name     string         `json:"name"`
	Titles   []shared.Title `json:"titles"`
}

// GameStatePayload is the per-viewer snapshot sent after every state change.
type GameStatePayload struct {
	GameCode            string             `json:"game_code"`
	Round               int                `json:"round"`
	Players             []PlayerInfo       `json:"players"`
	Hand                []shared.Card      `json:"hand"`
	LastPlayedCards     []shared.Card      `json:"last_played_cards"`
	LastPlayedBy        string             `json:"last_played_by,omitempty"`
	PlayedCards         []shared.Card      `json:"played_cards"`
	CurrentPlayer       string             `json:"current_player,omitempty"`
	CurrentPlayerID     string             `json:"current_player_id,omitempty"`
	ActivePlayers       []string           `json:"active_players"`
	FinishedPlayers     []shared.Standing  `json:"finished_players"`
	Started             bool               `json:"started"`
	NumPlayersConnected int                `json:"num_players_connected"`
	NumPlayersExpected  int                `json:"num_players_expected"`
	Leaderboard         []LeaderboardEntry `json:"leaderboard"`
}

type PlayerSkippedPayload struct {
	Message       string `json:"message"`
	SkippedPlayer string `json:"skipped_player"`
}

type PlayerFinishedPayload struct {
	Message        string          `json:"message"`
	FinishedPlayer shared.Standing `json:"finished_player"`
}

type GameEndPayload struct {
	Message         string            `json:"message"`
	FinishedPlayers []shared.Standing `json:"finished_players"`
}

// Helper function to create a JSON message
func NewMessage(msgType string, payload interface{}) ([]byte, error) {
	if payload == nil {
		return json.Marshal(Message{Type: msgType})
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	msg := Message{
		Type:    msgType,
		Payload: payloadBytes,
	}
	return json.Marshal(msg)
}
