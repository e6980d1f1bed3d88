package database

import "time"

// RoundResult is one player's finish in one completed round.
type RoundResult struct {
	ID         string    `json:"id"`
	GameCode   string    `json:"game_code"`
	Round      int       `json:"round"`
	CreatedAt  time.Time `json:"created_at"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Title      string    `json:"title"`
	Position   int       `json:"position"`
}
