package game

import (
	"presidents-game/internal/protocol"
	"presidents-game/internal/shared"
)

// LeaderboardEntry is one player's title history across rounds.
type LeaderboardEntry struct {
	PlayerID string
	Name     string
	Titles   []shared.Title
}

// Leaderboard accumulates titles per player across rounds. It survives resets.
type Leaderboard struct {
	entries map[string]*LeaderboardEntry
	order   []string
}

// NewLeaderboard creates an empty leaderboard.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{entries: make(map[string]*LeaderboardEntry)}
}

// Record appends each standing's title to that player's history.
func (l *Leaderboard) Record(standings []shared.Standing) {
	for _, s := range standings {
		entry, ok := l.entries[s.ID]
		if !ok {
			entry = &LeaderboardEntry{PlayerID: s.ID, Name: s.Name}
			l.entries[s.ID] = entry
			l.order = append(l.order, s.ID)
		}
		entry.Titles = append(entry.Titles, s.Title)
	}
}

// Titles returns the title history of a player.
func (l *Leaderboard) Titles(playerID string) []shared.Title {
	entry, ok := l.entries[playerID]
	if !ok {
		return nil
	}
	return append([]shared.Title{}, entry.Titles...)
}

// Entries returns every entry in first-recorded order.
func (l *Leaderboard) Entries() []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(l.order))
	for _, id := range l.order {
		e := l.entries[id]
		out = append(out, LeaderboardEntry{
			PlayerID: e.PlayerID,
			Name:     e.Name,
			Titles:   append([]shared.Title{}, e.Titles...),
		})
	}
	return out
}

func (l *Leaderboard) payload() []protocol.LeaderboardEntry {
	entries := l.Entries()
	out := make([]protocol.LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = protocol.LeaderboardEntry{PlayerID: e.PlayerID, Name: e.Name, Titles: e.Titles}
	}
	return out
}
