package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"presidents-game/internal/database"
	"presidents-game/internal/protocol"
)

// HandleRoutes registers the results archive and leaderboard endpoints.
func HandleRoutes(mux *http.ServeMux, db *database.Service, hub *Hub) {
	mux.HandleFunc("GET /api/results/player/{name}", func(w http.ResponseWriter, r *http.Request) {
		GetResultsByPlayerHandler(db, w, r)
	})
	mux.HandleFunc("GET /api/results/game/{code}", func(w http.ResponseWriter, r *http.Request) {
		GetResultsByGameHandler(db, w, r)
	})
	mux.HandleFunc("GET /api/results", func(w http.ResponseWriter, r *http.Request) {
		GetResultsHandler(db, w, r)
	})
	mux.HandleFunc("GET /api/leaderboard/{code}", func(w http.ResponseWriter, r *http.Request) {
		GetLeaderboardHandler(hub, w, r)
	})

	hub.log.Info("Registered routes: /api/results, /api/results/player/{name}, /api/results/game/{code}, /api/leaderboard/{code}")
}

func GetResultsByPlayerHandler(db *database.Service, w http.ResponseWriter, r *http.Request) {
	player := r.PathValue("name")
	if player == "" {
		http.Error(w, "Player name is required", http.StatusBadRequest)
		return
	}

	results, err := db.GetByPlayer(player)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "No results found for player", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch results", http.StatusInternalServerError)
		return
	}

	writeJSON(w, results)
}

func GetResultsByGameHandler(db *database.Service, w http.ResponseWriter, r *http.Request) {
	results, err := db.GetByGame(r.PathValue("code"))
	if err != nil {
		http.Error(w, "Failed to fetch results", http.StatusInternalServerError)
		return
	}

	writeJSON(w, results)
}

func GetResultsHandler(db *database.Service, w http.ResponseWriter, r *http.Request) {
	results, err := db.GetAll()
	if err != nil {
		http.Error(w, "Failed to fetch results", http.StatusInternalServerError)
		return
	}

	writeJSON(w, results)
}

// GetLeaderboardHandler serves the live title history of a running game.
func GetLeaderboardHandler(hub *Hub, w http.ResponseWriter, r *http.Request) {
	session, err := hub.directory.Session(r.PathValue("code"))
	if err != nil {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	entries := session.Leaders()
	out := make([]protocol.LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = protocol.LeaderboardEntry{PlayerID: e.PlayerID, Name: e.Name, Titles: e.Titles}
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
