package main

import (
	"net/http"

	"presidents-game/internal/config"
	"presidents-game/internal/database"
	"presidents-game/internal/server"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	log := cfg.NewLogger()
	log.Info("Starting Presidents server...")

	db, err := database.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to open results database: %v", err)
	}
	defer db.Close()

	hub := server.NewHub(server.HubConfig{
		CodeLength:     cfg.GameCodeLength,
		MaxPlayers:     cfg.MaxPlayers,
		Rules:          cfg.Rules(),
		AllowedOrigins: cfg.AllowedOrigins,
		Results:        db,
		Logger:         log,
	})
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		server.ServeWs(hub, w, r)
	})

	fs := http.FileServer(http.Dir(cfg.StaticDir))
	mux.Handle("/", fs)

	server.HandleRoutes(mux, db, hub)

	log.WithFields(logrus.Fields{"addr": cfg.Addr, "rules": cfg.GameRules, "db": cfg.DBDriver}).Info("Listening")
	log.Fatal(http.ListenAndServe(cfg.Addr, mux))
}
