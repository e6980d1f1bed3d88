package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"presidents-game/internal/game"
	"presidents-game/internal/protocol"
	"presidents-game/internal/shared"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const defaultNumPlayers = 4

// ResultStore archives the standings of completed rounds.
type ResultStore interface {
	InsertRound(gameCode string, round int, standings []shared.Standing) error
}

// HubConfig holds the settings for a new Hub.
type HubConfig struct {
	CodeLength     int
	MaxPlayers     int
	Rules          shared.Rules
	AllowedOrigins []string
	Results        ResultStore
	Logger         logrus.FieldLogger
}

// Hub manages active WebSocket connections and routes their messages to game sessions.
type Hub struct {
	clients      map[*Client]bool
	clientsByID  map[string]*Client
	clientToGame map[*Client]string // Map client to game code
	directory    *game.Directory
	results      ResultStore
	register     chan *Client
	unregister   chan *Client
	clientMu     sync.RWMutex
	upgrader     websocket.Upgrader
	log          logrus.FieldLogger
	archiveWG    sync.WaitGroup
}

// NewHub creates a new Hub instance.
func NewHub(cfg HubConfig) *Hub {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	h := &Hub{
		clients:      make(map[*Client]bool),
		clientsByID:  make(map[string]*Client),
		clientToGame: make(map[*Client]string),
		results:      cfg.Results,
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		upgrader:     newUpgrader(cfg.AllowedOrigins),
		log:          cfg.Logger,
	}
	h.directory = game.NewDirectory(game.DirectoryConfig{
		CodeLength: cfg.CodeLength,
		MaxPlayers: cfg.MaxPlayers,
		Rules:      cfg.Rules,
		Sender:     h.sendMessageToClient,
		Logger:     cfg.Logger,
		OnRoundEnd: h.archiveRound,
	})
	return h
}

// Directory exposes the live sessions.
func (h *Hub) Directory() *game.Directory {
	return h.directory
}

// Run starts the Hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clientMu.Lock()
			h.clients[client] = true
			h.clientsByID[client.ID] = client
			h.clientMu.Unlock()
			h.log.WithField("client", client.ID).Infof("Client connected from %s", client.conn.RemoteAddr())

		case client := <-h.unregister:
			h.clientMu.Lock()
			gameCode, inGame := h.clientToGame[client]
			_, clientExists := h.clients[client]
			if clientExists {
				delete(h.clients, client)
				delete(h.clientsByID, client.ID)
				delete(h.clientToGame, client)
				close(client.send)
			}
			h.clientMu.Unlock()

			if !clientExists {
				continue
			}
			h.log.WithField("client", client.ID).Infof("Client %s disconnected", client.Name)

			if inGame {
				h.leaveGame(client, gameCode)
			}
		}
	}
}

// leaveGame notifies the session and drops it once no human remains connected.
func (h *Hub) leaveGame(client *Client, gameCode string) {
	session, err := h.directory.Session(gameCode)
	if err != nil {
		h.log.WithField("client", client.ID).Warnf("Client was mapped to non-existent game %s", gameCode)
		return
	}
	if remaining := session.Disconnect(client.ID); remaining == 0 {
		h.directory.Remove(gameCode)
	}
}

// handleMessage processes a message received from a client. It runs on the
// client's read goroutine; sessions serialize their own actions.
func (h *Hub) handleMessage(client *Client, msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeCreateGame:
		h.handleCreateGame(client, msg)
	case protocol.TypeJoinGame:
		h.handleJoinGame(client, msg)
	case protocol.TypePlayCard, protocol.TypePassTurn, protocol.TypePlayAgain:
		h.handleGameAction(client, msg)
	case protocol.TypePing:
		pongMsg, _ := protocol.NewMessage(protocol.TypePong, nil)
		h.sendMessageToClient(client.ID, pongMsg)
	default:
		h.log.WithField("client", client.ID).Warnf("Received unknown message type '%s'", msg.Type)
		h.sendErrorToClient(client, shared.NewError(shared.CodeInvalidArguments, "Unknown message type."))
	}
}

// handleCreateGame creates a session and seats its creator.
func (h *Hub) handleCreateGame(client *Client, msg protocol.Message) {
	if h.gameOf(client) != "" {
		h.sendErrorToClient(client, shared.NewError(shared.CodeInvalidArguments, "Already in a game."))
		return
	}

	var payload protocol.CreateGamePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.log.WithField("client", client.ID).Debugf("Error unmarshalling create_game payload: %v", err)
		h.sendErrorToClient(client, shared.NewError(shared.CodeInvalidArguments, "Invalid create_game message format."))
		return
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		h.sendErrorToClient(client, shared.NewError(shared.CodeInvalidArguments, "Name cannot be empty."))
		return
	}
	if payload.NumPlayers == 0 {
		payload.NumPlayers = defaultNumPlayers
	}

	session, err := h.directory.CreateSession(payload.NumPlayers, payload.NumBots)
	if err != nil {
		h.sendErrorToClient(client, err)
		return
	}

	h.bind(client, name, session.Code)
	createdMsg, _ := protocol.NewMessage(protocol.TypeGameCreated, protocol.GameCreatedPayload{
		GameCode: session.Code,
		PlayerID: client.ID,
	})
	h.sendMessageToClient(client.ID, createdMsg)

	if err := session.Join(client.ID, name); err != nil {
		h.unbind(client)
		h.directory.Remove(session.Code)
		h.sendErrorToClient(client, err)
	}
}

// handleJoinGame seats a client in an existing session.
func (h *Hub) handleJoinGame(client *Client, msg protocol.Message) {
	if h.gameOf(client) != "" {
		h.sendJoinError(client, "Already in a game.")
		return
	}

	var payload protocol.JoinGamePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.log.WithField("client", client.ID).Debugf("Error unmarshalling join_game payload: %v", err)
		h.sendJoinError(client, "Invalid join_game message format.")
		return
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		h.sendJoinError(client, "Name cannot be empty.")
		return
	}
	if payload.GameCode == "" {
		h.sendJoinError(client, "Game code cannot be empty.")
		return
	}

	session, err := h.directory.Session(payload.GameCode)
	if err != nil {
		h.sendJoinError(client, err.Error())
		return
	}
	if err := session.Join(client.ID, name); err != nil {
		h.log.WithFields(logrus.Fields{"client": client.ID, "game": session.Code}).Infof("Join refused: %v", err)
		h.sendJoinError(client, err.Error())
		return
	}

	h.bind(client, name, session.Code)
	joinedMsg, _ := protocol.NewMessage(protocol.TypeGameJoined, protocol.GameJoinedPayload{
		GameCode: session.Code,
		PlayerID: client.ID,
	})
	h.sendMessageToClient(client.ID, joinedMsg)

	stateMsg, err := protocol.NewMessage(protocol.TypeGameState, session.Snapshot(client.ID))
	if err == nil {
		h.sendMessageToClient(client.ID, stateMsg)
	}
}

// handleGameAction forwards play, pass and replay votes to the client's session.
func (h *Hub) handleGameAction(client *Client, msg protocol.Message) {
	gameCode := h.gameOf(client)
	if gameCode == "" {
		h.sendErrorToClient(client, shared.ErrSessionNotFound)
		return
	}

	var err error
	switch msg.Type {
	case protocol.TypePlayCard:
		var payload protocol.PlayCardPayload
		if jsonErr := json.Unmarshal(msg.Payload, &payload); jsonErr != nil {
			h.sendErrorToClient(client, shared.NewError(shared.CodeInvalidArguments, "Invalid play_card message format."))
			return
		}
		_, err = h.directory.ApplyPlay(gameCode, client.ID, payload.Indices)
	case protocol.TypePassTurn:
		_, err = h.directory.ApplyPass(gameCode, client.ID)
	case protocol.TypePlayAgain:
		_, err = h.directory.VoteReplay(gameCode, client.ID)
	}

	if err != nil {
		h.log.WithFields(logrus.Fields{"client": client.ID, "game": gameCode, "type": msg.Type}).Debugf("Action rejected: %v", err)
		h.sendErrorToClient(client, err)
	}
}

// archiveRound stores the standings of a finished round. The write happens off
// the session lock.
func (h *Hub) archiveRound(gameCode string, round int, standings []shared.Standing) {
	if h.results == nil {
		return
	}
	h.archiveWG.Add(1)
	go func() {
		defer h.archiveWG.Done()
		if err := h.results.InsertRound(gameCode, round, standings); err != nil {
			h.log.WithFields(logrus.Fields{"game": gameCode, "round": round}).Errorf("Failed to archive round: %v", err)
			return
		}
		h.log.WithFields(logrus.Fields{"game": gameCode, "round": round}).Info("Round archived")
	}()
}

// WaitArchived blocks until pending result writes finish.
func (h *Hub) WaitArchived() {
	h.archiveWG.Wait()
}

func (h *Hub) bind(client *Client, name, gameCode string) {
	h.clientMu.Lock()
	defer h.clientMu.Unlock()
	client.Name = name
	h.clientToGame[client] = gameCode
}

func (h *Hub) unbind(client *Client) {
	h.clientMu.Lock()
	defer h.clientMu.Unlock()
	delete(h.clientToGame, client)
}

func (h *Hub) gameOf(client *Client) string {
	h.clientMu.RLock()
	defer h.clientMu.RUnlock()
	return h.clientToGame[client]
}

// sendMessageToClient allows the game logic to send messages back via the hub/client.
// This is passed as a callback to every session and never blocks.
func (h *Hub) sendMessageToClient(clientID string, message []byte) {
	h.clientMu.RLock()
	defer h.clientMu.RUnlock()

	targetClient, ok := h.clientsByID[clientID]
	if !ok {
		h.log.WithField("client", clientID).Debug("Could not find client to send message (already disconnected?)")
		return
	}

	select {
	case targetClient.send <- message:
	default:
		h.log.WithField("client", clientID).Warn("Failed to send message (channel full), initiating cleanup")
		go func() { h.unregister <- targetClient }()
	}
}

// sendErrorToClient sends an error message carrying the error's code.
func (h *Hub) sendErrorToClient(client *Client, err error) {
	payload := protocol.ErrorPayload{Message: err.Error(), Code: shared.CodeOf(err)}
	msgBytes, msgErr := protocol.NewMessage(protocol.TypeError, payload)
	if msgErr != nil {
		h.log.WithField("client", client.ID).Errorf("Error creating error message: %v", msgErr)
		return
	}
	h.sendMessageToClient(client.ID, msgBytes)
}

// sendJoinError sends a specific join error message to a client.
func (h *Hub) sendJoinError(client *Client, errorMsg string) {
	msgBytes, err := protocol.NewMessage(protocol.TypeJoinError, protocol.JoinErrorPayload{Message: errorMsg})
	if err != nil {
		h.log.WithField("client", client.ID).Errorf("Error creating join_error message: %v", err)
		return
	}
	h.sendMessageToClient(client.ID, msgBytes)
}

// newUpgrader accepts any origin when allowed is empty.
func newUpgrader(allowed []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowed {
				if strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		},
	}
}
