package game

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"presidents-game/internal/protocol"
	"presidents-game/internal/shared"

	"github.com/sirupsen/logrus"
)

const (
	codeLetters       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultCodeLength = 6
	minPlayers        = 2
)

// DirectoryConfig holds the settings shared by every session in a Directory.
type DirectoryConfig struct {
	CodeLength int
	MaxPlayers int
	Rules      shared.Rules
	Sender     MessageSender
	Logger     logrus.FieldLogger
	OnRoundEnd RoundEndFunc
}

// Directory maps game codes to sessions. It only guards the map; each session
// serializes its own actions, so different sessions proceed in parallel.
type Directory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      DirectoryConfig
	log      logrus.FieldLogger
}

// NewDirectory creates an empty session directory.
func NewDirectory(cfg DirectoryConfig) *Directory {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = defaultCodeLength
	}
	if cfg.MaxPlayers < minPlayers {
		cfg.MaxPlayers = 8
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Directory{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		log:      cfg.Logger,
	}
}

// CreateSession registers a new empty session under a fresh game code.
func (d *Directory) CreateSession(numPlayers, numBots int) (*Session, error) {
	if numPlayers < minPlayers || numPlayers > d.cfg.MaxPlayers {
		return nil, shared.NewError(shared.CodeInvalidArguments,
			fmt.Sprintf("Number of players must be between %d and %d.", minPlayers, d.cfg.MaxPlayers))
	}
	if numBots < 0 || numBots >= numPlayers {
		return nil, shared.NewError(shared.CodeInvalidArguments,
			fmt.Sprintf("Number of bots must be between 0 and %d.", numPlayers-1))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	code := d.generateGameCode()
	session := NewSession(Config{
		Code:       code,
		NumPlayers: numPlayers,
		NumBots:    numBots,
		Rules:      d.cfg.Rules,
		Sender:     d.cfg.Sender,
		Logger:     d.cfg.Logger,
		OnRoundEnd: d.cfg.OnRoundEnd,
	})
	d.sessions[code] = session
	d.log.WithField("game", code).Infof("Created game for %d players (%d bots)", numPlayers, numBots)
	return session, nil
}

// Session looks up a session by code. Codes are case-insensitive.
func (d *Directory) Session(code string) (*Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	session, ok := d.sessions[strings.ToUpper(code)]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return session, nil
}

// JoinSession seats a human player in the session.
func (d *Directory) JoinSession(code, playerID, name string) error {
	session, err := d.Session(code)
	if err != nil {
		return err
	}
	return session.Join(playerID, name)
}

// ApplyPlay forwards a play action to the session.
func (d *Directory) ApplyPlay(code, playerID string, indices []int) (shared.Outcome, error) {
	session, err := d.Session(code)
	if err != nil {
		return shared.Outcome{}, err
	}
	return session.Play(playerID, indices)
}

// ApplyPass forwards a pass action to the session.
func (d *Directory) ApplyPass(code, playerID string) (shared.Outcome, error) {
	session, err := d.Session(code)
	if err != nil {
		return shared.Outcome{}, err
	}
	return session.Pass(playerID)
}

// Snapshot returns the session state as seen by viewerID.
func (d *Directory) Snapshot(code, viewerID string) (protocol.GameStatePayload, error) {
	session, err := d.Session(code)
	if err != nil {
		return protocol.GameStatePayload{}, err
	}
	return session.Snapshot(viewerID), nil
}

// VoteReplay records a replay vote and reports whether a new round started.
func (d *Directory) VoteReplay(code, playerID string) (bool, error) {
	session, err := d.Session(code)
	if err != nil {
		return false, err
	}
	return session.VoteReplay(playerID)
}

// Remove drops a session from the directory.
func (d *Directory) Remove(code string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sessions, strings.ToUpper(code))
	d.log.WithField("game", code).Info("Game removed")
}

// Len returns the number of live sessions.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

// generateGameCode creates a unique alphanumeric game code. Caller holds d.mu.
func (d *Directory) generateGameCode() string {
	for {
		var sb strings.Builder
		for i := 0; i < d.cfg.CodeLength; i++ {
			sb.WriteByte(codeLetters[rand.IntN(len(codeLetters))])
		}
		code := sb.String()

		if _, exists := d.sessions[code]; !exists {
			return code
		}
		d.log.Debugf("Generated game code %s collided, retrying...", code)
	}
}
