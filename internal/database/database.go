package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"presidents-game/internal/shared"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const tableName = "round_results"

const selectColumns = "id, game_code, round, created_at, player_id, player_name, title, position"

// Service archives the standings of completed rounds.
type Service struct {
	db     *sql.DB
	m      *sync.Mutex
	driver string
}

// New opens the archive with the given driver ("sqlite3" or "pgx") and
// creates the results table if needed.
func New(driver, dsn string) (*Service, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	sqlStmt := `
	create table if not exists ` + tableName + ` (
		id text not null primary key,
		game_code text not null,
		round integer not null,
		created_at timestamp not null,
		player_id text not null,
		player_name text not null,
		title text not null,
		position integer not null
	);
	`
	if _, err := db.Exec(sqlStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("create %s: %w", tableName, err)
	}

	return &Service{
		db:     db,
		m:      &sync.Mutex{},
		driver: driver,
	}, nil
}

func (s *Service) Close() error {
	return s.db.Close()
}

// InsertRound stores every standing of a round in one transaction.
func (s *Service) InsertRound(gameCode string, round int, standings []shared.Standing) error {
	s.m.Lock()
	defer s.m.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(s.rebind("INSERT INTO " + tableName +
		" (" + selectColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)"))
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, st := range standings {
		if _, err := stmt.Exec(
			uuid.NewString(),
			gameCode,
			round,
			now,
			st.ID,
			st.Name,
			string(st.Title),
			st.Position); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Service) GetAll() ([]RoundResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	return s.query("SELECT " + selectColumns + " FROM " + tableName +
		" ORDER BY created_at, game_code, round, position")
}

// GetByPlayer returns every finish of a player name, or sql.ErrNoRows when there are none.
func (s *Service) GetByPlayer(playerName string) ([]RoundResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	results, err := s.query("SELECT "+selectColumns+" FROM "+tableName+
		" WHERE player_name = ? ORDER BY created_at, round", playerName)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, sql.ErrNoRows // No results found
	}

	return results, nil
}

func (s *Service) GetByGame(gameCode string) ([]RoundResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	return s.query("SELECT "+selectColumns+" FROM "+tableName+
		" WHERE game_code = ? ORDER BY round, position", strings.ToUpper(gameCode))
}

func (s *Service) query(q string, args ...any) ([]RoundResult, error) {
	rows, err := s.db.Query(s.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []RoundResult{}
	for rows.Next() {
		var result RoundResult
		if err := rows.Scan(
			&result.ID,
			&result.GameCode,
			&result.Round,
			&result.CreatedAt,
			&result.PlayerID,
			&result.PlayerName,
			&result.Title,
			&result.Position); err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Service) rebind(q string) string {
	if s.driver != "pgx" {
		return q
	}
	var sb strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
