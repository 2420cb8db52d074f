package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements the DB interface using SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens a SQLite database at path, creating it if missing.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate creates tables and indexes. Safe to run repeatedly.
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS matches (
			id TEXT PRIMARY KEY,
			variant TEXT NOT NULL,
			server_seed_hash TEXT NOT NULL DEFAULT '',
			client_seed TEXT NOT NULL DEFAULT '',
			config_json TEXT NOT NULL DEFAULT '{}',
			agents_json TEXT NOT NULL DEFAULT '[]',
			hands INTEGER NOT NULL DEFAULT 0,
			hand_start INTEGER NOT NULL DEFAULT 0,
			seats_json TEXT NOT NULL DEFAULT '[]',
			timed_out INTEGER NOT NULL DEFAULT 0,
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS hands (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL,
			nonce INTEGER NOT NULL,
			rewards_json TEXT NOT NULL DEFAULT '[]',
			board_json TEXT NOT NULL DEFAULT '[]',
			holes_json TEXT NOT NULL DEFAULT '[]',
			steps INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (match_id) REFERENCES matches(id)
		)`,
		`CREATE TABLE IF NOT EXISTS scripts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			source TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_created_at ON matches(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_variant ON matches(variant, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_hands_match_id ON hands(match_id)`,
		`CREATE INDEX IF NOT EXISTS idx_hands_match_nonce ON hands(match_id, nonce)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveMatch inserts a match. An empty ID is assigned.
func (s *SQLiteDB) SaveMatch(match *Match) error {
	if match.ID == "" {
		match.ID = uuid.New().String()
	}

	query := `INSERT INTO matches (
		id, variant, server_seed_hash, client_seed, config_json, agents_json,
		hands, hand_start, seats_json, timed_out, elapsed_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	timedOutInt := 0
	if match.TimedOut {
		timedOutInt = 1
	}

	_, err := s.db.Exec(query,
		match.ID, match.Variant, match.ServerSeedHash, match.ClientSeed,
		jsonOrDefault(match.ConfigJSON, "{}"), jsonOrDefault(match.AgentsJSON, "[]"),
		match.Hands, match.HandStart, jsonOrDefault(match.SeatsJSON, "[]"),
		timedOutInt, match.ElapsedMs,
	)
	return err
}

// GetMatch retrieves a match by ID.
func (s *SQLiteDB) GetMatch(id string) (*Match, error) {
	query := `SELECT id, variant, server_seed_hash, client_seed, config_json,
		agents_json, hands, hand_start, seats_json, timed_out, elapsed_ms, created_at
		FROM matches WHERE id = ?`

	match, err := scanMatch(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return match, nil
}

// ListMatches retrieves matches with pagination and optional variant filter.
func (s *SQLiteDB) ListMatches(query MatchesQuery) (*MatchesList, error) {
	whereClause := ""
	args := []any{}
	if query.Variant != "" {
		whereClause = "WHERE variant = ?"
		args = append(args, query.Variant)
	}

	var totalCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM matches "+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	if query.PerPage <= 0 {
		query.PerPage = 50
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	offset := (query.Page - 1) * query.PerPage

	mainQuery := `SELECT id, variant, server_seed_hash, client_seed, config_json,
		agents_json, hands, hand_start, seats_json, timed_out, elapsed_ms, created_at
		FROM matches ` + whereClause + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`
	args = append(args, query.PerPage, offset)

	rows, err := s.db.Query(mainQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, *match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	return &MatchesList{
		Matches:    matches,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}

// SaveHands inserts hand records in a single transaction.
func (s *SQLiteDB) SaveHands(matchID string, hands []Hand) error {
	if len(hands) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO hands (match_id, nonce, rewards_json, board_json, holes_json, steps)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, hand := range hands {
		if _, err := stmt.Exec(matchID, hand.Nonce, jsonOrDefault(hand.RewardsJSON, "[]"),
			jsonOrDefault(hand.BoardJSON, "[]"), jsonOrDefault(hand.HolesJSON, "[]"), hand.Steps); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetHands retrieves a match's hands ordered by nonce, paginated.
func (s *SQLiteDB) GetHands(matchID string, page, perPage int) (*HandsPage, error) {
	var totalCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM hands WHERE match_id = ?", matchID).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	if perPage <= 0 {
		perPage = 100
	}
	if page <= 0 {
		page = 1
	}
	totalPages := (totalCount + perPage - 1) / perPage
	offset := (page - 1) * perPage

	rows, err := s.db.Query(`SELECT id, match_id, nonce, rewards_json, board_json, holes_json, steps
		FROM hands WHERE match_id = ?
		ORDER BY nonce LIMIT ? OFFSET ?`, matchID, perPage, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query hands: %w", err)
	}
	defer rows.Close()

	var hands []Hand
	for rows.Next() {
		var hand Hand
		if err := rows.Scan(&hand.ID, &hand.MatchID, &hand.Nonce, &hand.RewardsJSON,
			&hand.BoardJSON, &hand.HolesJSON, &hand.Steps); err != nil {
			return nil, fmt.Errorf("failed to scan hand: %w", err)
		}
		hands = append(hands, hand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hands: %w", err)
	}

	return &HandsPage{
		Hands:      hands,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

// SaveScript inserts or updates a script. An empty ID is assigned.
func (s *SQLiteDB) SaveScript(script *Script) error {
	now := time.Now().UTC()
	if script.ID == "" {
		script.ID = uuid.New().String()
		script.CreatedAt = now
	}
	script.UpdatedAt = now

	query := `INSERT INTO scripts (id, name, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			source = excluded.source, updated_at = excluded.updated_at`

	_, err := s.db.Exec(query, script.ID, script.Name, script.Source, script.CreatedAt, script.UpdatedAt)
	return err
}

// GetScript retrieves a script by ID.
func (s *SQLiteDB) GetScript(id string) (*Script, error) {
	var script Script
	err := s.db.QueryRow(`SELECT id, name, source, created_at, updated_at
		FROM scripts WHERE id = ?`, id).Scan(
		&script.ID, &script.Name, &script.Source, &script.CreatedAt, &script.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &script, nil
}

// ListScripts retrieves all scripts, most recently updated first.
func (s *SQLiteDB) ListScripts() ([]Script, error) {
	rows, err := s.db.Query(`SELECT id, name, source, created_at, updated_at
		FROM scripts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scripts []Script
	for rows.Next() {
		var script Script
		if err := rows.Scan(&script.ID, &script.Name, &script.Source, &script.CreatedAt, &script.UpdatedAt); err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}
	return scripts, rows.Err()
}

// DeleteScript removes a script by ID.
func (s *SQLiteDB) DeleteScript(id string) error {
	result, err := s.db.Exec("DELETE FROM scripts WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// rowScanner covers both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (*Match, error) {
	var match Match
	var timedOutInt int
	err := row.Scan(
		&match.ID, &match.Variant, &match.ServerSeedHash, &match.ClientSeed,
		&match.ConfigJSON, &match.AgentsJSON, &match.Hands, &match.HandStart,
		&match.SeatsJSON, &timedOutInt, &match.ElapsedMs, &match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	match.TimedOut = timedOutInt == 1
	return &match, nil
}

func jsonOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
