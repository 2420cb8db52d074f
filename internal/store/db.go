package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// DB is the persistence interface for matches, hands, and agent scripts.
type DB interface {
	Close() error
	Migrate() error

	SaveMatch(match *Match) error
	GetMatch(id string) (*Match, error)
	ListMatches(query MatchesQuery) (*MatchesList, error)

	SaveHands(matchID string, hands []Hand) error
	GetHands(matchID string, page, perPage int) (*HandsPage, error)

	SaveScript(script *Script) error
	GetScript(id string) (*Script, error)
	ListScripts() ([]Script, error)
	DeleteScript(id string) error
}

// MatchesQuery filters and pages the match list.
type MatchesQuery struct {
	Variant string `json:"variant,omitempty"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

// MatchesList is a paginated match listing.
type MatchesList struct {
	Matches    []Match `json:"matches"`
	TotalCount int     `json:"totalCount"`
	Page       int     `json:"page"`
	PerPage    int     `json:"perPage"`
	TotalPages int     `json:"totalPages"`
}

// HandsPage is a paginated hand listing.
type HandsPage struct {
	Hands      []Hand `json:"hands"`
	TotalCount int    `json:"totalCount"`
	Page       int    `json:"page"`
	PerPage    int    `json:"perPage"`
	TotalPages int    `json:"totalPages"`
}

// Match is one completed self-play match. The server seed itself is never
// stored, only its commitment hash.
type Match struct {
	ID             string    `json:"id" db:"id"`
	Variant        string    `json:"variant" db:"variant"`
	ServerSeedHash string    `json:"server_seed_hash" db:"server_seed_hash"`
	ClientSeed     string    `json:"client_seed" db:"client_seed"`
	ConfigJSON     string    `json:"config_json" db:"config_json"`
	AgentsJSON     string    `json:"agents_json" db:"agents_json"`
	Hands          uint64    `json:"hands" db:"hands"`
	HandStart      uint64    `json:"hand_start" db:"hand_start"`
	SeatsJSON      string    `json:"seats_json" db:"seats_json"`
	TimedOut       bool      `json:"timed_out" db:"timed_out"`
	ElapsedMs      int64     `json:"elapsed_ms" db:"elapsed_ms"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Hand is one dealt hand inside a match. Board and hole cards are kept as
// JSON so a stored hand can be replayed card for card.
type Hand struct {
	ID          int64  `json:"id" db:"id"`
	MatchID     string `json:"match_id" db:"match_id"`
	Nonce       uint64 `json:"nonce" db:"nonce"`
	RewardsJSON string `json:"rewards_json" db:"rewards_json"`
	BoardJSON   string `json:"board_json" db:"board_json"`
	HolesJSON   string `json:"holes_json" db:"holes_json"`
	Steps       int    `json:"steps" db:"steps"`
}

// Script is a stored JavaScript agent.
type Script struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Source    string    `json:"source" db:"source"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
