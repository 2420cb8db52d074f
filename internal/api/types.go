package api

import (
	"github.com/pokerzoo/pokerzoo/internal/arena"
	"github.com/pokerzoo/pokerzoo/internal/engine"
	"github.com/pokerzoo/pokerzoo/internal/env"
	"github.com/pokerzoo/pokerzoo/internal/poker"
)

// EngineError represents a structured error response with context.
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface.
func (e EngineError) Error() string {
	return e.Message
}

// Error types with proper categorization.
const (
	// Input validation errors
	ErrTypeInvalidSeed   = "invalid_seed"
	ErrTypeInvalidAction = "invalid_action"
	ErrTypeInvalidConfig = "invalid_config"
	ErrTypeValidation    = "validation_error"

	// Game-related errors
	ErrTypeVariantNotFound = "variant_not_found"
	ErrTypeTableNotFound   = "table_not_found"
	ErrTypeMatchNotFound   = "match_not_found"
	ErrTypeScriptNotFound  = "script_not_found"
	ErrTypeScriptInvalid   = "script_invalid"

	// System errors
	ErrTypeTimeout  = "timeout"
	ErrTypeInternal = "internal_error"
)

// ErrorCategory represents error categories for monitoring.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryGame       ErrorCategory = "game"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type.
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidSeed, ErrTypeInvalidAction, ErrTypeInvalidConfig, ErrTypeValidation:
		return CategoryValidation
	case ErrTypeVariantNotFound, ErrTypeTableNotFound, ErrTypeMatchNotFound,
		ErrTypeScriptNotFound, ErrTypeScriptInvalid:
		return CategoryGame
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information.
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// VariantsResponse lists the registered poker variants.
type VariantsResponse struct {
	Variants      []poker.VariantSpec `json:"variants"`
	EngineVersion string              `json:"engine_version"`
}

// CreateTableRequest creates an interactive table session.
type CreateTableRequest struct {
	Variant       string            `json:"variant"`
	Config        poker.TableConfig `json:"config"`
	Seeds         engine.Seeds      `json:"seeds"`
	IllegalReward *int64            `json:"illegal_reward,omitempty"`
}

// TableResponse is the full state of a table session.
type TableResponse struct {
	ID             string          `json:"id"`
	Variant        string          `json:"variant"`
	AgentSelection int             `json:"agent_selection"`
	Agents         []int           `json:"agents"`
	PossibleAgents []int           `json:"possible_agents"`
	Rewards        map[int]int64   `json:"rewards"`
	Cumulative     map[int]int64   `json:"cumulative_rewards"`
	Terminations   map[int]bool    `json:"terminations"`
	Truncations    map[int]bool    `json:"truncations"`
	ServerHash     string          `json:"server_hash,omitempty"`
	Observation    *env.Observation `json:"observation,omitempty"`
}

// ResetRequest starts a new hand on a table.
type ResetRequest struct {
	Seed uint64 `json:"seed"`
}

// StepRequest applies the selected agent's action.
type StepRequest struct {
	Bet   int64  `json:"bet"`
	Cards uint64 `json:"cards,omitempty"`
}

// RenderResponse is a human-readable table view.
type RenderResponse struct {
	Render string `json:"render"`
}

// RunMatchRequest runs a self-play match. Each agent entry is either a
// builtin name or "script:<id>" referring to a stored script.
type RunMatchRequest struct {
	Match  arena.MatchRequest `json:"match"`
	Agents []string           `json:"agents"`
	Seed   int64              `json:"seed,omitempty"` // for builtin random agents
}

// RunMatchResponse wraps a completed match.
type RunMatchResponse struct {
	Result        *arena.MatchResult `json:"result"`
	EngineVersion string             `json:"engine_version"`
}

// SaveScriptRequest stores a JavaScript agent.
type SaveScriptRequest struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// SeedHashRequest asks for a server seed commitment.
type SeedHashRequest struct {
	ServerSeed string `json:"server_seed"`
}

// SeedHashResponse carries the commitment hash.
type SeedHashResponse struct {
	Hash          string          `json:"hash"`
	EngineVersion string          `json:"engine_version"`
	Echo          SeedHashRequest `json:"echo"`
}
