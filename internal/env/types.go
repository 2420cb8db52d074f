package env

import (
	"errors"

	"github.com/pokerzoo/pokerzoo/internal/poker"
)

// Action is one agent move. During betting, Bet selects the move: -1 folds,
// the exact calling amount checks or calls, and anything inside the raise
// window raises to that total. During a draw phase, Cards selects discards
// and Bet is ignored.
type Action struct {
	Bet   int64          `json:"bet"`
	Cards poker.CardMask `json:"cards,omitempty"`
}

// Fold is the fold action.
var Fold = Action{Bet: -1}

// Observation is what one agent may see of the table.
type Observation struct {
	Agent      int            `json:"agent"`
	Street     string         `json:"street"`
	Hole       []poker.Card   `json:"hole"`
	HoleUp     []bool         `json:"hole_up"`
	Board      []poker.Card   `json:"board"`
	Upcards    map[int][]poker.Card `json:"upcards,omitempty"` // opponents' exposed cards
	Pot        int64          `json:"pot"`
	Stacks     []int64        `json:"stacks"`
	Bets       []int64        `json:"bets"`
	Folded     []bool         `json:"folded"`
	CallAmount int64          `json:"call_amount"`
	MinRaiseTo int64          `json:"min_raise_to"`
	MaxRaiseTo int64          `json:"max_raise_to"`
	CanRaise   bool           `json:"can_raise"`
	Drawing    bool           `json:"drawing"` // agent must stand pat or discard
	MyTurn     bool           `json:"my_turn"`
	Terminated bool           `json:"terminated"`
}

// Environment is the agent-environment cycle for one poker table: agents act
// one at a time in the order the rules engine dictates, and rewards are the
// per-hand stack deltas.
type Environment interface {
	// Reset starts a new hand. The seed is the hand nonce within the
	// table's deterministic deal stream.
	Reset(seed uint64) error

	// Step applies the selected agent's action and advances selection.
	Step(action Action) error

	// Observe renders the table from one agent's point of view.
	Observe(agent int) (Observation, error)

	// AgentSelection returns the agent expected to act, or -1.
	AgentSelection() int

	// Agents returns the agents still in the cycle this hand.
	Agents() []int

	// PossibleAgents returns every seat the table was created with.
	PossibleAgents() []int

	Rewards() map[int]int64
	CumulativeRewards() map[int]int64
	Terminations() map[int]bool
	Truncations() map[int]bool
	Infos() map[int]map[string]any

	// Render returns a human-readable table description.
	Render() string
}

// Errors reported by the environment and its wrappers.
var (
	ErrNotReset      = errors.New("environment must be reset before use")
	ErrNoAgent       = errors.New("no agent selected")
	ErrUnknownAgent  = errors.New("unknown agent")
	ErrActionBounds  = errors.New("action outside the action space")
)
