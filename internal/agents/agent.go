package agents

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/pokerzoo/pokerzoo/internal/env"
	"github.com/pokerzoo/pokerzoo/internal/poker"
)

// Agent decides one action per observation. Agents may keep state across a
// hand; the arena gives each seat its own instance.
type Agent interface {
	Name() string
	Act(obs env.Observation) (env.Action, error)
}

// Factory builds a fresh agent for a seat. Arena workers call it once per
// worker so concurrent matches never share agent state.
type Factory func(seat int) (Agent, error)

// Builtin agent identifiers.
const (
	BuiltinCaller = "caller"
	BuiltinFolder = "folder"
	BuiltinRaiser = "raiser"
	BuiltinRandom = "random"
)

// BuiltinFactory returns a factory for a named builtin agent.
func BuiltinFactory(name string, seed int64) (Factory, error) {
	switch name {
	case BuiltinCaller:
		return func(seat int) (Agent, error) { return &Caller{}, nil }, nil
	case BuiltinFolder:
		return func(seat int) (Agent, error) { return &Folder{}, nil }, nil
	case BuiltinRaiser:
		return func(seat int) (Agent, error) { return &Raiser{}, nil }, nil
	case BuiltinRandom:
		return func(seat int) (Agent, error) {
			return NewRandom(seed + int64(seat)), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown builtin agent %q", name)
	}
}

// Builtins lists the builtin agent names.
func Builtins() []string {
	names := []string{BuiltinCaller, BuiltinFolder, BuiltinRaiser, BuiltinRandom}
	sort.Strings(names)
	return names
}

// Caller checks or calls every bet and stands pat on draws.
type Caller struct{}

func (a *Caller) Name() string { return BuiltinCaller }

func (a *Caller) Act(obs env.Observation) (env.Action, error) {
	if obs.Drawing {
		return env.Action{}, nil
	}
	return env.Action{Bet: obs.CallAmount}, nil
}

// Folder checks when free and folds to any bet.
type Folder struct{}

func (a *Folder) Name() string { return BuiltinFolder }

func (a *Folder) Act(obs env.Observation) (env.Action, error) {
	if obs.Drawing {
		return env.Action{}, nil
	}
	if obs.CallAmount == 0 {
		return env.Action{Bet: 0}, nil
	}
	return env.Fold, nil
}

// Raiser min-raises whenever the rules allow and calls otherwise.
type Raiser struct{}

func (a *Raiser) Name() string { return BuiltinRaiser }

func (a *Raiser) Act(obs env.Observation) (env.Action, error) {
	if obs.Drawing {
		return env.Action{}, nil
	}
	if obs.CanRaise {
		return env.Action{Bet: obs.MinRaiseTo}, nil
	}
	return env.Action{Bet: obs.CallAmount}, nil
}

// Random mixes folds, calls, and uniformly sized raises from a seeded
// source, and discards each hole card with even odds on draws.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a random agent with its own deterministic source.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (a *Random) Name() string { return BuiltinRandom }

func (a *Random) Act(obs env.Observation) (env.Action, error) {
	if obs.Drawing {
		var action env.Action
		for i := range obs.Hole {
			if a.rng.Intn(2) == 0 {
				action.Cards |= poker.MaskOf(obs.Hole[i])
			}
		}
		return action, nil
	}

	roll := a.rng.Intn(10)
	switch {
	case roll == 0 && obs.CallAmount > 0:
		return env.Fold, nil
	case roll >= 7 && obs.CanRaise:
		span := obs.MaxRaiseTo - obs.MinRaiseTo
		bet := obs.MinRaiseTo
		if span > 0 {
			bet += a.rng.Int63n(span + 1)
		}
		return env.Action{Bet: bet}, nil
	default:
		return env.Action{Bet: obs.CallAmount}, nil
	}
}
