package env

import "fmt"

// orderEnforcer rejects Step and Observe before the first Reset, the
// outermost recommended wrapper.
type orderEnforcer struct {
	Environment
	ready bool
}

// OrderEnforced wraps an environment so that using it before Reset is an
// error instead of a panic deep in the rules engine.
func OrderEnforced(inner Environment) Environment {
	return &orderEnforcer{Environment: inner}
}

func (w *orderEnforcer) Reset(seed uint64) error {
	if err := w.Environment.Reset(seed); err != nil {
		return err
	}
	w.ready = true
	return nil
}

func (w *orderEnforcer) Step(action Action) error {
	if !w.ready {
		return ErrNotReset
	}
	return w.Environment.Step(action)
}

func (w *orderEnforcer) Observe(agent int) (Observation, error) {
	if !w.ready {
		return Observation{}, ErrNotReset
	}
	return w.Environment.Observe(agent)
}

// boundsAsserter rejects actions outside the action space before they reach
// the rules engine. In-bounds but illegal actions still go through and earn
// the illegal-action penalty.
type boundsAsserter struct {
	Environment
}

// AssertBounds wraps an environment with action-space validation.
func AssertBounds(inner Environment) Environment {
	return &boundsAsserter{Environment: inner}
}

func (w *boundsAsserter) Step(action Action) error {
	if action.Bet < -1 {
		return fmt.Errorf("%w: bet %d below -1", ErrActionBounds, action.Bet)
	}
	agent := w.AgentSelection()
	if agent >= 0 {
		if obs, err := w.Environment.Observe(agent); err == nil {
			// The betting space is -1..stack+bet; anything beyond the
			// agent's total chips cannot be expressed at all.
			limit := obs.Bets[agent] + obs.Stacks[agent]
			if action.Bet > limit {
				return fmt.Errorf("%w: bet %d above the agent's %d chips", ErrActionBounds, action.Bet, limit)
			}
		}
	}
	return w.Environment.Step(action)
}
