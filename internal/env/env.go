package env

import (
	"fmt"
	"strings"

	"github.com/pokerzoo/pokerzoo/internal/engine"
	"github.com/pokerzoo/pokerzoo/internal/poker"
)

// DefaultIllegalReward is the penalty for an in-bounds but illegal action.
const DefaultIllegalReward int64 = -1

// Env is the raw poker environment. Most callers should use New, which adds
// the order-enforcement and bounds-assertion wrappers.
type Env struct {
	variant poker.Variant
	def     poker.Definition
	cfg     poker.TableConfig
	seeds   engine.Seeds

	illegalReward int64

	state          *poker.State
	possibleAgents []int
	agents         []int
	selection      int
	rewards        map[int]int64
	cumulative     map[int]int64
	terminations   map[int]bool
	truncations    map[int]bool
	infos          map[int]map[string]any
}

// Option configures an environment.
type Option func(*Env)

// WithSeeds pins the deal stream. Without it the zero seeds are used, which
// is fine for tests but gives every table the same deals.
func WithSeeds(seeds engine.Seeds) Option {
	return func(e *Env) { e.seeds = seeds }
}

// WithIllegalReward overrides the penalty for illegal actions.
func WithIllegalReward(reward int64) Option {
	return func(e *Env) { e.illegalReward = reward }
}

// NewRaw creates an unwrapped environment for the variant and table config.
func NewRaw(variantID string, cfg poker.TableConfig, opts ...Option) (*Env, error) {
	variant, ok := poker.GetVariant(variantID)
	if !ok {
		return nil, fmt.Errorf("unknown variant %q", variantID)
	}
	def, clean, err := variant.Definition(cfg)
	if err != nil {
		return nil, fmt.Errorf("variant %s: %w", variantID, err)
	}

	e := &Env{
		variant:       variant,
		def:           def,
		cfg:           clean,
		illegalReward: DefaultIllegalReward,
		selection:     -1,
		rewards:       make(map[int]int64),
		cumulative:    make(map[int]int64),
		terminations:  make(map[int]bool),
		truncations:   make(map[int]bool),
		infos:         make(map[int]map[string]any),
	}
	for seat := 0; seat < clean.Players; seat++ {
		e.possibleAgents = append(e.possibleAgents, seat)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// New creates an environment with the recommended wrappers: action bounds
// assertion innermost, order enforcement outermost.
func New(variantID string, cfg poker.TableConfig, opts ...Option) (Environment, error) {
	raw, err := NewRaw(variantID, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return OrderEnforced(AssertBounds(raw)), nil
}

// Reset deals a new hand using the seed as the hand nonce.
func (e *Env) Reset(seed uint64) error {
	order := engine.ShuffleDeck(e.seeds, seed, poker.DeckSize)
	state, err := poker.NewState(e.def, e.cfg, order)
	if err != nil {
		return fmt.Errorf("deal hand: %w", err)
	}
	e.state = state

	e.agents = e.agents[:0]
	e.agents = append(e.agents, e.possibleAgents...)
	for _, agent := range e.possibleAgents {
		e.rewards[agent] = 0
		e.cumulative[agent] = 0
		e.terminations[agent] = false
		e.truncations[agent] = false
		e.infos[agent] = map[string]any{}
	}

	e.update()
	return nil
}

// Step applies the selected agent's action.
func (e *Env) Step(action Action) error {
	if e.state == nil {
		return ErrNotReset
	}
	agent := e.selection
	if agent < 0 {
		return ErrNoAgent
	}

	if e.terminations[agent] || e.truncations[agent] {
		e.deadStep(agent)
		return nil
	}

	legal := true
	switch {
	case e.state.StanderPatOrDiscarderIndex() == agent:
		if err := e.state.StandPatOrDiscard(action.Cards); err != nil {
			legal = false
		}
	case action.Bet == -1:
		if err := e.state.Fold(); err != nil {
			legal = false
		}
	case action.Bet == e.state.CheckingOrCallingAmount():
		if err := e.state.CheckOrCall(); err != nil {
			legal = false
		}
	default:
		if err := e.state.CompleteBetOrRaiseTo(action.Bet); err != nil {
			legal = false
		}
	}

	if !legal {
		// The hand does not advance; the offender is penalized and asked
		// to act again.
		e.rewards[agent] = e.illegalReward
		e.cumulative[agent] += e.illegalReward
		return nil
	}

	e.rewards[agent] = 0
	e.update()
	return nil
}

// update recomputes selection and, at hand end, attributes rewards.
func (e *Env) update() {
	if e.state.Status() {
		if drawer := e.state.StanderPatOrDiscarderIndex(); drawer >= 0 {
			e.selection = drawer
		} else {
			e.selection = e.state.ActorIndex()
		}
		return
	}

	// Hand over: reward is the stack delta, every agent terminates, and the
	// remaining agents are dead-stepped out one by one.
	payouts := e.state.Payouts()
	for _, agent := range e.agents {
		e.rewards[agent] = payouts[agent]
		e.cumulative[agent] += payouts[agent]
		e.terminations[agent] = true
	}
	e.selection = e.firstLiveAgent()
}

// deadStep removes a terminated agent from the cycle.
func (e *Env) deadStep(agent int) {
	e.rewards[agent] = 0
	for i, a := range e.agents {
		if a == agent {
			e.agents = append(e.agents[:i], e.agents[i+1:]...)
			break
		}
	}
	e.selection = e.firstLiveAgent()
}

func (e *Env) firstLiveAgent() int {
	if len(e.agents) == 0 {
		return -1
	}
	return e.agents[0]
}

// Observe renders the table from the agent's seat. Opponents' down cards are
// never included; their exposed stud cards are.
func (e *Env) Observe(agent int) (Observation, error) {
	if e.state == nil {
		return Observation{}, ErrNotReset
	}
	valid := false
	for _, a := range e.possibleAgents {
		if a == agent {
			valid = true
			break
		}
	}
	if !valid {
		return Observation{}, fmt.Errorf("%w: %d", ErrUnknownAgent, agent)
	}

	hole, holeUp := e.state.HoleCards(agent)
	obs := Observation{
		Agent:      agent,
		Street:     e.state.StreetName(),
		Hole:       hole,
		HoleUp:     holeUp,
		Board:      e.state.Board(),
		Pot:        e.state.Pot(),
		Stacks:     e.state.Stacks(),
		Bets:       e.state.Bets(),
		Terminated: e.terminations[agent],
	}
	obs.Folded = make([]bool, e.cfg.Players)
	for seat := 0; seat < e.cfg.Players; seat++ {
		obs.Folded[seat] = e.state.Folded(seat)
	}

	for seat := 0; seat < e.cfg.Players; seat++ {
		if seat == agent || e.state.Folded(seat) {
			continue
		}
		cards, ups := e.state.HoleCards(seat)
		var exposed []poker.Card
		for i, up := range ups {
			if up {
				exposed = append(exposed, cards[i])
			}
		}
		if len(exposed) > 0 {
			if obs.Upcards == nil {
				obs.Upcards = make(map[int][]poker.Card)
			}
			obs.Upcards[seat] = exposed
		}
	}

	if e.selection == agent && !e.terminations[agent] {
		obs.MyTurn = true
		if e.state.StanderPatOrDiscarderIndex() == agent {
			obs.Drawing = true
		} else {
			obs.CallAmount = e.state.CheckingOrCallingAmount()
			obs.CanRaise = e.state.CanCompleteBetOrRaise()
			obs.MinRaiseTo = e.state.MinCompletionBettingOrRaisingToAmount()
			obs.MaxRaiseTo = e.state.MaxCompletionBettingOrRaisingToAmount()
		}
	}
	return obs, nil
}

// AgentSelection returns the agent expected to act, or -1.
func (e *Env) AgentSelection() int { return e.selection }

// Agents returns the agents still in the cycle.
func (e *Env) Agents() []int {
	out := make([]int, len(e.agents))
	copy(out, e.agents)
	return out
}

// PossibleAgents returns every seat at the table.
func (e *Env) PossibleAgents() []int {
	out := make([]int, len(e.possibleAgents))
	copy(out, e.possibleAgents)
	return out
}

// Rewards returns each agent's most recent reward.
func (e *Env) Rewards() map[int]int64 { return copyInt64Map(e.rewards) }

// CumulativeRewards returns each agent's reward total for the hand.
func (e *Env) CumulativeRewards() map[int]int64 { return copyInt64Map(e.cumulative) }

// Terminations reports which agents' hands have ended.
func (e *Env) Terminations() map[int]bool { return copyBoolMap(e.terminations) }

// Truncations reports which agents were cut off externally. Hands always run
// to completion, so these stay false.
func (e *Env) Truncations() map[int]bool { return copyBoolMap(e.truncations) }

// Infos returns per-agent auxiliary data.
func (e *Env) Infos() map[int]map[string]any {
	out := make(map[int]map[string]any, len(e.infos))
	for k, v := range e.infos {
		out[k] = v
	}
	return out
}

// Render returns a multi-line human-readable view of the table.
func (e *Env) Render() string {
	if e.state == nil {
		return "table not dealt"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] pot %d\n", e.def.Spec.Name, e.state.StreetName(), e.state.Pot())

	board := e.state.Board()
	if len(board) > 0 {
		parts := make([]string, len(board))
		for i, card := range board {
			parts[i] = card.String()
		}
		fmt.Fprintf(&b, "board: %s\n", strings.Join(parts, " "))
	}

	stacks := e.state.Stacks()
	bets := e.state.Bets()
	for seat := 0; seat < e.cfg.Players; seat++ {
		marker := " "
		if seat == e.selection {
			marker = "*"
		}
		status := ""
		if e.state.Folded(seat) {
			status = " folded"
		}
		cards, ups := e.state.HoleCards(seat)
		shown := make([]string, len(cards))
		for i, card := range cards {
			if ups[i] || !e.state.Status() {
				shown[i] = card.String()
			} else {
				shown[i] = "??"
			}
		}
		fmt.Fprintf(&b, "%s seat %d: stack %d bet %d [%s]%s\n",
			marker, seat, stacks[seat], bets[seat], strings.Join(shown, " "), status)
	}
	return b.String()
}

func copyInt64Map(m map[int]int64) map[int]int64 {
	out := make(map[int]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyBoolMap(m map[int]bool) map[int]bool {
	out := make(map[int]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
