package poker

import (
	"fmt"
	"sort"
)

// BettingStructure selects how bet and raise sizes are constrained.
type BettingStructure string

const (
	NoLimit    BettingStructure = "no_limit"
	PotLimit   BettingStructure = "pot_limit"
	FixedLimit BettingStructure = "fixed_limit"
)

// Street describes one dealing-and-betting phase of a hand.
type Street struct {
	Name string

	// HoleUpCards lists the cards dealt to each live player at the start of
	// the street; true means face up. Empty means no hole dealing.
	HoleUpCards []bool

	// BoardDealCount is how many community cards hit the board.
	BoardDealCount int

	// Draw marks a discard-and-replace phase before this street's betting.
	Draw bool

	// BetSizeMultiplier scales the table's small bet for fixed-limit games:
	// 1 on early streets, 2 on later ones. Ignored for no-limit/pot-limit.
	BetSizeMultiplier int
}

// VariantSpec is the registry metadata for a poker variant.
type VariantSpec struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MinPlayers int    `json:"min_players"`
	MaxPlayers int    `json:"max_players"`
	HoleCards  int    `json:"hole_cards"`
}

// Definition is a fully resolved rule set a hand can be played under.
type Definition struct {
	Spec     VariantSpec
	Streets  []Street
	Betting  BettingStructure
	RaiseCap int // fixed-limit: max bets per street including the opening bet; 0 = unlimited

	// Blinds games post cfg.Blinds and open preflop after the last blind.
	// Bring-in games post antes only and open with the lowest exposed card.
	UseBlinds  bool
	UseBringIn bool

	// OmahaScoring forces the exactly-two-hole-cards showdown rule.
	OmahaScoring bool
}

// TableConfig carries the per-table betting parameters. Ante, blind and stack
// slices are broadcast across seats: a single value is repeated (antes) or
// zero-padded (blinds), matching how short parameter lists are cleaned.
type TableConfig struct {
	Players        int     `json:"players"`
	Antes          []int64 `json:"antes,omitempty"`
	Blinds         []int64 `json:"blinds,omitempty"` // blinds or straddles, seat 0 = small blind
	BringIn        int64   `json:"bring_in,omitempty"`
	SmallBet       int64   `json:"small_bet,omitempty"` // fixed-limit base bet; defaults to the largest blind
	StartingStacks []int64 `json:"starting_stacks"`
	AnteTrimming   bool    `json:"ante_trimming"` // true = uniform antes trimmed to stacks
}

// cleanAmounts broadcasts a raw amount list across count seats. A nil or
// empty list becomes all zeros; a single value is repeated when repeat is
// true, otherwise the list is zero-padded; longer lists are truncated.
func cleanAmounts(raw []int64, count int, repeat bool) []int64 {
	out := make([]int64, count)
	switch {
	case len(raw) == 0:
	case len(raw) == 1 && repeat:
		for i := range out {
			out[i] = raw[0]
		}
	default:
		copy(out, raw)
	}
	return out
}

// normalize validates and broadcasts the config for a table of cfg.Players.
func (cfg TableConfig) normalize(spec VariantSpec) (TableConfig, error) {
	if cfg.Players < spec.MinPlayers || cfg.Players > spec.MaxPlayers {
		return cfg, fmt.Errorf("%s supports %d-%d players, got %d",
			spec.ID, spec.MinPlayers, spec.MaxPlayers, cfg.Players)
	}

	out := cfg
	out.Antes = cleanAmounts(cfg.Antes, cfg.Players, cfg.AnteTrimming)
	out.Blinds = cleanAmounts(cfg.Blinds, cfg.Players, false)
	out.StartingStacks = cleanAmounts(cfg.StartingStacks, cfg.Players, true)

	for i, stack := range out.StartingStacks {
		if stack <= 0 {
			return cfg, fmt.Errorf("seat %d has no starting stack", i)
		}
	}
	for i, b := range out.Blinds {
		if b < 0 {
			return cfg, fmt.Errorf("seat %d has negative blind", i)
		}
	}
	for i, a := range out.Antes {
		if a < 0 {
			return cfg, fmt.Errorf("seat %d has negative ante", i)
		}
	}
	return out, nil
}

// bigBlind returns the largest configured blind, the reference size for
// minimum bets in no-limit and pot-limit games.
func (cfg TableConfig) bigBlind() int64 {
	var max int64
	for _, b := range cfg.Blinds {
		if b > max {
			max = b
		}
	}
	return max
}

// smallBet returns the fixed-limit base bet.
func (cfg TableConfig) smallBet() int64 {
	if cfg.SmallBet > 0 {
		return cfg.SmallBet
	}
	return cfg.bigBlind()
}

// Variant resolves table configuration into a playable rule definition.
type Variant interface {
	// Spec returns metadata about the variant.
	Spec() VariantSpec

	// Definition validates the config and returns the resolved rules.
	Definition(cfg TableConfig) (Definition, TableConfig, error)
}

// variantRegistry holds all available variants.
var variantRegistry = make(map[string]Variant)

// RegisterVariant adds a variant to the registry.
func RegisterVariant(v Variant) {
	variantRegistry[v.Spec().ID] = v
}

// GetVariant retrieves a variant by ID.
func GetVariant(id string) (Variant, bool) {
	v, exists := variantRegistry[id]
	return v, exists
}

// ListVariants returns all registered variant IDs, sorted.
func ListVariants() []string {
	ids := make([]string, 0, len(variantRegistry))
	for id := range variantRegistry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// init registers all variants.
func init() {
	RegisterVariant(&NoLimitHoldem{})
	RegisterVariant(&FixedLimitHoldem{})
	RegisterVariant(&PotLimitOmaha{})
	RegisterVariant(&SevenCardStud{})
	RegisterVariant(&FiveCardDraw{})
}
