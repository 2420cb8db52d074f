package poker

import "fmt"

// NoLimitHoldem implements no-limit Texas hold'em.
type NoLimitHoldem struct{}

// Spec returns metadata about the no-limit hold'em variant.
func (v *NoLimitHoldem) Spec() VariantSpec {
	return VariantSpec{
		ID:         "nl_holdem",
		Name:       "No-Limit Texas Hold'em",
		MinPlayers: 2,
		MaxPlayers: 9,
		HoleCards:  2,
	}
}

// Definition resolves the hold'em streets under no-limit betting.
func (v *NoLimitHoldem) Definition(cfg TableConfig) (Definition, TableConfig, error) {
	clean, err := cfg.normalize(v.Spec())
	if err != nil {
		return Definition{}, cfg, err
	}
	if clean.bigBlind() <= 0 {
		return Definition{}, cfg, fmt.Errorf("nl_holdem requires blinds")
	}

	return Definition{
		Spec:      v.Spec(),
		Streets:   holdemStreets(2),
		Betting:   NoLimit,
		UseBlinds: true,
	}, clean, nil
}

// FixedLimitHoldem implements fixed-limit Texas hold'em with a four-bet cap.
type FixedLimitHoldem struct{}

// Spec returns metadata about the fixed-limit hold'em variant.
func (v *FixedLimitHoldem) Spec() VariantSpec {
	return VariantSpec{
		ID:         "fl_holdem",
		Name:       "Fixed-Limit Texas Hold'em",
		MinPlayers: 2,
		MaxPlayers: 9,
		HoleCards:  2,
	}
}

// Definition resolves the hold'em streets under fixed-limit betting.
func (v *FixedLimitHoldem) Definition(cfg TableConfig) (Definition, TableConfig, error) {
	clean, err := cfg.normalize(v.Spec())
	if err != nil {
		return Definition{}, cfg, err
	}
	if clean.smallBet() <= 0 {
		return Definition{}, cfg, fmt.Errorf("fl_holdem requires blinds or a small bet")
	}

	return Definition{
		Spec:      v.Spec(),
		Streets:   holdemStreets(2),
		Betting:   FixedLimit,
		RaiseCap:  4,
		UseBlinds: true,
	}, clean, nil
}

// holdemStreets builds the preflop/flop/turn/river street plan for a board
// game dealing holeCount face-down cards preflop.
func holdemStreets(holeCount int) []Street {
	hole := make([]bool, holeCount) // all face down
	return []Street{
		{Name: "preflop", HoleUpCards: hole, BetSizeMultiplier: 1},
		{Name: "flop", BoardDealCount: 3, BetSizeMultiplier: 1},
		{Name: "turn", BoardDealCount: 1, BetSizeMultiplier: 2},
		{Name: "river", BoardDealCount: 1, BetSizeMultiplier: 2},
	}
}
