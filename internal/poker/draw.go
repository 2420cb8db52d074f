package poker

import "fmt"

// FiveCardDraw implements no-limit five-card draw: five down cards, a betting
// round, one discard-and-replace phase, and a final betting round.
type FiveCardDraw struct{}

// Spec returns metadata about the five-card draw variant.
func (v *FiveCardDraw) Spec() VariantSpec {
	return VariantSpec{
		ID:         "five_draw",
		Name:       "No-Limit Five-Card Draw",
		MinPlayers: 2,
		MaxPlayers: 6,
		HoleCards:  5,
	}
}

// Definition resolves the draw streets under no-limit betting.
func (v *FiveCardDraw) Definition(cfg TableConfig) (Definition, TableConfig, error) {
	clean, err := cfg.normalize(v.Spec())
	if err != nil {
		return Definition{}, cfg, err
	}
	if clean.bigBlind() <= 0 {
		return Definition{}, cfg, fmt.Errorf("five_draw requires blinds")
	}

	return Definition{
		Spec: v.Spec(),
		Streets: []Street{
			{Name: "predraw", HoleUpCards: []bool{false, false, false, false, false}, BetSizeMultiplier: 1},
			{Name: "postdraw", Draw: true, BetSizeMultiplier: 2},
		},
		Betting:   NoLimit,
		UseBlinds: true,
	}, clean, nil
}
