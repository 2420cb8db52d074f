package poker

import "fmt"

// SevenCardStud implements fixed-limit seven-card stud: antes and a bring-in
// instead of blinds, two down cards and one up card to start, and a final
// down card on seventh street.
type SevenCardStud struct{}

// Spec returns metadata about the seven-card stud variant.
func (v *SevenCardStud) Spec() VariantSpec {
	return VariantSpec{
		ID:         "seven_stud",
		Name:       "Seven-Card Stud",
		MinPlayers: 2,
		MaxPlayers: 7,
		HoleCards:  7,
	}
}

// Definition resolves the stud streets under fixed-limit betting.
func (v *SevenCardStud) Definition(cfg TableConfig) (Definition, TableConfig, error) {
	clean, err := cfg.normalize(v.Spec())
	if err != nil {
		return Definition{}, cfg, err
	}
	if clean.SmallBet <= 0 {
		return Definition{}, cfg, fmt.Errorf("seven_stud requires a small bet")
	}
	if clean.BringIn <= 0 || clean.BringIn >= clean.SmallBet {
		return Definition{}, cfg, fmt.Errorf("seven_stud bring-in must be positive and below the small bet")
	}
	if clean.bigBlind() > 0 {
		return Definition{}, cfg, fmt.Errorf("seven_stud uses a bring-in, not blinds")
	}

	return Definition{
		Spec: v.Spec(),
		Streets: []Street{
			{Name: "third", HoleUpCards: []bool{false, false, true}, BetSizeMultiplier: 1},
			{Name: "fourth", HoleUpCards: []bool{true}, BetSizeMultiplier: 1},
			{Name: "fifth", HoleUpCards: []bool{true}, BetSizeMultiplier: 2},
			{Name: "sixth", HoleUpCards: []bool{true}, BetSizeMultiplier: 2},
			{Name: "seventh", HoleUpCards: []bool{false}, BetSizeMultiplier: 2},
		},
		Betting:    FixedLimit,
		RaiseCap:   4,
		UseBringIn: true,
	}, clean, nil
}
