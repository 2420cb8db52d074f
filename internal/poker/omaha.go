package poker

import "fmt"

// PotLimitOmaha implements pot-limit Omaha: four hole cards, showdown hands
// built from exactly two of them.
type PotLimitOmaha struct{}

// Spec returns metadata about the pot-limit Omaha variant.
func (v *PotLimitOmaha) Spec() VariantSpec {
	return VariantSpec{
		ID:         "pl_omaha",
		Name:       "Pot-Limit Omaha",
		MinPlayers: 2,
		MaxPlayers: 9,
		HoleCards:  4,
	}
}

// Definition resolves the Omaha streets under pot-limit betting.
func (v *PotLimitOmaha) Definition(cfg TableConfig) (Definition, TableConfig, error) {
	clean, err := cfg.normalize(v.Spec())
	if err != nil {
		return Definition{}, cfg, err
	}
	if clean.bigBlind() <= 0 {
		return Definition{}, cfg, fmt.Errorf("pl_omaha requires blinds")
	}

	return Definition{
		Spec:         v.Spec(),
		Streets:      holdemStreets(4),
		Betting:      PotLimit,
		UseBlinds:    true,
		OmahaScoring: true,
	}, clean, nil
}
