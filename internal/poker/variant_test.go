package poker

import "testing"

func TestAllVariantsRegistered(t *testing.T) {
	want := []string{"five_draw", "fl_holdem", "nl_holdem", "pl_omaha", "seven_stud"}

	ids := ListVariants()
	if len(ids) != len(want) {
		t.Fatalf("got %d variants, want %d: %v", len(ids), len(want), ids)
	}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("ListVariants()[%d] = %s, want %s", i, ids[i], id)
		}
	}

	for _, id := range want {
		variant, ok := GetVariant(id)
		if !ok {
			t.Errorf("%s should be registered", id)
			continue
		}
		if variant.Spec().ID != id {
			t.Errorf("%s spec ID mismatch: %s", id, variant.Spec().ID)
		}
	}

	if _, ok := GetVariant("razz"); ok {
		t.Error("unregistered variant should not resolve")
	}
}

func TestConfigBroadcasting(t *testing.T) {
	variant, _ := GetVariant("nl_holdem")

	_, clean, err := variant.Definition(TableConfig{
		Players:        4,
		Blinds:         []int64{1, 2},
		StartingStacks: []int64{100},
	})
	if err != nil {
		t.Fatalf("Definition() error: %v", err)
	}

	if len(clean.Blinds) != 4 || clean.Blinds[2] != 0 || clean.Blinds[3] != 0 {
		t.Errorf("blinds should be zero-padded: %v", clean.Blinds)
	}
	for seat, stack := range clean.StartingStacks {
		if stack != 100 {
			t.Errorf("seat %d stack = %d, want broadcast 100", seat, stack)
		}
	}
}

func TestAnteBroadcasting(t *testing.T) {
	variant, _ := GetVariant("seven_stud")

	// Uniform antes: a single value repeats across every seat.
	_, clean, err := variant.Definition(TableConfig{
		Players:        3,
		Antes:          []int64{1},
		AnteTrimming:   true,
		BringIn:        2,
		SmallBet:       4,
		StartingStacks: []int64{100},
	})
	if err != nil {
		t.Fatalf("Definition() error: %v", err)
	}
	for seat, ante := range clean.Antes {
		if ante != 1 {
			t.Errorf("seat %d ante = %d, want 1", seat, ante)
		}
	}

	// Positional antes: the list is taken as given, zero-padded.
	_, clean, err = variant.Definition(TableConfig{
		Players:        3,
		Antes:          []int64{0, 3},
		BringIn:        2,
		SmallBet:       4,
		StartingStacks: []int64{100},
	})
	if err != nil {
		t.Fatalf("Definition() error: %v", err)
	}
	if clean.Antes[0] != 0 || clean.Antes[1] != 3 || clean.Antes[2] != 0 {
		t.Errorf("positional antes = %v, want [0 3 0]", clean.Antes)
	}
}

func TestVariantConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		variant string
		cfg     TableConfig
	}{
		{
			name:    "too many players",
			variant: "nl_holdem",
			cfg:     TableConfig{Players: 10, Blinds: []int64{1, 2}, StartingStacks: []int64{100}},
		},
		{
			name:    "too few players",
			variant: "nl_holdem",
			cfg:     TableConfig{Players: 1, Blinds: []int64{1, 2}, StartingStacks: []int64{100}},
		},
		{
			name:    "holdem without blinds",
			variant: "nl_holdem",
			cfg:     TableConfig{Players: 2, StartingStacks: []int64{100}},
		},
		{
			name:    "stud without bring-in",
			variant: "seven_stud",
			cfg:     TableConfig{Players: 3, SmallBet: 4, StartingStacks: []int64{100}},
		},
		{
			name:    "stud bring-in above small bet",
			variant: "seven_stud",
			cfg:     TableConfig{Players: 3, SmallBet: 4, BringIn: 5, StartingStacks: []int64{100}},
		},
		{
			name:    "stud with blinds",
			variant: "seven_stud",
			cfg:     TableConfig{Players: 3, SmallBet: 4, BringIn: 2, Blinds: []int64{1, 2}, StartingStacks: []int64{100}},
		},
		{
			name:    "empty stack",
			variant: "nl_holdem",
			cfg:     TableConfig{Players: 2, Blinds: []int64{1, 2}},
		},
		{
			name:    "negative blind",
			variant: "nl_holdem",
			cfg:     TableConfig{Players: 2, Blinds: []int64{-1, 2}, StartingStacks: []int64{100}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			variant, ok := GetVariant(tt.variant)
			if !ok {
				t.Fatalf("variant %s not registered", tt.variant)
			}
			if _, _, err := variant.Definition(tt.cfg); err == nil {
				t.Error("expected a config validation error")
			}
		})
	}
}
