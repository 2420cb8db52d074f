package poker

import (
	"errors"
	"testing"
)

// identityDeck deals cards in index order, which makes every test hand
// predictable: ♦2 ♥2 ♠2 ♣2 ♦3 ♥3 ♠3 ♣3 ♦4 ...
func identityDeck() []int {
	order := make([]int, DeckSize)
	for i := range order {
		order[i] = i
	}
	return order
}

func newHand(t *testing.T, variantID string, cfg TableConfig) *State {
	t.Helper()
	variant, ok := GetVariant(variantID)
	if !ok {
		t.Fatalf("variant %s not registered", variantID)
	}
	def, clean, err := variant.Definition(cfg)
	if err != nil {
		t.Fatalf("Definition() error: %v", err)
	}
	state, err := NewState(def, clean, identityDeck())
	if err != nil {
		t.Fatalf("NewState() error: %v", err)
	}
	return state
}

func headsUpHoldem(t *testing.T) *State {
	t.Helper()
	return newHand(t, "nl_holdem", TableConfig{
		Players:        2,
		Blinds:         []int64{1, 2},
		StartingStacks: []int64{200},
	})
}

func TestHoldemHeadsUpTurnOrder(t *testing.T) {
	s := headsUpHoldem(t)

	// Heads up, the small blind is the button and acts first preflop.
	if s.ActorIndex() != 0 {
		t.Fatalf("preflop actor = %d, want 0", s.ActorIndex())
	}
	if got := s.CheckingOrCallingAmount(); got != 1 {
		t.Errorf("small blind owes %d to call, want 1", got)
	}
	if got := s.MinCompletionBettingOrRaisingToAmount(); got != 4 {
		t.Errorf("min raise-to = %d, want 4", got)
	}
	if got := s.MaxCompletionBettingOrRaisingToAmount(); got != 200 {
		t.Errorf("max raise-to = %d, want 200 (all-in)", got)
	}

	if err := s.CheckOrCall(); err != nil {
		t.Fatalf("call: %v", err)
	}

	// Big blind has the option.
	if s.ActorIndex() != 1 {
		t.Fatalf("actor after call = %d, want 1", s.ActorIndex())
	}
	if got := s.CheckingOrCallingAmount(); got != 0 {
		t.Errorf("big blind owes %d, want 0", got)
	}
	if err := s.CheckOrCall(); err != nil {
		t.Fatalf("check: %v", err)
	}

	// Flop: big blind acts first heads up.
	if s.StreetName() != "flop" {
		t.Fatalf("street = %s, want flop", s.StreetName())
	}
	if len(s.Board()) != 3 {
		t.Fatalf("board has %d cards, want 3", len(s.Board()))
	}
	if s.ActorIndex() != 1 {
		t.Errorf("flop actor = %d, want 1", s.ActorIndex())
	}
	if got := s.Pot(); got != 4 {
		t.Errorf("pot = %d, want 4", got)
	}
}

func TestHoldemCheckedDownSplitsPot(t *testing.T) {
	s := headsUpHoldem(t)

	// Call, then check every street to showdown. With the identity deck the
	// board runs ♦3♥3♠3 ♣3 ♦4: both seats play the board and split.
	if err := s.CheckOrCall(); err != nil {
		t.Fatal(err)
	}
	for s.Status() {
		if err := s.CheckOrCall(); err != nil {
			t.Fatal(err)
		}
	}

	payouts := s.Payouts()
	if payouts[0] != 0 || payouts[1] != 0 {
		t.Errorf("board-playing hands should split: payouts = %v", payouts)
	}
}

func TestFoldEndsHandImmediately(t *testing.T) {
	s := headsUpHoldem(t)

	if err := s.Fold(); err != nil {
		t.Fatalf("fold: %v", err)
	}
	if s.Status() {
		t.Fatal("hand should be complete after the only opponent folds")
	}

	payouts := s.Payouts()
	if payouts[0] != -1 || payouts[1] != 1 {
		t.Errorf("payouts = %v, want [-1 1]", payouts)
	}
}

func TestRaiseAndCall(t *testing.T) {
	s := headsUpHoldem(t)

	if err := s.CompleteBetOrRaiseTo(6); err != nil {
		t.Fatalf("raise to 6: %v", err)
	}
	if got := s.CheckingOrCallingAmount(); got != 4 {
		t.Errorf("big blind owes %d, want 4", got)
	}
	// Min re-raise is the raise size again: 6 + 4 = 10.
	if got := s.MinCompletionBettingOrRaisingToAmount(); got != 10 {
		t.Errorf("min re-raise-to = %d, want 10", got)
	}
	if err := s.CheckOrCall(); err != nil {
		t.Fatal(err)
	}
	if got := s.Pot(); got != 12 {
		t.Errorf("pot = %d, want 12", got)
	}
}

func TestBetOutOfRangeRejected(t *testing.T) {
	s := headsUpHoldem(t)

	err := s.CompleteBetOrRaiseTo(3) // below min raise-to of 4
	if !errors.Is(err, ErrBetOutOfRange) {
		t.Errorf("expected ErrBetOutOfRange, got %v", err)
	}
	err = s.CompleteBetOrRaiseTo(1000) // above stack
	if !errors.Is(err, ErrBetOutOfRange) {
		t.Errorf("expected ErrBetOutOfRange, got %v", err)
	}

	// Illegal attempts must not change whose turn it is.
	if s.ActorIndex() != 0 {
		t.Errorf("actor changed after rejected bets: %d", s.ActorIndex())
	}
	if got := s.Pot(); got != 3 {
		t.Errorf("pot changed after rejected bets: %d", got)
	}
}

func TestOperationsAfterHandComplete(t *testing.T) {
	s := headsUpHoldem(t)
	if err := s.Fold(); err != nil {
		t.Fatal(err)
	}

	if err := s.Fold(); !errors.Is(err, ErrHandComplete) {
		t.Errorf("Fold after completion: %v", err)
	}
	if err := s.CheckOrCall(); !errors.Is(err, ErrHandComplete) {
		t.Errorf("CheckOrCall after completion: %v", err)
	}
	if err := s.CompleteBetOrRaiseTo(10); !errors.Is(err, ErrHandComplete) {
		t.Errorf("CompleteBetOrRaiseTo after completion: %v", err)
	}
}

func TestChipConservation(t *testing.T) {
	cfgs := []struct {
		variant string
		cfg     TableConfig
	}{
		{"nl_holdem", TableConfig{Players: 4, Blinds: []int64{1, 2}, StartingStacks: []int64{100}}},
		{"fl_holdem", TableConfig{Players: 3, Blinds: []int64{1, 2}, StartingStacks: []int64{50}}},
		{"pl_omaha", TableConfig{Players: 3, Blinds: []int64{1, 2}, StartingStacks: []int64{80}}},
		{"five_draw", TableConfig{Players: 2, Blinds: []int64{1, 2}, StartingStacks: []int64{60}}},
	}

	for _, tc := range cfgs {
		t.Run(tc.variant, func(t *testing.T) {
			s := newHand(t, tc.variant, tc.cfg)

			// Call everything down to showdown, standing pat on draws.
			for s.Status() {
				switch {
				case s.StanderPatOrDiscarderIndex() >= 0:
					if err := s.StandPatOrDiscard(0); err != nil {
						t.Fatalf("stand pat: %v", err)
					}
				case s.ActorIndex() >= 0:
					if err := s.CheckOrCall(); err != nil {
						t.Fatalf("call: %v", err)
					}
				default:
					t.Fatal("hand live but nobody to act")
				}
			}

			var sum int64
			for _, p := range s.Payouts() {
				sum += p
			}
			if sum != 0 {
				t.Errorf("payouts do not net to zero: %v", s.Payouts())
			}
		})
	}
}

func TestAllInCreatesSidePot(t *testing.T) {
	s := newHand(t, "nl_holdem", TableConfig{
		Players:        3,
		Blinds:         []int64{1, 2},
		StartingStacks: []int64{10, 100, 100},
	})

	// Seat 2 opens the action preflop.
	if s.ActorIndex() != 2 {
		t.Fatalf("preflop actor = %d, want 2", s.ActorIndex())
	}
	if err := s.CompleteBetOrRaiseTo(30); err != nil {
		t.Fatal(err)
	}

	// Seat 0 calls all-in for its 10; the max raise-to is capped there too.
	if got := s.MaxCompletionBettingOrRaisingToAmount(); got != 0 {
		// seat 0 cannot raise: its all-in of 10 is below the current bet
		t.Errorf("short stack max raise-to = %d, want 0", got)
	}
	if err := s.CheckOrCall(); err != nil {
		t.Fatal(err)
	}
	if err := s.CheckOrCall(); err != nil { // seat 1 calls 30
		t.Fatal(err)
	}

	// Betting continues heads up between seats 1 and 2 on later streets.
	for s.Status() {
		if err := s.CheckOrCall(); err != nil {
			t.Fatal(err)
		}
	}

	var sum int64
	for _, p := range s.Payouts() {
		sum += p
	}
	if sum != 0 {
		t.Errorf("payouts do not net to zero with side pot: %v", s.Payouts())
	}
	// The short stack can win at most 10 from each opponent.
	if s.Payouts()[0] > 20 {
		t.Errorf("short stack won more than the main pot allows: %v", s.Payouts())
	}
}

func TestFoldedChipsAboveAllInLevelStayInPot(t *testing.T) {
	s := newHand(t, "nl_holdem", TableConfig{
		Players:        4,
		Blinds:         []int64{1, 2},
		StartingStacks: []int64{100, 100, 10, 10},
	})

	// Both short stacks go in for 10, the deep seats build a bigger pot on
	// top, then release on the flop. Their folded chips still belong to the
	// showdown between the all-in seats.
	if err := s.CompleteBetOrRaiseTo(10); err != nil { // seat 2 all-in
		t.Fatal(err)
	}
	if err := s.CheckOrCall(); err != nil { // seat 3 calls all-in
		t.Fatal(err)
	}
	if err := s.CompleteBetOrRaiseTo(50); err != nil { // seat 0
		t.Fatal(err)
	}
	if err := s.CheckOrCall(); err != nil { // seat 1 calls 50
		t.Fatal(err)
	}

	if s.StreetName() != "flop" {
		t.Fatalf("street = %s, want flop", s.StreetName())
	}
	if err := s.Fold(); err != nil { // seat 0
		t.Fatal(err)
	}
	if err := s.Fold(); err != nil { // seat 1
		t.Fatal(err)
	}

	if s.Status() {
		t.Fatal("hand should have run out between the all-in seats")
	}

	payouts := s.Payouts()
	var sum int64
	for _, p := range payouts {
		sum += p
	}
	if sum != 0 {
		t.Fatalf("payouts do not net to zero: %v", payouts)
	}
	var stacks int64
	for _, st := range s.Stacks() {
		stacks += st
	}
	if stacks != 220 {
		t.Errorf("stacks sum to %d after showdown, want 220", stacks)
	}
	// With the identity deck both all-in seats play quad fours off the board
	// and split everything, including the folded 50s.
	if payouts[2] != 50 || payouts[3] != 50 {
		t.Errorf("all-in seats should split the full pot: payouts = %v", payouts)
	}
}

func TestUncalledBetRefunded(t *testing.T) {
	s := newHand(t, "nl_holdem", TableConfig{
		Players:        2,
		Blinds:         []int64{1, 2},
		StartingStacks: []int64{200, 50},
	})

	// Seat 0 shoves 200; seat 1 can only cover 50, calls all-in.
	if err := s.CompleteBetOrRaiseTo(200); err != nil {
		t.Fatal(err)
	}
	if err := s.CheckOrCall(); err != nil {
		t.Fatal(err)
	}

	// The hand runs out automatically; nobody can lose more than 50.
	if s.Status() {
		t.Fatal("hand should have run out after the all-in call")
	}
	payouts := s.Payouts()
	if payouts[0] < -50 || payouts[0] > 50 {
		t.Errorf("seat 0 net %d exceeds the covered 50", payouts[0])
	}
	if payouts[0]+payouts[1] != 0 {
		t.Errorf("payouts do not net to zero: %v", payouts)
	}
}

func TestFixedLimitExactAmounts(t *testing.T) {
	s := newHand(t, "fl_holdem", TableConfig{
		Players:        3,
		Blinds:         []int64{1, 2},
		StartingStacks: []int64{100},
	})

	// Preflop raise must be exactly one small bet on top: 2 + 2 = 4.
	min := s.MinCompletionBettingOrRaisingToAmount()
	max := s.MaxCompletionBettingOrRaisingToAmount()
	if min != 4 || max != 4 {
		t.Fatalf("fixed-limit window = [%d, %d], want [4, 4]", min, max)
	}
	if err := s.CompleteBetOrRaiseTo(5); !errors.Is(err, ErrBetOutOfRange) {
		t.Errorf("off-size raise: %v", err)
	}
	if err := s.CompleteBetOrRaiseTo(4); err != nil {
		t.Fatal(err)
	}
}

func TestFixedLimitRaiseCap(t *testing.T) {
	s := newHand(t, "fl_holdem", TableConfig{
		Players:        2,
		Blinds:         []int64{1, 2},
		StartingStacks: []int64{500},
	})

	// Raise back and forth until the cap.
	raises := 0
	for s.CanCompleteBetOrRaise() {
		min := s.MinCompletionBettingOrRaisingToAmount()
		if err := s.CompleteBetOrRaiseTo(min); err != nil {
			t.Fatalf("raise %d: %v", raises, err)
		}
		raises++
		if raises > 10 {
			t.Fatal("raise cap never engaged")
		}
	}
	if raises != 4 {
		t.Errorf("got %d raises before the cap, want 4", raises)
	}
	if err := s.CompleteBetOrRaiseTo(100); !errors.Is(err, ErrRaiseCapped) {
		t.Errorf("expected ErrRaiseCapped, got %v", err)
	}
}

func TestFiveCardDrawPhase(t *testing.T) {
	s := newHand(t, "five_draw", TableConfig{
		Players:        2,
		Blinds:         []int64{1, 2},
		StartingStacks: []int64{100},
	})

	// Predraw betting: call and check through.
	if err := s.CheckOrCall(); err != nil {
		t.Fatal(err)
	}
	if err := s.CheckOrCall(); err != nil {
		t.Fatal(err)
	}

	// Draw phase.
	seat := s.StanderPatOrDiscarderIndex()
	if seat != 0 {
		t.Fatalf("first to draw = %d, want 0", seat)
	}
	hole, _ := s.HoleCards(seat)
	if len(hole) != 5 {
		t.Fatalf("expected 5 hole cards, got %d", len(hole))
	}

	// Discard two cards; the hand must be refilled to five.
	discards := MaskOf(hole[0], hole[1])
	if err := s.StandPatOrDiscard(discards); err != nil {
		t.Fatalf("discard: %v", err)
	}
	newHole, _ := s.HoleCards(seat)
	if len(newHole) != 5 {
		t.Errorf("hand has %d cards after draw, want 5", len(newHole))
	}
	for _, card := range newHole {
		if discards.Has(card.Index()) {
			t.Errorf("discarded card %s still in hand", card)
		}
	}

	// Discarding cards you do not hold is rejected.
	other, _ := s.HoleCards(1)
	if s.StanderPatOrDiscarderIndex() != 1 {
		t.Fatalf("second drawer = %d, want 1", s.StanderPatOrDiscarderIndex())
	}
	if err := s.StandPatOrDiscard(MaskOf(newHole[0])); !errors.Is(err, ErrBadDiscard) {
		t.Errorf("discarding an opponent card: %v", err)
	}
	if err := s.StandPatOrDiscard(MaskOf(other[0])); err != nil {
		t.Fatal(err)
	}

	// Postdraw betting, then showdown.
	for s.Status() {
		if err := s.CheckOrCall(); err != nil {
			t.Fatal(err)
		}
	}
	var sum int64
	for _, p := range s.Payouts() {
		sum += p
	}
	if sum != 0 {
		t.Errorf("payouts do not net to zero: %v", s.Payouts())
	}
}

func TestSevenStudBringIn(t *testing.T) {
	s := newHand(t, "seven_stud", TableConfig{
		Players:        3,
		Antes:          []int64{1},
		AnteTrimming:   true,
		BringIn:        2,
		SmallBet:       4,
		StartingStacks: []int64{100},
	})

	// Identity deck third street: up cards are ♠3, ♣3, ♦4. Seats 0 and 1
	// both show a three; ♣ orders below ♠, so seat 1 posts the bring-in and
	// seat 2 acts next.
	if s.ActorIndex() != 2 {
		t.Fatalf("actor after bring-in = %d, want 2", s.ActorIndex())
	}
	if got := s.CheckingOrCallingAmount(); got != 2 {
		t.Errorf("call amount = %d, want the bring-in 2", got)
	}

	// First aggressive action completes to exactly the small bet.
	min := s.MinCompletionBettingOrRaisingToAmount()
	max := s.MaxCompletionBettingOrRaisingToAmount()
	if min != 4 || max != 4 {
		t.Errorf("completion window = [%d, %d], want [4, 4]", min, max)
	}

	// Pot holds the three antes plus the live bring-in bet.
	if got := s.Pot(); got != 5 {
		t.Errorf("pot = %d, want 5", got)
	}
}

func TestSevenStudPlaysToShowdown(t *testing.T) {
	s := newHand(t, "seven_stud", TableConfig{
		Players:        2,
		Antes:          []int64{1},
		AnteTrimming:   true,
		BringIn:        2,
		SmallBet:       4,
		StartingStacks: []int64{100},
	})

	for s.Status() {
		if err := s.CheckOrCall(); err != nil {
			t.Fatal(err)
		}
	}

	// Each player should hold seven cards at showdown.
	for seat := 0; seat < 2; seat++ {
		hole, up := s.HoleCards(seat)
		if len(hole) != 7 {
			t.Errorf("seat %d has %d cards, want 7", seat, len(hole))
		}
		downs := 0
		for _, isUp := range up {
			if !isUp {
				downs++
			}
		}
		if downs != 3 {
			t.Errorf("seat %d has %d down cards, want 3", seat, downs)
		}
	}

	var sum int64
	for _, p := range s.Payouts() {
		sum += p
	}
	if sum != 0 {
		t.Errorf("payouts do not net to zero: %v", s.Payouts())
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() []int64 {
		s := newHand(t, "nl_holdem", TableConfig{
			Players:        3,
			Blinds:         []int64{1, 2},
			StartingStacks: []int64{100},
		})
		if err := s.CompleteBetOrRaiseTo(6); err != nil {
			t.Fatal(err)
		}
		if err := s.Fold(); err != nil {
			t.Fatal(err)
		}
		for s.Status() {
			if err := s.CheckOrCall(); err != nil {
				t.Fatal(err)
			}
		}
		return s.Payouts()
	}

	first := run()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("replay diverged: %v vs %v", first, second)
		}
	}
}
