package arena

import (
	"context"
	"testing"

	"github.com/pokerzoo/pokerzoo/internal/agents"
	"github.com/pokerzoo/pokerzoo/internal/engine"
	"github.com/pokerzoo/pokerzoo/internal/env"
	"github.com/pokerzoo/pokerzoo/internal/poker"
)

func holdemRequest(hands uint64) MatchRequest {
	return MatchRequest{
		Variant: "nl_holdem",
		Config: poker.TableConfig{
			Players:        2,
			Blinds:         []int64{1, 2},
			StartingStacks: []int64{200},
		},
		Seeds:  engine.Seeds{Server: "arena-server", Client: "arena-client"},
		Agents: []string{"caller-a", "caller-b"},
		Hands:  hands,
	}
}

func callerFactories(t *testing.T, n int) []agents.Factory {
	t.Helper()
	factory, err := agents.BuiltinFactory(agents.BuiltinCaller, 0)
	if err != nil {
		t.Fatalf("BuiltinFactory: %v", err)
	}
	out := make([]agents.Factory, n)
	for i := range out {
		out[i] = factory
	}
	return out
}

func TestRunDealsEveryHand(t *testing.T) {
	r := NewRunner()
	result, err := r.Run(context.Background(), holdemRequest(50), callerFactories(t, 2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Hands != 50 {
		t.Errorf("hands = %d, want 50", result.Hands)
	}
	if len(result.Records) != 50 {
		t.Fatalf("records = %d, want 50", len(result.Records))
	}
	if result.ID == "" {
		t.Error("match has no id")
	}
	if result.ServerHash == "" {
		t.Error("match has no server seed commitment")
	}

	seen := map[uint64]bool{}
	for _, rec := range result.Records {
		if seen[rec.Nonce] {
			t.Errorf("nonce %d dealt twice", rec.Nonce)
		}
		seen[rec.Nonce] = true

		total := int64(0)
		for _, r := range rec.Rewards {
			total += r
		}
		if total != 0 {
			t.Errorf("hand %d rewards sum to %d", rec.Nonce, total)
		}

		// Callers check every hand down, so the full board and both seats'
		// hole cards are on record.
		if len(rec.Board) != 5 {
			t.Errorf("hand %d board has %d cards, want 5", rec.Nonce, len(rec.Board))
		}
		if len(rec.Holes) != 2 {
			t.Fatalf("hand %d has %d hole lists, want 2", rec.Nonce, len(rec.Holes))
		}
		for seat, hole := range rec.Holes {
			if len(hole) != 2 {
				t.Errorf("hand %d seat %d recorded %d hole cards, want 2", rec.Nonce, seat, len(hole))
			}
		}
	}
	for nonce := uint64(0); nonce < 50; nonce++ {
		if !seen[nonce] {
			t.Errorf("nonce %d never dealt", nonce)
		}
	}
}

func TestRunSummaries(t *testing.T) {
	r := NewRunner()
	result, err := r.Run(context.Background(), holdemRequest(30), callerFactories(t, 2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Seats) != 2 {
		t.Fatalf("seat summaries = %d, want 2", len(result.Seats))
	}
	if result.Seats[0].Agent != "caller-a" || result.Seats[1].Agent != "caller-b" {
		t.Errorf("seat labels = %q, %q", result.Seats[0].Agent, result.Seats[1].Agent)
	}

	total := int64(0)
	for _, seat := range result.Seats {
		total += seat.TotalReward
		if seat.MinReward > seat.MaxReward {
			t.Errorf("seat %d min %d > max %d", seat.Seat, seat.MinReward, seat.MaxReward)
		}
	}
	if total != 0 {
		t.Errorf("seat totals sum to %d, want 0", total)
	}
}

func TestBigBetSizeIgnoresZeroPadding(t *testing.T) {
	cases := []struct {
		name   string
		config poker.TableConfig
		want   int64
	}{
		{"blinds", poker.TableConfig{Blinds: []int64{1, 2}}, 2},
		{"zero padded blinds", poker.TableConfig{Blinds: []int64{1, 2, 0, 0}}, 2},
		{"bring-in", poker.TableConfig{SmallBet: 4}, 4},
	}
	for _, tc := range cases {
		if got := bigBetSize(tc.config); got != tc.want {
			t.Errorf("%s: bigBetSize = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	r := NewRunner()
	req := holdemRequest(20)

	a, err := r.Run(context.Background(), req, callerFactories(t, 2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := r.Run(context.Background(), req, callerFactories(t, 2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for i := range a.Records {
		x, y := a.Records[i], b.Records[i]
		if x.Nonce != y.Nonce {
			t.Fatalf("record %d nonce %d vs %d", i, x.Nonce, y.Nonce)
		}
		for seat := range x.Rewards {
			if x.Rewards[seat] != y.Rewards[seat] {
				t.Errorf("hand %d seat %d reward %d vs %d", x.Nonce, seat, x.Rewards[seat], y.Rewards[seat])
			}
		}
	}
}

func TestRunHandStartOffset(t *testing.T) {
	r := NewRunner()
	req := holdemRequest(10)
	req.HandStart = 100
	result, err := r.Run(context.Background(), req, callerFactories(t, 2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Records[0].Nonce != 100 {
		t.Errorf("first nonce = %d, want 100", result.Records[0].Nonce)
	}
	if last := result.Records[len(result.Records)-1].Nonce; last != 109 {
		t.Errorf("last nonce = %d, want 109", last)
	}
}

func TestRunRejectsBadRequests(t *testing.T) {
	r := NewRunner()

	req := holdemRequest(0)
	if _, err := r.Run(context.Background(), req, callerFactories(t, 2)); err == nil {
		t.Error("Run accepted zero hands")
	}

	req = holdemRequest(10)
	if _, err := r.Run(context.Background(), req, callerFactories(t, 3)); err == nil {
		t.Error("Run accepted a factory count that does not match the seats")
	}

	req = holdemRequest(10)
	req.Variant = "nope"
	if _, err := r.Run(context.Background(), req, callerFactories(t, 2)); err == nil {
		t.Error("Run accepted an unknown variant")
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner()
	if _, err := r.Run(ctx, holdemRequest(1000), callerFactories(t, 2)); err == nil {
		t.Error("Run ignored a cancelled context")
	}
}

// misbehaving always bets one chip over the call, which is never legal.
type misbehaving struct{}

func (misbehaving) Name() string { return "misbehaving" }

func (misbehaving) Act(obs env.Observation) (env.Action, error) {
	if obs.Drawing {
		return env.Action{}, nil
	}
	return env.Action{Bet: obs.CallAmount + 1}, nil
}

func TestRunSurvivesMisbehavingAgent(t *testing.T) {
	factory, err := agents.BuiltinFactory(agents.BuiltinCaller, 0)
	if err != nil {
		t.Fatalf("BuiltinFactory: %v", err)
	}
	factories := []agents.Factory{
		func(seat int) (agents.Agent, error) { return misbehaving{}, nil },
		factory,
	}

	r := NewRunner()
	result, err := r.Run(context.Background(), holdemRequest(10), factories)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Hands != 10 {
		t.Errorf("hands = %d, want 10", result.Hands)
	}
	// The offender eats penalties and forced folds; it cannot come out ahead.
	if result.Seats[0].TotalReward >= 0 {
		t.Errorf("misbehaving seat won %d chips", result.Seats[0].TotalReward)
	}
}

func TestRunScriptedSeat(t *testing.T) {
	factory, err := agents.BuiltinFactory(agents.BuiltinCaller, 0)
	if err != nil {
		t.Fatalf("BuiltinFactory: %v", err)
	}
	factories := []agents.Factory{
		agents.ScriptFactory("js-caller", `function act(obs) { return obs.call_amount; }`),
		factory,
	}

	r := NewRunner()
	result, err := r.Run(context.Background(), holdemRequest(10), factories)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Hands != 10 {
		t.Errorf("hands = %d, want 10", result.Hands)
	}
}
