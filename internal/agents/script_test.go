package agents

import (
	"strings"
	"testing"

	"github.com/pokerzoo/pokerzoo/internal/env"
	"github.com/pokerzoo/pokerzoo/internal/poker"
)

func TestScriptReturnsBet(t *testing.T) {
	a, err := NewScript("caller", `
		function act(obs) {
			return obs.call_amount;
		}
	`)
	if err != nil {
		t.Fatalf("NewScript: %v", err)
	}

	action, err := a.Act(bettingObs(7, 14, 100))
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	if action.Bet != 7 {
		t.Errorf("bet = %d, want 7", action.Bet)
	}
}

func TestScriptFoldSentinel(t *testing.T) {
	a, err := NewScript("nit", `
		function act(obs) {
			if (obs.call_amount > 0) return FOLD;
			return 0;
		}
	`)
	if err != nil {
		t.Fatalf("NewScript: %v", err)
	}

	action, err := a.Act(bettingObs(5, 10, 100))
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	if action.Bet != -1 {
		t.Errorf("bet = %d, want -1", action.Bet)
	}
}

func TestScriptDiscard(t *testing.T) {
	a, err := NewScript("drawer", `
		function act(obs) {
			if (obs.drawing) {
				return {bet: 0, discard: [0, 2]};
			}
			return obs.call_amount;
		}
	`)
	if err != nil {
		t.Fatalf("NewScript: %v", err)
	}

	hole := []poker.Card{
		{Rank: "2", Suit: "♦"},
		{Rank: "7", Suit: "♠"},
		{Rank: "K", Suit: "♥"},
	}
	action, err := a.Act(env.Observation{Drawing: true, MyTurn: true, Hole: hole})
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	want := poker.MaskOf(hole[0], hole[2])
	if action.Cards != want {
		t.Errorf("discard mask = %v, want %v", action.Cards, want)
	}
}

func TestScriptDiscardOutOfRange(t *testing.T) {
	a, err := NewScript("bad", `
		function act(obs) {
			return {bet: 0, discard: [9]};
		}
	`)
	if err != nil {
		t.Fatalf("NewScript: %v", err)
	}
	hole := []poker.Card{{Rank: "2", Suit: "♦"}}
	if _, err := a.Act(env.Observation{Drawing: true, Hole: hole}); err == nil {
		t.Error("Act accepted a discard position past the hole cards")
	}
}

func TestScriptMissingActFunction(t *testing.T) {
	if _, err := NewScript("empty", `var x = 1;`); err == nil {
		t.Error("NewScript accepted a script without act()")
	}
}

func TestScriptSyntaxError(t *testing.T) {
	if _, err := NewScript("broken", `function act(obs { return 0; }`); err == nil {
		t.Error("NewScript accepted invalid source")
	}
}

func TestScriptBlockedGlobals(t *testing.T) {
	for _, global := range []string{"require", "fetch", "XMLHttpRequest", "eval", "Function"} {
		src := `
			function act(obs) {
				if (typeof ` + global + ` !== "undefined") return 99;
				return 0;
			}
		`
		a, err := NewScript("probe", src)
		if err != nil {
			t.Fatalf("NewScript: %v", err)
		}
		action, err := a.Act(bettingObs(0, 2, 100))
		if err != nil {
			t.Fatalf("Act: %v", err)
		}
		if action.Bet == 99 {
			t.Errorf("global %s is reachable from scripts", global)
		}
	}
}

func TestScriptInfiniteLoopTimesOut(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timeout test in short mode")
	}
	if _, err := NewScript("spin", `while (true) {}`); err == nil {
		t.Error("NewScript did not time out on an infinite loop")
	}
}

func TestScriptLogs(t *testing.T) {
	a, err := NewScript("chatty", `
		function act(obs) {
			log("pot is", obs.pot);
			console.log("street", obs.street);
			return obs.call_amount;
		}
	`)
	if err != nil {
		t.Fatalf("NewScript: %v", err)
	}

	obs := bettingObs(2, 4, 100)
	obs.Pot = 30
	obs.Street = "flop"
	if _, err := a.Act(obs); err != nil {
		t.Fatalf("Act: %v", err)
	}

	logs := a.Logs()
	if len(logs) != 2 {
		t.Fatalf("got %d log entries, want 2", len(logs))
	}
	if !strings.Contains(logs[0].Message, "pot is 30") {
		t.Errorf("log[0] = %q, want pot line", logs[0].Message)
	}
	if !strings.Contains(logs[1].Message, "street flop") {
		t.Errorf("log[1] = %q, want street line", logs[1].Message)
	}
}

func TestScriptKeepsStateAcrossCalls(t *testing.T) {
	a, err := NewScript("counter", `
		var calls = 0;
		function act(obs) {
			calls++;
			return calls;
		}
	`)
	if err != nil {
		t.Fatalf("NewScript: %v", err)
	}
	for want := int64(1); want <= 3; want++ {
		action, err := a.Act(bettingObs(0, 2, 100))
		if err != nil {
			t.Fatalf("Act: %v", err)
		}
		if action.Bet != want {
			t.Errorf("call %d returned %d", want, action.Bet)
		}
	}
}
