package agents

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/pokerzoo/pokerzoo/internal/env"
	"github.com/pokerzoo/pokerzoo/internal/poker"
)

const (
	scriptInitTimeout = 2 * time.Second
	scriptActTimeout  = 1 * time.Second

	maxScriptLogs = 500
)

// LogEntry is a single log line emitted by a script.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Script runs a user-supplied JavaScript agent in a sandboxed goja runtime.
// The script must define a global act(obs) function that returns either a
// bet amount or an object {bet, discard} where discard lists hole card
// positions to throw away.
type Script struct {
	name    string
	runtime *goja.Runtime
	mu      sync.Mutex

	logs   []LogEntry
	logsMu sync.Mutex
}

// NewScript compiles and initializes a script agent. The source runs once at
// creation so scripts can set up state; act() is then called per decision.
func NewScript(name, source string) (*Script, error) {
	a := &Script{
		name:    name,
		runtime: goja.New(),
	}
	a.injectGlobals()

	if err := a.runWithTimeout(scriptInitTimeout, func() error {
		_, err := a.runtime.RunString(source)
		return err
	}); err != nil {
		return nil, fmt.Errorf("script init: %w", err)
	}

	fn := a.runtime.Get("act")
	if fn == nil || goja.IsUndefined(fn) || goja.IsNull(fn) {
		return nil, fmt.Errorf("script does not define act()")
	}
	if _, ok := goja.AssertFunction(fn); !ok {
		return nil, fmt.Errorf("act is not a function")
	}
	return a, nil
}

// ScriptFactory wraps NewScript as an arena factory. Each seat compiles its
// own runtime so scripts cannot observe each other.
func ScriptFactory(name, source string) Factory {
	return func(seat int) (Agent, error) {
		return NewScript(name, source)
	}
}

func (a *Script) Name() string { return a.name }

// injectGlobals registers log and console.log and blocks runtime escape
// hatches.
func (a *Script) injectGlobals() {
	a.runtime.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		a.logsMu.Lock()
		if len(a.logs) >= maxScriptLogs {
			a.logs = a.logs[1:]
		}
		a.logs = append(a.logs, LogEntry{Time: time.Now(), Message: msg})
		a.logsMu.Unlock()

		return goja.Undefined()
	})

	console := a.runtime.NewObject()
	console.Set("log", a.runtime.Get("log"))
	a.runtime.Set("console", console)

	// FOLD sentinel mirroring the action encoding.
	a.runtime.Set("FOLD", -1)

	a.runtime.Set("require", goja.Undefined())
	a.runtime.Set("fetch", goja.Undefined())
	a.runtime.Set("XMLHttpRequest", goja.Undefined())
	a.runtime.Set("eval", goja.Undefined())
	a.runtime.Set("Function", goja.Undefined())
}

// Act converts the observation to a plain JS object, calls act(obs), and
// decodes the result into an action.
func (a *Script) Act(obs env.Observation) (env.Action, error) {
	jsObs, err := toPlainObject(obs)
	if err != nil {
		return env.Action{}, fmt.Errorf("encode observation: %w", err)
	}

	var result goja.Value
	err = a.runWithTimeout(scriptActTimeout, func() error {
		fn, ok := goja.AssertFunction(a.runtime.Get("act"))
		if !ok {
			return fmt.Errorf("act is not a function")
		}
		out, callErr := fn(goja.Undefined(), a.runtime.ToValue(jsObs))
		if callErr != nil {
			return fmt.Errorf("act() error: %w", callErr)
		}
		result = out
		return nil
	})
	if err != nil {
		return env.Action{}, err
	}
	return a.decodeAction(result, obs)
}

// decodeAction accepts a bare number (bet) or {bet, discard: [positions]}.
func (a *Script) decodeAction(value goja.Value, obs env.Observation) (env.Action, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return env.Action{}, fmt.Errorf("act() returned nothing")
	}

	exported := value.Export()
	switch v := exported.(type) {
	case int64:
		return env.Action{Bet: v}, nil
	case float64:
		return env.Action{Bet: int64(v)}, nil
	case map[string]any:
		var action env.Action
		if bet, ok := v["bet"]; ok {
			switch b := bet.(type) {
			case int64:
				action.Bet = b
			case float64:
				action.Bet = int64(b)
			default:
				return env.Action{}, fmt.Errorf("act() bet has type %T", bet)
			}
		}
		if discard, ok := v["discard"]; ok {
			positions, ok := discard.([]any)
			if !ok {
				return env.Action{}, fmt.Errorf("act() discard has type %T", discard)
			}
			for _, p := range positions {
				idx := -1
				switch n := p.(type) {
				case int64:
					idx = int(n)
				case float64:
					idx = int(n)
				}
				if idx < 0 || idx >= len(obs.Hole) {
					return env.Action{}, fmt.Errorf("act() discard position %v out of range", p)
				}
				action.Cards |= poker.MaskOf(obs.Hole[idx])
			}
		}
		return action, nil
	default:
		return env.Action{}, fmt.Errorf("act() returned %T", exported)
	}
}

// Logs returns a copy of the log buffer.
func (a *Script) Logs() []LogEntry {
	a.logsMu.Lock()
	defer a.logsMu.Unlock()
	out := make([]LogEntry, len(a.logs))
	copy(out, a.logs)
	return out
}

func (a *Script) runWithTimeout(timeout time.Duration, fn func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		a.runtime.Interrupt("script execution timeout")
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("script timed out: %w", err)
			}
			return fmt.Errorf("script timed out")
		case <-time.After(200 * time.Millisecond):
			return fmt.Errorf("script timed out")
		}
	}
}

// toPlainObject converts a value through JSON so that scripts see the wire
// field names rather than Go struct fields.
func toPlainObject(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
