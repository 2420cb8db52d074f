package arena

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/pokerzoo/pokerzoo/internal/agents"
	"github.com/pokerzoo/pokerzoo/internal/engine"
	"github.com/pokerzoo/pokerzoo/internal/env"
	"github.com/pokerzoo/pokerzoo/internal/poker"
)

// stepCap bounds the steps of one hand so a misbehaving agent cannot wedge a
// worker. A full-ring stud hand with maximal raising stays well under this.
const stepCap = 1000

// handBatch is the number of hands per worker job.
const handBatch = 64

// MatchRequest describes a self-play match: a variant, a table, the agents
// seated at it, and how many hands to deal.
type MatchRequest struct {
	Variant   string            `json:"variant"`
	Config    poker.TableConfig `json:"config"`
	Seeds     engine.Seeds      `json:"seeds"`
	Agents    []string          `json:"agents,omitempty"` // per-seat labels for summaries
	Hands     uint64            `json:"hands"`
	HandStart uint64            `json:"hand_start,omitempty"`
	TimeoutMs int               `json:"timeout_ms,omitempty"`
	Workers   int               `json:"workers,omitempty"`
}

// HandRecord is the outcome of one dealt hand, including the final board and
// every seat's hole cards for replaying the showdown.
type HandRecord struct {
	Nonce   uint64         `json:"nonce"`
	Rewards []int64        `json:"rewards"`
	Steps   int            `json:"steps"`
	Board   []poker.Card   `json:"board,omitempty"`
	Holes   [][]poker.Card `json:"holes,omitempty"`
}

// SeatSummary aggregates one seat's results across the match.
type SeatSummary struct {
	Seat        int             `json:"seat"`
	Agent       string          `json:"agent"`
	TotalReward int64           `json:"total_reward"`
	MinReward   int64           `json:"min_reward"`
	MaxReward   int64           `json:"max_reward"`
	HandsWon    int             `json:"hands_won"`
	BBPer100    decimal.Decimal `json:"bb_per_100"`
}

// MatchResult is the complete outcome of a match.
type MatchResult struct {
	ID         string        `json:"id"`
	Variant    string        `json:"variant"`
	Hands      uint64        `json:"hands"`
	Seats      []SeatSummary `json:"seats"`
	Records    []HandRecord  `json:"records,omitempty"`
	ElapsedMs  int64         `json:"elapsed_ms"`
	TimedOut   bool          `json:"timed_out,omitempty"`
	ServerHash string        `json:"server_hash,omitempty"`
}

// handJob is a batch of hand nonces for one worker.
type handJob struct {
	start uint64
	end   uint64
}

// Runner deals matches across a worker pool. Each worker owns its own
// environment and agent instances, so hands in a batch share no state with
// other workers.
type Runner struct {
	workerCount int
}

// NewRunner creates a runner sized to the machine.
func NewRunner() *Runner {
	return &Runner{workerCount: runtime.GOMAXPROCS(0)}
}

// Run deals req.Hands hands and aggregates per-seat results. The factories
// seat one agent per table position; len(factories) must match the table.
func (r *Runner) Run(ctx context.Context, req MatchRequest, factories []agents.Factory) (*MatchResult, error) {
	if req.Hands == 0 {
		return nil, fmt.Errorf("match needs at least one hand")
	}
	if len(factories) != req.Config.Players {
		return nil, fmt.Errorf("%d agents for %d seats", len(factories), req.Config.Players)
	}
	if _, ok := poker.GetVariant(req.Variant); !ok {
		return nil, fmt.Errorf("unknown variant %q", req.Variant)
	}

	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	workers := req.Workers
	if workers <= 0 {
		workers = r.workerCount
	}

	started := time.Now()
	jobs := make(chan handJob, workers*2)
	records := make(chan HandRecord, 256)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return r.runWorker(ctx, req, factories, jobs, records)
		})
	}

	go func() {
		defer close(jobs)
		end := req.HandStart + req.Hands - 1
		for current := req.HandStart; current <= end; {
			batchEnd := current + handBatch - 1
			if batchEnd > end {
				batchEnd = end
			}
			select {
			case jobs <- handJob{start: current, end: batchEnd}:
				current = batchEnd + 1
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close the record stream once every worker is done.
	var collectErr error
	collected := make([]HandRecord, 0, req.Hands)
	var collectWg sync.WaitGroup
	collectWg.Add(1)
	go func() {
		defer collectWg.Done()
		for rec := range records {
			collected = append(collected, rec)
		}
	}()

	collectErr = g.Wait()
	close(records)
	collectWg.Wait()

	timedOut := ctx.Err() == context.DeadlineExceeded
	if collectErr != nil && !timedOut {
		return nil, collectErr
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].Nonce < collected[j].Nonce })

	result := &MatchResult{
		ID:         uuid.NewString(),
		Variant:    req.Variant,
		Hands:      uint64(len(collected)),
		Records:    collected,
		ElapsedMs:  time.Since(started).Milliseconds(),
		TimedOut:   timedOut,
		ServerHash: req.Seeds.ServerHash(),
	}
	result.Seats = summarize(req, collected)
	return result, nil
}

// runWorker owns one environment and one agent set for its whole lifetime.
func (r *Runner) runWorker(ctx context.Context, req MatchRequest, factories []agents.Factory, jobs <-chan handJob, records chan<- HandRecord) error {
	table, err := env.New(req.Variant, req.Config, env.WithSeeds(req.Seeds))
	if err != nil {
		return err
	}
	seated := make([]agents.Agent, len(factories))
	for seat, factory := range factories {
		agent, err := factory(seat)
		if err != nil {
			return fmt.Errorf("seat %d: %w", seat, err)
		}
		seated[seat] = agent
	}

	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return nil
			}
			for nonce := job.start; nonce <= job.end; nonce++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				rec, err := playHand(table, seated, nonce)
				if err != nil {
					return fmt.Errorf("hand %d: %w", nonce, err)
				}
				select {
				case records <- rec:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// playHand deals one hand and lets the seated agents play it out. An agent
// whose action is rejected twice in a row is folded for it.
func playHand(table env.Environment, seated []agents.Agent, nonce uint64) (HandRecord, error) {
	if err := table.Reset(nonce); err != nil {
		return HandRecord{}, err
	}

	steps := 0
	lastOffender := -1
	for agent := table.AgentSelection(); agent >= 0; agent = table.AgentSelection() {
		if steps >= stepCap {
			return HandRecord{}, fmt.Errorf("hand exceeded %d steps", stepCap)
		}
		steps++

		if table.Terminations()[agent] {
			if err := table.Step(env.Action{}); err != nil {
				return HandRecord{}, err
			}
			continue
		}

		obs, err := table.Observe(agent)
		if err != nil {
			return HandRecord{}, err
		}

		action, err := seated[agent].Act(obs)
		if err != nil || agent == lastOffender {
			// Broken or stubborn agent: take the safe exit for it.
			action = safeExit(obs)
		}
		if err := table.Step(action); err != nil {
			if !errors.Is(err, env.ErrActionBounds) {
				return HandRecord{}, err
			}
			// Out-of-space actions are rejected without a penalty; fold
			// the offender instead of wedging the hand.
			if err := table.Step(safeExit(obs)); err != nil {
				return HandRecord{}, err
			}
		}

		if table.Rewards()[agent] < 0 && table.AgentSelection() == agent && !table.Terminations()[agent] {
			lastOffender = agent
		} else if agent == lastOffender {
			lastOffender = -1
		}
	}

	rewards := table.CumulativeRewards()
	rec := HandRecord{Nonce: nonce, Rewards: make([]int64, len(seated)), Steps: steps}
	rec.Holes = make([][]poker.Card, len(seated))
	for seat := range seated {
		rec.Rewards[seat] = rewards[seat]
		obs, err := table.Observe(seat)
		if err != nil {
			continue
		}
		rec.Holes[seat] = obs.Hole
		if seat == 0 {
			rec.Board = obs.Board
		}
	}
	return rec, nil
}

// safeExit is the action that is always legal for the agent to take.
func safeExit(obs env.Observation) env.Action {
	if obs.Drawing {
		return env.Action{}
	}
	return env.Fold
}

// summarize folds hand records into per-seat totals, with win rates in big
// blinds per hundred hands.
func summarize(req MatchRequest, records []HandRecord) []SeatSummary {
	seats := make([]SeatSummary, req.Config.Players)
	for seat := range seats {
		label := fmt.Sprintf("seat-%d", seat)
		if seat < len(req.Agents) && req.Agents[seat] != "" {
			label = req.Agents[seat]
		}
		seats[seat] = SeatSummary{Seat: seat, Agent: label}
	}
	for i, rec := range records {
		for seat, reward := range rec.Rewards {
			s := &seats[seat]
			s.TotalReward += reward
			if reward > 0 {
				s.HandsWon++
			}
			if i == 0 || reward < s.MinReward {
				s.MinReward = reward
			}
			if i == 0 || reward > s.MaxReward {
				s.MaxReward = reward
			}
		}
	}

	bb := bigBetSize(req.Config)
	if bb > 0 && len(records) > 0 {
		hands := decimal.NewFromInt(int64(len(records)))
		blind := decimal.NewFromInt(bb)
		hundred := decimal.NewFromInt(100)
		for seat := range seats {
			total := decimal.NewFromInt(seats[seat].TotalReward)
			seats[seat].BBPer100 = total.Div(blind).Div(hands).Mul(hundred).Round(2)
		}
	}
	return seats
}

// bigBetSize is the stake unit for win rates: the largest blind, or the
// small bet in bring-in games. Blind lists may be zero-padded to the seat
// count, so the last entry is not necessarily the big blind.
func bigBetSize(cfg poker.TableConfig) int64 {
	var max int64
	for _, b := range cfg.Blinds {
		if b > max {
			max = b
		}
	}
	if max > 0 {
		return max
	}
	return cfg.SmallBet
}
