// Package main runs self-play matches from the command line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pokerzoo/pokerzoo/internal/agents"
	"github.com/pokerzoo/pokerzoo/internal/arena"
	"github.com/pokerzoo/pokerzoo/internal/engine"
	"github.com/pokerzoo/pokerzoo/internal/poker"
)

func main() {
	log.SetPrefix("[SELFPLAY] ")

	var (
		variant    = flag.String("variant", "nl_holdem", "poker variant id")
		players    = flag.Int("players", 2, "number of seats")
		hands      = flag.Uint64("hands", 1000, "hands to deal")
		stack      = flag.Int64("stack", 200, "starting stack per seat")
		smallBlind = flag.Int64("sb", 1, "small blind")
		bigBlind   = flag.Int64("bb", 2, "big blind")
		ante       = flag.Int64("ante", 0, "uniform ante")
		bringIn    = flag.Int64("bring-in", 0, "bring-in for stud games")
		smallBet   = flag.Int64("small-bet", 0, "small bet for stud games")
		serverSeed = flag.String("server-seed", "", "provably fair server seed")
		clientSeed = flag.String("client-seed", "", "provably fair client seed")
		seats      = flag.String("agents", "", "comma-separated agent names, one per seat")
		workers    = flag.Int("workers", 0, "worker count, 0 = GOMAXPROCS")
		showHands  = flag.Bool("show-hands", false, "print every hand record")
	)
	flag.Parse()

	cfg := poker.TableConfig{
		Players:        *players,
		StartingStacks: []int64{*stack},
	}
	if *bringIn > 0 {
		cfg.BringIn = *bringIn
		cfg.SmallBet = *smallBet
		if *ante > 0 {
			cfg.Antes = []int64{*ante}
			cfg.AnteTrimming = true
		}
	} else {
		cfg.Blinds = []int64{*smallBlind, *bigBlind}
		if *ante > 0 {
			cfg.Antes = []int64{*ante}
			cfg.AnteTrimming = true
		}
	}

	names := make([]string, *players)
	for i := range names {
		names[i] = agents.BuiltinCaller
	}
	if *seats != "" {
		parts := strings.Split(*seats, ",")
		if len(parts) != *players {
			log.Fatalf("%d agents for %d seats", len(parts), *players)
		}
		for i, part := range parts {
			names[i] = strings.TrimSpace(part)
		}
	}

	factories := make([]agents.Factory, *players)
	for seat, name := range names {
		factory, err := agents.BuiltinFactory(name, 1)
		if err != nil {
			log.Fatalf("seat %d: %v", seat, err)
		}
		factories[seat] = factory
	}

	req := arena.MatchRequest{
		Variant: *variant,
		Config:  cfg,
		Seeds:   engine.Seeds{Server: *serverSeed, Client: *clientSeed},
		Agents:  names,
		Hands:   *hands,
		Workers: *workers,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := arena.NewRunner().Run(ctx, req, factories)
	if err != nil {
		log.Fatalf("run match: %v", err)
	}

	fmt.Printf("match %s: %s, %d hands in %dms\n", result.ID, result.Variant, result.Hands, result.ElapsedMs)
	if result.ServerHash != "" {
		fmt.Printf("server seed hash: %s\n", result.ServerHash)
	}
	for _, seat := range result.Seats {
		fmt.Printf("  seat %d %-12s total %+6d  min %+5d  max %+5d  won %4d  bb/100 %s\n",
			seat.Seat, seat.Agent, seat.TotalReward, seat.MinReward, seat.MaxReward,
			seat.HandsWon, seat.BBPer100)
	}

	if *showHands {
		enc := json.NewEncoder(os.Stdout)
		for _, rec := range result.Records {
			if err := enc.Encode(rec); err != nil {
				log.Fatalf("encode record: %v", err)
			}
		}
	}
}
