// Package main starts the pokerzoo HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pokerzoo/pokerzoo/internal/api"
	"github.com/pokerzoo/pokerzoo/internal/config"
	"github.com/pokerzoo/pokerzoo/internal/engine"
	"github.com/pokerzoo/pokerzoo/internal/store"
)

func main() {
	log.SetPrefix("[POKERZOO] ")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	server := api.NewServer(db,
		api.WithDefaultSeeds(engine.Seeds{Server: cfg.ServerSeed, Client: cfg.ClientSeed}),
		api.WithMatchWorkers(cfg.Workers),
	)
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Routes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("listening on %s (db %s)", cfg.Addr, cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Print("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
