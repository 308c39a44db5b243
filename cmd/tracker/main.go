package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gradski-prevoz/tracker/internal/config"
	"github.com/gradski-prevoz/tracker/internal/feed"
	"github.com/gradski-prevoz/tracker/internal/metrics"
	"github.com/gradski-prevoz/tracker/internal/pipeline"
	"github.com/gradski-prevoz/tracker/internal/rotate"
	"github.com/gradski-prevoz/tracker/internal/server"
	"github.com/gradski-prevoz/tracker/internal/sheet"
	"github.com/gradski-prevoz/tracker/internal/static"
)

var flagOnce = flag.Bool("once", false, "run a single pipeline pass and exit (for cron deployments)")

func main() {
	flag.Parse()
	log.Println("Starting departures tracker...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()
	log.Printf("Store backend: %s", cfg.StoreBackend)

	p := &pipeline.Pipeline{
		Store:    store,
		Feed:     feed.NewClient(cfg.VehiclePositionsURL, cfg.TripUpdatesURL, cfg.FeedTimeout),
		Stations: static.FileStations{Path: cfg.StationsPath},
		Routes:   static.FileRoutes{Path: cfg.RouteMappingPath},
		Rotator:  rotate.New(store, cfg.Location),
		Metrics:  metrics.NewCollector(),
		Location: cfg.Location,
	}

	if *flagOnce {
		status := p.Run(ctx)
		fmt.Println(status)
		if !strings.HasPrefix(status, "SUCCESS") {
			os.Exit(1)
		}
		return
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(p, store, p.Metrics).Routes(),
	}

	go func() {
		log.Printf("Listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Goodbye!")
}

// openStore picks the configured store backend
func openStore(ctx context.Context, cfg *config.Config) (sheet.Store, func(), error) {
	switch cfg.StoreBackend {
	case "sheets":
		store, err := sheet.NewGoogleStore(ctx, cfg.SpreadsheetID, cfg.SheetsClientEmail, cfg.SheetsPrivateKey)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "sqlite":
		store, err := sheet.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
