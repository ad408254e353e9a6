// Command server wires the governance engine: stores, domain services, HTTP
// transport, and the phase auto-close sweep. Business logic lives in the
// internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"paperview/internal/collab"
	extractionservice "paperview/internal/extraction/service"
	extractionstore "paperview/internal/extraction/store"
	phaseservice "paperview/internal/phase/service"
	phasestore "paperview/internal/phase/store"
	"paperview/internal/platform/audit"
	"paperview/internal/platform/config"
	"paperview/internal/platform/httpserver"
	"paperview/internal/platform/logger"
	"paperview/internal/platform/metrics"
	tagservice "paperview/internal/tag/service"
	tagstore "paperview/internal/tag/store"
	httptransport "paperview/internal/transport/http"
	"paperview/pkg/platform/tx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		phases      phasestore.Store
		tags        tagstore.Store
		extractions extractionstore.Store
		runner      tx.Runner
	)
	switch cfg.Storage {
	case "postgres":
		db, err := sql.Open("pgx", cfg.DSN())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("pinging database: %w", err)
		}

		phaseStore := phasestore.NewPostgresStore(db)
		tagStore := tagstore.NewPostgresStore(db)
		extractionStore := extractionstore.NewPostgresStore(db)
		for _, ensure := range []func(context.Context) error{
			phaseStore.EnsureSchema, tagStore.EnsureSchema, extractionStore.EnsureSchema,
		} {
			if err := ensure(ctx); err != nil {
				return err
			}
		}
		phases, tags, extractions = phaseStore, tagStore, extractionStore
		runner = &tx.SQLRunner{DB: db}
	case "memory":
		phases = phasestore.NewInMemoryStore()
		tags = tagstore.NewInMemoryStore()
		extractions = extractionstore.NewInMemoryStore()
		runner = &tx.MemoryRunner{}
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	// Stand-in directory until the Projects/Acquisition/Design services are
	// reachable over the network.
	directory := collab.NewMemoryDirectory()
	recorder := audit.NewLogRecorder(log)

	phaseSvc := phaseservice.New(phases, directory.Projects(), runner, recorder, m, log)
	extractionSvc := extractionservice.New(extractions, phases, tags,
		directory.Studies(), directory.Projects(), runner, m, log)
	tagSvc := tagservice.New(tags, extractions, directory.Projects(), directory.Questions(),
		runner, recorder, m, log)

	handler := httptransport.NewHandler(phaseSvc, extractionSvc, tagSvc, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, m, log))

	sweeper := cron.New()
	_, err = sweeper.AddFunc(cfg.SweepSchedule, func() {
		closed, err := phaseSvc.CloseExpired(context.Background(), time.Now())
		if err != nil {
			log.Error("auto-close sweep failed", "error", err)
			return
		}
		if closed > 0 {
			log.Info("auto-close sweep", "phases_closed", closed)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling auto-close sweep: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
