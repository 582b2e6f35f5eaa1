package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grocerybooks/internal/config"
	"grocerybooks/internal/database"
	"grocerybooks/internal/filestore"
	"grocerybooks/internal/handlers"
	"grocerybooks/internal/ingest"
	"grocerybooks/internal/jobs"
	"grocerybooks/internal/logger"
	"grocerybooks/internal/metrics"
	"grocerybooks/internal/reconciliation"
	"grocerybooks/internal/version"
)

func main() {
	// Handle --version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println(version.String("grocerybooks"))
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Initialize logger first
	logger.InitWithLevel(cfg.LogLevel)
	log := logger.Default()

	// Open database
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Error("database_open_failed", "path", cfg.DBPath, "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	// Initialize schema
	if err := db.Init(); err != nil {
		log.Error("database_init_failed", "error", err.Error())
		os.Exit(1)
	}

	files, err := filestore.New(cfg.UploadsPath)
	if err != nil {
		log.Error("filestore_init_failed", "path", cfg.UploadsPath, "error", err.Error())
		os.Exit(1)
	}

	brands, err := cfg.Brands()
	if err != nil {
		log.Error("brand_rules_load_failed", "path", cfg.BrandRules, "error", err.Error())
		os.Exit(1)
	}

	reg := metrics.NewRegistry()
	in := ingest.New(db, ingest.Options{
		Parser:     cfg.ParserOptions(),
		Brands:     brands,
		Duplicates: cfg.Duplicates,
		Metrics:    reg,
	})

	// Initialize and start job worker
	worker := jobs.NewWorker(db, log, reg, cfg.PollInterval)
	jobs.Register(worker, files, in, reconciliation.NewMerger(db), reg)
	worker.Start()
	defer worker.Stop()

	mux := http.NewServeMux()
	handlers.New(db).Routes(mux)
	mux.Handle("GET /metrics", reg.Handler())

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: logger.HTTPMiddleware(mux, reg),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("server_shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server_shutdown_failed", "error", err.Error())
		}
	}()

	log.Info("server_starting",
		"port", cfg.Port,
		"address", "http://localhost:"+cfg.Port,
		"version", version.Version,
		"duplicate_policy", cfg.Duplicates.String(),
		"unrecognized_policy", cfg.Unrecognized.String(),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server_failed", "error", err.Error())
		os.Exit(1)
	}
}
