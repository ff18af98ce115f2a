package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mbu/esqsync/internal/business"
	"mbu/esqsync/internal/worker"
	"mbu/esqsync/pkg/config"
	"mbu/esqsync/pkg/infra/mysql"
	"mbu/esqsync/pkg/infra/redis"
	"mbu/esqsync/pkg/infra/sharepoint"
	"mbu/esqsync/pkg/lmstfy"
	"mbu/esqsync/pkg/logger"
)

var (
	configPath = flag.String("config", "./config/worker.yaml", "path to the config file")
	populate   = flag.Bool("populate", false, "run the population phase and exit")
	reconcile  = flag.Bool("reconcile", false, "run the monthly export sync and exit")
	force      = flag.Bool("force", false, "run the export sync even off the monthly trigger date")
	dateStr    = flag.String("date", "", "population fetch date (YYYY-MM-DD), defaults to yesterday")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	log.Printf("Config loaded: %s, env: %s, log_level: %s\n", cfg.App.Name, cfg.App.Env, cfg.App.LogLevel)

	zapLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	switch {
	case *populate:
		runPopulate(cfg, zapLogger)
	case *reconcile:
		runReconcile(cfg, zapLogger)
	default:
		runDispatch(cfg, zapLogger)
	}
}

// runPopulate runs the one-shot population phase for one fetch window.
func runPopulate(cfg *config.Config, zapLogger logger.Logger) {
	ctx := context.Background()

	date := time.Now().AddDate(0, 0, -1)
	if *dateStr != "" {
		parsed, err := time.Parse("2006-01-02", *dateStr)
		if err != nil {
			log.Fatalf("Invalid --date: %v", err)
		}
		date = parsed
	}

	dao, err := mysql.NewFormsDAO(cfg.MySQL.DSN, zapLogger)
	if err != nil {
		log.Fatalf("Failed to create FormsDAO: %v", err)
	}
	defer dao.Close()

	dedup, err := redis.NewDedup(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to create dedup registry: %v", err)
	}
	defer dedup.Close()

	queueClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		log.Fatalf("Failed to create lmstfy client: %v", err)
	}

	svc := business.NewPopulateService(dao, queueClient, dedup, cfg, zapLogger)
	if err := svc.Run(ctx, date); err != nil {
		log.Fatalf("Population phase failed: %v", err)
	}
}

// runReconcile runs the one-shot monthly export sync, gated to the first
// of the month unless forced.
func runReconcile(cfg *config.Config, zapLogger logger.Logger) {
	ctx := context.Background()
	now := time.Now()

	if !business.ShouldRun(now) && !*force {
		log.Printf("Not the first of the month, skipping export sync (use --force to override)")
		return
	}

	dao, err := mysql.NewFormsDAO(cfg.MySQL.DSN, zapLogger)
	if err != nil {
		log.Fatalf("Failed to create FormsDAO: %v", err)
	}
	defer dao.Close()

	store := sharepoint.NewClient(cfg.SharePoint.SiteURL, cfg.SharePoint.Token)

	svc := business.NewReconcileService(dao, store, cfg, zapLogger)
	if err := svc.Run(ctx, now); err != nil {
		log.Fatalf("Export sync failed: %v", err)
	}
}

// runDispatch runs the long-lived processing phase until a signal
// arrives.
func runDispatch(cfg *config.Config, zapLogger logger.Logger) {
	mgr, err := worker.NewManagerInstance(cfg, zapLogger)
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}

	go func() {
		if err := mgr.Start(); err != nil {
			log.Fatalf("Manager start failed: %v", err)
		}
	}()

	log.Println("Worker started. Press Ctrl+C to shutdown.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Printf("Received signal: %v, shutting down...\n", sig)

	mgr.Shutdown()

	log.Println("Worker exited gracefully")
}
