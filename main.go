// Package main is the entry point for the webscaffold server.
// It loads configuration, brings the schema up to date and serves HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"webscaffold/src/app/server"
	"webscaffold/src/infra/config"
	"webscaffold/src/infra/db"
	"webscaffold/src/infra/logger"
	"webscaffold/src/infra/migrate"
)

func main() {
	rollback := flag.Bool("rollback", false, "revert the latest migration and exit")
	migrateOnly := flag.Bool("migrate-only", false, "run pending migrations and exit")
	flag.Parse()

	if err := run(*rollback, *migrateOnly); err != nil {
		log.Printf("fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(rollback, migrateOnly bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log)
	log.Info("starting application",
		"port", cfg.Server.Port,
		"database", cfg.Database.Name,
		"log_level", cfg.Log.Level,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	dbMetrics, err := db.NewMetrics(reg, cfg.Metrics.Namespace)
	if err != nil {
		return err
	}
	migrateMetrics, err := migrate.NewMetrics(reg, cfg.Metrics.Namespace)
	if err != nil {
		return err
	}

	manager := db.New(cfg.Database, log, dbMetrics)
	defer manager.Close()

	catalog, err := loadCatalog(cfg.Migration, log)
	if err != nil {
		return err
	}
	runner := migrate.NewRunner(manager, migrate.NewStorage(manager, log), catalog, log, migrateMetrics)

	ctx := context.Background()
	if rollback {
		name, err := runner.Down(ctx)
		if err != nil {
			return err
		}
		log.Info("migration reverted", "migration", name)
		return nil
	}

	executed, err := runner.Init(ctx)
	if err != nil {
		return fmt.Errorf("migrations failed after %d executed: %w", len(executed), err)
	}
	log.Info("database up to date", "executed", len(executed))
	if migrateOnly {
		return nil
	}

	srv := server.New(cfg, log, server.Deps{
		Database:   manager,
		Migrations: runner,
		Gatherer:   reg,
	})

	// Run blocks until shutdown signal is received
	return srv.Run()
}

// loadCatalog reads migration files from the configured directory. A
// missing directory yields an empty catalog.
func loadCatalog(cfg config.MigrationConfig, log *slog.Logger) (migrate.Catalog, error) {
	if _, err := os.Stat(cfg.Dir); errors.Is(err, fs.ErrNotExist) {
		log.Warn("migrations directory not found, catalog is empty", "dir", cfg.Dir)
		return migrate.NewCatalog()
	}
	return migrate.Load(os.DirFS(cfg.Dir), cfg.Glob)
}
