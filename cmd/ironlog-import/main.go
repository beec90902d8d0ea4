package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/meltforce/ironlog/internal/config"
	"github.com/meltforce/ironlog/internal/importer"
	"github.com/meltforce/ironlog/internal/storage/postgres"
	"github.com/meltforce/ironlog/internal/storage/sqlite"
	"github.com/meltforce/ironlog/internal/workout"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	csvPath := flag.String("file", "", "path to training-log CSV export (required)")
	login := flag.String("user", "local", "login name to import the history under")
	dryRun := flag.Bool("dry-run", false, "report counts without inserting into database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *csvPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: ironlog-import -config config.yaml -file history.csv [-user name] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode — no data will be written to the database")
	}

	var store workout.Store
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			log.Error("failed to open sqlite database", "path", cfg.Database.Path, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
	default:
		dsn := cfg.Database.DSN()
		if err := postgres.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		db, err := postgres.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
	}
	log.Info("database connected", "driver", cfg.Database.Driver)

	user, err := store.GetOrCreateUser(ctx, *login, "")
	if err != nil {
		log.Error("failed to resolve user", "login", *login, "error", err)
		os.Exit(1)
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Error("failed to open CSV file", "path", *csvPath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	imp := importer.New(store, log, *dryRun)
	stats, err := imp.Import(ctx, user.ID, f)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"rows_parsed", stats.RowsParsed,
		"rows_skipped", stats.RowsSkipped,
		"sessions_imported", stats.SessionsImported,
		"sets_inserted", stats.SetsInserted,
		"workouts_created", stats.WorkoutsCreated,
		"exercises_created", stats.ExercisesCreated,
	)
}
