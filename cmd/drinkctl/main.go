package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"drinktracker/internal/backend"
	"drinktracker/internal/cli"
	applog "drinktracker/internal/log"
	"drinktracker/internal/services"
)

var CLI struct {
	Version kong.VersionFlag

	Migrate   cli.MigrateCmd   `cmd:"" help:"Apply ledger schema migrations."`
	Rollup    cli.RollupCmd    `cmd:"" help:"Recompute monthly summaries for every user."`
	Streak    cli.StreakCmd    `cmd:"" help:"Show tracking and sober streaks."`
	Summaries cli.SummariesCmd `cmd:"" help:"List monthly summaries, newest first."`
	Record    cli.RecordCmd    `cmd:"" help:"Record a drink or confirm a sober day."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("drinkctl"),
		kong.Description("Administer the drink tracker ledger"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()

	logger, err := cli.SetupLogger(cfg, applog.ComponentCLI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	ctx := context.Background()
	appCtx := &cli.Context{
		Ctx: ctx,
		Out: os.Stdout,
		Now: time.Now,
	}
	if cfg.DataBackend == string(backend.SQLiteBackend) {
		appCtx.DBPath = cfg.SQLiteDBPath
	}

	// migrate works on the raw file; everything else needs a store
	if kctx.Command() != "migrate" {
		store := cli.InitStore(ctx, logger.Logger, cfg)
		defer store.Cleanup()
		streaks := cli.InitStreakCache(ctx, logger.Logger, cfg)
		defer streaks.Cleanup()

		publisher, closePublisher, err := cli.InitSummaryPublisher(ctx, logger.Logger, cfg, store.Store)
		if err != nil {
			logger.Warn("Summary publishing unavailable", "error", err)
			publisher = nil
		}
		defer closePublisher()

		appCtx.Store = store.Store
		appCtx.Drinks = services.NewDrinkService(store.Store, streaks.Cache, time.Now, cfg.MaxBackfillDays)
		appCtx.Rollup = services.NewMonthlyRollupProcessor(store.Store, publisher, time.Now, cfg.RollupConcurrency)
	}

	if err := kctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
