package main

import (
	"context"
	"io"
	"log"

	"github.com/spf13/cobra"

	"rollsheet/internal/bootstrap"
	"rollsheet/internal/config"
	"rollsheet/internal/dice"
	"rollsheet/internal/notify"
	"rollsheet/internal/store/sqlite"
)

// loadConfig treats the project file as optional unless --config was given.
func loadConfig(cmd *cobra.Command) (*config.ProjectConfig, error) {
	return config.Load(configPath, !cmd.Flags().Changed("config"))
}

func bootstrapLogger(cmd *cobra.Command, always bool) *log.Logger {
	if always || verbose {
		return log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

func bootstrapOptions(cfg *config.ProjectConfig, logger *log.Logger) bootstrap.Options {
	return bootstrap.Options{
		DSN:              cfg.Database.DSN,
		SchemaSource:     cfg.Assets.Schema,
		SeedSource:       cfg.Assets.Seed,
		DefaultSessionID: cfg.Session.DefaultID,
		NotesDirs:        cfg.Assets.Notes,
		Logger:           logger,
	}
}

func openDB(ctx context.Context, cmd *cobra.Command, cfg *config.ProjectConfig) (*sqlite.Client, error) {
	provider := bootstrap.NewDefaultProvider(bootstrapOptions(cfg, bootstrapLogger(cmd, false)))
	return provider.DB(ctx)
}

func newRoller(cfg *config.ProjectConfig, db dice.RollStore, toast *notify.Toast, logger *log.Logger, onRecorded func(string, string, dice.Result)) *dice.Roller {
	return dice.NewRoller(db, toast, dice.RollerOptions{
		MaxCount:     cfg.Dice.MaxCount,
		HistoryLimit: cfg.Session.RollLimit,
		RollerType:   cfg.Session.RollerType,
		RollerID:     cfg.Session.RollerID,
		Logger:       logger,
		OnRecorded:   onRecorded,
	})
}
