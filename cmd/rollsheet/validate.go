package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rollsheet/internal/assets"
	"rollsheet/internal/bootstrap"
	"rollsheet/internal/store/sqlite"
	"rollsheet/internal/validate"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the seed document and trial-load it into a scratch database",
		Args:  cobra.NoArgs,
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	loader := &assets.Loader{SchemaSource: cfg.Assets.Schema, SeedSource: cfg.Assets.Seed}
	bundle, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	report, err := validate.Run(bundle.Seed, cfg.Session.DefaultID)
	if err != nil {
		return err
	}

	// The trial load always goes to memory so a file database is never touched.
	opts := bootstrapOptions(cfg, bootstrapLogger(cmd, false))
	opts.DSN = sqlite.MemoryDSN
	opts.NotesDirs = nil
	db, trial, err := bootstrap.Open(ctx, opts)
	if err != nil {
		return err
	}
	db.Close(ctx)
	report.Issues = append(report.Issues, validate.FromSeedReport(trial.Seed)...)

	out := cmd.OutOrStdout()
	errorIssues := report.Errors()
	warnIssues := report.Warnings()

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(out, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(out, "Errors (%d):\n", len(errorIssues))
		printIssues(out, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(out, "")
		}
		fmt.Fprintf(out, "Warnings (%d):\n", len(warnIssues))
		printIssues(out, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Table
		if issue.Record != "" {
			location = fmt.Sprintf("%s/%s", issue.Table, issue.Record)
		}
		if location == "" {
			location = "seed"
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
