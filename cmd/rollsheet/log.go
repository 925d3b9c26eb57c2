package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"rollsheet/internal/activity"
)

func logCmd() *cobra.Command {
	var sessionID string
	var search string
	var limit int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print narration notes and rolls, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if search != "" {
				return runLogSearch(cmd, search, limit)
			}
			return runLog(cmd, sessionID, limit)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session whose rolls are merged in")
	cmd.Flags().StringVar(&search, "search", "", "Full-text search over notes instead")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to show")
	return cmd
}

func runLog(cmd *cobra.Command, sessionID string, limit int) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if sessionID == "" {
		sessionID = cfg.Session.DefaultID
	}

	db, err := openDB(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	entries, err := activity.Load(ctx, db, sessionID)
	if err != nil {
		return err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := cmd.OutOrStdout()
	for _, e := range entries {
		fmt.Fprintf(out, "%-24s %-4s %s\n", e.CreatedAt, e.Badge(), e.Text)
	}
	return nil
}

func runLogSearch(cmd *cobra.Command, query string, limit int) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	matches, err := db.SearchLogs(ctx, query, limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matches.")
		return nil
	}
	for _, m := range matches {
		fmt.Fprintf(out, "%s  %s  %s\n", m.ID, m.CreatedAt, m.Snippet)
	}
	return nil
}
