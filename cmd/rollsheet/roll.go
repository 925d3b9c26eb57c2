package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rollsheet/internal/activity"
	"rollsheet/internal/notify"
	"rollsheet/internal/store"
)

func rollCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "roll <expression>",
		Short: "Roll NdM dice and record the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoll(cmd, strings.Join(args, " "), sessionID)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session to record the roll in")
	return cmd
}

func runRoll(cmd *cobra.Command, input, sessionID string) error {
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

	roller := newRoller(cfg, db, notify.NewToast(cfg.Server.NoticeTTL), bootstrapLogger(cmd, true), nil)
	out := roller.Submit(ctx, sessionID, input)
	if out.Result == nil || out.RollID == "" {
		return fmt.Errorf("%s: %w", out.Notice.Text, out.Err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), activity.RollText(store.RollRecord{
		Expression: out.Result.Expression,
		Faces:      out.Result.Faces,
		Total:      out.Result.Total,
	}))
	return nil
}

func rollsCmd() *cobra.Command {
	var sessionID string
	var limit int
	cmd := &cobra.Command{
		Use:   "rolls",
		Short: "List recent rolls, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRolls(cmd, sessionID, limit)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session to list")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rolls to show (defaults to session.roll_limit)")
	return cmd
}

func runRolls(cmd *cobra.Command, sessionID string, limit int) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if sessionID == "" {
		sessionID = cfg.Session.DefaultID
	}
	if limit <= 0 {
		limit = cfg.Session.RollLimit
	}

	db, err := openDB(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	rolls, err := db.ListRolls(ctx, sessionID, limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(rolls) == 0 {
		fmt.Fprintln(out, "No rolls yet.")
		return nil
	}
	for _, r := range rolls {
		fmt.Fprintf(out, "%s  %s\n", r.Created, activity.RollText(r))
	}
	return nil
}
