package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rollsheet/internal/sheet"
)

func sheetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheet",
		Short: "Print the character sheet",
		Args:  cobra.NoArgs,
		RunE:  runSheet,
	}
}

func runSheet(cmd *cobra.Command, args []string) error {
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

	ch, err := db.FirstCharacter(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if ch == nil {
		fmt.Fprintln(out, "No character found.")
		return nil
	}

	view := sheet.Build(*ch)
	role := view.RoleClass
	if role == "" {
		role = "—"
	}
	fmt.Fprintf(out, "%s [%s]\n", view.Name, view.System)
	fmt.Fprintf(out, "Role: %s  •  Level: %d\n", role, view.Level)
	fmt.Fprintln(out, "\nStats:")
	printTiles(out, view.Stats)
	fmt.Fprintln(out, "\nDerived:")
	printTiles(out, view.Derived)
	return nil
}

func printTiles(out io.Writer, tiles []sheet.Tile) {
	for _, t := range tiles {
		if t.Sub != "" {
			fmt.Fprintf(out, "  %-12s %s (%s)\n", t.Label, t.Value, t.Sub)
			continue
		}
		fmt.Fprintf(out, "  %-12s %s\n", t.Label, t.Value)
	}
}
