package main

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"rollsheet/internal/mcp"
	"rollsheet/internal/notify"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP tool server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
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

	roller := newRoller(cfg, db, notify.NewToast(cfg.Server.NoticeTTL), bootstrapLogger(cmd, true), nil)
	server := mcp.NewServer(db, roller, cfg.Session.DefaultID, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
