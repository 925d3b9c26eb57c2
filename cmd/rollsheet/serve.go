package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rollsheet/internal/bootstrap"
	"rollsheet/internal/notify"
	"rollsheet/internal/web"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sheet, dice board and log over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	logger := bootstrapLogger(cmd, true)
	provider := bootstrap.NewDefaultProvider(bootstrapOptions(cfg, logger))
	defer provider.Close(context.Background())

	db, err := provider.DB(ctx)
	if err != nil {
		return err
	}

	hub := web.NewHub(logger)
	toast := notify.NewToast(cfg.Server.NoticeTTL)
	roller := newRoller(cfg, db, toast, logger, hub.RollRecorded)

	srv, err := web.NewServer(db, roller, toast, hub, web.Options{
		SessionID: cfg.Session.DefaultID,
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer srv.Close()
	httpServer := srv.HTTPServer(addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Printf("listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
