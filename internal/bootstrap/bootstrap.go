// Package bootstrap builds the session database: engine, schema, default
// session, seed rows and imported notes, in that order.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"strings"

	"rollsheet/internal/assets"
	"rollsheet/internal/notes"
	"rollsheet/internal/store"
	"rollsheet/internal/store/sqlite"
)

type Options struct {
	DSN              string
	SchemaSource     string
	SeedSource       string
	DefaultSessionID string
	// NotesDirs are walked for markdown session notes after seeding.
	NotesDirs []string
	Logger    *log.Logger
}

// Report summarizes what Open did.
type Report struct {
	SchemaApplied  bool
	SessionCreated bool
	LogIndex       bool
	Seed           *store.SeedReport
	Notes          *notes.Result
	Tables         []string
	Characters     int
}

func Open(ctx context.Context, opts Options) (*sqlite.Client, *Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	sessionID := opts.DefaultSessionID
	if sessionID == "" {
		sessionID = store.DefaultSessionID
	}

	db, err := sqlite.New(ctx, opts.DSN)
	if err != nil {
		logger.Printf("DB init error: %v", err)
		return nil, nil, fmt.Errorf("initializing database: %w", err)
	}
	logger.Println("sqlite initialized (foreign keys on)")

	report, err := build(ctx, db, opts, sessionID, logger)
	if err != nil {
		db.Close(ctx)
		logger.Printf("DB init error: %v", err)
		return nil, nil, err
	}
	return db, report, nil
}

func build(ctx context.Context, db *sqlite.Client, opts Options, sessionID string, logger *log.Logger) (*Report, error) {
	loader := &assets.Loader{SchemaSource: opts.SchemaSource, SeedSource: opts.SeedSource}
	bundle, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading assets: %w", err)
	}
	logger.Printf("schema bytes: %d, seed keys: %v", len(bundle.Schema), bundle.Seed.Keys())

	report := &Report{}
	if strings.TrimSpace(bundle.Schema) == "" {
		logger.Println("schema is empty, skipping")
	} else {
		if err := db.ApplySchema(ctx, bundle.Schema); err != nil {
			return nil, fmt.Errorf("applying schema: %w", err)
		}
		report.SchemaApplied = true
		logger.Println("schema applied")
	}

	if err := db.EnsureFallbackSchema(ctx); err != nil {
		return nil, err
	}

	indexed, err := db.EnsureLogIndex(ctx)
	if err != nil {
		return nil, err
	}
	report.LogIndex = indexed

	created, err := db.EnsureSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("ensuring default session: %w", err)
	}
	report.SessionCreated = created
	if created {
		logger.Printf("inserted default session %q", sessionID)
	}

	seedReport, err := db.Seed(ctx, bundle.Seed)
	if err != nil {
		return nil, fmt.Errorf("seeding: %w", err)
	}
	report.Seed = seedReport
	if n := seedReport.Skipped(); n > 0 {
		logger.Printf("seed rows skipped as duplicates: %d", n)
	}
	if n := seedReport.Rejected(); n > 0 {
		logger.Printf("seed rows rejected by constraints: %d", n)
	}

	if len(opts.NotesDirs) > 0 {
		result, err := notes.Import(ctx, opts.NotesDirs, nil, db)
		if err != nil {
			return nil, fmt.Errorf("importing notes: %w", err)
		}
		report.Notes = result
		logger.Printf("notes imported: %d (skipped %d, rejected %d)", result.Inserted, result.Skipped, result.Rejected)
		for _, err := range result.Errors {
			logger.Printf("note skipped: %v", err)
		}
	}

	tables, err := db.TableNames(ctx)
	if err != nil {
		return nil, err
	}
	report.Tables = tables
	logger.Printf("tables: %v", tables)

	for _, name := range tables {
		if name != "characters" {
			continue
		}
		count, err := db.CountRows(ctx, name)
		if err != nil {
			return nil, err
		}
		report.Characters = count
		logger.Printf("characters inserted: %d", count)
	}

	return report, nil
}
