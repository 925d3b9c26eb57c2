package store

import (
	"context"
	"errors"

	"rollsheet/internal/seed"
)

// ErrNoSearchTerms is returned by SearchLogs for queries made only of
// exclusions or operators.
var ErrNoSearchTerms = errors.New("query needs at least one search term")

type Store interface {
	Close(ctx context.Context) error
	ApplySchema(ctx context.Context, ddl string) error
	EnsureFallbackSchema(ctx context.Context) error
	EnsureSession(ctx context.Context, id string) (bool, error)
	EnsureLogIndex(ctx context.Context) (bool, error)
	Seed(ctx context.Context, doc *seed.Document) (*SeedReport, error)

	AddRoll(ctx context.Context, in RollInput) (string, error)
	ListRolls(ctx context.Context, sessionID string, limit int) ([]RollRecord, error)

	FirstCharacter(ctx context.Context) (*Character, error)
	ListCharacters(ctx context.Context) ([]Character, error)
	ListSessions(ctx context.Context) ([]Session, error)
	ListLogs(ctx context.Context, sessionID string) ([]LogEntry, error)
	AddLog(ctx context.Context, e LogEntry) (TableReport, error)
	SearchLogs(ctx context.Context, query string, limit int) ([]LogMatch, error)

	TableNames(ctx context.Context) ([]string, error)
	CountRows(ctx context.Context, table string) (int, error)
	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
