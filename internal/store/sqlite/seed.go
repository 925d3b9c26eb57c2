package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"rollsheet/internal/seed"
	"rollsheet/internal/store"
)

// Seed inserts the document's rows one statement at a time. Rows that collide
// with an existing key are skipped, rows that violate another constraint are
// rejected, and any other failure aborts seeding.
func (c *Client) Seed(ctx context.Context, doc *seed.Document) (*store.SeedReport, error) {
	report := &store.SeedReport{}
	if doc == nil {
		return report, nil
	}

	for _, ch := range doc.Characters {
		statsJSON, err := json.Marshal(ch.StatsOrEmpty())
		if err != nil {
			return report, fmt.Errorf("marshaling stats for %s: %w", ch.ID, err)
		}
		derivedJSON, err := json.Marshal(ch.DerivedOrEmpty())
		if err != nil {
			return report, fmt.Errorf("marshaling derived for %s: %w", ch.ID, err)
		}
		err = c.insertOrSkip(ctx, &report.Characters, `
		INSERT INTO characters (id, name, system, role_class, level, stats_json, derived_json, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, ch.ID, ch.Name, ch.System, ch.RoleClass, ch.LevelOrDefault(), string(statsJSON), string(derivedJSON), ch.Notes)
		if err != nil {
			return report, fmt.Errorf("seeding character %s: %w", ch.ID, err)
		}
	}

	for _, s := range doc.Sessions {
		err := c.insertOrSkip(ctx, &report.Sessions, `
		INSERT INTO sessions (id, title, system, started_at, ended_at, gm_user_id, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`, s.ID, s.Title, s.System, s.StartedAt, s.EndedAt, s.GMUserID, s.Notes)
		if err != nil {
			return report, fmt.Errorf("seeding session %s: %w", s.ID, err)
		}
	}

	for _, l := range doc.Logs {
		sessionID := store.DefaultSessionID
		if l.SessionID != nil {
			sessionID = *l.SessionID
		}
		tags, err := l.TagsText()
		if err != nil {
			return report, err
		}
		err = c.insertOrSkip(ctx, &report.Logs, `
		INSERT INTO logs (id, session_id, author_type, body, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		`, l.ID, sessionID, l.AuthorType, l.Body, tags, l.CreatedAt)
		if err != nil {
			return report, fmt.Errorf("seeding log %s: %w", l.ID, err)
		}
	}

	return report, nil
}

func (c *Client) insertOrSkip(ctx context.Context, counts *store.TableReport, query string, args ...any) error {
	_, err := c.db.ExecContext(ctx, query, args...)
	switch {
	case err == nil:
		counts.Inserted++
	case isDuplicateKeyError(err):
		counts.Skipped++
	case isConstraintError(err):
		counts.Rejected++
	default:
		return err
	}
	return nil
}
