package sqlite

import (
	"context"
	"fmt"
	"strings"
)

// timestampExpr renders the current UTC time with millisecond precision so
// rolls recorded within the same second still sort by time.
const timestampExpr = `strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

const fallbackDDL = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	title      TEXT,
	system     TEXT,
	started_at TEXT,
	ended_at   TEXT,
	gm_user_id TEXT,
	notes      TEXT
);

CREATE TABLE IF NOT EXISTS rolls (
	id           TEXT PRIMARY KEY,
	session_id   TEXT REFERENCES sessions(id) ON DELETE SET NULL,
	roller_type  TEXT NOT NULL CHECK (roller_type IN ('character','npc','system')),
	roller_id    TEXT,
	expression   TEXT NOT NULL,
	inputs_json  TEXT,
	result_total INTEGER NOT NULL,
	results_json TEXT NOT NULL,
	context      TEXT,
	created_at   TEXT DEFAULT (` + timestampExpr + `)
);

CREATE INDEX IF NOT EXISTS idx_rolls_session_created ON rolls (session_id, created_at);
`

// ApplySchema executes a schema document verbatim inside one transaction.
func (c *Client) ApplySchema(ctx context.Context, ddl string) error {
	if strings.TrimSpace(ddl) == "" {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("executing DDL: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

// EnsureFallbackSchema guarantees the sessions and rolls tables exist even when
// the loaded schema left them out.
func (c *Client) EnsureFallbackSchema(ctx context.Context) error {
	if err := c.ApplySchema(ctx, fallbackDDL); err != nil {
		return fmt.Errorf("ensuring fallback schema: %w", err)
	}
	return nil
}

func (c *Client) EnsureSession(ctx context.Context, id string) (bool, error) {
	var found int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, id).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("checking session %s: %w", id, err)
	}
	if found > 0 {
		return false, nil
	}

	_, err = c.db.ExecContext(ctx, `
	INSERT INTO sessions (id, title, system, started_at)
	VALUES (?, 'Default Session', 'cyberpunk-red', `+timestampExpr+`)
	`, id)
	if err != nil {
		return false, fmt.Errorf("inserting session %s: %w", id, err)
	}
	return true, nil
}

// TableNames lists user tables. The log search index is left out.
func (c *Client) TableNames(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		if isIndexTable(name) {
			continue
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}
	return names, nil
}

func (c *Client) CountRows(ctx context.Context, table string) (int, error) {
	names, err := c.TableNames(ctx)
	if err != nil {
		return 0, err
	}
	known := false
	for _, name := range names {
		if name == table {
			known = true
			break
		}
	}
	if !known {
		return 0, fmt.Errorf("unknown table %q", table)
	}

	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "`+table+`"`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return count, nil
}
