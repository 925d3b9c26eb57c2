package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"rollsheet/internal/store"
)

const characterColumns = `
	id, COALESCE(name, ''), COALESCE(system, ''), COALESCE(role_class, ''), COALESCE(level, 1),
	COALESCE(stats_json, '{}'), COALESCE(derived_json, '{}'), COALESCE(notes, '')
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row rowScanner) (store.Character, error) {
	var ch store.Character
	var statsJSON, derivedJSON string
	err := row.Scan(&ch.ID, &ch.Name, &ch.System, &ch.RoleClass, &ch.Level, &statsJSON, &derivedJSON, &ch.Notes)
	if err != nil {
		return ch, err
	}
	if err := unmarshalObject(statsJSON, &ch.Stats); err != nil {
		return ch, fmt.Errorf("unmarshaling stats: %w", err)
	}
	if err := unmarshalObject(derivedJSON, &ch.Derived); err != nil {
		return ch, fmt.Errorf("unmarshaling derived: %w", err)
	}
	return ch, nil
}

func unmarshalObject(text string, out *map[string]any) error {
	if text != "" {
		if err := json.Unmarshal([]byte(text), out); err != nil {
			return err
		}
	}
	if *out == nil {
		*out = map[string]any{}
	}
	return nil
}

// FirstCharacter returns the character shown on the sheet, or nil when none was seeded.
func (c *Client) FirstCharacter(ctx context.Context) (*store.Character, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+characterColumns+` FROM characters ORDER BY rowid LIMIT 1`)
	ch, err := scanCharacter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting character: %w", err)
	}
	return &ch, nil
}

func (c *Client) ListCharacters(ctx context.Context) ([]store.Character, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+characterColumns+` FROM characters ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	characters := []store.Character{}
	for rows.Next() {
		ch, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character: %w", err)
		}
		characters = append(characters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating characters: %w", err)
	}
	return characters, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]store.Session, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT id, COALESCE(title, ''), COALESCE(system, ''), COALESCE(started_at, ''),
	       COALESCE(ended_at, ''), COALESCE(gm_user_id, ''), COALESCE(notes, '')
	FROM sessions
	ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	sessions := []store.Session{}
	for rows.Next() {
		var s store.Session
		if err := rows.Scan(&s.ID, &s.Title, &s.System, &s.StartedAt, &s.EndedAt, &s.GMUserID, &s.Notes); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// ListLogs returns narration entries, optionally limited to one session.
func (c *Client) ListLogs(ctx context.Context, sessionID string) ([]store.LogEntry, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT id, COALESCE(session_id, ''), COALESCE(author_type, ''), COALESCE(body, ''),
	       COALESCE(tags, ''), COALESCE(created_at, '')
	FROM logs
	WHERE (? = '' OR session_id = ?)
	ORDER BY rowid
	`, sessionID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}
	defer rows.Close()

	entries := []store.LogEntry{}
	for rows.Next() {
		var e store.LogEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.AuthorType, &e.Body, &e.Tags, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating logs: %w", err)
	}
	return entries, nil
}
