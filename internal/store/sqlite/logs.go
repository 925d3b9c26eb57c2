package sqlite

import (
	"context"
	"fmt"

	"rollsheet/internal/store"
)

// AddLog inserts one narration entry with the same skip rules as seeding.
// A blank session goes to the default session and a blank timestamp to now.
func (c *Client) AddLog(ctx context.Context, e store.LogEntry) (store.TableReport, error) {
	var counts store.TableReport
	sessionID := e.SessionID
	if sessionID == "" {
		sessionID = store.DefaultSessionID
	}
	var tags any
	if e.Tags != "" {
		tags = e.Tags
	}

	err := c.insertOrSkip(ctx, &counts, `
	INSERT INTO logs (id, session_id, author_type, body, tags, created_at)
	VALUES (?, ?, ?, ?, ?, COALESCE(NULLIF(?, ''), `+timestampExpr+`))
	`, e.ID, sessionID, e.AuthorType, e.Body, tags, e.CreatedAt)
	if err != nil {
		return counts, fmt.Errorf("adding log %s: %w", e.ID, err)
	}
	return counts, nil
}
