package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"rollsheet/internal/store"
)

type rollResults struct {
	Faces []int `json:"faces"`
}

func (c *Client) AddRoll(ctx context.Context, in store.RollInput) (string, error) {
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = store.DefaultSessionID
	}
	rollerType := in.RollerType
	if rollerType == "" {
		rollerType = store.DefaultRollerType
	}
	rollerID := in.RollerID
	if rollerID == "" {
		rollerID = store.DefaultRollerID
	}
	faces := in.Faces
	if faces == nil {
		faces = []int{}
	}

	resultsJSON, err := json.Marshal(rollResults{Faces: faces})
	if err != nil {
		return "", fmt.Errorf("marshaling roll results: %w", err)
	}

	id := "roll_" + uuid.NewString()
	_, err = c.db.ExecContext(ctx, `
	INSERT INTO rolls (id, session_id, roller_type, roller_id, expression, inputs_json, result_total, results_json, context, created_at)
	VALUES (?, ?, ?, ?, ?, NULL, ?, ?, NULL, `+timestampExpr+`)
	`, id, sessionID, rollerType, rollerID, in.Expression, in.Total, string(resultsJSON))
	if err != nil {
		return "", fmt.Errorf("adding roll: %w", err)
	}
	return id, nil
}

func (c *Client) ListRolls(ctx context.Context, sessionID string, limit int) ([]store.RollRecord, error) {
	if sessionID == "" {
		sessionID = store.DefaultSessionID
	}
	if limit <= 0 {
		limit = store.DefaultRollLimit
	}

	rows, err := c.db.QueryContext(ctx, `
	SELECT id, COALESCE(session_id, ''), expression, result_total, COALESCE(results_json, ''), COALESCE(created_at, '')
	FROM rolls
	WHERE session_id = ?
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing rolls: %w", err)
	}
	defer rows.Close()

	records := []store.RollRecord{}
	for rows.Next() {
		var r store.RollRecord
		var resultsJSON string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Expression, &r.Total, &resultsJSON, &r.Created); err != nil {
			return nil, fmt.Errorf("scanning roll: %w", err)
		}
		faces, err := decodeFaces(resultsJSON)
		if err != nil {
			return nil, fmt.Errorf("decoding faces for %s: %w", r.ID, err)
		}
		r.Faces = faces
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rolls: %w", err)
	}
	return records, nil
}

func decodeFaces(resultsJSON string) ([]int, error) {
	if resultsJSON == "" {
		return []int{}, nil
	}
	var results rollResults
	if err := json.Unmarshal([]byte(resultsJSON), &results); err != nil {
		return nil, err
	}
	if results.Faces == nil {
		return []int{}, nil
	}
	return results.Faces, nil
}
