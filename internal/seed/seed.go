// Package seed describes the initial-data document loaded once at startup.
package seed

import (
	"encoding/json"
	"fmt"
)

type Document struct {
	Characters []Character `json:"characters"`
	Sessions   []Session   `json:"sessions"`
	Logs       []Log       `json:"logs"`
}

type Character struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	System    string         `json:"system"`
	RoleClass *string        `json:"role_class"`
	Level     *int           `json:"level"`
	Stats     map[string]any `json:"stats"`
	Derived   map[string]any `json:"derived"`
	Notes     *string        `json:"notes"`

	// Older seed files spell the serialized columns out.
	StatsJSON   map[string]any `json:"stats_json"`
	DerivedJSON map[string]any `json:"derived_json"`
}

type Session struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	System    string  `json:"system"`
	StartedAt *string `json:"started_at"`
	EndedAt   *string `json:"ended_at"`
	GMUserID  *string `json:"gm_user_id"`
	Notes     *string `json:"notes"`
}

type Log struct {
	ID         string  `json:"id"`
	SessionID  *string `json:"session_id"`
	AuthorType string  `json:"author_type"`
	Body       string  `json:"body"`
	Tags       any     `json:"tags"`
	CreatedAt  *string `json:"created_at"`
}

// Parse decodes a seed document. Unknown top-level keys are ignored.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding seed document: %w", err)
	}
	return &doc, nil
}

// StatsOrEmpty returns the character stats, preferring the short key.
func (c Character) StatsOrEmpty() map[string]any {
	if c.Stats != nil {
		return c.Stats
	}
	if c.StatsJSON != nil {
		return c.StatsJSON
	}
	return map[string]any{}
}

func (c Character) DerivedOrEmpty() map[string]any {
	if c.Derived != nil {
		return c.Derived
	}
	if c.DerivedJSON != nil {
		return c.DerivedJSON
	}
	return map[string]any{}
}

func (c Character) LevelOrDefault() int {
	if c.Level == nil {
		return 1
	}
	return *c.Level
}

// TagsText flattens the tags field, which seed files write either as a string or a list.
func (l Log) TagsText() (*string, error) {
	switch v := l.Tags.(type) {
	case nil:
		return nil, nil
	case string:
		return &v, nil
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding tags for log %s: %w", l.ID, err)
		}
		text := string(payload)
		return &text, nil
	}
}

// Empty reports whether the document has no rows at all.
func (d *Document) Empty() bool {
	return d == nil || (len(d.Characters) == 0 && len(d.Sessions) == 0 && len(d.Logs) == 0)
}

func (d *Document) Keys() []string {
	var keys []string
	if d == nil {
		return keys
	}
	if d.Characters != nil {
		keys = append(keys, "characters")
	}
	if d.Sessions != nil {
		keys = append(keys, "sessions")
	}
	if d.Logs != nil {
		keys = append(keys, "logs")
	}
	return keys
}
