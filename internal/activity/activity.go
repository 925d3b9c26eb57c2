// Package activity merges narration notes and dice rolls into one session log.
package activity

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"rollsheet/internal/store"
)

// MaxRolls is how many recent rolls the merged log pulls in.
const MaxRolls = 100

type Kind string

const (
	KindNote Kind = "note"
	KindRoll Kind = "roll"
)

type Entry struct {
	Kind      Kind
	SessionID string
	CreatedAt string
	Text      string
	Author    string
}

func (e Entry) Badge() string {
	return strings.ToUpper(string(e.Kind))
}

// Merge interleaves notes and rolls by timestamp text, newest first.
// Entries with equal timestamps keep notes ahead of rolls, each in input order.
func Merge(logs []store.LogEntry, rolls []store.RollRecord) []Entry {
	entries := make([]Entry, 0, len(logs)+len(rolls))
	for _, l := range logs {
		entries = append(entries, Entry{
			Kind:      KindNote,
			SessionID: l.SessionID,
			CreatedAt: l.CreatedAt,
			Text:      l.Body,
			Author:    l.AuthorType,
		})
	}
	for _, r := range rolls {
		entries = append(entries, Entry{
			Kind:      KindRoll,
			SessionID: r.SessionID,
			CreatedAt: r.Created,
			Text:      RollText(r),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt > entries[j].CreatedAt
	})
	return entries
}

// RollText renders a roll as "🎲 2d6 → 8 [3,5]".
func RollText(r store.RollRecord) string {
	faces := make([]string, len(r.Faces))
	for i, f := range r.Faces {
		faces[i] = strconv.Itoa(f)
	}
	return fmt.Sprintf("🎲 %s → %d [%s]", r.Expression, r.Total, strings.Join(faces, ","))
}

type Source interface {
	ListLogs(ctx context.Context, sessionID string) ([]store.LogEntry, error)
	ListRolls(ctx context.Context, sessionID string, limit int) ([]store.RollRecord, error)
}

// Load reads every note plus the most recent rolls of sessionID and merges them.
func Load(ctx context.Context, src Source, sessionID string) ([]Entry, error) {
	logs, err := src.ListLogs(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("loading notes: %w", err)
	}
	rolls, err := src.ListRolls(ctx, sessionID, MaxRolls)
	if err != nil {
		return nil, fmt.Errorf("loading rolls: %w", err)
	}
	return Merge(logs, rolls), nil
}
