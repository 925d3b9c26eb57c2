package sqlite

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"rollsheet/internal/assets"
	"rollsheet/internal/seed"
	"rollsheet/internal/store"
)

func TestConvertWebsearchToFTS5(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple term",
			input:    "netrun",
			expected: "netrun",
		},
		{
			name:     "multiple terms",
			input:    "black netrun",
			expected: "black AND netrun",
		},
		{
			name:     "explicit AND",
			input:    "netrun AND subnet",
			expected: "netrun AND subnet",
		},
		{
			name:     "explicit OR",
			input:    "netrun OR subnet",
			expected: "netrun OR subnet",
		},
		{
			name:     "negation",
			input:    "netrun -ice",
			expected: "netrun NOT ice",
		},
		{
			name:     "leading negation waits for a term",
			input:    "-ice netrun",
			expected: "netrun NOT ice",
		},
		{
			name:     "only negation",
			input:    "-ice",
			expected: "",
		},
		{
			name:     "negation after OR",
			input:    "netrun OR -ice",
			expected: "netrun NOT ice",
		},
		{
			name:     "negated phrase",
			input:    `netrun -"black ice"`,
			expected: `netrun NOT "black ice"`,
		},
		{
			name:     "leading operator dropped",
			input:    "NOT ice",
			expected: "",
		},
		{
			name:     "punctuation is quoted",
			input:    "club's night-city*",
			expected: `"club's" AND "night-city"*`,
		},
		{
			name:     "phrase",
			input:    `"black netrun"`,
			expected: `"black netrun"`,
		},
		{
			name:     "phrase with other term",
			input:    `"black netrun" afterlife`,
			expected: `"black netrun" AND afterlife`,
		},
		{
			name:     "prefix search",
			input:    "netrun*",
			expected: "netrun*",
		},
		{
			name:     "complex query",
			input:    `"black netrun" -ice afterlife OR fixer`,
			expected: `"black netrun" NOT ice AND afterlife OR fixer`,
		},
		{
			name:     "NOT operator",
			input:    "netrun NOT ice",
			expected: "netrun NOT ice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertWebsearchToFTS5(tt.input)
			if result != tt.expected {
				t.Errorf("convertWebsearchToFTS5(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSearchLogs(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()

	data, err := assets.Embedded(assets.SeedFile)
	if err != nil {
		t.Fatalf("reading seed: %v", err)
	}
	doc, err := seed.Parse(data)
	if err != nil {
		t.Fatalf("parsing seed: %v", err)
	}
	if _, err := client.Seed(ctx, doc); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	matches, err := client.SearchLogs(ctx, "subnet", 0)
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "log_002" {
		t.Fatalf("expected log_002, got %+v", matches)
	}
	if !strings.Contains(matches[0].Snippet, "**subnet**") {
		t.Fatalf("expected highlighted snippet, got %q", matches[0].Snippet)
	}

	matches, err = client.SearchLogs(ctx, "afterlife OR arasaka", 0)
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected two matches, got %d", len(matches))
	}

	exclusions := []struct {
		query string
		want  []string
	}{
		{"crew -fixer", nil},
		{"crew -arasaka", []string{"log_001"}},
		{"-arasaka crew", []string{"log_001"}},
		{"afterlife OR arasaka -defector", []string{"log_001"}},
		{`eden -"guest list"`, nil},
		{"club's", []string{"log_002"}},
	}
	for _, tc := range exclusions {
		matches, err := client.SearchLogs(ctx, tc.query, 0)
		if err != nil {
			t.Fatalf("searching %q: %v", tc.query, err)
		}
		var ids []string
		for _, m := range matches {
			ids = append(ids, m.ID)
		}
		if !reflect.DeepEqual(ids, tc.want) {
			t.Fatalf("search %q: expected %v, got %v", tc.query, tc.want, ids)
		}
	}

	if _, err := client.SearchLogs(ctx, "-eden", 0); !errors.Is(err, store.ErrNoSearchTerms) {
		t.Fatalf("expected ErrNoSearchTerms, got %v", err)
	}

	if _, err := client.SearchLogs(ctx, "   ", 0); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestLogIndexFollowsWrites(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()

	if _, err := client.AddLog(ctx, store.LogEntry{ID: "log_900", AuthorType: "gm", Body: "Militech convoy spotted"}); err != nil {
		t.Fatalf("adding log: %v", err)
	}
	matches, err := client.SearchLogs(ctx, "militech", 0)
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "log_900" {
		t.Fatalf("expected log_900, got %+v", matches)
	}

	if _, err := client.db.ExecContext(ctx, `UPDATE logs SET body = 'Convoy rerouted' WHERE id = 'log_900'`); err != nil {
		t.Fatalf("updating log: %v", err)
	}
	matches, err = client.SearchLogs(ctx, "militech", 0)
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches after update, got %+v", matches)
	}

	names, err := client.TableNames(ctx)
	if err != nil {
		t.Fatalf("listing tables: %v", err)
	}
	for _, name := range names {
		if strings.HasPrefix(name, "logs_fts") {
			t.Fatalf("expected index tables to be hidden, got %v", names)
		}
	}
}
