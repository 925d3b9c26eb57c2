package seed

import "testing"

func TestParse(t *testing.T) {
	t.Run("legacy json keys", func(t *testing.T) {
		doc, err := Parse([]byte(`{
			"characters": [{"id": "char_eden", "name": "Eden", "system": "cyberpunk-red",
				"stats_json": {"REF": 7}, "derived_json": {"hp_max": 40}}],
			"extra": true
		}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(doc.Characters) != 1 {
			t.Fatalf("expected one character, got %d", len(doc.Characters))
		}
		c := doc.Characters[0]
		if c.StatsOrEmpty()["REF"] != float64(7) {
			t.Fatalf("expected legacy stats to be read, got %v", c.StatsOrEmpty())
		}
		if c.DerivedOrEmpty()["hp_max"] != float64(40) {
			t.Fatalf("expected legacy derived to be read, got %v", c.DerivedOrEmpty())
		}
		if c.LevelOrDefault() != 1 {
			t.Fatalf("expected default level 1, got %d", c.LevelOrDefault())
		}
	})

	t.Run("short keys win", func(t *testing.T) {
		doc, err := Parse([]byte(`{"characters": [{"id": "a", "stats": {"BODY": 5}, "stats_json": {"BODY": 1}, "level": 3}]}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		c := doc.Characters[0]
		if c.StatsOrEmpty()["BODY"] != float64(5) {
			t.Fatalf("expected short key to win, got %v", c.StatsOrEmpty())
		}
		if c.LevelOrDefault() != 3 {
			t.Fatalf("expected level 3, got %d", c.LevelOrDefault())
		}
		if len(c.DerivedOrEmpty()) != 0 {
			t.Fatalf("expected empty derived")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := Parse([]byte(`{"characters": [`)); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("empty document", func(t *testing.T) {
		doc, err := Parse([]byte(`{}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !doc.Empty() {
			t.Fatalf("expected empty document")
		}
		if len(doc.Keys()) != 0 {
			t.Fatalf("expected no keys, got %v", doc.Keys())
		}
	})
}

func TestLogTagsText(t *testing.T) {
	tests := []struct {
		name     string
		tags     any
		expected *string
	}{
		{name: "absent", tags: nil, expected: nil},
		{name: "string", tags: "combat", expected: strPtr("combat")},
		{name: "list", tags: []any{"combat", "net"}, expected: strPtr(`["combat","net"]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Log{ID: "log_1", Tags: tt.tags}.TagsText()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (got == nil) != (tt.expected == nil) {
				t.Fatalf("TagsText() = %v, want %v", got, tt.expected)
			}
			if got != nil && *got != *tt.expected {
				t.Fatalf("TagsText() = %q, want %q", *got, *tt.expected)
			}
		})
	}
}

func strPtr(s string) *string { return &s }
