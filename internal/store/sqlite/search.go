package sqlite

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"rollsheet/internal/store"
)

const logIndexTable = "logs_fts"

// logIndexDDL builds an external-content index over logs.body. The triggers
// keep it in step with every later insert, update and delete.
const logIndexDDL = `
CREATE VIRTUAL TABLE IF NOT EXISTS logs_fts USING fts5(body, content='logs', content_rowid='rowid');

CREATE TRIGGER IF NOT EXISTS logs_fts_ai AFTER INSERT ON logs BEGIN
	INSERT INTO logs_fts(rowid, body) VALUES (new.rowid, new.body);
END;

CREATE TRIGGER IF NOT EXISTS logs_fts_ad AFTER DELETE ON logs BEGIN
	INSERT INTO logs_fts(logs_fts, rowid, body) VALUES ('delete', old.rowid, old.body);
END;

CREATE TRIGGER IF NOT EXISTS logs_fts_au AFTER UPDATE ON logs BEGIN
	INSERT INTO logs_fts(logs_fts, rowid, body) VALUES ('delete', old.rowid, old.body);
	INSERT INTO logs_fts(rowid, body) VALUES (new.rowid, new.body);
END;

INSERT INTO logs_fts(logs_fts) VALUES ('rebuild');
`

// EnsureLogIndex creates the log search index when the schema has a logs
// table. It reports false when there is nothing to index.
func (c *Client) EnsureLogIndex(ctx context.Context) (bool, error) {
	var found int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'logs'`).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("checking logs table: %w", err)
	}
	if found == 0 {
		return false, nil
	}
	if err := c.ApplySchema(ctx, logIndexDDL); err != nil {
		return false, fmt.Errorf("building log index: %w", err)
	}
	return true, nil
}

// isIndexTable reports whether name belongs to the log index (the virtual
// table or one of its shadow tables).
func isIndexTable(name string) bool {
	return name == logIndexTable || strings.HasPrefix(name, logIndexTable+"_")
}

// SearchLogs runs a web-style query ("quoted phrases", -exclusions, OR) over log
// bodies. The index must have been built by EnsureLogIndex.
func (c *Client) SearchLogs(ctx context.Context, query string, limit int) ([]store.LogMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if limit <= 0 {
		limit = 50
	}

	ftsQuery := convertWebsearchToFTS5(query)
	if ftsQuery == "" {
		return nil, store.ErrNoSearchTerms
	}

	sqlQuery := `
	SELECT l.id, COALESCE(l.session_id, ''), COALESCE(l.author_type, ''), COALESCE(l.body, ''),
		   COALESCE(l.tags, ''), COALESCE(l.created_at, ''),
		   bm25(logs_fts) AS score,
		   snippet(logs_fts, 0, '**', '**', '...', 16) AS snippet
	FROM logs_fts
	JOIN logs l ON logs_fts.rowid = l.rowid
	WHERE logs_fts MATCH ?
	ORDER BY score ASC, l.created_at DESC
	LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, sqlQuery, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching logs: %w", err)
	}
	defer rows.Close()

	results := []store.LogMatch{}
	for rows.Next() {
		var m store.LogMatch
		err := rows.Scan(&m.ID, &m.SessionID, &m.AuthorType, &m.Body, &m.Tags, &m.CreatedAt, &m.Score, &m.Snippet)
		if err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	return results, nil
}

// ftsBuilder writes FTS5 operators only between two operands. FTS5 has no
// unary NOT, so exclusions seen before the first term wait for one.
type ftsBuilder struct {
	parts   []string
	pending string
	held    []string
}

func (b *ftsBuilder) operand(term string) {
	if len(b.parts) > 0 {
		op := b.pending
		if op == "" {
			op = "AND"
		}
		b.parts = append(b.parts, op)
	}
	b.parts = append(b.parts, term)
	b.pending = ""

	for _, ex := range b.held {
		b.parts = append(b.parts, "NOT", ex)
	}
	b.held = nil
}

func (b *ftsBuilder) operator(op string) {
	if len(b.parts) > 0 {
		b.pending = op
	}
}

func (b *ftsBuilder) exclude(term string) {
	if len(b.parts) == 0 {
		b.held = append(b.held, term)
		return
	}
	b.parts = append(b.parts, "NOT", term)
	b.pending = ""
}

func (b *ftsBuilder) String() string {
	return strings.Join(b.parts, " ")
}

// convertWebsearchToFTS5 turns a search box query into FTS5 syntax. It returns
// "" when the query has no positive term.
func convertWebsearchToFTS5(query string) string {
	var b ftsBuilder
	var current strings.Builder
	inQuote := false
	negatePhrase := false

	flushWord := func() {
		token := current.String()
		current.Reset()
		if token == "" {
			return
		}

		switch upper := strings.ToUpper(token); upper {
		case "AND", "OR", "NOT":
			b.operator(upper)
			return
		}

		if strings.HasPrefix(token, "-") {
			if term := ftsTerm(token[1:]); term != "" {
				b.exclude(term)
			}
			return
		}
		if term := ftsTerm(token); term != "" {
			b.operand(term)
		}
	}

	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '"':
			if inQuote {
				inQuote = false
				phrase := strings.TrimSpace(current.String())
				current.Reset()
				if phrase == "" {
					continue
				}
				quoted := `"` + phrase + `"`
				if negatePhrase {
					b.exclude(quoted)
				} else {
					b.operand(quoted)
				}
			} else {
				negatePhrase = current.String() == "-"
				if negatePhrase {
					current.Reset()
				}
				flushWord()
				inQuote = true
			}
		case inQuote:
			current.WriteByte(ch)
		case ch == ' ' || ch == '\t':
			flushWord()
		default:
			current.WriteByte(ch)
		}
	}

	if inQuote {
		// Unterminated phrase: treat the rest as plain words.
		rest := current.String()
		current.Reset()
		for _, w := range strings.Fields(rest) {
			current.WriteString(w)
			flushWord()
		}
	}
	flushWord()

	return b.String()
}

// ftsTerm leaves FTS5 barewords alone and quotes anything else, keeping a
// trailing * as a prefix match.
func ftsTerm(word string) string {
	prefix := strings.HasSuffix(word, "*")
	word = strings.TrimRight(word, "*")
	if word == "" {
		return ""
	}

	term := word
	if !isBareword(word) {
		term = `"` + strings.ReplaceAll(word, `"`, `""`) + `"`
	}
	if prefix {
		term += "*"
	}
	return term
}

func isBareword(word string) bool {
	for _, r := range word {
		if r == '_' || r > unicode.MaxASCII || unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
