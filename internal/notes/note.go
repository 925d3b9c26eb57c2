// Package notes reads session narration written as markdown with YAML frontmatter.
package notes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Note is one narration entry. Frontmatter keys: id, session, author, tags, created.
type Note struct {
	Frontmatter map[string]any
	ID          string
	Session     string
	Author      string
	Tags        []string
	Created     string
	Body        string
	SourceFile  string
}

var (
	ErrNoFrontmatter = errors.New("no frontmatter found")
	ErrInvalidYAML   = errors.New("invalid YAML in frontmatter")
	ErrMissingAuthor = errors.New("frontmatter missing required 'author' field")
	ErrEmptyBody     = errors.New("note has no body")
)

var authorTypes = map[string]struct{}{"gm": {}, "player": {}, "system": {}}

func ParseFile(path string) (*Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	note, err := Parse(data)
	if err != nil {
		return nil, err
	}
	note.SourceFile = path
	return note, nil
}

func Parse(content []byte) (*Note, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	end := bytes.Index(rest, []byte("---\n"))
	if end == -1 {
		return nil, ErrNoFrontmatter
	}

	yamlBytes := rest[:end]
	body := strings.TrimSpace(string(rest[end+len("---\n"):]))

	var frontmatter map[string]any
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, ErrInvalidYAML
	}

	author, ok := frontmatter["author"].(string)
	author = strings.ToLower(strings.TrimSpace(author))
	if !ok || author == "" {
		return nil, ErrMissingAuthor
	}
	if _, known := authorTypes[author]; !known {
		return nil, fmt.Errorf("unknown author %q: want gm, player or system", author)
	}
	if body == "" {
		return nil, ErrEmptyBody
	}

	tags, err := parseTags(frontmatter["tags"])
	if err != nil {
		return nil, err
	}

	return &Note{
		Frontmatter: frontmatter,
		ID:          stringField(frontmatter["id"]),
		Session:     stringField(frontmatter["session"]),
		Author:      author,
		Tags:        tags,
		Created:     timestampField(frontmatter["created"]),
		Body:        body,
	}, nil
}

// TagsText encodes tags the way the logs table stores them.
func (n *Note) TagsText() string {
	if len(n.Tags) == 0 {
		return ""
	}
	data, err := json.Marshal(n.Tags)
	if err != nil {
		return ""
	}
	return string(data)
}

func parseTags(value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("tags must be strings")
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			tags = append(tags, s)
		}
		if len(tags) == 0 {
			return nil, nil
		}
		return tags, nil
	default:
		return nil, fmt.Errorf("tags must be string or list of strings")
	}
}

func stringField(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return fmt.Sprint(v)
	}
}

// timestampField accepts YAML timestamps as well as plain strings.
func timestampField(value any) string {
	if t, ok := value.(time.Time); ok {
		return t.UTC().Format("2006-01-02T15:04:05Z")
	}
	return stringField(value)
}
