package notes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"rollsheet/internal/store"
)

type Store interface {
	AddLog(ctx context.Context, e store.LogEntry) (store.TableReport, error)
}

type Result struct {
	Files    int
	Inserted int
	Skipped  int
	Rejected int
	Errors   []error
}

// Import loads every markdown note under roots into the logs table. A note
// without an id gets one derived from its content, so re-importing is a no-op.
// Unparseable files are collected in Result.Errors and do not stop the import.
func Import(ctx context.Context, roots, excludes []string, db Store) (*Result, error) {
	files, err := walkMarkdownFiles(roots, excludes)
	if err != nil {
		return nil, fmt.Errorf("walking note files: %w", err)
	}

	result := &Result{Files: len(files)}
	for _, path := range files {
		note, err := ParseFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
			continue
		}
		if note.ID == "" {
			hash, err := computeHash(path)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
				continue
			}
			note.ID = "note_" + hash[:12]
		}

		counts, err := db.AddLog(ctx, store.LogEntry{
			ID:         note.ID,
			SessionID:  note.Session,
			AuthorType: note.Author,
			Body:       note.Body,
			Tags:       note.TagsText(),
			CreatedAt:  note.Created,
		})
		if err != nil {
			return result, fmt.Errorf("importing %s: %w", path, err)
		}
		result.Inserted += counts.Inserted
		result.Skipped += counts.Skipped
		result.Rejected += counts.Rejected
	}

	return result, nil
}

func walkMarkdownFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
