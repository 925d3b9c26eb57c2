// Package assets fetches the schema and seed documents the database is built from.
//
// A source is either empty (the copy compiled into the binary), a local path,
// or an http(s) URL.
package assets

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"rollsheet/internal/seed"
)

const (
	SchemaFile = "schema.sql"
	SeedFile   = "seed.json"
)

//go:embed static/schema.sql static/seed.json
var static embed.FS

// Embedded returns the compiled-in copy of an asset.
func Embedded(name string) ([]byte, error) {
	data, err := fs.ReadFile(static, "static/"+name)
	if err != nil {
		return nil, fmt.Errorf("reading embedded %s: %w", name, err)
	}
	return data, nil
}

type Bundle struct {
	Schema string
	Seed   *seed.Document
}

type Loader struct {
	SchemaSource string
	SeedSource   string
	HTTPClient   *http.Client
}

// Load fetches both documents concurrently.
func (l *Loader) Load(ctx context.Context) (*Bundle, error) {
	var schemaData, seedData []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := l.fetch(gctx, l.SchemaSource, SchemaFile)
		if err != nil {
			return fmt.Errorf("fetching schema: %w", err)
		}
		schemaData = data
		return nil
	})
	g.Go(func() error {
		data, err := l.fetch(gctx, l.SeedSource, SeedFile)
		if err != nil {
			return fmt.Errorf("fetching seed: %w", err)
		}
		seedData = data
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc, err := seed.Parse(seedData)
	if err != nil {
		return nil, err
	}

	return &Bundle{Schema: string(schemaData), Seed: doc}, nil
}

func (l *Loader) fetch(ctx context.Context, source, name string) ([]byte, error) {
	source = strings.TrimSpace(source)
	switch {
	case source == "":
		return Embedded(name)
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		return l.fetchURL(ctx, source)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", source, err)
		}
		return data, nil
	}
}

func (l *Loader) fetchURL(ctx context.Context, url string) ([]byte, error) {
	client := l.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("requesting %s: unexpected status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return data, nil
}
