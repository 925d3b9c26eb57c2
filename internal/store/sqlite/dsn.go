package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const MemoryDSN = "sqlite://:memory:"

func parseDSN(dsn string) (string, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = MemoryDSN
	}
	if !strings.HasPrefix(dsn, "sqlite://") {
		return "", fmt.Errorf("invalid sqlite DSN scheme, expected sqlite://")
	}

	rest := strings.TrimPrefix(dsn, "sqlite://")

	if rest == ":memory:" || rest == "" {
		return ":memory:", nil
	}

	path, query, hasQuery := strings.Cut(rest, "?")

	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	path = unescaped

	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") {
		path = "./" + path
	}
	if hasQuery {
		return path + "?" + query, nil
	}
	return path, nil
}
