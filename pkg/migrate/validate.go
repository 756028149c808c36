package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var migrationFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks migration filenames and goose section markers.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	versions := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := migrationFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := versions[m[1]]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		versions[m[1]] = name

		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read file %q: %w", name, err)
		}
		text := string(body)
		if !strings.Contains(text, "-- +goose Up") {
			return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
		}
		if !strings.Contains(text, "-- +goose Down") {
			return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
		}
	}
	return nil
}
