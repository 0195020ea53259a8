package migrate

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pressly/goose/v3/sqlparser"
)

var (
	fileNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
	unsafeRe   = regexp.MustCompile(`[^a-z0-9]+`)
)

const newMigrationTemplate = `-- +goose Up
SELECT 'up: %[1]s';

-- +goose Down
SELECT 'down: %[1]s';
`

// CreateSQLMigration writes <dir>/<UTC timestamp>_<name>.sql with empty up
// and down sections. The name is lower-cased and reduced to [a-z0-9_].
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := strings.Trim(unsafeRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dir %q: %w", dir, err)
	}

	full := filepath.Join(dir, time.Now().UTC().Format("20060102150405")+"_"+slug+".sql")
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, newMigrationTemplate, slug); err != nil {
		return "", fmt.Errorf("write migration %q: %w", full, err)
	}
	return full, nil
}

// ValidateDir checks the migrations in dir, see Validate.
func ValidateDir(dir string) error {
	files, err := Files(dir)
	if err != nil {
		return err
	}
	return Validate(files)
}

// Validate checks file names, rejects duplicate versions and parses both
// directions of every migration with goose's SQL parser.
func Validate(files fs.FS) error {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	versions := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".sql" {
			continue
		}
		m := fileNameRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("migration %q: expected YYYYMMDDHHMMSS_name.sql", name)
		}
		if prev, dup := versions[m[1]]; dup {
			return fmt.Errorf("migrations %q and %q share version %s", prev, name, m[1])
		}
		versions[m[1]] = name

		body, err := fs.ReadFile(files, name)
		if err != nil {
			return fmt.Errorf("read %q: %w", name, err)
		}
		if err := parseBothDirections(body); err != nil {
			return fmt.Errorf("migration %q: %w", name, err)
		}
	}
	return nil
}

func parseBothDirections(body []byte) error {
	if !bytes.Contains(body, []byte("-- +goose Up")) || !bytes.Contains(body, []byte("-- +goose Down")) {
		return fmt.Errorf("missing goose Up or Down annotation")
	}
	for _, dir := range []sqlparser.Direction{sqlparser.DirectionUp, sqlparser.DirectionDown} {
		if _, _, err := sqlparser.ParseSQLMigration(bytes.NewReader(body), dir, false); err != nil {
			return fmt.Errorf("parse %s: %w", dir, err)
		}
	}
	return nil
}
