package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/estatehub-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	files, err := migrate.Files("")
	if err != nil {
		t.Fatalf("embedded migrations: %v", err)
	}
	if err := migrate.Validate(files); err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}
	embedded, err := fs.Glob(files, "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob disk: %v", err)
	}
	if len(embedded) != len(onDisk) {
		t.Fatalf("expected %d embedded migrations, got %d", len(onDisk), len(embedded))
	}
}

func TestValidateRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "1_users.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid file name to fail")
	}
}

func TestMigrationsContainConstraints(t *testing.T) {
	tests := []struct {
		pattern string
		checks  []string
	}{
		{
			pattern: "*_create_users.sql",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS users",
				"CREATE UNIQUE INDEX IF NOT EXISTS users_email_key",
				"DROP TABLE IF EXISTS users",
			},
		},
		{
			pattern: "*_create_properties.sql",
			checks: []string{
				"FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE",
				"country text NOT NULL DEFAULT 'Morocco'",
				"is_available boolean NOT NULL DEFAULT true",
			},
		},
		{
			pattern: "*_create_reviews_and_favorites.sql",
			checks: []string{
				"CONSTRAINT reviews_property_user_key UNIQUE (property_id, user_id)",
				"CONSTRAINT favorites_user_property_key UNIQUE (user_id, property_id)",
				"CHECK (rating BETWEEN 1 AND 5)",
			},
		},
		{
			pattern: "*_create_messages.sql",
			checks: []string{
				"FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE SET NULL",
				"messages_receiver_unread_idx",
			},
		},
		{
			pattern: "*_create_bookings.sql",
			checks: []string{
				"CONSTRAINT bookings_user_slot_key UNIQUE (user_id, property_id, visit_date, visit_time)",
				"FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE CASCADE",
			},
		},
		{
			pattern: "*_create_saved_searches.sql",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS saved_searches",
				"notifications_enabled boolean NOT NULL DEFAULT true",
			},
		},
	}

	for _, tt := range tests {
		matches, err := filepath.Glob(filepath.Join("migrations", tt.pattern))
		if err != nil {
			t.Fatalf("glob migrations: %v", err)
		}
		if len(matches) != 1 {
			t.Fatalf("expected one migration for %s, got %v", tt.pattern, matches)
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read migration file: %v", err)
		}
		for _, sub := range tt.checks {
			if !strings.Contains(string(data), sub) {
				t.Errorf("%s missing expected statement %q", matches[0], sub)
			}
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Property Tags!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_property_tags.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected error for empty sanitized name")
	}
}
