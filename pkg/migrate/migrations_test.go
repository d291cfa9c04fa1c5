package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}

func TestSyncColumnsMigrationBackfillsPending(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	var found bool
	for _, e := range entries {
		if !strings.Contains(e.Name(), "add_sync_columns") {
			continue
		}
		found = true
		b, err := os.ReadFile(filepath.Join("migrations", e.Name()))
		if err != nil {
			t.Fatalf("read migration: %v", err)
		}
		txt := string(b)
		if !strings.Contains(txt, "DEFAULT 'pending'") {
			t.Fatalf("sync_status must default to pending")
		}
		if !strings.Contains(txt, "SET sync_status = 'pending'") {
			t.Fatalf("existing rows must be backfilled to pending")
		}
	}
	if !found {
		t.Fatal("add_sync_columns migration missing")
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Something New!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read created migration: %v", err)
	}
	if !strings.Contains(string(b), "-- +goose Up") || !strings.Contains(string(b), "-- +goose Down") {
		t.Fatalf("template missing goose markers: %s", b)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration failed validation: %v", err)
	}
}
