package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestOpen_AppliesEmbeddedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "maps.db")

	conn, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("Open() error = %v, want nil", err)
	}
	defer conn.Close()

	var count int
	if err := conn.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("query migrations: %v", err)
	}
	if count != 2 {
		t.Errorf("applied migrations = %d, want 2", count)
	}

	if _, err := conn.Exec("INSERT INTO render_jobs (id, value_label) VALUES ('a', 'Latency')"); err != nil {
		t.Errorf("insert into render_jobs: %v", err)
	}
}

func TestOpen_ReopenSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maps.db")

	first, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	first.Close()

	second, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("second Open() error = %v, want nil", err)
	}
	defer second.Close()
}

func TestMigrationManager_LoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_second.sql":  {Data: []byte("SELECT 2")},
		"001_first.sql":   {Data: []byte("SELECT 1")},
		"README.md":       {Data: []byte("not a migration")},
		"notes_draft.sql": {Data: []byte("SELECT 3")},
	}

	migrations, err := NewMigrationManager(nil, fsys).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error = %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("len(migrations) = %d, want 2", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "001_first" {
		t.Errorf("migrations[0] = %+v, want version 1", migrations[0])
	}
	if migrations[1].SQL != "SELECT 2" {
		t.Errorf("migrations[1].SQL = %q", migrations[1].SQL)
	}
}
