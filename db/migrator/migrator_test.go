package migrator

import (
	"testing"
	"testing/fstest"

	"github.com/archon-research/lendpool/db/migrations"
)

func TestMigrationFiles_SortedSQLOnly(t *testing.T) {
	m := &Migrator{files: fstest.MapFS{
		"010_b.sql":   &fstest.MapFile{Data: []byte("SELECT 1;")},
		"002_a.sql":   &fstest.MapFile{Data: []byte("SELECT 1;")},
		"README.md":   &fstest.MapFile{Data: []byte("docs")},
		"sub/003.sql": &fstest.MapFile{Data: []byte("SELECT 1;")},
	}}

	files, err := m.migrationFiles()
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	if len(files) != 2 || files[0] != "002_a.sql" || files[1] != "010_b.sql" {
		t.Fatalf("files = %v", files)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	m := &Migrator{files: migrations.FS}

	files, err := m.migrationFiles()
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 embedded migrations, got %v", files)
	}
}
