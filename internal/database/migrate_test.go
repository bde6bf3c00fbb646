package database

import (
	"strings"
	"testing"
)

func TestMigrationFiles(t *testing.T) {
	files, err := MigrationFiles()
	if err != nil {
		t.Fatalf("MigrationFiles() error = %v", err)
	}
	if len(files) == 0 {
		t.Fatal("MigrationFiles() returned no files")
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] >= files[i] {
			t.Errorf("migrations out of order: %s before %s", files[i-1], files[i])
		}
	}

	content, err := migrationsFS.ReadFile("migrations/" + files[0])
	if err != nil {
		t.Fatalf("read %s: %v", files[0], err)
	}
	if !strings.Contains(string(content), "idx_reminders_due") {
		t.Errorf("%s does not create the due-selection index", files[0])
	}
}
