package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendOnlyMigrationUsesBlockingTriggers(t *testing.T) {
	migrationPath := filepath.Join("..", "..", "db", "migrations", "0002_append_only_guard.up.sql")
	sqlBytes, err := os.ReadFile(migrationPath)
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sqlText := string(sqlBytes)

	expectedSnippets := []string{
		"append_only_guard",
		"RAISE EXCEPTION",
		"CREATE TRIGGER trg_localized_texts_block_update",
		"CREATE TRIGGER trg_localized_texts_block_delete",
		"CREATE TRIGGER trg_authors_block_update",
		"CREATE TRIGGER trg_authors_block_delete",
	}
	for _, snippet := range expectedSnippets {
		if !strings.Contains(sqlText, snippet) {
			t.Fatalf("expected migration to contain %q", snippet)
		}
	}
	if strings.Contains(sqlText, "DO INSTEAD NOTHING") {
		t.Fatalf("expected hard-fail guard, found silent DO INSTEAD NOTHING rule")
	}
}
