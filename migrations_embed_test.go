package main

import (
	"strings"
	"testing"
)

func TestMigrationNames_Ordered(t *testing.T) {
	names, err := migrationNames()
	if err != nil {
		t.Fatalf("migrationNames: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no embedded migrations")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("migrations out of order: %s before %s", names[i-1], names[i])
		}
	}
	if !strings.HasSuffix(names[0], "001_init.sql") {
		t.Errorf("first migration = %s, want 001_init.sql", names[0])
	}
}

func TestMigrations_Idempotent(t *testing.T) {
	names, err := migrationNames()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		b, err := migrationsFS.ReadFile(name)
		if err != nil {
			t.Fatal(err)
		}
		sql := string(b)
		if strings.Contains(sql, "CREATE TABLE ") && !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS") {
			t.Errorf("%s: CREATE TABLE without IF NOT EXISTS", name)
		}
		if strings.Contains(sql, "ADD COLUMN ") && !strings.Contains(sql, "ADD COLUMN IF NOT EXISTS") {
			t.Errorf("%s: ADD COLUMN without IF NOT EXISTS", name)
		}
	}
}
