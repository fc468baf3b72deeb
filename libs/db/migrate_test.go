package db

import (
	"context"
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) < 2 {
		t.Fatalf("expected embedded migrations, got %v", names)
	}
	for i, name := range names {
		if !strings.HasPrefix(name, "migrations/000") {
			t.Fatalf("unexpected migration name %q", name)
		}
		if i > 0 && names[i-1] >= name {
			t.Fatalf("migrations out of order: %v", names)
		}
	}
}

func TestAppointmentsSchemaDefaults(t *testing.T) {
	body, err := migrationFiles.ReadFile("migrations/0001_content.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	sql := string(body)
	for _, want := range []string{
		"status TEXT NOT NULL DEFAULT 'pending'",
		"google_calendar_event_id TEXT,",
		"slug TEXT NOT NULL UNIQUE",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("schema missing %q", want)
		}
	}
}

func TestMigrateWithoutPool(t *testing.T) {
	if _, err := Migrate(context.Background(), nil); err == nil {
		t.Fatal("expected error without pool")
	}
}
