package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"aeroqualify/internal/bootstrap/config"
)

func TestWithPragmas(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		dsn  string
		want string
	}{
		{"plain path", "qms.sqlite", "qms.sqlite?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
		{"existing query", "file:qms.sqlite?cache=shared", "file:qms.sqlite?cache=shared&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
		{"memory", ":memory:", ":memory:"},
		{"explicit pragma", "qms.sqlite?_pragma=foreign_keys(1)", "qms.sqlite?_pragma=foreign_keys(1)"},
	}
	for _, tc := range cases {
		if got := withPragmas(tc.dsn); got != tc.want {
			t.Fatalf("%s: withPragmas(%q) = %q, want %q", tc.name, tc.dsn, got, tc.want)
		}
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "data")
	db, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(dir, "qms.sqlite")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("DB() error = %v", err)
	}
	defer sqlDB.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("sqlite directory not created: %v", err)
	}
	var mode string
	if err := db.Raw("PRAGMA journal_mode").Scan(&mode).Error; err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatalf("Open() expected error for unsupported driver")
	}
}
