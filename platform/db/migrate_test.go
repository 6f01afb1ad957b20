package db

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationFSContainsPluginTables(t *testing.T) {
	migrations, err := MigrationFS()
	if err != nil {
		t.Fatalf("MigrationFS: %v", err)
	}

	content, err := fs.ReadFile(migrations, "00001_plugins.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}

	sql := strings.ToLower(string(content))
	for _, fragment := range []string{
		"-- +goose up",
		"-- +goose down",
		"create table if not exists posthog_pluginconfig",
		"create table if not exists posthog_pluginsourcefile",
		"web_token",
	} {
		if !strings.Contains(sql, fragment) {
			t.Fatalf("expected migration to contain %q", fragment)
		}
	}
}

type disabledMigrations struct{}

func (disabledMigrations) GetDatabaseURL() string { return "postgres://unused" }
func (disabledMigrations) GetRunMigrations() bool { return false }

func TestRunMigrationsSkipsWhenDisabled(t *testing.T) {
	results, err := RunMigrations(t.Context(), disabledMigrations{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Fatalf("expected no results, got %v", results)
	}
}
