package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Add Loadbay Capacity!":      "add_loadbay_capacity",
		"  jobs -> plan_assignments": "jobs_plan_assignments",
		"Ändere Felder":              "ndere_felder",
		"!!!":                        "",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Fatalf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateAtRefusesToOverwrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	at := time.Date(2026, 4, 1, 6, 30, 0, 0, time.UTC)

	path, err := createAt(dir, "add shaft index", at)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20260401063000_add_shaft_index.sql" {
		t.Fatalf("unexpected path %s", path)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), "-- +goose Down") {
		t.Fatalf("template missing down section:\n%s", body)
	}

	if _, err := createAt(dir, "add shaft index", at); err == nil {
		t.Fatal("expected an existing migration to be left alone")
	}
	if _, err := createAt(dir, "???", at); err == nil {
		t.Fatal("expected unusable name to fail")
	}
}
