package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tracksync/tracksync/internal/schedule"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "schedule.json"))
}

func TestStore_LoadMissingFile(t *testing.T) {
	s := testStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("load on missing file: %v", err)
	}
	if _, ok := s.Get(); ok {
		t.Fatal("expected no schedule before EnsureDefault")
	}
}

func TestStore_EnsureDefault(t *testing.T) {
	s := testStore(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	cfg, created, err := s.EnsureDefault(now)
	if err != nil {
		t.Fatalf("ensure default: %v", err)
	}
	if !created {
		t.Error("expected created=true on first call")
	}
	if cfg.Cron != "0 */6 * * *" || cfg.Timezone != "UTC" || cfg.Enabled {
		t.Errorf("default config = %+v", cfg)
	}
	if cfg.Concurrency != schedule.ConcurrencySkip {
		t.Errorf("concurrency = %s, want skip", cfg.Concurrency)
	}

	// second call returns the existing document
	_, created, err = s.EnsureDefault(now.Add(time.Hour))
	if err != nil {
		t.Fatalf("ensure default again: %v", err)
	}
	if created {
		t.Error("expected created=false on second call")
	}
}

func TestStore_ReplacePersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	s := NewStore(path)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if _, _, err := s.EnsureDefault(now); err != nil {
		t.Fatalf("ensure default: %v", err)
	}

	upd := schedule.Update{
		Cron:          "30 9 * * *",
		Timezone:      "Europe/Berlin",
		Concurrency:   schedule.ConcurrencyQueue,
		Notifications: true,
		Enabled:       true,
	}
	later := now.Add(time.Hour)
	cfg, err := s.Replace(upd, later)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if cfg.Cron != upd.Cron || !cfg.Enabled {
		t.Errorf("replaced config = %+v", cfg)
	}
	if !cfg.CreatedAt.Equal(now) {
		t.Errorf("created_at = %v, server-owned field must be preserved", cfg.CreatedAt)
	}
	if !cfg.UpdatedAt.Equal(later) {
		t.Errorf("updated_at = %v, want %v", cfg.UpdatedAt, later)
	}

	// a fresh store reading the same file sees the update
	s2 := NewStore(path)
	if err := s2.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := s2.Get()
	if !ok {
		t.Fatal("expected persisted schedule")
	}
	if got.Cron != upd.Cron || got.Timezone != upd.Timezone {
		t.Errorf("reloaded config = %+v", got)
	}
}

func TestStore_ReplaceBeforeInit(t *testing.T) {
	s := testStore(t)
	if _, err := s.Replace(schedule.Update{Cron: "0 * * * *"}, time.Now()); err == nil {
		t.Fatal("expected error when no schedule exists yet")
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := testStore(t)
	if _, _, err := s.EnsureDefault(time.Now()); err != nil {
		t.Fatalf("ensure default: %v", err)
	}

	cfg, _ := s.Get()
	cfg.Cron = "mutated"

	again, _ := s.Get()
	if again.Cron == "mutated" {
		t.Fatal("Get must return a copy, not the stored pointer")
	}
}

func TestStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(path)
	if err := s.Load(); err == nil {
		t.Fatal("expected error for corrupt store file")
	}
}
