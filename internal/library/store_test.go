package library

import (
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/anismama/backend/internal/database"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.sqlite")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsPath := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if err := database.ApplyMigrations(db, migrationsPath); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if _, err := db.Exec(`INSERT INTO users (id, username, password_hash) VALUES ('u1', 'reader', 'x')`); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return NewStore(db)
}

func TestGetReturnsNilForAbsent(t *testing.T) {
	store := setupStore(t)

	state, err := store.Get("u1", "one-piece")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state != nil {
		t.Fatalf("expected nil for absent record, got %+v", state)
	}
}

func TestGetOrCreateDefaults(t *testing.T) {
	store := setupStore(t)

	state, err := store.GetOrCreate("u1", "one-piece", "")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if state == nil {
		t.Fatal("expected a record")
	}
	if state.ProviderKey != "animesama" {
		t.Fatalf("expected default provider key, got %q", state.ProviderKey)
	}
	if state.IsFavorited || state.Finished || state.TimesFinished != 0 {
		t.Fatalf("unexpected defaults: %+v", state)
	}
	if len(state.Progress) != 0 {
		t.Fatalf("expected empty progress, got %v", state.Progress)
	}

	// A second call is a read, not a reset.
	if err := store.SetRating("u1", "one-piece", 4); err != nil {
		t.Fatalf("SetRating: %v", err)
	}
	again, err := store.GetOrCreate("u1", "one-piece", "")
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if again.Rating != 4 {
		t.Fatalf("expected rating 4 to survive, got %d", again.Rating)
	}
}

func TestUpdateSettingsPartial(t *testing.T) {
	store := setupStore(t)
	if _, err := store.GetOrCreate("u1", "one-piece", ""); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	favorited := true
	if err := store.UpdateSettings("u1", "one-piece", Settings{IsFavorited: &favorited}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	crushed := true
	if err := store.UpdateSettings("u1", "one-piece", Settings{IsCrushed: &crushed}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	state, err := store.Get("u1", "one-piece")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !state.IsFavorited || !state.IsCrushed {
		t.Fatalf("expected both flags set, got %+v", state)
	}
	if state.IsWatchlisted {
		t.Fatal("watchlist flag must stay untouched")
	}
}

func TestSaveProgressRoundTrip(t *testing.T) {
	store := setupStore(t)
	state, err := store.GetOrCreate("u1", "one-piece", "")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	next := RecordPage(*state, 10, 4, 18, now)
	if err := store.SaveProgress(&next); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}

	loaded, err := store.Get("u1", "one-piece")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := loaded.Progress[10]; got.CurrentPage != 4 || got.TotalPages != 18 {
		t.Fatalf("unexpected progress %v", loaded.Progress)
	}
	if loaded.StartedAt == nil || loaded.LastReadAt == nil {
		t.Fatal("expected timestamps to persist")
	}
}

func TestRecordFinishAtomicIncrement(t *testing.T) {
	store := setupStore(t)
	state, err := store.GetOrCreate("u1", "one-piece", "")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	withProgress := RecordPage(*state, 3, 5, 20, now)
	if err := store.SaveProgress(&withProgress); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}

	finished := Finish(withProgress, 3, now)
	applied, err := store.RecordFinish(&finished)
	if err != nil {
		t.Fatalf("RecordFinish: %v", err)
	}
	if !applied {
		t.Fatal("expected first finish to apply")
	}

	// Replayed finish hits the finished = 0 guard and stays a no-op.
	applied, err = store.RecordFinish(&finished)
	if err != nil {
		t.Fatalf("RecordFinish replay: %v", err)
	}
	if applied {
		t.Fatal("expected replayed finish to be a no-op")
	}

	loaded, err := store.Get("u1", "one-piece")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loaded.TimesFinished != 1 {
		t.Fatalf("expected TimesFinished 1, got %d", loaded.TimesFinished)
	}
	if !loaded.Finished {
		t.Fatal("expected finished flag")
	}
	if loaded.IsWatchlisted {
		t.Fatal("expected watchlist flag cleared")
	}
	if got := loaded.Progress[3]; got.CurrentPage != got.TotalPages {
		t.Fatalf("expected clamped page, got %d/%d", got.CurrentPage, got.TotalPages)
	}
}

func TestListTabs(t *testing.T) {
	store := setupStore(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	reading, err := store.GetOrCreate("u1", "reading-one", "")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	inProgress := RecordPage(*reading, 1, 2, 10, now)
	if err := store.SaveProgress(&inProgress); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}

	if _, err := store.GetOrCreate("u1", "favorite-one", ""); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	favorited := true
	if err := store.UpdateSettings("u1", "favorite-one", Settings{IsFavorited: &favorited}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	done, err := store.GetOrCreate("u1", "done-one", "")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	finished := Finish(RecordPage(*done, 1, 10, 10, now), 1, now)
	if _, err := store.RecordFinish(&finished); err != nil {
		t.Fatalf("RecordFinish: %v", err)
	}

	cases := map[string][]string{
		"reading":   {"reading-one"},
		"favorites": {"favorite-one"},
		"watchlist": {},
		"read":      {"done-one"},
	}
	for tab, wantIDs := range cases {
		states, err := store.List("u1", tab)
		if err != nil {
			t.Fatalf("List(%s): %v", tab, err)
		}
		if len(states) != len(wantIDs) {
			t.Fatalf("List(%s): expected %d records, got %d", tab, len(wantIDs), len(states))
		}
		for i, want := range wantIDs {
			if states[i].MangaID != want {
				t.Fatalf("List(%s): expected %q, got %q", tab, want, states[i].MangaID)
			}
		}
	}

	all, err := store.List("u1", "all")
	if err != nil {
		t.Fatalf("List(all): %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records in all, got %d", len(all))
	}

	if _, err := store.List("u1", "bogus"); err == nil {
		t.Fatal("expected error for unknown tab")
	}
}

func TestOwnedIDs(t *testing.T) {
	store := setupStore(t)

	if _, err := store.GetOrCreate("u1", "plain", ""); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := store.GetOrCreate("u1", "favorited", ""); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	favorited := true
	if err := store.UpdateSettings("u1", "favorited", Settings{IsFavorited: &favorited}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	owned, err := store.OwnedIDs("u1")
	if err != nil {
		t.Fatalf("OwnedIDs: %v", err)
	}
	if _, ok := owned["favorited"]; !ok {
		t.Fatal("expected favorited id in owned set")
	}
	if _, ok := owned["plain"]; ok {
		t.Fatal("a record with no decision flags is not owned")
	}

	ids, err := store.AllIDs("u1")
	if err != nil {
		t.Fatalf("AllIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
}
