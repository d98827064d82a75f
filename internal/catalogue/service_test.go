package catalogue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anismama/backend/internal/providers"
)

type fakeProvider struct {
	entries []providers.CatalogueEntry
	err     error
	calls   int
}

func (f *fakeProvider) Key() string  { return "fake" }
func (f *fakeProvider) Name() string { return "Fake Source" }

func (f *fakeProvider) ListCatalogue(context.Context) ([]providers.CatalogueEntry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func (f *fakeProvider) GetManga(context.Context, string, providers.GetOptions) (*providers.Manga, error) {
	return &providers.Manga{}, nil
}

func (f *fakeProvider) PageImageURL(string, int, int) string { return "" }

func (f *fakeProvider) Search(context.Context, string) ([]providers.CatalogueEntry, error) {
	return nil, nil
}

func TestServiceAllCachesWithinTTL(t *testing.T) {
	provider := &fakeProvider{entries: []providers.CatalogueEntry{{ID: "one-piece"}}}
	service := NewService(provider, time.Hour)

	for i := 0; i < 3; i++ {
		entries, err := service.All(context.Background())
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
	}
	if provider.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", provider.calls)
	}
}

func TestServiceAllRefetchesAfterExpiry(t *testing.T) {
	provider := &fakeProvider{entries: []providers.CatalogueEntry{{ID: "one-piece"}}}
	service := NewService(provider, time.Hour)

	if _, err := service.All(context.Background()); err != nil {
		t.Fatalf("All: %v", err)
	}
	service.mu.Lock()
	service.fetchedAt = time.Now().Add(-2 * time.Hour)
	service.mu.Unlock()

	if _, err := service.All(context.Background()); err != nil {
		t.Fatalf("All after expiry: %v", err)
	}
	if provider.calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", provider.calls)
	}
}

func TestServiceDoesNotServeStaleOnError(t *testing.T) {
	provider := &fakeProvider{entries: []providers.CatalogueEntry{{ID: "one-piece"}}}
	service := NewService(provider, time.Hour)

	if _, err := service.All(context.Background()); err != nil {
		t.Fatalf("All: %v", err)
	}

	service.mu.Lock()
	service.fetchedAt = time.Now().Add(-2 * time.Hour)
	service.mu.Unlock()
	provider.err = providers.ErrUpstreamUnavailable

	_, err := service.All(context.Background())
	if !errors.Is(err, providers.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error after expiry, got %v", err)
	}
}

func TestRandomExcludes(t *testing.T) {
	provider := &fakeProvider{entries: []providers.CatalogueEntry{
		{ID: "one-piece"},
		{ID: "berserk"},
	}}
	service := NewService(provider, time.Hour)

	for i := 0; i < 10; i++ {
		entry, err := service.Random(context.Background(), []string{"one-piece"})
		if err != nil {
			t.Fatalf("Random: %v", err)
		}
		if entry.ID != "berserk" {
			t.Fatalf("excluded entry %q was returned", entry.ID)
		}
	}
}

func TestRandomAllExcluded(t *testing.T) {
	provider := &fakeProvider{entries: []providers.CatalogueEntry{{ID: "one-piece"}}}
	service := NewService(provider, time.Hour)

	_, err := service.Random(context.Background(), []string{"one-piece"})
	if !errors.Is(err, ErrCatalogueEmpty) {
		t.Fatalf("expected ErrCatalogueEmpty, got %v", err)
	}
}

func TestRefresherRunOnce(t *testing.T) {
	provider := &fakeProvider{entries: []providers.CatalogueEntry{{ID: "one-piece"}}}
	service := NewService(provider, time.Hour)
	refresher := NewRefresher(service, time.Minute, nil)

	if err := refresher.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", provider.calls)
	}

	// The warm cache serves the next read without a second fetch.
	if _, err := service.All(context.Background()); err != nil {
		t.Fatalf("All: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("expected cache hit, got %d calls", provider.calls)
	}
}
