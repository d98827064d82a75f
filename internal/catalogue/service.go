package catalogue

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/anismama/backend/internal/providers"
)

// ErrCatalogueEmpty is returned by Random when every entry is excluded or
// the catalogue has no entries at all.
var ErrCatalogueEmpty = fmt.Errorf("catalogue has no eligible entries")

// Service caches the default provider's catalogue listing for a TTL.
// The cache is an optimization only: once a value expires it is never
// served again, callers wait on a fresh fetch and see its error if it
// fails. Concurrent callers share one in-flight refresh.
type Service struct {
	provider providers.Provider
	ttl      time.Duration

	mu        sync.Mutex
	entries   []providers.CatalogueEntry
	fetchedAt time.Time
}

func NewService(provider providers.Provider, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Service{provider: provider, ttl: ttl}
}

// All returns the catalogue, fetching from the provider when the cached
// copy is missing or expired.
func (s *Service) All(ctx context.Context) ([]providers.CatalogueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries != nil && time.Since(s.fetchedAt) < s.ttl {
		return s.entries, nil
	}

	entries, err := s.provider.ListCatalogue(ctx)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []providers.CatalogueEntry{}
	}

	s.entries = entries
	s.fetchedAt = time.Now()
	return entries, nil
}

// Refresh forces a fetch regardless of the cache state.
func (s *Service) Refresh(ctx context.Context) error {
	entries, err := s.provider.ListCatalogue(ctx)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []providers.CatalogueEntry{}
	}

	s.mu.Lock()
	s.entries = entries
	s.fetchedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// Find returns the catalogue entry with the given id, if present.
func (s *Service) Find(ctx context.Context, id string) (providers.CatalogueEntry, bool, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return providers.CatalogueEntry{}, false, err
	}
	for _, entry := range entries {
		if entry.ID == id {
			return entry, true, nil
		}
	}
	return providers.CatalogueEntry{}, false, nil
}

// Random picks a uniformly random entry whose id is not excluded.
func (s *Service) Random(ctx context.Context, excludeIDs []string) (providers.CatalogueEntry, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return providers.CatalogueEntry{}, err
	}

	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	eligible := make([]providers.CatalogueEntry, 0, len(entries))
	for _, entry := range entries {
		if _, skip := excluded[entry.ID]; skip {
			continue
		}
		eligible = append(eligible, entry)
	}

	if len(eligible) == 0 {
		return providers.CatalogueEntry{}, ErrCatalogueEmpty
	}
	return eligible[rand.Intn(len(eligible))], nil
}
