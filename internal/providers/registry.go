package providers

import (
	"fmt"
	"sort"
)

// Registry is the provider lookup table. It is assembled once at startup
// through Builder and immutable afterwards.
type Registry struct {
	providers  map[string]Provider
	defaultKey string
}

type Descriptor struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type Builder struct {
	providers  map[string]Provider
	defaultKey string
	err        error
}

func NewBuilder() *Builder {
	return &Builder{providers: map[string]Provider{}}
}

func (b *Builder) Register(provider Provider) *Builder {
	if b.err != nil {
		return b
	}
	if provider == nil {
		b.err = fmt.Errorf("provider is nil")
		return b
	}

	key := provider.Key()
	if key == "" {
		b.err = fmt.Errorf("provider key is required")
		return b
	}
	if _, exists := b.providers[key]; exists {
		b.err = fmt.Errorf("provider %q already registered", key)
		return b
	}

	b.providers[key] = provider
	if b.defaultKey == "" {
		b.defaultKey = key
	}
	return b
}

func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.providers) == 0 {
		return nil, fmt.Errorf("no providers registered")
	}

	providers := make(map[string]Provider, len(b.providers))
	for key, provider := range b.providers {
		providers[key] = provider
	}

	return &Registry{providers: providers, defaultKey: b.defaultKey}, nil
}

func (r *Registry) Lookup(key string) (Provider, bool) {
	provider, ok := r.providers[key]
	return provider, ok
}

// Default returns the provider registered first.
func (r *Registry) Default() Provider {
	return r.providers[r.defaultKey]
}

func (r *Registry) List() []Descriptor {
	items := make([]Descriptor, 0, len(r.providers))
	for _, provider := range r.providers {
		items = append(items, Descriptor{Key: provider.Key(), Name: provider.Name()})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Key < items[j].Key
	})
	return items
}
