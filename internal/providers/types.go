package providers

import (
	"context"
	"errors"
)

// ErrUpstreamUnavailable marks a source that could not be fetched at all,
// or whose response lacked the expected top-level shape. Single missing
// fields never produce it; they degrade to zero values instead.
var ErrUpstreamUnavailable = errors.New("upstream source unavailable")

// CatalogueEntry is one discoverable manga in a source catalogue. Entries
// are recomputed on every listing; nothing persists them.
type CatalogueEntry struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	AliasText     string   `json:"alias,omitempty"`
	CoverImageURL string   `json:"coverImageUrl,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// MangaInfo is the detail-page projection of one manga. Upstream markup is
// not a schema, so every field is optional; a zero value means the field
// could not be extracted.
type MangaInfo struct {
	CoverImageURL  string   `json:"coverImageUrl,omitempty"`
	Title          string   `json:"title,omitempty"`
	Synopsis       string   `json:"synopsis,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	AlternateNames []string `json:"alternateNames,omitempty"`
}

// ChapterInfo is one chapter with a known page count. Chapters whose page
// count cannot be determined are dropped during parsing, never emitted
// with a zero count.
type ChapterInfo struct {
	Number    int `json:"number"`
	PageCount int `json:"pageCount"`
}

// Manga bundles the independently fetched facets of GetManga.
type Manga struct {
	Info     *MangaInfo    `json:"info,omitempty"`
	Chapters []ChapterInfo `json:"chapters,omitempty"`
}

// GetOptions selects which facets GetManga fetches. Each facet is
// best-effort on its own: a facet that fails to parse leaves its part of
// the result empty without failing the other.
type GetOptions struct {
	Info     bool
	Chapters bool
}

type Provider interface {
	Key() string
	Name() string

	// ListCatalogue returns every catalogue entry the source exposes.
	// A reachable source with zero recognizable entries yields an empty
	// slice, not an error.
	ListCatalogue(ctx context.Context) ([]CatalogueEntry, error)

	// GetManga fetches the requested facets for one manga id.
	GetManga(ctx context.Context, id string, opts GetOptions) (*Manga, error)

	// PageImageURL builds the image URL for one page of one chapter.
	// Pure string templating, no I/O.
	PageImageURL(id string, chapter int, page int) string

	// Search returns catalogue entries matching the query, case- and
	// accent-insensitive, against title or alias.
	Search(ctx context.Context, query string) ([]CatalogueEntry, error)
}
