package yamlprovider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/anismama/backend/internal/extract"
	"github.com/anismama/backend/internal/providers"
	"github.com/anismama/backend/internal/providers/animesama"
	"github.com/anismama/backend/internal/searchutil"
)

type Provider struct {
	cfg        Config
	stripSet   map[string]struct{}
	httpClient *http.Client
	logger     *slog.Logger
}

func NewProvider(cfg Config, client *http.Client) (*Provider, error) {
	if err := cfg.normalizeAndValidate(); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: 12 * time.Second}
	}

	stripSet := make(map[string]struct{}, len(cfg.Catalogue.StripClassToken)+1)
	stripSet[""] = struct{}{}
	for _, token := range cfg.Catalogue.StripClassToken {
		stripSet[token] = struct{}{}
	}

	return &Provider{
		cfg:        cfg,
		stripSet:   stripSet,
		httpClient: client,
		logger:     slog.Default(),
	}, nil
}

func (p *Provider) Key() string {
	return p.cfg.Key
}

func (p *Provider) Name() string {
	return p.cfg.Name
}

func (p *Provider) ListCatalogue(ctx context.Context) ([]providers.CatalogueEntry, error) {
	body, err := p.fetchPage(ctx, p.cfg.BaseURL+p.cfg.Catalogue.Path)
	if err != nil {
		return nil, fmt.Errorf("fetch catalogue listing: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse catalogue listing: %w", providers.ErrUpstreamUnavailable)
	}

	entries := make([]providers.CatalogueEntry, 0, 128)
	doc.Find(p.cfg.Catalogue.CardSelector).Each(func(_ int, card *goquery.Selection) {
		link, _ := extract.Attr(card.Find(p.cfg.Catalogue.LinkSelector), "href")
		id := p.extractID(link)
		if id == "" {
			return
		}

		entry := providers.CatalogueEntry{ID: id}
		if title, ok := extract.Text(card.Find(p.cfg.Catalogue.TitleSelector)); ok {
			entry.Title = title
		}
		if alias, ok := extract.Text(card.Find(p.cfg.Catalogue.AliasSelector)); ok {
			entry.AliasText = alias
		}
		if cover, ok := extract.Attr(card.Find(p.cfg.Catalogue.CoverSelector), "src"); ok {
			entry.CoverImageURL = cover
		}
		entry.Tags = p.extractCardTags(card)

		entries = append(entries, entry)
	})

	return entries, nil
}

func (p *Provider) GetManga(ctx context.Context, id string, opts providers.GetOptions) (*providers.Manga, error) {
	manga := &providers.Manga{}

	if opts.Info {
		body, err := p.fetchPage(ctx, p.cfg.BaseURL+expandPath(p.cfg.Info.Path, id))
		if err != nil {
			return nil, fmt.Errorf("fetch manga page: %w", err)
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parse manga page: %w", providers.ErrUpstreamUnavailable)
		}

		info := &providers.MangaInfo{}
		if p.cfg.Info.CoverSelector != "" {
			if cover, ok := extract.Attr(doc.Find(p.cfg.Info.CoverSelector), "src"); ok {
				info.CoverImageURL = cover
			}
		}
		if p.cfg.Info.TitleSelector != "" {
			if title, ok := extract.Text(doc.Find(p.cfg.Info.TitleSelector)); ok {
				info.Title = title
			}
		}
		pageText := doc.Text()
		if p.cfg.Info.SynopsisBetween[0] != "" {
			if synopsis, ok := extract.Between(pageText, p.cfg.Info.SynopsisBetween[0], p.cfg.Info.SynopsisBetween[1]); ok {
				info.Synopsis = synopsis
			}
		}
		if p.cfg.Info.TagsBetween[0] != "" {
			if tagsRaw, ok := extract.Between(pageText, p.cfg.Info.TagsBetween[0], p.cfg.Info.TagsBetween[1]); ok {
				info.Tags = searchutil.UniqueNonEmpty(extract.SplitList(tagsRaw, ","))
			}
		}
		if p.cfg.Info.AltNamesSelector != "" {
			if alterRaw, ok := extract.Text(doc.Find(p.cfg.Info.AltNamesSelector)); ok {
				info.AlternateNames = searchutil.UniqueNonEmpty(extract.SplitList(alterRaw, ","))
			}
		}
		manga.Info = info
	}

	if opts.Chapters {
		body, err := p.fetchPage(ctx, p.cfg.BaseURL+expandPath(p.cfg.Chapters.Path, id))
		if err != nil {
			return nil, fmt.Errorf("fetch chapter index: %w", err)
		}
		manga.Chapters = animesama.ParseChapterIndex(body, func(number int) {
			p.logger.Warn("chapter page count undeterminable, dropping",
				"provider", p.cfg.Key, "manga", id, "chapter", number)
		})
	}

	return manga, nil
}

func (p *Provider) PageImageURL(id string, chapter int, page int) string {
	replacer := strings.NewReplacer(
		"{base}", p.cfg.BaseURL,
		"{id}", id,
		"{chapter}", strconv.Itoa(chapter),
		"{page}", strconv.Itoa(page),
	)
	return replacer.Replace(p.cfg.PageImageURL)
}

func (p *Provider) Search(ctx context.Context, query string) ([]providers.CatalogueEntry, error) {
	entries, err := p.ListCatalogue(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]providers.CatalogueEntry, 0, 16)
	for _, entry := range entries {
		if searchutil.Matches(query, entry.Title, entry.AliasText) {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func (p *Provider) extractID(link string) string {
	_, tail, found := strings.Cut(link, p.cfg.Catalogue.IDAfter)
	if !found {
		return ""
	}
	id, _, _ := strings.Cut(tail, "/")
	return strings.TrimSpace(id)
}

func (p *Provider) extractCardTags(card *goquery.Selection) []string {
	classAttr, ok := extract.Attr(card, "class")
	if !ok {
		return nil
	}

	tokens := strings.Fields(classAttr)
	tags := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if _, skip := p.stripSet[token]; skip {
			continue
		}
		tag := strings.ReplaceAll(token, ",", "")
		if tag == "" {
			continue
		}
		if _, exists := seen[tag]; exists {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	if len(tags) == 0 {
		return nil
	}
	return tags
}

func expandPath(path string, id string) string {
	return strings.ReplaceAll(path, "{id}", url.PathEscape(id))
}

func (p *Provider) fetchPage(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	res, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", providers.ErrUpstreamUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("%w: unexpected status %d", providers.ErrUpstreamUnavailable, res.StatusCode)
	}

	rawBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response body: %v", providers.ErrUpstreamUnavailable, err)
	}

	return string(rawBody), nil
}
