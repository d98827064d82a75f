package animesama

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/anismama/backend/internal/extract"
	"github.com/anismama/backend/internal/providers"
	"github.com/anismama/backend/internal/searchutil"
)

const canonicalBaseURL = "https://anime-sama.fr"

// Class tokens the catalogue cards carry that are site furniture rather
// than genre tags.
var boilerplateClassTokens = map[string]struct{}{
	"cardListAnime": {},
	"Scans":         {},
	"VOSTFR":        {},
	"VF":            {},
	"-":             {},
	"":              {},
}

var (
	chapterMarkerPattern = regexp.MustCompile(`eps(\d+)\s*(?:=|\.length)`)
	chapterLengthPattern = `eps%d.length\s*=\s*(\d+)\s*;`
)

type Provider struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewProvider() *Provider {
	return NewProviderWithOptions("", nil, nil)
}

func NewProviderWithOptions(baseURL string, client *http.Client, logger *slog.Logger) *Provider {
	if client == nil {
		client = &http.Client{Timeout: 12 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = canonicalBaseURL
	}
	return &Provider{
		baseURL:    trimmed,
		httpClient: client,
		logger:     logger,
	}
}

func (p *Provider) Key() string {
	return "animesama"
}

func (p *Provider) Name() string {
	return "Anime-Sama"
}

func (p *Provider) ListCatalogue(ctx context.Context) ([]providers.CatalogueEntry, error) {
	body, err := p.fetchPage(ctx, p.baseURL+"/catalogue/listing_all.php")
	if err != nil {
		return nil, fmt.Errorf("fetch catalogue listing: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse catalogue listing: %w", providers.ErrUpstreamUnavailable)
	}

	entries := make([]providers.CatalogueEntry, 0, 256)
	doc.Find(".Scans").Each(func(_ int, card *goquery.Selection) {
		link, _ := extract.Attr(card.Find("a"), "href")
		id := extractIDFromLink(link)
		if id == "" {
			return
		}

		entry := providers.CatalogueEntry{ID: id}
		if title, ok := extract.Text(card.Find("h1")); ok {
			entry.Title = title
		}
		if alias, ok := extract.Text(card.Find("p")); ok {
			entry.AliasText = alias
		}
		if cover, ok := extract.Attr(card.Find("img"), "src"); ok {
			entry.CoverImageURL = cover
		}
		entry.Tags = extractCardTags(card)

		entries = append(entries, entry)
	})

	return entries, nil
}

func (p *Provider) GetManga(ctx context.Context, id string, opts providers.GetOptions) (*providers.Manga, error) {
	manga := &providers.Manga{}

	if opts.Info {
		info, err := p.fetchInfo(ctx, id)
		if err != nil {
			return nil, err
		}
		manga.Info = info
	}

	if opts.Chapters {
		chapters, err := p.fetchChapters(ctx, id)
		if err != nil {
			return nil, err
		}
		manga.Chapters = chapters
	}

	return manga, nil
}

// PageImageURL builds the scan image URL. No I/O, always succeeds.
func (p *Provider) PageImageURL(id string, chapter int, page int) string {
	return fmt.Sprintf("%s/s2/scans/%s/%d/%d.jpg", p.baseURL, id, chapter, page)
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

func (p *Provider) fetchInfo(ctx context.Context, id string) (*providers.MangaInfo, error) {
	body, err := p.fetchPage(ctx, p.baseURL+"/catalogue/"+url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("fetch manga page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse manga page: %w", providers.ErrUpstreamUnavailable)
	}

	// Every field below is independent: a missing field stays zero and
	// never fails the call.
	info := &providers.MangaInfo{}
	if cover, ok := extract.Attr(doc.Find("#coverOeuvre"), "src"); ok {
		info.CoverImageURL = cover
	}
	if title, ok := extract.Text(doc.Find("#titreOeuvre")); ok {
		info.Title = title
	}

	pageText := doc.Text()
	if synopsis, ok := extract.Between(pageText, "Synopsis", "Genres"); ok {
		info.Synopsis = synopsis
	}
	if tagsRaw, ok := extract.Between(pageText, "Genres", "Sources"); ok {
		info.Tags = searchutil.UniqueNonEmpty(extract.SplitList(tagsRaw, ","))
	}
	if alterRaw, ok := extract.Text(doc.Find("#titreAlter")); ok {
		info.AlternateNames = searchutil.UniqueNonEmpty(extract.SplitList(alterRaw, ","))
	}

	return info, nil
}

func (p *Provider) fetchChapters(ctx context.Context, id string) ([]providers.ChapterInfo, error) {
	body, err := p.fetchPage(ctx, p.baseURL+"/catalogue/"+url.PathEscape(id)+"/scan/vf/episodes.js")
	if err != nil {
		return nil, fmt.Errorf("fetch chapter index: %w", err)
	}

	chapters := ParseChapterIndex(body, func(number int) {
		p.logger.Warn("chapter page count undeterminable, dropping",
			"manga", id, "chapter", number)
	})
	return chapters, nil
}

// ParseChapterIndex reads an episodes.js chapter index, the format shared
// by anime-sama and its mirrors. For each chapter marker the page count
// comes from the inline array form `var epsN= [a,b,...];` first, falling
// back to the explicit `epsN.length = M;` assignment. Chapters with
// neither form are dropped.
func ParseChapterIndex(body string, onDrop func(number int)) []providers.ChapterInfo {
	markers := chapterMarkerPattern.FindAllStringSubmatch(body, -1)
	if len(markers) == 0 {
		return nil
	}

	numbers := make([]int, 0, len(markers))
	seen := make(map[int]struct{}, len(markers))
	for _, marker := range markers {
		number, err := strconv.Atoi(marker[1])
		if err != nil || number <= 0 {
			continue
		}
		if _, exists := seen[number]; exists {
			continue
		}
		seen[number] = struct{}{}
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)

	chapters := make([]providers.ChapterInfo, 0, len(numbers))
	for _, number := range numbers {
		count, ok := parseInlineArrayCount(body, number)
		if !ok {
			count, ok = parseLengthAssignment(body, number)
		}
		if !ok || count <= 0 {
			if onDrop != nil {
				onDrop(number)
			}
			continue
		}
		chapters = append(chapters, providers.ChapterInfo{Number: number, PageCount: count})
	}

	return chapters
}

func parseInlineArrayCount(body string, number int) (int, bool) {
	open := fmt.Sprintf("var eps%d= [", number)
	_, tail, found := strings.Cut(body, open)
	if !found {
		return 0, false
	}
	inner, _, found := strings.Cut(tail, "];")
	if !found {
		return 0, false
	}

	count := 0
	for _, element := range strings.Split(inner, ",") {
		if strings.TrimSpace(element) == "" {
			continue
		}
		count++
	}
	if count == 0 {
		return 0, false
	}
	return count, true
}

func parseLengthAssignment(body string, number int) (int, bool) {
	pattern, err := regexp.Compile(fmt.Sprintf(chapterLengthPattern, number))
	if err != nil {
		return 0, false
	}
	match := pattern.FindStringSubmatch(body)
	if len(match) < 2 {
		return 0, false
	}
	count, err := strconv.Atoi(match[1])
	if err != nil || count <= 0 {
		return 0, false
	}
	return count, true
}

// extractIDFromLink derives the stable catalogue id from the card link:
// the path segment following "catalogue/".
func extractIDFromLink(link string) string {
	_, tail, found := strings.Cut(link, "catalogue/")
	if !found {
		return ""
	}
	id, _, _ := strings.Cut(tail, "/")
	return strings.TrimSpace(id)
}

// extractCardTags treats the card's class list, minus known site
// furniture, as genre tags. Comma artifacts within a token are stripped
// and duplicates removed.
func extractCardTags(card *goquery.Selection) []string {
	classAttr, ok := extract.Attr(card, "class")
	if !ok {
		return nil
	}

	tokens := strings.Fields(classAttr)
	tags := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if _, skip := boilerplateClassTokens[token]; skip {
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

func (p *Provider) fetchPage(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.8")

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
