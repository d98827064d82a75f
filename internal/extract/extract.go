// Package extract holds the low-level helpers that pull individual fields
// out of scraped markup and text. Every helper reports success through an
// ok bool instead of an error so that one missing field never aborts
// extraction of its siblings.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Text returns the collapsed text content of the first node in the
// selection.
func Text(sel *goquery.Selection) (string, bool) {
	if sel == nil || sel.Length() == 0 {
		return "", false
	}
	text := CollapseWhitespace(sel.First().Text())
	if text == "" {
		return "", false
	}
	return text, true
}

// Attr returns the trimmed value of an attribute on the first node in the
// selection.
func Attr(sel *goquery.Selection, name string) (string, bool) {
	if sel == nil || sel.Length() == 0 {
		return "", false
	}
	raw, exists := sel.First().Attr(name)
	if !exists {
		return "", false
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

// Between returns the whitespace-collapsed substring of s found after the
// first occurrence of after and before the next occurrence of before.
func Between(s string, after string, before string) (string, bool) {
	_, tail, found := strings.Cut(s, after)
	if !found {
		return "", false
	}
	segment, _, found := strings.Cut(tail, before)
	if !found {
		return "", false
	}
	segment = CollapseWhitespace(segment)
	if segment == "" {
		return "", false
	}
	return segment, true
}

// SplitList splits on sep, trims each part and drops empties.
func SplitList(s string, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
