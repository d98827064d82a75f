package searchutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctuationReplacer = strings.NewReplacer(
	"-", " ",
	".", " ",
	"_", " ",
	",", " ",
	":", " ",
	";", " ",
	"!", " ",
	"?", " ",
	"(", " ",
	")", " ",
	"[", " ",
	"]", " ",
	"{", " ",
	"}", " ",
	"'", " ",
	"\"", " ",
	"/", " ",
	"\\", " ",
	"|", " ",
	"+", " ",
	"=", " ",
	"#", " ",
	"&", " ",
	"*", " ",
)

// foldAccents decomposes accented characters and strips the combining
// marks, so "café" and "cafe" normalize to the same string.
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, accent-folds and collapses punctuation and
// whitespace. Comparisons between normalized strings are case- and
// diacritic-insensitive.
func Normalize(value string) string {
	clean := strings.ToLower(strings.TrimSpace(value))
	if clean == "" {
		return ""
	}
	if folded, _, err := transform.String(foldAccents, clean); err == nil {
		clean = folded
	}
	clean = punctuationReplacer.Replace(clean)
	return strings.Join(strings.Fields(clean), " ")
}

// Matches reports whether the normalized query is a substring of any of
// the candidates after normalization.
func Matches(query string, candidates ...string) bool {
	normalizedQuery := Normalize(query)
	if normalizedQuery == "" {
		return false
	}

	for _, candidate := range candidates {
		normalizedCandidate := Normalize(candidate)
		if normalizedCandidate == "" {
			continue
		}
		if strings.Contains(normalizedCandidate, normalizedQuery) {
			return true
		}
	}
	return false
}

func UniqueNonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	unique := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		key := Normalize(trimmed)
		if key == "" {
			continue
		}
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, trimmed)
	}

	return unique
}
