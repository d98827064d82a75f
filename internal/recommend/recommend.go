// Package recommend scores catalogue entries against a user's reading
// history. Everything here is pure; persistence and HTTP shaping live
// elsewhere.
package recommend

import "sort"

// HistoryItem is one manga the user has interacted with, reduced to the
// signals the scorer cares about. Rating 0 means unrated.
type HistoryItem struct {
	Tags      []string
	Favorited bool
	Crushed   bool
	Finished  bool
	Rating    int
}

// Candidate is a scored catalogue entry.
type Candidate struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Tags  []string `json:"tags,omitempty"`
	Score int      `json:"score"`
}

// Weight converts one history item into a tag weight. A favorite is a
// mild signal, a crush a strong one; a finished series only counts when
// the user also rated it above neutral. Ratings map linearly around the
// neutral midpoint of 3.
func Weight(item HistoryItem) int {
	weight := 0
	if item.Favorited {
		weight += 2
	}
	if item.Crushed {
		weight += 4
	}
	if item.Finished && item.Rating > 3 {
		weight += 3
	}
	if item.Rating > 0 {
		weight += 2 * (item.Rating - 3)
	}
	return weight
}

// Rank scores candidates against the history and returns them sorted by
// descending score. Candidates the user already owns, per the owned
// predicate, are excluded before scoring. A zero score is a valid result
// and stays in the list. Ties keep candidate input order.
func Rank(history []HistoryItem, candidates []Candidate, owned func(id string) bool) []Candidate {
	tagScores := make(map[string]int)
	for _, item := range history {
		weight := Weight(item)
		seen := make(map[string]struct{}, len(item.Tags))
		for _, tag := range item.Tags {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tagScores[tag] += weight
		}
	}

	ranked := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if owned != nil && owned(candidate.ID) {
			continue
		}
		score := 0
		for _, tag := range candidate.Tags {
			score += tagScores[tag]
		}
		candidate.Score = score
		ranked = append(ranked, candidate)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// RankByTags scores candidates by how many of the given tags they share.
// Used for "similar to this manga" lists; callers truncate the result.
func RankByTags(candidates []Candidate, tags []string) []Candidate {
	tagSet := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tagSet[tag] = struct{}{}
	}

	ranked := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		score := 0
		for _, tag := range candidate.Tags {
			if _, ok := tagSet[tag]; ok {
				score++
			}
		}
		candidate.Score = score
		ranked = append(ranked, candidate)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
