// Package library holds the per-(user, manga) reading state and its
// transitions. Transitions are pure: every update returns a new state
// value with a fresh progress map, the input is never mutated.
package library

import (
	"fmt"
	"time"
)

// ChapterProgress is the reading position inside one chapter.
type ChapterProgress struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}

// Progress maps chapter numbers to positions. Sparse; only chapters the
// user has opened have an entry.
type Progress map[int]ChapterProgress

// UserMangaState is the durable record for one user and one manga.
type UserMangaState struct {
	UserID        string     `json:"-"`
	MangaID       string     `json:"mangaId"`
	ProviderKey   string     `json:"providerKey"`
	IsFavorited   bool       `json:"isFavorited"`
	IsWatchlisted bool       `json:"isWatchlisted"`
	IsCrushed     bool       `json:"isCrushed"`
	Rating        int        `json:"rating,omitempty"`
	Progress      Progress   `json:"progress"`
	Finished      bool       `json:"finished"`
	TimesFinished int        `json:"timesFinished"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	LastReadAt    *time.Time `json:"lastReadAt,omitempty"`
}

func cloneProgress(progress Progress) Progress {
	cloned := make(Progress, len(progress)+1)
	for chapter, position := range progress {
		cloned[chapter] = position
	}
	return cloned
}

// RecordPage upserts the position for one chapter. A write onto an
// empty progress map restarts StartedAt, so the reading clock begins
// again after a reset; every write sets LastReadAt. Same-chapter writes
// are last-write-wins, the previous entry is replaced whole. Finished is
// never touched here.
func RecordPage(state UserMangaState, chapter int, page int, totalPages int, now time.Time) UserMangaState {
	next := state
	next.Progress = cloneProgress(state.Progress)
	next.Progress[chapter] = ChapterProgress{CurrentPage: page, TotalPages: totalPages}

	if state.StartedAt == nil || len(state.Progress) == 0 {
		startedAt := now
		next.StartedAt = &startedAt
	}
	lastReadAt := now
	next.LastReadAt = &lastReadAt
	return next
}

// Finish marks the manga fully read. Finishing an already finished manga
// is a success no-op, TimesFinished does not move again. Otherwise the
// finishing chapter's current page is clamped to its total, the finish
// counter increments and the watchlist flag clears.
func Finish(state UserMangaState, chapter int, now time.Time) UserMangaState {
	if state.Finished {
		return state
	}

	next := state
	next.Progress = cloneProgress(state.Progress)
	if position, ok := next.Progress[chapter]; ok {
		position.CurrentPage = position.TotalPages
		next.Progress[chapter] = position
	}

	next.Finished = true
	next.TimesFinished = state.TimesFinished + 1
	next.IsWatchlisted = false
	lastReadAt := now
	next.LastReadAt = &lastReadAt
	return next
}

// Reset clears progress and the finished flag, nothing else. Settings,
// rating and the finish counter survive. Idempotent.
func Reset(state UserMangaState) UserMangaState {
	next := state
	next.Progress = Progress{}
	next.Finished = false
	return next
}

// ReplaceProgress overwrites the whole progress map after structural
// validation. Chapter keys must be positive, current pages non-negative
// and totals positive. Keys are not checked against the provider's
// chapter range; arbitrary chapters are accepted.
func ReplaceProgress(state UserMangaState, replacement Progress) (UserMangaState, error) {
	for chapter, position := range replacement {
		if chapter <= 0 {
			return state, fmt.Errorf("chapter key %d must be positive", chapter)
		}
		if position.CurrentPage < 0 {
			return state, fmt.Errorf("chapter %d: current page must not be negative", chapter)
		}
		if position.TotalPages <= 0 {
			return state, fmt.Errorf("chapter %d: total pages must be positive", chapter)
		}
	}

	next := state
	next.Progress = cloneProgress(replacement)
	return next, nil
}

// LatestChapter returns the numerically highest chapter with progress,
// or false when there is none.
func LatestChapter(progress Progress) (int, bool) {
	latest := 0
	found := false
	for chapter := range progress {
		if !found || chapter > latest {
			latest = chapter
			found = true
		}
	}
	return latest, found
}
