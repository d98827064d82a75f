package library

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Store persists UserMangaState rows. The progress map is serialized to
// JSON only here; callers never see the serialized form.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Settings carries partial flag updates; nil fields are left untouched.
type Settings struct {
	IsFavorited   *bool `json:"isFavorited"`
	IsWatchlisted *bool `json:"isWatchlisted"`
	IsCrushed     *bool `json:"isCrushed"`
}

const stateColumns = `
	user_id, manga_id, provider_key,
	is_favorited, is_watchlisted, is_crushed, rating,
	progress, finished, times_finished, started_at, last_read_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (*UserMangaState, error) {
	var (
		state       UserMangaState
		rating      sql.NullInt64
		progressRaw string
		startedAt   sql.NullTime
		lastReadAt  sql.NullTime
	)

	err := row.Scan(
		&state.UserID, &state.MangaID, &state.ProviderKey,
		&state.IsFavorited, &state.IsWatchlisted, &state.IsCrushed, &rating,
		&progressRaw, &state.Finished, &state.TimesFinished, &startedAt, &lastReadAt,
	)
	if err != nil {
		return nil, err
	}

	if rating.Valid {
		state.Rating = int(rating.Int64)
	}
	if startedAt.Valid {
		t := startedAt.Time
		state.StartedAt = &t
	}
	if lastReadAt.Valid {
		t := lastReadAt.Time
		state.LastReadAt = &t
	}

	state.Progress = Progress{}
	if progressRaw != "" {
		if err := json.Unmarshal([]byte(progressRaw), &state.Progress); err != nil {
			return nil, fmt.Errorf("decode progress column: %w", err)
		}
	}

	return &state, nil
}

func encodeProgress(progress Progress) (string, error) {
	if progress == nil {
		progress = Progress{}
	}
	raw, err := json.Marshal(progress)
	if err != nil {
		return "", fmt.Errorf("encode progress column: %w", err)
	}
	return string(raw), nil
}

// Get returns the record for (user, manga), or nil when none exists.
func (s *Store) Get(userID string, mangaID string) (*UserMangaState, error) {
	row := s.db.QueryRow(`
		SELECT `+stateColumns+`
		FROM user_mangas
		WHERE user_id = ? AND manga_id = ?
	`, userID, mangaID)

	state, err := scanState(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user manga: %w", err)
	}
	return state, nil
}

// GetOrCreate returns the record, creating it with defaults on first
// interaction.
func (s *Store) GetOrCreate(userID string, mangaID string, providerKey string) (*UserMangaState, error) {
	if providerKey == "" {
		providerKey = "animesama"
	}
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO user_mangas (user_id, manga_id, provider_key)
		VALUES (?, ?, ?)
	`, userID, mangaID, providerKey)
	if err != nil {
		return nil, fmt.Errorf("create user manga: %w", err)
	}
	return s.Get(userID, mangaID)
}

// UpdateSettings applies the non-nil flags.
func (s *Store) UpdateSettings(userID string, mangaID string, settings Settings) error {
	setClauses := make([]string, 0, 3)
	args := make([]any, 0, 5)

	if settings.IsFavorited != nil {
		setClauses = append(setClauses, "is_favorited = ?")
		args = append(args, *settings.IsFavorited)
	}
	if settings.IsWatchlisted != nil {
		setClauses = append(setClauses, "is_watchlisted = ?")
		args = append(args, *settings.IsWatchlisted)
	}
	if settings.IsCrushed != nil {
		setClauses = append(setClauses, "is_crushed = ?")
		args = append(args, *settings.IsCrushed)
	}
	if len(setClauses) == 0 {
		return nil
	}

	query := "UPDATE user_mangas SET " + setClauses[0]
	for _, clause := range setClauses[1:] {
		query += ", " + clause
	}
	query += ", updated_at = CURRENT_TIMESTAMP WHERE user_id = ? AND manga_id = ?"
	args = append(args, userID, mangaID)

	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("update user manga settings: %w", err)
	}
	return nil
}

// SetRating stores the rating; rating 0 clears it.
func (s *Store) SetRating(userID string, mangaID string, rating int) error {
	var value any
	if rating > 0 {
		value = rating
	}
	_, err := s.db.Exec(`
		UPDATE user_mangas
		SET rating = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND manga_id = ?
	`, value, userID, mangaID)
	if err != nil {
		return fmt.Errorf("set user manga rating: %w", err)
	}
	return nil
}

// SaveProgress persists the progress-bearing fields of a state produced
// by the pure transitions. Finished and the finish counter are not
// written here; RecordFinish owns those.
func (s *Store) SaveProgress(state *UserMangaState) error {
	progressRaw, err := encodeProgress(state.Progress)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		UPDATE user_mangas
		SET progress = ?, finished = ?, started_at = ?, last_read_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND manga_id = ?
	`, progressRaw, state.Finished, state.StartedAt, state.LastReadAt, state.UserID, state.MangaID)
	if err != nil {
		return fmt.Errorf("save user manga progress: %w", err)
	}
	return nil
}

// RecordFinish persists a finish transition. The counter increments in
// SQL and only when the row was not already finished, so a replayed
// finish stays a no-op even across concurrent requests. Returns whether
// the transition applied.
func (s *Store) RecordFinish(state *UserMangaState) (bool, error) {
	progressRaw, err := encodeProgress(state.Progress)
	if err != nil {
		return false, err
	}

	result, err := s.db.Exec(`
		UPDATE user_mangas
		SET progress = ?, finished = 1, times_finished = times_finished + 1,
		    is_watchlisted = 0, last_read_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND manga_id = ? AND finished = 0
	`, progressRaw, state.LastReadAt, state.UserID, state.MangaID)
	if err != nil {
		return false, fmt.Errorf("record finish: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record finish rows affected: %w", err)
	}
	return affected > 0, nil
}

// List returns the user's records for one library tab.
func (s *Store) List(userID string, tab string) ([]UserMangaState, error) {
	query := `SELECT ` + stateColumns + ` FROM user_mangas WHERE user_id = ?`
	switch tab {
	case "reading":
		query += ` AND finished = 0 AND progress != '{}'`
	case "favorites":
		query += ` AND is_favorited = 1`
	case "watchlist":
		query += ` AND is_watchlisted = 1`
	case "read":
		query += ` AND times_finished > 0`
	case "", "all":
	default:
		return nil, fmt.Errorf("unknown library tab %q", tab)
	}
	query += ` ORDER BY last_read_at DESC NULLS LAST, manga_id ASC`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user mangas: %w", err)
	}
	defer rows.Close()

	states := make([]UserMangaState, 0)
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user manga row: %w", err)
		}
		states = append(states, *state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user manga rows: %w", err)
	}
	return states, nil
}

// AllIDs returns every manga id the user has a record for.
func (s *Store) AllIDs(userID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT manga_id FROM user_mangas WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user manga ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user manga id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user manga ids: %w", err)
	}
	return ids, nil
}

// OwnedIDs returns the ids excluded from recommendations: already
// favorited, watchlisted or finished.
func (s *Store) OwnedIDs(userID string) (map[string]struct{}, error) {
	rows, err := s.db.Query(`
		SELECT manga_id FROM user_mangas
		WHERE user_id = ? AND (is_favorited = 1 OR is_watchlisted = 1 OR finished = 1)
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list owned manga ids: %w", err)
	}
	defer rows.Close()

	owned := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owned manga id: %w", err)
		}
		owned[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owned manga ids: %w", err)
	}
	return owned, nil
}
