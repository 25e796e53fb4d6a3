package main

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
)

// PostgresStore implements ProfileStore, SwipeStore and MatchStore on top of
// a single *sql.DB. All writes are single statements or small transactions;
// the conditional match insert is the only cross-user synchronization point.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the schema if it does not exist yet. Idempotent, safe to
// run on every startup.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id       TEXT PRIMARY KEY,
			display_name  TEXT NOT NULL,
			age           INT NOT NULL,
			academic_year TEXT NOT NULL,
			major         TEXT NOT NULL DEFAULT '',
			bio           TEXT NOT NULL DEFAULT '',
			interests     JSONB NOT NULL DEFAULT '[]',
			music         JSONB,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS swipes (
			from_user_id TEXT NOT NULL,
			to_user_id   TEXT NOT NULL,
			action       TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (from_user_id, to_user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_swipes_from ON swipes (from_user_id)`,
		`CREATE TABLE IF NOT EXISTS matches (
			pair_key         TEXT PRIMARY KEY,
			id               TEXT NOT NULL UNIQUE,
			user_a           TEXT NOT NULL,
			user_b           TEXT NOT NULL,
			matched_at       TIMESTAMPTZ NOT NULL,
			score            INT NOT NULL,
			common_interests JSONB NOT NULL DEFAULT '[]',
			status           TEXT NOT NULL DEFAULT 'active'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_user_a ON matches (user_a)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_user_b ON matches (user_b)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return storeErr(err)
		}
	}
	return nil
}

// withTx wraps a function in a database transaction.
// - Ensures COMMIT on success, ROLLBACK on errors or panics.
// - Keeps store methods tiny and all state changes atomic.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	defer func() {
		// If the callback panics, make sure to rollback before re-panicking
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// --- ProfileStore ---

const profileColumns = `user_id, display_name, age, academic_year, major, bio, interests, music, created_at, updated_at`

func scanProfile(row interface{ Scan(...interface{}) error }) (*Profile, error) {
	var p Profile
	var interests []byte
	var music []byte
	err := row.Scan(&p.UserID, &p.DisplayName, &p.Age, &p.Year, &p.Major, &p.Bio,
		&interests, &music, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(interests, &p.Interests); err != nil {
		p.Interests = nil
	}
	if len(music) > 0 {
		var mt MusicTaste
		if err := json.Unmarshal(music, &mt); err == nil {
			p.Music = &mt
		}
	}
	return &p, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	} else if err != nil {
		return nil, storeErr(err)
	}
	return p, nil
}

func (s *PostgresStore) GetProfiles(ctx context.Context, userIDs []string) (map[string]*Profile, error) {
	out := make(map[string]*Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ANY($1)`,
		pq.Array(userIDs))
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		out[p.UserID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *PostgresStore) QueryCandidates(ctx context.Context, excluding map[string]struct{}, limit int) ([]string, error) {
	excluded := make([]string, 0, len(excluding))
	for id := range excluding {
		excluded = append(excluded, id)
	}
	// LIMIT NULL means no cap, so 0 maps through NULLIF.
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM profiles
		WHERE NOT (user_id = ANY($1))
		ORDER BY user_id
		LIMIT NULLIF($2, 0)
	`, pq.Array(excluded), limit)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return ids, nil
}

func (s *PostgresStore) PutProfile(ctx context.Context, p *Profile) error {
	interests, err := json.Marshal(p.Interests)
	if err != nil {
		return err
	}
	var music []byte
	if p.Music != nil {
		if music, err = json.Marshal(p.Music); err != nil {
			return err
		}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, display_name, age, academic_year, major, bio, interests, music, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			age = EXCLUDED.age,
			academic_year = EXCLUDED.academic_year,
			major = EXCLUDED.major,
			bio = EXCLUDED.bio,
			interests = EXCLUDED.interests,
			music = EXCLUDED.music,
			updated_at = EXCLUDED.updated_at
	`, p.UserID, p.DisplayName, p.Age, string(p.Year), p.Major, p.Bio,
		interests, nullBytes(music), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

// --- SwipeStore ---

func (s *PostgresStore) PutSwipe(ctx context.Context, sw *Swipe) error {
	// One live record per ordered pair: a re-swipe overwrites the action
	// and bumps updated_at, keeping created_at from the first decision.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO swipes (from_user_id, to_user_id, action, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (from_user_id, to_user_id) DO UPDATE SET
			action = EXCLUDED.action,
			updated_at = EXCLUDED.updated_at
	`, sw.FromUserID, sw.ToUserID, string(sw.Action), sw.CreatedAt)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *PostgresStore) GetSwipe(ctx context.Context, fromUserID, toUserID string) (*Swipe, error) {
	var sw Swipe
	err := s.db.QueryRowContext(ctx, `
		SELECT from_user_id, to_user_id, action, created_at, updated_at
		FROM swipes
		WHERE from_user_id = $1 AND to_user_id = $2
	`, fromUserID, toUserID).Scan(&sw.FromUserID, &sw.ToUserID, &sw.Action, &sw.CreatedAt, &sw.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, storeErr(err)
	}
	return &sw, nil
}

func (s *PostgresStore) ListSwipedIDs(ctx context.Context, fromUserID string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT to_user_id FROM swipes WHERE from_user_id = $1`, fromUserID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr(err)
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// --- MatchStore ---

const matchColumns = `id, user_a, user_b, matched_at, score, common_interests, status`

func scanMatch(row interface{ Scan(...interface{}) error }) (*Match, error) {
	var m Match
	var common []byte
	err := row.Scan(&m.ID, &m.UserA, &m.UserB, &m.MatchedAt, &m.Score, &common, &m.Status)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(common, &m.CommonInterests); err != nil {
		m.CommonInterests = nil
	}
	return &m, nil
}

func (s *PostgresStore) CreateMatchIfAbsent(ctx context.Context, m *Match) (bool, *Match, error) {
	common, err := json.Marshal(m.CommonInterests)
	if err != nil {
		return false, nil, err
	}
	key := pairKey(m.UserA, m.UserB)

	// Conditional create keyed by the canonical pair: when both users like
	// each other in the same window, exactly one INSERT lands and the other
	// attempt reads the winner back.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (pair_key, id, user_a, user_b, matched_at, score, common_interests, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (pair_key) DO NOTHING
	`, key, m.ID, m.UserA, m.UserB, m.MatchedAt, m.Score, common, string(m.Status))
	if err != nil {
		return false, nil, storeErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		cp := *m
		return true, &cp, nil
	}

	existing, err := s.GetMatchByPair(ctx, m.UserA, m.UserB)
	if err != nil {
		return false, nil, err
	}
	if existing == nil {
		// Insert lost to a row that vanished before the read; treat as a
		// retryable store condition rather than inventing state.
		return false, nil, storeErr(sql.ErrNoRows)
	}
	return false, existing, nil
}

func (s *PostgresStore) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, matchID)
	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, ErrMatchNotFound
	} else if err != nil {
		return nil, storeErr(err)
	}
	return m, nil
}

func (s *PostgresStore) GetMatchByPair(ctx context.Context, userA, userB string) (*Match, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE pair_key = $1`, pairKey(userA, userB))
	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, storeErr(err)
	}
	return m, nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, userID string) ([]*Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE user_a = $1 OR user_b = $1
		ORDER BY matched_at DESC, id
	`, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	var out []*Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateMatchStatus(ctx context.Context, matchID string, from, to MatchStatus) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		// Row lock so concurrent transitions on the same match serialize.
		var current MatchStatus
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM matches WHERE id = $1 FOR UPDATE`, matchID).Scan(&current)
		if err == sql.ErrNoRows {
			return ErrMatchNotFound
		} else if err != nil {
			return storeErr(err)
		}
		switch current {
		case from:
			if _, err := tx.ExecContext(ctx,
				`UPDATE matches SET status = $1 WHERE id = $2`, string(to), matchID); err != nil {
				return storeErr(err)
			}
			return nil
		case to:
			// Repeat transition, idempotent.
			return nil
		default:
			return ErrInvalidTransition
		}
	})
}
