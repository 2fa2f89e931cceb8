package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"vibin_matcher/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	user_id  TEXT PRIMARY KEY,
	age      INTEGER NOT NULL DEFAULT 0,
	gender   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS survey_responses (
	user_id     TEXT NOT NULL,
	question_id TEXT NOT NULL,
	value       TEXT NOT NULL,
	PRIMARY KEY (user_id, question_id)
);

CREATE TABLE IF NOT EXISTS intentions (
	intention_id      TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL,
	structured_intent TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pool_entries (
	entry_id     TEXT PRIMARY KEY,
	intention_id TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	tier         INTEGER NOT NULL DEFAULT 0,
	joined_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS matches (
	match_id        TEXT PRIMARY KEY,
	connection_type TEXT NOT NULL,
	group_size      INTEGER NOT NULL,
	score           REAL NOT NULL,
	tier_used       INTEGER NOT NULL,
	status          TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	expires_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS match_members (
	match_id     TEXT NOT NULL REFERENCES matches(match_id) ON DELETE CASCADE,
	user_id      TEXT NOT NULL,
	intention_id TEXT NOT NULL,
	entry_id     TEXT NOT NULL,
	PRIMARY KEY (match_id, user_id)
);

CREATE TABLE IF NOT EXISTS batch_locks (
	lock_key    TEXT PRIMARY KEY,
	owner       TEXT NOT NULL,
	acquired_at INTEGER NOT NULL,
	expires_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pool_entries_user ON pool_entries(user_id);
CREATE INDEX IF NOT EXISTS idx_match_members_user ON match_members(user_id);
`

// SQLiteStore is a single-node pool store. It satisfies the same interfaces
// as DynamoPoolStore and is meant for local runs and development.
type SQLiteStore struct {
	DB  *sql.DB
	Log logr.Logger
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string, log logr.Logger) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{DB: db, Log: log}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.DB.Close()
}

// withTx runs fn in a transaction.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// Enqueue stores a user's profile, survey answers and intention and puts
// the intention into the pool.
func (s *SQLiteStore) Enqueue(ctx context.Context, entry models.PoolEntry, intention models.IntentionRecord, profile models.UserProfile, survey []models.SurveyResponse) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (user_id, age, gender) VALUES (?, ?, ?)
			 ON CONFLICT(user_id) DO UPDATE SET age = excluded.age, gender = excluded.gender`,
			profile.UserID, profile.Age, profile.Gender); err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
		for _, r := range survey {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO survey_responses (user_id, question_id, value) VALUES (?, ?, ?)
				 ON CONFLICT(user_id, question_id) DO UPDATE SET value = excluded.value`,
				profile.UserID, r.QuestionID, r.Value); err != nil {
				return fmt.Errorf("upsert survey response: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO intentions (intention_id, user_id, structured_intent) VALUES (?, ?, ?)`,
			intention.IntentionID, intention.UserID, intention.StructuredIntent); err != nil {
			return fmt.Errorf("insert intention: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pool_entries (entry_id, intention_id, user_id, tier, joined_at) VALUES (?, ?, ?, ?, ?)`,
			entry.EntryID, entry.IntentionID, entry.UserID, entry.Tier, formatTime(entry.JoinedAt)); err != nil {
			return fmt.Errorf("insert pool entry: %w", err)
		}
		return nil
	})
}

// ListPoolEntries returns every entry in the pool.
func (s *SQLiteStore) ListPoolEntries(ctx context.Context) ([]models.PoolEntry, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT entry_id, intention_id, user_id, tier, joined_at FROM pool_entries ORDER BY joined_at, entry_id`)
	if err != nil {
		return nil, fmt.Errorf("query pool entries: %w", err)
	}
	defer rows.Close()

	var entries []models.PoolEntry
	for rows.Next() {
		var e models.PoolEntry
		var joined string
		if err := rows.Scan(&e.EntryID, &e.IntentionID, &e.UserID, &e.Tier, &joined); err != nil {
			return nil, fmt.Errorf("scan pool entry: %w", err)
		}
		if e.JoinedAt, err = parseTime(joined); err != nil {
			return nil, fmt.Errorf("pool entry %s: bad joined_at: %w", e.EntryID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReadPool joins every pool entry with its intention, profile and answers.
func (s *SQLiteStore) ReadPool(ctx context.Context) ([]models.PoolRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT p.entry_id, p.intention_id, p.user_id, p.tier, p.joined_at,
		       i.intention_id, i.user_id, i.structured_intent,
		       COALESCE(u.age, 0), COALESCE(u.gender, '')
		FROM pool_entries p
		LEFT JOIN intentions i ON i.intention_id = p.intention_id
		LEFT JOIN users u ON u.user_id = p.user_id
		ORDER BY p.joined_at, p.entry_id`)
	if err != nil {
		return nil, fmt.Errorf("query pool: %w", err)
	}

	var records []models.PoolRecord
	for rows.Next() {
		var (
			rec                       models.PoolRecord
			joined                    string
			intID, intUser, intIntent sql.NullString
		)
		if err := rows.Scan(&rec.Entry.EntryID, &rec.Entry.IntentionID, &rec.Entry.UserID, &rec.Entry.Tier, &joined,
			&intID, &intUser, &intIntent, &rec.Profile.Age, &rec.Profile.Gender); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan pool row: %w", err)
		}
		if rec.Entry.JoinedAt, err = parseTime(joined); err != nil {
			rows.Close()
			return nil, fmt.Errorf("pool entry %s: bad joined_at: %w", rec.Entry.EntryID, err)
		}
		rec.Profile.UserID = rec.Entry.UserID
		if intID.Valid {
			rec.Intention = &models.IntentionRecord{
				IntentionID:      intID.String,
				UserID:           intUser.String,
				StructuredIntent: intIntent.String,
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Answers are loaded after the pool cursor is closed; the pool holds a
	// single connection.
	for i := range records {
		survey, err := s.surveyFor(ctx, records[i].Entry.UserID)
		if err != nil {
			return nil, err
		}
		records[i].Survey = survey
	}
	return records, nil
}

func (s *SQLiteStore) surveyFor(ctx context.Context, userID string) ([]models.SurveyResponse, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT question_id, value FROM survey_responses WHERE user_id = ? ORDER BY question_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query survey responses: %w", err)
	}
	defer rows.Close()

	var out []models.SurveyResponse
	for rows.Next() {
		r := models.SurveyResponse{UserID: userID}
		if err := rows.Scan(&r.QuestionID, &r.Value); err != nil {
			return nil, fmt.Errorf("scan survey response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CommitMatch inserts the match with its members and deletes the consumed
// entries in one transaction. If any entry is already gone nothing is
// written.
func (s *SQLiteStore) CommitMatch(ctx context.Context, match models.Match) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO matches (match_id, connection_type, group_size, score, tier_used, status, created_at, expires_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			match.MatchID, match.ConnectionType, match.GroupSize, match.Score, match.TierUsed, match.Status,
			formatTime(match.CreatedAt), formatTime(match.ExpiresAt)); err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
		for _, m := range match.Members {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO match_members (match_id, user_id, intention_id, entry_id) VALUES (?, ?, ?, ?)`,
				match.MatchID, m.UserID, m.IntentionID, m.EntryID); err != nil {
				return fmt.Errorf("insert match member: %w", err)
			}
			res, err := tx.ExecContext(ctx, `DELETE FROM pool_entries WHERE entry_id = ?`, m.EntryID)
			if err != nil {
				return fmt.Errorf("delete pool entry: %w", err)
			}
			if n, _ := res.RowsAffected(); n != 1 {
				return fmt.Errorf("match %s entry %s: %w", match.MatchID, m.EntryID, ErrEntryGone)
			}
		}
		return nil
	})
}

// MatchesForUser returns the matches a user belongs to, newest first.
func (s *SQLiteStore) MatchesForUser(ctx context.Context, userID string) ([]models.Match, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT m.match_id, m.connection_type, m.group_size, m.score, m.tier_used, m.status, m.created_at, m.expires_at
		FROM matches m
		JOIN match_members mm ON mm.match_id = m.match_id
		WHERE mm.user_id = ?
		ORDER BY m.created_at DESC, m.match_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}

	var matches []models.Match
	for rows.Next() {
		var (
			m                  models.Match
			created, expiresAt string
		)
		if err := rows.Scan(&m.MatchID, &m.ConnectionType, &m.GroupSize, &m.Score, &m.TierUsed, &m.Status, &created, &expiresAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if m.CreatedAt, err = parseTime(created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("match %s: bad created_at: %w", m.MatchID, err)
		}
		if m.ExpiresAt, err = parseTime(expiresAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("match %s: bad expires_at: %w", m.MatchID, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range matches {
		if err := s.loadMembers(ctx, &matches[i]); err != nil {
			return nil, err
		}
	}
	return matches, nil
}

func (s *SQLiteStore) loadMembers(ctx context.Context, m *models.Match) error {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT user_id, intention_id, entry_id FROM match_members WHERE match_id = ? ORDER BY rowid`, m.MatchID)
	if err != nil {
		return fmt.Errorf("query match members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mem models.MatchMember
		if err := rows.Scan(&mem.UserID, &mem.IntentionID, &mem.EntryID); err != nil {
			return fmt.Errorf("scan match member: %w", err)
		}
		m.Members = append(m.Members, mem)
		m.Users = append(m.Users, mem.UserID)
	}
	return rows.Err()
}

// UpdateTier raises an entry's tier; lower or equal tiers are ignored.
func (s *SQLiteStore) UpdateTier(ctx context.Context, entryID string, tier int) error {
	if _, err := s.DB.ExecContext(ctx,
		`UPDATE pool_entries SET tier = ? WHERE entry_id = ? AND tier < ?`, tier, entryID, tier); err != nil {
		return fmt.Errorf("update tier: %w", err)
	}
	return nil
}

// DeleteEntry removes a pool entry.
func (s *SQLiteStore) DeleteEntry(ctx context.Context, entryID string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM pool_entries WHERE entry_id = ?`, entryID); err != nil {
		return fmt.Errorf("delete pool entry: %w", err)
	}
	return nil
}

// SQLiteLocker is an advisory lock stored in the batch_locks table.
type SQLiteLocker struct {
	DB    *sql.DB
	Lease time.Duration
	Owner string
	Clock func() time.Time
}

// NewSQLiteLocker returns a locker with a fresh owner token over store's
// database.
func NewSQLiteLocker(store *SQLiteStore, lease time.Duration) *SQLiteLocker {
	if lease <= 0 {
		lease = DefaultLockLease
	}
	return &SQLiteLocker{DB: store.DB, Lease: lease, Owner: uuid.NewString(), Clock: time.Now}
}

// TryAcquire takes the lock when no unexpired row holds it.
func (l *SQLiteLocker) TryAcquire(ctx context.Context, key string) (bool, error) {
	now := l.Clock()
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("try acquire %q: %w", key, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM batch_locks WHERE lock_key = ? AND expires_at < ?`, key, now.Unix()); err != nil {
		return false, fmt.Errorf("try acquire %q: %w", key, err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO batch_locks (lock_key, owner, acquired_at, expires_at) VALUES (?, ?, ?, ?)`,
		key, l.Owner, now.Unix(), now.Add(l.Lease).Unix())
	if err != nil {
		return false, fmt.Errorf("try acquire %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("try acquire %q: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("try acquire %q: %w", key, err)
	}
	return n == 1, nil
}

// Release deletes the lock row if this locker owns it.
func (l *SQLiteLocker) Release(ctx context.Context, key string) error {
	res, err := l.DB.ExecContext(ctx, `DELETE FROM batch_locks WHERE lock_key = ? AND owner = ?`, key, l.Owner)
	if err != nil {
		return fmt.Errorf("release %q: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("release %q: %w", key, ErrLockNotHeld)
	}
	return nil
}
