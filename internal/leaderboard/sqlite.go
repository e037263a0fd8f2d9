package leaderboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/latebit/wikirace/internal/wiki"
)

// timeFormat is fixed width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewSQLiteStore opens or creates a leaderboard database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:      db,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id          TEXT PRIMARY KEY,
		nickname    TEXT NOT NULL,
		start_doc   TEXT NOT NULL,
		start_title TEXT NOT NULL,
		goal_doc    TEXT NOT NULL,
		goal_title  TEXT NOT NULL,
		difficulty  TEXT NOT NULL DEFAULT '',
		score       INTEGER NOT NULL,
		moves       INTEGER NOT NULL,
		time_secs   INTEGER NOT NULL,
		path        TEXT NOT NULL,
		path_refs   TEXT NOT NULL,
		branches    TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_identity ON entries(nickname, score, moves);
	CREATE INDEX IF NOT EXISTS idx_entries_rank ON entries(score DESC, created_at ASC, id ASC);
	`
	_, err := s.db.Exec(schema)
	return err
}

const rankOrder = `ORDER BY score DESC, created_at ASC, id ASC`

const entryColumns = `id, nickname, start_doc, start_title, goal_doc, goal_title, difficulty,
	score, moves, time_secs, path, path_refs, branches, created_at`

// Submit implements Store.
func (s *SQLiteStore) Submit(ctx context.Context, e Entry) (*Entry, error) {
	e.Nickname = strings.TrimSpace(e.Nickname)
	if err := e.validate(); err != nil {
		return nil, err
	}
	path, err := json.Marshal(e.Path)
	if err != nil {
		return nil, fmt.Errorf("encode path: %w", err)
	}
	refs, err := json.Marshal(e.PathRefs)
	if err != nil {
		return nil, fmt.Errorf("encode path refs: %w", err)
	}
	branches, err := json.Marshal(e.Branches)
	if err != nil {
		return nil, fmt.Errorf("encode branches: %w", err)
	}

	e.CreatedAt = s.now().UTC()
	e.ID = s.newID(e.CreatedAt)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var dup int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE nickname = ? AND score = ? AND moves = ?`,
		e.Nickname, e.Score, e.Moves,
	).Scan(&dup)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if dup > 0 {
		return nil, ErrDuplicate
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Nickname, e.StartDoc, e.StartTitle, e.GoalDoc, e.GoalTitle, string(e.Difficulty),
		e.Score, e.Moves, e.Time, string(path), string(refs), string(branches),
		e.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM entries WHERE id NOT IN (SELECT id FROM entries `+rankOrder+` LIMIT ?)`,
		Capacity,
	)
	if err != nil {
		return nil, fmt.Errorf("trim leaderboard: %w", err)
	}

	var rank int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) + 1 FROM entries
		 WHERE score > ? OR (score = ? AND (created_at < ? OR (created_at = ? AND id < ?)))`,
		e.Score, e.Score, e.CreatedAt.Format(timeFormat), e.CreatedAt.Format(timeFormat), e.ID,
	).Scan(&rank)
	if err != nil {
		return nil, fmt.Errorf("rank entry: %w", err)
	}

	var kept int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE id = ?`, e.ID).Scan(&kept); err != nil {
		return nil, fmt.Errorf("check rank: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if kept == 0 {
		return nil, ErrNotRanked
	}
	e.Rank = rank
	return &e, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > Capacity {
		limit = Capacity
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries `+rankOrder+` LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, rank int) (*Entry, error) {
	if rank < 1 || rank > Capacity {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, rank)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries `+rankOrder+` LIMIT 1 OFFSET ?`, rank-1)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, rank)
	}
	if err != nil {
		return nil, err
	}
	e.Rank = rank
	return e, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var difficulty, path, refs, branches, created string
	err := row.Scan(&e.ID, &e.Nickname, &e.StartDoc, &e.StartTitle, &e.GoalDoc, &e.GoalTitle, &difficulty,
		&e.Score, &e.Moves, &e.Time, &path, &refs, &branches, &created)
	if err != nil {
		return nil, err
	}
	e.Difficulty = wiki.Difficulty(difficulty)
	if err := json.Unmarshal([]byte(path), &e.Path); err != nil {
		return nil, fmt.Errorf("decode path of %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(refs), &e.PathRefs); err != nil {
		return nil, fmt.Errorf("decode path refs of %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(branches), &e.Branches); err != nil {
		return nil, fmt.Errorf("decode branches of %s: %w", e.ID, err)
	}
	e.CreatedAt, err = time.Parse(timeFormat, created)
	if err != nil {
		return nil, fmt.Errorf("decode created_at of %s: %w", e.ID, err)
	}
	return &e, nil
}
