// Package history records protocol messages observed on the channel in a
// local SQLite database. The unique (sender, seq) index is what gives
// callers at-most-once semantics: the channel itself happily re-delivers the
// same block whenever capture windows overlap scrollback.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"crosstalk/internal/protocol"
)

const fileName = "history.db"

type Store struct {
	db *sql.DB
}

// Entry is one observed message row.
type Entry struct {
	ID         int64
	Sender     string
	Seq        int
	HasSeq     bool
	Kind       string
	SentAt     time.Time
	ObservedAt time.Time
	Raw        string
}

// Open creates or opens the history database under stateDir.
func Open(stateDir string) (*Store, error) {
	path := filepath.Join(stateDir, fileName)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir %s: %w", stateDir, err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history db %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history db %s: %w", path, err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sender TEXT NOT NULL,
			seq INTEGER,
			kind TEXT NOT NULL,
			sent_at TEXT NOT NULL,
			observed_at INTEGER NOT NULL DEFAULT (unixepoch()),
			raw TEXT NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_sender_seq
			ON messages(sender, seq) WHERE seq IS NOT NULL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores an observed message. Messages carrying a sequence number are
// deduplicated on (sender, seq); the return value reports whether the row
// was new. Messages without a sequence number are always recorded.
func (s *Store) Record(message protocol.Message, raw string) (bool, error) {
	header := message.MessageHeader()
	sentAt := header.Timestamp.UTC().Format(time.RFC3339)

	var seq any
	if header.HasSeq {
		seq = header.Seq
	}
	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO messages (sender, seq, kind, sent_at, raw) VALUES (?, ?, ?, ?, ?)`,
		header.From, seq, string(message.Kind()), sentAt, raw,
	)
	if err != nil {
		return false, fmt.Errorf("record message from %q: %w", header.From, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record message from %q: %w", header.From, err)
	}
	return rows > 0, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, sender, seq, kind, sent_at, observed_at, raw
		 FROM messages ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var seq sql.NullInt64
		var sentAt string
		var observedAt int64
		if err := rows.Scan(&entry.ID, &entry.Sender, &seq, &entry.Kind, &sentAt, &observedAt, &entry.Raw); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if seq.Valid {
			entry.Seq = int(seq.Int64)
			entry.HasSeq = true
		}
		if parsed, err := time.Parse(time.RFC3339, sentAt); err == nil {
			entry.SentAt = parsed
		}
		entry.ObservedAt = time.Unix(observedAt, 0).UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
