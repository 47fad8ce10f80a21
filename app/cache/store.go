package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okhm/orbit/app/fetch"
	"github.com/okhm/orbit/app/feed"
	"github.com/okhm/orbit/app/registry"
)

// Store is the durable per-source cache, one SQLite file. Every save runs in
// a transaction that replaces the source's record wholesale, so a crashed run
// leaves either the old record or the new one, never a partial mix.
type Store struct {
	db *sql.DB
}

// Open creates the database file (and parent directory) if needed and brings
// the schema up to date. Any error here means the whole store is unusable
// and is treated as fatal by the caller.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// One writer at a time keeps SQLITE_BUSY out of worker goroutines.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	version, err := runMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("Cache database ready", "path", path, "schema_version", version)

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the cached record for a source, or nil when the source has
// never been saved.
func (s *Store) Load(sourceURL string) (*Record, error) {
	var (
		record       Record
		fetchedAt    sql.NullString
		checkedAt    sql.NullString
		updatedAt    sql.NullString
		lastModified string
	)

	err := s.db.QueryRow(`
		SELECT url, name, etag, last_modified, fetched_at, checked_at, updated_at, failure_count, last_error
		FROM sources
		WHERE url = ?
	`, sourceURL).Scan(
		&record.SourceURL, &record.SourceName, &record.Meta.ETag, &lastModified,
		&fetchedAt, &checkedAt, &updatedAt, &record.FailureCount, &record.LastError,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load source record: %w", err)
	}

	record.Meta.LastModified = lastModified
	if t, ok := timeFromDB(fetchedAt); ok {
		record.Meta.FetchedAt = t
	}
	if t, ok := timeFromDB(checkedAt); ok {
		record.CheckedAt = &t
	}
	if t, ok := timeFromDB(updatedAt); ok {
		record.UpdatedAt = t
	}

	entries, err := s.loadEntries(sourceURL)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].SourceName = record.SourceName
	}
	record.Entries = entries

	return &record, nil
}

// LoadAll returns the records for the given sources, in the given order.
// Sources without a record are omitted: they have no last-known-good state.
func (s *Store) LoadAll(sources []registry.Source) ([]Record, error) {
	records := make([]Record, 0, len(sources))
	for _, src := range sources {
		record, err := s.Load(src.URL)
		if err != nil {
			return nil, err
		}
		if record != nil {
			// The registry name wins over whatever was stored.
			record.SourceName = src.Name
			for i := range record.Entries {
				record.Entries[i].SourceName = src.Name
			}
			records = append(records, *record)
		}
	}
	return records, nil
}

// SaveFetched merges the freshly parsed entries into the retained window and
// replaces the source's record in one transaction. Conditional metadata is
// refreshed and the failure counter reset.
func (s *Store) SaveFetched(source registry.Source, meta fetch.ConditionalMetadata, incoming []feed.Entry, windowSize int) error {
	// Only one worker touches a given source per run, so reading the
	// retained window outside the transaction is safe.
	existing, err := s.loadEntries(source.URL)
	if err != nil {
		return err
	}

	window := MergeWindow(existing, incoming, meta.FetchedAt, windowSize)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := timeToDB(time.Now().UTC())
	_, err = tx.Exec(`
		INSERT INTO sources (url, name, etag, last_modified, fetched_at, checked_at, failure_count, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, '', ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			name = excluded.name,
			etag = excluded.etag,
			last_modified = excluded.last_modified,
			fetched_at = excluded.fetched_at,
			checked_at = excluded.checked_at,
			failure_count = 0,
			last_error = '',
			updated_at = excluded.updated_at
	`, source.URL, source.Name, meta.ETag, meta.LastModified,
		timeToDB(meta.FetchedAt), timeToDB(meta.FetchedAt), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert source record: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM entries WHERE source_url = ?`, source.URL); err != nil {
		return fmt.Errorf("failed to clear entry window: %w", err)
	}

	for _, entry := range window {
		authors, err := json.Marshal(entry.Authors)
		if err != nil {
			return fmt.Errorf("failed to encode authors: %w", err)
		}
		categories, err := json.Marshal(entry.Categories)
		if err != nil {
			return fmt.Errorf("failed to encode categories: %w", err)
		}

		var updatedAt any
		if entry.Updated != nil {
			updatedAt = timeToDB(*entry.Updated)
		}

		_, err = tx.Exec(`
			INSERT INTO entries (source_url, uid, title, link, summary, content,
				authors, categories, published_at, updated_at, first_seen_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, source.URL, entry.UID, entry.Title, entry.Link, entry.Summary, entry.Content,
			string(authors), string(categories),
			timeToDB(entry.Published), updatedAt, timeToDB(entry.FirstSeen))
		if err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", entry.UID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record: %w", err)
	}

	return nil
}

// MarkUnchanged refreshes the last-successful-check bookkeeping after a 304
// response. Entries and conditional metadata are left as-is.
func (s *Store) MarkUnchanged(sourceURL string, checkedAt time.Time) error {
	_, err := s.db.Exec(`
		UPDATE sources
		SET checked_at = ?, failure_count = 0, last_error = '', updated_at = ?
		WHERE url = ?
	`, timeToDB(checkedAt), timeToDB(time.Now().UTC()), sourceURL)
	if err != nil {
		return fmt.Errorf("failed to mark source unchanged: %w", err)
	}
	return nil
}

// MarkFailed bumps the failure counter used for cross-run backoff and records
// the failure note shown beside the subscription. The last-known-good entries
// and conditional metadata are left untouched so a transient outage never
// drops content from the aggregate.
func (s *Store) MarkFailed(source registry.Source, message string) error {
	now := timeToDB(time.Now().UTC())
	_, err := s.db.Exec(`
		INSERT INTO sources (url, name, failure_count, last_error, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			failure_count = failure_count + 1,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
	`, source.URL, source.Name, message, now, now)
	if err != nil {
		return fmt.Errorf("failed to mark source failed: %w", err)
	}
	return nil
}

// Stats returns the number of cached sources and entries.
func (s *Store) Stats() (sources int, entries int, err error) {
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM sources`).Scan(&sources); err != nil {
		return 0, 0, fmt.Errorf("failed to count sources: %w", err)
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&entries); err != nil {
		return 0, 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return sources, entries, nil
}

func (s *Store) loadEntries(sourceURL string) ([]feed.Entry, error) {
	rows, err := s.db.Query(`
		SELECT uid, title, link, summary, content, authors, categories,
		       published_at, updated_at, first_seen_at
		FROM entries
		WHERE source_url = ?
		ORDER BY published_at DESC, uid ASC
	`, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	defer rows.Close()

	var entries []feed.Entry
	for rows.Next() {
		var (
			entry       feed.Entry
			authors     string
			categories  string
			publishedAt string
			updatedAt   sql.NullString
			firstSeenAt string
		)

		err := rows.Scan(&entry.UID, &entry.Title, &entry.Link, &entry.Summary,
			&entry.Content, &authors, &categories, &publishedAt, &updatedAt, &firstSeenAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}

		if err := json.Unmarshal([]byte(authors), &entry.Authors); err != nil {
			return nil, fmt.Errorf("failed to decode authors: %w", err)
		}
		if err := json.Unmarshal([]byte(categories), &entry.Categories); err != nil {
			return nil, fmt.Errorf("failed to decode categories: %w", err)
		}

		if t, ok := timeFromDB(sql.NullString{String: publishedAt, Valid: true}); ok {
			entry.Published = t
		}
		if t, ok := timeFromDB(updatedAt); ok {
			entry.Updated = &t
		}
		if t, ok := timeFromDB(sql.NullString{String: firstSeenAt, Valid: true}); ok {
			entry.FirstSeen = t
		}

		entry.SourceURL = sourceURL
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}

	return entries, nil
}

// Timestamps are stored as fixed-width RFC 3339 UTC strings with the
// fractional part padded to nine digits, so lexical order matches
// chronological order and the entries index can ORDER BY the raw text.
const dbTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func timeToDB(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

func timeFromDB(s sql.NullString) (time.Time, bool) {
	if !s.Valid || s.String == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
