package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/newsgrab/article"
)

// ErrRecordNotFound is returned by Get for unknown article IDs.
var ErrRecordNotFound = errors.New("article not found in archive")

// Archive keeps every article ever scraped in a SQLite database. The first
// stored version of an article is kept; later runs do not overwrite it.
type Archive struct {
	db *sql.DB
}

// ArchivedRecord is an article together with the run that first stored it.
type ArchivedRecord struct {
	article.Record
	RunID     uuid.UUID
	ScrapedAt time.Time
}

// OpenArchive opens or creates the archive database at dbPath.
func OpenArchive(dbPath string) (*Archive, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	// Open database
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Initialize schema
	a := &Archive{db: db}
	if err := a.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return a, nil
}

// initSchema creates the articles table if it doesn't exist.
func (a *Archive) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		article_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		paragraphs TEXT NOT NULL,
		url TEXT,
		run_id TEXT NOT NULL,
		scraped_at TEXT NOT NULL
	);
	`

	_, err := a.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save stores the deduplicated records of one run and returns how many were
// new to the archive.
func (a *Archive) Save(runID uuid.UUID, records []article.Record) (int, error) {
	now := time.Now().UTC().Truncate(0).Format(time.RFC3339Nano)

	// Start transaction
	tx, err := a.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `
		INSERT OR IGNORE INTO articles (
			article_id, title, paragraphs, url, run_id, scraped_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	// Insert each record, skipping IDs already archived
	inserted := 0
	for _, r := range Dedupe(records) {
		paragraphs, err := json.Marshal(r.Paragraphs)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to marshal paragraphs: %w", err)
		}

		res, err := tx.Exec(query, r.ID, r.Title, string(paragraphs), r.URL, runID.String(), now)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to insert article %s: %w", r.ID, err)
		}

		// Zero when the article was already archived
		n, err := res.RowsAffected()
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to read insert result: %w", err)
		}
		inserted += int(n)
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, nil
}

// Get retrieves an archived article by ID.
func (a *Archive) Get(id string) (*ArchivedRecord, error) {
	query := `
		SELECT article_id, title, paragraphs, url, run_id, scraped_at
		FROM articles
		WHERE article_id = ?
	`

	var articleID, title, paragraphs, runID, scrapedAt string
	var url sql.NullString

	// Execute query
	err := a.db.QueryRow(query, id).Scan(&articleID, &title, &paragraphs, &url, &runID, &scrapedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query article: %w", err)
	}

	rec := &ArchivedRecord{
		Record: article.Record{
			ID:    articleID,
			Title: title,
			URL:   url.String,
		},
	}

	// Deserialize paragraphs
	if err := json.Unmarshal([]byte(paragraphs), &rec.Paragraphs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal paragraphs: %w", err)
	}

	// Parse run ID and timestamp
	rec.RunID, err = uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("invalid run ID %q: %w", runID, err)
	}

	rec.ScrapedAt, err = time.Parse(time.RFC3339Nano, scrapedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid scraped_at %q: %w", scrapedAt, err)
	}

	return rec, nil
}

// Count returns the number of archived articles.
func (a *Archive) Count() (int, error) {
	var n int
	if err := a.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}
