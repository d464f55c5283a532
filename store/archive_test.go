package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/newsgrab/article"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: open an archive in a temporary directory
func setupTestArchive(t *testing.T) *Archive {
	t.Helper()
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "archive", "news.db"))
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })
	return archive
}

// TestArchive_SaveAndGet verifies records round-trip through SQLite
func TestArchive_SaveAndGet(t *testing.T) {
	archive := setupTestArchive(t)
	runID := uuid.New()
	before := time.Now().Add(-time.Second)

	n, err := archive.Save(runID, []article.Record{{
		ID:         "123456",
		Title:      "Заголовок",
		Paragraphs: []string{"Первый", "Второй"},
		URL:        "https://news.mail.ru/politics/123456/",
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, err := archive.Get("123456")
	require.NoError(t, err)
	assert.Equal(t, "Заголовок", rec.Title)
	assert.Equal(t, []string{"Первый", "Второй"}, rec.Paragraphs)
	assert.Equal(t, "https://news.mail.ru/politics/123456/", rec.URL)
	assert.Equal(t, runID, rec.RunID)
	assert.True(t, rec.ScrapedAt.After(before))
}

// TestArchive_KeepsFirstVersion verifies later runs do not overwrite
func TestArchive_KeepsFirstVersion(t *testing.T) {
	archive := setupTestArchive(t)
	firstRun := uuid.New()

	_, err := archive.Save(firstRun, []article.Record{{ID: "1", Title: "original", Paragraphs: []string{"a"}}})
	require.NoError(t, err)

	n, err := archive.Save(uuid.New(), []article.Record{
		{ID: "1", Title: "changed", Paragraphs: []string{"b"}},
		{ID: "2", Title: "new", Paragraphs: []string{"c"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the new article should be inserted")

	rec, err := archive.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "original", rec.Title)
	assert.Equal(t, firstRun, rec.RunID)

	count, err := archive.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// TestArchive_DeduplicatesWithinRun verifies the first record of a run wins
func TestArchive_DeduplicatesWithinRun(t *testing.T) {
	archive := setupTestArchive(t)

	n, err := archive.Save(uuid.New(), []article.Record{
		{ID: "1", Title: "first", Paragraphs: []string{"a"}},
		{ID: "1", Title: "second", Paragraphs: []string{"b"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, err := archive.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "first", rec.Title)
}

// TestArchive_GetNotFound verifies the not-found sentinel
func TestArchive_GetNotFound(t *testing.T) {
	archive := setupTestArchive(t)

	_, err := archive.Get("999999")
	assert.True(t, errors.Is(err, ErrRecordNotFound))
}

// TestArchive_EmptySave verifies saving nothing is not an error
func TestArchive_EmptySave(t *testing.T) {
	archive := setupTestArchive(t)

	n, err := archive.Save(uuid.New(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
