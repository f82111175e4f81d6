package index

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youcap/youcap/internal/storage"
)

func newTestIndex(t *testing.T) (*Index, *storage.Store) {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ix, err := Open(store, filepath.Join(dir, "index.bleve"))
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })

	return ix, store
}

func addTranscript(t *testing.T, ix *Index, store *storage.Store, videoID, title, channel, text string) {
	t.Helper()
	tr := &storage.Transcript{
		VideoID:   videoID,
		Title:     title,
		Channel:   channel,
		Text:      text,
		FetchedAt: time.Now(),
	}
	require.NoError(t, store.SaveTranscript(tr))
	require.NoError(t, ix.Add(tr))
}

func TestSearch(t *testing.T) {
	ix, store := newTestIndex(t)

	addTranscript(t, ix, store, "vid00000001", "Concurrency patterns", "GopherCon",
		"channels and goroutines compose into pipelines")
	addTranscript(t, ix, store, "vid00000002", "Cooking pasta", "Kitchen Channel",
		"boil water add salt and stir")

	results, err := ix.Search("goroutines", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "vid00000001", results[0].VideoID)
	assert.Equal(t, "Concurrency patterns", results[0].Title)
	assert.Equal(t, "GopherCon", results[0].Channel)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestSearch_TitleOutranksBody(t *testing.T) {
	ix, store := newTestIndex(t)

	addTranscript(t, ix, store, "vidtitle001", "Pipelines explained", "Chan A",
		"unrelated body text here")
	addTranscript(t, ix, store, "vidbody0001", "Something else", "Chan B",
		"a passing mention of pipelines in the body")

	results, err := ix.Search("pipelines", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "vidtitle001", results[0].VideoID, "title matches carry the higher boost")
}

func TestSearch_ShortQuery(t *testing.T) {
	ix, _ := newTestIndex(t)

	results, err := ix.Search("a", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = ix.Search("   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestOpen_ReindexesCachedTranscripts(t *testing.T) {
	dir := t.TempDir()

	store, err := storage.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveTranscript(&storage.Transcript{
		VideoID: "vid00000009",
		Title:   "Persisted talk",
		Channel: "Chan",
		Text:    "indexed from the cache on open",
	}))

	ix, err := Open(store, filepath.Join(dir, "index.bleve"))
	require.NoError(t, err)
	defer ix.Close()

	n, err := ix.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := ix.Search("cache", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "vid00000009", results[0].VideoID)
}

func TestAdd_ReplacesEntry(t *testing.T) {
	ix, store := newTestIndex(t)

	addTranscript(t, ix, store, "vid00000003", "First title", "Chan", "first words")
	addTranscript(t, ix, store, "vid00000003", "Second title", "Chan", "second words")

	n, err := ix.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := ix.Search("second", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Second title", results[0].Title)
}
