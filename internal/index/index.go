// Package index maintains a local full-text index over fetched transcripts.
package index

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/youcap/youcap/internal/storage"
)

// Result is one transcript hit.
type Result struct {
	VideoID string
	Title   string
	Channel string
	Score   float64
}

type Index struct {
	store *storage.Store
	idx   bleve.Index
}

// Open creates or opens a Bleve index at indexPath and reindexes the cached
// transcripts.
func Open(store *storage.Store, indexPath string) (*Index, error) {
	if mkErr := os.MkdirAll(filepath.Dir(indexPath), 0o755); mkErr != nil {
		// Open/New below will surface a usable error
		_ = mkErr
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, err
		}
	}

	ix := &Index{store: store, idx: idx}
	if err := ix.reindexAll(); err != nil {
		return nil, err
	}
	return ix, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true

	channel := bleve.NewTextFieldMapping()
	channel.Analyzer = standard.Name
	channel.Store = true

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	text.Store = false

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("channel", channel)
	dm.AddFieldMappingsAt("text", text)

	im.DefaultMapping = dm
	return im
}

func (ix *Index) Close() error {
	return ix.idx.Close()
}

// Add indexes one transcript, replacing any previous entry for the video.
func (ix *Index) Add(t *storage.Transcript) error {
	return ix.idx.Index(t.VideoID, map[string]any{
		"title":   t.Title,
		"channel": t.Channel,
		"text":    t.Text,
	})
}

func (ix *Index) reindexAll() error {
	transcripts, err := ix.store.GetAllTranscripts()
	if err != nil {
		return err
	}

	batch := ix.idx.NewBatch()
	for _, t := range transcripts {
		_ = batch.Index(t.VideoID, map[string]any{
			"title":   t.Title,
			"channel": t.Channel,
			"text":    t.Text,
		})
	}
	return ix.idx.Batch(batch)
}

// Search runs a boosted disjunction over title, channel, and transcript text.
func (ix *Index) Search(query string, limit int) ([]*Result, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []*Result{}, nil
	}

	var qs []bleveQuery.Query
	for _, tok := range strings.Fields(query) {
		qt := bleve.NewMatchQuery(tok)
		qt.SetField("title")
		qt.SetBoost(3.0)
		qs = append(qs, qt)

		qc := bleve.NewMatchQuery(tok)
		qc.SetField("channel")
		qc.SetBoost(2.0)
		qs = append(qs, qc)

		qx := bleve.NewMatchQuery(tok)
		qx.SetField("text")
		qx.SetBoost(1.0)
		qs = append(qs, qx)

		qp := bleve.NewPrefixQuery(strings.ToLower(tok))
		qp.SetField("text")
		qp.SetBoost(0.5)
		qs = append(qs, qp)
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title", "channel"}

	res, err := ix.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		r := &Result{VideoID: h.ID, Score: h.Score}
		if t, ok := h.Fields["title"].(string); ok {
			r.Title = t
		}
		if c, ok := h.Fields["channel"].(string); ok {
			r.Channel = c
		}
		out = append(out, r)
	}
	return out, nil
}

// DocCount reports the number of indexed transcripts.
func (ix *Index) DocCount() (int, error) {
	n, err := ix.idx.DocCount()
	return int(n), err
}
