// Package bleveindex is a similarity backend session stored as an on-disk
// bleve index. Ranking is bleve's own TF-IDF scoring.
package bleveindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/mapping"
	"github.com/tesso57/rsscluster/internal/domain/corpus"
)

const (
	tokenAnalyzer     = "rsscluster_tokens"
	methodInternalKey = "rsscluster.method"
	batchSize         = 500
	defaultMaxResults = 100

	fieldTokens = "tokens"
	fieldFeed   = "feed"
	fieldTitle  = "title"
)

// indexedDocument is the shape stored in bleve for each corpus document.
type indexedDocument struct {
	Tokens string `json:"tokens"`
	Feed   string `json:"feed"`
	Title  string `json:"title"`
}

// Backend implements usecase.SimilarityBackend on a bleve index.
type Backend struct {
	path       string
	maxResults int
	index      bleve.Index
	logger     *slog.Logger
}

// Path returns the index location for session inside dir.
func Path(dir, session string) string {
	return filepath.Join(dir, session+".bleve")
}

// Open opens the session's index, creating an empty one if it does not exist.
func Open(dir, session string, maxResults int, logger *slog.Logger) (*Backend, error) {
	if strings.TrimSpace(session) == "" {
		return nil, errors.New("session name is empty")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if logger == nil {
		logger = slog.Default()
	}

	path := Path(dir, session)
	index, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		index, err = bleve.New(path, newMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open bleve session %q: %w", session, err)
	}
	return &Backend{
		path:       path,
		maxResults: maxResults,
		index:      index,
		logger:     logger,
	}, nil
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	// Tokens arrive normalized, so the analyzer only splits on spaces.
	_ = im.AddCustomAnalyzer(tokenAnalyzer, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": whitespace.Name,
	})
	im.DefaultAnalyzer = tokenAnalyzer

	tokens := bleve.NewTextFieldMapping()
	tokens.Analyzer = tokenAnalyzer
	tokens.IncludeInAll = false

	feed := bleve.NewTextFieldMapping()
	feed.Analyzer = keyword.Name
	feed.Store = true
	feed.IncludeInAll = false

	title := bleve.NewTextFieldMapping()
	title.Index = false
	title.Store = true
	title.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(fieldTokens, tokens)
	doc.AddFieldMappingsAt(fieldFeed, feed)
	doc.AddFieldMappingsAt(fieldTitle, title)
	im.DefaultMapping = doc
	return im
}

// Train rebuilds the session from scratch. bleve has no trainable model, so
// method is only recorded alongside the index.
func (b *Backend) Train(ctx context.Context, docs []corpus.Document, method string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(b.path); err != nil {
		return fmt.Errorf("drop index: %w", err)
	}
	index, err := bleve.New(b.path, newMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	b.index = index
	if err := b.index.SetInternal([]byte(methodInternalKey), []byte(method)); err != nil {
		return fmt.Errorf("record method: %w", err)
	}
	b.logger.Debug("bleve session reset", "path", b.path, "method", method, "documents", len(docs))
	return nil
}

// Method returns the training method recorded with the index, if any.
func (b *Backend) Method() (string, error) {
	v, err := b.index.GetInternal([]byte(methodInternalKey))
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// SessionTrained reports whether Train has run against this index.
func (b *Backend) SessionTrained(context.Context) (bool, error) {
	method, err := b.Method()
	if err != nil {
		return false, fmt.Errorf("read session method: %w", err)
	}
	return method != "", nil
}

// Index adds or replaces docs in the session.
func (b *Backend) Index(ctx context.Context, docs []corpus.Document) error {
	batch := b.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, indexedDocument{
			Tokens: strings.Join(doc.Tokens, " "),
			Feed:   doc.Payload.Feed,
			Title:  doc.Payload.Title,
		}); err != nil {
			return fmt.Errorf("index %s: %w", doc.ID, err)
		}
		if batch.Size() >= batchSize {
			if err := b.flush(ctx, batch); err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}
	if err := b.flush(ctx, batch); err != nil {
		return err
	}
	count, err := b.DocCount()
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	b.logger.Debug("bleve session indexed", "path", b.path, "added", len(docs), "documents", count)
	return nil
}

func (b *Backend) flush(ctx context.Context, batch *bleve.Batch) error {
	if batch.Size() == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	return nil
}

// DocCount returns the number of indexed documents.
func (b *Backend) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// FindSimilar returns indexed documents sharing terms with doc, best first.
// Scores are divided by the document's score against itself so they fall
// in [0, 1].
func (b *Backend) FindSimilar(ctx context.Context, doc corpus.Document) ([]corpus.Similar, error) {
	if len(doc.Tokens) == 0 {
		return nil, nil
	}
	query := bleve.NewMatchQuery(strings.Join(doc.Tokens, " "))
	query.SetField(fieldTokens)
	query.Analyzer = tokenAnalyzer

	req := bleve.NewSearchRequestOptions(query, b.maxResults+1, 0, false)
	req.Fields = []string{fieldFeed, fieldTitle}
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(res.Hits) == 0 {
		return nil, nil
	}

	norm := res.Hits[0].Score
	for _, hit := range res.Hits {
		if hit.ID == doc.ID {
			norm = hit.Score
			break
		}
	}
	if norm <= 0 {
		return nil, nil
	}

	out := make([]corpus.Similar, 0, len(res.Hits))
	for _, hit := range res.Hits {
		score := hit.Score / norm
		if score > 1 {
			score = 1
		}
		out = append(out, corpus.Similar{
			ID:    hit.ID,
			Score: score,
			Payload: corpus.Payload{
				Feed:  stringField(hit.Fields, fieldFeed),
				Title: stringField(hit.Fields, fieldTitle),
			},
		})
		if len(out) >= b.maxResults {
			break
		}
	}
	return out, nil
}

func stringField(fields map[string]interface{}, name string) string {
	s, _ := fields[name].(string)
	return s
}

// Close closes the index.
func (b *Backend) Close() error {
	return b.index.Close()
}
