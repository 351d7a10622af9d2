// Package usecase contains application-level services.
package usecase

import (
	"context"
	"io"
	"time"

	"github.com/tesso57/rsscluster/internal/domain/corpus"
)

// FeedListLoader abstracts reading a subscription list.
type FeedListLoader interface {
	Load(path string) ([]string, error)
}

// FetchOptions controls how feeds are fetched.
type FetchOptions struct {
	PerFeedTimeout time.Duration
	// Concurrency <= 1 fetches feeds one at a time.
	Concurrency int
}

// FetchReport summarizes a FetchAll call.
type FetchReport struct {
	Requested      int
	Succeeded      int
	Failed         int
	TimedOut       int
	Documents      int
	SkippedEntries int
}

// DocumentFetcher abstracts turning feed URLs into documents.
// Feeds that fail are left out of the result and counted in the report.
type DocumentFetcher interface {
	FetchAll(ctx context.Context, urls []string, opt FetchOptions) ([]corpus.Document, FetchReport)
}

// SimilarityBackend is an open session on an external similarity index.
type SimilarityBackend interface {
	Train(ctx context.Context, docs []corpus.Document, method string) error
	Index(ctx context.Context, docs []corpus.Document) error
	FindSimilar(ctx context.Context, doc corpus.Document) ([]corpus.Similar, error)
	Close() error
}

// SessionStateReporter is implemented by backends that can tell from their
// own storage whether the session has been trained.
type SessionStateReporter interface {
	SessionTrained(ctx context.Context) (bool, error)
}

// SessionInfo is what the catalog knows about a backend session.
type SessionInfo struct {
	Name        string
	Backend     string
	Method      string
	TrainedAt   time.Time
	TrainedDocs int
	IndexedAt   time.Time
	IndexedDocs int
}

// Trained reports whether the session has ever been trained.
func (s SessionInfo) Trained() bool {
	return !s.TrainedAt.IsZero()
}

// SessionCatalog abstracts bookkeeping for backend sessions.
type SessionCatalog interface {
	Lookup(ctx context.Context, name string) (SessionInfo, bool, error)
	RecordTraining(ctx context.Context, name, backend, method string, docs int, at time.Time) error
	RecordIndexing(ctx context.Context, name string, docs int, at time.Time) error
	Forget(ctx context.Context, name string) error
}

// ReportRenderer writes groupings in one output format.
type ReportRenderer interface {
	Begin(w io.Writer) error
	Group(w io.Writer, g corpus.Grouping) error
	End(w io.Writer) error
}
