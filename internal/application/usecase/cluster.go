// Package usecase contains application-level services.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/tesso57/rsscluster/internal/domain/corpus"
)

// DefaultMethod is the training method requested when none is configured.
const DefaultMethod = "lsi"

// ErrSessionUntrained is returned when training is skipped for a session
// the catalog has never seen trained.
var ErrSessionUntrained = errors.New("backend session has not been trained")

// ClusterRequest describes one report run.
type ClusterRequest struct {
	OPMLPath     string
	Date         corpus.Date
	Session      string
	BackendKind  string
	Method       string
	SkipTraining bool
	Policy       RelatedPolicy
	Fetch        FetchOptions
}

// ClusterSummary reports what a run did.
type ClusterSummary struct {
	Feeds     int
	Fetch     FetchReport
	Trained   bool
	Seeds     int
	Groupings int
}

// ClusterService runs the fetch, index and report pipeline against one
// backend session.
type ClusterService struct {
	Loader  FeedListLoader
	Fetcher DocumentFetcher
	Backend SimilarityBackend
	Catalog SessionCatalog
	Now     func() time.Time
	Logger  *slog.Logger
}

// NewClusterService constructs a ClusterService.
func NewClusterService(loader FeedListLoader, fetcher DocumentFetcher, backend SimilarityBackend, catalog SessionCatalog) *ClusterService {
	return new(ClusterService{
		Loader:  loader,
		Fetcher: fetcher,
		Backend: backend,
		Catalog: catalog,
	})
}

// Run loads the feed list, builds the corpus, trains and indexes the backend,
// then renders groupings for documents published on req.Date.
func (s *ClusterService) Run(ctx context.Context, req ClusterRequest, w io.Writer, renderer ReportRenderer) (ClusterSummary, error) {
	var summary ClusterSummary
	if s.Loader == nil || s.Fetcher == nil || s.Backend == nil {
		return summary, errors.New("cluster service is not fully configured")
	}
	if renderer == nil {
		return summary, errors.New("report renderer is nil")
	}

	feeds, err := s.Loader.Load(req.OPMLPath)
	if err != nil {
		return summary, fmt.Errorf("load feed list: %w", err)
	}
	summary.Feeds = len(feeds)

	s.logger().Info("Getting documents...", "feeds", len(feeds))
	docs, report := s.Fetcher.FetchAll(ctx, feeds, req.Fetch)
	summary.Fetch = report
	s.logger().Info("Fetched documents",
		"documents", len(docs),
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"timed_out", report.TimedOut,
		"skipped_entries", report.SkippedEntries)
	if len(docs) == 0 {
		s.logger().Warn("No documents fetched")
	}

	trained, err := s.prepare(ctx, req, docs)
	if err != nil {
		return summary, err
	}
	summary.Trained = trained

	if err := renderer.Begin(w); err != nil {
		return summary, fmt.Errorf("write report: %w", err)
	}
	err = s.EachGrouping(ctx, docs, req.Date, req.Policy, func(g corpus.Grouping) error {
		summary.Groupings++
		if err := renderer.Group(w, g); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		return nil
	}, &summary.Seeds)
	if err != nil {
		return summary, err
	}
	if err := renderer.End(w); err != nil {
		return summary, fmt.Errorf("write report: %w", err)
	}
	return summary, nil
}

func (s *ClusterService) prepare(ctx context.Context, req ClusterRequest, docs []corpus.Document) (bool, error) {
	session := strings.TrimSpace(req.Session)
	method := strings.TrimSpace(req.Method)
	if method == "" {
		method = DefaultMethod
	}

	trained := false
	if req.SkipTraining {
		s.logger().Info("Skipping training", "session", session)
		if err := s.checkTrained(ctx, session); err != nil {
			return false, err
		}
	} else {
		s.logger().Info("Training...", "session", session, "method", method, "documents", len(docs))
		if err := s.Backend.Train(ctx, docs, method); err != nil {
			// A failed training run may leave the session half built.
			if s.Catalog != nil {
				if ferr := s.Catalog.Forget(ctx, session); ferr != nil {
					s.logger().Warn("Could not forget session", "session", session, "err", ferr)
				}
			}
			return false, fmt.Errorf("train session %q: %w", session, err)
		}
		trained = true
		if s.Catalog != nil {
			if err := s.Catalog.RecordTraining(ctx, session, req.BackendKind, method, len(docs), s.now()); err != nil {
				return false, fmt.Errorf("record training: %w", err)
			}
		}
	}

	s.logger().Info("Indexing...", "session", session, "documents", len(docs))
	if err := s.Backend.Index(ctx, docs); err != nil {
		return trained, fmt.Errorf("index session %q: %w", session, err)
	}
	if s.Catalog != nil {
		if err := s.Catalog.RecordIndexing(ctx, session, len(docs), s.now()); err != nil {
			return trained, fmt.Errorf("record indexing: %w", err)
		}
	}
	return trained, nil
}

// checkTrained accepts a session the catalog has seen trained. Otherwise the
// backend's own state decides, and a backend that cannot report it is
// trusted as is.
func (s *ClusterService) checkTrained(ctx context.Context, session string) error {
	if s.Catalog != nil {
		info, ok, err := s.Catalog.Lookup(ctx, session)
		if err != nil {
			return fmt.Errorf("look up session %q: %w", session, err)
		}
		if ok && info.Trained() {
			return nil
		}
	}
	if reporter, ok := s.Backend.(SessionStateReporter); ok {
		trained, err := reporter.SessionTrained(ctx)
		if err != nil {
			return fmt.Errorf("check session %q: %w", session, err)
		}
		if !trained {
			return fmt.Errorf("%w: %q", ErrSessionUntrained, session)
		}
		return nil
	}
	s.logger().Warn("Session has no training record; using the backend as is", "session", session)
	return nil
}

// EachGrouping queries the backend for every document published on day and
// calls fn for each one that has related documents under policy.
// When seeds is non-nil it receives the number of documents queried.
func (s *ClusterService) EachGrouping(ctx context.Context, docs []corpus.Document, day corpus.Date, policy RelatedPolicy, fn func(corpus.Grouping) error, seeds *int) error {
	for _, doc := range docs {
		if !doc.PublishedOn(day) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if seeds != nil {
			*seeds++
		}
		candidates, err := s.Backend.FindSimilar(ctx, doc)
		if err != nil {
			return fmt.Errorf("find similar to %s: %w", doc.ID, err)
		}
		related := policy.Filter(doc, candidates)
		if len(related) == 0 {
			continue
		}
		if err := fn(corpus.Grouping{Seed: doc, Related: related}); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClusterService) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ClusterService) logger() *slog.Logger {
	if s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
