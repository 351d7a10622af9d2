// Package feed fetches RSS/Atom feeds and turns their entries into documents.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/tesso57/rsscluster/internal/application/usecase"
	"github.com/tesso57/rsscluster/internal/domain/corpus"
	"github.com/tesso57/rsscluster/internal/infrastructure/textproc"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "rsscluster/1.0"

const feedAcceptHeader = "application/atom+xml, application/rss+xml, application/feed+json, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"

type acceptTransport struct {
	base http.RoundTripper
}

func (t acceptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	if clone.Header.Get("Accept") == "" {
		clone.Header.Set("Accept", feedAcceptHeader)
	}
	return base.RoundTrip(clone)
}

// ParserFunc fetches and parses one feed.
type ParserFunc func(ctx context.Context, url string) (*gofeed.Feed, error)

// NewParser returns a ParserFunc backed by gofeed that identifies itself
// with userAgent.
func NewParser(userAgent string) ParserFunc {
	if strings.TrimSpace(userAgent) == "" {
		userAgent = DefaultUserAgent
	}
	client := &http.Client{Transport: acceptTransport{base: http.DefaultTransport}}
	return func(ctx context.Context, url string) (*gofeed.Feed, error) {
		fp := gofeed.NewParser()
		fp.UserAgent = userAgent
		fp.Client = client
		return fp.ParseURLWithContext(url, ctx)
	}
}

// Fetcher implements usecase.DocumentFetcher.
type Fetcher struct {
	Parse  ParserFunc
	Logger *slog.Logger
}

// NewFetcher creates a Fetcher using the default gofeed parser.
func NewFetcher(userAgent string, logger *slog.Logger) *Fetcher {
	return new(Fetcher{
		Parse:  NewParser(userAgent),
		Logger: logger,
	})
}

// Documents fetches one feed and converts its entries into documents.
// The int result counts entries that were skipped as incomplete.
func (f *Fetcher) Documents(ctx context.Context, url string) ([]corpus.Document, int, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, 0, errors.New("feed url is empty")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	parse := f.Parse
	if parse == nil {
		parse = NewParser("")
	}

	f.logger().Info("Getting feed", "url", url)
	parsed, err := parse(ctx, url)
	if err != nil {
		return nil, 0, err
	}
	docs, skipped := f.convert(url, parsed)
	return docs, skipped, nil
}

func (f *Fetcher) convert(url string, parsed *gofeed.Feed) ([]corpus.Document, int) {
	if parsed == nil {
		return nil, 0
	}
	docs := make([]corpus.Document, 0, len(parsed.Items))
	skipped := 0
	for i, item := range parsed.Items {
		if item == nil {
			skipped++
			continue
		}
		link := strings.TrimSpace(item.Link)
		if link == "" {
			f.logger().Warn("Skipping entry without link", "feed", url, "entry", i, "title", item.Title)
			skipped++
			continue
		}
		body := item.Content
		if strings.TrimSpace(body) == "" {
			body = item.Description
		}
		if strings.TrimSpace(body) == "" {
			f.logger().Warn("Skipping entry without content or summary", "feed", url, "link", link)
			skipped++
			continue
		}

		docs = append(docs, corpus.Document{
			ID:     link,
			Tokens: textproc.Tokenize(body),
			Payload: corpus.Payload{
				Feed:  url,
				Title: textproc.SingleLine(item.Title),
			},
			Published: publishedDate(item),
		})
	}
	return docs, skipped
}

func publishedDate(item *gofeed.Item) *corpus.Date {
	var t *time.Time
	if item.PublishedParsed != nil {
		t = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		t = item.UpdatedParsed
	}
	if t == nil || t.IsZero() {
		return nil
	}
	return new(corpus.DateOf(*t))
}

type fetchResult struct {
	docs    []corpus.Document
	skipped int
	err     error
	fetched bool
}

// FetchAll fetches every feed and concatenates their documents in feed order.
// A feed that fails is logged and contributes nothing.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string, opt usecase.FetchOptions) ([]corpus.Document, usecase.FetchReport) {
	if ctx == nil {
		ctx = context.Background()
	}
	report := usecase.FetchReport{Requested: len(urls)}
	results := make([]fetchResult, len(urls))

	fetchOne := func(i int, url string) {
		feedCtx := ctx
		if opt.PerFeedTimeout > 0 {
			var cancel context.CancelFunc
			feedCtx, cancel = context.WithTimeout(ctx, opt.PerFeedTimeout)
			defer cancel()
		}
		docs, skipped, err := f.Documents(feedCtx, url)
		if err != nil {
			f.logger().Error("Problem parsing feed", "url", strings.TrimSpace(url), "err", err)
		}
		results[i] = fetchResult{docs: docs, skipped: skipped, err: err, fetched: true}
	}

	if opt.Concurrency <= 1 {
		for i, url := range urls {
			if strings.TrimSpace(url) == "" || ctx.Err() != nil {
				continue
			}
			fetchOne(i, url)
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, opt.Concurrency)
		for i, url := range urls {
			if strings.TrimSpace(url) == "" {
				continue
			}
			wg.Go(func() {
				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					return
				}
				defer func() { <-sem }()
				fetchOne(i, url)
			})
		}
		wg.Wait()
	}

	var all []corpus.Document
	for _, res := range results {
		if !res.fetched {
			continue
		}
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) || errors.Is(res.err, context.Canceled) {
				report.TimedOut++
			} else {
				report.Failed++
			}
			continue
		}
		report.Succeeded++
		report.SkippedEntries += res.skipped
		all = append(all, res.docs...)
	}
	report.Documents = len(all)
	return all, report
}

func (f *Fetcher) logger() *slog.Logger {
	if f != nil && f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}
