package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/tesso57/rsscluster/internal/application/settings"
	"github.com/tesso57/rsscluster/internal/application/usecase"
	"github.com/tesso57/rsscluster/internal/domain/corpus"
	"github.com/tesso57/rsscluster/internal/infrastructure/catalog"
	"github.com/tesso57/rsscluster/internal/infrastructure/config"
	"github.com/tesso57/rsscluster/internal/infrastructure/feed"
	"github.com/tesso57/rsscluster/internal/infrastructure/logging"
	"github.com/tesso57/rsscluster/internal/infrastructure/opml"
	"github.com/tesso57/rsscluster/internal/infrastructure/similarity"
	"github.com/tesso57/rsscluster/internal/presentation/report"
)

const description = `Reads the feeds listed in OPML_FILE and, for every story published on the
target date, lists the stories from the corpus that the similarity backend
scores above the threshold.`

// DateFlag is a YYYY-MM-DD flag value.
type DateFlag struct {
	Date corpus.Date
	Set  bool
}

// Decode implements kong.MapperValue.
func (d *DateFlag) Decode(ctx *kong.DecodeContext) error {
	var raw string
	if err := ctx.Scan.PopValueInto("date", &raw); err != nil {
		return err
	}
	date, err := corpus.ParseDate(raw)
	if err != nil {
		return err
	}
	d.Date = date
	d.Set = true
	return nil
}

// CLI is the command-line surface.
type CLI struct {
	Settings settings.Settings `kong:"embed"`

	Config       kong.ConfigFlag `kong:"help='YAML settings file (default ~/.config/rsscluster/config.yaml)',placeholder='FILE'"`
	Date         DateFlag        `kong:"short='d',help='Only report stories published on this day (default today)',placeholder='YYYY-MM-DD'"`
	SkipTraining bool            `kong:"short='s',help='Reuse the trained backend session instead of training it again'"`
	HTML         bool            `kong:"short='m',name='html',help='Write the report as HTML'"`
	OutputFile   string          `kong:"short='f',type='path',help='Write the report to this file instead of stdout',placeholder='FILE'"`

	OPMLFile string `kong:"arg,optional,name='opml-file',type='path',help='OPML file listing the feeds'"`
}

func newParser(cli *CLI, stdout, stderr io.Writer) (*kong.Kong, error) {
	return config.NewParser(cli, []string{config.DefaultPath()},
		kong.Name("rsscluster"),
		kong.Description(description),
		kong.Writers(stdout, stderr),
	)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cli CLI
	parser, err := newParser(&cli, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "rsscluster: %v\n", err)
		return 1
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "rsscluster: %v\n", err)
		return 1
	}
	if cli.OPMLFile == "" {
		if err := kctx.PrintUsage(false); err != nil {
			return 1
		}
		return 0
	}

	config.Normalize(&cli.Settings)
	if err := cli.Settings.Validate(); err != nil {
		fmt.Fprintf(stderr, "rsscluster: %v\n", err)
		return 1
	}
	logger, err := logging.Init(stderr, cli.Settings.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "rsscluster: %v\n", err)
		return 1
	}

	if err := cli.execute(ctx, stdout, logger); err != nil {
		logger.Error("Run failed", "err", err)
		return 1
	}
	return 0
}

func (c *CLI) execute(ctx context.Context, stdout io.Writer, logger *slog.Logger) (err error) {
	cfg := c.Settings

	cat, err := catalog.Open(filepath.Join(cfg.Backend.DataDir, catalog.FileName))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cat.Close(); cerr != nil {
			logger.Warn("Could not close session catalog", "err", cerr)
		}
	}()

	backend, err := similarity.Open(cfg.Backend, cfg.Session, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := backend.Close(); cerr != nil {
			logger.Warn("Could not close backend session", "session", cfg.Session, "err", cerr)
		}
	}()

	w := stdout
	if c.OutputFile != "" {
		f, ferr := os.Create(c.OutputFile)
		if ferr != nil {
			return fmt.Errorf("create output file: %w", ferr)
		}
		defer func() {
			err = errors.Join(err, f.Close())
		}()
		w = f
	}

	var renderer usecase.ReportRenderer = report.Text{}
	if c.HTML {
		renderer = report.HTML{}
	}

	day := corpus.LocalDateOf(time.Now())
	if c.Date.Set {
		day = c.Date.Date
	}

	service := usecase.NewClusterService(opml.Loader{}, feed.NewFetcher(cfg.Fetch.UserAgent, logger), backend, cat)
	service.Logger = logger
	summary, err := service.Run(ctx, usecase.ClusterRequest{
		OPMLPath:     c.OPMLFile,
		Date:         day,
		Session:      cfg.Session,
		BackendKind:  cfg.Backend.Kind,
		Method:       cfg.Method,
		SkipTraining: c.SkipTraining,
		Policy: usecase.RelatedPolicy{
			Threshold:       cfg.Threshold,
			ExcludeSameFeed: cfg.ExcludeSameFeed,
		},
		Fetch: usecase.FetchOptions{
			PerFeedTimeout: cfg.FetchTimeout(),
			Concurrency:    cfg.Fetch.Concurrency,
		},
	}, w, renderer)
	if err != nil {
		return err
	}
	logger.Info("Done",
		"date", day.String(),
		"feeds", summary.Feeds,
		"documents", summary.Fetch.Documents,
		"seeds", summary.Seeds,
		"groupings", summary.Groupings)
	return nil
}
