// Package similarity opens the configured similarity backend session.
package similarity

import (
	"fmt"
	"log/slog"

	"github.com/tesso57/rsscluster/internal/application/settings"
	"github.com/tesso57/rsscluster/internal/application/usecase"
	"github.com/tesso57/rsscluster/internal/infrastructure/similarity/bleveindex"
	"github.com/tesso57/rsscluster/internal/infrastructure/similarity/execbackend"
)

var _ usecase.SessionStateReporter = (*bleveindex.Backend)(nil)

// Open returns a handle on the named session of the backend selected by cfg.
// The caller owns the handle and must Close it.
func Open(cfg settings.BackendConfig, session string, logger *slog.Logger) (usecase.SimilarityBackend, error) {
	switch cfg.Kind {
	case "", settings.BackendBleve:
		b, err := bleveindex.Open(cfg.DataDir, session, cfg.MaxResults, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case settings.BackendExec:
		c, err := execbackend.NewClient(execbackend.Config{
			Command:    cfg.Command,
			Session:    session,
			MaxResults: cfg.MaxResults,
			Timeout:    cfg.Timeout(),
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Kind)
	}
}
