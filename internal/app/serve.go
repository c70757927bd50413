package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/api"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/config"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/store"
)

// NewStatusServer builds the status-only API used by the serve command. It
// reads run snapshots that crawl processes write to the shared status store.
func NewStatusServer(cfg *config.Config, logger *zap.Logger) (*api.Server, store.StatusStore, error) {
	if cfg == nil {
		return nil, nil, errors.New("config is required")
	}
	statuses, err := newStatusStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	server, err := api.NewServer(api.Deps{
		Statuses:   statuses,
		Gatherer:   registry,
		Registerer: registry,
		Ready: func(ctx context.Context) error {
			if _, err := statuses.Get(ctx, "readiness-probe"); err != nil && !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("status store: %w", err)
			}
			return nil
		},
		Logger: logger,
	})
	if err != nil {
		_ = statuses.Close()
		return nil, nil, fmt.Errorf("init api server: %w", err)
	}
	return server, statuses, nil
}
