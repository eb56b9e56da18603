package di

import (
	"github.com/alchemmist/canvas-snap/internal/config"
	"github.com/alchemmist/canvas-snap/internal/document"
	"github.com/alchemmist/canvas-snap/internal/logging"
	"github.com/alchemmist/canvas-snap/internal/metrics"
	"github.com/alchemmist/canvas-snap/internal/store"
)

func NewLogProvider(cfg config.Config) (logging.Logger, func(), error) {
	log, err := logging.New(logging.Options{
		Level:  cfg.Logger.Level,
		Pretty: cfg.Logger.Pretty,
		File:   cfg.Logger.File,
	})
	if err != nil {
		return nil, nil, err
	}
	return log, log.Close, nil
}

func NewMetricsProvider(cfg config.Config) metrics.ProviderInterface {
	return metrics.New(cfg.Metrics.Enabled)
}

func NewCacheProvider(cfg config.Config) store.Cache {
	if !cfg.Cache.Enabled {
		return store.NoopCache()
	}
	return store.NewCache(cfg.Cache.SizeMB, cfg.Cache.TTL)
}

func NewStoreProvider(doc *document.Memory, log logging.Logger, m metrics.ProviderInterface, cache store.Cache) *store.Store {
	return store.New(store.Static(doc),
		store.WithLogger(log),
		store.WithMetrics(m),
		store.WithCache(cache),
	)
}
