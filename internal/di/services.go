package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/ratechart/internal/config"
	"github.com/aristath/ratechart/internal/events"
	"github.com/aristath/ratechart/internal/modules/charts"
	"github.com/aristath/ratechart/internal/modules/dataset"
	"github.com/aristath/ratechart/internal/modules/framecache"
	"github.com/aristath/ratechart/internal/scheduler"
	"github.com/aristath/ratechart/internal/viewport"
)

// InitializeServices creates the services on top of an initialized container
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Events
	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)

	// Loader
	loader, err := newLoader(cfg, log)
	if err != nil {
		return err
	}
	container.Loader = loader

	// Chart definition
	def, err := config.LoadChartDefinition(cfg.ChartDefinition)
	if err != nil {
		return fmt.Errorf("failed to load chart definition: %w", err)
	}

	// Frame cache. A nil repository must not reach the service as a non-nil interface.
	var cache charts.FrameCache
	if cfg.FrameCacheEnabled {
		container.FrameCache = framecache.NewRepository(container.CacheDB, log)
		cache = container.FrameCache
	}

	container.ChartService = charts.NewService(
		loader,
		cfg.DataSource,
		charts.OptionsFromDefinition(def),
		cache,
		container.EventManager,
		log,
	)

	container.ViewportHub = viewport.NewHub(viewport.Throttle{
		Rate:  cfg.ResizeMaxRate,
		Burst: cfg.ResizeBurst,
	}, log)

	container.Scheduler = scheduler.New(log)

	log.Info().
		Str("source", cfg.DataSource).
		Bool("frame_cache", cfg.FrameCacheEnabled).
		Int("series", len(def.Series)).
		Msg("Services initialized")

	return nil
}

// newLoader builds the dataset loader. S3 credentials are only resolved when
// the configured source lives in S3.
func newLoader(cfg *config.Config, log zerolog.Logger) (*dataset.Loader, error) {
	opts := []dataset.Option{
		dataset.WithHTTPFetcher(dataset.NewHTTPFetcher(cfg.FetchTimeout)),
	}

	if dataset.IsS3Source(cfg.DataSource) {
		fetcher, err := dataset.NewS3Fetcher(context.Background(), dataset.S3Config{
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 fetcher: %w", err)
		}
		opts = append(opts, dataset.WithS3Fetcher(fetcher))
	}

	return dataset.NewLoader(log, opts...), nil
}
