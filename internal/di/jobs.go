package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ratechart/internal/config"
	"github.com/aristath/ratechart/internal/scheduler"
)

const (
	frameCacheMaxAge   = 7 * 24 * time.Hour
	frameCacheSchedule = "0 0 * * * *" // hourly
)

// RegisterJobs creates the background jobs and registers the scheduled ones.
// The reload job always exists so it can be run on demand; it is only
// scheduled when RELOAD_SCHEDULE is set.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	instances := &JobInstances{}

	reload := scheduler.NewReloadDatasetJob(container.ChartService, cfg.FetchTimeout)
	reload.SetLogger(log)
	instances.ReloadDataset = reload

	if cfg.ReloadSchedule != "" {
		if err := container.Scheduler.AddJob(cfg.ReloadSchedule, reload); err != nil {
			return nil, fmt.Errorf("failed to register reload job: %w", err)
		}
	}

	if container.FrameCache != nil {
		maintain := scheduler.NewMaintainFrameCacheJob(container.FrameCache, container.CacheDB, frameCacheMaxAge)
		maintain.SetLogger(log)
		if err := container.Scheduler.AddJob(frameCacheSchedule, maintain); err != nil {
			return nil, fmt.Errorf("failed to register frame cache job: %w", err)
		}
		instances.MaintainFrameCache = maintain
	}

	log.Info().
		Bool("reload_scheduled", cfg.ReloadSchedule != "").
		Bool("frame_cache_maintenance", instances.MaintainFrameCache != nil).
		Msg("Jobs registered")

	return instances, nil
}
