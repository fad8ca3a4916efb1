// Package di provides dependency injection type definitions.
package di

import (
	"github.com/aristath/ratechart/internal/database"
	"github.com/aristath/ratechart/internal/events"
	"github.com/aristath/ratechart/internal/modules/charts"
	"github.com/aristath/ratechart/internal/modules/dataset"
	"github.com/aristath/ratechart/internal/modules/framecache"
	"github.com/aristath/ratechart/internal/scheduler"
	"github.com/aristath/ratechart/internal/viewport"
)

// Container holds all dependencies for the application.
// It is created by Wire() and passed to the server for access to services.
type Container struct {
	// Databases
	CacheDB *database.DB

	// Repositories
	FrameCache *framecache.Repository // nil when the frame cache is disabled

	// Services
	Loader       *dataset.Loader
	ChartService *charts.Service
	ViewportHub  *viewport.Hub
	EventBus     *events.Bus
	EventManager *events.Manager
	Scheduler    *scheduler.Scheduler
}

// JobInstances holds the registered background jobs
type JobInstances struct {
	ReloadDataset      *scheduler.ReloadDatasetJob
	MaintainFrameCache *scheduler.MaintainFrameCacheJob // nil when the frame cache is disabled
}

// Close releases resources held by the container
func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.CacheDB != nil {
		return c.CacheDB.Close()
	}
	return nil
}
