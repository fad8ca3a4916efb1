package di

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ratechart/internal/config"
	"github.com/aristath/ratechart/internal/modules/layout"
	"github.com/aristath/ratechart/internal/modules/render"
	testingpkg "github.com/aristath/ratechart/internal/testing"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:           t.TempDir(),
		DataSource:        testingpkg.WriteFixture(t, "fredgraph.csv", testingpkg.FixtureCSV),
		FrameCacheEnabled: true,
		ResizeMaxRate:     10,
		ResizeBurst:       1,
		FetchTimeout:      5 * time.Second,
	}
}

func TestWire(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.ReloadSchedule = "@every 1h"

	container, jobs, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.CacheDB)
	assert.NotNil(t, container.FrameCache)
	assert.NotNil(t, container.Loader)
	assert.NotNil(t, container.ChartService)
	assert.NotNil(t, container.ViewportHub)
	assert.NotNil(t, container.EventBus)
	assert.NotNil(t, container.EventManager)
	assert.NotNil(t, container.Scheduler)

	require.NotNil(t, jobs.ReloadDataset)
	require.NotNil(t, jobs.MaintainFrameCache)

	status := container.Scheduler.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "maintain_frame_cache", status[0].Name)
	assert.Equal(t, "reload_dataset", status[1].Name)
	assert.Equal(t, "@every 1h", status[1].Schedule)
}

func TestWire_FramesGoThroughCache(t *testing.T) {
	cfg := newTestConfig(t)

	container, jobs, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	ctx := context.Background()
	require.NoError(t, jobs.ReloadDataset.Run())

	_, err = container.ChartService.Frame(ctx, layout.Size{Width: 960, Height: 500}, render.FormatSVG)
	require.NoError(t, err)

	n, err := container.FrameCache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// reload job unscheduled without RELOAD_SCHEDULE
	for _, st := range container.Scheduler.Status() {
		assert.NotEqual(t, "reload_dataset", st.Name)
	}
}

func TestWire_FrameCacheDisabled(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.FrameCacheEnabled = false

	container, jobs, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.Nil(t, container.FrameCache)
	assert.Nil(t, jobs.MaintainFrameCache)

	require.NoError(t, container.ChartService.Load(context.Background()))
	frame, err := container.ChartService.Frame(context.Background(), layout.Size{Width: 640, Height: 400}, render.FormatSVG)
	require.NoError(t, err)
	assert.Contains(t, string(frame), "<svg")
}

func TestWire_InvalidDefinition(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.ChartDefinition = filepath.Join(t.TempDir(), "missing.yaml")

	_, _, err := Wire(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestWire_InvalidSchedule(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.ReloadSchedule = "not a schedule"

	_, _, err := Wire(cfg, zerolog.Nop())
	assert.Error(t, err)
}
