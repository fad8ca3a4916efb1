package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/ratechart/internal/database"
	"github.com/aristath/ratechart/internal/modules/charts"
	"github.com/aristath/ratechart/internal/scheduler"
)

// DatasetDescriber describes the currently loaded dataset
type DatasetDescriber interface {
	Info() (charts.DatasetInfo, error)
}

// ViewerCounter reports connected viewers
type ViewerCounter interface {
	Count() int
}

// JobReporter reports scheduled job status
type JobReporter interface {
	Status() []scheduler.JobStatus
}

// StatsProvider reports database statistics
type StatsProvider interface {
	GetStats(ctx context.Context) (*database.Stats, error)
}

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	dataset     DatasetDescriber
	viewers     ViewerCounter
	jobs        JobReporter
	cacheDB     StatsProvider
	sampleCPU   time.Duration
}

// NewSystemHandlers creates a new system handlers instance. Any of the
// providers may be nil, in which case its section is left out.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	dataset DatasetDescriber,
	viewers ViewerCounter,
	jobs JobReporter,
	cacheDB StatsProvider,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		dataset:     dataset,
		viewers:     viewers,
		jobs:        jobs,
		cacheDB:     cacheDB,
		sampleCPU:   100 * time.Millisecond,
	}
}

// HostStats holds host resource usage
type HostStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskFreeMB    float64 `json:"disk_free_mb"`
}

// DiskUsageResponse represents disk usage of the data directory
type DiskUsageResponse struct {
	DataDirMB float64 `json:"data_dir_mb"`
	LogsDirMB float64 `json:"logs_dir_mb"`
	CacheDBMB float64 `json:"cache_db_mb"`
}

// SystemStatusResponse represents the system status
type SystemStatusResponse struct {
	Status        string                `json:"status"`
	UptimeSeconds int64                 `json:"uptime_seconds"`
	Dataset       *charts.DatasetInfo   `json:"dataset,omitempty"`
	DatasetError  string                `json:"dataset_error,omitempty"`
	Viewers       int                   `json:"viewers"`
	Jobs          []scheduler.JobStatus `json:"jobs"`
	CacheDB       *database.Stats       `json:"cache_db,omitempty"`
	Host          HostStats             `json:"host"`
	Disk          DiskUsageResponse     `json:"disk"`
}

// GetSystemStatusSnapshot returns a snapshot of the current system status.
// Status is "degraded" until a dataset has been loaded.
func (h *SystemHandlers) GetSystemStatusSnapshot(ctx context.Context) (SystemStatusResponse, error) {
	if h == nil {
		return SystemStatusResponse{}, errors.New("system handlers not initialized")
	}

	var firstErr error
	recordErr := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		Jobs:          []scheduler.JobStatus{},
		Host:          h.getHostStats(),
		Disk:          h.getDiskUsage(),
	}

	if h.dataset != nil {
		info, err := h.dataset.Info()
		if err != nil {
			response.Status = "degraded"
			response.DatasetError = err.Error()
		} else {
			response.Dataset = &info
		}
	}

	if h.viewers != nil {
		response.Viewers = h.viewers.Count()
	}
	if h.jobs != nil {
		response.Jobs = h.jobs.Status()
	}

	if h.cacheDB != nil {
		stats, err := h.cacheDB.GetStats(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to get cache database stats")
			recordErr(err)
		} else {
			response.CacheDB = stats
		}
	}

	return response, firstErr
}

// HandleSystemStatus returns comprehensive system status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	response, err := h.GetSystemStatusSnapshot(r.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("System status collected with warnings")
	}

	writeJSON(w, h.log, response)
}

func (h *SystemHandlers) getDiskUsage() DiskUsageResponse {
	usage := DiskUsageResponse{
		DataDirMB: h.getDirSize(h.dataDir),
		LogsDirMB: h.getDirSize(filepath.Join(h.dataDir, "logs")),
	}
	if info, err := os.Stat(filepath.Join(h.dataDir, "cache.db")); err == nil {
		usage.CacheDBMB = float64(info.Size()) / 1024 / 1024
	}
	return usage
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getHostStats samples CPU over a short interval; memory and disk are instant
func (h *SystemHandlers) getHostStats() HostStats {
	var stats HostStats

	cpuPercent, err := cpu.Percent(h.sampleCPU, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else if len(cpuPercent) > 0 {
		stats.CPUPercent = cpuPercent[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	} else {
		stats.MemoryPercent = memStat.UsedPercent
	}

	diskStat, err := disk.Usage(h.dataDir)
	if err != nil {
		h.log.Warn().Err(err).Str("dir", h.dataDir).Msg("Failed to get disk usage")
	} else {
		stats.DiskPercent = diskStat.UsedPercent
		stats.DiskFreeMB = float64(diskStat.Free) / 1024 / 1024
	}

	return stats
}
