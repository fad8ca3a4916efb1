package di

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ratechart/internal/config"
)

func TestInitializeDatabases(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &config.Config{DataDir: tmpDir}

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, container)
	defer container.Close()

	require.NotNil(t, container.CacheDB)
	assert.Equal(t, "cache", container.CacheDB.Name())
	assert.FileExists(t, filepath.Join(tmpDir, "cache.db"))

	// schema applied
	var count int
	err = container.CacheDB.Conn().QueryRow(`SELECT COUNT(*) FROM chart_frames`).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}
