package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "reports", cfg.ArchiveRoot)
	assert.Equal(t, 4, cfg.ExportChildConcurrency)
	assert.Equal(t, 30*time.Second, cfg.ConfluenceTimeout())
	assert.Equal(t, 48*time.Hour, cfg.ExportCacheTTL())
	assert.False(t, cfg.ExportRejectDuplicates)
}

func TestLoadFileEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ARCHIVE_ROOT", "/data/archives")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("EXPORT_REJECT_DUPLICATES", "true")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "/data/archives", cfg.ArchiveRoot)
	assert.True(t, cfg.MinioUseSSL)
	assert.True(t, cfg.ExportRejectDuplicates)
}

func TestLoadFileReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_BASE_URL=https://archive.example.com\nEXPORT_CHILD_CONCURRENCY=2\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://archive.example.com", cfg.AppBaseURL)
	assert.Equal(t, 2, cfg.ExportChildConcurrency)
}
