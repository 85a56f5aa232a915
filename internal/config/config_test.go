package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpextract/internal/config"
	"bpextract/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "process_files", cfg.Paths.ProcessDir)
	assert.Equal(t, "element_files/calendar", cfg.Paths.CalendarDir)
	assert.Equal(t, "summary", cfg.Paths.SummaryDir)
	assert.Equal(t, domain.ExportFormatCSV, cfg.Export.Format)
	assert.False(t, cfg.S3.Enabled)
	assert.False(t, cfg.DB.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BPX_PATHS_OUTPUT_DIR", "/tmp/out")
	t.Setenv("BPX_EXPORT_FORMAT", "BOTH")
	t.Setenv("BPX_EXPORT_BOM", "true")
	t.Setenv("BPX_S3_PREFIX", "/runs/")
	t.Setenv("BPX_DB_PORT", "6543")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/out", cfg.Paths.OutputDir)
	assert.Equal(t, domain.ExportFormatBoth, cfg.Export.Format)
	assert.True(t, cfg.Export.BOM)
	assert.Equal(t, "runs", cfg.S3.Prefix)
	assert.Equal(t, 6543, cfg.DB.Port)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bpextract.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
paths:
  process_dir: exports/processes
export:
  format: xlsx
log:
  level: debug
`), 0o644))
	t.Setenv("BPX_LOG_LEVEL", "warn")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "exports/processes", cfg.Paths.ProcessDir)
	assert.Equal(t, domain.ExportFormatXLSX, cfg.Export.Format)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "summary", cfg.Paths.SummaryDir)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidFormat(t *testing.T) {
	t.Setenv("BPX_EXPORT_FORMAT", "pdf")

	_, err := config.Load("")
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	db := config.DBConfig{User: "u", Password: "p", Host: "h", Port: 5432, Name: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", db.DSN())
}
