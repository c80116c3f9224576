package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.BindAddress)
	assert.Equal(t, "0", cfg.Sheets.GID)
	assert.Equal(t, 800, cfg.Images.MaxWidth)
	assert.Equal(t, 85, cfg.Images.JPEGQuality)
	assert.Equal(t, 50, cfg.Reports.RetentionCount)
	assert.True(t, cfg.Reports.AllowDeletion)
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "VigilanceReports.config")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.Server.Port)

	// The default file was written for the next run.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "VigilanceReports.config")

	cfg := DefaultConfig()
	cfg.Server.Port = 9999
	cfg.Sheets.SheetID = "1AbCdEf"
	cfg.Reports.Directory = "./reports"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, loaded.Server.Port)
	assert.Equal(t, "1AbCdEf", loaded.Sheets.SheetID)
}

func TestLoadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "VigilanceReports.config")
	require.NoError(t, os.WriteFile(path, []byte("<VigilanceReports><Server>"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("GOOGLE_SHEET_ID", "env-sheet")
	t.Setenv("SHEET_GID", "42")
	t.Setenv("REPORTS_DIR", "/tmp/reports-env")

	dir := t.TempDir()
	cfg, err := LoadConfig(filepath.Join(dir, "VigilanceReports.config"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "env-sheet", cfg.Sheets.SheetID)
	assert.Equal(t, "42", cfg.Sheets.GID)
	assert.Equal(t, "/tmp/reports-env", cfg.GetReportDir())
}

func TestResolvePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "VigilanceReports.config")

	cfg := DefaultConfig()
	cfg.Sheets.SheetID = "x"
	cfg.Reports.Directory = "./data/reports"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "reports"), loaded.GetReportDir())
	assert.True(t, filepath.IsAbs(loaded.GetReportDir()))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "missing sheet ID must fail validation")

	cfg.Sheets.SheetID = "1AbCdEf"
	assert.NoError(t, cfg.Validate())
}

func TestGetServerAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.BindAddress = "127.0.0.1"
	cfg.Server.Port = 8090
	assert.Equal(t, "127.0.0.1:8090", cfg.GetServerAddr())
}
