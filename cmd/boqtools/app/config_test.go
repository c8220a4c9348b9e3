package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/constants"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/save"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boqtools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadConfigDefaults verifies the defaults of an empty config file.
func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultRelativeTolerance, config.Tolerance)
	assert.Equal(t, constants.DefaultAbsoluteTolerance, config.AbsoluteTolerance)
	assert.Equal(t, BackendFile, config.Snapshot.Backend)
	assert.Equal(t, constants.DefaultSnapshotDir, config.Snapshot.Dir)
	assert.Equal(t, save.FormatJSON, config.Snapshot.Format)
	assert.Equal(t, "auto", config.LogFormat)
	assert.Empty(t, config.LogLevel, "an unset level leaves room for -v and -q")
}

// TestLoadConfigFile verifies values read from a config file.
func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
tolerance: 0.05
subtotal_patterns:
  - "^carried forward"
sheet: Offer
columns:
  description: ["voce"]
  quantity: ["qta"]
snapshot:
  backend: SQLite
  dir: /var/lib/boqtools
  format: yaml
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, path, config.ConfigFile)
	assert.Equal(t, 0.05, config.Tolerance)
	assert.Equal(t, []string{"^carried forward"}, config.SubtotalPatterns)
	assert.Equal(t, "Offer", config.Sheet)
	assert.Equal(t, []string{"voce"}, config.Columns["description"])
	assert.Equal(t, []string{"qta"}, config.Columns["quantity"])
	assert.Equal(t, SnapshotConfig{Backend: BackendSQLite, Dir: "/var/lib/boqtools", Format: save.FormatYAML}, config.Snapshot)
}

// TestLoadConfigEnvironment verifies BOQ_ environment overrides.
func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("BOQ_TOLERANCE", "0.1")
	t.Setenv("BOQ_SNAPSHOT_BACKEND", "sqlite")
	t.Setenv("BOQ_LOG_LEVEL", "debug")
	t.Setenv("BOQ_VERBOSE", "true")

	config, err := LoadConfig(writeConfig(t, "tolerance: 0.05\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.1, config.Tolerance, "the environment wins over the file")
	assert.Equal(t, BackendSQLite, config.Snapshot.Backend)
	assert.Equal(t, "debug", config.LogLevel)
	assert.True(t, config.Verbose)
}

// TestLoadConfigErrors verifies invalid settings are reported as config errors.
func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown backend", content: "snapshot:\n  backend: s3\n"},
		{name: "unknown format", content: "snapshot:\n  format: xml\n"},
		{name: "negative tolerance", content: "tolerance: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			var cfgErr *errors.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// TestUpdateFromFlags verifies flags override loaded values only when set.
func TestUpdateFromFlags(t *testing.T) {
	config := &Config{Format: "yaml", LogLevel: "warn"}
	config.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, config.Verbose)
	assert.True(t, config.NoColor)
	assert.Equal(t, "yaml", config.Format)
	assert.Equal(t, "warn", config.LogLevel)

	config.UpdateFromFlags(false, false, false, "json", "error")
	assert.Equal(t, "json", config.Format)
	assert.Equal(t, "error", config.LogLevel)
}
