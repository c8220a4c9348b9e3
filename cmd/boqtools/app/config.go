package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/constants"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/save"
)

// Snapshot backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Comparison configuration
	Tolerance         float64
	AbsoluteTolerance float64
	SubtotalPatterns  []string

	// Sheet reading configuration
	Columns map[string][]string // field name to extra header aliases
	Sheet   string

	// Snapshot configuration
	Snapshot SnapshotConfig

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// SnapshotConfig selects where named masters are stored.
type SnapshotConfig struct {
	Backend string      // file or sqlite
	Dir     string      // snapshot directory, also holds the sqlite database
	Format  save.Format // document format for the file backend
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (BOQ_ prefix)
// 3. .env files
// 4. Config file (configFile, or ~/.boqtools.yaml, or ./.boqtools.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "reading "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.DefaultConfigName)

		// Read config file (ignore error if not found)
		_ = v.ReadInConfig()
	}

	format, err := save.ParseFormat(v.GetString("snapshot.format"))
	if err != nil {
		return nil, errors.NewConfigError("snapshot", err.Error(), err)
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Tolerance:         v.GetFloat64("tolerance"),
		AbsoluteTolerance: v.GetFloat64("absolute_tolerance"),
		SubtotalPatterns:  v.GetStringSlice("subtotal_patterns"),

		Columns: v.GetStringMapStringSlice("columns"),
		Sheet:   v.GetString("sheet"),

		Snapshot: SnapshotConfig{
			Backend: strings.ToLower(v.GetString("snapshot.backend")),
			Dir:     v.GetString("snapshot.dir"),
			Format:  format,
		},

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tolerance", constants.DefaultRelativeTolerance)
	v.SetDefault("absolute_tolerance", constants.DefaultAbsoluteTolerance)
	v.SetDefault("snapshot.backend", BackendFile)
	v.SetDefault("snapshot.dir", constants.DefaultSnapshotDir)
	v.SetDefault("snapshot.format", save.FormatJSON.String())
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// Validate rejects settings no command could run with.
func (c *Config) Validate() error {
	switch c.Snapshot.Backend {
	case BackendFile, BackendSQLite:
	default:
		return errors.NewConfigError("snapshot", "unknown backend "+c.Snapshot.Backend+", expected file or sqlite", nil)
	}
	if c.Tolerance < 0 || c.AbsoluteTolerance < 0 {
		return errors.NewConfigError("tolerance", "tolerances cannot be negative", nil)
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local overrides .env
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}
