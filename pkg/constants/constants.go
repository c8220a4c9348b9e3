// Package constants provides shared constants used throughout boqtools.
// This includes comparison defaults, file permissions and naming values that
// must stay consistent between the engine, the CLI and the snapshot stores.
package constants

import "time"

// Comparison defaults
const (
	// DefaultRelativeTolerance is the allowed relative drift of total_price
	// against quantity × unit_price (1%)
	DefaultRelativeTolerance = 0.01

	// DefaultAbsoluteTolerance absorbs rounding on small totals
	DefaultAbsoluteTolerance = 0.01

	// ManualOverrideReason is recorded when an operator invalidates a row without a note
	ManualOverrideReason = "manual override"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Path constants
const (
	// DefaultConfigName is the config file name searched in home and cwd
	DefaultConfigName = ".boqtools"

	// DefaultSnapshotDir is the default directory for file snapshots
	DefaultSnapshotDir = "~/.boqtools/snapshots"

	// DefaultSQLiteFile is the database file used by the sqlite snapshot backend
	DefaultSQLiteFile = "snapshots.db"

	// EnvPrefix is the prefix for environment overrides
	EnvPrefix = "BOQ"
)

// Format constants
const (
	// TimeFormatOffer is the layout of an offer date
	TimeFormatOffer = "2006-01-02"

	// TimeFormatFilename is the format used in generated filenames
	TimeFormatFilename = "20060102-150405"

	// TimeFormatDisplay is the layout of timestamps in table output
	TimeFormatDisplay = "2006-01-02 15:04"
)

// CommandTimeout is the default timeout for CLI commands
const CommandTimeout = 10 * time.Minute
