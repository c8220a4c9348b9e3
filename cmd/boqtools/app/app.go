// Package app provides the application context and dependency management
// for the boqtools CLI. It centralizes configuration, logging, the snapshot
// store and the lifecycle of the command run.
package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	boqtools "github.com/TrendsetAM/BOQ-TOOLS"
	"github.com/TrendsetAM/BOQ-TOOLS/cmd/application"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/output"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/sheets"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/snapshot"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/comparison"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/constants"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/save"
)

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// App represents the boqtools application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Persistent flag values, applied to config before each command
	flags flags

	// Snapshot store (lazy-initialized, singleton)
	mu     sync.RWMutex
	store  snapshot.Store
	closer io.Closer
}

type flags struct {
	configFile string
	verbose    bool
	quiet      bool
	noColor    bool
	format     string
	logLevel   string
}

// New creates a new App instance with the given version information.
// Configuration is loaded from the default locations and can be
// customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured format, or the terminal-aware default.
func (a *App) OutputFormat() string {
	return string(output.DetectFormat(a.config.Format))
}

// SessionOptions returns the comparison settings from the configuration.
func (a *App) SessionOptions() []comparison.Option {
	opts := []comparison.Option{
		comparison.WithTolerance(a.config.Tolerance, a.config.AbsoluteTolerance),
	}
	if len(a.config.SubtotalPatterns) > 0 {
		opts = append(opts, comparison.WithSubtotalPatterns(a.config.SubtotalPatterns...))
	}
	return opts
}

// Workspace returns a new workspace backed by the snapshot store and the
// configured comparison settings.
func (a *App) Workspace(ctx context.Context, opts ...boqtools.Option) (boqtools.Workspace, error) {
	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	base := []boqtools.Option{
		boqtools.WithStore(store),
		boqtools.WithSessionOptions(a.SessionOptions()...),
	}
	ws, err := boqtools.New(append(base, opts...)...)
	if err != nil {
		return nil, errors.WrapResource("create", "workspace", "", err)
	}
	return ws, nil
}

// Store returns the snapshot store, opening it lazily on first use.
// This is thread-safe and ensures only one store is opened.
func (a *App) Store(ctx context.Context) (snapshot.Store, error) {
	a.mu.RLock()
	if a.store != nil {
		store := a.store
		a.mu.RUnlock()
		return store, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.store != nil {
		return a.store, nil
	}

	cfg := a.config.Snapshot
	dir := expandHome(cfg.Dir)
	switch cfg.Backend {
	case BackendSQLite:
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", dir, err)
		}
		store, err := snapshot.OpenSQLite(ctx, filepath.Join(dir, constants.DefaultSQLiteFile), save.WithFormat(cfg.Format))
		if err != nil {
			return nil, err
		}
		a.store, a.closer = store, store
	default:
		store, err := snapshot.NewFileStore(dir, save.WithFormat(cfg.Format))
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	a.logger.Debug().Str("backend", cfg.Backend).Str("dir", dir).Msg("Snapshot store opened")
	return a.store, nil
}

// Reader returns a sheet reader using the configured header aliases and sheet.
func (a *App) Reader() (*sheets.Reader, error) {
	aliases, err := sheets.DefaultAliases.Merge(a.config.Columns)
	if err != nil {
		return nil, err
	}
	opts := []sheets.ReaderOption{sheets.WithAliases(aliases)}
	if a.config.Sheet != "" {
		opts = append(opts, sheets.WithSheet(a.config.Sheet))
	}
	return sheets.NewReader(opts...), nil
}

// Shutdown performs graceful shutdown of the application, closing the
// snapshot store when it holds a database.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.store, a.closer = nil, nil
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to close snapshot store during shutdown")
		return errors.WrapResource("close", "snapshot store", "", err)
	}
	return nil
}

func expandHome(dir string) string {
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	return dir
}
