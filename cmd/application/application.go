// Package application provides the application interface for boqtools commands.
//
// The Application interface defines the contract between the application layer and
// command implementations, enabling dependency injection and testability.
//
// Design Principles:
//   - Accept interfaces, return structs
//   - Define interfaces where they're used, not where they're implemented
//   - Keep interfaces small and focused
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            ws, err := app.Workspace(cmd.Context())
//	            if err != nil {
//	                return err
//	            }
//	            // ... run a comparison
//	            return nil
//	        },
//	    }
//	}
package application

import (
	"context"

	"github.com/rs/zerolog"

	boqtools "github.com/TrendsetAM/BOQ-TOOLS"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/sheets"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/snapshot"
)

// Application provides the application interface that commands need.
// The App struct from cmd/boqtools/app implements this interface.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Workspace returns a new workspace wired to the configured snapshot
	// store and comparison settings. Extra options are applied last.
	Workspace(ctx context.Context, opts ...boqtools.Option) (boqtools.Workspace, error)

	// Store returns the configured snapshot store, opening it on first use.
	Store(ctx context.Context) (snapshot.Store, error)

	// Reader returns a sheet reader using the configured header aliases.
	Reader() (*sheets.Reader, error)

	// Logger returns the configured logger instance.
	// Commands should use this for all logging operations.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
