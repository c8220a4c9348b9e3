// Package application provides test doubles for the command application interface.
package application

import (
	"context"

	"github.com/rs/zerolog"

	boqtools "github.com/TrendsetAM/BOQ-TOOLS"
	"github.com/TrendsetAM/BOQ-TOOLS/cmd/application"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/sheets"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/snapshot"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
)

// Compile-time interface check.
var _ application.Application = (*Mock)(nil)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a working default: a
// workspace on StoreValue, the default sheet reader and a no-op logger.
//
// Example Usage:
//
//	store, _ := snapshot.NewFileStore(t.TempDir())
//	mock := &application.Mock{StoreValue: store, Format: "json"}
//	cmd := compare.NewCommand(mock)
//	// ... test command
type Mock struct {
	WorkspaceFunc func(ctx context.Context, opts ...boqtools.Option) (boqtools.Workspace, error)
	ReaderFunc    func() (*sheets.Reader, error)
	LoggerFunc    func() *zerolog.Logger

	StoreValue snapshot.Store
	Format     string
	VersionStr string
}

// Workspace returns a workspace using the mock function or one backed by StoreValue.
func (m *Mock) Workspace(ctx context.Context, opts ...boqtools.Option) (boqtools.Workspace, error) {
	if m.WorkspaceFunc != nil {
		return m.WorkspaceFunc(ctx, opts...)
	}
	if m.StoreValue != nil {
		opts = append([]boqtools.Option{boqtools.WithStore(m.StoreValue)}, opts...)
	}
	return boqtools.New(opts...)
}

// Store returns StoreValue, or a ConfigError when it is unset.
func (m *Mock) Store(context.Context) (snapshot.Store, error) {
	if m.StoreValue == nil {
		return nil, errors.NewConfigError("mock", "no snapshot store", nil)
	}
	return m.StoreValue, nil
}

// Reader returns a reader using the mock function or the default reader.
func (m *Mock) Reader() (*sheets.Reader, error) {
	if m.ReaderFunc != nil {
		return m.ReaderFunc()
	}
	return sheets.NewReader(), nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns Format.
func (m *Mock) OutputFormat() string {
	return m.Format
}

// Version returns VersionStr or "dev".
func (m *Mock) Version() string {
	if m.VersionStr != "" {
		return m.VersionStr
	}
	return "dev"
}

// Commit returns a fixed commit.
func (m *Mock) Commit() string {
	return "test"
}

// Date returns a fixed build date.
func (m *Mock) Date() string {
	return "2026-10-14"
}

// BuiltBy returns a fixed builder.
func (m *Mock) BuiltBy() string {
	return "test"
}
