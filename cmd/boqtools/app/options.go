package app

import (
	"github.com/rs/zerolog"

	"github.com/TrendsetAM/BOQ-TOOLS/internal/snapshot"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
)

// Option is a function that configures an App.
type Option func(*App) error

// WithConfig replaces the loaded configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return errors.NewValidationError("config", nil, "config cannot be nil")
		}
		if err := config.Validate(); err != nil {
			return err
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStore sets the snapshot store instead of opening the configured one.
func WithStore(store snapshot.Store) Option {
	return func(a *App) error {
		a.store = store
		return nil
	}
}
