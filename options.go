package boqtools

import (
	"github.com/TrendsetAM/BOQ-TOOLS/internal/snapshot"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/comparison"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
)

// config holds the workspace configuration.
type config struct {
	master      *boq.MasterDataset
	store       snapshot.Store
	sessionOpts []comparison.Option
}

func defaultConfig() *config {
	return &config{}
}

// Option is a function that configures a Workspace instance
type Option func(*config) error

// options applies the given options to the workspace.
func (w *workspace) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(w.config); err != nil {
			return err
		}
	}
	return nil
}

// WithMaster configures the initial master. The workspace keeps its own copy.
func WithMaster(master *boq.MasterDataset) Option {
	return func(c *config) error {
		if master == nil {
			return errors.NewValidationError("master", nil, "cannot be nil")
		}
		c.master = master
		return nil
	}
}

// WithStore configures where Save and Load keep named snapshots.
func WithStore(store snapshot.Store) Option {
	return func(c *config) error {
		c.store = store
		return nil
	}
}

// WithSessionOptions configures every session the workspace begins.
func WithSessionOptions(opts ...comparison.Option) Option {
	return func(c *config) error {
		c.sessionOpts = append(c.sessionOpts, opts...)
		return nil
	}
}
