package boqtools

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/TrendsetAM/BOQ-TOOLS/internal/snapshot"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/constants"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/logging"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/save"
)

// Compile-time interface check to ensure proper implementation.
var _ Persistence = (*workspace)(nil)

// Persistence handles master persistence operations.
type Persistence interface {
	// Save stores the committed master in the configured store under name
	Save(ctx context.Context, name string) error

	// Load replaces the master with the snapshot saved under name
	Load(ctx context.Context, name string) error

	// Export writes the master as a snapshot document to a writer or path
	Export(opts ...save.Option) error
}

// Save stores the committed master under name. A running session does not
// block saving: its uncommitted work is not part of the master.
func (w *workspace) Save(ctx context.Context, name string) error {
	store, err := w.store()
	if err != nil {
		return err
	}
	master := w.Master()
	if master == nil {
		return errors.NewValidationError("master", nil, "no master loaded")
	}
	if err := store.Save(ctx, name, master); err != nil {
		return errors.WrapResource("save", "snapshot", name, err)
	}
	return nil
}

// Load replaces the master with a stored snapshot. It is refused while a
// session owns the master.
func (w *workspace) Load(ctx context.Context, name string) error {
	store, err := w.store()
	if err != nil {
		return err
	}
	master, err := store.Load(ctx, name)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active != nil {
		return errors.WrapResource("load", "snapshot", name, errors.ErrSessionActive)
	}
	w.master = master

	logging.FromContext(ctx).Info().Str("snapshot", name).Int("rows", master.Len()).Strs("offers", master.OfferNames()).Msg("Snapshot loaded")
	return nil
}

// Export writes the committed master as a snapshot document. The writer
// option wins over the path option; with neither, the document goes to
// stdout.
func (w *workspace) Export(opts ...save.Option) error {
	options := save.Defaults().Apply(opts...)
	master := w.Master()
	if master == nil {
		return errors.NewValidationError("master", nil, "no master loaded")
	}

	out := options.Writer()
	if out == nil && options.Path() != "" {
		path := options.Path()
		if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
			return errors.WrapIO("create", filepath.Dir(path), err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
		if err != nil {
			return errors.WrapIO("create", path, err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	if out == nil {
		out = os.Stdout
	}

	if err := snapshot.Encode(out, options.Format(), master, time.Now()); err != nil {
		return errors.WrapResource("export", "master", options.Path(), err)
	}
	return nil
}

func (w *workspace) store() (snapshot.Store, error) {
	if w.config.store == nil {
		return nil, &errors.ConfigError{
			Component: "workspace",
			Message:   "no snapshot store configured",
		}
	}
	return w.config.store, nil
}
