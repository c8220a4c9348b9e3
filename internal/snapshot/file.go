package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/constants"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/logging"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/save"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps one file per snapshot in a directory. New snapshots are
// written in the store's format; existing snapshots are read in whichever
// format they were saved.
type FileStore struct {
	dir    string
	format save.Format
	now    func() time.Time
}

// NewFileStore creates a store rooted at dir. Only the format of the save
// options is used; the path is derived from the snapshot name.
func NewFileStore(dir string, opts ...save.Option) (*FileStore, error) {
	if dir == "" {
		return nil, errors.NewValidationError("dir", dir, "snapshot directory is required")
	}
	options := save.Defaults().Apply(opts...)
	if !options.Format().IsValid() {
		return nil, errors.NewValidationError("format", options.Format().String(), "unsupported snapshot format")
	}
	return &FileStore{dir: expandHome(dir), format: options.Format(), now: time.Now}, nil
}

// Dir returns the directory holding the snapshots.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes master to <dir>/<name>.<ext> through a temporary file, and
// removes a copy of the same name saved in the other format.
func (s *FileStore) Save(ctx context.Context, name string, master *boq.MasterDataset) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := check(master); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", s.dir, err)
	}

	data, err := encodeBytes(s.format, master, s.now())
	if err != nil {
		return errors.WrapResource("save", "snapshot", name, err)
	}

	path := s.path(name, s.format)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.WrapIO("write", path, err)
	}
	for _, f := range formats {
		if f != s.format {
			_ = os.Remove(s.path(name, f))
		}
	}

	logging.FromContext(ctx).Debug().Str("snapshot", name).Str("path", path).Int("rows", master.Len()).Msg("Snapshot saved")
	return nil
}

// Load reads the snapshot saved under name.
func (s *FileStore) Load(ctx context.Context, name string) (*boq.MasterDataset, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	doc, _, err := s.read(name)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug().Str("snapshot", name).Int("rows", doc.Master.Len()).Msg("Snapshot loaded")
	return doc.Master, nil
}

// List returns the snapshots in the directory. Files that are not readable
// snapshots are skipped.
func (s *FileStore) List(ctx context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapIO("read", s.dir, err)
	}

	var infos []Info
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, f, ok := s.parse(e.Name())
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, errors.WrapIO("read", e.Name(), err)
		}
		doc, err := Decode(data, f)
		if err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("file", e.Name()).Msg("Skipping unreadable snapshot")
			continue
		}
		infos = append(infos, info(name, f, doc))
	}
	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(a.Name, b.Name) })
	return infos, nil
}

// Delete removes the snapshot saved under name.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	removed := false
	for _, f := range formats {
		err := os.Remove(s.path(name, f))
		if err == nil {
			removed = true
			continue
		}
		if !os.IsNotExist(err) {
			return errors.WrapIO("delete", s.path(name, f), err)
		}
	}
	if !removed {
		return errors.NewNotFoundError("snapshot", name)
	}
	logging.FromContext(ctx).Debug().Str("snapshot", name).Msg("Snapshot deleted")
	return nil
}

var formats = []save.Format{save.FormatJSON, save.FormatYAML}

func (s *FileStore) read(name string) (*Document, save.Format, error) {
	for _, f := range formats {
		path := s.path(name, f)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, f, errors.WrapIO("read", path, err)
		}
		doc, err := Decode(data, f)
		if err != nil {
			return nil, f, errors.WrapResource("load", "snapshot", name, err)
		}
		return doc, f, nil
	}
	return nil, s.format, errors.NewNotFoundError("snapshot", name)
}

func (s *FileStore) path(name string, f save.Format) string {
	return filepath.Join(s.dir, name+f.Extension())
}

// parse splits a file name into a snapshot name and format.
func (s *FileStore) parse(file string) (string, save.Format, bool) {
	ext := filepath.Ext(file)
	f, err := save.ParseFormat(strings.TrimPrefix(ext, "."))
	if err != nil || ext != f.Extension() {
		return "", f, false
	}
	name := strings.TrimSuffix(file, ext)
	return name, f, ValidateName(name) == nil
}

func expandHome(dir string) string {
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	return dir
}
