package snapshot

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/logging"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/save"
)

var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	name      TEXT PRIMARY KEY,
	format    TEXT NOT NULL,
	data      BLOB NOT NULL,
	row_count INTEGER NOT NULL,
	saved_at  TEXT NOT NULL
)`

// SQLiteStore keeps snapshots as documents in a single SQLite table, one row
// per snapshot name.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	format save.Format
	now    func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path. Use ":memory:"
// for a throwaway store.
func OpenSQLite(ctx context.Context, path string, opts ...save.Option) (*SQLiteStore, error) {
	options := save.Defaults().Apply(opts...)
	if !options.Format().IsValid() {
		return nil, errors.NewValidationError("format", options.Format().String(), "unsupported snapshot format")
	}

	db, err := sql.Open("sqlite", expandHome(path))
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("create", "snapshot table", path, err)
	}
	return &SQLiteStore{db: db, path: path, format: options.Format(), now: time.Now}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save upserts the snapshot row for name.
func (s *SQLiteStore) Save(ctx context.Context, name string, master *boq.MasterDataset) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := check(master); err != nil {
		return err
	}

	savedAt := s.now().UTC()
	data, err := encodeBytes(s.format, master, savedAt)
	if err != nil {
		return errors.WrapResource("save", "snapshot", name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (name, format, data, row_count, saved_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			format = excluded.format,
			data = excluded.data,
			row_count = excluded.row_count,
			saved_at = excluded.saved_at`,
		name, s.format.String(), data, master.Len(), savedAt.Format(time.RFC3339Nano))
	if err != nil {
		return errors.WrapResource("save", "snapshot", name, err)
	}

	logging.FromContext(ctx).Debug().Str("snapshot", name).Str("db", s.path).Int("rows", master.Len()).Msg("Snapshot saved")
	return nil
}

// Load reads and checks the snapshot saved under name.
func (s *SQLiteStore) Load(ctx context.Context, name string) (*boq.MasterDataset, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	var format string
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT format, data FROM snapshots WHERE name = ?`, name).Scan(&format, &data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("snapshot", name)
	}
	if err != nil {
		return nil, errors.WrapResource("load", "snapshot", name, err)
	}

	doc, err := decodeRow(format, data)
	if err != nil {
		return nil, errors.WrapResource("load", "snapshot", name, err)
	}
	logging.FromContext(ctx).Debug().Str("snapshot", name).Int("rows", doc.Master.Len()).Msg("Snapshot loaded")
	return doc.Master, nil
}

// List returns every stored snapshot ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, format, data FROM snapshots ORDER BY name`)
	if err != nil {
		return nil, errors.WrapResource("list", "snapshot", "", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var name, format string
		var data []byte
		if err := rows.Scan(&name, &format, &data); err != nil {
			return nil, errors.WrapResource("list", "snapshot", "", err)
		}
		doc, err := decodeRow(format, data)
		if err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("snapshot", name).Msg("Skipping unreadable snapshot")
			continue
		}
		f, _ := save.ParseFormat(format)
		infos = append(infos, info(name, f, doc))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("list", "snapshot", "", err)
	}
	return infos, nil
}

// Delete removes the snapshot row for name.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return errors.WrapResource("delete", "snapshot", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError("snapshot", name)
	}
	return nil
}

func decodeRow(format string, data []byte) (*Document, error) {
	f, err := save.ParseFormat(format)
	if err != nil {
		return nil, errors.NewParseError(format, "", "unknown snapshot format", err)
	}
	return Decode(data, f)
}
