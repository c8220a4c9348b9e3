package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/application"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/sheets"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/snapshot"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/save"
)

func masterFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "master.csv")
	require.NoError(t, os.WriteFile(path, []byte("description,quantity,unit_price\nConcrete,10,5\nSteel,2,900\n"), 0o644))
	return path
}

func TestExecuteFormats(t *testing.T) {
	dir := t.TempDir()
	source := masterFile(t, dir)
	ctx := context.Background()
	mock := &application.Mock{}

	for _, name := range []string{"out.xlsx", "out.csv"} {
		path, err := Execute(ctx, mock, source, filepath.Join(dir, name))
		require.NoError(t, err, name)
		master, err := sheets.NewReader().ReadMaster(ctx, path)
		require.NoError(t, err, name)
		assert.Equal(t, 2, master.Len(), name)
	}

	path, err := Execute(ctx, mock, source, filepath.Join(dir, "doc", "out.yaml"))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc, err := snapshot.Decode(data, save.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "Steel", doc.Master.Rows[1].Description)

	_, err = Execute(ctx, mock, source, filepath.Join(dir, "out.txt"))
	assert.True(t, errors.IsValidationError(err))
}

func TestExecuteSnapshot(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := snapshot.NewFileStore(filepath.Join(dir, "snapshots"))
	require.NoError(t, err)
	master, err := sheets.NewReader().ReadMaster(ctx, masterFile(t, dir))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "tender", master))

	path, err := Execute(ctx, &application.Mock{StoreValue: store}, "tender", filepath.Join(dir, "tender.json"))
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = Execute(ctx, &application.Mock{StoreValue: store}, "missing", filepath.Join(dir, "x.json"))
	assert.True(t, errors.IsNotFound(err))
}

func TestDefaultPath(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "tender-20261014-093000.xlsx", DefaultPath("tender", now))
	assert.Equal(t, "master-20261014-093000.xlsx", DefaultPath("/data/master.csv", now))
}
