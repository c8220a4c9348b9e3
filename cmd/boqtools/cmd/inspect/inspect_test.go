package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/application"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/snapshot"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
)

func newMock(t *testing.T, format string) *application.Mock {
	t.Helper()
	store, err := snapshot.NewFileStore(t.TempDir())
	require.NoError(t, err)

	master, err := boq.NewMasterDataset(
		boq.Columns{boq.FieldDescription, boq.FieldQuantity},
		[]*boq.MasterRow{
			{Description: "Concrete", Base: boq.OfferValues{Quantity: boq.Float(10)}, Offers: map[string]boq.OfferValues{"BidderX": {Quantity: boq.Float(12)}}},
			{Description: "Steel", Base: boq.OfferValues{Quantity: boq.Float(2)}},
		},
		boq.OfferInfo{Name: "BidderX"},
	)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), "tender", master))

	return &application.Mock{StoreValue: store, Format: format}
}

func TestList(t *testing.T) {
	mock := newMock(t, "json")

	var buf bytes.Buffer
	require.NoError(t, List(context.Background(), mock, &buf))
	var infos []snapshot.Info
	require.NoError(t, json.Unmarshal(buf.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "tender", infos[0].Name)
	assert.Equal(t, 2, infos[0].Rows)
	assert.Equal(t, []string{"BidderX"}, infos[0].Offers)
}

func TestShow(t *testing.T) {
	mock := newMock(t, "table")

	var buf bytes.Buffer
	require.NoError(t, Show(context.Background(), mock, "tender", &buf))
	assert.Contains(t, buf.String(), "Steel")
	assert.NotContains(t, strings.ToUpper(buf.String()), "BIDDERX", "the narrow table has base columns only")

	buf.Reset()
	mock.Format = "wide"
	require.NoError(t, Show(context.Background(), mock, "tender", &buf))
	assert.Contains(t, strings.ToUpper(buf.String()), "BIDDERX")

	assert.True(t, errors.IsNotFound(Show(context.Background(), mock, "missing", &buf)))
}

func TestRemove(t *testing.T) {
	mock := newMock(t, "json")
	ctx := context.Background()

	require.NoError(t, Remove(ctx, mock, "tender"))
	infos, err := mock.StoreValue.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)

	assert.True(t, errors.IsNotFound(Remove(ctx, mock, "tender")))
}

func TestCommandsNeedStore(t *testing.T) {
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, List(context.Background(), &application.Mock{}, &bytes.Buffer{}), &cfgErr)
}

func TestNewCommand(t *testing.T) {
	cmd := NewCommand(&application.Mock{})
	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"ls", "show", "rm"}, names)
}
