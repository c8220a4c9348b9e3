package validate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/application"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/comparison"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
)

func writeFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))
	return path
}

func offer(t *testing.T, dir string) string {
	return writeFile(t, dir, "offer.csv",
		"Description,Quantity,Unit Price,Total Price",
		"Concrete,12,5,60",
		"Fencing,100,2,200",
		"Subtotal,,,260",
		"Steel,two,900,1800",
	)
}

func TestRunWithoutMaster(t *testing.T) {
	dir := t.TempDir()
	report, err := Run(context.Background(), &application.Mock{}, offer(t, dir), "")
	require.NoError(t, err)

	assert.Equal(t, 4, report.Report.Total)
	assert.Equal(t, 2, report.Report.Valid)
	assert.Equal(t, 2, report.Report.Unknown, "every valid row is unknown to an empty master")
	require.Len(t, report.Rows, 4)
	assert.Equal(t, comparison.ReasonSubtotal, report.Rows[2].Reason)
	assert.False(t, report.Rows[3].IsValid)
}

func TestRunWithMaster(t *testing.T) {
	dir := t.TempDir()
	master := writeFile(t, dir, "master.csv",
		"description,quantity,unit_price",
		"Concrete,10,5",
	)

	report, err := Run(context.Background(), &application.Mock{}, offer(t, dir), master)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Report.Unknown)
}

func TestRunMissingFile(t *testing.T) {
	_, err := Run(context.Background(), &application.Mock{}, filepath.Join(t.TempDir(), "none.csv"), "")
	require.Error(t, err)
	assert.False(t, errors.IsValidationError(err))
}

func TestPrintInvalidOnly(t *testing.T) {
	dir := t.TempDir()
	mock := &application.Mock{Format: "yaml"}
	report, err := Run(context.Background(), mock, offer(t, dir), "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Print(mock, &buf, report, true))
	var decoded Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Rows, 2)
	assert.Equal(t, 4, decoded.Rows[0].Ref)
	assert.Equal(t, 2, decoded.Report.Invalid)

	buf.Reset()
	mock.Format = "table"
	require.NoError(t, Print(mock, &buf, report, false))
	assert.Contains(t, buf.String(), "Fencing")
	assert.Contains(t, buf.String(), "subtotal row")
}
