package sheets

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	path := filepath.Join(t.TempDir(), "bill.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestMapperAliases(t *testing.T) {
	m := NewMapper(DefaultAliases)
	tests := map[string]boq.Field{
		"Description":   boq.FieldDescription,
		"  QTY: ":       boq.FieldQuantity,
		"Qty.":          boq.FieldQuantity,
		"Rate":          boq.FieldUnitPrice,
		"Amount":        boq.FieldTotalPrice,
		"UoM":           boq.FieldUnit,
		"Ore":           boq.FieldManhours,
		"Euro/Hour":     boq.FieldWage,
		"Item   Code":   boq.FieldCode,
		"Category":      boq.FieldCategory,
		"unit_price":    boq.FieldUnitPrice,
		"Total  Price:": boq.FieldTotalPrice,
	}
	for header, want := range tests {
		got, ok := m.Field(header)
		assert.True(t, ok, header)
		assert.Equal(t, want, got, header)
	}
	_, ok := m.Field("Remarks")
	assert.False(t, ok)
}

func TestMapperMap(t *testing.T) {
	m := NewMapper(DefaultAliases)
	mp := m.Map([]string{"Pos", "Description", "Qty", "Rate", "Price", "quantity[BidderX]", "unit_price[BidderX]", "total_price[Bidder Y]", "Notes"})

	assert.Equal(t, 0, mp.Position)
	assert.Equal(t, map[int]boq.Field{1: boq.FieldDescription, 2: boq.FieldQuantity, 3: boq.FieldUnitPrice}, mp.Fields, "a later duplicate of a field is ignored")
	assert.Equal(t, boq.Columns{boq.FieldDescription, boq.FieldQuantity, boq.FieldUnitPrice}, mp.Columns)
	assert.Equal(t, []string{"BidderX", "Bidder Y"}, mp.Names)
	assert.Equal(t, OfferCell{Field: boq.FieldTotalPrice, Offer: "Bidder Y"}, mp.Offers[7])
}

func TestAliasesMerge(t *testing.T) {
	a, err := DefaultAliases.Merge(map[string][]string{"quantity": {"Menge"}, "Unit_Price": {"Preis"}})
	require.NoError(t, err)

	m := NewMapper(a)
	f, ok := m.Field("menge")
	assert.True(t, ok)
	assert.Equal(t, boq.FieldQuantity, f)
	f, _ = m.Field("PREIS")
	assert.Equal(t, boq.FieldUnitPrice, f)
	assert.NotContains(t, DefaultAliases[boq.FieldQuantity], "Menge", "defaults are not modified")

	_, err = DefaultAliases.Merge(map[string][]string{"colour": {"x"}})
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestReadComparisonCSV(t *testing.T) {
	path := writeFile(t, "offer.csv", strings.Join([]string{
		"Tender for works,,,",
		"",
		"Description;Qty;Rate;Amount",
		"Concrete;12;5;60",
		";;;",
		"Steel;1,5;900;1.350,00",
	}, "\n"))

	ds, err := NewReader().ReadComparison(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, boq.Columns{boq.FieldDescription, boq.FieldQuantity, boq.FieldUnitPrice, boq.FieldTotalPrice}, ds.Columns)
	require.Len(t, ds.Rows, 3)

	assert.Equal(t, 4, ds.Rows[0].Ref, "refs are spreadsheet row numbers")
	assert.Equal(t, "Concrete", ds.Rows[0].Description)
	assert.Equal(t, "60", ds.Rows[0].TotalPrice)
	assert.True(t, ds.Rows[1].IsEmpty())
	assert.Equal(t, "1,5", ds.Rows[2].Quantity, "cells stay raw until validation")
	assert.Equal(t, 6, ds.Rows[2].Ref)
}

func TestReadComparisonWorkbook(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Item", "Description", "UoM", "Quantity", "Unit Price", "Total Price", "Man Hours", "Wage"},
		{"C-1", "Concrete", "m3", 12, 5.5, 66, 3, 25},
		{"", "Subtotal", "", "", "", 66},
	})

	ds, err := NewReader().ReadComparison(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)
	r := ds.Rows[0]
	assert.Equal(t, "Concrete", r.Description, "the canonical header beats a weaker alias to its left")
	assert.Equal(t, "5.5", r.UnitPrice)
	assert.Equal(t, "3", r.Manhours)
	assert.Equal(t, "25", r.Wage)
	assert.Equal(t, "m3", r.Unit)
}

func TestReadWorkbookThousandsFormat(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for cell, v := range map[string]any{
		"A1": "Description", "B1": "Quantity", "C1": "Unit Price", "D1": "Total Price",
		"A2": "Concrete", "B2": 1500, "C2": 12.5, "D2": 18750,
	} {
		require.NoError(t, f.SetCellValue("Sheet1", cell, v))
	}
	style, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "B2", "D2", style))
	path := filepath.Join(t.TempDir(), "styled.xlsx")
	require.NoError(t, f.SaveAs(path))

	ctx := context.Background()
	ds, err := NewReader().ReadComparison(ctx, path)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, "1500", ds.Rows[0].Quantity)
	assert.Equal(t, "12.5", ds.Rows[0].UnitPrice, "decimals are not rounded by the display format")

	master, err := NewReader().ReadMaster(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 1, master.Len())
	assert.Equal(t, 1500.0, *master.Rows[0].Base.Quantity)
	assert.Equal(t, 18750.0, *master.Rows[0].Base.TotalPrice)
}

func TestReadMasterCSVThousands(t *testing.T) {
	path := writeFile(t, "master.csv", "Description;Qty;Rate;Amount\nSteel;1,500;2;3,000\n")

	master, err := NewReader().ReadMaster(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, *master.Rows[0].Base.Quantity)
	assert.Equal(t, 3000.0, *master.Rows[0].Base.TotalPrice)
}

func TestReadMasterCSV(t *testing.T) {
	path := writeFile(t, "master.csv", strings.Join([]string{
		"position,code,description,unit,category,quantity,unit_price,total_price,manhours,wage,quantity[BidderX],unit_price[BidderX],total_price[BidderX],manhours[BidderX],wage[BidderX]",
		"1,C-1,Concrete,m3,Civil,10,5,50,,,12,5,60,,",
		",,,,,,,,,,,,,,",
		"3,,Excavation,m3,,20,€ 2,,,,,,,,",
		"4,,Excavation,m3,,30,2,,,,,,,,",
	}, "\n"))

	ds, err := NewReader().ReadMaster(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, []string{"BidderX"}, ds.OfferNames())

	concrete := ds.Rows[0]
	assert.Equal(t, 1, concrete.Position)
	assert.Equal(t, "Civil", concrete.Category)
	assert.Equal(t, 10.0, *concrete.Base.Quantity)
	assert.Nil(t, concrete.Base.Manhours)
	offer, ok := concrete.Offer("BidderX")
	require.True(t, ok)
	assert.Equal(t, 60.0, *offer.TotalPrice)
	assert.Nil(t, offer.Wage)

	assert.Equal(t, 3, ds.Rows[1].Position)
	assert.Equal(t, 2.0, *ds.Rows[1].Base.UnitPrice)
	assert.Equal(t, 1, ds.Rows[2].InstanceIndex)
	_, ok = ds.Rows[1].Offer("BidderX")
	assert.False(t, ok, "rows without offer cells carry no offer record")
}

func TestReadMasterErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewReader().ReadMaster(ctx, writeFile(t, "bad.csv", "description,quantity\nConcrete,ten\n"))
	var parseErr *errors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line)

	_, err = NewReader().ReadMaster(ctx, writeFile(t, "order.csv", "position,description,quantity\n2,A,1\n1,B,1\n"))
	assert.True(t, errors.IsSchemaError(err))

	_, err = NewReader().ReadMaster(ctx, writeFile(t, "noheader.csv", "foo,bar\n1,2\n"))
	assert.True(t, errors.IsSchemaError(err))

	_, err = NewReader().ReadMaster(ctx, writeFile(t, "bill.ods", ""))
	assert.True(t, errors.IsValidationError(err))

	_, err = NewReader(WithSheet("Missing")).ReadMaster(ctx, writeWorkbook(t, [][]any{{"Description", "Qty"}}))
	assert.True(t, errors.IsNotFound(err))
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	master, err := boq.NewMasterDataset(
		boq.Columns{boq.FieldDescription, boq.FieldUnit, boq.FieldQuantity, boq.FieldUnitPrice},
		[]*boq.MasterRow{
			{Description: "Concrete", Unit: "m3", Base: boq.OfferValues{Quantity: boq.Float(10), UnitPrice: boq.Float(5)},
				Offers: map[string]boq.OfferValues{"BidderX": {Quantity: boq.Float(12), UnitPrice: boq.Float(5), TotalPrice: boq.Float(60)}}},
			{Description: "Fencing", Base: boq.OfferValues{Quantity: boq.Float(100), UnitPrice: boq.Float(2.25)},
				Offers: map[string]boq.OfferValues{"BidderY": {Quantity: boq.Float(100)}}},
		},
		boq.OfferInfo{Name: "BidderX"}, boq.OfferInfo{Name: "BidderY"},
	)
	require.NoError(t, err)

	for _, ext := range []string{".xlsx", ".csv"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", "master"+ext)
			require.NoError(t, Export(ctx, master, path))

			got, err := NewReader().ReadMaster(ctx, path)
			require.NoError(t, err)
			require.Equal(t, 2, got.Len())
			assert.Equal(t, []string{"BidderX", "BidderY"}, got.OfferNames())
			assert.True(t, got.Rows[0].Base.Equal(master.Rows[0].Base))
			assert.True(t, got.Rows[1].Base.Equal(master.Rows[1].Base))

			x, ok := got.Rows[0].Offer("BidderX")
			require.True(t, ok)
			assert.True(t, x.Equal(master.Rows[0].Offers["BidderX"]))
			_, ok = got.Rows[0].Offer("BidderY")
			assert.False(t, ok, "absent offer columns are empty cells")
		})
	}
}

func TestWriteCSVHeaders(t *testing.T) {
	master, err := boq.NewMasterDataset(
		boq.Columns{boq.FieldDescription, boq.FieldQuantity},
		[]*boq.MasterRow{{Description: "Gate", Base: boq.OfferValues{Quantity: boq.Float(1)}}},
		boq.OfferInfo{Name: "BidderX"},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, master))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "quantity[BidderX],unit_price[BidderX],total_price[BidderX],manhours[BidderX],wage[BidderX]"))
	assert.Equal(t, "1,,Gate,,,1,,,,,,,,,", lines[1])
}

func TestExportRejectsUnknownType(t *testing.T) {
	master, err := boq.NewMasterDataset(boq.Columns{boq.FieldDescription, boq.FieldQuantity}, nil)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "master.pdf")
	assert.True(t, errors.IsValidationError(Export(context.Background(), master, path)))
	assert.NoFileExists(t, path)
}
