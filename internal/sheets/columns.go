package sheets

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
)

// PositionColumn is the header of the master's position column.
const PositionColumn = "position"

// Aliases maps each semantic field to the headers it may appear under.
// Matching ignores case, surrounding space and a trailing colon.
type Aliases map[boq.Field][]string

// DefaultAliases are the header spellings recognized out of the box.
var DefaultAliases = Aliases{
	boq.FieldDescription: {"description", "desc", "item", "work", "activity", "task", "scope", "particulars", "work description", "descrizione"},
	boq.FieldCode:        {"code", "item code", "ref", "reference", "item no", "item number", "boq code", "codice"},
	boq.FieldUnit:        {"unit", "units", "uom", "unit of measure", "measurement", "u.m.", "um"},
	boq.FieldCategory:    {"category", "class", "classification", "section", "group", "categoria"},
	boq.FieldQuantity:    {"quantity", "qty", "qty.", "no", "nos", "number", "count", "quantità"},
	boq.FieldUnitPrice:   {"unit_price", "unit price", "rate", "price", "unit rate", "price per unit", "unit cost", "prezzo unitario"},
	boq.FieldTotalPrice:  {"total_price", "total price", "total", "amount", "total amount", "total cost", "value", "importo"},
	boq.FieldManhours:    {"manhours", "man hours", "man-hours", "ore", "ore/u.m."},
	boq.FieldWage:        {"wage", "hourly rate", "euro/hour", "€/h", "rate per hour"},
}

var positionAliases = []string{PositionColumn, "pos", "pos.", "#", "n."}

// Merge returns a copy of a with the spellings of other prepended, so
// configured aliases win over the defaults. Unknown fields are a ConfigError.
func (a Aliases) Merge(other map[string][]string) (Aliases, error) {
	out := make(Aliases, len(a))
	for f, names := range a {
		out[f] = slices.Clone(names)
	}
	for name, headers := range other {
		f, ok := boq.ParseField(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return nil, errors.NewConfigError("columns", "unknown field "+name, nil)
		}
		out[f] = append(slices.Clone(headers), out[f]...)
	}
	return out, nil
}

// Mapping is the resolved layout of a header row.
type Mapping struct {
	Fields   map[int]boq.Field // column index to semantic field
	Position int               // index of the position column, -1 when absent
	Offers   map[int]OfferCell // master offer columns such as "quantity[BidderX]"
	Columns  boq.Columns       // fields present, in canonical order
	Names    []string          // offers found in offer columns, in column order
}

// OfferCell is one namespaced offer column.
type OfferCell struct {
	Field boq.Field
	Offer string
}

// Mapper resolves header rows to semantic fields. A Mapper is not safe for
// concurrent use.
type Mapper struct {
	lookup map[string]alias
	fold   cases.Caser
}

// alias is a known spelling; rank is its index in the field's alias list.
type alias struct {
	field boq.Field
	rank  int
}

// NewMapper builds a mapper from aliases. When two fields claim the same
// spelling the one listed first in boq.AllFields keeps it.
func NewMapper(aliases Aliases) *Mapper {
	m := &Mapper{lookup: make(map[string]alias), fold: cases.Fold()}
	for _, f := range boq.AllFields {
		for rank, h := range aliases[f] {
			key := m.normalize(h)
			if _, taken := m.lookup[key]; !taken && key != "" {
				m.lookup[key] = alias{field: f, rank: rank}
			}
		}
	}
	return m
}

// Field returns the field a header names, if any.
func (m *Mapper) Field(header string) (boq.Field, bool) {
	a, ok := m.lookup[m.normalize(header)]
	return a.field, ok
}

// Map resolves a header row. When several columns name the same field the
// one using the better ranked alias wins, then the leftmost; the others and
// unknown headers are ignored.
func (m *Mapper) Map(headers []string) Mapping {
	mp := Mapping{
		Fields:   make(map[int]boq.Field),
		Position: -1,
		Offers:   make(map[int]OfferCell),
	}
	type claim struct{ col, rank int }
	best := make(map[boq.Field]claim)
	names := make(map[string]bool)

	for i, h := range headers {
		if f, offer, ok := boq.ParseOfferColumn(strings.TrimSpace(h)); ok {
			mp.Offers[i] = OfferCell{Field: f, Offer: offer}
			if !names[offer] {
				names[offer] = true
				mp.Names = append(mp.Names, offer)
			}
			continue
		}
		if mp.Position < 0 && slices.Contains(positionAliases, m.normalize(h)) {
			mp.Position = i
			continue
		}
		a, ok := m.lookup[m.normalize(h)]
		if !ok {
			continue
		}
		if c, taken := best[a.field]; !taken || a.rank < c.rank {
			best[a.field] = claim{col: i, rank: a.rank}
		}
	}

	for _, f := range boq.AllFields {
		if c, ok := best[f]; ok {
			mp.Fields[c.col] = f
			mp.Columns = append(mp.Columns, f)
		}
	}
	return mp
}

// score rates how much a row looks like a header.
func (m *Mapper) score(row []string) int {
	mp := m.Map(row)
	if !mp.Columns.Has(boq.FieldDescription) || !mp.Columns.HasAny(boq.ValueFields...) {
		return 0
	}
	return len(mp.Fields)
}

func (m *Mapper) normalize(h string) string {
	h = strings.Join(strings.Fields(m.fold.String(h)), " ")
	return strings.TrimSuffix(h, ":")
}
