package boq

import (
	"fmt"
	"maps"
	"slices"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
)

// MasterRow is one line item of the master bill.
type MasterRow struct {
	Position      int                    `json:"position" yaml:"position"`                     // Sequence order, unique within the master
	Key           string                 `json:"key" yaml:"key"`                               // Normalized description used for matching
	Description   string                 `json:"description" yaml:"description"`               // Description as read from the master
	Code          string                 `json:"code,omitempty" yaml:"code,omitempty"`         // Item code
	Unit          string                 `json:"unit,omitempty" yaml:"unit,omitempty"`         // Unit of measure
	Category      string                 `json:"category,omitempty" yaml:"category,omitempty"` // Assigned outside the engine
	InstanceIndex int                    `json:"instance_index" yaml:"instance_index"`         // 0-based occurrence of Key within the master
	Base          OfferValues            `json:"base" yaml:"base"`                             // Master's own values, write-once
	Offers        map[string]OfferValues `json:"offers,omitempty" yaml:"offers,omitempty"`     // Offer name to value record
}

// Offer returns the value record of the named offer.
func (r *MasterRow) Offer(name string) (OfferValues, bool) {
	v, ok := r.Offers[name]
	return v, ok
}

// Clone returns a deep copy of the row.
func (r *MasterRow) Clone() *MasterRow {
	out := *r
	out.Base = r.Base.Clone()
	out.Offers = nil
	if r.Offers != nil {
		out.Offers = make(map[string]OfferValues, len(r.Offers))
		for name, v := range r.Offers {
			out.Offers[name] = v.Clone()
		}
	}
	return &out
}

// RowRef returns a reference to the row for matching bookkeeping.
func (r *MasterRow) RowRef() *MasterRef {
	return &MasterRef{Key: r.Key, InstanceIndex: r.InstanceIndex, Position: r.Position}
}

// MasterDataset is the baseline bill being enriched with offers.
type MasterDataset struct {
	Columns Columns      `json:"columns" yaml:"columns"`
	Rows    []*MasterRow `json:"rows" yaml:"rows"`
	Offers  []OfferInfo  `json:"offers,omitempty" yaml:"offers,omitempty"` // Committed offers in commit order
}

// MasterRequiredFields must be present in every master.
var MasterRequiredFields = []Field{FieldDescription}

// NewMasterDataset builds a master from rows in reading order. Empty keys are
// derived from the description, instance indexes are assigned by occurrence
// and zero positions continue from the previous row. Offers lists the offers
// already committed to the rows, in commit order.
func NewMasterDataset(columns Columns, rows []*MasterRow, offers ...OfferInfo) (*MasterDataset, error) {
	counts := make(map[string]int)
	last := 0
	for _, r := range rows {
		if r.Key == "" {
			r.Key = NormalizeKey(r.Description)
		}
		r.InstanceIndex = counts[r.Key]
		counts[r.Key]++
		if r.Position == 0 {
			r.Position = last + 1
		}
		last = r.Position
	}
	ds := &MasterDataset{Columns: columns, Rows: rows, Offers: offers}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// CheckColumns reports a SchemaError when the master lacks its base columns.
func (d *MasterDataset) CheckColumns() error {
	missing := d.Columns.Missing(MasterRequiredFields...)
	if !d.Columns.HasAny(FieldQuantity, FieldUnitPrice) {
		missing = append(missing, FieldQuantity.String()+"|"+FieldUnitPrice.String())
	}
	if len(missing) > 0 {
		return errors.NewMissingColumnsError("master", missing...)
	}
	return nil
}

// Validate enforces the structural invariants of a master: positions strictly
// increase, (key, instance) pairs are unique and instances of a key count up
// from zero, and every offer on a row was committed.
func (d *MasterDataset) Validate() error {
	seen := make(map[MasterRef]struct{}, len(d.Rows))
	next := make(map[string]int)
	committed := make(map[string]struct{}, len(d.Offers))
	for _, o := range d.Offers {
		if _, dup := committed[o.Name]; dup {
			return errors.NewValidationError("offers", o.Name, "offer committed twice")
		}
		committed[o.Name] = struct{}{}
	}

	prev := 0
	for i, r := range d.Rows {
		if r == nil {
			return errors.NewValidationError("rows", i, "nil row")
		}
		if r.Position <= prev {
			return errors.NewValidationError("position", r.Position,
				fmt.Sprintf("row %d: position %d does not increase after %d", i, r.Position, prev))
		}
		prev = r.Position

		ref := MasterRef{Key: r.Key, InstanceIndex: r.InstanceIndex}
		if _, dup := seen[ref]; dup {
			return errors.NewValidationError("instance_index", r.InstanceIndex,
				fmt.Sprintf("duplicate key %q instance %d", r.Key, r.InstanceIndex))
		}
		seen[ref] = struct{}{}

		if r.InstanceIndex != next[r.Key] {
			return errors.NewValidationError("instance_index", r.InstanceIndex,
				fmt.Sprintf("key %q: expected instance %d at position %d", r.Key, next[r.Key], r.Position))
		}
		next[r.Key]++

		for name := range r.Offers {
			if _, ok := committed[name]; !ok {
				return errors.NewValidationError("offers", name,
					fmt.Sprintf("position %d carries uncommitted offer %q", r.Position, name))
			}
		}
	}
	return nil
}

// Len returns the number of rows.
func (d *MasterDataset) Len() int {
	return len(d.Rows)
}

// MaxPosition returns the highest position, 0 for an empty master.
func (d *MasterDataset) MaxPosition() int {
	m := 0
	for _, r := range d.Rows {
		m = max(m, r.Position)
	}
	return m
}

// InstanceCount returns how many rows carry key.
func (d *MasterDataset) InstanceCount(key string) int {
	n := 0
	for _, r := range d.Rows {
		if r.Key == key {
			n++
		}
	}
	return n
}

// Keys returns the set of keys present in the master.
func (d *MasterDataset) Keys() map[string]struct{} {
	keys := make(map[string]struct{}, len(d.Rows))
	for _, r := range d.Rows {
		keys[r.Key] = struct{}{}
	}
	return keys
}

// HasOffer reports whether name is already committed or present on any row.
func (d *MasterDataset) HasOffer(name string) bool {
	if slices.ContainsFunc(d.Offers, func(o OfferInfo) bool { return o.Name == name }) {
		return true
	}
	for _, r := range d.Rows {
		if _, ok := r.Offers[name]; ok {
			return true
		}
	}
	return false
}

// OfferNames returns committed offer names in commit order, followed by any
// names found only on rows in sorted order.
func (d *MasterDataset) OfferNames() []string {
	names := make([]string, 0, len(d.Offers))
	known := make(map[string]struct{}, len(d.Offers))
	for _, o := range d.Offers {
		names = append(names, o.Name)
		known[o.Name] = struct{}{}
	}
	extra := make(map[string]struct{})
	for _, r := range d.Rows {
		for name := range r.Offers {
			if _, ok := known[name]; !ok {
				extra[name] = struct{}{}
			}
		}
	}
	return append(names, slices.Sorted(maps.Keys(extra))...)
}

// Row returns the row at position, if any.
func (d *MasterDataset) Row(position int) (*MasterRow, bool) {
	i, ok := slices.BinarySearchFunc(d.Rows, position, func(r *MasterRow, p int) int {
		return r.Position - p
	})
	if !ok {
		return nil, false
	}
	return d.Rows[i], true
}

// Clone returns a deep copy of the dataset.
func (d *MasterDataset) Clone() *MasterDataset {
	out := &MasterDataset{
		Columns: slices.Clone(d.Columns),
		Rows:    make([]*MasterRow, len(d.Rows)),
		Offers:  slices.Clone(d.Offers),
	}
	for i, r := range d.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}
