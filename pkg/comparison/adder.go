package comparison

import "github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"

// Adder appends master rows for valid comparison rows the master lacks.
type Adder struct {
	master *boq.MasterDataset
	counts map[string]int
}

// NewAdder creates an adder appending to master. Instance indexes continue
// from the occurrences already in the master.
func NewAdder(master *boq.MasterDataset) *Adder {
	counts := make(map[string]int)
	for _, r := range master.Rows {
		counts[r.Key]++
	}
	return &Adder{master: master, counts: counts}
}

// Add appends a new row at nextPosition and returns it. The comparison values
// become both the base values and the offer record; category is left blank
// for the categorization step.
func (a *Adder) Add(row *boq.ComparisonRow, offer string, nextPosition int) *boq.MasterRow {
	key := row.Key()
	added := &boq.MasterRow{
		Position:      nextPosition,
		Key:           key,
		Description:   row.Description,
		Code:          row.Code,
		Unit:          row.Unit,
		InstanceIndex: a.counts[key],
		Base:          row.Values.Clone(),
		Offers:        map[string]boq.OfferValues{offer: row.Values.Clone()},
	}
	a.counts[key]++
	a.master.Rows = append(a.master.Rows, added)
	return added
}

// NextPosition returns the position the next appended row should take.
func (a *Adder) NextPosition() int {
	return a.master.MaxPosition() + 1
}
