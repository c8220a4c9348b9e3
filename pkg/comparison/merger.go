package comparison

import (
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
)

type ledgerKey struct {
	position int
	offer    string
}

// Merger writes offer values onto matched master rows. It keeps a ledger of
// the (position, offer) pairs written during one pass.
type Merger struct {
	ledger map[ledgerKey]int // value is the comparison row that wrote it
}

// NewMerger creates a merger with an empty ledger.
func NewMerger() *Merger {
	return &Merger{ledger: make(map[ledgerKey]int)}
}

// Merge copies the five values of row verbatim into masterRow.Offers[offer].
// Base values are never touched. A second write for the same row and offer,
// or a write over an offer the row already carries, is a DuplicateOfferError
// and leaves the row unchanged.
func (m *Merger) Merge(masterRow *boq.MasterRow, row *boq.ComparisonRow, offer string) error {
	key := ledgerKey{position: masterRow.Position, offer: offer}
	if _, dup := m.ledger[key]; dup {
		return &errors.DuplicateOfferError{Offer: offer, Position: masterRow.Position, Row: row.Ref}
	}
	if _, exists := masterRow.Offers[offer]; exists {
		return &errors.DuplicateOfferError{Offer: offer, Position: masterRow.Position, Row: row.Ref}
	}

	if masterRow.Offers == nil {
		masterRow.Offers = make(map[string]boq.OfferValues)
	}
	masterRow.Offers[offer] = row.Values.Clone()
	m.ledger[key] = row.Ref
	return nil
}

// Written returns how many master rows were merged.
func (m *Merger) Written() int {
	return len(m.ledger)
}

// Reset drops the ledger.
func (m *Merger) Reset() {
	clear(m.ledger)
}
