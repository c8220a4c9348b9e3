// Package snapshot persists master datasets between comparison passes. A
// snapshot is opaque to the comparison engine: it is the master as committed,
// stamped with the time it was saved.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/save"
)

// Version of the snapshot document layout.
const Version = 1

// Store saves and loads named master snapshots.
type Store interface {
	// Save stores master under name, replacing any earlier snapshot.
	Save(ctx context.Context, name string, master *boq.MasterDataset) error

	// Load returns the snapshot saved under name. A missing snapshot is a
	// NotFoundError; a snapshot breaking the dataset invariants is a SchemaError.
	Load(ctx context.Context, name string) (*boq.MasterDataset, error)

	// List returns the stored snapshots ordered by name.
	List(ctx context.Context) ([]Info, error)

	// Delete removes the snapshot saved under name.
	Delete(ctx context.Context, name string) error
}

// Info describes a stored snapshot.
type Info struct {
	Name    string      `json:"name" yaml:"name"`
	Format  save.Format `json:"format" yaml:"format"`
	SavedAt time.Time   `json:"saved_at" yaml:"saved_at"`
	Rows    int         `json:"rows" yaml:"rows"`
	Offers  []string    `json:"offers" yaml:"offers"`
}

// Document is the serialized form of a snapshot.
type Document struct {
	Version int                `json:"version" yaml:"version"`
	SavedAt time.Time          `json:"saved_at" yaml:"saved_at"`
	Master  *boq.MasterDataset `json:"master" yaml:"master"`
}

var nameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateName checks that name is usable as a file name and a table key.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return errors.NewValidationError("name", name, "snapshot names may contain letters, digits, '.', '_' and '-'")
	}
	return nil
}

// Encode writes master as a snapshot document in format f.
func Encode(w io.Writer, f save.Format, master *boq.MasterDataset, savedAt time.Time) error {
	doc := Document{Version: Version, SavedAt: savedAt.UTC(), Master: master}
	switch f {
	case save.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case save.FormatYAML:
		return yaml.NewEncoder(w, yaml.Indent(2)).Encode(doc)
	}
	return errors.NewValidationError("format", f.String(), "unsupported snapshot format")
}

// Decode reads a snapshot document in format f and checks the master it
// carries.
func Decode(data []byte, f save.Format) (*Document, error) {
	var doc Document
	var err error
	switch f {
	case save.FormatJSON:
		err = json.Unmarshal(data, &doc)
	case save.FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, errors.NewValidationError("format", f.String(), "unsupported snapshot format")
	}
	if err != nil {
		return nil, errors.NewParseError(f.String(), "", "decoding snapshot", err)
	}
	if doc.Version != Version {
		return nil, &errors.SchemaError{Dataset: "snapshot", Message: fmt.Sprintf("unsupported snapshot version %d", doc.Version)}
	}
	if doc.Master == nil {
		return nil, &errors.SchemaError{Dataset: "snapshot", Message: "snapshot carries no master"}
	}
	if err := check(doc.Master); err != nil {
		return nil, err
	}
	return &doc, nil
}

// check applies the dataset invariants to a decoded master.
func check(master *boq.MasterDataset) error {
	if err := master.CheckColumns(); err != nil {
		return err
	}
	if err := master.Validate(); err != nil {
		return &errors.SchemaError{Dataset: "snapshot", Message: err.Error()}
	}
	return nil
}

func encodeBytes(f save.Format, master *boq.MasterDataset, savedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, f, master, savedAt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func info(name string, f save.Format, doc *Document) Info {
	return Info{
		Name:    name,
		Format:  f,
		SavedAt: doc.SavedAt,
		Rows:    doc.Master.Len(),
		Offers:  doc.Master.OfferNames(),
	}
}
