// Package specyaml loads a spec.MessageSpec field table from a YAML
// document, the document-driven counterpart to pkg/spec.TableSpec's
// hand-coded table.
package specyaml

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lattice8583/iso8583/pkg/spec"
)

// Document is the top-level YAML shape: a dense, position-ordered list of
// fields.
type Document struct {
	// Fields is the position-ordered field table; Fields[i] describes
	// position i.
	Fields []FieldDocument `yaml:"fields"`
}

// FieldDocument is one position's YAML-described metadata.
type FieldDocument struct {
	// Label is a free-form descriptor, e.g. "Primary Account Number".
	Label string `yaml:"label"`

	// CharClass is one of "numeric", "alphanumeric",
	// "alphanumeric_special", "binary", "track_data", "bitmap_binary", or
	// "bitmap_ascii_hex". Required.
	CharClass string `yaml:"char_class"`

	// MaxLength is the payload's upper bound in bytes, excluding any
	// length prefix. Required.
	MaxLength int `yaml:"max_length"`

	// SizeDiscipline is one of "fixed", "ll_var", "lll_var", "llll_var",
	// or "bit_map". Required.
	SizeDiscipline string `yaml:"size_discipline"`
}

var charClasses = map[string]spec.CharClass{
	"numeric":              spec.Numeric,
	"alphanumeric":         spec.Alphanumeric,
	"alphanumeric_special": spec.AlphanumericSpecial,
	"binary":               spec.Binary,
	"track_data":           spec.TrackData,
	"bitmap_binary":        spec.BitmapBinary,
	"bitmap_ascii_hex":     spec.BitmapASCIIHex,
}

var sizeDisciplines = map[string]spec.SizeDiscipline{
	"fixed":    spec.Fixed,
	"ll_var":   spec.LlVar,
	"lll_var":  spec.LllVar,
	"llll_var": spec.LlllVar,
	"bit_map":  spec.BitMap,
}

// ErrUnknownCharClass is returned for a char_class value not in the
// recognized set.
var ErrUnknownCharClass = errors.New("specyaml: unknown char_class")

// ErrUnknownSizeDiscipline is returned for a size_discipline value not in
// the recognized set.
var ErrUnknownSizeDiscipline = errors.New("specyaml: unknown size_discipline")

// Load reads the YAML file at path and builds a spec.TableSpec from it.
func Load(path string) (*spec.TableSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("specyaml: cannot read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a spec.TableSpec from a YAML document already in memory.
func Parse(data []byte) (*spec.TableSpec, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("specyaml: cannot parse document: %w", err)
	}

	fields := make([]spec.FieldSpec, len(doc.Fields))
	for i, fd := range doc.Fields {
		class, ok := charClasses[fd.CharClass]
		if !ok {
			return nil, fmt.Errorf("specyaml: position %d: %w: %q", i, ErrUnknownCharClass, fd.CharClass)
		}
		discipline, ok := sizeDisciplines[fd.SizeDiscipline]
		if !ok {
			return nil, fmt.Errorf("specyaml: position %d: %w: %q", i, ErrUnknownSizeDiscipline, fd.SizeDiscipline)
		}
		fields[i] = spec.FieldSpec{
			Label:          fd.Label,
			CharClass:      class,
			MaxLength:      fd.MaxLength,
			SizeDiscipline: discipline,
		}
	}

	ts, err := spec.NewTableSpec(fields)
	if err != nil {
		return nil, fmt.Errorf("specyaml: %w", err)
	}
	return ts, nil
}
