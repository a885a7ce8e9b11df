package schema

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/danmuck/tlvdiag/internal/protocol/tlv"
)

// Category is the context tag number of a top-level diagnostic record.
type Category uint8

// Category tags from the diagnostics tag contract.
const (
	CategoryMetric  Category = 0
	CategoryTrace   Category = 1
	CategoryCounter Category = 2
)

// CategoryDiagnostic is the only category of the single-record layout. It is
// not a wire tag; every top-level element of such a capture is a record.
const CategoryDiagnostic Category = 0xFF

// Sub-tag numbers, only meaningful inside a record.
const (
	TagLabel     uint8 = 3
	TagScope     uint8 = 4
	TagValue     uint8 = 5
	TagTimestamp uint8 = 6
)

// Sub-tag numbers of the single-record layout.
const (
	SingleTagTimestamp uint8 = 0
	SingleTagLabel     uint8 = 1
	SingleTagValue     uint8 = 2
)

// Column names exposed to renderers.
const (
	FieldTimestamp = "Timestamp"
	FieldLabel     = "Label"
	FieldValue     = "Value"
	FieldScope     = "Scope"
	FieldCount     = "Count"
)

// Kind is how a field is coerced and rendered.
type Kind int

const (
	// KindInteger is numeric and rendered without fractional digits.
	KindInteger Kind = iota
	// KindNumber is numeric and rendered at full decode precision.
	KindNumber
	KindText
)

type FieldSpec struct {
	Name string
	Tag  uint8
	Kind Kind
}

type Schema struct {
	Category Category
	Fields   []FieldSpec
}

var schemas = map[Category]Schema{
	CategoryTrace: {
		Category: CategoryTrace,
		Fields: []FieldSpec{
			{FieldTimestamp, TagTimestamp, KindInteger},
			{FieldScope, TagScope, KindText},
			{FieldLabel, TagLabel, KindText},
		},
	},
	CategoryMetric: {
		Category: CategoryMetric,
		Fields: []FieldSpec{
			{FieldTimestamp, TagTimestamp, KindInteger},
			{FieldLabel, TagLabel, KindText},
			{FieldValue, TagValue, KindNumber},
		},
	},
	CategoryCounter: {
		Category: CategoryCounter,
		Fields: []FieldSpec{
			{FieldTimestamp, TagTimestamp, KindInteger},
			{FieldLabel, TagLabel, KindText},
			// counters reuse the VALUE sub-tag for their count
			{FieldCount, TagValue, KindInteger},
		},
	},
}

var diagnosticSchema = Schema{
	Category: CategoryDiagnostic,
	Fields: []FieldSpec{
		{FieldTimestamp, SingleTagTimestamp, KindInteger},
		{FieldLabel, SingleTagLabel, KindText},
		{FieldValue, SingleTagValue, KindNumber},
	},
}

// displayOrder matches the bucket order renderers print in.
var displayOrder = []Category{CategoryTrace, CategoryMetric, CategoryCounter}

// Set selects the record layout a capture is classified with.
type Set int

const (
	// SetCategorized routes top-level records by their TRACE/METRIC/COUNTER
	// context tag.
	SetCategorized Set = iota
	// SetSingle treats every top-level element as one diagnostic record
	// with TIMESTAMP=0, LABEL=1 and VALUE=2. Captures in this layout are
	// interior-only.
	SetSingle
)

var ErrUnknownSet = errors.New("schema: unknown schema set")

func ParseSet(raw string) (Set, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "categorized":
		return SetCategorized, nil
	case "single":
		return SetSingle, nil
	default:
		return SetCategorized, fmt.Errorf("%w: %q", ErrUnknownSet, raw)
	}
}

func (s Set) String() string {
	if s == SetSingle {
		return "single"
	}
	return "categorized"
}

// Lookup resolves a top-level tag to its record schema within s.
func (s Set) Lookup(tag tlv.Tag) (Schema, bool) {
	if s == SetSingle {
		return diagnosticSchema, true
	}
	return Lookup(tag)
}

// Categories returns the categories of s in display order.
func (s Set) Categories() []Category {
	if s == SetSingle {
		return []Category{CategoryDiagnostic}
	}
	return Categories()
}

// Lookup resolves a top-level tag to its categorized record schema. Only
// context tags carry categories; every other tag form is unknown.
func Lookup(tag tlv.Tag) (Schema, bool) {
	if !tag.IsContext() || tag.Number > math.MaxUint8 {
		return Schema{}, false
	}
	return ForCategory(Category(tag.Number))
}

func ForCategory(c Category) (Schema, bool) {
	if c == CategoryDiagnostic {
		return diagnosticSchema, true
	}
	s, ok := schemas[c]
	return s, ok
}

// Categories returns every categorized category in display order.
func Categories() []Category {
	out := make([]Category, len(displayOrder))
	copy(out, displayOrder)
	return out
}

func (c Category) Tag() tlv.Tag {
	return tlv.ContextTag(uint8(c))
}

func (c Category) String() string {
	switch c {
	case CategoryMetric:
		return "METRIC"
	case CategoryTrace:
		return "TRACE"
	case CategoryCounter:
		return "COUNTER"
	case CategoryDiagnostic:
		return "DIAGNOSTIC"
	default:
		return fmt.Sprintf("CATEGORY(%d)", uint8(c))
	}
}

// Heading is the bucket heading for c, e.g. "TRACES".
func (c Category) Heading() string {
	if c == CategoryDiagnostic {
		return "DIAGNOSTIC DATA"
	}
	return c.String() + "S"
}

// Columns returns the field names of s in schema order.
func (s Schema) Columns() []string {
	cols := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}
