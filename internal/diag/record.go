package diag

import (
	"math"
	"strconv"

	"github.com/danmuck/tlvdiag/internal/protocol/schema"
	"github.com/danmuck/tlvdiag/internal/protocol/tlv"
)

type NumberKind uint8

const (
	NumberNone NumberKind = iota
	NumberInt
	NumberUint
	NumberFloat
)

// Number holds a decoded numeric field at its decode precision. The zero
// value is an absent number and renders as 0.
type Number struct {
	Kind  NumberKind
	Int   int64
	Uint  uint64
	Float float64
}

func IntNumber(v int64) Number     { return Number{Kind: NumberInt, Int: v} }
func UintNumber(v uint64) Number   { return Number{Kind: NumberUint, Uint: v} }
func FloatNumber(v float64) Number { return Number{Kind: NumberFloat, Float: v} }

func (n Number) IsZero() bool {
	switch n.Kind {
	case NumberInt:
		return n.Int == 0
	case NumberUint:
		return n.Uint == 0
	case NumberFloat:
		return n.Float == 0
	default:
		return true
	}
}

func (n Number) Float64() float64 {
	switch n.Kind {
	case NumberInt:
		return float64(n.Int)
	case NumberUint:
		return float64(n.Uint)
	case NumberFloat:
		return n.Float
	default:
		return 0
	}
}

// String renders n at full precision.
func (n Number) String() string {
	switch n.Kind {
	case NumberInt:
		return strconv.FormatInt(n.Int, 10)
	case NumberUint:
		return strconv.FormatUint(n.Uint, 10)
	case NumberFloat:
		return strconv.FormatFloat(n.Float, 'g', -1, 64)
	default:
		return "0"
	}
}

// IntegerString renders n with no fractional digits; floats are rounded.
// A float outside the 64-bit integer range, or not a number at all, renders
// as 0.
func (n Number) IntegerString() string {
	if n.Kind != NumberFloat {
		return n.String()
	}
	f := math.Round(n.Float)
	if f == 0 || math.IsNaN(f) || f < math.MinInt64 || f > math.MaxUint64 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', 0, 64)
}

// Value returns n as a plain Go number for structured export.
func (n Number) Value() any {
	switch n.Kind {
	case NumberInt:
		return n.Int
	case NumberUint:
		return n.Uint
	case NumberFloat:
		return n.Float
	default:
		return int64(0)
	}
}

// numberOf coerces el into a Number. Booleans become 0/1; every other
// non-numeric element becomes the zero Number.
func numberOf(el tlv.Element) (Number, bool) {
	switch {
	case el.Type.IsSigned():
		return IntNumber(el.Int), true
	case el.Type.IsUnsigned():
		return UintNumber(el.Uint), true
	case el.Type.IsFloat():
		return FloatNumber(el.Float), true
	case el.Type.IsBool():
		if el.Bool {
			return IntNumber(1), true
		}
		return IntNumber(0), true
	default:
		return Number{}, false
	}
}

func textOf(el tlv.Element) (string, bool) {
	if el.Type.IsText() {
		return el.Text, true
	}
	return "", false
}

// Record is one classified diagnostic. Only the fields named by the
// category schema are populated.
type Record struct {
	Category  schema.Category
	Timestamp Number
	Label     string
	Scope     string
	Value     Number
	Count     Number
}

// Column is one rendered field of a record.
type Column struct {
	Name string
	Text string
}

// Columns renders r in schema order for tabular display.
func (r Record) Columns() []Column {
	s, ok := schema.ForCategory(r.Category)
	if !ok {
		return nil
	}
	cols := make([]Column, 0, len(s.Fields))
	for _, f := range s.Fields {
		cols = append(cols, Column{Name: f.Name, Text: r.text(f)})
	}
	return cols
}

// Fields returns r keyed by column name with typed values.
func (r Record) Fields() map[string]any {
	s, ok := schema.ForCategory(r.Category)
	if !ok {
		return map[string]any{}
	}
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		switch f.Name {
		case schema.FieldLabel:
			out[f.Name] = r.Label
		case schema.FieldScope:
			out[f.Name] = r.Scope
		default:
			out[f.Name] = r.number(f.Name).Value()
		}
	}
	return out
}

func (r Record) text(f schema.FieldSpec) string {
	switch f.Name {
	case schema.FieldLabel:
		return r.Label
	case schema.FieldScope:
		return r.Scope
	}
	n := r.number(f.Name)
	if f.Kind == schema.KindInteger {
		return n.IntegerString()
	}
	return n.String()
}

func (r Record) number(name string) Number {
	switch name {
	case schema.FieldTimestamp:
		return r.Timestamp
	case schema.FieldValue:
		return r.Value
	case schema.FieldCount:
		return r.Count
	default:
		return Number{}
	}
}

func (r *Record) set(f schema.FieldSpec, el tlv.Element) bool {
	if f.Kind == schema.KindText {
		s, ok := textOf(el)
		switch f.Name {
		case schema.FieldLabel:
			r.Label = s
		case schema.FieldScope:
			r.Scope = s
		}
		return ok
	}
	n, ok := numberOf(el)
	switch f.Name {
	case schema.FieldTimestamp:
		r.Timestamp = n
	case schema.FieldValue:
		r.Value = n
	case schema.FieldCount:
		r.Count = n
	}
	return ok
}
