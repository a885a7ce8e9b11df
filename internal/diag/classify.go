package diag

import (
	"github.com/danmuck/tlvdiag/internal/protocol/frame"
	"github.com/danmuck/tlvdiag/internal/protocol/schema"
	"github.com/danmuck/tlvdiag/internal/protocol/tlv"
	"github.com/rs/zerolog/log"
)

// Result holds classified records per category in stream order. Only the
// buckets of the schema set in use are non-nil.
type Result struct {
	Traces      []Record
	Metrics     []Record
	Counters    []Record
	Diagnostics []Record
	// Skipped lists category elements dropped for having the wrong shape.
	Skipped []*ShapeError
	// Framing is the envelope handling that produced the decode.
	Framing frame.Mode
	Schema  schema.Set
}

func newResult(set schema.Set) Result {
	if set == schema.SetSingle {
		return Result{Diagnostics: []Record{}, Schema: set}
	}
	return Result{
		Traces:   []Record{},
		Metrics:  []Record{},
		Counters: []Record{},
		Schema:   set,
	}
}

// Bucket returns the records for c.
func (r Result) Bucket(c schema.Category) []Record {
	switch c {
	case schema.CategoryTrace:
		return r.Traces
	case schema.CategoryMetric:
		return r.Metrics
	case schema.CategoryCounter:
		return r.Counters
	case schema.CategoryDiagnostic:
		return r.Diagnostics
	default:
		return nil
	}
}

func (r Result) Len() int {
	return len(r.Traces) + len(r.Metrics) + len(r.Counters) + len(r.Diagnostics)
}

func (r Result) Empty() bool {
	return r.Len() == 0
}

func (r *Result) add(rec Record) {
	switch rec.Category {
	case schema.CategoryTrace:
		r.Traces = append(r.Traces, rec)
	case schema.CategoryMetric:
		r.Metrics = append(r.Metrics, rec)
	case schema.CategoryCounter:
		r.Counters = append(r.Counters, rec)
	case schema.CategoryDiagnostic:
		r.Diagnostics = append(r.Diagnostics, rec)
	}
}

// Classify sorts top-level elements into category buckets. Elements with
// unknown tags are ignored. A category tag on a scalar is recorded in
// Result.Skipped and classification continues.
func Classify(elements []tlv.Element) Result {
	res, _ := classify(elements, schema.SetCategorized, false)
	return res
}

// ClassifyStrict is Classify but fails on the first shape error.
func ClassifyStrict(elements []tlv.Element) (Result, error) {
	return classify(elements, schema.SetCategorized, true)
}

// ClassifySet classifies elements with the record layout of set.
func ClassifySet(elements []tlv.Element, set schema.Set, strict bool) (Result, error) {
	return classify(elements, set, strict)
}

func classify(elements []tlv.Element, set schema.Set, strict bool) (Result, error) {
	res := newResult(set)
	for i, el := range elements {
		s, ok := set.Lookup(el.Tag)
		if !ok {
			log.Debug().Int("index", i).Str("tag", el.Tag.String()).Msg("diag.Classify ignoring unknown tag")
			continue
		}
		if !el.IsContainer() {
			shapeErr := &ShapeError{Index: i, Category: s.Category, Tag: el.Tag, Type: el.Type}
			if strict {
				return Result{}, shapeErr
			}
			log.Warn().Err(shapeErr).Msg("diag.Classify skipping element")
			res.Skipped = append(res.Skipped, shapeErr)
			continue
		}
		res.add(buildRecord(i, s, el))
	}
	return res, nil
}

func buildRecord(index int, s schema.Schema, el tlv.Element) Record {
	rec := Record{Category: s.Category}
	for _, f := range s.Fields {
		child, found := el.Child(tlv.ContextTag(f.Tag))
		if !found {
			continue
		}
		if !rec.set(f, child) {
			log.Debug().
				Int("index", index).
				Str("category", s.Category.String()).
				Str("field", f.Name).
				Str("type", child.Type.String()).
				Msg("diag.Classify coerced mismatched field to default")
		}
	}
	return rec
}
