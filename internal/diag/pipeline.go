package diag

import (
	"errors"
	"fmt"

	"github.com/danmuck/tlvdiag/internal/protocol/frame"
	"github.com/danmuck/tlvdiag/internal/protocol/schema"
	"github.com/danmuck/tlvdiag/internal/protocol/tlv"
	"github.com/rs/zerolog/log"
)

// Options controls a single Parse call. The zero value is auto framing with
// default limits and the skip policy for shape errors.
type Options struct {
	Framing frame.Mode
	Frame   frame.Limits
	Decode  tlv.Limits
	// Schema selects the record layout. SetSingle captures are always
	// interior-only, so auto framing resolves to interior for them.
	Schema schema.Set
	// StrictShape fails the parse on a category tag attached to a scalar.
	StrictShape bool
	// RejectEmpty reports ErrEmptyResult when no records were classified.
	RejectEmpty bool
}

func DefaultOptions() Options {
	return Options{
		Framing: frame.ModeAuto,
		Frame:   frame.DefaultLimits(),
		Decode:  tlv.DefaultLimits(),
	}
}

// Parse decodes one capture and classifies its top-level records. Any decode
// failure is reported as ErrMalformedStream with no records. A failed Result
// still carries the framing and schema set that were attempted.
func Parse(buf []byte, opts Options) (Result, error) {
	if opts.Schema == schema.SetSingle && opts.Framing == frame.ModeAuto {
		opts.Framing = frame.ModeInterior
	}
	failed := Result{Framing: opts.Framing, Schema: opts.Schema}
	if err := opts.Frame.Check(buf); err != nil {
		return failed, fmt.Errorf("%w: %w", ErrMalformedStream, err)
	}
	log.Debug().
		Int("bytes", len(buf)).
		Str("framing", opts.Framing.String()).
		Str("schema", opts.Schema.String()).
		Msg("diag.Parse start")

	elements, applied, err := decode(buf, opts)
	failed.Framing = applied
	if err != nil {
		log.Debug().Err(err).Str("framing", applied.String()).Msg("diag.Parse decode failed")
		return failed, err
	}

	res, err := classify(elements, opts.Schema, opts.StrictShape)
	if err != nil {
		return failed, err
	}
	res.Framing = applied
	log.Debug().
		Str("framing", applied.String()).
		Int("traces", len(res.Traces)).
		Int("metrics", len(res.Metrics)).
		Int("counters", len(res.Counters)).
		Int("diagnostics", len(res.Diagnostics)).
		Int("skipped", len(res.Skipped)).
		Msg("diag.Parse ok")

	if opts.RejectEmpty && res.Empty() {
		return res, ErrEmptyResult
	}
	return res, nil
}

func decode(buf []byte, opts Options) ([]tlv.Element, frame.Mode, error) {
	switch opts.Framing {
	case frame.ModeFramed, frame.ModeInterior:
		elements, err := tlv.DecodeContainer(frame.Normalize(buf, opts.Framing), opts.Decode)
		return elements, opts.Framing, err
	}

	elements, err := tlv.DecodeContainer(buf, opts.Decode)
	if err == nil {
		return elements, frame.ModeFramed, nil
	}
	if !errors.Is(err, tlv.ErrMissingEnvelope) {
		return nil, frame.ModeFramed, err
	}
	log.Debug().Err(err).Msg("diag.Parse retrying with synthetic envelope")
	elements, err = tlv.DecodeContainer(frame.Wrap(buf), opts.Decode)
	return elements, frame.ModeInterior, err
}
