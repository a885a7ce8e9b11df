package tlv

import (
	"errors"
	"fmt"
)

// ErrMalformedStream is matched by every decode failure.
var ErrMalformedStream = errors.New("tlv: malformed stream")

var (
	ErrTruncated         = errors.New("tlv: truncated")
	ErrReservedType      = errors.New("tlv: reserved element type")
	ErrUnmatchedClose    = errors.New("tlv: unmatched container close")
	ErrUnclosedContainer = errors.New("tlv: unclosed container")
	ErrDepthExceeded     = errors.New("tlv: container depth exceeded")
	ErrMissingEnvelope   = errors.New("tlv: missing top-level envelope")
	ErrInvalidText       = errors.New("tlv: invalid UTF-8 text")
)

// DecodeError reports where and why a stream failed to decode.
type DecodeError struct {
	Offset int
	Kind   error
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("tlv: malformed stream: %s at offset %d", e.Reason, e.Offset)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrMalformedStream, e.Kind}
}

var (
	ErrNotContainerType = errors.New("tlv: not a container type")
	ErrUnbalanced       = errors.New("tlv: unbalanced containers")
	ErrUnsupportedType  = errors.New("tlv: unsupported element type")
)
