package diag

import (
	"errors"
	"fmt"

	"github.com/danmuck/tlvdiag/internal/protocol/schema"
	"github.com/danmuck/tlvdiag/internal/protocol/tlv"
)

var (
	ErrMalformedStream = tlv.ErrMalformedStream
	ErrUnexpectedShape = errors.New("diag: unexpected shape")
	ErrEmptyResult     = errors.New("diag: empty result")
)

// ShapeError reports a category tag found on a non-container element.
type ShapeError struct {
	Index    int
	Category schema.Category
	Tag      tlv.Tag
	Type     tlv.Type
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("diag: unexpected shape: element %d (%s, %s) is %s, not a container",
		e.Index, e.Category, e.Tag, e.Type)
}

func (e *ShapeError) Unwrap() error {
	return ErrUnexpectedShape
}
