package tlv

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

type decoder struct {
	buf    []byte
	off    int
	limits Limits
}

// Decode reads exactly one top-level container from buf. The buffer must hold
// nothing else: a scalar, a context-tagged element, or trailing bytes after the
// container report ErrMissingEnvelope.
func Decode(buf []byte, limits Limits) (Element, error) {
	if limits.MaxDepth <= 0 {
		limits = DefaultLimits()
	}
	if len(buf) == 0 {
		return Element{}, &DecodeError{Offset: 0, Kind: ErrTruncated, Reason: "no top-level container"}
	}
	d := &decoder{buf: buf, limits: limits}
	top, end, err := d.element(0)
	if err != nil {
		return Element{}, err
	}
	if end {
		return Element{}, d.fail(0, ErrUnmatchedClose, "container close without open")
	}
	if !top.IsContainer() {
		return Element{}, d.fail(0, ErrMissingEnvelope, fmt.Sprintf("top-level %s element is not a container", top.Type))
	}
	if top.Tag.IsContext() {
		return Element{}, d.fail(0, ErrMissingEnvelope, fmt.Sprintf("top-level container carries %s tag", top.Tag))
	}
	if d.off < len(buf) {
		if Type(buf[d.off]) == TypeEnd {
			return Element{}, d.fail(d.off, ErrUnmatchedClose, "container close without open")
		}
		return Element{}, d.fail(d.off, ErrMissingEnvelope, fmt.Sprintf("%d trailing bytes after top-level container", len(buf)-d.off))
	}
	return top, nil
}

// DecodeContainer decodes buf and returns the children of its top-level container.
func DecodeContainer(buf []byte, limits Limits) ([]Element, error) {
	top, err := Decode(buf, limits)
	if err != nil {
		return nil, err
	}
	return top.Children, nil
}

func (d *decoder) fail(offset int, kind error, reason string) error {
	return &DecodeError{Offset: offset, Kind: kind, Reason: reason}
}

// element reads one element at the current offset. end is true when the
// control octet was an end-of-container marker.
func (d *decoder) element(depth int) (el Element, end bool, err error) {
	start := d.off
	if d.off >= len(d.buf) {
		return Element{}, false, d.fail(start, ErrTruncated, "truncated control octet")
	}
	ctl := d.buf[d.off]
	d.off++

	typ := Type(ctl & typeMask)
	control := TagControl((ctl & tagControlMask) >> tagShift)
	if typ == TypeEnd {
		if control != TagAnonymous {
			return Element{}, false, d.fail(start, ErrReservedType, "tagged end-of-container")
		}
		return Element{}, true, nil
	}
	if typ.reserved() {
		return Element{}, false, d.fail(start, ErrReservedType, fmt.Sprintf("reserved element type 0x%02x", uint8(typ)))
	}

	tag, err := d.tag(control)
	if err != nil {
		return Element{}, false, err
	}
	el = Element{Tag: tag, Type: typ}

	switch {
	case typ.IsSigned():
		v, err := d.fixed(typ.width(), "integer payload")
		if err != nil {
			return Element{}, false, err
		}
		el.Int = signExtend(v, typ.width())
	case typ.IsUnsigned():
		v, err := d.fixed(typ.width(), "integer payload")
		if err != nil {
			return Element{}, false, err
		}
		el.Uint = v
	case typ.IsBool():
		el.Bool = typ == TypeTrue
	case typ == TypeFloat32:
		v, err := d.fixed(4, "float payload")
		if err != nil {
			return Element{}, false, err
		}
		el.Float = float64(math.Float32frombits(uint32(v)))
	case typ == TypeFloat64:
		v, err := d.fixed(8, "float payload")
		if err != nil {
			return Element{}, false, err
		}
		el.Float = math.Float64frombits(v)
	case typ.IsText(), typ.IsBytes():
		payload, err := d.lengthPrefixed(typ.width())
		if err != nil {
			return Element{}, false, err
		}
		if typ.IsText() {
			if !utf8.Valid(payload) {
				return Element{}, false, d.fail(start, ErrInvalidText, "invalid UTF-8 text")
			}
			el.Text = string(payload)
		} else {
			el.Bytes = payload
		}
	case typ == TypeNull:
	case typ.IsContainer():
		if depth+1 > d.limits.MaxDepth {
			return Element{}, false, d.fail(start, ErrDepthExceeded, fmt.Sprintf("container depth over %d", d.limits.MaxDepth))
		}
		children, err := d.members(start, depth+1)
		if err != nil {
			return Element{}, false, err
		}
		el.Children = children
	}
	return el, false, nil
}

func (d *decoder) members(start, depth int) ([]Element, error) {
	children := make([]Element, 0)
	for {
		if d.off >= len(d.buf) {
			return nil, d.fail(d.off, ErrUnclosedContainer, fmt.Sprintf("container opened at offset %d not closed", start))
		}
		child, end, err := d.element(depth)
		if err != nil {
			return nil, err
		}
		if end {
			return children, nil
		}
		children = append(children, child)
	}
}

func (d *decoder) tag(control TagControl) (Tag, error) {
	n := control.size()
	if n == 0 {
		return AnonymousTag(), nil
	}
	b, err := d.take(n, "tag")
	if err != nil {
		return Tag{}, err
	}
	t := Tag{Control: control}
	switch control {
	case TagContext:
		t.Number = uint32(b[0])
	case TagCommonProfile2, TagImplicitProfile2:
		t.Number = uint32(binary.LittleEndian.Uint16(b))
	case TagCommonProfile4, TagImplicitProfile4:
		t.Number = binary.LittleEndian.Uint32(b)
	case TagFullyQualified6:
		t.Vendor = binary.LittleEndian.Uint16(b[0:2])
		t.Profile = binary.LittleEndian.Uint16(b[2:4])
		t.Number = uint32(binary.LittleEndian.Uint16(b[4:6]))
	case TagFullyQualified8:
		t.Vendor = binary.LittleEndian.Uint16(b[0:2])
		t.Profile = binary.LittleEndian.Uint16(b[2:4])
		t.Number = binary.LittleEndian.Uint32(b[4:8])
	}
	return t, nil
}

func (d *decoder) take(n int, what string) ([]byte, error) {
	if n > len(d.buf)-d.off {
		return nil, d.fail(d.off, ErrTruncated, "truncated "+what)
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) fixed(width int, what string) (uint64, error) {
	b, err := d.take(width, what)
	if err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	default:
		return binary.LittleEndian.Uint64(b), nil
	}
}

func (d *decoder) lengthPrefixed(width int) ([]byte, error) {
	n, err := d.fixed(width, "length")
	if err != nil {
		return nil, err
	}
	if n > uint64(len(d.buf)-d.off) {
		return nil, d.fail(d.off, ErrTruncated, fmt.Sprintf("truncated payload of %d bytes", n))
	}
	payload := make([]byte, n)
	copy(payload, d.buf[d.off:d.off+int(n)])
	d.off += int(n)
	return payload, nil
}

func signExtend(v uint64, width int) int64 {
	switch width {
	case 1:
		return int64(int8(v))
	case 2:
		return int64(int16(v))
	case 4:
		return int64(int32(v))
	default:
		return int64(v)
	}
}
