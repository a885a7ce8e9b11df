package tlv

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer builds a TLV stream. Integers and string length prefixes use the
// smallest width that holds the value.
type Writer struct {
	buf  []byte
	open []Type
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// Bytes returns the encoded stream. It fails while containers remain open.
func (w *Writer) Bytes() ([]byte, error) {
	if len(w.open) != 0 {
		return nil, fmt.Errorf("%w: %d containers still open", ErrUnbalanced, len(w.open))
	}
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out, nil
}

func (w *Writer) StartContainer(tag Tag, typ Type) error {
	if !typ.IsContainer() {
		return fmt.Errorf("%w: %s", ErrNotContainerType, typ)
	}
	w.head(tag, typ)
	w.open = append(w.open, typ)
	return nil
}

func (w *Writer) EndContainer() error {
	if len(w.open) == 0 {
		return fmt.Errorf("%w: end without start", ErrUnbalanced)
	}
	w.open = w.open[:len(w.open)-1]
	w.buf = append(w.buf, byte(TypeEnd))
	return nil
}

func (w *Writer) PutInt(tag Tag, v int64) {
	switch {
	case v >= math.MinInt8 && v <= math.MaxInt8:
		w.fixed(tag, TypeInt8, uint64(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		w.fixed(tag, TypeInt16, uint64(v))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		w.fixed(tag, TypeInt32, uint64(v))
	default:
		w.fixed(tag, TypeInt64, uint64(v))
	}
}

func (w *Writer) PutUint(tag Tag, v uint64) {
	switch {
	case v <= math.MaxUint8:
		w.fixed(tag, TypeUint8, v)
	case v <= math.MaxUint16:
		w.fixed(tag, TypeUint16, v)
	case v <= math.MaxUint32:
		w.fixed(tag, TypeUint32, v)
	default:
		w.fixed(tag, TypeUint64, v)
	}
}

func (w *Writer) PutFloat32(tag Tag, v float32) {
	w.fixed(tag, TypeFloat32, uint64(math.Float32bits(v)))
}

func (w *Writer) PutFloat64(tag Tag, v float64) {
	w.fixed(tag, TypeFloat64, math.Float64bits(v))
}

func (w *Writer) PutBool(tag Tag, v bool) {
	if v {
		w.head(tag, TypeTrue)
		return
	}
	w.head(tag, TypeFalse)
}

func (w *Writer) PutNull(tag Tag) {
	w.head(tag, TypeNull)
}

func (w *Writer) PutString(tag Tag, v string) {
	w.lengthPrefixed(tag, TypeString1+lengthClass(len(v)), []byte(v))
}

func (w *Writer) PutBytes(tag Tag, v []byte) {
	w.lengthPrefixed(tag, TypeBytes1+lengthClass(len(v)), v)
}

// Marshal re-encodes el and its children with the exact wire types they carry.
func Marshal(el Element) ([]byte, error) {
	w := NewWriter()
	if err := w.element(el); err != nil {
		return nil, err
	}
	return w.Bytes()
}

func (w *Writer) element(el Element) error {
	typ := el.Type
	switch {
	case typ.IsSigned():
		w.fixed(el.Tag, typ, uint64(el.Int))
	case typ.IsUnsigned():
		w.fixed(el.Tag, typ, el.Uint)
	case typ.IsBool():
		w.PutBool(el.Tag, typ == TypeTrue)
	case typ == TypeFloat32:
		w.PutFloat32(el.Tag, float32(el.Float))
	case typ == TypeFloat64:
		w.PutFloat64(el.Tag, el.Float)
	case typ.IsText():
		w.lengthPrefixed(el.Tag, typ, []byte(el.Text))
	case typ.IsBytes():
		w.lengthPrefixed(el.Tag, typ, el.Bytes)
	case typ == TypeNull:
		w.PutNull(el.Tag)
	case typ.IsContainer():
		if err := w.StartContainer(el.Tag, typ); err != nil {
			return err
		}
		for _, child := range el.Children {
			if err := w.element(child); err != nil {
				return err
			}
		}
		return w.EndContainer()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, typ)
	}
	return nil
}

func (w *Writer) head(tag Tag, typ Type) {
	w.buf = append(w.buf, byte(tag.Control)<<tagShift|byte(typ))
	switch tag.Control {
	case TagAnonymous:
	case TagContext:
		w.buf = append(w.buf, byte(tag.Number))
	case TagCommonProfile2, TagImplicitProfile2:
		w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(tag.Number))
	case TagCommonProfile4, TagImplicitProfile4:
		w.buf = binary.LittleEndian.AppendUint32(w.buf, tag.Number)
	case TagFullyQualified6:
		w.buf = binary.LittleEndian.AppendUint16(w.buf, tag.Vendor)
		w.buf = binary.LittleEndian.AppendUint16(w.buf, tag.Profile)
		w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(tag.Number))
	case TagFullyQualified8:
		w.buf = binary.LittleEndian.AppendUint16(w.buf, tag.Vendor)
		w.buf = binary.LittleEndian.AppendUint16(w.buf, tag.Profile)
		w.buf = binary.LittleEndian.AppendUint32(w.buf, tag.Number)
	}
}

func (w *Writer) fixed(tag Tag, typ Type, v uint64) {
	w.head(tag, typ)
	w.buf = appendWidth(w.buf, v, typ.width())
}

func (w *Writer) lengthPrefixed(tag Tag, typ Type, payload []byte) {
	w.head(tag, typ)
	w.buf = appendWidth(w.buf, uint64(len(payload)), typ.width())
	w.buf = append(w.buf, payload...)
}

func appendWidth(buf []byte, v uint64, width int) []byte {
	switch width {
	case 1:
		return append(buf, byte(v))
	case 2:
		return binary.LittleEndian.AppendUint16(buf, uint16(v))
	case 4:
		return binary.LittleEndian.AppendUint32(buf, uint32(v))
	default:
		return binary.LittleEndian.AppendUint64(buf, v)
	}
}

// lengthClass maps a payload length to the offset of its length-prefix type
// within a string or byte-string type family.
func lengthClass(n int) Type {
	switch {
	case n <= math.MaxUint8:
		return 0
	case n <= math.MaxUint16:
		return 1
	case uint64(n) <= math.MaxUint32:
		return 2
	default:
		return 3
	}
}
