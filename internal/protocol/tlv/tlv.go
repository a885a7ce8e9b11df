package tlv

import (
	"fmt"
	"math"
)

// Type is the element type carried in the low five bits of a control octet.
type Type uint8

// Element type codes from the tlv contract.
const (
	TypeInt8    Type = 0x00
	TypeInt16   Type = 0x01
	TypeInt32   Type = 0x02
	TypeInt64   Type = 0x03
	TypeUint8   Type = 0x04
	TypeUint16  Type = 0x05
	TypeUint32  Type = 0x06
	TypeUint64  Type = 0x07
	TypeFalse   Type = 0x08
	TypeTrue    Type = 0x09
	TypeFloat32 Type = 0x0A
	TypeFloat64 Type = 0x0B
	TypeString1 Type = 0x0C
	TypeString2 Type = 0x0D
	TypeString4 Type = 0x0E
	TypeString8 Type = 0x0F
	TypeBytes1  Type = 0x10
	TypeBytes2  Type = 0x11
	TypeBytes4  Type = 0x12
	TypeBytes8  Type = 0x13
	TypeNull    Type = 0x14
	TypeStruct  Type = 0x15
	TypeArray   Type = 0x16
	TypeList    Type = 0x17
	TypeEnd     Type = 0x18
)

const (
	typeMask       = 0x1F
	tagControlMask = 0xE0
	tagShift       = 5
)

// IsSigned reports whether t is a signed integer type.
func (t Type) IsSigned() bool { return t <= TypeInt64 }

// IsUnsigned reports whether t is an unsigned integer type.
func (t Type) IsUnsigned() bool { return t >= TypeUint8 && t <= TypeUint64 }

func (t Type) IsBool() bool  { return t == TypeFalse || t == TypeTrue }
func (t Type) IsFloat() bool { return t == TypeFloat32 || t == TypeFloat64 }
func (t Type) IsText() bool  { return t >= TypeString1 && t <= TypeString8 }
func (t Type) IsBytes() bool { return t >= TypeBytes1 && t <= TypeBytes8 }

// IsContainer reports whether t opens a structure, array, or list.
func (t Type) IsContainer() bool { return t >= TypeStruct && t <= TypeList }

func (t Type) reserved() bool { return t > TypeEnd }

// width returns the fixed payload width for numeric types and the length
// prefix width for text and byte strings.
func (t Type) width() int {
	switch {
	case t.IsSigned():
		return 1 << uint(t-TypeInt8)
	case t.IsUnsigned():
		return 1 << uint(t-TypeUint8)
	case t == TypeFloat32:
		return 4
	case t == TypeFloat64:
		return 8
	case t.IsText():
		return 1 << uint(t-TypeString1)
	case t.IsBytes():
		return 1 << uint(t-TypeBytes1)
	default:
		return 0
	}
}

func (t Type) String() string {
	switch {
	case t.IsSigned():
		return fmt.Sprintf("int%d", t.width()*8)
	case t.IsUnsigned():
		return fmt.Sprintf("uint%d", t.width()*8)
	case t.IsBool():
		return "bool"
	case t == TypeFloat32:
		return "float32"
	case t == TypeFloat64:
		return "float64"
	case t.IsText():
		return "utf8"
	case t.IsBytes():
		return "bytes"
	case t == TypeNull:
		return "null"
	case t == TypeStruct:
		return "struct"
	case t == TypeArray:
		return "array"
	case t == TypeList:
		return "list"
	case t == TypeEnd:
		return "end"
	default:
		return fmt.Sprintf("reserved(0x%02x)", uint8(t))
	}
}

// TagControl is the tag form carried in the high three bits of a control octet.
type TagControl uint8

const (
	TagAnonymous        TagControl = 0
	TagContext          TagControl = 1
	TagCommonProfile2   TagControl = 2
	TagCommonProfile4   TagControl = 3
	TagImplicitProfile2 TagControl = 4
	TagImplicitProfile4 TagControl = 5
	TagFullyQualified6  TagControl = 6
	TagFullyQualified8  TagControl = 7
)

// size is the number of tag bytes following the control octet.
func (c TagControl) size() int {
	switch c {
	case TagAnonymous:
		return 0
	case TagContext:
		return 1
	case TagCommonProfile2, TagImplicitProfile2:
		return 2
	case TagCommonProfile4, TagImplicitProfile4:
		return 4
	case TagFullyQualified6:
		return 6
	default:
		return 8
	}
}

// Tag identifies an element within its enclosing container.
// Vendor and Profile are only meaningful for fully-qualified tags.
type Tag struct {
	Control TagControl
	Vendor  uint16
	Profile uint16
	Number  uint32
}

func AnonymousTag() Tag { return Tag{Control: TagAnonymous} }

func ContextTag(n uint8) Tag { return Tag{Control: TagContext, Number: uint32(n)} }

// CommonProfileTag picks the 2 or 4 byte form by magnitude.
func CommonProfileTag(n uint32) Tag {
	if n <= math.MaxUint16 {
		return Tag{Control: TagCommonProfile2, Number: n}
	}
	return Tag{Control: TagCommonProfile4, Number: n}
}

// ProfileTag builds a fully-qualified tag, picking the 6 or 8 byte form by magnitude.
func ProfileTag(vendor, profile uint16, n uint32) Tag {
	c := TagFullyQualified6
	if n > math.MaxUint16 {
		c = TagFullyQualified8
	}
	return Tag{Control: c, Vendor: vendor, Profile: profile, Number: n}
}

func (t Tag) IsAnonymous() bool { return t.Control == TagAnonymous }
func (t Tag) IsContext() bool   { return t.Control == TagContext }

// IsContextNumber reports whether t is the context tag n.
func (t Tag) IsContextNumber(n uint8) bool {
	return t.Control == TagContext && t.Number == uint32(n)
}

func (t Tag) String() string {
	switch t.Control {
	case TagAnonymous:
		return "anonymous"
	case TagContext:
		return fmt.Sprintf("ctx:%d", t.Number)
	case TagCommonProfile2, TagCommonProfile4:
		return fmt.Sprintf("common:%d", t.Number)
	case TagImplicitProfile2, TagImplicitProfile4:
		return fmt.Sprintf("implicit:%d", t.Number)
	default:
		return fmt.Sprintf("0x%04x:0x%04x:%d", t.Vendor, t.Profile, t.Number)
	}
}

// Element is one decoded TLV element. Only the value fields matching Type
// are populated; Children holds the members of a container in wire order.
type Element struct {
	Tag      Tag
	Type     Type
	Int      int64
	Uint     uint64
	Float    float64
	Bool     bool
	Text     string
	Bytes    []byte
	Children []Element
}

func (e Element) IsContainer() bool { return e.Type.IsContainer() }

// Child returns the last child carrying tag, matching mapping semantics
// where a later duplicate replaces an earlier one.
func (e Element) Child(tag Tag) (Element, bool) {
	for i := len(e.Children) - 1; i >= 0; i-- {
		if e.Children[i].Tag == tag {
			return e.Children[i], true
		}
	}
	return Element{}, false
}

// Limits constrains decoder recursion.
type Limits struct {
	MaxDepth int
}

func DefaultLimits() Limits {
	return Limits{MaxDepth: 32}
}
