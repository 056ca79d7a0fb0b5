package record

import "fmt"

// Type is the type code stored in the first byte of every entry.
type Type byte

const (
	// TypeString is a raw byte string bounded by its key's declared maximum
	TypeString Type = iota + 1
	// TypeInt16 is a signed 16-bit integer stored in 2 bytes
	TypeInt16
	// TypeUint16 is an unsigned 16-bit integer stored in 2 bytes
	TypeUint16
	// TypeInt32 is a signed 32-bit integer stored in 4 bytes
	TypeInt32
	// TypeUint32 is an unsigned 32-bit integer stored in 4 bytes
	TypeUint32
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt16:
		return "i16"
	case TypeUint16:
		return "u16"
	case TypeInt32:
		return "i32"
	case TypeUint32:
		return "u32"
	default:
		return fmt.Sprintf("Type(%d)", byte(t))
	}
}

// Width returns the encoded size of an integer type, or 0 for strings and
// unknown codes.
func (t Type) Width() int {
	switch t {
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32:
		return 4
	default:
		return 0
	}
}

// IsInteger reports whether t is one of the integer types.
func (t Type) IsInteger() bool { return t.Width() != 0 }

// Entry is one parsed key/value pair, ready to be encoded.
// Key and Str may point into a parse arena; they are only valid
// until the arena is released.
type Entry struct {
	Type Type
	Key  []byte
	// Str holds the value of a TypeString entry.
	Str []byte
	// Int holds the value of an integer entry.
	Int int64
	// MaxLen is the declared maximum length of a string entry.
	MaxLen int
	// Width is the declared size in bytes of an integer entry.
	Width int
}

// ValueLen returns the number of value bytes the entry encodes to.
func (e Entry) ValueLen() int {
	if e.Type == TypeString {
		return len(e.Str)
	}
	return e.Width
}
