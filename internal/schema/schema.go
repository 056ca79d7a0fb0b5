// Package schema classifies keys by their literal prefix. The prefix alone
// decides how a value is parsed, validated and encoded.
package schema

import (
	"bytes"
	"fmt"
	"math"

	"github.com/MikhailWahib/bjson/internal/derrors"
	"github.com/MikhailWahib/bjson/internal/record"
)

// Class is the type and size constraint a key prefix declares.
type Class struct {
	Prefix string
	Type   record.Type
	// MaxLen is the maximum value length in bytes of a string class.
	MaxLen int
	// Width is the encoded size in bytes of an integer class.
	Width int
}

// classes is checked in order; the first matching prefix wins.
var classes = []Class{
	{Prefix: "STR_32_", Type: record.TypeString, MaxLen: 32},
	{Prefix: "STR_64_", Type: record.TypeString, MaxLen: 64},
	{Prefix: "STR_128_", Type: record.TypeString, MaxLen: 128},
	{Prefix: "STR_256_", Type: record.TypeString, MaxLen: 256},
	{Prefix: "INT16_", Type: record.TypeInt16, Width: 2},
	{Prefix: "UINT16_", Type: record.TypeUint16, Width: 2},
	{Prefix: "INT32_", Type: record.TypeInt32, Width: 4},
	{Prefix: "UINT32_", Type: record.TypeUint32, Width: 4},
}

// Prefixes returns the recognized key prefixes in classification order.
func Prefixes() []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = c.Prefix
	}
	return out
}

// Classify returns the class declared by key's prefix.
//
// A key matching no prefix fails with derrors.SyntaxError. A recognized key
// longer than record.MaxKeyLen fails with derrors.TypeOrRange, since its
// length cannot be encoded.
func Classify(key []byte) (Class, error) {
	for _, c := range classes {
		if !bytes.HasPrefix(key, []byte(c.Prefix)) {
			continue
		}
		if len(key) > record.MaxKeyLen {
			return Class{}, fmt.Errorf("key of %d bytes exceeds %d: %w", len(key), record.MaxKeyLen, derrors.TypeOrRange)
		}
		return c, nil
	}
	return Class{}, fmt.Errorf("unrecognized key prefix in %.64q: %w", key, derrors.SyntaxError)
}

// CheckString validates the length of a string value.
func (c Class) CheckString(n int) error {
	if c.Type != record.TypeString {
		return fmt.Errorf("%s key takes an integer value: %w", c.Prefix, derrors.TypeOrRange)
	}
	if n > c.MaxLen {
		return fmt.Errorf("%s value is %d bytes, max %d: %w", c.Prefix, n, c.MaxLen, derrors.TypeOrRange)
	}
	return nil
}

// CheckInt validates that v fits the integer width of the class.
func (c Class) CheckInt(v int64) error {
	lo, hi, ok := c.bounds()
	if !ok {
		return fmt.Errorf("%s key takes a string value: %w", c.Prefix, derrors.TypeOrRange)
	}
	if v < lo || v > hi {
		return fmt.Errorf("%s value %d out of range [%d, %d]: %w", c.Prefix, v, lo, hi, derrors.TypeOrRange)
	}
	return nil
}

func (c Class) bounds() (lo, hi int64, ok bool) {
	switch c.Type {
	case record.TypeInt16:
		return math.MinInt16, math.MaxInt16, true
	case record.TypeUint16:
		return 0, math.MaxUint16, true
	case record.TypeInt32:
		return math.MinInt32, math.MaxInt32, true
	case record.TypeUint32:
		return 0, math.MaxUint32, true
	}
	return 0, 0, false
}
