// Package bjson converts a restricted, JSON-like object notation into a
// compact binary document and reads values back out of such documents
// without the original text.
//
// Every key declares its value type with a prefix: STR_32_, STR_64_,
// STR_128_ and STR_256_ keys hold strings of at most that many bytes, and
// INT16_, UINT16_, INT32_ and UINT32_ keys hold integers of that width.
// A value that does not fit its key is rejected.
//
// Example usage:
//
//	buf, err := bjson.Marshal([]byte(`{"STR_32_name":"bob","UINT16_age":41}`))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	doc, err := bjson.Open(buf)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	age, err := doc.GetU32("UINT16_age")
//	if err != nil {
//		log.Printf("GetU32 failed: %v", err)
//	}
//	fmt.Println(age)
//
// Encoded documents are immutable. A Document reads the caller's buffer in
// place and returns sub-slices of it, so the buffer must not change while
// the Document is in use.
package bjson

import (
	"github.com/MikhailWahib/bjson/internal/codec"
	"github.com/MikhailWahib/bjson/internal/config"
	"github.com/MikhailWahib/bjson/internal/derrors"
	"github.com/MikhailWahib/bjson/internal/document"
	"github.com/MikhailWahib/bjson/internal/record"
)

// Config is an alias for config.Config, re-exported for user convenience.
type Config = config.Config

// DefaultConfig returns a Config struct populated with default values. Re-exported for user convenience.
var DefaultConfig = config.DefaultConfig

// Document is an opened binary document.
type Document = document.Document

// Entry is one key/value pair of a Document.
type Entry = document.Entry

// Type is the value type code of an entry.
type Type = record.Type

// Value types.
const (
	TypeString = record.TypeString
	TypeInt16  = record.TypeInt16
	TypeUint16 = record.TypeUint16
	TypeInt32  = record.TypeInt32
	TypeUint32 = record.TypeUint32
)

// Error kinds. Test for them with errors.Is.
var (
	// ErrInvalidArgument reports empty input or a nil buffer.
	ErrInvalidArgument = derrors.InvalidArgument
	// ErrBufferTooSmall reports that the output buffer or the parse arena
	// is too small. Retrying with a larger one may succeed.
	ErrBufferTooSmall = derrors.BufferTooSmall
	// ErrSyntax reports malformed text or an unrecognized key prefix.
	ErrSyntax = derrors.SyntaxError
	// ErrTypeOrRange reports a value that does not fit the type its key
	// declares, or a lookup whose accessor does not match the stored type.
	ErrTypeOrRange = derrors.TypeOrRange
	// ErrBadMagic reports a buffer that is not a binary document.
	ErrBadMagic = derrors.BadMagic
	// ErrNotFound reports a key absent from a document.
	ErrNotFound = derrors.NotFound
	// ErrTruncated reports an entry stream that ends before its declared
	// count.
	ErrTruncated = derrors.Truncated
)

// Codec encodes text with a fixed configuration. It is safe for concurrent
// use; each call gets its own parse arena.
type Codec struct {
	c *codec.Codec
}

// New returns a Codec configured by cfg. A nil cfg selects DefaultConfig.
func New(cfg *Config) *Codec {
	return &Codec{c: codec.New(cfg)}
}

// Encode parses text and writes its binary document into dst. len(dst) is
// the capacity; Encode returns the number of bytes written. On failure
// nothing is left in dst and the error wraps one of the Err kinds.
func (c *Codec) Encode(text, dst []byte) (int, error) {
	return c.c.Encode(text, dst)
}

// Marshal parses text and returns its binary document, encoded into a
// buffer of Config.OutputCapacity bytes.
func (c *Codec) Marshal(text []byte) ([]byte, error) {
	return c.c.Marshal(text)
}

var defaultCodec = New(nil)

// Encode is like Codec.Encode with the default configuration.
func Encode(text, dst []byte) (int, error) {
	return defaultCodec.Encode(text, dst)
}

// Marshal is like Codec.Marshal with the default configuration.
func Marshal(text []byte) ([]byte, error) {
	return defaultCodec.Marshal(text)
}

// Open validates the header of buf and returns a Document reading it in
// place.
func Open(buf []byte) (*Document, error) {
	return document.Open(buf)
}
