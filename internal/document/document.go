// Package document reads binary documents in place.
//
// A Document never copies the buffer it was opened on: keys and values are
// returned as sub-slices of it, valid for as long as the caller keeps the
// buffer unchanged. Every length read from the buffer is checked against the
// bytes that remain before it is used, so a corrupt or hostile buffer ends a
// scan early instead of causing an out-of-range access.
//
// A Document is immutable and safe for concurrent use.
package document

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/MikhailWahib/bjson/internal/derrors"
	"github.com/MikhailWahib/bjson/internal/record"
)

// Document is an opened binary document.
type Document struct {
	buf   []byte
	count uint32
	major byte
	minor byte
}

// Entry is one entry of a Document. Key and Value borrow the document's
// buffer; their capacity is clipped so appending to them cannot overwrite it.
type Entry struct {
	// Index is the position of the entry in the document.
	Index int
	Type  record.Type
	Key   []byte
	Value []byte
}

// Open validates the header of buf and returns a Document reading it.
//
// A buffer that does not start with the document magic fails with
// derrors.BadMagic; one shorter than the header also wraps
// derrors.InvalidArgument.
func Open(buf []byte) (*Document, error) {
	if len(buf) < record.HeaderSize {
		return nil, fmt.Errorf("document.Open: %d bytes, header needs %d: %w: %w",
			len(buf), record.HeaderSize, derrors.BadMagic, derrors.InvalidArgument)
	}
	if !record.HasMagic(buf) {
		return nil, fmt.Errorf("document.Open: magic %q: %w", buf[:record.MagicSize], derrors.BadMagic)
	}
	return &Document{
		buf:   buf,
		count: binary.LittleEndian.Uint32(buf[record.CountOffset:record.HeaderSize]),
		major: buf[record.MagicSize],
		minor: buf[record.MagicSize+1],
	}, nil
}

// Count returns the entry count declared by the header. A truncated document
// holds fewer readable entries.
func (d *Document) Count() uint32 { return d.count }

// Version returns the version bytes of the header.
func (d *Document) Version() (major, minor byte) { return d.major, d.minor }

// Bytes returns the buffer the document was opened on.
func (d *Document) Bytes() []byte { return d.buf }

// entryAt decodes the entry starting at off and returns it together with the
// offset of the following entry.
func (d *Document) entryAt(i, off int) (Entry, int, error) {
	if len(d.buf)-off < record.EntryHeaderSize {
		return Entry{}, 0, fmt.Errorf("entry %d: truncated entry header at offset %d: %w", i, off, derrors.Truncated)
	}
	h, err := record.DecodeEntryHeader(d.buf[off:])
	if err != nil {
		return Entry{}, 0, fmt.Errorf("entry %d: %v: %w", i, err, derrors.Truncated)
	}
	keyOff := off + record.EntryHeaderSize
	valOff := keyOff + h.KeyLen
	if valOff > len(d.buf) || uint64(h.ValueLen) > uint64(len(d.buf)-valOff) {
		return Entry{}, 0, fmt.Errorf("entry %d: truncated entry payload at offset %d: %w", i, off, derrors.Truncated)
	}
	end := valOff + int(h.ValueLen)
	next := record.AlignUp(end)
	if next <= off {
		return Entry{}, 0, fmt.Errorf("entry %d: offset stalled at %d: %w", i, off, derrors.Truncated)
	}
	return Entry{
		Index: i,
		Type:  h.Type,
		Key:   d.buf[keyOff:valOff:valOff],
		Value: d.buf[valOff:end:end],
	}, next, nil
}

// Walk calls fn for every entry in document order. It stops at the first
// error fn returns and returns it. If the entry stream ends before the
// declared count, Walk returns an error wrapping derrors.Truncated after
// visiting the readable entries.
func (d *Document) Walk(fn func(Entry) error) error {
	off := record.HeaderSize
	for i := uint32(0); i < d.count; i++ {
		if off > len(d.buf) {
			return fmt.Errorf("entry %d: offset %d beyond end %d: %w", i, off, len(d.buf), derrors.Truncated)
		}
		e, next, err := d.entryAt(int(i), off)
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
		off = next
	}
	return nil
}

// Entries returns an iterator over the readable entries in document order.
// Iteration ends silently where Walk would report a truncation.
func (d *Document) Entries() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		off := record.HeaderSize
		for i := uint32(0); i < d.count && off <= len(d.buf); i++ {
			e, next, err := d.entryAt(int(i), off)
			if err != nil || !yield(e.Index, e) {
				return
			}
			off = next
		}
	}
}

// Find returns the first entry whose key equals key.
func (d *Document) Find(key []byte) (Entry, bool) {
	return find(d, key)
}

// FindString is like Find but takes the key as a string.
func (d *Document) FindString(key string) (Entry, bool) {
	return find(d, key)
}

func find[K string | []byte](d *Document, key K) (Entry, bool) {
	for _, e := range d.Entries() {
		if string(e.Key) == string(key) {
			return e, true
		}
	}
	return Entry{}, false
}

func (d *Document) lookup(key string) (Entry, error) {
	e, ok := d.FindString(key)
	if !ok {
		return Entry{}, derrors.NotFound
	}
	return e, nil
}

// GetI32 returns the value of a signed integer entry. A 2-byte value is
// sign-extended.
func (d *Document) GetI32(key string) (_ int32, err error) {
	defer derrors.Wrap(&err, "GetI32(%q)", key)
	e, err := d.lookup(key)
	if err != nil {
		return 0, err
	}
	switch {
	case e.Type == record.TypeInt16 && len(e.Value) == 2:
		return int32(int16(binary.LittleEndian.Uint16(e.Value))), nil
	case e.Type == record.TypeInt32 && len(e.Value) == 4:
		return int32(binary.LittleEndian.Uint32(e.Value)), nil
	}
	return 0, e.mismatch("signed integer")
}

// GetU32 returns the value of an unsigned integer entry. A 2-byte value is
// zero-extended.
func (d *Document) GetU32(key string) (_ uint32, err error) {
	defer derrors.Wrap(&err, "GetU32(%q)", key)
	e, err := d.lookup(key)
	if err != nil {
		return 0, err
	}
	switch {
	case e.Type == record.TypeUint16 && len(e.Value) == 2:
		return uint32(binary.LittleEndian.Uint16(e.Value)), nil
	case e.Type == record.TypeUint32 && len(e.Value) == 4:
		return binary.LittleEndian.Uint32(e.Value), nil
	}
	return 0, e.mismatch("unsigned integer")
}

// GetString returns the raw bytes of a string entry. The result borrows the
// document's buffer and carries no terminator.
func (d *Document) GetString(key string) (_ []byte, err error) {
	defer derrors.Wrap(&err, "GetString(%q)", key)
	e, err := d.lookup(key)
	if err != nil {
		return nil, err
	}
	if e.Type != record.TypeString {
		return nil, e.mismatch("string")
	}
	return e.Value, nil
}

// Int returns the value of an integer entry of any width.
func (e Entry) Int() (int64, error) {
	if w := e.Type.Width(); w == 0 || len(e.Value) != w {
		return 0, e.mismatch("integer")
	}
	switch e.Type {
	case record.TypeInt16:
		return int64(int16(binary.LittleEndian.Uint16(e.Value))), nil
	case record.TypeUint16:
		return int64(binary.LittleEndian.Uint16(e.Value)), nil
	case record.TypeInt32:
		return int64(int32(binary.LittleEndian.Uint32(e.Value))), nil
	default:
		return int64(binary.LittleEndian.Uint32(e.Value)), nil
	}
}

func (e Entry) mismatch(want string) error {
	return fmt.Errorf("entry %d is %s with %d value bytes, want %s: %w",
		e.Index, e.Type, len(e.Value), want, derrors.TypeOrRange)
}
