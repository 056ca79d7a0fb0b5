// Package encoder serializes parsed entries into the binary document format.
package encoder

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/MikhailWahib/bjson/internal/derrors"
	"github.com/MikhailWahib/bjson/internal/record"
)

// Size returns the exact number of bytes Encode writes for entries.
func Size(entries []record.Entry) (int, error) {
	n := record.HeaderSize
	for i, e := range entries {
		if err := check(e); err != nil {
			return 0, fmt.Errorf("entry %d: %w", i, err)
		}
		n += record.EncodedSize(len(e.Key), e.ValueLen())
	}
	return n, nil
}

// Encode writes the document for entries into dst and returns the number of
// bytes written. len(dst) is the capacity; nothing beyond it is touched.
//
// Every entry is validated before the first byte is written. If dst is too
// small the error wraps derrors.BufferTooSmall, the bytes written so far are
// zeroed and n is 0.
func Encode(entries []record.Entry, dst []byte) (n int, err error) {
	defer derrors.Wrap(&err, "encode(%d entries)", len(entries))

	for i, e := range entries {
		if err := check(e); err != nil {
			return 0, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	if uint64(len(entries)) > math.MaxUint32 {
		return 0, fmt.Errorf("%d entries: %w", len(entries), derrors.TypeOrRange)
	}

	w := &writer{buf: dst}
	if hdr := w.reserve(record.HeaderSize); hdr != nil {
		record.PutHeader(hdr, 0)
	}
	for _, e := range entries {
		w.entry(e)
	}
	if w.err != nil {
		clear(dst[:w.off])
		return 0, w.err
	}
	record.PutCount(dst, uint32(len(entries)))
	return w.off, nil
}

// writer appends to a fixed-capacity buffer. The first failure sticks and
// every later write is a no-op.
type writer struct {
	buf []byte
	off int
	err error
}

// reserve returns the next n bytes of the buffer, or nil once the capacity
// is exhausted.
func (w *writer) reserve(n int) []byte {
	if w.err != nil {
		return nil
	}
	if n > len(w.buf)-w.off {
		w.err = fmt.Errorf("need %d bytes at offset %d, capacity %d: %w",
			n, w.off, len(w.buf), derrors.BufferTooSmall)
		return nil
	}
	b := w.buf[w.off : w.off+n]
	w.off += n
	return b
}

func (w *writer) entry(e record.Entry) {
	valueLen := e.ValueLen()
	// Padding is reserved along with the entry so a short buffer fails before
	// any byte of the entry is written.
	size := record.AlignUp(w.off+record.EntryHeaderSize+len(e.Key)+valueLen) - w.off
	b := w.reserve(size)
	if b == nil {
		return
	}
	record.PutEntryHeader(b, record.EntryHeader{
		Type:     e.Type,
		KeyLen:   len(e.Key),
		ValueLen: uint32(valueLen),
	})
	off := record.EntryHeaderSize
	off += copy(b[off:], e.Key)
	switch e.Type.Width() {
	case 2:
		binary.LittleEndian.PutUint16(b[off:], uint16(e.Int))
		off += 2
	case 4:
		binary.LittleEndian.PutUint32(b[off:], uint32(e.Int))
		off += 4
	default:
		off += copy(b[off:], e.Str)
	}
	clear(b[off:])
}

// check validates an entry against the layout limits and its declared type.
func check(e record.Entry) error {
	if len(e.Key) > record.MaxKeyLen {
		return fmt.Errorf("key of %d bytes exceeds %d: %w", len(e.Key), record.MaxKeyLen, derrors.TypeOrRange)
	}
	switch e.Type {
	case record.TypeString:
		if e.MaxLen > 0 && len(e.Str) > e.MaxLen {
			return fmt.Errorf("%q: string of %d bytes exceeds %d: %w", e.Key, len(e.Str), e.MaxLen, derrors.TypeOrRange)
		}
		if uint64(len(e.Str)) > math.MaxUint32 {
			return fmt.Errorf("%q: string of %d bytes: %w", e.Key, len(e.Str), derrors.TypeOrRange)
		}
		return nil
	case record.TypeInt16, record.TypeUint16, record.TypeInt32, record.TypeUint32:
	default:
		return fmt.Errorf("%q: unknown %s: %w", e.Key, e.Type, derrors.TypeOrRange)
	}
	if e.Width != e.Type.Width() {
		return fmt.Errorf("%q: width %d does not match %s: %w", e.Key, e.Width, e.Type, derrors.TypeOrRange)
	}
	var lo, hi int64
	switch e.Type {
	case record.TypeInt16:
		lo, hi = math.MinInt16, math.MaxInt16
	case record.TypeUint16:
		lo, hi = 0, math.MaxUint16
	case record.TypeInt32:
		lo, hi = math.MinInt32, math.MaxInt32
	case record.TypeUint32:
		lo, hi = 0, math.MaxUint32
	}
	if e.Int < lo || e.Int > hi {
		return fmt.Errorf("%q: %s value %d out of range: %w", e.Key, e.Type, e.Int, derrors.TypeOrRange)
	}
	return nil
}
