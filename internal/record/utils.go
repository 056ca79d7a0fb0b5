package record

import (
	"encoding/binary"
	"io"
)

// EntryHeader is the fixed 8-byte prefix of an encoded entry.
type EntryHeader struct {
	Type     Type
	KeyLen   int
	ValueLen uint32
}

// AlignUp rounds n up to the next multiple of Alignment.
func AlignUp(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// EncodedSize returns the padded size of an entry whose key and value are
// keyLen and valueLen bytes long.
func EncodedSize(keyLen, valueLen int) int {
	return AlignUp(EntryHeaderSize + keyLen + valueLen)
}

// PutHeader writes the document header with the given entry count.
// buf must be at least HeaderSize bytes.
// Format: [4 bytes Magic][1 byte Major][1 byte Minor][2 bytes reserved][4 bytes Count]
func PutHeader(buf []byte, count uint32) {
	copy(buf[:MagicSize], Magic)
	buf[MagicSize] = VersionMajor
	buf[MagicSize+1] = VersionMinor
	buf[MagicSize+2] = 0
	buf[MagicSize+3] = 0
	PutCount(buf, count)
}

// PutCount overwrites the entry count of a header written by PutHeader.
func PutCount(buf []byte, count uint32) {
	binary.LittleEndian.PutUint32(buf[CountOffset:HeaderSize], count)
}

// HasMagic reports whether buf starts with the document magic.
func HasMagic(buf []byte) bool {
	return len(buf) >= MagicSize && string(buf[:MagicSize]) == Magic
}

// PutEntryHeader writes an entry header at the start of buf.
// buf must be at least EntryHeaderSize bytes and keyLen at most MaxKeyLen.
// Format: [1 byte Type][1 byte KeyLen][2 bytes reserved][4 bytes ValueLen]
func PutEntryHeader(buf []byte, h EntryHeader) {
	buf[0] = byte(h.Type)
	buf[1] = byte(h.KeyLen)
	buf[2] = 0
	buf[3] = 0
	binary.LittleEndian.PutUint32(buf[4:EntryHeaderSize], h.ValueLen)
}

// DecodeEntryHeader parses an entry header from the start of buf.
// It returns io.ErrUnexpectedEOF if fewer than EntryHeaderSize bytes remain.
// The reserved bytes are ignored.
func DecodeEntryHeader(buf []byte) (EntryHeader, error) {
	if len(buf) < EntryHeaderSize {
		return EntryHeader{}, io.ErrUnexpectedEOF
	}
	return EntryHeader{
		Type:     Type(buf[0]),
		KeyLen:   int(buf[1]),
		ValueLen: binary.LittleEndian.Uint32(buf[4:EntryHeaderSize]),
	}, nil
}
