// Package record defines the entry type shared by the parser, the encoder and
// the document reader, and the constants and helpers of the binary layout.
//
// Document layout (little-endian throughout):
//
//	[4 bytes Magic "BJSN"][1 byte Major][1 byte Minor][2 bytes reserved][4 bytes Count]
//	Count x [1 byte Type][1 byte KeyLen][2 bytes reserved][4 bytes ValueLen][Key][Value][pad to 4]
//
// Padding is measured from the start of the document, so every entry starts
// on a 4-byte boundary.
package record

// Magic identifies a binary document.
const Magic = "BJSN"

const (
	// VersionMajor is written at offset 4 of every document.
	VersionMajor = 1
	// VersionMinor is written at offset 5 of every document.
	VersionMinor = 1
)

const (
	// MagicSize is the size in bytes of the magic prefix
	MagicSize = len(Magic)
	// CountOffset is the offset of the entry count within the header
	CountOffset = MagicSize + 4
	// HeaderSize is the total size of the document header
	HeaderSize = CountOffset + LengthSize // 12 bytes

	// LengthSize is the size in bytes used to store the value length and the entry count
	LengthSize = 4
	// EntryHeaderSize is the size of entry metadata (type + key length + reserved + value length)
	EntryHeaderSize = 1 + 1 + 2 + LengthSize // 8 bytes

	// MaxKeyLen is the longest key the 1-byte key length field can describe
	MaxKeyLen = 255

	// Alignment is the boundary every entry starts on
	Alignment = 4
)
