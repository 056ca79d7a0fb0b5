package encoder_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MikhailWahib/bjson/internal/derrors"
	"github.com/MikhailWahib/bjson/internal/encoder"
	"github.com/MikhailWahib/bjson/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(key, val string, max int) record.Entry {
	return record.Entry{Type: record.TypeString, Key: []byte(key), Str: []byte(val), MaxLen: max}
}

func num(typ record.Type, key string, v int64) record.Entry {
	return record.Entry{Type: typ, Key: []byte(key), Int: v, Width: typ.Width()}
}

func TestEncodeExample(t *testing.T) {
	entries := []record.Entry{
		str("STR_32_name", "bob", 32),
		num(record.TypeUint16, "UINT16_age", 41),
	}
	want := []byte{
		'B', 'J', 'S', 'N', 1, 1, 0, 0, 2, 0, 0, 0,
		1, 11, 0, 0, 3, 0, 0, 0,
		'S', 'T', 'R', '_', '3', '2', '_', 'n', 'a', 'm', 'e',
		'b', 'o', 'b',
		0, 0,
		3, 10, 0, 0, 2, 0, 0, 0,
		'U', 'I', 'N', 'T', '1', '6', '_', 'a', 'g', 'e',
		41, 0,
	}

	size, err := encoder.Size(entries)
	require.NoError(t, err)
	assert.Equal(t, len(want), size)

	dst := make([]byte, 128)
	n, err := encoder.Encode(entries, dst)
	require.NoError(t, err)
	assert.Equal(t, want, dst[:n])
	assert.Equal(t, make([]byte, 128-n), dst[n:], "bytes past n must be untouched")
}

func TestEncodeEmpty(t *testing.T) {
	dst := make([]byte, record.HeaderSize)
	n, err := encoder.Encode(nil, dst)
	require.NoError(t, err)
	assert.Equal(t, []byte{'B', 'J', 'S', 'N', 1, 1, 0, 0, 0, 0, 0, 0}, dst[:n])
}

func TestEncodeIntegers(t *testing.T) {
	tests := []struct {
		entry record.Entry
		value []byte
	}{
		{num(record.TypeInt16, "INT16_a", -2), []byte{0xFE, 0xFF}},
		{num(record.TypeInt16, "INT16_a", 32767), []byte{0xFF, 0x7F}},
		{num(record.TypeUint16, "UINT16_a", 65535), []byte{0xFF, 0xFF}},
		{num(record.TypeInt32, "INT32_a", -1), []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{num(record.TypeInt32, "INT32_a", 0x01020304), []byte{4, 3, 2, 1}},
		{num(record.TypeUint32, "UINT32_a", 4294967295), []byte{0xFF, 0xFF, 0xFF, 0xFF}},
	}
	for _, test := range tests {
		dst := make([]byte, 64)
		n, err := encoder.Encode([]record.Entry{test.entry}, dst)
		require.NoError(t, err)

		h, err := record.DecodeEntryHeader(dst[record.HeaderSize:n])
		require.NoError(t, err)
		assert.Equal(t, test.entry.Type, h.Type)
		assert.Equal(t, uint32(len(test.value)), h.ValueLen)
		valueOff := record.HeaderSize + record.EntryHeaderSize + h.KeyLen
		assert.Equal(t, test.value, dst[valueOff:valueOff+len(test.value)], "%s", test.entry.Key)
	}
}

func TestEncodeAlignment(t *testing.T) {
	var entries []record.Entry
	for i := range 12 {
		entries = append(entries, str("STR_256_"+strings.Repeat("k", i), strings.Repeat("v", i*3), 256))
		entries = append(entries, num(record.TypeInt16, "INT16_"+strings.Repeat("x", i), int64(i)))
	}
	dst := make([]byte, 4096)
	n, err := encoder.Encode(entries, dst)
	require.NoError(t, err)
	assert.Zero(t, n%record.Alignment)

	off := record.HeaderSize
	for i := range entries {
		require.Zero(t, off%record.Alignment, "entry %d starts at %d", i, off)
		h, err := record.DecodeEntryHeader(dst[off:n])
		require.NoError(t, err)
		end := off + record.EntryHeaderSize + h.KeyLen + int(h.ValueLen)
		next := record.AlignUp(end)
		assert.Equal(t, make([]byte, next-end), dst[end:next], "padding of entry %d", i)
		off = next
	}
	assert.Equal(t, n, off)
}

func TestEncodeDeterministic(t *testing.T) {
	entries := []record.Entry{
		str("STR_64_a", "hello", 64),
		num(record.TypeInt32, "INT32_b", -123456),
		num(record.TypeUint16, "UINT16_a", 7),
	}
	a := make([]byte, 256)
	b := bytes.Repeat([]byte{0xAA}, 256)
	na, err := encoder.Encode(entries, a)
	require.NoError(t, err)
	nb, err := encoder.Encode(entries, b)
	require.NoError(t, err)
	assert.Equal(t, a[:na], b[:nb])
}

func TestEncodeBufferTooSmall(t *testing.T) {
	entries := []record.Entry{
		str("STR_32_name", "bob", 32),
		num(record.TypeUint16, "UINT16_age", 41),
	}
	size, err := encoder.Size(entries)
	require.NoError(t, err)

	for _, capacity := range []int{0, 4, record.HeaderSize, record.HeaderSize + 10, size - 1} {
		dst := make([]byte, capacity)
		n, err := encoder.Encode(entries, dst)
		assert.ErrorIs(t, err, derrors.BufferTooSmall, "capacity %d", capacity)
		assert.Zero(t, n)
		assert.Equal(t, make([]byte, capacity), dst, "capacity %d: partial output must be cleared", capacity)
	}

	n, err := encoder.Encode(entries, make([]byte, size))
	require.NoError(t, err)
	assert.Equal(t, size, n)
}

func TestEncodeRejectsInvalidEntries(t *testing.T) {
	longKey := "STR_32_" + strings.Repeat("k", record.MaxKeyLen)
	tests := []struct {
		name  string
		entry record.Entry
	}{
		{"long key", str(longKey, "v", 32)},
		{"long string", str("STR_32_a", strings.Repeat("v", 33), 32)},
		{"unknown type", record.Entry{Type: 9, Key: []byte("X")}},
		{"width mismatch", record.Entry{Type: record.TypeInt32, Key: []byte("INT32_a"), Width: 2}},
		{"int16 overflow", num(record.TypeInt16, "INT16_a", 40000)},
		{"uint32 negative", num(record.TypeUint32, "UINT32_a", -1)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// The valid leading entry must not be written either.
			entries := []record.Entry{num(record.TypeInt16, "INT16_ok", 1), test.entry}
			dst := make([]byte, 4096)
			n, err := encoder.Encode(entries, dst)
			assert.ErrorIs(t, err, derrors.TypeOrRange)
			assert.Zero(t, n)
			assert.Equal(t, make([]byte, len(dst)), dst)

			_, err = encoder.Size(entries)
			assert.ErrorIs(t, err, derrors.TypeOrRange)
		})
	}
}
