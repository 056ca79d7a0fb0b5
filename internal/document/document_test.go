package document_test

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/MikhailWahib/bjson/internal/derrors"
	"github.com/MikhailWahib/bjson/internal/document"
	"github.com/MikhailWahib/bjson/internal/encoder"
	"github.com/MikhailWahib/bjson/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(key, val string) record.Entry {
	return record.Entry{Type: record.TypeString, Key: []byte(key), Str: []byte(val), MaxLen: 256}
}

func num(typ record.Type, key string, v int64) record.Entry {
	return record.Entry{Type: typ, Key: []byte(key), Int: v, Width: typ.Width()}
}

func encode(t testing.TB, entries ...record.Entry) []byte {
	t.Helper()
	buf := make([]byte, 4096)
	n, err := encoder.Encode(entries, buf)
	require.NoError(t, err)
	return buf[:n]
}

func sample(t testing.TB) []byte {
	return encode(t,
		str("STR_32_name", "bob"),
		num(record.TypeUint16, "UINT16_age", 41),
		num(record.TypeInt16, "INT16_temp", -5),
		num(record.TypeInt32, "INT32_off", -100000),
		num(record.TypeUint32, "UINT32_id", 4000000000),
		str("STR_64_empty", ""),
	)
}

func TestOpen(t *testing.T) {
	doc, err := document.Open(sample(t))
	require.NoError(t, err)
	assert.Equal(t, uint32(6), doc.Count())
	major, minor := doc.Version()
	assert.Equal(t, byte(1), major)
	assert.Equal(t, byte(1), minor)
}

func TestOpenErrors(t *testing.T) {
	_, err := document.Open(nil)
	assert.ErrorIs(t, err, derrors.BadMagic)
	assert.ErrorIs(t, err, derrors.InvalidArgument)

	_, err = document.Open([]byte("BJSN\x01\x01\x00\x00\x00\x00\x00"))
	assert.ErrorIs(t, err, derrors.BadMagic)

	_, err = document.Open([]byte("JSON\x01\x01\x00\x00\x00\x00\x00\x00"))
	assert.ErrorIs(t, err, derrors.BadMagic)
	assert.False(t, errors.Is(err, derrors.InvalidArgument))

	// Version bytes are not validated.
	doc, err := document.Open([]byte("BJSN\x07\x09\x00\x00\x00\x00\x00\x00"))
	require.NoError(t, err)
	major, minor := doc.Version()
	assert.Equal(t, byte(7), major)
	assert.Equal(t, byte(9), minor)
}

func TestFind(t *testing.T) {
	buf := sample(t)
	doc, err := document.Open(buf)
	require.NoError(t, err)

	e, ok := doc.Find([]byte("STR_32_name"))
	require.True(t, ok)
	assert.Equal(t, 0, e.Index)
	assert.Equal(t, record.TypeString, e.Type)
	assert.Equal(t, "STR_32_name", string(e.Key))
	assert.Equal(t, "bob", string(e.Value))
	assert.Equal(t, len(e.Value), cap(e.Value), "value capacity must be clipped")

	e, ok = doc.FindString("UINT32_id")
	require.True(t, ok)
	assert.Equal(t, 4, e.Index)

	_, ok = doc.FindString("STR_32_nam")
	assert.False(t, ok)
	_, ok = doc.Find(nil)
	assert.False(t, ok)
}

func TestFindBorrowsBuffer(t *testing.T) {
	buf := sample(t)
	before := append([]byte(nil), buf...)
	doc, err := document.Open(buf)
	require.NoError(t, err)

	e, ok := doc.FindString("STR_32_name")
	require.True(t, ok)
	_ = append(e.Value, "XXXX"...)
	assert.Equal(t, before, buf, "appending to a borrowed view must not modify the document")

	e.Value[0] = 'c'
	s, err := doc.GetString("STR_32_name")
	require.NoError(t, err)
	assert.Equal(t, "cob", string(s))
}

func TestFindFirstMatch(t *testing.T) {
	doc, err := document.Open(encode(t,
		num(record.TypeInt16, "INT16_a", 1),
		num(record.TypeInt16, "INT16_a", 2),
	))
	require.NoError(t, err)
	v, err := doc.GetI32("INT16_a")
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)
}

func TestGetters(t *testing.T) {
	doc, err := document.Open(sample(t))
	require.NoError(t, err)

	i, err := doc.GetI32("INT16_temp")
	require.NoError(t, err)
	assert.Equal(t, int32(-5), i)

	i, err = doc.GetI32("INT32_off")
	require.NoError(t, err)
	assert.Equal(t, int32(-100000), i)

	u, err := doc.GetU32("UINT16_age")
	require.NoError(t, err)
	assert.Equal(t, uint32(41), u)

	u, err = doc.GetU32("UINT32_id")
	require.NoError(t, err)
	assert.Equal(t, uint32(4000000000), u)

	s, err := doc.GetString("STR_32_name")
	require.NoError(t, err)
	assert.Equal(t, "bob", string(s))

	s, err = doc.GetString("STR_64_empty")
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestGetterErrors(t *testing.T) {
	doc, err := document.Open(sample(t))
	require.NoError(t, err)

	_, err = doc.GetI32("INT16_missing")
	assert.ErrorIs(t, err, derrors.NotFound)
	_, err = doc.GetU32("UINT16_missing")
	assert.ErrorIs(t, err, derrors.NotFound)
	_, err = doc.GetString("STR_32_missing")
	assert.ErrorIs(t, err, derrors.NotFound)

	_, err = doc.GetI32("UINT16_age")
	assert.ErrorIs(t, err, derrors.TypeOrRange)
	_, err = doc.GetI32("STR_32_name")
	assert.ErrorIs(t, err, derrors.TypeOrRange)
	_, err = doc.GetU32("INT32_off")
	assert.ErrorIs(t, err, derrors.TypeOrRange)
	_, err = doc.GetString("INT16_temp")
	assert.ErrorIs(t, err, derrors.TypeOrRange)
}

func TestGetI32BadLength(t *testing.T) {
	buf := encode(t, num(record.TypeInt16, "INT16_a", 1), num(record.TypeInt32, "INT32_b", 1))
	// Rewrite the first entry to claim a 4-byte I16 value; the entry still
	// fits inside the buffer.
	binary.LittleEndian.PutUint32(buf[record.HeaderSize+4:], 4)
	doc, err := document.Open(buf)
	require.NoError(t, err)
	_, err = doc.GetI32("INT16_a")
	assert.ErrorIs(t, err, derrors.TypeOrRange)
}

func TestEntries(t *testing.T) {
	doc, err := document.Open(sample(t))
	require.NoError(t, err)

	var keys []string
	for i, e := range doc.Entries() {
		assert.Equal(t, len(keys), i)
		keys = append(keys, string(e.Key))
	}
	assert.Equal(t, []string{"STR_32_name", "UINT16_age", "INT16_temp", "INT32_off", "UINT32_id", "STR_64_empty"}, keys)

	n := 0
	for range doc.Entries() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestEntryInt(t *testing.T) {
	doc, err := document.Open(sample(t))
	require.NoError(t, err)
	want := map[string]int64{"UINT16_age": 41, "INT16_temp": -5, "INT32_off": -100000, "UINT32_id": 4000000000}
	for _, e := range doc.Entries() {
		v, err := e.Int()
		if e.Type == record.TypeString {
			assert.ErrorIs(t, err, derrors.TypeOrRange)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, want[string(e.Key)], v)
	}
}

func TestWalk(t *testing.T) {
	doc, err := document.Open(sample(t))
	require.NoError(t, err)

	var n int
	require.NoError(t, doc.Walk(func(e document.Entry) error {
		assert.Equal(t, n, e.Index)
		n++
		return nil
	}))
	assert.Equal(t, 6, n)

	stop := errors.New("stop")
	n = 0
	err = doc.Walk(func(document.Entry) error {
		n++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

func TestTruncated(t *testing.T) {
	full := sample(t)
	second := record.HeaderSize + record.EncodedSize(len("STR_32_name"), 3)

	tests := []struct {
		name    string
		buf     []byte
		visible int
	}{
		{"header only", full[:record.HeaderSize], 0},
		{"partial entry header", full[:record.HeaderSize+5], 0},
		{"partial payload", full[:record.HeaderSize+10], 0},
		{"second entry cut", full[:second+9], 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc, err := document.Open(test.buf)
			require.NoError(t, err)

			var visited int
			err = doc.Walk(func(document.Entry) error { visited++; return nil })
			assert.ErrorIs(t, err, derrors.Truncated)
			assert.Equal(t, test.visible, visited)

			visited = 0
			for range doc.Entries() {
				visited++
			}
			assert.Equal(t, test.visible, visited)

			_, ok := doc.FindString("STR_64_empty")
			assert.False(t, ok)
		})
	}
}

func TestHostileLengths(t *testing.T) {
	buf := encode(t, str("STR_32_a", "abc"))
	binary.LittleEndian.PutUint32(buf[record.HeaderSize+4:], 0xFFFFFFFF)
	doc, err := document.Open(buf)
	require.NoError(t, err)
	_, ok := doc.FindString("STR_32_a")
	assert.False(t, ok)

	buf = encode(t, str("STR_32_a", "abc"))
	buf[record.HeaderSize+1] = 0xFF
	doc, err = document.Open(buf)
	require.NoError(t, err)
	_, ok = doc.FindString("STR_32_a")
	assert.False(t, ok)

	// A count larger than the entry stream stops at the end of the buffer.
	buf = encode(t, str("STR_32_a", "abc"))
	record.PutCount(buf, 1000)
	doc, err = document.Open(buf)
	require.NoError(t, err)
	_, ok = doc.FindString("STR_32_b")
	assert.False(t, ok)
	assert.ErrorIs(t, doc.Walk(func(document.Entry) error { return nil }), derrors.Truncated)
}

func TestMaxCount(t *testing.T) {
	buf := sample(t)
	for _, count := range []uint32{1 << 31, math.MaxUint32} {
		record.PutCount(buf, count)
		doc, err := document.Open(buf)
		require.NoError(t, err)
		assert.Equal(t, count, doc.Count())

		var keys []string
		for _, e := range doc.Entries() {
			keys = append(keys, string(e.Key))
		}
		assert.Len(t, keys, 6, "count %d", count)

		visited := 0
		err = doc.Walk(func(document.Entry) error { visited++; return nil })
		assert.ErrorIs(t, err, derrors.Truncated)
		assert.Equal(t, 6, visited)

		id, err := doc.GetU32("UINT32_id")
		require.NoError(t, err)
		assert.Equal(t, uint32(4000000000), id)
	}
}

func TestEntriesAligned(t *testing.T) {
	var entries []record.Entry
	for i := range 9 {
		entries = append(entries, str("STR_256_"+strings.Repeat("k", i), strings.Repeat("v", 2*i+1)))
	}
	buf := encode(t, entries...)
	doc, err := document.Open(buf)
	require.NoError(t, err)
	off := record.HeaderSize
	for _, e := range doc.Entries() {
		require.Zero(t, off%record.Alignment, "entry %d at %d", e.Index, off)
		keyOff := off + record.EntryHeaderSize
		assert.Equal(t, e.Key, buf[keyOff:keyOff+len(e.Key)])
		off = record.AlignUp(keyOff + len(e.Key) + len(e.Value))
	}
	assert.Equal(t, len(buf), off)
}

func FuzzDocument(f *testing.F) {
	f.Add(sample(f))
	f.Add(encode(f))
	f.Add([]byte("BJSN\x01\x01\x00\x00\xff\xff\xff\xff\x01\xff\x00\x00\xff\xff\xff\xff"))
	f.Add([]byte("BJSN"))
	f.Fuzz(func(t *testing.T, buf []byte) {
		doc, err := document.Open(buf)
		if err != nil {
			return
		}
		for _, e := range doc.Entries() {
			if len(e.Key) > record.MaxKeyLen {
				t.Fatalf("key of %d bytes", len(e.Key))
			}
			found, ok := doc.Find(e.Key)
			if !ok || found.Index > e.Index {
				t.Fatalf("Find(%q) = %d, %v; entry %d has that key", e.Key, found.Index, ok, e.Index)
			}
			_, _ = e.Int()
			_, _ = doc.GetI32(string(e.Key))
			_, _ = doc.GetU32(string(e.Key))
			_, _ = doc.GetString(string(e.Key))
		}
		_ = doc.Walk(func(document.Entry) error { return nil })
	})
}
