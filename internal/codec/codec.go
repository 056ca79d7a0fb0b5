// Package codec runs the text to binary pipeline: every call parses into a
// fresh arena, encodes, and releases the arena before returning.
package codec

import (
	"bytes"

	"github.com/MikhailWahib/bjson/internal/arena"
	"github.com/MikhailWahib/bjson/internal/config"
	"github.com/MikhailWahib/bjson/internal/derrors"
	"github.com/MikhailWahib/bjson/internal/encoder"
	"github.com/MikhailWahib/bjson/internal/parser"
	"github.com/MikhailWahib/bjson/internal/record"
)

// Codec encodes text documents with a fixed configuration. It holds no
// per-call state and is safe for concurrent use.
type Codec struct {
	cfg config.Config
}

// New returns a Codec using cfg. A nil cfg selects the defaults; zero fields
// of a non-nil cfg are filled with defaults.
func New(cfg *config.Config) *Codec {
	c := &Codec{}
	if cfg == nil {
		c.cfg = *config.DefaultConfig()
	} else {
		c.cfg = *cfg
		c.cfg.FillDefaults()
	}
	return c
}

// Config returns a copy of the codec's configuration.
func (c *Codec) Config() config.Config { return c.cfg }

func (c *Codec) parse(a *arena.Arena, text []byte) ([]record.Entry, error) {
	return parser.Parse(text, a, parser.Options{Strict: c.cfg.StrictKeys})
}

// Encode parses text and writes its binary document into dst, whose length
// is the capacity. It returns the number of bytes written.
func (c *Codec) Encode(text, dst []byte) (n int, err error) {
	defer derrors.Wrap(&err, "Encode(%d bytes)", len(text))

	if dst == nil {
		return 0, derrors.InvalidArgument
	}
	a := arena.New(c.cfg.ArenaCapacity)
	defer a.Release()

	entries, err := c.parse(a, text)
	if err != nil {
		return 0, err
	}
	return encoder.Encode(entries, dst)
}

// Marshal is like Encode but allocates an output buffer of the configured
// capacity and returns the encoded document.
func (c *Codec) Marshal(text []byte) ([]byte, error) {
	buf := make([]byte, c.cfg.OutputCapacity)
	n, err := c.Encode(text, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n:n], nil
}

// Entries parses text without encoding it. The returned entries own their
// bytes and stay valid after the call.
func (c *Codec) Entries(text []byte) (_ []record.Entry, err error) {
	defer derrors.Wrap(&err, "Entries(%d bytes)", len(text))

	a := arena.New(c.cfg.ArenaCapacity)
	defer a.Release()

	entries, err := c.parse(a, text)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Key = bytes.Clone(entries[i].Key)
		if entries[i].Str != nil {
			entries[i].Str = bytes.Clone(entries[i].Str)
		}
	}
	return entries, nil
}
