// Package dump prints binary documents in a human-readable form.
package dump

import (
	"errors"
	"fmt"
	"io"

	"github.com/MikhailWahib/bjson/internal/derrors"
	"github.com/MikhailWahib/bjson/internal/document"
	"github.com/MikhailWahib/bjson/internal/log"
	"github.com/MikhailWahib/bjson/internal/record"
)

const (
	// DefaultValueLimit is used when Options.ValueLimit is zero.
	DefaultValueLimit = 1024
	// MaxKeyLen is the number of key bytes printed per entry.
	MaxKeyLen = 64
)

// Options controls the output of Document.
type Options struct {
	// ValueLimit caps the bytes printed per string value.
	ValueLimit int
}

// Document writes one line per entry of the document in buf to w, framed by
// a header and a trailer line.
//
// Malformed entries are reported as warnings and skipped. A truncated entry
// stream ends the listing early with a warning; it is not an error.
func Document(w io.Writer, buf []byte, opts Options) (err error) {
	defer derrors.Wrap(&err, "dump.Document")

	doc, err := document.Open(buf)
	if err != nil {
		return err
	}
	limit := opts.ValueLimit
	if limit <= 0 {
		limit = DefaultValueLimit
	}

	if _, err := fmt.Fprintf(w, "---- BJSON Document Dump (count=%d) ----\n", doc.Count()); err != nil {
		return err
	}
	err = doc.Walk(func(e document.Entry) error {
		return entry(w, e, limit)
	})
	if errors.Is(err, derrors.Truncated) {
		log.Warningf("dump: %v", err)
	} else if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, "---- Dump End ----")
	return err
}

func entry(w io.Writer, e document.Entry, limit int) error {
	key := e.Key
	if len(key) > MaxKeyLen {
		key = key[:MaxKeyLen]
	}
	switch {
	case e.Type == record.TypeString:
		v := e.Value
		if len(v) > limit {
			v = v[:limit]
		}
		_, err := fmt.Fprintf(w, "%s = \"%s\"\n", key, v)
		return err
	case e.Type.IsInteger():
		v, err := e.Int()
		if err != nil {
			log.Warningf("dump: %s: bad %s len=%d", key, e.Type, len(e.Value))
			return nil
		}
		_, err = fmt.Fprintf(w, "%s = %d\n", key, v)
		return err
	default:
		log.Warningf("dump: %s = (unknown type %d, len=%d)", key, byte(e.Type), len(e.Value))
		return nil
	}
}
