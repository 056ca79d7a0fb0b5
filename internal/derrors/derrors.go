// Package derrors defines the error kinds shared by the codec packages.
// Callers classify failures with errors.Is against the values below.
package derrors

import (
	"errors"
	"fmt"
)

//lint:file-ignore ST1012 prefixing error values with Err would stutter

var (
	// InvalidArgument indicates a nil or empty input.
	InvalidArgument = errors.New("invalid argument")
	// BufferTooSmall indicates that the output buffer or the parse arena
	// ran out of capacity. The caller may retry with a larger buffer.
	BufferTooSmall = errors.New("buffer too small")
	// SyntaxError indicates a grammar violation, an unknown key prefix or
	// trailing input after the closing brace.
	SyntaxError = errors.New("syntax error")
	// TypeOrRange indicates a value that does not fit the type declared by
	// its key: a string that is too long, an integer outside its width, or a
	// stored value whose type does not match the requested accessor.
	TypeOrRange = errors.New("type or range error")
	// BadMagic indicates that a buffer does not start with a document header.
	BadMagic = errors.New("bad magic")
	// NotFound indicates that a key is absent from a document. It is a
	// normal outcome of a lookup, not a fault.
	NotFound = errors.New("not found")
	// Truncated indicates that an entry stream ends before its declared
	// entry count, or that its declared lengths point outside the buffer.
	Truncated = errors.New("truncated document")
)

// Wrap adds context to the error and allows
// unwrapping the result to recover the original error.
//
// Example:
//
//	defer derrors.Wrap(&err, "Read(%q)", path)
func Wrap(errp *error, format string, args ...any) {
	if *errp != nil {
		*errp = fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), *errp)
	}
}

// Kind returns the error kind err wraps, or nil if err is nil or wraps none
// of the kinds defined in this package. When err wraps several kinds, the
// most specific one wins: a short buffer reports BadMagic rather than
// InvalidArgument.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

var kinds = []error{NotFound, BadMagic, Truncated, BufferTooSmall, TypeOrRange, SyntaxError, InvalidArgument}
