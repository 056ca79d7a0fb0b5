// Package arena implements the bump allocator that owns the strings of one
// parse session.
//
// An Arena hands out sub-slices of a single fixed-capacity buffer. There are
// no individual frees: everything allocated from an Arena is discarded at once
// by Release. An Arena is not safe for concurrent use; every encode call owns
// its own.
package arena

import (
	"fmt"

	"github.com/MikhailWahib/bjson/internal/derrors"
)

// Arena is a fixed-capacity bump allocator.
type Arena struct {
	buf []byte
	off int
}

// New returns an Arena that can hand out capacity bytes in total.
func New(capacity int) *Arena {
	if capacity < 0 {
		capacity = 0
	}
	return &Arena{buf: make([]byte, capacity)}
}

// Allocate returns a zeroed region of n bytes. It fails with an error
// wrapping derrors.BufferTooSmall if fewer than n bytes remain; callers treat
// that as a hard failure of the current parse.
func (a *Arena) Allocate(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("arena: negative allocation %d: %w", n, derrors.InvalidArgument)
	}
	if n > len(a.buf)-a.off {
		return nil, fmt.Errorf("arena: out of arena (want %d, %d of %d used): %w",
			n, a.off, len(a.buf), derrors.BufferTooSmall)
	}
	b := a.buf[a.off : a.off+n : a.off+n]
	a.off += n
	return b, nil
}

// Duplicate copies b and a zero terminator into the arena and returns the
// copy of b. The terminator is not part of the returned slice.
func (a *Arena) Duplicate(b []byte) ([]byte, error) {
	dst, err := a.Allocate(len(b) + 1)
	if err != nil {
		return nil, err
	}
	copy(dst, b)
	return dst[:len(b):len(b)], nil
}

// Used returns the number of bytes handed out since the last Release.
func (a *Arena) Used() int { return a.off }

// Cap returns the total capacity of the arena.
func (a *Arena) Cap() int { return len(a.buf) }

// Release discards every allocation. Regions handed out before the call
// must no longer be used: they are zeroed and will be handed out again.
func (a *Arena) Release() {
	clear(a.buf[:a.off])
	a.off = 0
}
