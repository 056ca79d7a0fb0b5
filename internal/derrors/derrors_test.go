package derrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/MikhailWahib/bjson/internal/derrors"
	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	var err error = fmt.Errorf("offset 3: %w", derrors.SyntaxError)
	derrors.Wrap(&err, "Parse(%d bytes)", 10)

	assert.EqualError(t, err, "Parse(10 bytes): offset 3: syntax error")
	assert.True(t, errors.Is(err, derrors.SyntaxError))
}

func TestWrapNil(t *testing.T) {
	var err error
	derrors.Wrap(&err, "unused")
	assert.NoError(t, err)
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{nil, nil},
		{errors.New("other"), nil},
		{fmt.Errorf("x: %w", derrors.BufferTooSmall), derrors.BufferTooSmall},
		{fmt.Errorf("y: %w", fmt.Errorf("z: %w", derrors.TypeOrRange)), derrors.TypeOrRange},
		{derrors.BadMagic, derrors.BadMagic},
		{fmt.Errorf("short: %w: %w", derrors.BadMagic, derrors.InvalidArgument), derrors.BadMagic},
		{errors.Join(errors.New("io"), fmt.Errorf("a: %w", derrors.SyntaxError)), derrors.SyntaxError},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, derrors.Kind(test.err), "Kind(%v)", test.err)
	}
}
