package jonxerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(TypeDecode, "column payload truncated").
		WithField("price").
		WithSizes(8, 5)

	assert.Equal(t, "decode: column payload truncated (actual=5, expected=8, field=price)", err.Error())
	assert.NotEmpty(t, err.Stack)

	field, ok := err.Detail(DetailField)
	require.True(t, ok)
	assert.Equal(t, "price", field)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("short read")
	err := Wrap(cause, TypeFile, "cannot read container").WithDetail(DetailPath, "/tmp/x.jonx")

	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsFile(err))
	assert.Contains(t, err.Error(), "short read")
	assert.Nil(t, Wrap(nil, TypeFile, "ignored"))
}

func TestWrapKeepsStackOfTypedError(t *testing.T) {
	inner := New(TypeDecode, "bad magic")
	outer := Wrap(inner, TypeFile, "open failed")

	assert.Equal(t, inner.Stack, outer.Stack)
	assert.Equal(t, TypeFile, TypeOf(outer))
}

func TestEnsure(t *testing.T) {
	typed := New(TypeSchema, "ragged rows")
	assert.Same(t, typed, Ensure(typed, TypeEncode, "unused"))

	plain := errors.New("boom")
	wrapped := Ensure(plain, TypeEncode, "encode failed")
	assert.True(t, IsEncode(wrapped))
	assert.Nil(t, Ensure(nil, TypeEncode, "unused"))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		errType ErrorType
		check   func(error) bool
	}{
		{TypeValidation, IsValidation},
		{TypeSchema, IsSchema},
		{TypeEncode, IsEncode},
		{TypeDecode, IsDecode},
		{TypeFile, IsFile},
		{TypeIndex, IsIndex},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			err := fmt.Errorf("outer: %w", New(tt.errType, "x"))
			assert.True(t, tt.check(err))
			assert.False(t, tt.check(errors.New("plain")))
			assert.False(t, tt.check(nil))
		})
	}
}
