package column

import (
	"testing"

	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	"github.com/ajitpratap0/jonx/pkg/types"
	"github.com/ajitpratap0/jonx/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromValuesRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tag  types.Tag
		vals []value.Value
	}{
		{"int8", types.Of(types.Int8), []value.Value{value.Int(-1), value.Int(10)}},
		{"uint64", types.Of(types.Uint64), []value.Value{value.Uint(1 << 63), value.Int(3)}},
		{"float", types.Of(types.Float64), []value.Value{value.Float(1.5), value.Float(-2)}},
		{"bool", types.Of(types.Bool), []value.Value{value.Bool(true), value.Bool(false)}},
		{"enum", types.Of(types.Enum), []value.Value{value.String("a"), value.String("b")}},
		{"date", types.Of(types.Date), []value.Value{value.String("2024-01-02")}},
		{"binary", types.Of(types.Binary), []value.Value{value.Bytes([]byte{0, 1})}},
		{"json", types.Of(types.JSON), []value.Value{value.Array(value.Int(1)), value.String("x")}},
		{"nullable", types.NullableOf(types.Uint8), []value.Value{value.Null(), value.Int(1), value.Int(2)}},
		{"all null", types.NullableOf(types.Unknown), []value.Value{value.Null(), value.Null()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, err := FromValues("f", tt.tag, tt.vals)
			require.NoError(t, err)
			require.Equal(t, len(tt.vals), col.Len())

			got := col.Values()
			for i := range tt.vals {
				assert.True(t, value.Equal(tt.vals[i], got[i]), "row %d: want %s got %s", i, tt.vals[i], got[i])
			}
		})
	}
}

func TestFromValuesRejects(t *testing.T) {
	tests := []struct {
		name string
		tag  types.Tag
		val  value.Value
	}{
		{"null in plain column", types.Of(types.Int32), value.Null()},
		{"string in int column", types.Of(types.Int32), value.String("1")},
		{"negative in unsigned", types.Of(types.Uint8), value.Int(-1)},
		{"huge in signed", types.Of(types.Int64), value.Uint(1 << 63)},
		{"bad uuid", types.Of(types.UUID), value.String("not-a-uuid")},
		{"bad date", types.Of(types.Date), value.String("2024-02-30")},
		{"value in unknown", types.NullableOf(types.Unknown), value.Int(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromValues("f", tt.tag, []value.Value{tt.val})
			require.Error(t, err)
			assert.True(t, jonxerrors.IsEncode(err))
			var jerr *jonxerrors.Error
			require.ErrorAs(t, err, &jerr)
			field, _ := jerr.Detail(jonxerrors.DetailField)
			assert.Equal(t, "f", field)
		})
	}
}

func TestCompare(t *testing.T) {
	col, err := FromValues("ts", types.NullableOf(types.Datetime), []value.Value{
		value.String("2024-01-01T12:00:00+02:00"),
		value.Null(),
		value.String("2024-01-01T11:00:00Z"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, col.Compare(0, 1), "null sorts first")
	assert.Equal(t, -1, col.Compare(0, 2), "compared by instant")
	assert.Equal(t, 0, col.Compare(1, 1))
	assert.Equal(t, 1, col.NullCount())
}

func TestFloat(t *testing.T) {
	col, err := FromValues("n", types.NullableOf(types.Int16), []value.Value{value.Int(-3), value.Null()})
	require.NoError(t, err)

	f, ok := col.Float(0)
	assert.True(t, ok)
	assert.Equal(t, -3.0, f)

	_, ok = col.Float(1)
	assert.False(t, ok)

	s, err := FromValues("s", types.Of(types.String), []value.Value{value.String("x")})
	require.NoError(t, err)
	_, ok = s.Float(0)
	assert.False(t, ok)
}
