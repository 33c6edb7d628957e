package packing

import (
	"testing"

	"github.com/ajitpratap0/jonx/pkg/column"
	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	"github.com/ajitpratap0/jonx/pkg/types"
	"github.com/ajitpratap0/jonx/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustColumn(t *testing.T, tag types.Tag, vals ...value.Value) *column.Column {
	t.Helper()
	c, err := column.FromValues("f", tag, vals)
	require.NoError(t, err)
	return c
}

func TestPackLayouts(t *testing.T) {
	tests := []struct {
		name string
		col  func(t *testing.T) *column.Column
		meta Meta
		want []byte
	}{
		{
			name: "int32",
			col: func(t *testing.T) *column.Column {
				return mustColumn(t, types.Of(types.Int32), value.Int(1), value.Int(2), value.Int(3))
			},
			want: []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0},
		},
		{
			name: "int8 negative",
			col: func(t *testing.T) *column.Column {
				return mustColumn(t, types.Of(types.Int8), value.Int(-1), value.Int(10))
			},
			want: []byte{0xff, 0x0a},
		},
		{
			name: "float32",
			col: func(t *testing.T) *column.Column {
				return mustColumn(t, types.Of(types.Float32), value.Float(1.5), value.Float(2.5))
			},
			want: []byte{0x00, 0x00, 0xc0, 0x3f, 0x00, 0x00, 0x20, 0x40},
		},
		{
			name: "float16",
			col: func(t *testing.T) *column.Column {
				return mustColumn(t, types.Of(types.Float16), value.Float(1.5))
			},
			want: []byte{0x00, 0x3e},
		},
		{
			name: "bool",
			col: func(t *testing.T) *column.Column {
				return mustColumn(t, types.Of(types.Bool), value.Bool(true), value.Bool(false))
			},
			want: []byte{1, 0},
		},
		{
			name: "enum",
			col: func(t *testing.T) *column.Column {
				return mustColumn(t, types.Of(types.Enum), value.String("a"), value.String("b"), value.String("a"))
			},
			meta: Meta{Mapping: map[string]int{"a": 0, "b": 1}},
			want: []byte("[0,1,0]"),
		},
		{
			name: "string",
			col: func(t *testing.T) *column.Column {
				return mustColumn(t, types.Of(types.String), value.String("a"), value.String("b"))
			},
			want: []byte(`["a","b"]`),
		},
		{
			name: "binary",
			col: func(t *testing.T) *column.Column {
				return mustColumn(t, types.Of(types.Binary), value.Bytes([]byte("hi")))
			},
			want: []byte(`["aGk="]`),
		},
		{
			name: "nullable int32",
			col: func(t *testing.T) *column.Column {
				return mustColumn(t, types.NullableOf(types.Int32), value.Int(1), value.Null(), value.Int(3))
			},
			want: []byte{0x02, 1, 0, 0, 0, 3, 0, 0, 0},
		},
		{
			name: "all null",
			col: func(t *testing.T) *column.Column {
				return mustColumn(t, types.NullableOf(types.Unknown), value.Null(), value.Null(), value.Null())
			},
			want: []byte{0x07},
		},
		{
			name: "nullable bool has no sentinel",
			col: func(t *testing.T) *column.Column {
				return mustColumn(t, types.NullableOf(types.Bool), value.Null(), value.Bool(true))
			},
			want: []byte{0x01, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Pack(tt.col(t), tt.meta)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tag  types.Tag
		vals []value.Value
	}{
		{"int16", types.Of(types.Int16), []value.Value{value.Int(-300), value.Int(300)}},
		{"int64", types.Of(types.Int64), []value.Value{value.Int(-1 << 62), value.Int(1)}},
		{"uint8", types.Of(types.Uint8), []value.Value{value.Int(0), value.Int(255)}},
		{"uint64", types.Of(types.Uint64), []value.Value{value.Uint(1<<64 - 1)}},
		{"float64", types.Of(types.Float64), []value.Value{value.Float(3.141592653589793)}},
		{"timestamp", types.Of(types.TimestampMs), []value.Value{value.Int(1700000000000)}},
		{"uuid", types.Of(types.UUID), []value.Value{value.String("123e4567-e89b-12d3-a456-426614174000")}},
		{"date", types.Of(types.Date), []value.Value{value.String("2024-01-31")}},
		{"datetime", types.Of(types.Datetime), []value.Value{value.String("2024-01-31T10:00:00Z")}},
		{"string dict", types.Of(types.StringDict), []value.Value{value.String("x"), value.String("y"), value.String("x")}},
		{"json", types.Of(types.JSON), []value.Value{value.Int(1), value.Object(value.Member{Key: "k", Value: value.Null()})}},
		{"nullable string", types.NullableOf(types.String), []value.Value{value.Null(), value.String("a"), value.Null()}},
		{"nullable enum", types.NullableOf(types.Enum), []value.Value{value.String("a"), value.Null(), value.String("a")}},
		{"nullable float16", types.NullableOf(types.Float16), []value.Value{value.Float(0.5), value.Null()}},
		{"nullable json", types.NullableOf(types.JSON), []value.Value{value.Null(), value.Array()}},
		{"nullable unknown", types.NullableOf(types.Unknown), []value.Value{value.Null()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := mustColumn(t, tt.tag, tt.vals...)
			meta := Meta{Mapping: BuildMapping(col)}

			data, err := Pack(col, meta)
			require.NoError(t, err)

			back, err := Unpack("f", tt.tag, data, meta, len(tt.vals))
			require.NoError(t, err)
			require.Equal(t, len(tt.vals), back.Len())
			for i, want := range tt.vals {
				assert.True(t, value.Equal(want, back.Value(i)), "row %d: want %s got %s", i, want, back.Value(i))
			}

			guessed, err := Unpack("f", tt.tag, data, meta, UnknownRows)
			require.NoError(t, err)
			assert.Equal(t, len(tt.vals), guessed.Len())
		})
	}
}

func TestFloat16IsLossy(t *testing.T) {
	col := mustColumn(t, types.Of(types.Float16), value.Float(1.23))
	data, err := Pack(col, Meta{})
	require.NoError(t, err)

	back, err := Unpack("f", types.Of(types.Float16), data, Meta{}, UnknownRows)
	require.NoError(t, err)
	assert.InDelta(t, 1.23, back.Floats[0], 0.001)
}

func TestPackErrors(t *testing.T) {
	big := mustColumn(t, types.Of(types.Int8), value.Int(200))
	_, err := Pack(big, Meta{})
	assert.True(t, jonxerrors.IsEncode(err))

	enum := mustColumn(t, types.Of(types.Enum), value.String("a"))
	_, err = Pack(enum, Meta{})
	assert.True(t, jonxerrors.IsEncode(err))

	_, err = Pack(enum, Meta{Mapping: map[string]int{"b": 0}})
	assert.True(t, jonxerrors.IsEncode(err))

	f16 := mustColumn(t, types.Of(types.Float16), value.Float(70000))
	_, err = Pack(f16, Meta{})
	assert.True(t, jonxerrors.IsEncode(err))
}

func TestUnpackErrors(t *testing.T) {
	tests := []struct {
		name string
		tag  types.Tag
		data []byte
		meta Meta
		rows int
	}{
		{"width mismatch", types.Of(types.Int32), []byte{1, 2, 3}, Meta{}, UnknownRows},
		{"bad bool", types.Of(types.Bool), []byte{2}, Meta{}, UnknownRows},
		{"bad json", types.Of(types.String), []byte(`["a"`), Meta{}, UnknownRows},
		{"bad uuid", types.Of(types.UUID), []byte(`["nope"]`), Meta{}, UnknownRows},
		{"bad date", types.Of(types.Date), []byte(`["2024-99-01"]`), Meta{}, UnknownRows},
		{"unknown index", types.Of(types.Enum), []byte(`[0,5]`), Meta{Mapping: map[string]int{"a": 0}}, UnknownRows},
		{"missing mapping", types.Of(types.StringDict), []byte(`[0]`), Meta{}, UnknownRows},
		{"short bitmap", types.NullableOf(types.Uint8), []byte{}, Meta{}, 9},
		{"count mismatch", types.NullableOf(types.Uint8), []byte{0x00, 1, 2}, Meta{}, 3},
		{"no candidate", types.NullableOf(types.Int32), []byte{0x00, 1, 2}, Meta{}, UnknownRows},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unpack("f", tt.tag, tt.data, tt.meta, tt.rows)
			require.Error(t, err)
			assert.True(t, jonxerrors.IsDecode(err), "got %v", err)
		})
	}
}

func TestRowCandidates(t *testing.T) {
	assert.Equal(t, []int{3}, RowCandidates([]byte{0x02, 1, 3}, types.NullableOf(types.Uint8), Meta{}))
	assert.Equal(t, []int{2}, RowCandidates([]byte{1, 0, 0, 0, 2, 0, 0, 0}, types.Of(types.Int32), Meta{}))
	assert.Equal(t, []int{3}, RowCandidates([]byte{0x07}, types.NullableOf(types.Unknown), Meta{}))
	assert.Nil(t, RowCandidates([]byte{1, 2, 3}, types.Of(types.Int32), Meta{}))
}

func TestBuildMapping(t *testing.T) {
	col := mustColumn(t, types.NullableOf(types.Enum),
		value.String("b"), value.Null(), value.String("a"), value.String("b"))
	mapping := BuildMapping(col)
	assert.Equal(t, map[string]int{"b": 0, "a": 1}, mapping)

	values, ok := MappingValues(mapping)
	assert.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, values)

	_, ok = MappingValues(map[string]int{"a": 0, "b": 2})
	assert.False(t, ok)

	assert.Nil(t, BuildMapping(mustColumn(t, types.Of(types.String), value.String("x"))))
}
