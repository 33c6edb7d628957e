package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsOrderAndKinds(t *testing.T) {
	v, err := Parse([]byte(`[{"price": 10, "name": "a", "ratio": 1.5, "ok": true, "none": null}]`))
	require.NoError(t, err)

	rows, ok := v.AsArray()
	require.True(t, ok)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, []string{"price", "name", "ratio", "ok", "none"}, row.Keys())

	price, _ := row.Get("price")
	assert.Equal(t, KindInt, price.Kind())
	ratio, _ := row.Get("ratio")
	assert.Equal(t, KindFloat, ratio.Kind())
	ok2, _ := row.Get("ok")
	assert.Equal(t, KindBool, ok2.Kind())
	none, _ := row.Get("none")
	assert.True(t, none.IsNull())
}

func TestParseNumbers(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
	}{
		{"1", KindInt},
		{"-7", KindInt},
		{"2.0", KindFloat},
		{"1e3", KindFloat},
		{"18446744073709551615", KindUint},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
		})
	}

	_, err := Parse([]byte("184467440737095516150"))
	assert.Error(t, err)
}

func TestParseEscapes(t *testing.T) {
	v, err := Parse([]byte(`{"a\"b": "line\nbreak é"}`))
	require.NoError(t, err)

	s, ok := v.Get(`a"b`)
	require.True(t, ok)
	str, _ := s.AsString()
	assert.Equal(t, "line\nbreak é", str)
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"", "   ", "[1,", `{"a":}`, "[1]]", `"a" "b"`} {
		_, err := Parse([]byte(input))
		assert.Error(t, err, "input %q", input)
	}
}

func TestDuplicateKeysKeepFirstPosition(t *testing.T) {
	v, err := Parse([]byte(`{"a":1,"b":2,"a":3}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v.Keys())
	a, _ := v.Get("a")
	assert.True(t, Equal(Int(3), a))
}

func TestMarshalJSON(t *testing.T) {
	v := Object(
		Member{Key: "z", Value: Int(1)},
		Member{Key: "a", Value: Float(2)},
		Member{Key: "s", Value: String("x\"y")},
		Member{Key: "b", Value: Bytes([]byte("hi"))},
		Member{Key: "l", Value: Array(Null(), Bool(true), Float(0.5))},
	)

	data, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":2.0,"s":"x\"y","b":"aGk=","l":[null,true,0.5]}`, string(data))

	_, err = Float(math.NaN()).MarshalJSON()
	assert.Error(t, err)
}

func TestMarshalParseRoundTrip(t *testing.T) {
	v := Array(
		Object(Member{Key: "k", Value: Float(1e300)}),
		Uint(math.MaxUint64),
		Int(math.MinInt64),
		String("ünïcode"),
	)
	data, err := v.MarshalJSON()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.True(t, Equal(v, back), "got %s", back)
}

func TestUintNormalization(t *testing.T) {
	assert.Equal(t, KindInt, Uint(5).Kind())
	assert.True(t, Equal(Int(5), Uint(5)))

	u, ok := Int(5).AsUint()
	assert.True(t, ok)
	assert.Equal(t, uint64(5), u)

	_, ok = Int(-1).AsUint()
	assert.False(t, ok)
}

func TestFromInterface(t *testing.T) {
	v, err := FromInterface(map[string]interface{}{"b": 1, "a": []interface{}{"x", nil, 2.5}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v.Keys())
	assert.Equal(t, map[string]interface{}{"a": []interface{}{"x", nil, 2.5}, "b": int64(1)}, v.Interface())

	_, err = FromInterface(struct{}{})
	assert.Error(t, err)
}

func TestFormatFloat(t *testing.T) {
	tests := map[float64]string{
		7.5:     "7.5",
		3:       "3.0",
		-0.25:   "-0.25",
		1e21:    "1e+21",
		1.5e-7:  "1.5e-07",
		1234567: "1234567.0",
	}
	for in, want := range tests {
		got, err := FormatFloat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
