package types

import (
	"fmt"
	"testing"

	"github.com/ajitpratap0/jonx/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func ints(xs ...int64) []value.Value {
	out := make([]value.Value, len(xs))
	for i, x := range xs {
		out[i] = value.Int(x)
	}
	return out
}

func floats(xs ...float64) []value.Value {
	out := make([]value.Value, len(xs))
	for i, x := range xs {
		out[i] = value.Float(x)
	}
	return out
}

func strs(xs ...string) []value.Value {
	out := make([]value.Value, len(xs))
	for i, x := range xs {
		out[i] = value.String(x)
	}
	return out
}

func TestDetectLadder(t *testing.T) {
	tests := []struct {
		name   string
		values []value.Value
		want   string
	}{
		{"small unsigned", ints(1, 2, 3), "uint8"},
		{"small signed", ints(-1, 10), "int8"},
		{"uint16", ints(0, 300), "uint16"},
		{"uint32", ints(70000), "uint32"},
		{"uint64", ints(1 << 40), "uint64"},
		{"int16", ints(-200, 5), "int16"},
		{"int32", ints(-40000), "int32"},
		{"int64", ints(-1 << 40), "int64"},
		{"huge unsigned", []value.Value{value.Uint(1<<63 + 1)}, "uint64"},
		{"float16", floats(1.23, 2.1), "float16"},
		{"float32 precision", floats(1.2345), "float32"},
		{"float32 range", floats(70000.5), "float32"},
		{"float64", floats(1e39), "float64"},
		{"bool", []value.Value{value.Bool(true), value.Bool(false)}, "bool"},
		{"enum", strs("A", "B", "A"), "enum"},
		{"uuid", strs("123e4567-e89b-12d3-a456-426614174000"), "uuid"},
		{"date", strs("2024-01-31", "2023-12-01"), "date"},
		{"datetime", strs("2024-01-31T10:00:00", "2024-01-31 11:30:00+02:00"), "datetime"},
		{"date and datetime", strs("2024-01-31", "2024-01-31T10:00:00Z"), "datetime"},
		{"binary", []value.Value{value.Bytes([]byte{1, 2})}, "binary"},
		{"mixed kinds", []value.Value{value.Int(1), value.String("x")}, "json"},
		{"int and float", []value.Value{value.Int(1), value.Float(2.5)}, "json"},
		{"objects", []value.Value{value.Object()}, "json"},
		{"nullable uint8", []value.Value{value.Null(), value.Int(1), value.Int(2)}, "nullable<uint8>"},
		{"all null", []value.Value{value.Null(), value.Null()}, "nullable<unknown>"},
		{"nullable enum", []value.Value{value.String("x"), value.Null()}, "nullable<enum>"},
	}

	detector := NewDetector(DefaultDetectorConfig(), zaptest.NewLogger(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := detector.Detect(tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tag.String())
		})
	}
}

func TestDetectStringThresholds(t *testing.T) {
	// 300 uniques over 1200 values: above the enum limit, within 30%
	values := make([]value.Value, 0, 1200)
	for i := 0; i < 1200; i++ {
		values = append(values, value.String(fmt.Sprintf("v%d", i%300)))
	}
	tag, err := Detect(values)
	require.NoError(t, err)
	assert.Equal(t, StringDict, tag.Kind)

	// every value unique: plain string
	unique := make([]value.Value, 0, 400)
	for i := 0; i < 400; i++ {
		unique = append(unique, value.String(fmt.Sprintf("name-%d", i)))
	}
	tag, err = Detect(unique)
	require.NoError(t, err)
	assert.Equal(t, String, tag.Kind)

	// tighter enum limit turns the first sample into string_dict sooner
	small := NewDetector(DetectorConfig{EnumMaxUnique: 1, DictMaxRatio: 0.9}, nil)
	tag, err = small.Detect(strs("a", "b", "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, StringDict, tag.Kind)
}

func TestDetectIsDeterministic(t *testing.T) {
	sample := strs("x", "y", "z", "x")
	first, err := Detect(sample)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Detect(sample)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDetectEmpty(t *testing.T) {
	_, err := Detect(nil)
	assert.Error(t, err)
}

func TestParseRoundTrip(t *testing.T) {
	for k := range kindNames {
		kind := Kind(k)
		nullable := NullableOf(kind)
		parsed, err := Parse(nullable.String())
		require.NoError(t, err)
		assert.Equal(t, nullable, parsed)

		if kind == Unknown {
			_, err := Parse(kind.String())
			assert.Error(t, err)
			continue
		}
		parsed, err = Parse(Of(kind).String())
		require.NoError(t, err)
		assert.Equal(t, Of(kind), parsed)
	}
}

func TestParseUnknown(t *testing.T) {
	_, err := Parse("decimal128")
	var unknown *ErrUnknownType
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "decimal128", unknown.Tag)

	tag, known := ParseLenient("nullable<decimal128>")
	assert.False(t, known)
	assert.Equal(t, NullableOf(JSON), tag)

	tag, known = ParseLenient("uint8")
	assert.True(t, known)
	assert.Equal(t, Of(Uint8), tag)
}

func TestTagPredicates(t *testing.T) {
	assert.True(t, Of(Uint16).IsNumeric())
	assert.True(t, NullableOf(Float16).IsIndexable())
	assert.True(t, Of(Date).IsIndexable())
	assert.False(t, Of(Enum).IsIndexable())
	assert.True(t, Of(Enum).NeedsMapping())
	assert.Equal(t, 2, Of(Float16).Width())
	assert.Equal(t, 0, Of(String).Width())
	assert.Equal(t, Of(Int32), NullableOf(Int32).Base())
	assert.False(t, Of(Int16).InVersion(Version1))
	assert.True(t, Of(Int32).InVersion(Version1))
	assert.True(t, Of(Float16).InVersion(Version3))
	assert.True(t, SupportedVersion(1))
	assert.False(t, SupportedVersion(4))
}

func TestTagText(t *testing.T) {
	var tag Tag
	require.NoError(t, tag.UnmarshalText([]byte("nullable<datetime>")))
	assert.Equal(t, NullableOf(Datetime), tag)

	text, err := tag.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "nullable<datetime>", string(text))
}

func TestParseDatetime(t *testing.T) {
	for _, s := range []string{
		"2024-01-31T10:00:00",
		"2024-01-31T10:00:00.123456",
		"2024-01-31T10:00:00Z",
		"2024-01-31T10:00:00+05:30",
		"2024-01-31 10:00",
		"2024-01-31",
	} {
		_, err := ParseDatetime(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseDatetime("31/01/2024")
	assert.Error(t, err)
	assert.False(t, IsDate("2024-13-01"))
}
