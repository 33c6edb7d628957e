// Package packing converts one column to and from its binary payload.
//
// Fixed-width kinds are little-endian arrays of their tag width, bool is one
// byte per row, every other kind is a JSON array. Mapped kinds (enum,
// string_dict) store JSON integer indices into a value->index mapping kept in
// the container schema. Nullable columns prefix the payload of their non-null
// values with an LSB-first null bitmap of ceil(N/8) bytes.
package packing

import (
	"encoding/binary"
	"math"

	"github.com/ajitpratap0/jonx/pkg/column"
	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	jsonpool "github.com/ajitpratap0/jonx/pkg/json"
	"github.com/ajitpratap0/jonx/pkg/types"
	"github.com/ajitpratap0/jonx/pkg/value"
	"github.com/apache/arrow-go/v18/arrow/float16"
)

const (
	float16Max = 65504
	float32Max = math.MaxFloat32
)

// Meta is the schema metadata a column payload depends on.
type Meta struct {
	// Mapping is the value->index table of enum and string_dict columns.
	Mapping map[string]int
}

type intLimits struct{ lo, hi int64 }

var signedLimits = map[types.Kind]intLimits{
	types.Int8:  {math.MinInt8, math.MaxInt8},
	types.Int16: {math.MinInt16, math.MaxInt16},
	types.Int32: {math.MinInt32, math.MaxInt32},
	types.Int64: {math.MinInt64, math.MaxInt64},
}

var unsignedLimits = map[types.Kind]uint64{
	types.Uint8:  math.MaxUint8,
	types.Uint16: math.MaxUint16,
	types.Uint32: math.MaxUint32,
	types.Uint64: math.MaxUint64,
}

// Pack encodes c. Mapped kinds require meta.Mapping to cover every value.
func Pack(c *column.Column, meta Meta) ([]byte, error) {
	if !c.Type.Nullable {
		return packRows(c, allRows(c.Len()), meta)
	}

	bitmap := nullBitmap(c)
	rows := make([]int, 0, c.Len()-c.NullCount())
	for i := 0; i < c.Len(); i++ {
		if !c.IsNull(i) {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return bitmap, nil
	}

	data, err := packRows(c, rows, meta)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(bitmap)+len(data))
	out = append(out, bitmap...)
	return append(out, data...), nil
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func encodeErr(c *column.Column, format string, args ...interface{}) *jonxerrors.Error {
	return jonxerrors.Newf(jonxerrors.TypeEncode, format, args...).
		WithField(c.Name).
		WithDetail(jonxerrors.DetailType, c.Type.String())
}

func packRows(c *column.Column, rows []int, meta Meta) ([]byte, error) {
	kind := c.Type.Kind
	switch kind {
	case types.Int8, types.Int16, types.Int32, types.Int64:
		lim := signedLimits[kind]
		out := make([]byte, len(rows)*c.Type.Width())
		for n, i := range rows {
			x := c.Ints[i]
			if x < lim.lo || x > lim.hi {
				return nil, encodeErr(c, "integer %d out of range for %s", x, kind).WithDetail("row", i)
			}
			putUint(out[n*c.Type.Width():], c.Type.Width(), uint64(x))
		}
		return out, nil

	case types.Uint8, types.Uint16, types.Uint32, types.Uint64:
		hi := unsignedLimits[kind]
		out := make([]byte, len(rows)*c.Type.Width())
		for n, i := range rows {
			x := c.Uints[i]
			if x > hi {
				return nil, encodeErr(c, "integer %d out of range for %s", x, kind).WithDetail("row", i)
			}
			putUint(out[n*c.Type.Width():], c.Type.Width(), x)
		}
		return out, nil

	case types.Float16:
		out := make([]byte, len(rows)*2)
		for n, i := range rows {
			f := c.Floats[i]
			if math.IsNaN(f) || f < -float16Max || f > float16Max {
				return nil, encodeErr(c, "float %v out of range for float16", f).WithDetail("row", i)
			}
			binary.LittleEndian.PutUint16(out[n*2:], float16.New(float32(f)).Uint16())
		}
		return out, nil

	case types.Float32:
		out := make([]byte, len(rows)*4)
		for n, i := range rows {
			f := c.Floats[i]
			if f < -float32Max || f > float32Max {
				return nil, encodeErr(c, "float %v out of range for float32", f).WithDetail("row", i)
			}
			binary.LittleEndian.PutUint32(out[n*4:], math.Float32bits(float32(f)))
		}
		return out, nil

	case types.Float64:
		out := make([]byte, len(rows)*8)
		for n, i := range rows {
			binary.LittleEndian.PutUint64(out[n*8:], math.Float64bits(c.Floats[i]))
		}
		return out, nil

	case types.Bool:
		out := make([]byte, len(rows))
		for n, i := range rows {
			if c.Bools[i] {
				out[n] = 1
			}
		}
		return out, nil

	case types.TimestampMs:
		return marshal(c, pick(c.Ints, rows))

	case types.String, types.UUID, types.Date, types.Datetime:
		return marshal(c, pick(c.Strings, rows))

	case types.Binary:
		return marshal(c, pick(c.Blobs, rows))

	case types.JSON:
		data, err := value.Array(pick(c.Docs, rows)...).MarshalJSON()
		if err != nil {
			return nil, jonxerrors.Wrap(err, jonxerrors.TypeEncode, "failed to serialize json column").
				WithField(c.Name)
		}
		return data, nil

	case types.Enum, types.StringDict:
		if meta.Mapping == nil {
			return nil, encodeErr(c, "missing value mapping for %s column", kind)
		}
		indices := make([]int, len(rows))
		for n, i := range rows {
			idx, ok := meta.Mapping[c.Strings[i]]
			if !ok {
				return nil, encodeErr(c, "value %q missing from %s mapping", c.Strings[i], kind).WithDetail("row", i)
			}
			indices[n] = idx
		}
		return marshal(c, indices)
	}

	if len(rows) > 0 {
		return nil, encodeErr(c, "cannot pack values of type %s", c.Type)
	}
	return nil, nil
}

func pick[T any](src []T, rows []int) []T {
	out := make([]T, len(rows))
	for n, i := range rows {
		out[n] = src[i]
	}
	return out
}

func marshal(c *column.Column, v interface{}) ([]byte, error) {
	data, err := jsonpool.Marshal(v)
	if err != nil {
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeEncode, "failed to serialize column").
			WithField(c.Name).
			WithDetail(jonxerrors.DetailType, c.Type.String())
	}
	return data, nil
}

func putUint(b []byte, width int, x uint64) {
	switch width {
	case 1:
		b[0] = byte(x)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(x))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(x))
	case 8:
		binary.LittleEndian.PutUint64(b, x)
	}
}

func getUint(b []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	}
	return binary.LittleEndian.Uint64(b)
}

// signExtend interprets the low width bytes of x as two's complement.
func signExtend(x uint64, width int) int64 {
	shift := uint(64 - 8*width)
	return int64(x<<shift) >> shift
}
