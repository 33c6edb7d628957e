package packing

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/ajitpratap0/jonx/pkg/column"
	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	jsonpool "github.com/ajitpratap0/jonx/pkg/json"
	"github.com/ajitpratap0/jonx/pkg/types"
	"github.com/ajitpratap0/jonx/pkg/value"
	"github.com/apache/arrow-go/v18/arrow/float16"
)

// UnknownRows tells Unpack to derive the row count of a nullable payload from
// the payload itself.
const UnknownRows = -1

// Unpack decodes the payload of column name with type tag. rows is the row
// count of the container; it sizes the null bitmap of nullable payloads and
// is ignored otherwise. With UnknownRows the smallest count the payload is
// consistent with is used.
func Unpack(name string, tag types.Tag, data []byte, meta Meta, rows int) (*column.Column, error) {
	if !tag.Nullable {
		return unpackDense(name, tag, data, meta)
	}

	if rows == UnknownRows {
		candidates := RowCandidates(data, tag, meta)
		if len(candidates) == 0 {
			return nil, decodeErr(name, tag, "nullable payload matches no row count").
				WithDetail(jonxerrors.DetailActual, len(data))
		}
		rows = candidates[0]
	}
	if rows < 0 {
		return nil, decodeErr(name, tag, "negative row count %d", rows)
	}

	size := bitmapSize(rows)
	if len(data) < size {
		return nil, decodeErr(name, tag, "null bitmap truncated").WithSizes(size, len(data))
	}
	nulls := bitmapFromBytes(data[:size], rows)
	nonNull := rows - int(nulls.Count())

	out := column.New(name, tag, rows)
	for i := 0; i < rows; i++ {
		if nulls.Test(uint(i)) {
			// cannot fail: out is nullable
			_ = out.SetNull(i)
		}
	}

	rest := data[size:]
	if nonNull == 0 && len(rest) == 0 {
		return out, nil
	}
	if tag.Kind == types.Unknown {
		return nil, decodeErr(name, tag, "unknown column carries %d non-null values", nonNull)
	}

	dense, err := unpackDense(name, tag.Base(), rest, meta)
	if err != nil {
		return nil, err
	}
	if dense.Len() != nonNull {
		return nil, decodeErr(name, tag, "non-null value count does not match null bitmap").
			WithSizes(nonNull, dense.Len())
	}

	j := 0
	for i := 0; i < rows; i++ {
		if !nulls.Test(uint(i)) {
			out.CopyRow(i, dense, j)
			j++
		}
	}
	return out, nil
}

func decodeErr(name string, tag types.Tag, format string, args ...interface{}) *jonxerrors.Error {
	return jonxerrors.Newf(jonxerrors.TypeDecode, format, args...).
		WithField(name).
		WithDetail(jonxerrors.DetailType, tag.String())
}

func unpackDense(name string, tag types.Tag, data []byte, meta Meta) (*column.Column, error) {
	kind := tag.Kind

	if width := tag.Width(); width > 0 {
		if len(data)%width != 0 {
			return nil, decodeErr(name, tag, "payload length is not a multiple of the element width").
				WithDetail(jonxerrors.DetailExpected, "multiple of "+strconv.Itoa(width)).
				WithDetail(jonxerrors.DetailActual, len(data))
		}
		n := len(data) / width
		c := column.New(name, tag, n)
		for i := 0; i < n; i++ {
			b := data[i*width:]
			switch {
			case tag.IsSigned():
				c.Ints[i] = signExtend(getUint(b, width), width)
			case tag.IsUnsigned():
				c.Uints[i] = getUint(b, width)
			case kind == types.Float16:
				c.Floats[i] = float64(float16.FromBits(binary.LittleEndian.Uint16(b)).Float32())
			case kind == types.Float32:
				c.Floats[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
			case kind == types.Float64:
				c.Floats[i] = math.Float64frombits(binary.LittleEndian.Uint64(b))
			case kind == types.Bool:
				switch b[0] {
				case 0:
				case 1:
					c.Bools[i] = true
				default:
					return nil, decodeErr(name, tag, "invalid bool byte %d", b[0]).WithOffset(i)
				}
			}
		}
		return c, nil
	}

	switch kind {
	case types.TimestampMs:
		var xs []int64
		if err := unmarshal(name, tag, data, &xs); err != nil {
			return nil, err
		}
		c := column.New(name, tag, len(xs))
		copy(c.Ints, xs)
		return c, nil

	case types.String, types.UUID, types.Date, types.Datetime:
		var xs []string
		if err := unmarshal(name, tag, data, &xs); err != nil {
			return nil, err
		}
		c := column.New(name, tag, len(xs))
		copy(c.Strings, xs)
		for i, s := range xs {
			switch kind {
			case types.UUID:
				if !types.IsUUID(s) {
					return nil, decodeErr(name, tag, "invalid uuid %q", s).WithDetail("row", i)
				}
			case types.Date, types.Datetime:
				t, err := column.ParseTime(kind, s)
				if err != nil {
					return nil, jonxerrors.Wrap(err, jonxerrors.TypeDecode, "invalid "+kind.String()).
						WithField(name).
						WithDetail("row", i)
				}
				c.Times[i] = t
			}
		}
		return c, nil

	case types.Binary:
		var xs [][]byte
		if err := unmarshal(name, tag, data, &xs); err != nil {
			return nil, err
		}
		c := column.New(name, tag, len(xs))
		copy(c.Blobs, xs)
		return c, nil

	case types.Enum, types.StringDict:
		var indices []int
		if err := unmarshal(name, tag, data, &indices); err != nil {
			return nil, err
		}
		if len(indices) > 0 && meta.Mapping == nil {
			return nil, decodeErr(name, tag, "missing value mapping for %s column", kind)
		}
		reverse := make(map[int]string, len(meta.Mapping))
		for v, idx := range meta.Mapping {
			reverse[idx] = v
		}
		c := column.New(name, tag, len(indices))
		for i, idx := range indices {
			s, ok := reverse[idx]
			if !ok {
				return nil, decodeErr(name, tag, "index %d missing from %s mapping", idx, kind).WithDetail("row", i)
			}
			c.Strings[i] = s
		}
		return c, nil
	}

	if kind != types.JSON {
		return nil, decodeErr(name, tag, "cannot unpack values of type %s", tag)
	}
	doc, err := value.Parse(data)
	if err != nil {
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeDecode, "invalid json payload").
			WithField(name).
			WithDetail(jonxerrors.DetailType, tag.String())
	}
	items, ok := doc.AsArray()
	if !ok {
		return nil, decodeErr(name, tag, "json payload is not an array")
	}
	c := column.New(name, tag, len(items))
	copy(c.Docs, items)
	return c, nil
}

func unmarshal(name string, tag types.Tag, data []byte, v interface{}) error {
	if err := jsonpool.Unmarshal(data, v); err != nil {
		return jonxerrors.Wrap(err, jonxerrors.TypeDecode, "invalid json payload").
			WithField(name).
			WithDetail(jonxerrors.DetailType, tag.String())
	}
	return nil
}
