// Package column holds one decoded or to-be-encoded JONX column as a typed
// vector plus an optional null set.
//
// Every vector is dense: null rows keep the zero value of the storage type at
// their position, so row i of the column is always element i of its vector.
package column

import (
	"bytes"
	"strings"
	"time"

	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	"github.com/ajitpratap0/jonx/pkg/types"
	"github.com/ajitpratap0/jonx/pkg/value"
	"github.com/bits-and-blooms/bitset"
)

// Storage is the Go vector a column kind is held in.
type Storage uint8

const (
	StorageNone Storage = iota
	StorageInt
	StorageUint
	StorageFloat
	StorageBool
	StorageString
	StorageTime
	StorageBlob
	StorageDoc
)

// StorageOf returns the vector used for k. Date and datetime keep both their
// text and the parsed instant.
func StorageOf(k types.Kind) Storage {
	switch k {
	case types.Int8, types.Int16, types.Int32, types.Int64, types.TimestampMs:
		return StorageInt
	case types.Uint8, types.Uint16, types.Uint32, types.Uint64:
		return StorageUint
	case types.Float16, types.Float32, types.Float64:
		return StorageFloat
	case types.Bool:
		return StorageBool
	case types.String, types.UUID, types.Enum, types.StringDict:
		return StorageString
	case types.Date, types.Datetime:
		return StorageTime
	case types.Binary:
		return StorageBlob
	case types.JSON:
		return StorageDoc
	}
	return StorageNone
}

// Column is a named, typed vector of rows.
type Column struct {
	Name string
	Type types.Tag

	n     int
	nulls *bitset.BitSet

	Ints    []int64
	Uints   []uint64
	Floats  []float64
	Bools   []bool
	Strings []string
	Times   []time.Time
	Blobs   [][]byte
	Docs    []value.Value
}

// New allocates a column of n zero rows. Nullable columns start with no nulls.
func New(name string, tag types.Tag, n int) *Column {
	c := &Column{Name: name, Type: tag, n: n}
	if tag.Nullable {
		c.nulls = bitset.New(uint(n))
	}
	switch StorageOf(tag.Kind) {
	case StorageInt:
		c.Ints = make([]int64, n)
	case StorageUint:
		c.Uints = make([]uint64, n)
	case StorageFloat:
		c.Floats = make([]float64, n)
	case StorageBool:
		c.Bools = make([]bool, n)
	case StorageString:
		c.Strings = make([]string, n)
	case StorageTime:
		c.Strings = make([]string, n)
		c.Times = make([]time.Time, n)
	case StorageBlob:
		c.Blobs = make([][]byte, n)
	case StorageDoc:
		c.Docs = make([]value.Value, n)
	}
	return c
}

// FromValues builds a column of type tag from raw values. Values that do not
// fit the tag fail with an encode error naming the field and row.
func FromValues(name string, tag types.Tag, vals []value.Value) (*Column, error) {
	c := New(name, tag, len(vals))
	for i, v := range vals {
		if err := c.Set(i, v); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Len returns the row count.
func (c *Column) Len() int { return c.n }

// Storage returns the vector kind backing c.
func (c *Column) Storage() Storage { return StorageOf(c.Type.Kind) }

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool {
	if c.nulls == nil {
		return false
	}
	return c.nulls.Test(uint(i))
}

// SetNull marks row i as null. It fails on non-nullable columns.
func (c *Column) SetNull(i int) error {
	if c.nulls == nil {
		return jonxerrors.New(jonxerrors.TypeEncode, "null value in non-nullable column").
			WithField(c.Name).
			WithDetail(jonxerrors.DetailType, c.Type.String()).
			WithDetail("row", i)
	}
	c.nulls.Set(uint(i))
	return nil
}

// NullCount returns the number of null rows.
func (c *Column) NullCount() int {
	if c.nulls == nil {
		return 0
	}
	return int(c.nulls.Count())
}

// Nulls returns the null set, nil for non-nullable columns.
func (c *Column) Nulls() *bitset.BitSet { return c.nulls }

// Set stores v at row i, converting it to the column's storage.
func (c *Column) Set(i int, v value.Value) error {
	if v.IsNull() {
		return c.SetNull(i)
	}

	mismatch := func() error {
		return jonxerrors.Newf(jonxerrors.TypeEncode, "value of kind %s does not fit column type %s", v.Kind(), c.Type).
			WithField(c.Name).
			WithDetail("row", i)
	}

	switch c.Storage() {
	case StorageInt:
		x, ok := v.AsInt()
		if !ok {
			if v.Kind() == value.KindUint {
				return jonxerrors.Newf(jonxerrors.TypeEncode, "integer %s out of range for %s", v, c.Type).
					WithField(c.Name).
					WithDetail("row", i)
			}
			return mismatch()
		}
		c.Ints[i] = x
	case StorageUint:
		x, ok := v.AsUint()
		if !ok {
			if v.IsInteger() {
				return jonxerrors.Newf(jonxerrors.TypeEncode, "integer %s out of range for %s", v, c.Type).
					WithField(c.Name).
					WithDetail("row", i)
			}
			return mismatch()
		}
		c.Uints[i] = x
	case StorageFloat:
		switch {
		case v.Kind() == value.KindFloat:
			c.Floats[i], _ = v.AsFloat()
		case v.Kind() == value.KindInt:
			x, _ := v.AsInt()
			c.Floats[i] = float64(x)
		case v.Kind() == value.KindUint:
			x, _ := v.AsUint()
			c.Floats[i] = float64(x)
		default:
			return mismatch()
		}
	case StorageBool:
		b, ok := v.AsBool()
		if !ok {
			return mismatch()
		}
		c.Bools[i] = b
	case StorageString:
		s, ok := v.AsString()
		if !ok {
			return mismatch()
		}
		if c.Type.Kind == types.UUID && !types.IsUUID(s) {
			return jonxerrors.Newf(jonxerrors.TypeEncode, "invalid uuid %q", s).
				WithField(c.Name).
				WithDetail("row", i)
		}
		c.Strings[i] = s
	case StorageTime:
		s, ok := v.AsString()
		if !ok {
			return mismatch()
		}
		t, err := ParseTime(c.Type.Kind, s)
		if err != nil {
			return jonxerrors.Wrap(err, jonxerrors.TypeEncode, "invalid "+c.Type.Kind.String()).
				WithField(c.Name).
				WithDetail("row", i)
		}
		c.Strings[i] = s
		c.Times[i] = t
	case StorageBlob:
		b, ok := v.AsBytes()
		if !ok {
			return mismatch()
		}
		c.Blobs[i] = b
	case StorageDoc:
		c.Docs[i] = v
	default:
		return jonxerrors.Newf(jonxerrors.TypeEncode, "column type %s only holds nulls", c.Type).
			WithField(c.Name).
			WithDetail("row", i)
	}
	return nil
}

// CopyRow copies row j of src into row i of c. Both columns must share a
// storage kind.
func (c *Column) CopyRow(i int, src *Column, j int) {
	if src.IsNull(j) {
		if c.nulls != nil {
			c.nulls.Set(uint(i))
		}
		return
	}
	switch c.Storage() {
	case StorageInt:
		c.Ints[i] = src.Ints[j]
	case StorageUint:
		c.Uints[i] = src.Uints[j]
	case StorageFloat:
		c.Floats[i] = src.Floats[j]
	case StorageBool:
		c.Bools[i] = src.Bools[j]
	case StorageString:
		c.Strings[i] = src.Strings[j]
	case StorageTime:
		c.Strings[i] = src.Strings[j]
		c.Times[i] = src.Times[j]
	case StorageBlob:
		c.Blobs[i] = src.Blobs[j]
	case StorageDoc:
		c.Docs[i] = src.Docs[j]
	}
}

// ParseTime parses the text form of a date or datetime value.
func ParseTime(k types.Kind, s string) (time.Time, error) {
	if k == types.Date {
		return types.ParseDate(s)
	}
	return types.ParseDatetime(s)
}

// Value returns row i as a JSON value. Dates and datetimes are returned in
// their stored text form, timestamps as epoch milliseconds.
func (c *Column) Value(i int) value.Value {
	if c.IsNull(i) {
		return value.Null()
	}
	switch c.Storage() {
	case StorageInt:
		return value.Int(c.Ints[i])
	case StorageUint:
		return value.Uint(c.Uints[i])
	case StorageFloat:
		return value.Float(c.Floats[i])
	case StorageBool:
		return value.Bool(c.Bools[i])
	case StorageString, StorageTime:
		return value.String(c.Strings[i])
	case StorageBlob:
		return value.Bytes(c.Blobs[i])
	case StorageDoc:
		return c.Docs[i]
	}
	return value.Null()
}

// Values returns every row as a JSON value.
func (c *Column) Values() []value.Value {
	out := make([]value.Value, c.n)
	for i := range out {
		out[i] = c.Value(i)
	}
	return out
}

// Float returns row i as a float64 for numeric columns. It reports false for
// null rows and non-numeric columns.
func (c *Column) Float(i int) (float64, bool) {
	if c.IsNull(i) || !c.Type.IsNumeric() {
		return 0, false
	}
	switch c.Storage() {
	case StorageInt:
		return float64(c.Ints[i]), true
	case StorageUint:
		return float64(c.Uints[i]), true
	case StorageFloat:
		return c.Floats[i], true
	}
	return 0, false
}

// Compare orders rows i and j: nulls sort before every value, temporal values
// by instant, the rest by their natural order. Unordered kinds compare equal.
func (c *Column) Compare(i, j int) int {
	ni, nj := c.IsNull(i), c.IsNull(j)
	switch {
	case ni && nj:
		return 0
	case ni:
		return -1
	case nj:
		return 1
	}

	switch c.Storage() {
	case StorageInt:
		return compareOrdered(c.Ints[i], c.Ints[j])
	case StorageUint:
		return compareOrdered(c.Uints[i], c.Uints[j])
	case StorageFloat:
		return compareOrdered(c.Floats[i], c.Floats[j])
	case StorageBool:
		return compareBool(c.Bools[i], c.Bools[j])
	case StorageString:
		return strings.Compare(c.Strings[i], c.Strings[j])
	case StorageTime:
		switch {
		case c.Times[i].Before(c.Times[j]):
			return -1
		case c.Times[i].After(c.Times[j]):
			return 1
		}
		return 0
	case StorageBlob:
		return bytes.Compare(c.Blobs[i], c.Blobs[j])
	}
	return 0
}

type ordered interface {
	~int64 | ~uint64 | ~float64
}

func compareOrdered[T ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
