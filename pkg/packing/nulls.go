package packing

import (
	"math/bits"

	"github.com/ajitpratap0/jonx/pkg/column"
	"github.com/ajitpratap0/jonx/pkg/types"
	"github.com/bits-and-blooms/bitset"
)

// bitmapSize returns the byte length of the null bitmap of n rows.
func bitmapSize(n int) int {
	return (n + 7) / 8
}

// nullBitmap serializes the null set of c, bit i of byte i/8 set for null row i.
func nullBitmap(c *column.Column) []byte {
	n := c.Len()
	out := make([]byte, bitmapSize(n))
	nulls := c.Nulls()
	if nulls == nil {
		return out
	}
	for i, ok := nulls.NextSet(0); ok && int(i) < n; i, ok = nulls.NextSet(i + 1) {
		out[i/8] |= 1 << (i % 8)
	}
	return out
}

// bitmapFromBytes reads a null bitmap of n rows. Bits at or beyond n are
// ignored.
func bitmapFromBytes(b []byte, n int) *bitset.BitSet {
	words := make([]uint64, (n+63)/64)
	for i, by := range b {
		if i/8 >= len(words) {
			break
		}
		words[i/8] |= uint64(by) << (8 * (i % 8))
	}
	if rem := n % 64; rem != 0 {
		words[len(words)-1] &= (1 << uint(rem)) - 1
	}
	return bitset.From(words)
}

// RowCandidates lists, in ascending order, the row counts a payload of type
// tag is consistent with. A plain payload has exactly one; a nullable one
// has one per bitmap length whose null bits plus the values that follow add
// up to a row count needing exactly that many bitmap bytes. It returns nil
// when the payload is malformed.
func RowCandidates(data []byte, tag types.Tag, meta Meta) []int {
	if !tag.Nullable {
		c, err := unpackDense("", tag, data, meta)
		if err != nil {
			return nil
		}
		return []int{c.Len()}
	}

	base := tag.Base()
	width := base.Width()

	var candidates []int
	nulls := 0
	for b := 0; b <= len(data); b++ {
		if b > 0 {
			nulls += bits.OnesCount8(data[b-1])
		}
		rest := data[b:]

		k := 0
		switch {
		case len(rest) == 0:
		case base.Kind == types.Unknown:
			continue
		case width > 0:
			if len(rest)%width != 0 {
				continue
			}
			k = len(rest) / width
		default:
			// a JSON array holds at most one element per byte
			if rest[0] != '[' || 8*b-8-nulls >= len(rest) {
				continue
			}
			c, err := unpackDense("", base, rest, meta)
			if err != nil {
				continue
			}
			k = c.Len()
		}

		n := nulls + k
		if bitmapSize(n) != b {
			continue
		}
		if rem := n % 8; b > 0 && rem != 0 && data[b-1]>>uint(rem) != 0 {
			continue
		}
		candidates = append(candidates, n)
	}
	return candidates
}
