// Package index builds and reads sorted row indexes: permutations of the row
// positions of a column in ascending value order, nulls first.
package index

import (
	"sort"

	roaring "github.com/RoaringBitmap/roaring/v2"
	"github.com/ajitpratap0/jonx/pkg/column"
	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	jsonpool "github.com/ajitpratap0/jonx/pkg/json"
)

// Eligible reports whether a sorted index is built for c.
func Eligible(c *column.Column) bool {
	return c.Type.IsIndexable()
}

// Build returns the row positions of c sorted by value. The sort is stable,
// so equal values keep their row order and the output is deterministic.
func Build(c *column.Column) ([]int, error) {
	if !Eligible(c) {
		return nil, jonxerrors.Newf(jonxerrors.TypeIndex, "column type %s is not indexable", c.Type).
			WithField(c.Name)
	}
	perm := make([]int, c.Len())
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return c.Compare(perm[a], perm[b]) < 0
	})
	return perm, nil
}

// Encode serializes an index as a JSON integer array.
func Encode(perm []int) ([]byte, error) {
	data, err := jsonpool.Marshal(perm)
	if err != nil {
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeEncode, "failed to serialize index")
	}
	return data, nil
}

// Decode parses a serialized index.
func Decode(name string, data []byte) ([]int, error) {
	var perm []int
	if err := jsonpool.Unmarshal(data, &perm); err != nil {
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeDecode, "invalid index payload").
			WithDetail(jonxerrors.DetailIndex, name)
	}
	return perm, nil
}

// IsPermutation reports whether perm holds every row position 0..n-1 exactly
// once.
func IsPermutation(perm []int, n int) bool {
	if len(perm) != n {
		return false
	}
	seen := roaring.New()
	for _, p := range perm {
		if p < 0 || p >= n || !seen.CheckedAdd(uint32(p)) {
			return false
		}
	}
	return int(seen.GetCardinality()) == n
}

// First returns the first non-null row of c in index order.
func First(c *column.Column, perm []int) (int, bool) {
	for _, p := range perm {
		if p >= 0 && p < c.Len() && !c.IsNull(p) {
			return p, true
		}
	}
	return 0, false
}

// Last returns the last non-null row of c in index order.
func Last(c *column.Column, perm []int) (int, bool) {
	for i := len(perm) - 1; i >= 0; i-- {
		p := perm[i]
		if p >= 0 && p < c.Len() && !c.IsNull(p) {
			return p, true
		}
	}
	return 0, false
}
