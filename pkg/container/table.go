package container

import (
	"sort"

	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	"github.com/ajitpratap0/jonx/pkg/value"
)

// Table is a validated list of records sharing one key set. Fields follow
// the key order of the first record.
type Table struct {
	Fields []string
	Rows   []value.Value
}

// TableFromJSON parses a JSON array of records.
func TableFromJSON(data []byte) (*Table, error) {
	v, err := value.Parse(data)
	if err != nil {
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeValidation, "input is not valid JSON")
	}
	return TableFromValue(v)
}

// TableFromValue validates a JSON array of records.
func TableFromValue(v value.Value) (*Table, error) {
	rows, ok := v.AsArray()
	if !ok {
		return nil, jonxerrors.New(jonxerrors.TypeValidation, "input must be a list of records").
			WithDetail(jonxerrors.DetailType, v.Kind().String())
	}
	return NewTable(rows)
}

// NewTable validates rows: the list is non-empty, every row is an object,
// the first row has at least one key and every row has the same key set.
func NewTable(rows []value.Value) (*Table, error) {
	if len(rows) == 0 {
		return nil, jonxerrors.New(jonxerrors.TypeValidation, "input cannot be empty")
	}
	for i, row := range rows {
		if row.Kind() != value.KindObject {
			return nil, jonxerrors.Newf(jonxerrors.TypeValidation, "row %d is not an object", i).
				WithDetail("row", i).
				WithDetail(jonxerrors.DetailType, row.Kind().String())
		}
	}

	fields := rows[0].Keys()
	if len(fields) == 0 {
		return nil, jonxerrors.New(jonxerrors.TypeValidation, "first row has no keys")
	}

	expected := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		expected[f] = struct{}{}
	}
	for i := 1; i < len(rows); i++ {
		keys := rows[i].Keys()
		if sameKeys(expected, keys) {
			continue
		}
		missing, extra := diffKeys(expected, keys)
		return nil, jonxerrors.Newf(jonxerrors.TypeSchema, "row %d has a different key set", i).
			WithDetail("row", i).
			WithDetail("expected_keys", sortedCopy(fields)).
			WithDetail("actual_keys", sortedCopy(keys)).
			WithDetail("missing_keys", missing).
			WithDetail("extra_keys", extra)
	}
	return &Table{Fields: fields, Rows: rows}, nil
}

// Len returns the row count.
func (t *Table) Len() int { return len(t.Rows) }

// Column returns the values of field in row order.
func (t *Table) Column(field string) []value.Value {
	out := make([]value.Value, len(t.Rows))
	for i, row := range t.Rows {
		out[i], _ = row.Get(field)
	}
	return out
}

func sameKeys(expected map[string]struct{}, keys []string) bool {
	if len(keys) != len(expected) {
		return false
	}
	for _, k := range keys {
		if _, ok := expected[k]; !ok {
			return false
		}
	}
	return true
}

func diffKeys(expected map[string]struct{}, keys []string) (missing, extra []string) {
	actual := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		actual[k] = struct{}{}
		if _, ok := expected[k]; !ok {
			extra = append(extra, k)
		}
	}
	for k := range expected {
		if _, ok := actual[k]; !ok {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}
