package container

import (
	"bytes"
	"io"

	"github.com/ajitpratap0/jonx/pkg/column"
	jsonpool "github.com/ajitpratap0/jonx/pkg/json"
	"github.com/ajitpratap0/jonx/pkg/value"
)

// Result is a fully decoded container.
type Result struct {
	Version uint32
	Fields  []string
	// Types holds the tags as stored in the schema
	Types   map[string]string
	NumRows int
	Columns map[string]*column.Column
	Schema  *Schema
}

// Column returns the decoded column of field.
func (r *Result) Column(field string) (*column.Column, bool) {
	c, ok := r.Columns[field]
	return c, ok
}

// Row rebuilds row i as an object with keys in field order.
func (r *Result) Row(i int) value.Value {
	members := make([]value.Member, len(r.Fields))
	for j, f := range r.Fields {
		members[j] = value.Member{Key: f, Value: r.Columns[f].Value(i)}
	}
	return value.Object(members...)
}

// Rows rebuilds every row.
func (r *Result) Rows() []value.Value {
	rows := make([]value.Value, r.NumRows)
	for i := range rows {
		rows[i] = r.Row(i)
	}
	return rows
}

// WriteRows streams the rows to w as a JSON array. A non-empty indent puts
// one row per line.
func (r *Result) WriteRows(w io.Writer, indent string) error {
	aw := jsonpool.NewArrayWriter(w, indent)
	for i := 0; i < r.NumRows; i++ {
		data, err := r.Row(i).MarshalJSON()
		if err != nil {
			return err
		}
		if err := aw.WriteRaw(data); err != nil {
			return err
		}
	}
	return aw.Close()
}

// MarshalRows returns the rows as a compact JSON array.
func (r *Result) MarshalRows() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteRows(&buf, ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
