package jonx

import (
	"fmt"

	"github.com/ajitpratap0/jonx/pkg/index"
	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	"github.com/ajitpratap0/jonx/pkg/metrics"
	"github.com/ajitpratap0/jonx/pkg/packing"
	"github.com/ajitpratap0/jonx/pkg/types"
	"go.uber.org/zap"
)

// Report is the outcome of a schema or full validation. Valid is false when
// Errors is non-empty; Warnings never invalidate a file.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *Report) errorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) finish() *Report {
	r.Valid = len(r.Errors) == 0
	if r.Errors == nil {
		r.Errors = []string{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	return r
}

// CheckSchema checks the container metadata without decompressing any
// column or index.
func (f *File) CheckSchema() *Report {
	r := &Report{}
	f.checkSchema(r)
	return r.finish()
}

func (f *File) checkSchema(r *Report) {
	s := f.layout.Schema
	if len(s.Fields) == 0 {
		r.errorf("schema has no fields")
	}

	for _, field := range s.Fields {
		raw := s.RawTypes[field]
		tag, err := types.Parse(raw)
		if err != nil {
			r.warnf("field %q has unrecognized type %q and decodes as json", field, raw)
			continue
		}
		if !tag.InVersion(f.layout.Version) {
			r.warnf("field %q has type %s, which version %d does not define", field, raw, f.layout.Version)
		}
		if tag.NeedsMapping() {
			mapping, ok := s.Mapping(field)
			if !ok {
				r.errorf("field %q of type %s has no mapping", field, raw)
			} else if _, dense := packing.MappingValues(mapping); !dense {
				r.errorf("mapping of field %q does not number its values 0..%d", field, len(mapping)-1)
			}
		}
		if tag.IsIndexable() && !f.layout.HasIndex(field) {
			r.warnf("indexable field %q has no index", field)
		}
	}

	seen := make(map[string]bool)
	for _, ix := range f.layout.Indexes() {
		if seen[ix.Name] {
			r.warnf("index %q is stored more than once; the first one is used", ix.Name)
			continue
		}
		seen[ix.Name] = true
		tag, ok := s.Type(ix.Name)
		switch {
		case !ok:
			r.errorf("index %q refers to an unknown field", ix.Name)
		case !tag.IsIndexable():
			r.errorf("index %q is on field of non-indexable type %s", ix.Name, s.RawTypes[ix.Name])
		}
	}
}

// Validate checks the metadata, then decodes every column and index: each
// column must have the row count, each index must be a permutation of the
// rows in ascending value order.
func (f *File) Validate() *Report {
	r := &Report{}
	f.checkSchema(r)

	rows, err := f.layout.RowCount()
	if err != nil {
		r.errorf("cannot determine the row count: %v", err)
		return f.finishValidate(r)
	}

	cols := make(map[string]bool)
	for _, field := range f.layout.Fields() {
		col, err := f.layout.DecodeColumn(field)
		if err != nil {
			r.errorf("column %q: %v", field, err)
			continue
		}
		if col.Len() != rows {
			r.errorf("column %q has %d rows, expected %d", field, col.Len(), rows)
			continue
		}
		cols[field] = true
	}

	seen := make(map[string]bool)
	for _, ix := range f.layout.Indexes() {
		if seen[ix.Name] || !f.layout.Schema.HasField(ix.Name) {
			continue
		}
		seen[ix.Name] = true

		perm, err := f.layout.DecodeIndex(ix.Name)
		if err != nil {
			r.errorf("index %q: %v", ix.Name, err)
			continue
		}
		if len(perm) != rows {
			r.errorf("index %q has %d entries, expected %d", ix.Name, len(perm), rows)
			continue
		}
		if !index.IsPermutation(perm, rows) {
			r.errorf("index %q is not a permutation of the rows", ix.Name)
			continue
		}
		if !cols[ix.Name] {
			continue
		}
		col, err := f.layout.DecodeColumn(ix.Name)
		if err != nil {
			continue
		}
		for k := 1; k < len(perm); k++ {
			if col.Compare(perm[k-1], perm[k]) > 0 {
				r.errorf("index %q is not in ascending order at position %d", ix.Name, k)
				break
			}
		}
	}

	if extra := int(f.size) - f.layout.Size; extra > 0 {
		r.warnf("%d trailing bytes after the index section", extra)
	}
	return f.finishValidate(r)
}

func (f *File) finishValidate(r *Report) *Report {
	r.finish()
	var err error
	if !r.Valid {
		err = jonxerrors.Newf(jonxerrors.TypeValidation, "%d validation errors", len(r.Errors))
	}
	metrics.RecordResult(metrics.OpValidate, err)
	f.logger.Debug("validated container",
		zap.String("path", f.path),
		zap.Bool("valid", r.Valid),
		zap.Int("errors", len(r.Errors)),
		zap.Int("warnings", len(r.Warnings)))
	return r
}
