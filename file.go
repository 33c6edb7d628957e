package jonx

import (
	"errors"
	"io/fs"
	"math/bits"
	"os"

	"github.com/ajitpratap0/jonx/pkg/column"
	"github.com/ajitpratap0/jonx/pkg/container"
	"github.com/ajitpratap0/jonx/pkg/index"
	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	"github.com/ajitpratap0/jonx/pkg/metrics"
	"github.com/ajitpratap0/jonx/pkg/value"
	"go.uber.org/zap"
)

// File is an opened container. Header, schema and blob locations are read
// at open time; columns and indexes are decompressed on each request. A File
// is safe for concurrent use.
type File struct {
	path   string
	size   int64
	layout *container.Layout
	logger *zap.Logger
}

// Info summarizes a container file.
type Info struct {
	Path       string            `json:"path"`
	Version    uint32            `json:"version"`
	NumRows    int               `json:"num_rows"`
	NumColumns int               `json:"num_columns"`
	Fields     []string          `json:"fields"`
	Types      map[string]string `json:"types"`
	Indexes    []string          `json:"indexes"`
	FileSize   int64             `json:"file_size"`
}

// readFile reads a regular, non-empty file.
func readFile(path string) ([]byte, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, jonxerrors.Wrap(err, jonxerrors.TypeFile, "file does not exist").
				WithDetail(jonxerrors.DetailPath, path)
		}
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeFile, "cannot stat file").
			WithDetail(jonxerrors.DetailPath, path)
	}
	if !st.Mode().IsRegular() {
		return nil, jonxerrors.New(jonxerrors.TypeFile, "path is not a regular file").
			WithDetail(jonxerrors.DetailPath, path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: reading caller-chosen files is the point
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, jonxerrors.Wrap(err, jonxerrors.TypeFile, "permission denied").
				WithDetail(jonxerrors.DetailPath, path)
		}
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeFile, "cannot read file").
			WithDetail(jonxerrors.DetailPath, path)
	}
	if len(data) == 0 {
		return nil, jonxerrors.New(jonxerrors.TypeValidation, "file is empty").
			WithDetail(jonxerrors.DetailPath, path)
	}
	return data, nil
}

// Open reads and parses the container at path.
func Open(path string, opts ...Option) (_ *File, err error) {
	timer := metrics.NewTimer(metrics.OpOpen)
	defer func() {
		timer.ObserveDuration()
		metrics.RecordResult(metrics.OpOpen, err)
	}()

	c, logger, err := newCodec(opts)
	if err != nil {
		return nil, err
	}
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	l, err := c.Parse(data)
	if err != nil {
		var e *jonxerrors.Error
		if errors.As(err, &e) {
			e.WithDetail(jonxerrors.DetailPath, path)
		}
		return nil, err
	}

	logger.Debug("opened container",
		zap.String("path", path),
		zap.Uint32("version", l.Version),
		zap.Int("fields", len(l.Fields())))
	return &File{path: path, size: int64(len(data)), layout: l, logger: logger}, nil
}

// Path returns the path the file was opened from.
func (f *File) Path() string { return f.path }

// Version returns the container version.
func (f *File) Version() uint32 { return f.layout.Version }

// Fields returns the field names in column order.
func (f *File) Fields() []string {
	return append([]string(nil), f.layout.Fields()...)
}

// Types returns the stored type tag of every field.
func (f *File) Types() map[string]string {
	out := make(map[string]string, len(f.layout.Schema.RawTypes))
	for k, v := range f.layout.Schema.RawTypes {
		out[k] = v
	}
	return out
}

// Indexes returns the indexed field names.
func (f *File) Indexes() []string { return f.layout.IndexNames() }

// HasIndex reports whether field has a stored index.
func (f *File) HasIndex(field string) bool { return f.layout.HasIndex(field) }

// Layout exposes the parsed container.
func (f *File) Layout() *container.Layout { return f.layout }

func (f *File) checkField(field string) error {
	if !f.layout.Schema.HasField(field) {
		return jonxerrors.Newf(jonxerrors.TypeValidation, "field %q not found", field).
			WithField(field).
			WithDetail("available_fields", f.layout.Fields())
	}
	return nil
}

// GetColumn decodes one column.
func (f *File) GetColumn(field string) (_ *column.Column, err error) {
	if err := f.checkField(field); err != nil {
		return nil, err
	}
	timer := metrics.NewTimer(metrics.OpColumn)
	defer func() {
		timer.ObserveDuration()
		metrics.RecordResult(metrics.OpColumn, err)
	}()
	return f.layout.DecodeColumn(field)
}

// GetColumns decodes several columns. Every name is checked before any
// column is decoded.
func (f *File) GetColumns(fields []string) (map[string]*column.Column, error) {
	for _, name := range fields {
		if err := f.checkField(name); err != nil {
			return nil, err
		}
	}
	out := make(map[string]*column.Column, len(fields))
	for _, name := range fields {
		if _, done := out[name]; done {
			continue
		}
		col, err := f.GetColumn(name)
		if err != nil {
			return nil, err
		}
		out[name] = col
	}
	return out, nil
}

// FindMin returns the smallest non-null value of field. With useIndex the
// stored index is required and its first non-null row is returned;
// otherwise the column is scanned.
func (f *File) FindMin(field string, useIndex bool) (value.Value, error) {
	return f.extreme(field, useIndex, -1)
}

// FindMax returns the largest non-null value of field, see FindMin.
func (f *File) FindMax(field string, useIndex bool) (value.Value, error) {
	return f.extreme(field, useIndex, 1)
}

func (f *File) extreme(field string, useIndex bool, sign int) (value.Value, error) {
	col, err := f.GetColumn(field)
	if err != nil {
		return value.Null(), err
	}

	if useIndex {
		perm, err := f.layout.DecodeIndex(field)
		if err != nil {
			return value.Null(), err
		}
		if len(perm) == 0 {
			return value.Null(), jonxerrors.Newf(jonxerrors.TypeIndex, "index of field %q is empty", field).
				WithDetail(jonxerrors.DetailIndex, field)
		}
		pick := index.First
		if sign > 0 {
			pick = index.Last
		}
		row, ok := pick(col, perm)
		if !ok {
			return value.Null(), noValues(field)
		}
		return col.Value(row), nil
	}

	if !col.Type.IsOrdered() {
		return value.Null(), jonxerrors.Newf(jonxerrors.TypeValidation, "values of type %s are not ordered", col.Type).
			WithField(field)
	}
	best := -1
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		if best < 0 || sign*col.Compare(i, best) > 0 {
			best = i
		}
	}
	if best < 0 {
		return value.Null(), noValues(field)
	}
	return col.Value(best), nil
}

func noValues(field string) error {
	return jonxerrors.Newf(jonxerrors.TypeValidation, "field %q has no non-null values", field).WithField(field)
}

// IsNumeric reports whether field exists and has an integer or float type.
func (f *File) IsNumeric(field string) bool {
	t, ok := f.layout.Schema.Type(field)
	return ok && t.IsNumeric()
}

func (f *File) numericColumn(field string) (*column.Column, error) {
	if err := f.checkField(field); err != nil {
		return nil, err
	}
	if !f.IsNumeric(field) {
		return nil, jonxerrors.Newf(jonxerrors.TypeValidation, "field %q is not numeric", field).
			WithField(field).
			WithDetail(jonxerrors.DetailType, f.layout.Schema.RawTypes[field])
	}
	col, err := f.GetColumn(field)
	if err != nil {
		return nil, err
	}
	if col.Len() == col.NullCount() {
		return nil, noValues(field)
	}
	return col, nil
}

// Sum adds the non-null values of a numeric field. Integer sums stay exact
// and fall back to float64 on overflow.
func (f *File) Sum(field string) (value.Value, error) {
	col, err := f.numericColumn(field)
	if err != nil {
		return value.Null(), err
	}
	return sum(col), nil
}

func sum(col *column.Column) value.Value {
	switch col.Storage() {
	case column.StorageInt:
		var total int64
		for i, x := range col.Ints {
			if col.IsNull(i) {
				continue
			}
			next := total + x
			if (x > 0 && next < total) || (x < 0 && next > total) {
				return value.Float(floatSum(col))
			}
			total = next
		}
		return value.Int(total)
	case column.StorageUint:
		var total uint64
		for i, x := range col.Uints {
			if col.IsNull(i) {
				continue
			}
			var carry uint64
			total, carry = bits.Add64(total, x, 0)
			if carry != 0 {
				return value.Float(floatSum(col))
			}
		}
		return value.Uint(total)
	}
	return value.Float(floatSum(col))
}

func floatSum(col *column.Column) float64 {
	var total float64
	for i := 0; i < col.Len(); i++ {
		if x, ok := col.Float(i); ok {
			total += x
		}
	}
	return total
}

// Avg returns the mean of the non-null values of a numeric field.
func (f *File) Avg(field string) (float64, error) {
	col, err := f.numericColumn(field)
	if err != nil {
		return 0, err
	}
	n := float64(col.Len() - col.NullCount())
	switch s := sum(col); s.Kind() {
	case value.KindInt:
		x, _ := s.AsInt()
		return float64(x) / n, nil
	case value.KindUint:
		x, _ := s.AsUint()
		return float64(x) / n, nil
	default:
		x, _ := s.AsFloat()
		return x / n, nil
	}
}

// Count returns the number of rows of field, of the first field when field
// is empty, and 0 when the container has no fields.
func (f *File) Count(field string) (int, error) {
	if field == "" {
		fields := f.layout.Fields()
		if len(fields) == 0 {
			return 0, nil
		}
		field = fields[0]
	}
	col, err := f.GetColumn(field)
	if err != nil {
		return 0, err
	}
	return col.Len(), nil
}

// Info summarizes the file. The row count is resolved without decoding
// every column.
func (f *File) Info() (*Info, error) {
	rows, err := f.layout.RowCount()
	if err != nil {
		return nil, err
	}
	return &Info{
		Path:       f.path,
		Version:    f.layout.Version,
		NumRows:    rows,
		NumColumns: len(f.layout.Fields()),
		Fields:     f.Fields(),
		Types:      f.Types(),
		Indexes:    f.Indexes(),
		FileSize:   f.size,
	}, nil
}

// Decode reconstructs every column of the file.
func (f *File) Decode() (*container.Result, error) {
	return f.layout.DecodeAll()
}
