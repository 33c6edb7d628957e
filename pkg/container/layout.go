package container

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"sort"
	"sync"

	"github.com/ajitpratap0/jonx/pkg/column"
	"github.com/ajitpratap0/jonx/pkg/index"
	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	"github.com/ajitpratap0/jonx/pkg/packing"
	"github.com/ajitpratap0/jonx/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// IndexBlob is one stored index, still compressed.
type IndexBlob struct {
	Name string
	Data []byte
}

// Layout is a parsed container whose column and index blobs are kept
// compressed until asked for. It aliases the bytes it was parsed from.
type Layout struct {
	Version uint32
	Schema  *Schema
	// Size is the number of bytes the container occupies
	Size int

	columns map[string][]byte
	indexes []IndexBlob
	codec   *Codec

	mu       sync.Mutex
	rowsDone bool
	rows     int
	rowsErr  error
}

// reader walks length-prefixed sections with bounds checks.
type reader struct {
	data []byte
	off  int
}

func (r *reader) uint32() (uint32, *jonxerrors.Error) {
	if len(r.data)-r.off < 4 {
		return 0, jonxerrors.New(jonxerrors.TypeDecode, "truncated length prefix").
			WithOffset(r.off).
			WithSizes(4, len(r.data)-r.off)
	}
	x := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return x, nil
}

func (r *reader) blob() ([]byte, *jonxerrors.Error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if uint64(len(r.data)-r.off) < uint64(n) {
		return nil, jonxerrors.New(jonxerrors.TypeDecode, "truncated section").
			WithOffset(r.off).
			WithSizes(int(n), len(r.data)-r.off)
	}
	b := r.data[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}

// Parse checks the header, decodes the schema and locates every blob. No
// column or index is decompressed.
func (c *Codec) Parse(data []byte) (*Layout, error) {
	if len(data) < HeaderSize {
		return nil, jonxerrors.New(jonxerrors.TypeDecode, "data too short for a JONX header").
			WithSizes(HeaderSize, len(data))
	}
	if !bytes.Equal(data[:4], Magic[:]) {
		return nil, jonxerrors.New(jonxerrors.TypeDecode, "not a JONX container: invalid signature").
			WithDetail("signature", hex.EncodeToString(data[:4]))
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if !types.SupportedVersion(version) {
		return nil, jonxerrors.Newf(jonxerrors.TypeDecode, "unsupported JONX version %d", version).
			WithDetail("version", version)
	}

	r := &reader{data: data, off: HeaderSize}
	schemaBlob, rerr := r.blob()
	if rerr != nil {
		return nil, rerr.WithDetail("section", "schema")
	}
	raw, err := c.decompress(schemaBlob)
	if err != nil {
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeDecode, "failed to decompress schema")
	}
	schema, err := ParseSchema(raw)
	if err != nil {
		return nil, err
	}

	l := &Layout{
		Version: version,
		Schema:  schema,
		columns: make(map[string][]byte, len(schema.Fields)),
		codec:   c,
	}
	for _, f := range schema.Fields {
		blob, rerr := r.blob()
		if rerr != nil {
			return nil, rerr.WithField(f)
		}
		l.columns[f] = blob
	}

	count, rerr := r.uint32()
	if rerr != nil {
		return nil, rerr.WithDetail("section", "index count")
	}
	for i := uint32(0); i < count; i++ {
		name, rerr := r.blob()
		if rerr != nil {
			return nil, rerr.WithDetail(jonxerrors.DetailIndex, i)
		}
		blob, rerr := r.blob()
		if rerr != nil {
			return nil, rerr.WithDetail(jonxerrors.DetailIndex, string(name))
		}
		l.indexes = append(l.indexes, IndexBlob{Name: string(name), Data: blob})
	}
	l.Size = r.off

	c.logger.Debug("parsed container",
		zap.Uint32("version", version),
		zap.Int("fields", len(schema.Fields)),
		zap.Int("indexes", len(l.indexes)),
		zap.Int("bytes", l.Size))
	return l, nil
}

// Fields returns the field order.
func (l *Layout) Fields() []string { return l.Schema.Fields }

// Indexes returns the stored indexes in container order.
func (l *Layout) Indexes() []IndexBlob { return l.indexes }

// IndexNames returns the distinct indexed field names in container order.
func (l *Layout) IndexNames() []string {
	seen := make(map[string]bool, len(l.indexes))
	names := make([]string, 0, len(l.indexes))
	for _, ix := range l.indexes {
		if !seen[ix.Name] {
			seen[ix.Name] = true
			names = append(names, ix.Name)
		}
	}
	return names
}

// HasIndex reports whether an index is stored for name.
func (l *Layout) HasIndex(name string) bool {
	_, ok := l.indexBlob(name)
	return ok
}

func (l *Layout) indexBlob(name string) ([]byte, bool) {
	for _, ix := range l.indexes {
		if ix.Name == name {
			return ix.Data, true
		}
	}
	return nil, false
}

// ColumnSize returns the compressed size of the blob of field.
func (l *Layout) ColumnSize(field string) int { return len(l.columns[field]) }

// Payload decompresses the packed payload of field.
func (l *Layout) Payload(field string) ([]byte, error) {
	blob, ok := l.columns[field]
	if !ok {
		return nil, unknownField(field)
	}
	raw, err := l.codec.decompress(blob)
	if err != nil {
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeDecode, "failed to decompress column").WithField(field)
	}
	return raw, nil
}

func unknownField(field string) *jonxerrors.Error {
	return jonxerrors.Newf(jonxerrors.TypeValidation, "field %q not found", field).WithField(field)
}

// DecodeColumn decompresses and unpacks one column. Nullable columns are
// sized with RowCount.
func (l *Layout) DecodeColumn(field string) (*column.Column, error) {
	tag, ok := l.Schema.Type(field)
	if !ok {
		return nil, unknownField(field)
	}
	rows := packing.UnknownRows
	if tag.Nullable {
		n, err := l.RowCount()
		if err != nil {
			return nil, err
		}
		rows = n
	}
	return l.decodeColumn(field, tag, rows)
}

func (l *Layout) decodeColumn(field string, tag types.Tag, rows int) (*column.Column, error) {
	raw, err := l.Payload(field)
	if err != nil {
		return nil, err
	}
	col, err := packing.Unpack(field, tag, raw, l.Schema.Meta(field), rows)
	if err != nil {
		return nil, err
	}
	l.codec.logger.Debug("decoded column",
		zap.String("field", field),
		zap.String("type", tag.String()),
		zap.Int("rows", col.Len()),
		zap.Int("nulls", col.NullCount()))
	return col, nil
}

// DecodeIndex decompresses the index of field. A missing index is an
// index error.
func (l *Layout) DecodeIndex(field string) ([]int, error) {
	blob, ok := l.indexBlob(field)
	if !ok {
		return nil, jonxerrors.Newf(jonxerrors.TypeIndex, "no index stored for field %q", field).
			WithDetail(jonxerrors.DetailIndex, field)
	}
	return l.decodeIndex(field, blob)
}

func (l *Layout) decodeIndex(name string, blob []byte) ([]int, error) {
	raw, err := l.codec.decompress(blob)
	if err != nil {
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeDecode, "failed to decompress index").
			WithDetail(jonxerrors.DetailIndex, name)
	}
	return index.Decode(name, raw)
}

// RowCount returns the number of rows, resolved once. It is the length of
// the first non-nullable column; without one, the length of the first
// decodable index; without one, the smallest row count every nullable
// payload is consistent with. A container without fields has no rows.
func (l *Layout) RowCount() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.rowsDone {
		l.rows, l.rowsErr = l.resolveRows()
		l.rowsDone = true
	}
	return l.rows, l.rowsErr
}

func (l *Layout) resolveRows() (int, error) {
	fields := l.Schema.Fields
	if len(fields) == 0 {
		return 0, nil
	}

	for _, f := range fields {
		tag := l.Schema.Types[f]
		if tag.Nullable {
			continue
		}
		col, err := l.decodeColumn(f, tag, packing.UnknownRows)
		if err != nil {
			return 0, err
		}
		return col.Len(), nil
	}

	for _, ix := range l.indexes {
		if perm, err := l.decodeIndex(ix.Name, ix.Data); err == nil {
			return len(perm), nil
		}
	}

	var common map[int]bool
	for _, f := range fields {
		raw, err := l.Payload(f)
		if err != nil {
			return 0, err
		}
		next := make(map[int]bool)
		for _, n := range packing.RowCandidates(raw, l.Schema.Types[f], l.Schema.Meta(f)) {
			if common == nil || common[n] {
				next[n] = true
			}
		}
		common = next
	}
	if len(common) == 0 {
		return 0, jonxerrors.New(jonxerrors.TypeDecode, "columns agree on no row count")
	}
	counts := make([]int, 0, len(common))
	for n := range common {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	return counts[0], nil
}

// DecodeAll reconstructs every column. Non-nullable columns are decoded
// first and fix the row count; nullable ones are then sized with it. Every
// column must have the same length, and a container without fields is
// rejected. Indexes are not decompressed.
func (l *Layout) DecodeAll() (*Result, error) {
	fields := l.Schema.Fields
	if len(fields) == 0 {
		return nil, jonxerrors.New(jonxerrors.TypeSchema, "schema has no fields")
	}

	cols := make([]*column.Column, len(fields))
	var plain, nullable []int
	for i, f := range fields {
		if l.Schema.Types[f].Nullable {
			nullable = append(nullable, i)
		} else {
			plain = append(plain, i)
		}
	}

	err := l.each(plain, func(i int) error {
		col, err := l.decodeColumn(fields[i], l.Schema.Types[fields[i]], packing.UnknownRows)
		cols[i] = col
		return err
	})
	if err != nil {
		return nil, err
	}

	var rows int
	if len(plain) > 0 {
		rows = cols[plain[0]].Len()
		l.mu.Lock()
		if !l.rowsDone {
			l.rows, l.rowsDone = rows, true
		}
		l.mu.Unlock()
	} else if rows, err = l.RowCount(); err != nil {
		return nil, err
	}

	err = l.each(nullable, func(i int) error {
		f := fields[i]
		tag := l.Schema.Types[f]
		col, err := l.decodeColumn(f, tag, rows)
		if err != nil {
			return l.lengthMismatch(f, tag, rows, err)
		}
		cols[i] = col
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Version: l.Version,
		Fields:  fields,
		Types:   l.Schema.RawTypes,
		NumRows: rows,
		Columns: make(map[string]*column.Column, len(fields)),
		Schema:  l.Schema,
	}
	for i, f := range fields {
		if cols[i].Len() != rows {
			return nil, jonxerrors.Newf(jonxerrors.TypeSchema, "column %q has an inconsistent length", f).
				WithField(f).
				WithSizes(rows, cols[i].Len())
		}
		res.Columns[f] = cols[i]
	}
	return res, nil
}

// lengthMismatch turns the failure of a nullable payload into a schema error
// when the payload is well formed for another row count.
func (l *Layout) lengthMismatch(field string, tag types.Tag, rows int, err error) error {
	raw, perr := l.Payload(field)
	if perr != nil {
		return err
	}
	candidates := packing.RowCandidates(raw, tag, l.Schema.Meta(field))
	if len(candidates) == 0 {
		return err
	}
	for _, n := range candidates {
		if n == rows {
			return err
		}
	}
	return jonxerrors.Wrap(err, jonxerrors.TypeSchema, "column "+field+" has an inconsistent length").
		WithField(field).
		WithSizes(rows, candidates[0])
}

// each runs fn over positions with at most DecodeWorkers goroutines and
// returns the error of the earliest failing position.
func (l *Layout) each(positions []int, fn func(i int) error) error {
	workers := l.codec.cfg.Workers()
	if workers == 1 || len(positions) < 2 {
		for _, i := range positions {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make([]error, len(positions))
	var g errgroup.Group
	g.SetLimit(workers)
	for k, i := range positions {
		k, i := k, i
		g.Go(func() error {
			errs[k] = fn(i)
			return nil
		})
	}
	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
