// Package container reads and writes the JONX byte layout.
//
// A container is, with every integer a little-endian uint32:
//
//	"JONX" VERSION
//	SCHEMA_LEN SCHEMA_BLOB
//	for each field: COL_LEN COL_BLOB
//	NUM_INDEXES
//	for each index: NAME_LEN NAME IDX_LEN IDX_BLOB
//
// Every blob is compressed independently with zstd. The schema blob holds
// JSON {fields, types, enum_mappings?, string_dicts?}; column blobs hold
// packed payloads; index blobs hold JSON arrays of row positions sorted by
// value.
package container

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/ajitpratap0/jonx/pkg/column"
	"github.com/ajitpratap0/jonx/pkg/compression"
	"github.com/ajitpratap0/jonx/pkg/config"
	"github.com/ajitpratap0/jonx/pkg/index"
	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	"github.com/ajitpratap0/jonx/pkg/metrics"
	"github.com/ajitpratap0/jonx/pkg/packing"
	"github.com/ajitpratap0/jonx/pkg/types"
	"github.com/ajitpratap0/jonx/pkg/value"
	"go.uber.org/zap"
)

// Magic is the leading signature of every container.
var Magic = [4]byte{'J', 'O', 'N', 'X'}

// HeaderSize is the size of the magic plus the version.
const HeaderSize = 8

// Codec encodes tables into containers and decodes them back. It is safe for
// concurrent use.
type Codec struct {
	cfg      config.CodecConfig
	zstd     *compression.ZstdCodec
	detector *types.Detector
	logger   *zap.Logger
}

// NewCodec creates a codec. A nil logger disables logging.
func NewCodec(cfg config.CodecConfig, logger *zap.Logger) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	zc, err := compression.NewZstd(compression.Options{
		Level:          cfg.Level(),
		MaxDecodedSize: cfg.MaxBlobBytes,
	})
	if err != nil {
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeConfig, "failed to create compressor")
	}
	return &Codec{
		cfg:      cfg,
		zstd:     zc,
		detector: types.NewDetector(cfg.Detector(), logger),
		logger:   logger,
	}, nil
}

// Config returns the codec settings.
func (c *Codec) Config() config.CodecConfig { return c.cfg }

type encodedColumn struct {
	tag     types.Tag
	mapping map[string]int
	blob    []byte
	// compressed index, nil when the column is not indexable
	index []byte
}

// EncodeRows validates rows as a table and encodes it.
func (c *Codec) EncodeRows(rows []value.Value) ([]byte, error) {
	t, err := NewTable(rows)
	if err != nil {
		metrics.RecordResult(metrics.OpEncode, err)
		return nil, err
	}
	return c.Encode(t)
}

// Encode builds a container from t. The output only depends on t and the
// codec settings.
func (c *Codec) Encode(t *Table) (_ []byte, err error) {
	timer := metrics.NewTimer(metrics.OpEncode)
	defer func() {
		timer.ObserveDuration()
		metrics.RecordResult(metrics.OpEncode, err)
	}()

	schema := newSchema(t.Fields)
	encoded := make([]encodedColumn, len(t.Fields))
	for i, f := range t.Fields {
		enc, err := c.encodeColumn(f, t.Column(f))
		if err != nil {
			return nil, err
		}
		encoded[i] = enc
		schema.setType(f, enc.tag)
		if enc.tag.NeedsMapping() {
			schema.setMapping(f, enc.tag, enc.mapping)
		}
	}

	schemaJSON, err := schema.MarshalJSON()
	if err != nil {
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeEncode, "failed to serialize schema")
	}
	schemaBlob, err := c.compress(schemaJSON)
	if err != nil {
		return nil, err
	}

	w := &writer{}
	w.raw(Magic[:])
	w.uint32(uint64(types.CurrentVersion))
	w.blob(schemaBlob)
	indexed := 0
	for _, enc := range encoded {
		w.blob(enc.blob)
		if enc.index != nil {
			indexed++
		}
	}
	w.uint32(uint64(indexed))
	for i, enc := range encoded {
		if enc.index == nil {
			continue
		}
		w.blob([]byte(t.Fields[i]))
		w.blob(enc.index)
	}
	if w.err != nil {
		return nil, w.err
	}

	metrics.Rows.WithLabelValues(metrics.OpEncode).Add(float64(t.Len()))
	c.logger.Debug("encoded container",
		zap.Int("rows", t.Len()),
		zap.Int("fields", len(t.Fields)),
		zap.Int("indexes", indexed),
		zap.Int("bytes", len(w.buf)))
	return w.buf, nil
}

func (c *Codec) encodeColumn(field string, vals []value.Value) (encodedColumn, error) {
	tag, err := c.detector.Detect(vals)
	if err != nil {
		return encodedColumn{}, jonxerrors.Wrap(err, jonxerrors.TypeEncode, "type detection failed").
			WithField(field)
	}
	col, err := column.FromValues(field, tag, vals)
	if err != nil {
		return encodedColumn{}, err
	}

	enc := encodedColumn{tag: tag, mapping: packing.BuildMapping(col)}
	packed, err := packing.Pack(col, packing.Meta{Mapping: enc.mapping})
	if err != nil {
		return encodedColumn{}, err
	}
	if enc.blob, err = c.compress(packed); err != nil {
		return encodedColumn{}, jonxerrors.Wrap(err, jonxerrors.TypeEncode, "failed to compress column").
			WithField(field)
	}
	metrics.RecordColumn(tag.String(), len(packed), len(enc.blob))

	if index.Eligible(col) {
		perm, err := index.Build(col)
		if err != nil {
			return encodedColumn{}, err
		}
		raw, err := index.Encode(perm)
		if err != nil {
			return encodedColumn{}, err
		}
		if enc.index, err = c.compress(raw); err != nil {
			return encodedColumn{}, jonxerrors.Wrap(err, jonxerrors.TypeEncode, "failed to compress index").
				WithDetail(jonxerrors.DetailIndex, field)
		}
	}

	c.logger.Debug("encoded column",
		zap.String("field", field),
		zap.String("type", tag.String()),
		zap.Int("packed_bytes", len(packed)),
		zap.Int("compressed_bytes", len(enc.blob)),
		zap.Bool("indexed", enc.index != nil))
	return enc, nil
}

// Decode parses data and reconstructs every column.
func (c *Codec) Decode(data []byte) (_ *Result, err error) {
	timer := metrics.NewTimer(metrics.OpDecode)
	defer func() {
		timer.ObserveDuration()
		metrics.RecordResult(metrics.OpDecode, err)
	}()

	l, err := c.Parse(data)
	if err != nil {
		return nil, err
	}
	res, err := l.DecodeAll()
	if err != nil {
		return nil, err
	}
	metrics.Rows.WithLabelValues(metrics.OpDecode).Add(float64(res.NumRows))
	return res, nil
}

func (c *Codec) compress(src []byte) ([]byte, error) {
	out, err := c.zstd.Compress(src)
	if err != nil {
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeEncode, "compression failed")
	}
	return out, nil
}

func (c *Codec) decompress(src []byte) ([]byte, error) {
	out, err := c.zstd.Decompress(src)
	if errors.Is(err, compression.ErrTooLarge) {
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeDecode, "blob exceeds the decompressed size limit").
			WithDetail(jonxerrors.DetailExpected, c.cfg.MaxBlobBytes)
	}
	if err != nil {
		return nil, jonxerrors.Wrap(err, jonxerrors.TypeDecode, "decompression failed")
	}
	return out, nil
}

// writer appends length-prefixed sections. The first error sticks.
type writer struct {
	buf []byte
	err error
}

func (w *writer) raw(p []byte) {
	if w.err == nil {
		w.buf = append(w.buf, p...)
	}
}

func (w *writer) uint32(x uint64) {
	if w.err != nil {
		return
	}
	if x > math.MaxUint32 {
		w.err = jonxerrors.Newf(jonxerrors.TypeEncode, "section of %d bytes exceeds the 4 GiB limit", x)
		return
	}
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(x))
}

func (w *writer) blob(p []byte) {
	w.uint32(uint64(len(p)))
	w.raw(p)
}
