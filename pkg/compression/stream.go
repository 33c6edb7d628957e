package compression

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/pierrec/lz4/v4"
)

// streamCodec implements block operations on top of the streaming formats.
type streamCodec struct {
	algorithm  Algorithm
	level      Level
	maxDecoded uint64
}

func newStreamCodec(a Algorithm, opts Options) *streamCodec {
	return &streamCodec{algorithm: a, level: opts.Level, maxDecoded: opts.MaxDecodedSize}
}

func (sc *streamCodec) Algorithm() Algorithm { return sc.algorithm }

func (sc *streamCodec) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := sc.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (sc *streamCodec) Decompress(src []byte) ([]byte, error) {
	r, err := sc.newReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	if sc.maxDecoded > 0 {
		r = io.LimitReader(r, int64(sc.maxDecoded)+1)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if sc.maxDecoded > 0 && uint64(len(out)) > sc.maxDecoded {
		return nil, ErrTooLarge
	}
	return out, nil
}

func (sc *streamCodec) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	switch sc.algorithm {
	case Gzip:
		return gzip.NewWriterLevel(dst, gzipLevel(sc.level))
	case Snappy:
		return snappy.NewBufferedWriter(dst), nil
	case S2:
		return s2.NewWriter(dst), nil
	case LZ4:
		w := lz4.NewWriter(dst)
		if err := w.Apply(lz4.CompressionLevelOption(lz4Level(sc.level))); err != nil {
			return nil, err
		}
		return w, nil
	}
	return nopWriteCloser{dst}, nil
}

func (sc *streamCodec) newReader(src io.Reader) (io.Reader, error) {
	switch sc.algorithm {
	case Gzip:
		return gzip.NewReader(src)
	case Snappy:
		return snappy.NewReader(src), nil
	case S2:
		return s2.NewReader(src), nil
	case LZ4:
		return lz4.NewReader(src), nil
	}
	return src, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func gzipLevel(l Level) int {
	switch {
	case l <= Fastest:
		return gzip.BestSpeed
	case l >= Best:
		return gzip.BestCompression
	}
	return gzip.DefaultCompression
}

func lz4Level(l Level) lz4.CompressionLevel {
	switch {
	case l <= Fastest:
		return lz4.Fast
	case l >= Best:
		return lz4.Level9
	}
	return lz4.Level5
}
