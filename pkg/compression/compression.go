// Package compression wraps the block compressors used by JONX.
//
// Every container blob (schema, column payloads, indexes) is an independent
// zstd frame produced by a ZstdCodec. The other algorithms are available for
// compressing decoded output written by the command line.
//
// # Basic Usage
//
//	codec, err := compression.New(compression.Zstd, compression.Options{Level: compression.Better})
//	frame, err := codec.Compress(payload)
//	payload, err = codec.Decompress(frame)
//
// Codecs are safe for concurrent use; encoder and decoder state is pooled.
package compression

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Algorithm names a compression algorithm.
type Algorithm string

const (
	None   Algorithm = "none"
	Zstd   Algorithm = "zstd"
	Gzip   Algorithm = "gzip"
	Snappy Algorithm = "snappy"
	S2     Algorithm = "s2"
	LZ4    Algorithm = "lz4"
)

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{None, Zstd, Gzip, Snappy, S2, LZ4}

// ParseAlgorithm parses an algorithm name, case-insensitively.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Algorithms {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unsupported compression algorithm %q", s)
}

// Extension returns the conventional file suffix of a.
func (a Algorithm) Extension() string {
	switch a {
	case Zstd:
		return ".zst"
	case Gzip:
		return ".gz"
	case Snappy:
		return ".sz"
	case S2:
		return ".s2"
	case LZ4:
		return ".lz4"
	}
	return ""
}

// Level trades speed for ratio.
type Level int

const (
	Fastest Level = 1
	Default Level = 5
	// Better is the level container blobs are written with.
	Better Level = 7
	Best   Level = 9
)

var levelNames = map[Level]string{
	Fastest: "fastest",
	Default: "default",
	Better:  "better",
	Best:    "best",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel parses a level name.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for l, name := range levelNames {
		if name == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown compression level %q", s)
}

// Codec compresses whole blocks and streams.
type Codec interface {
	// Compress returns the compressed form of src. src is not modified.
	Compress(src []byte) ([]byte, error)
	// Decompress returns the original bytes of src.
	Decompress(src []byte) ([]byte, error)
	// NewWriter returns a writer compressing into dst. Close flushes it but
	// does not close dst.
	NewWriter(dst io.Writer) (io.WriteCloser, error)
	// Algorithm returns the algorithm implemented.
	Algorithm() Algorithm
}

// Options configures a codec.
type Options struct {
	Level Level
	// MaxDecodedSize caps the output of Decompress. Zero means no cap.
	MaxDecodedSize uint64
}

// New creates a codec for a.
func New(a Algorithm, opts Options) (Codec, error) {
	if opts.Level == 0 {
		opts.Level = Default
	}
	switch a {
	case Zstd:
		zc, err := NewZstd(opts)
		if err != nil {
			return nil, err
		}
		return zc, nil
	case None, Gzip, Snappy, S2, LZ4:
		return newStreamCodec(a, opts), nil
	}
	return nil, fmt.Errorf("unsupported compression algorithm %q", a)
}

// ErrTooLarge is returned when decompressed data exceeds MaxDecodedSize.
var ErrTooLarge = errors.New("decompressed size exceeds limit")
