package compression

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZstdCodec produces independent zstd frames.
type ZstdCodec struct {
	level      zstd.EncoderLevel
	maxDecoded uint64

	encoders sync.Pool
	decoders sync.Pool
}

// NewZstd creates a zstd codec.
func NewZstd(opts Options) (*ZstdCodec, error) {
	zc := &ZstdCodec{
		level:      zstdLevel(opts.Level),
		maxDecoded: opts.MaxDecodedSize,
	}

	// build one of each up front so option errors surface here
	enc, err := zc.newEncoder()
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zc.newDecoder()
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	zc.encoders.Put(enc)
	zc.decoders.Put(dec)

	zc.encoders.New = func() interface{} {
		enc, _ := zc.newEncoder()
		return enc
	}
	zc.decoders.New = func() interface{} {
		dec, _ := zc.newDecoder()
		return dec
	}
	return zc, nil
}

func (zc *ZstdCodec) newEncoder() (*zstd.Encoder, error) {
	return zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zc.level),
		zstd.WithEncoderConcurrency(1),
		zstd.WithZeroFrames(true))
}

func (zc *ZstdCodec) newDecoder() (*zstd.Decoder, error) {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if zc.maxDecoded > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(zc.maxDecoded))
	}
	return zstd.NewReader(nil, opts...)
}

// Algorithm implements Codec.
func (zc *ZstdCodec) Algorithm() Algorithm { return Zstd }

// Compress encodes src as a single frame.
func (zc *ZstdCodec) Compress(src []byte) ([]byte, error) {
	enc := zc.encoders.Get().(*zstd.Encoder)
	defer zc.encoders.Put(enc)
	return enc.EncodeAll(src, make([]byte, 0, len(src)/2+16)), nil
}

// Decompress decodes every frame in src. Empty input is rejected: a valid
// blob always holds at least one frame.
func (zc *ZstdCodec) Decompress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("empty zstd frame")
	}
	dec := zc.decoders.Get().(*zstd.Decoder)
	defer zc.decoders.Put(dec)

	out, err := dec.DecodeAll(src, nil)
	if err != nil {
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
			return nil, ErrTooLarge
		}
		return nil, err
	}
	if zc.maxDecoded > 0 && uint64(len(out)) > zc.maxDecoded {
		return nil, ErrTooLarge
	}
	return out, nil
}

// NewWriter returns a streaming zstd writer.
func (zc *ZstdCodec) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(dst, zstd.WithEncoderLevel(zc.level))
}

func zstdLevel(l Level) zstd.EncoderLevel {
	switch {
	case l <= Fastest:
		return zstd.SpeedFastest
	case l < Better:
		return zstd.SpeedDefault
	case l < Best:
		return zstd.SpeedBetterCompression
	}
	return zstd.SpeedBestCompression
}
