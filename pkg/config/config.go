// Package config holds the JONX configuration: codec thresholds and limits,
// and logging. It is loaded from YAML with ${VAR} environment substitution.
//
// Example:
//
//	cfg, err := config.Load("jonx.yaml")
//	if err != nil {
//	    return err
//	}
//	codec := container.NewCodec(cfg.Codec, logger.Get())
package config

import (
	"fmt"

	"github.com/ajitpratap0/jonx/pkg/compression"
	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	"github.com/ajitpratap0/jonx/pkg/logger"
	"github.com/ajitpratap0/jonx/pkg/types"
)

// Config is the top-level configuration.
type Config struct {
	Codec   CodecConfig   `yaml:"codec"`
	Logging logger.Config `yaml:"logging"`
}

// CodecConfig controls container encoding and decoding.
type CodecConfig struct {
	// EnumMaxUnique is the largest unique count detected as enum
	EnumMaxUnique int `yaml:"enum_max_unique"`
	// DictMaxRatio is the largest unique/sample ratio detected as string_dict
	DictMaxRatio float64 `yaml:"dict_max_ratio"`
	// CompressionLevel is the zstd level of every blob (fastest, default, better, best)
	CompressionLevel string `yaml:"compression_level"`
	// DecodeWorkers bounds parallel column decoding; 1 decodes sequentially
	DecodeWorkers int `yaml:"decode_workers"`
	// MaxBlobBytes caps the decompressed size of one blob
	MaxBlobBytes uint64 `yaml:"max_blob_bytes"`
}

// DefaultMaxBlobBytes is the default decompressed size cap of one blob.
const DefaultMaxBlobBytes = 1 << 30

// Default returns the standard configuration.
func Default() *Config {
	return &Config{
		Codec:   DefaultCodec(),
		Logging: logger.DefaultConfig(),
	}
}

// DefaultCodec returns the standard codec settings.
func DefaultCodec() CodecConfig {
	return CodecConfig{
		EnumMaxUnique:    types.DefaultEnumMaxUnique,
		DictMaxRatio:     types.DefaultDictMaxRatio,
		CompressionLevel: compression.Better.String(),
		DecodeWorkers:    1,
		MaxBlobBytes:     DefaultMaxBlobBytes,
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Codec.Validate(); err != nil {
		return err
	}
	if _, err := logger.New(c.Logging); err != nil {
		return jonxerrors.Wrap(err, jonxerrors.TypeConfig, "invalid logging configuration")
	}
	return nil
}

// Validate checks ranges and names.
func (c CodecConfig) Validate() error {
	if c.EnumMaxUnique < 0 {
		return configErr("enum_max_unique cannot be negative")
	}
	if c.DictMaxRatio < 0 || c.DictMaxRatio > 1 {
		return configErr(fmt.Sprintf("dict_max_ratio must be within [0, 1], got %v", c.DictMaxRatio))
	}
	if _, err := compression.ParseLevel(c.CompressionLevel); err != nil {
		return jonxerrors.Wrap(err, jonxerrors.TypeConfig, "invalid compression_level")
	}
	if c.DecodeWorkers < 1 {
		return configErr("decode_workers must be positive")
	}
	return nil
}

func configErr(msg string) error {
	return jonxerrors.New(jonxerrors.TypeConfig, msg)
}

// Detector returns the type detection thresholds.
func (c CodecConfig) Detector() types.DetectorConfig {
	return types.DetectorConfig{
		EnumMaxUnique: c.EnumMaxUnique,
		DictMaxRatio:  c.DictMaxRatio,
	}
}

// Level returns the blob compression level, Better when unset or invalid.
func (c CodecConfig) Level() compression.Level {
	l, err := compression.ParseLevel(c.CompressionLevel)
	if err != nil {
		return compression.Better
	}
	return l
}

// Workers returns DecodeWorkers, at least 1.
func (c CodecConfig) Workers() int {
	if c.DecodeWorkers < 1 {
		return 1
	}
	return c.DecodeWorkers
}
