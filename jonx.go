package jonx

import (
	"sync"

	"github.com/ajitpratap0/jonx/pkg/config"
	"github.com/ajitpratap0/jonx/pkg/container"
	"github.com/ajitpratap0/jonx/pkg/value"
	"go.uber.org/zap"
)

// Option configures the codec used by a call.
type Option func(*options)

type options struct {
	cfg    *config.CodecConfig
	logger *zap.Logger
	codec  *container.Codec
}

// WithConfig uses cfg instead of the default codec settings.
func WithConfig(cfg config.CodecConfig) Option {
	return func(o *options) { o.cfg = &cfg }
}

// WithLogger logs through l.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCodec uses an existing codec. It takes precedence over WithConfig and
// WithLogger.
func WithCodec(c *container.Codec) Option {
	return func(o *options) { o.codec = c }
}

var (
	defaultOnce  sync.Once
	defaultCodec *container.Codec
	defaultErr   error
)

func newCodec(opts []Option) (*container.Codec, *zap.Logger, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if o.codec != nil {
		return o.codec, logger, nil
	}
	if o.cfg == nil && o.logger == nil {
		defaultOnce.Do(func() {
			defaultCodec, defaultErr = container.NewCodec(config.DefaultCodec(), nil)
		})
		return defaultCodec, logger, defaultErr
	}
	cfg := config.DefaultCodec()
	if o.cfg != nil {
		cfg = *o.cfg
	}
	c, err := container.NewCodec(cfg, logger)
	return c, logger, err
}

// EncodeToBytes encodes a list of records.
func EncodeToBytes(rows []value.Value, opts ...Option) ([]byte, error) {
	c, _, err := newCodec(opts)
	if err != nil {
		return nil, err
	}
	return c.EncodeRows(rows)
}

// EncodeJSON encodes a JSON array of records.
func EncodeJSON(data []byte, opts ...Option) ([]byte, error) {
	c, _, err := newCodec(opts)
	if err != nil {
		return nil, err
	}
	t, err := container.TableFromJSON(data)
	if err != nil {
		return nil, err
	}
	return c.Encode(t)
}

// DecodeFromBytes decodes a whole container.
func DecodeFromBytes(data []byte, opts ...Option) (*container.Result, error) {
	c, _, err := newCodec(opts)
	if err != nil {
		return nil, err
	}
	return c.Decode(data)
}
