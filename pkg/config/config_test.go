package config

import (
	"path/filepath"
	"testing"

	"github.com/ajitpratap0/jonx/pkg/compression"
	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	"github.com/ajitpratap0/jonx/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, types.DefaultDetectorConfig(), cfg.Codec.Detector())
	assert.Equal(t, compression.Better, cfg.Codec.Level())
	assert.Equal(t, 1, cfg.Codec.Workers())
}

func TestParse(t *testing.T) {
	t.Setenv("JONX_TEST_WORKERS", "4")

	cfg, err := Parse([]byte(`
codec:
  enum_max_unique: 16
  dict_max_ratio: 0.5
  compression_level: best
  decode_workers: ${JONX_TEST_WORKERS}
logging:
  level: ${JONX_TEST_LEVEL:-debug}
  encoding: json
`))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Codec.EnumMaxUnique)
	assert.Equal(t, 0.5, cfg.Codec.DictMaxRatio)
	assert.Equal(t, compression.Best, cfg.Codec.Level())
	assert.Equal(t, 4, cfg.Codec.Workers())
	assert.Equal(t, uint64(DefaultMaxBlobBytes), cfg.Codec.MaxBlobBytes, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"syntax", "codec: [1"},
		{"ratio", "codec:\n  dict_max_ratio: 2"},
		{"level", "codec:\n  compression_level: extreme"},
		{"workers", "codec:\n  decode_workers: 0"},
		{"negative enum", "codec:\n  enum_max_unique: -1"},
		{"log level", "logging:\n  level: shout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, jonxerrors.IsType(err, jonxerrors.TypeConfig), "got %v", err)
		})
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jonx.yaml")
	cfg := Default()
	cfg.Codec.EnumMaxUnique = 8
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, jonxerrors.IsFile(err))
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("JONX_A", "x")
	t.Setenv("JONX_EMPTY", "")

	assert.Equal(t, "x-y", substituteEnvVars("${JONX_A}-y"))
	assert.Equal(t, "fallback", substituteEnvVars("${JONX_EMPTY:-fallback}"))
	assert.Equal(t, "", substituteEnvVars("${JONX_UNSET_VARIABLE}"))
	assert.Equal(t, "a ${open", substituteEnvVars("a ${open"))
}
