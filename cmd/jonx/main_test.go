package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/jonx/pkg/compression"
	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	"github.com/ajitpratap0/jonx/pkg/testutil"
)

const pricesJSON = `[{"price":10,"name":"a"},{"price":5,"name":"b"}]`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func encoded(t *testing.T) string {
	t.Helper()
	input := testutil.WriteFile(t, "prices.json", []byte(pricesJSON))
	out, err := run(t, "encode", input)
	require.NoError(t, err)
	assert.Contains(t, out, "Rows:          2")
	path := filepath.Join(filepath.Dir(input), "prices.jonx")
	require.FileExists(t, path)
	return path
}

func TestEncodeDecode(t *testing.T) {
	path := encoded(t)
	dest := filepath.Join(t.TempDir(), "out.json")

	out, err := run(t, "decode", path, "-o", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Rows:    2")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.JSONEq(t, pricesJSON, string(data))
}

func TestDecodeToStdout(t *testing.T) {
	path := encoded(t)
	out, err := run(t, "decode", path, "-o", "-", "--indent", "0")
	require.NoError(t, err)
	assert.Equal(t, pricesJSON, out)
}

func TestDecodeCompressed(t *testing.T) {
	path := encoded(t)
	out, err := run(t, "decode", path, "--compress", "zstd")
	require.NoError(t, err)

	dest := filepath.Join(filepath.Dir(path), "prices.json.zst")
	assert.Contains(t, out, dest)
	frame, err := os.ReadFile(dest)
	require.NoError(t, err)

	codec, err := compression.New(compression.Zstd, compression.Options{})
	require.NoError(t, err)
	data, err := codec.Decompress(frame)
	require.NoError(t, err)
	assert.JSONEq(t, pricesJSON, string(data))

	_, err = run(t, "decode", path, "--compress", "bzip2")
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	path := encoded(t)

	out, err := run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Rows:      2")
	assert.Contains(t, out, "[*] price")
	assert.Contains(t, out, "Indexes: price")

	out, err = run(t, "info", path, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"num_rows": 2`)
}

func TestValidate(t *testing.T) {
	path := encoded(t)

	out, err := run(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	out, err = run(t, "validate", path, "--schema-only")
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	junk := testutil.WriteFile(t, "junk.jonx", []byte("JONX\x09\x00\x00\x00"))
	_, err = run(t, "validate", junk)
	assert.True(t, jonxerrors.IsDecode(err), "got %v", err)
}

func TestQuery(t *testing.T) {
	path := encoded(t)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"price", "--min", "--use-index"}, "min(price) = 5\n"},
		{[]string{"price", "--min"}, "min(price) = 5\n"},
		{[]string{"price", "--max"}, "max(price) = 10\n"},
		{[]string{"price", "--sum"}, "sum(price) = 15\n"},
		{[]string{"price", "--avg"}, "avg(price) = 7.5\n"},
		{[]string{"name", "--count"}, "count(name) = 2\n"},
		{[]string{"name", "--max"}, "max(name) = \"b\"\n"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := run(t, append([]string{"query", path}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestQueryErrors(t *testing.T) {
	path := encoded(t)

	_, err := run(t, "query", path, "price")
	assert.Error(t, err, "an operation is required")
	_, err = run(t, "query", path, "price", "--min", "--max")
	assert.Error(t, err)
	_, err = run(t, "query", path, "name", "--sum")
	assert.True(t, jonxerrors.IsValidation(err))
	_, err = run(t, "query", path, "missing", "--count")
	assert.True(t, jonxerrors.IsValidation(err))
}

func TestConfiguration(t *testing.T) {
	path := encoded(t)

	good := testutil.WriteFile(t, "jonx.yaml", []byte("codec:\n  decode_workers: 4\nlogging:\n  level: error\n"))
	_, err := run(t, "--config", good, "info", path)
	require.NoError(t, err)

	bad := testutil.WriteFile(t, "bad.yaml", []byte("codec:\n  decode_workers: 0\n"))
	_, err = run(t, "--config", bad, "info", path)
	assert.True(t, jonxerrors.IsType(err, jonxerrors.TypeConfig), "got %v", err)

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "info", path)
	assert.True(t, jonxerrors.IsFile(err))

	t.Setenv("JONX_LOG_LEVEL", "loud")
	_, err = run(t, "info", path)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "JONX v"+version)
}
