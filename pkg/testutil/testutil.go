// Package testutil provides testing utilities for JONX
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ajitpratap0/jonx/pkg/value"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// WriteFile writes content to name under a fresh temp directory and returns
// the path.
func WriteFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// ParseRows parses a JSON array of records.
func ParseRows(t *testing.T, data string) []value.Value {
	t.Helper()
	v, err := value.Parse([]byte(data))
	require.NoError(t, err)
	rows, ok := v.AsArray()
	require.True(t, ok, "not a JSON array: %s", data)
	return rows
}

// GenerateRows builds n deterministic records covering every detected
// column type. Every seventh row has a null "score".
func GenerateRows(n int) []value.Value {
	statuses := []string{"active", "idle", "gone"}
	rows := make([]value.Value, n)
	for i := 0; i < n; i++ {
		score := value.Float(float64(i%100) / 4)
		if i%7 == 0 {
			score = value.Null()
		}
		rows[i] = value.Object(
			value.Member{Key: "id", Value: value.Int(int64(i))},
			value.Member{Key: "delta", Value: value.Int(int64(i%50 - 25))},
			value.Member{Key: "score", Value: score},
			value.Member{Key: "ratio", Value: value.Float(float64(i) * 1.000001)},
			value.Member{Key: "ok", Value: value.Bool(i%2 == 0)},
			value.Member{Key: "status", Value: value.String(statuses[i%len(statuses)])},
			value.Member{Key: "name", Value: value.String(fmt.Sprintf("user-%05d", i))},
			value.Member{Key: "day", Value: value.String(fmt.Sprintf("2024-01-%02d", i%28+1))},
			value.Member{Key: "seen", Value: value.String(fmt.Sprintf("2024-02-01T%02d:%02d:00Z", i%24, i%60))},
			value.Member{Key: "uid", Value: value.String(fmt.Sprintf("00000000-0000-4000-8000-%012d", i))},
			value.Member{Key: "tags", Value: value.Array(value.String("t"), value.Int(int64(i%3)))},
		)
	}
	return rows
}
