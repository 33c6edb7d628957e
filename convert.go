package jonx

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/ajitpratap0/jonx/pkg/container"
	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	"go.uber.org/zap"
)

// Summary describes one file conversion.
type Summary struct {
	Rows        int   `json:"rows"`
	Columns     int   `json:"columns"`
	InputBytes  int64 `json:"input_bytes"`
	OutputBytes int64 `json:"output_bytes"`
}

// Saving returns the size reduction as a percentage of the input size.
func (s *Summary) Saving() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return (1 - float64(s.OutputBytes)/float64(s.InputBytes)) * 100
}

// EncodeFile encodes the JSON array of records at jsonPath into a container
// at jonxPath, creating its directory when needed. The container is written
// to a temporary file and renamed into place.
func EncodeFile(jsonPath, jonxPath string, opts ...Option) (*Summary, error) {
	c, logger, err := newCodec(opts)
	if err != nil {
		return nil, err
	}
	data, err := readFile(jsonPath)
	if err != nil {
		return nil, err
	}

	t, err := container.TableFromJSON(data)
	if err != nil {
		return nil, withSource(err, jsonPath)
	}
	out, err := c.Encode(t)
	if err != nil {
		return nil, withSource(err, jsonPath)
	}
	if err := writeAtomic(jonxPath, out); err != nil {
		return nil, err
	}

	s := &Summary{
		Rows:        t.Len(),
		Columns:     len(t.Fields),
		InputBytes:  int64(len(data)),
		OutputBytes: int64(len(out)),
	}
	logger.Info("encoded file",
		zap.String("source", jsonPath),
		zap.String("destination", jonxPath),
		zap.Int("rows", s.Rows),
		zap.Int("columns", s.Columns),
		zap.Int64("bytes", s.OutputBytes))
	return s, nil
}

// DecodeFile reads and fully decodes the container at path.
func DecodeFile(path string, opts ...Option) (*container.Result, error) {
	c, _, err := newCodec(opts)
	if err != nil {
		return nil, err
	}
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	res, err := c.Decode(data)
	if err != nil {
		return nil, withSource(err, path)
	}
	return res, nil
}

func withSource(err error, path string) error {
	var e *jonxerrors.Error
	if errors.As(err, &e) {
		e.WithDetail("source_file", path)
	}
	return err
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fileErr(err, "cannot create destination directory", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fileErr(err, "cannot create temporary file", dir)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once renamed
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fileErr(err, "cannot write file", path)
	}
	if err := tmp.Close(); err != nil {
		return fileErr(err, "cannot write file", path)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fileErr(err, "cannot set file mode", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fileErr(err, "cannot move file into place", path)
	}
	return nil
}

func fileErr(err error, msg, path string) error {
	return jonxerrors.Wrap(err, jonxerrors.TypeFile, msg).WithDetail(jonxerrors.DetailPath, path)
}
