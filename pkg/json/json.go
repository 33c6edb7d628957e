// Package json provides JSON serialization for JONX payloads, schema blobs and
// index blobs on top of goccy/go-json, with pooled buffers.
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// RawMessage is a raw encoded JSON value.
type RawMessage = gojson.RawMessage

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// Marshal is a drop-in replacement for encoding/json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for encoding/json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a drop-in replacement for encoding/json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// Valid reports whether data is valid JSON
func Valid(data []byte) bool {
	return gojson.Valid(data)
}

// ArrayWriter streams a JSON array to a writer one element at a time.
type ArrayWriter struct {
	w      io.Writer
	indent string
	count  int
	err    error
}

// NewArrayWriter starts a JSON array on w. A non-empty indent puts every
// element on its own line.
func NewArrayWriter(w io.Writer, indent string) *ArrayWriter {
	aw := &ArrayWriter{w: w, indent: indent}
	aw.write([]byte{'['})
	return aw
}

func (aw *ArrayWriter) write(p []byte) {
	if aw.err != nil {
		return
	}
	_, aw.err = aw.w.Write(p)
}

// WriteRaw appends an already encoded element.
func (aw *ArrayWriter) WriteRaw(elem []byte) error {
	if aw.count > 0 {
		aw.write([]byte{','})
	}
	if aw.indent != "" {
		aw.write([]byte{'\n'})
		aw.write([]byte(aw.indent))
	}
	aw.write(elem)
	aw.count++
	return aw.err
}

// Write marshals and appends one element.
func (aw *ArrayWriter) Write(v interface{}) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	return aw.WriteRaw(data)
}

// Close terminates the array.
func (aw *ArrayWriter) Close() error {
	if aw.indent != "" && aw.count > 0 {
		aw.write([]byte{'\n'})
	}
	aw.write([]byte{']'})
	return aw.err
}
