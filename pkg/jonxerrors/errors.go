// Package jonxerrors provides the structured error kinds used across the JONX
// codec. Every failure leaving a package is an *Error carrying a kind, a
// message, the wrapped cause and a detail record (field, offset, sizes).
//
// # Basic Usage
//
//	err := jonxerrors.New(jonxerrors.TypeDecode, "column payload truncated").
//	    WithField("price").
//	    WithSizes(8, 5)
//
//	if jonxerrors.IsType(err, jonxerrors.TypeDecode) {
//	    // corrupt container
//	}
//
// # Kinds
//
//   - validation: malformed rows, unknown or non-numeric column requested
//   - schema: inconsistent row keys, column/index lengths, malformed schema blob
//   - encode: type detection, packing or compression failure
//   - decode: bad magic, unsupported version, truncation, decompression, bad payload
//   - file: missing, unreadable or unwritable path
//   - index: requested index missing or empty
//
// Errors are never retried; a corrupt container is fatal for the affected read.
package jonxerrors

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// ErrorType is the category of a JONX error.
type ErrorType string

const (
	// TypeValidation marks malformed input or an invalid query request
	TypeValidation ErrorType = "validation"
	// TypeSchema marks structural inconsistencies between rows, columns or indexes
	TypeSchema ErrorType = "schema"
	// TypeEncode marks failures while building a container
	TypeEncode ErrorType = "encode"
	// TypeDecode marks failures while reading a container
	TypeDecode ErrorType = "decode"
	// TypeFile marks filesystem failures
	TypeFile ErrorType = "file"
	// TypeIndex marks a missing or empty sorted index
	TypeIndex ErrorType = "index"
	// TypeConfig marks invalid configuration
	TypeConfig ErrorType = "config"
	// TypeInternal marks programming errors
	TypeInternal ErrorType = "internal"
)

// Common detail keys.
const (
	DetailField    = "field"
	DetailType     = "type"
	DetailOffset   = "offset"
	DetailExpected = "expected"
	DetailActual   = "actual"
	DetailPath     = "path"
	DetailIndex    = "index"
)

// Error is a categorized error with a detail record.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame is one frame of the call stack captured at creation.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error formats the kind, message, sorted details and cause.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	b.WriteString(": ")
	b.WriteString(e.Message)

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Details[k])
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the cause for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail. Calls can be chained.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithField records the column the error refers to.
func (e *Error) WithField(field string) *Error {
	return e.WithDetail(DetailField, field)
}

// WithOffset records the byte offset in the container.
func (e *Error) WithOffset(offset int) *Error {
	return e.WithDetail(DetailOffset, offset)
}

// WithSizes records expected and actual sizes.
func (e *Error) WithSizes(expected, actual int) *Error {
	return e.WithDetail(DetailExpected, expected).WithDetail(DetailActual, actual)
}

// Detail returns a single detail value.
func (e *Error) Detail(key string) (interface{}, bool) {
	v, ok := e.Details[key]
	return v, ok
}

// New creates an error of the given kind and captures the call stack.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf is New with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps err with a kind and message. The stack of an existing *Error is
// preserved. Returns nil if err is nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existing.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// Ensure returns err unchanged when it already is an *Error and wraps it with
// the given kind otherwise.
func Ensure(err error, errType ErrorType, message string) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return Wrap(err, errType, message)
}

// TypeOf returns the kind of the outermost *Error in the chain, or "" when
// err carries none.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Type
}

// IsType reports whether the outermost *Error in the chain is of errType.
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// IsValidation reports a validation error.
func IsValidation(err error) bool { return IsType(err, TypeValidation) }

// IsSchema reports a schema error.
func IsSchema(err error) bool { return IsType(err, TypeSchema) }

// IsEncode reports an encode error.
func IsEncode(err error) bool { return IsType(err, TypeEncode) }

// IsDecode reports a decode error.
func IsDecode(err error) bool { return IsType(err, TypeDecode) }

// IsFile reports a file error.
func IsFile(err error) bool { return IsType(err, TypeFile) }

// IsIndex reports an index error.
func IsIndex(err error) bool { return IsType(err, TypeIndex) }

func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
