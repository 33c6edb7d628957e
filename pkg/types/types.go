// Package types defines the closed JONX column type taxonomy and the
// detection ladder that assigns one tag to a column sample.
//
// A Tag is a base Kind plus an optional nullable wrapper. Its textual form is
// what the container schema stores: "uint8", "enum", "nullable<float16>".
package types

import (
	"fmt"
	"strings"
)

// Kind is a base column type.
type Kind uint8

const (
	Unknown Kind = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float16
	Float32
	Float64
	String
	JSON
	Binary
	UUID
	Date
	Datetime
	TimestampMs
	Enum
	StringDict
)

var kindNames = [...]string{
	Unknown:     "unknown",
	Bool:        "bool",
	Int8:        "int8",
	Int16:       "int16",
	Int32:       "int32",
	Int64:       "int64",
	Uint8:       "uint8",
	Uint16:      "uint16",
	Uint32:      "uint32",
	Uint64:      "uint64",
	Float16:     "float16",
	Float32:     "float32",
	Float64:     "float64",
	String:      "string",
	JSON:        "json",
	Binary:      "binary",
	UUID:        "uuid",
	Date:        "date",
	Datetime:    "datetime",
	TimestampMs: "timestamp_ms",
	Enum:        "enum",
	StringDict:  "string_dict",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = Kind(k)
	}
	return m
}()

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

const (
	nullablePrefix = "nullable<"
	nullableSuffix = ">"
)

// Tag is the declared type of one column.
type Tag struct {
	Kind     Kind
	Nullable bool
}

// Of returns the non-nullable tag of k.
func Of(k Kind) Tag { return Tag{Kind: k} }

// NullableOf returns the nullable tag of k.
func NullableOf(k Kind) Tag { return Tag{Kind: k, Nullable: true} }

// String returns the schema form of t.
func (t Tag) String() string {
	if t.Nullable {
		return nullablePrefix + t.Kind.String() + nullableSuffix
	}
	return t.Kind.String()
}

// MarshalText implements encoding.TextMarshaler.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tag) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ErrUnknownType is returned by Parse for tags outside the taxonomy.
type ErrUnknownType struct {
	Tag string
}

func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown column type %q", e.Tag)
}

// Parse parses the schema form of a tag.
func Parse(s string) (Tag, error) {
	nullable := false
	base := s
	if strings.HasPrefix(s, nullablePrefix) && strings.HasSuffix(s, nullableSuffix) {
		nullable = true
		base = s[len(nullablePrefix) : len(s)-len(nullableSuffix)]
	}
	k, ok := kindsByName[base]
	if !ok {
		return Tag{}, &ErrUnknownType{Tag: s}
	}
	// "unknown" only exists as the type of an all-null column
	if k == Unknown && !nullable {
		return Tag{}, &ErrUnknownType{Tag: s}
	}
	return Tag{Kind: k, Nullable: nullable}, nil
}

// ParseLenient parses s and falls back to a JSON tag, keeping the nullable
// wrapper, when s is not part of the taxonomy. The boolean reports whether s
// was recognized.
func ParseLenient(s string) (Tag, bool) {
	t, err := Parse(s)
	if err == nil {
		return t, true
	}
	nullable := strings.HasPrefix(s, nullablePrefix) && strings.HasSuffix(s, nullableSuffix)
	return Tag{Kind: JSON, Nullable: nullable}, false
}

// Base returns t without its nullable wrapper.
func (t Tag) Base() Tag { return Tag{Kind: t.Kind} }

// IsInteger reports fixed-width integer kinds.
func (t Tag) IsInteger() bool {
	return t.IsSigned() || t.IsUnsigned()
}

// IsSigned reports signed integer kinds.
func (t Tag) IsSigned() bool {
	switch t.Kind {
	case Int8, Int16, Int32, Int64:
		return true
	}
	return false
}

// IsUnsigned reports unsigned integer kinds.
func (t Tag) IsUnsigned() bool {
	switch t.Kind {
	case Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}

// IsFloat reports float kinds.
func (t Tag) IsFloat() bool {
	switch t.Kind {
	case Float16, Float32, Float64:
		return true
	}
	return false
}

// IsNumeric reports integer and float kinds.
func (t Tag) IsNumeric() bool { return t.IsInteger() || t.IsFloat() }

// IsTemporal reports date, datetime and timestamp_ms.
func (t Tag) IsTemporal() bool {
	switch t.Kind {
	case Date, Datetime, TimestampMs:
		return true
	}
	return false
}

// IsIndexable reports whether a sorted index is built for columns of t.
func (t Tag) IsIndexable() bool { return t.IsNumeric() || t.IsTemporal() }

// IsOrdered reports whether values of t can be compared for min/max.
func (t Tag) IsOrdered() bool {
	switch t.Kind {
	case Bool, String, UUID, Enum, StringDict:
		return true
	}
	return t.IsIndexable()
}

// NeedsMapping reports kinds whose payload references a schema mapping.
func (t Tag) NeedsMapping() bool { return t.Kind == Enum || t.Kind == StringDict }

// Width returns the element width in bytes of fixed-width kinds, 0 otherwise.
func (t Tag) Width() int {
	switch t.Kind {
	case Bool, Int8, Uint8:
		return 1
	case Int16, Uint16, Float16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

// IsFixedWidth reports kinds packed as binary arrays.
func (t Tag) IsFixedWidth() bool { return t.Width() > 0 }

// Container format versions.
const (
	Version1       uint32 = 1
	Version2       uint32 = 2
	Version3       uint32 = 3
	CurrentVersion        = Version3
)

// SupportedVersion reports whether a container version can be decoded.
func SupportedVersion(v uint32) bool {
	return v >= Version1 && v <= Version3
}

// InVersion reports whether t belongs to the taxonomy of container version v.
// Versions before 3 predate int16, float16 and the mapped string kinds.
func (t Tag) InVersion(v uint32) bool {
	if v >= Version3 {
		return true
	}
	switch t.Kind {
	case Int16, Float16, Enum, StringDict:
		return false
	}
	return true
}
