package container

import (
	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	jsonpool "github.com/ajitpratap0/jonx/pkg/json"
	"github.com/ajitpratap0/jonx/pkg/packing"
	"github.com/ajitpratap0/jonx/pkg/types"
)

// Schema describes the columns of a container.
type Schema struct {
	// Fields is the column order, which is also the blob order
	Fields []string
	// Types holds the parsed tag of every field. Unrecognized tags are
	// parsed as json, keeping a nullable wrapper.
	Types map[string]types.Tag
	// RawTypes holds the tags exactly as stored
	RawTypes map[string]string
	// EnumMappings and StringDicts map value -> index per mapped field
	EnumMappings map[string]map[string]int
	StringDicts  map[string]map[string]int
}

type wireSchema struct {
	Fields       []string                  `json:"fields"`
	Types        map[string]string         `json:"types"`
	EnumMappings map[string]map[string]int `json:"enum_mappings,omitempty"`
	StringDicts  map[string]map[string]int `json:"string_dicts,omitempty"`
}

func newSchema(fields []string) *Schema {
	return &Schema{
		Fields:   fields,
		Types:    make(map[string]types.Tag, len(fields)),
		RawTypes: make(map[string]string, len(fields)),
	}
}

// setType records the tag of field.
func (s *Schema) setType(field string, tag types.Tag) {
	s.Types[field] = tag
	s.RawTypes[field] = tag.String()
}

// setMapping stores the mapping of a mapped field.
func (s *Schema) setMapping(field string, tag types.Tag, mapping map[string]int) {
	switch tag.Kind {
	case types.Enum:
		if s.EnumMappings == nil {
			s.EnumMappings = make(map[string]map[string]int)
		}
		s.EnumMappings[field] = mapping
	case types.StringDict:
		if s.StringDicts == nil {
			s.StringDicts = make(map[string]map[string]int)
		}
		s.StringDicts[field] = mapping
	}
}

// Type returns the parsed tag of field.
func (s *Schema) Type(field string) (types.Tag, bool) {
	t, ok := s.Types[field]
	return t, ok
}

// HasField reports whether field is part of the schema.
func (s *Schema) HasField(field string) bool {
	_, ok := s.Types[field]
	return ok
}

// Recognized reports whether the stored tag of field is part of the taxonomy.
func (s *Schema) Recognized(field string) bool {
	_, err := types.Parse(s.RawTypes[field])
	return err == nil
}

// Mapping returns the value -> index table of a mapped field.
func (s *Schema) Mapping(field string) (map[string]int, bool) {
	t, ok := s.Types[field]
	if !ok {
		return nil, false
	}
	var m map[string]int
	switch t.Kind {
	case types.Enum:
		m, ok = s.EnumMappings[field]
	case types.StringDict:
		m, ok = s.StringDicts[field]
	default:
		return nil, false
	}
	return m, ok
}

// Meta returns the packing metadata of field.
func (s *Schema) Meta(field string) packing.Meta {
	m, _ := s.Mapping(field)
	return packing.Meta{Mapping: m}
}

// MarshalJSON writes the stored form of the schema.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return jsonpool.Marshal(wireSchema{
		Fields:       s.Fields,
		Types:        s.RawTypes,
		EnumMappings: s.EnumMappings,
		StringDicts:  s.StringDicts,
	})
}

// ParseSchema parses and checks a decompressed schema blob: fields must be a
// list of strings without duplicates, types an object holding a string tag
// for every field.
func ParseSchema(data []byte) (*Schema, error) {
	if !jsonpool.Valid(data) {
		return nil, jonxerrors.New(jonxerrors.TypeDecode, "schema is not valid JSON")
	}

	var top map[string]jsonpool.RawMessage
	if err := jsonpool.Unmarshal(data, &top); err != nil || top == nil {
		return nil, jonxerrors.New(jonxerrors.TypeSchema, "schema must be an object")
	}

	rawFields, hasFields := top["fields"]
	rawTypes, hasTypes := top["types"]
	if !hasFields || !hasTypes {
		keys := make([]string, 0, len(top))
		for k := range top {
			keys = append(keys, k)
		}
		return nil, jonxerrors.New(jonxerrors.TypeSchema, "schema must contain fields and types").
			WithDetail("schema_keys", keys)
	}

	var fields []string
	if err := jsonpool.Unmarshal(rawFields, &fields); err != nil || fields == nil {
		return nil, jonxerrors.New(jonxerrors.TypeSchema, "schema fields must be a list of strings")
	}
	var tags map[string]string
	if err := jsonpool.Unmarshal(rawTypes, &tags); err != nil || tags == nil {
		return nil, jonxerrors.New(jonxerrors.TypeSchema, "schema types must map fields to type names")
	}

	s := newSchema(fields)
	for _, f := range fields {
		if _, dup := s.RawTypes[f]; dup {
			return nil, jonxerrors.Newf(jonxerrors.TypeSchema, "field %q is listed twice", f).WithField(f)
		}
		raw, ok := tags[f]
		if !ok {
			return nil, jonxerrors.Newf(jonxerrors.TypeSchema, "field %q has no type", f).WithField(f)
		}
		tag, _ := types.ParseLenient(raw)
		s.Types[f] = tag
		s.RawTypes[f] = raw
	}

	if raw, ok := top["enum_mappings"]; ok {
		if err := jsonpool.Unmarshal(raw, &s.EnumMappings); err != nil {
			return nil, jonxerrors.Wrap(err, jonxerrors.TypeSchema, "invalid enum_mappings")
		}
	}
	if raw, ok := top["string_dicts"]; ok {
		if err := jsonpool.Unmarshal(raw, &s.StringDicts); err != nil {
			return nil, jonxerrors.Wrap(err, jonxerrors.TypeSchema, "invalid string_dicts")
		}
	}
	return s, nil
}
