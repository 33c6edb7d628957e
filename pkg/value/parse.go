package value

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"
)

// Parse decodes one JSON document into a Value, keeping object member order.
// Numbers written without a fraction or exponent become integers; all others
// become floats.
func Parse(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Value{}, fmt.Errorf("empty JSON document")
	}
	raw, dataType, end, err := jsonparser.Get(data)
	if err != nil {
		return Value{}, fmt.Errorf("malformed JSON: %w", err)
	}
	if end < len(data) && len(bytes.TrimSpace(data[end:])) > 0 {
		return Value{}, fmt.Errorf("malformed JSON: trailing data at offset %d", end)
	}
	return fromRaw(raw, dataType)
}

func fromRaw(raw []byte, dataType jsonparser.ValueType) (Value, error) {
	switch dataType {
	case jsonparser.Null:
		return Null(), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return Value{}, fmt.Errorf("malformed boolean %q: %w", raw, err)
		}
		return Bool(b), nil
	case jsonparser.Number:
		return parseNumber(raw)
	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return Value{}, fmt.Errorf("malformed string: %w", err)
		}
		return String(s), nil
	case jsonparser.Array:
		return parseArray(raw)
	case jsonparser.Object:
		return parseObject(raw)
	}
	return Value{}, fmt.Errorf("unexpected JSON token %q", raw)
}

func parseArray(raw []byte) (Value, error) {
	items := make([]Value, 0)
	var inner error
	_, err := jsonparser.ArrayEach(raw, func(elem []byte, dataType jsonparser.ValueType, _ int, err error) {
		if inner != nil {
			return
		}
		if err != nil {
			inner = err
			return
		}
		v, err := fromRaw(elem, dataType)
		if err != nil {
			inner = err
			return
		}
		items = append(items, v)
	})
	if inner != nil {
		return Value{}, inner
	}
	if err != nil {
		return Value{}, fmt.Errorf("malformed array: %w", err)
	}
	return Array(items...), nil
}

func parseObject(raw []byte) (Value, error) {
	members := make([]Member, 0)
	err := jsonparser.ObjectEach(raw, func(key, elem []byte, dataType jsonparser.ValueType, _ int) error {
		v, err := fromRaw(elem, dataType)
		if err != nil {
			return err
		}
		members = setMember(members, string(key), v)
		return nil
	})
	if err != nil {
		return Value{}, fmt.Errorf("malformed object: %w", err)
	}
	return Value{kind: KindObject, obj: members}, nil
}

func parseNumber(raw []byte) (Value, error) {
	text := string(raw)
	if bytes.ContainsAny(raw, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("malformed number %q: %w", text, err)
		}
		return Float(f), nil
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Int(i), nil
	}
	u, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return Value{}, fmt.Errorf("integer %s out of 64-bit range", text)
	}
	return Uint(u), nil
}
