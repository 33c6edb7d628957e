package value

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	jsonpool "github.com/ajitpratap0/jonx/pkg/json"
)

// MarshalJSON encodes v as compact JSON. Object members keep their order and
// floats always carry a fraction or exponent so they parse back as floats.
// Bytes are written as base64 strings.
func (v Value) MarshalJSON() ([]byte, error) {
	buf := jsonpool.GetBuffer()
	defer jsonpool.PutBuffer(buf)

	if err := v.appendJSON(buf); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func (v Value) appendJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindUint:
		buf.WriteString(strconv.FormatUint(v.u, 10))
	case KindFloat:
		s, err := FormatFloat(v.f)
		if err != nil {
			return err
		}
		buf.WriteString(s)
	case KindString:
		data, err := jsonpool.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(data)
	case KindBytes:
		data, err := jsonpool.Marshal(v.raw)
		if err != nil {
			return err
		}
		buf.Write(data)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.appendJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.obj {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := jsonpool.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := m.Value.appendJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot marshal %s", v.kind)
	}
	return nil
}

// FormatFloat renders f the way the JSON front ends expect: shortest
// round-trip digits, with ".0" appended to integral values.
func FormatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("unsupported float value %v", f)
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s, nil
}
