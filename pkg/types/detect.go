package types

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ajitpratap0/jonx/pkg/value"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultEnumMaxUnique is the largest unique count detected as enum.
	DefaultEnumMaxUnique = 256
	// DefaultDictMaxRatio is the largest unique/sample ratio detected as string_dict.
	DefaultDictMaxRatio = 0.3

	float16Max = 65504
	float32Max = 3.4e38
	// float16Decimals is the precision a float must already have to be stored as float16.
	float16Decimals = 3
)

// DateLayout is the only accepted date form.
const DateLayout = "2006-01-02"

// DatetimeLayouts are the accepted ISO-8601 forms, tried in order. Fractional
// seconds are accepted by every layout with a seconds field.
var DatetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	DateLayout,
}

// DetectorConfig holds the string classification thresholds.
type DetectorConfig struct {
	EnumMaxUnique int
	DictMaxRatio  float64
}

// DefaultDetectorConfig returns the standard thresholds.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		EnumMaxUnique: DefaultEnumMaxUnique,
		DictMaxRatio:  DefaultDictMaxRatio,
	}
}

// Detector assigns a tag to a column sample. It holds no per-call state.
type Detector struct {
	cfg    DetectorConfig
	logger *zap.Logger
}

// NewDetector creates a detector. A nil logger disables logging.
func NewDetector(cfg DetectorConfig, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{cfg: cfg, logger: logger}
}

// Detect runs the detection ladder over the full sample.
func Detect(values []value.Value) (Tag, error) {
	return NewDetector(DefaultDetectorConfig(), nil).Detect(values)
}

// Detect runs the detection ladder over the full sample.
func (d *Detector) Detect(values []value.Value) (Tag, error) {
	if len(values) == 0 {
		return Tag{}, fmt.Errorf("cannot detect the type of an empty column")
	}

	clean := make([]value.Value, 0, len(values))
	for _, v := range values {
		if !v.IsNull() {
			clean = append(clean, v)
		}
	}
	nullable := len(clean) < len(values)
	if len(clean) == 0 {
		return NullableOf(Unknown), nil
	}

	var k Kind
	switch sampleKind(clean) {
	case value.KindBool:
		k = Bool
	case value.KindInt:
		k = detectInteger(clean)
	case value.KindFloat:
		k = detectFloat(clean)
	case value.KindBytes:
		k = Binary
	case value.KindString:
		k = d.detectString(clean)
	default:
		k = JSON
	}

	t := Tag{Kind: k, Nullable: nullable}
	d.logger.Debug("detected column type",
		zap.String("type", t.String()),
		zap.Int("values", len(values)),
		zap.Int("nulls", len(values)-len(clean)))
	return t, nil
}

// sampleKind returns the single JSON-level kind of the sample, folding Int and
// Uint together, or KindNull when kinds are mixed or composite.
func sampleKind(clean []value.Value) value.Kind {
	kindOf := func(v value.Value) value.Kind {
		if v.Kind() == value.KindUint {
			return value.KindInt
		}
		return v.Kind()
	}

	first := kindOf(clean[0])
	switch first {
	case value.KindArray, value.KindObject:
		return value.KindNull
	}
	for _, v := range clean[1:] {
		if kindOf(v) != first {
			return value.KindNull
		}
	}
	return first
}

type intRange struct {
	kind   Kind
	lo, hi int64
}

type uintRange struct {
	kind Kind
	hi   uint64
}

var (
	signedRanges = []intRange{
		{Int8, math.MinInt8, math.MaxInt8},
		{Int16, math.MinInt16, math.MaxInt16},
		{Int32, math.MinInt32, math.MaxInt32},
		{Int64, math.MinInt64, math.MaxInt64},
	}
	unsignedRanges = []uintRange{
		{Uint8, math.MaxUint8},
		{Uint16, math.MaxUint16},
		{Uint32, math.MaxUint32},
		{Uint64, math.MaxUint64},
	}
)

func detectInteger(clean []value.Value) Kind {
	negative := false
	beyondInt64 := false
	var minSigned, maxSigned int64 = math.MaxInt64, math.MinInt64
	var maxUnsigned uint64

	for _, v := range clean {
		if i, ok := v.AsInt(); ok {
			if i < 0 {
				negative = true
			}
			minSigned = min(minSigned, i)
			maxSigned = max(maxSigned, i)
			if i >= 0 {
				maxUnsigned = max(maxUnsigned, uint64(i))
			}
			continue
		}
		u, _ := v.AsUint()
		beyondInt64 = true
		maxUnsigned = max(maxUnsigned, u)
	}

	if !negative {
		for _, r := range unsignedRanges {
			if maxUnsigned <= r.hi {
				return r.kind
			}
		}
	}
	if beyondInt64 {
		// mixed signs beyond int64 have no fixed-width home; packing rejects it
		return Int64
	}
	for _, r := range signedRanges {
		if minSigned >= r.lo && maxSigned <= r.hi {
			return r.kind
		}
	}
	return Int64
}

func detectFloat(clean []value.Value) Kind {
	fitsF16, fitsF32 := true, true
	for _, v := range clean {
		f, _ := v.AsFloat()
		if f < -float16Max || f > float16Max || !hasDecimals(f, float16Decimals) {
			fitsF16 = false
		}
		if f < -float32Max || f > float32Max {
			fitsF32 = false
		}
	}
	switch {
	case fitsF16:
		return Float16
	case fitsF32:
		return Float32
	}
	return Float64
}

// hasDecimals reports whether rounding f to n decimal places leaves it unchanged.
func hasDecimals(f float64, n int) bool {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', n, 64), 64)
	return err == nil && rounded == f
}

func (d *Detector) detectString(clean []value.Value) Kind {
	unique := make([]string, 0)
	seen := make(map[string]struct{})
	for _, v := range clean {
		s, _ := v.AsString()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		unique = append(unique, s)
	}

	switch {
	case all(unique, IsUUID):
		return UUID
	case all(unique, IsDate):
		return Date
	case all(unique, IsDatetime):
		return Datetime
	case len(unique) <= d.cfg.EnumMaxUnique:
		return Enum
	case float64(len(unique)) <= float64(len(clean))*d.cfg.DictMaxRatio:
		return StringDict
	}
	return String
}

func all(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

// IsUUID reports whether s parses as a UUID.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// IsDate reports whether s is a YYYY-MM-DD date.
func IsDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// ParseDatetime parses an ISO-8601 date-time. Values without an offset are
// read as UTC.
func ParseDatetime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range DatetimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// IsDatetime reports whether s is an ISO-8601 date-time.
func IsDatetime(s string) bool {
	_, err := ParseDatetime(s)
	return err == nil
}
