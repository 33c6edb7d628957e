package metrics

import (
	"errors"
	"testing"

	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordResult(t *testing.T) {
	success := Operations.WithLabelValues(OpValidate, "success")
	failure := Operations.WithLabelValues(OpValidate, "failure")
	decodeErrs := Errors.WithLabelValues(OpValidate, "decode")
	internal := Errors.WithLabelValues(OpValidate, "internal")

	s0, f0 := testutil.ToFloat64(success), testutil.ToFloat64(failure)
	d0, i0 := testutil.ToFloat64(decodeErrs), testutil.ToFloat64(internal)

	RecordResult(OpValidate, nil)
	RecordResult(OpValidate, jonxerrors.New(jonxerrors.TypeDecode, "bad magic"))
	RecordResult(OpValidate, errors.New("plain"))

	assert.Equal(t, s0+1, testutil.ToFloat64(success))
	assert.Equal(t, f0+2, testutil.ToFloat64(failure))
	assert.Equal(t, d0+1, testutil.ToFloat64(decodeErrs))
	assert.Equal(t, i0+1, testutil.ToFloat64(internal))
}

func TestRecordColumn(t *testing.T) {
	packed := ColumnBytes.WithLabelValues("uint8", StagePacked)
	compressed := ColumnBytes.WithLabelValues("uint8", StageCompressed)
	p0, c0 := testutil.ToFloat64(packed), testutil.ToFloat64(compressed)

	RecordColumn("uint8", 100, 20)

	assert.Equal(t, p0+100, testutil.ToFloat64(packed))
	assert.Equal(t, c0+20, testutil.ToFloat64(compressed))
}

func TestTimer(t *testing.T) {
	timer := NewTimer(OpDecode)
	first := timer.Stop()
	second := timer.ObserveDuration()
	assert.GreaterOrEqual(t, second, first)
	assert.Positive(t, testutil.CollectAndCount(OperationLatency, "jonx_operation_duration_seconds"))
}
