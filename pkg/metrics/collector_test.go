package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLifecycleSink_Record(t *testing.T) {
	sink := NewLifecycleSink()

	before := testutil.ToFloat64(lifecycleEventsTotal.WithLabelValues("downtime"))

	sink.Record("downtime", 500_000)
	sink.Record("downtime", -250)

	assert.Equal(t, float64(-250), testutil.ToFloat64(lifecycleStat.WithLabelValues("downtime")))
	assert.Equal(t, before+2, testutil.ToFloat64(lifecycleEventsTotal.WithLabelValues("downtime")))
}

func TestRecordCommand_DefaultsLabels(t *testing.T) {
	before := testutil.ToFloat64(botCommandsTotal.WithLabelValues("unknown", "unknown"))

	RecordCommand("", "", time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(botCommandsTotal.WithLabelValues("unknown", "unknown")))
}

func TestSetLastUpdateID(t *testing.T) {
	SetLastUpdateID(4242)
	assert.Equal(t, float64(4242), testutil.ToFloat64(lastUpdateID))
}
