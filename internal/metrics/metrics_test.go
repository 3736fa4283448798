package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTransition(t *testing.T) {
	before := testutil.ToFloat64(sessionTransitions.WithLabelValues("pause", ResultRejected))
	RecordTransition("pause", ResultRejected)
	RecordTransition("pause", ResultRejected)
	assert.Equal(t, before+2, testutil.ToFloat64(sessionTransitions.WithLabelValues("pause", ResultRejected)))
}

func TestRecordRecovery(t *testing.T) {
	before := testutil.ToFloat64(recoveryOutcomes.WithLabelValues("healed"))
	RecordRecovery("healed")
	assert.Equal(t, before+1, testutil.ToFloat64(recoveryOutcomes.WithLabelValues("healed")))
}
