package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets", "GET", 200, time.Millisecond)
	m.RecordRequest("/tickets", "GET", 200, time.Millisecond)
	m.RecordError("/tickets", "POST", "VALIDATION_FAILED")
	m.RecordActivation()
	m.RecordDispatch("ASSIGNED")
	m.RecordDispatch("ASSIGNED")
	m.RecordDispatch("RESOLVED")
	m.RecordDispatchFailure("assignment")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/tickets|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/tickets|POST|VALIDATION_FAILED"])
	assert.Equal(t, int64(2), snap.Dispatched["ASSIGNED"])
	assert.Equal(t, int64(1), snap.Dispatched["RESOLVED"])
	assert.Equal(t, int64(1), snap.DispatchFailures["assignment"])
	assert.Equal(t, int64(1), snap.Activations)

	// snapshot is a copy
	snap.Dispatched["ASSIGNED"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Dispatched["ASSIGNED"])
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordDispatch("ASSIGNED")
	m.RecordActivation()
	assert.Zero(t, m.Snapshot().Activations)
}
