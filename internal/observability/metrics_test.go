package observability

import (
	"testing"
	"time"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordConnectionAccepted("worker")
	RecordAcceptError("node manager")
	RecordMessageDispatched("object manager", "PushRequest")
	RecordHTTPRequest("nodelet-a", "GET", "/health", 200, 12*time.Millisecond)
}
