package observability

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshotCopiesCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.IncRequest()
	metrics.IncRequest()
	metrics.IncError()
	metrics.RecordTicketStatus("received")
	metrics.RecordTicketStatus("routed")
	metrics.RecordClassification("IT", "gemini-1.5-pro")
	metrics.RecordRouting("jira", true)
	metrics.RecordRouting("jira", false)

	snapshot := metrics.Snapshot()

	assert.Equal(t, int64(2), snapshot.RequestsTotal)
	assert.Equal(t, int64(1), snapshot.ErrorsTotal)
	assert.Equal(t, int64(1), snapshot.TicketsByStatus["received"])
	assert.Equal(t, int64(1), snapshot.TicketsByDepartment["IT"])
	assert.Equal(t, int64(1), snapshot.ClassifiedByModel["gemini-1.5-pro"])
	assert.Equal(t, int64(1), snapshot.RoutedBySystem["jira"])
	assert.Equal(t, int64(1), snapshot.RoutingFailures["jira"])

	// Mutating the snapshot must not touch live counters.
	snapshot.TicketsByStatus["received"] = 99
	assert.Equal(t, int64(1), metrics.Snapshot().TicketsByStatus["received"])
}

func TestMetricsConcurrentUpdates(t *testing.T) {
	metrics := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.IncRequest()
			metrics.RecordTicketStatus("received")
			metrics.RecordRouting("jira", true)
		}()
	}
	wg.Wait()

	snapshot := metrics.Snapshot()
	assert.Equal(t, int64(50), snapshot.RequestsTotal)
	assert.Equal(t, int64(50), snapshot.TicketsByStatus["received"])
	assert.Equal(t, int64(50), snapshot.RoutedBySystem["jira"])
}
