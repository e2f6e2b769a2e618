package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	dispatcher := NewDispatcher(nil)

	var received []Event
	dispatcher.Subscribe(TicketClassified, func(e Event) {
		received = append(received, e)
	})
	dispatcher.Subscribe(TicketClassified, func(e Event) {
		received = append(received, e)
	})

	dispatcher.Publish(NewEvent(TicketClassified, "TKT-00000001", nil))
	dispatcher.Publish(NewEvent(TicketRouted, "TKT-00000001", nil))

	require.Len(t, received, 2)
	assert.Equal(t, TicketClassified, received[0].Type)
	assert.Equal(t, "TKT-00000001", received[0].TicketID)
	assert.NotEmpty(t, received[0].ID)
}

func TestDispatcherRecoversFromPanickingHandler(t *testing.T) {
	dispatcher := NewDispatcher(nil)

	delivered := false
	dispatcher.Subscribe(TicketRouted, func(e Event) {
		panic("handler bug")
	})
	dispatcher.Subscribe(TicketRouted, func(e Event) {
		delivered = true
	})

	assert.NotPanics(t, func() {
		dispatcher.Publish(NewEvent(TicketRouted, "TKT-00000002", nil))
	})
	assert.True(t, delivered)
}
