package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(bookingCreated.WithLabelValues("pending"))
	IncBookingCreated("pending")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingCreated.WithLabelValues("pending")))

	before = testutil.ToFloat64(listenerFailures.WithLabelValues("booking:created"))
	IncListenerFailure("booking:created")
	assert.Equal(t, before+1, testutil.ToFloat64(listenerFailures.WithLabelValues("booking:created")))

	before = testutil.ToFloat64(streamClients)
	StreamClientConnected()
	StreamClientDisconnected()
	assert.Equal(t, before, testutil.ToFloat64(streamClients))
}
