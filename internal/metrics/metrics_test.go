package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(matchOutcomes.WithLabelValues("slots", "empty"))
	IncMatch("slots", "empty")
	assert.Equal(t, before+1, testutil.ToFloat64(matchOutcomes.WithLabelValues("slots", "empty")))

	before = testutil.ToFloat64(bookingTransitions.WithLabelValues("cancel", "ok"))
	IncBooking("cancel", "ok")
	IncBooking("cancel", "ok")
	assert.Equal(t, before+2, testutil.ToFloat64(bookingTransitions.WithLabelValues("cancel", "ok")))

	before = testutil.ToFloat64(dialogTurns.WithLabelValues("user", "INITIAL"))
	IncTurn("user", "INITIAL")
	assert.Equal(t, before+1, testutil.ToFloat64(dialogTurns.WithLabelValues("user", "INITIAL")))

	before = testutil.ToFloat64(upstreamRequests.WithLabelValues("recommend", "transport_error"))
	IncUpstream("recommend", "transport_error")
	assert.Equal(t, before+1, testutil.ToFloat64(upstreamRequests.WithLabelValues("recommend", "transport_error")))
}
