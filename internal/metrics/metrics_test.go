package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRecommendation(t *testing.T) {
	before := testutil.ToFloat64(RecommendationsTotal.WithLabelValues(OutcomeNotFound))
	RecordRecommendation(OutcomeNotFound, time.Millisecond)
	after := testutil.ToFloat64(RecommendationsTotal.WithLabelValues(OutcomeNotFound))
	if after != before+1 {
		t.Fatalf("counter not incremented: %v -> %v", before, after)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Fatalf("gauge = %v want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Fatalf("gauge = %v want %v", got, before)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("GET", "/healthz", "200")
	before := testutil.ToFloat64(c)
	RecordAPIRequest("GET", "/healthz", "200", 2*time.Millisecond)
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Fatalf("counter = %v want %v", got, before+1)
	}
}
