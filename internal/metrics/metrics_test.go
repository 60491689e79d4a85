package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRecommendation(t *testing.T) {
	before := testutil.ToFloat64(RecommendationRequests.WithLabelValues("category_match", "success"))

	RecordRecommendation("category_match", "success", 15*time.Millisecond)

	after := testutil.ToFloat64(RecommendationRequests.WithLabelValues("category_match", "success"))
	if after != before+1 {
		t.Errorf("expected counter to increase by 1, got %f -> %f", before, after)
	}
}
