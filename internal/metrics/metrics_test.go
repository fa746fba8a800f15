package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCacheRequestsCounts(t *testing.T) {
	before := testutil.ToFloat64(CacheRequests.WithLabelValues("hit"))
	CacheRequests.WithLabelValues("hit").Inc()
	after := testutil.ToFloat64(CacheRequests.WithLabelValues("hit"))

	if after-before != 1 {
		t.Errorf("Expected hit counter to grow by 1, got %v", after-before)
	}
}

func TestStartDisabled(t *testing.T) {
	s := Start("")
	if s.srv != nil {
		t.Error("Expected no listener for an empty address")
	}
	s.Stop()
}
