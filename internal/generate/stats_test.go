package generate

import (
	"math"
	"testing"
	"time"
)

func TestLLMStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(ms, 1000, 100)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestLLMStatsTokenTotals(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record(10, 2000, 300)
	stats.Record(20, 1000, 200)

	snap := stats.Snapshot()
	if snap.InputTokens != 3000 || snap.OutputTokens != 500 {
		t.Fatalf("expected tokens 3000/500, got %d/%d", snap.InputTokens, snap.OutputTokens)
	}
	// 3000*3/1e6 + 500*15/1e6
	if math.Abs(snap.CostUSD-0.0165) > 1e-9 {
		t.Fatalf("expected cost 0.0165, got %f", snap.CostUSD)
	}
}

func TestLLMStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewLLMStats(10 * time.Millisecond)
	stats.Record(100, 1, 1)
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record(200, 1, 1)
	snap = stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestLLMStatsRecordClampsNegativeValues(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record(-10, -5, -1)
	snap := stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinMs != 0 || snap.InputTokens != 0 || snap.OutputTokens != 0 {
		t.Fatalf("expected clamped values, got %+v", snap)
	}
}
