package pipeline

import (
	"testing"
	"time"
)

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for _, us := range []int64{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(us)*time.Microsecond, false)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinUs != 100 {
		t.Fatalf("expected min=100, got %d", snap.MinUs)
	}
	if snap.MaxUs != 500 {
		t.Fatalf("expected max=500, got %d", snap.MaxUs)
	}
	if snap.AvgUs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgUs)
	}
	if snap.P50Us != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Us)
	}
	if snap.P95Us != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Us)
	}
	if snap.P99Us != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Us)
	}
}

func TestStatsFailuresExcludedFromLatency(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record(200*time.Microsecond, false)
	stats.Record(9*time.Second, true)

	snap := stats.Snapshot()
	if snap.Count != 1 || snap.Failed != 1 {
		t.Fatalf("expected count=1 failed=1, got count=%d failed=%d", snap.Count, snap.Failed)
	}
	if snap.MaxUs != 200 {
		t.Fatalf("expected max=200, got %d", snap.MaxUs)
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Record(100*time.Microsecond, false)
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record(200*time.Microsecond, false)
	snap = stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MinUs != 200 || snap.MaxUs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinUs, snap.MaxUs)
	}
}

func TestStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record(-10, false)
	snap := stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinUs != 0 || snap.MaxUs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinUs, snap.MaxUs)
	}
}
