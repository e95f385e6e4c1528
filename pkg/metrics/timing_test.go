package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecordTracksStats(t *testing.T) {
	m := newTimingMetric("test")
	SetEnabled(true)
	defer m.Reset()

	m.Record(10 * time.Millisecond)
	m.Record(30 * time.Millisecond)

	s := m.Stats()
	if s.Count != 2 {
		t.Errorf("count = %d, want 2", s.Count)
	}
	if s.MaxMs != 30 {
		t.Errorf("max = %v, want 30", s.MaxMs)
	}
	if s.MinMs != 10 {
		t.Errorf("min = %v, want 10", s.MinMs)
	}
	if s.AvgMs != 20 {
		t.Errorf("avg = %v, want 20", s.AvgMs)
	}
}

func TestDisabledSkipsRecording(t *testing.T) {
	m := newTimingMetric("test")
	SetEnabled(false)
	defer SetEnabled(true)

	m.Record(time.Millisecond)
	if m.Count() != 0 {
		t.Errorf("disabled metric recorded %d measurements", m.Count())
	}
}

func TestTimerRecords(t *testing.T) {
	m := newTimingMetric("test")
	SetEnabled(true)

	done := Timer(m)
	done()

	if m.Count() != 1 {
		t.Errorf("timer recorded %d measurements, want 1", m.Count())
	}
}

func TestConcurrentRecord(t *testing.T) {
	m := newTimingMetric("test")
	SetEnabled(true)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Record(time.Microsecond)
			}
		}()
	}
	wg.Wait()

	if m.Count() != 1600 {
		t.Errorf("count = %d, want 1600", m.Count())
	}
}

func TestAllTimingStatsSkipsEmpty(t *testing.T) {
	ResetAll()
	SetEnabled(true)
	LayoutTick.Record(time.Millisecond)
	defer ResetAll()

	stats := AllTimingStats()
	if len(stats) != 1 || stats[0].Name != "layout_tick" {
		t.Errorf("stats = %+v, want only layout_tick", stats)
	}
}
