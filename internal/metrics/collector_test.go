package metrics

import (
	"errors"
	"testing"
	"time"
)

type mockStatsProvider struct {
	succeeded, failed int
	err               error
}

func (m *mockStatsProvider) ConversionCounts() (int, int, error) {
	return m.succeeded, m.failed, m.err
}

type mockProcesses struct{ n int }

func (m *mockProcesses) Active() int { return m.n }

func TestCollectorCollect(t *testing.T) {
	c := NewCollector(&mockStatsProvider{succeeded: 7, failed: 2}, &mockProcesses{n: 3}, time.Hour)
	c.collect()

	if v, _ := gatheredValue(t, "metamorphosis_history_conversions", map[string]string{"status": "success"}); v != 7 {
		t.Errorf("success = %v, want 7", v)
	}
	if v, _ := gatheredValue(t, "metamorphosis_history_conversions", map[string]string{"status": "failure"}); v != 2 {
		t.Errorf("failure = %v, want 2", v)
	}
	if v, _ := gatheredValue(t, "metamorphosis_transcoder_processes_active", nil); v != 3 {
		t.Errorf("active processes = %v, want 3", v)
	}
}

func TestCollectorStatsError(t *testing.T) {
	HistoryConversions.WithLabelValues("success").Set(11)
	c := NewCollector(&mockStatsProvider{err: errors.New("db closed")}, nil, time.Hour)
	c.collect()

	if v, _ := gatheredValue(t, "metamorphosis_history_conversions", map[string]string{"status": "success"}); v != 11 {
		t.Errorf("gauge changed on error: %v", v)
	}
}

func TestCollectorStartStop(t *testing.T) {
	c := NewCollector(nil, &mockProcesses{n: 1}, 10*time.Millisecond)
	c.Start()
	time.Sleep(30 * time.Millisecond)
	c.Stop()
}
