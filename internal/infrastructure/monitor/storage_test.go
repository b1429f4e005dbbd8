package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/trainwr/fantasy-cricket/internal/domain/realm"
	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
)

type stubSource struct {
	mu    sync.Mutex
	stats map[string]realm.StorageStats
	err   error
}

func (s *stubSource) Stats(_ context.Context, name string) (realm.StorageStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return realm.StorageStats{}, s.err
	}
	return s.stats[name], nil
}

func (s *stubSource) set(name string, stats realm.StorageStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[name] = stats
}

type stubAlerter struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (a *stubAlerter) AlertAdmins(_ context.Context, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.messages = append(a.messages, message)
	return nil
}

func (a *stubAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.messages)
}

func newTestMonitor(source *stubSource, alerter *stubAlerter) *StorageMonitor {
	return NewStorageMonitor(source, alerter, Config{
		Realms:    []string{"default"},
		Interval:  time.Hour,
		Threshold: 0.8,
	}, logging.NewNop())
}

func TestCheck_AlertsOnceAboveThreshold(t *testing.T) {
	source := &stubSource{stats: map[string]realm.StorageStats{
		"default": {UsedBytes: 90, LimitBytes: 100},
	}}
	alerter := &stubAlerter{}
	m := newTestMonitor(source, alerter)

	m.Check(t.Context())
	m.Check(t.Context())

	if alerter.count() != 1 {
		t.Fatalf("expected exactly one alert for a persistent condition, got %d", alerter.count())
	}
}

func TestCheck_AlertRearmsAfterClearing(t *testing.T) {
	source := &stubSource{stats: map[string]realm.StorageStats{
		"default": {UsedBytes: 90, LimitBytes: 100},
	}}
	alerter := &stubAlerter{}
	m := newTestMonitor(source, alerter)

	m.Check(t.Context())
	source.set("default", realm.StorageStats{UsedBytes: 10, LimitBytes: 100})
	m.Check(t.Context())
	source.set("default", realm.StorageStats{UsedBytes: 95, LimitBytes: 100})
	m.Check(t.Context())

	if alerter.count() != 2 {
		t.Fatalf("expected a second alert after the condition cleared, got %d", alerter.count())
	}
}

func TestCheck_BelowThresholdStaysQuiet(t *testing.T) {
	source := &stubSource{stats: map[string]realm.StorageStats{
		"default": {UsedBytes: 10, LimitBytes: 100},
	}}
	alerter := &stubAlerter{}
	m := newTestMonitor(source, alerter)

	m.Check(t.Context())
	if alerter.count() != 0 {
		t.Fatalf("expected no alerts below the threshold, got %d", alerter.count())
	}
}

func TestCheck_NoLimitMeansNoCapacityAlert(t *testing.T) {
	source := &stubSource{stats: map[string]realm.StorageStats{
		"default": {UsedBytes: 1 << 30, LimitBytes: 0},
	}}
	alerter := &stubAlerter{}
	m := newTestMonitor(source, alerter)

	m.Check(t.Context())
	if alerter.count() != 0 {
		t.Fatalf("expected no alerts without a limit, got %d", alerter.count())
	}
}

func TestCheck_UnreachableStoreAlerts(t *testing.T) {
	source := &stubSource{stats: map[string]realm.StorageStats{}, err: errors.New("connection refused")}
	alerter := &stubAlerter{}
	m := newTestMonitor(source, alerter)

	m.Check(t.Context())
	if alerter.count() != 1 {
		t.Fatalf("expected an alert for an unreachable store, got %d", alerter.count())
	}
}

func TestRaise_RetriesAfterFailedDelivery(t *testing.T) {
	source := &stubSource{stats: map[string]realm.StorageStats{
		"default": {UsedBytes: 90, LimitBytes: 100},
	}}
	alerter := &stubAlerter{err: errors.New("gateway down")}
	m := newTestMonitor(source, alerter)

	m.Check(t.Context())

	// Delivery failed, so the next check tries again.
	alerter.mu.Lock()
	alerter.err = nil
	alerter.mu.Unlock()

	m.Check(t.Context())
	if alerter.count() != 1 {
		t.Fatalf("expected the alert to be retried after a failed delivery, got %d", alerter.count())
	}
}
