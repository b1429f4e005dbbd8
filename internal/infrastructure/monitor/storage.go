package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sourcegraph/conc"

	"github.com/trainwr/fantasy-cricket/internal/domain/realm"
	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
)

// StatsSource reports capacity per realm. The realm manager satisfies this.
type StatsSource interface {
	Stats(ctx context.Context, name string) (realm.StorageStats, error)
}

// Alerter pushes operational warnings to administrators.
type Alerter interface {
	AlertAdmins(ctx context.Context, message string) error
}

type Config struct {
	Realms    []string
	Interval  time.Duration
	Threshold float64
}

// StorageMonitor periodically checks every realm's storage usage and alerts
// administrators when a realm crosses the configured threshold or its store
// stops answering. Each alert condition fires once until it clears, so a
// full store does not page admins every tick.
type StorageMonitor struct {
	source    StatsSource
	alerter   Alerter
	realms    []string
	interval  time.Duration
	threshold float64
	logger    *logging.Logger

	scheduler gocron.Scheduler

	mu      sync.Mutex
	alerted map[string]bool
}

func NewStorageMonitor(source StatsSource, alerter Alerter, cfg Config, logger *logging.Logger) *StorageMonitor {
	if logger == nil {
		logger = logging.Default()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	threshold := cfg.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.8
	}

	return &StorageMonitor{
		source:    source,
		alerter:   alerter,
		realms:    append([]string(nil), cfg.Realms...),
		interval:  interval,
		threshold: threshold,
		logger:    logger,
		alerted:   make(map[string]bool),
	}
}

// Start schedules the periodic check. The first run happens immediately.
func (m *StorageMonitor) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create storage monitor scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(m.interval),
		gocron.NewTask(func() { m.Check(ctx) }),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("schedule storage check: %w", err)
	}

	m.scheduler = scheduler
	scheduler.Start()
	m.logger.Info("storage monitor started", "interval", m.interval.String(), "realms", len(m.realms))
	return nil
}

func (m *StorageMonitor) Stop() {
	if m.scheduler == nil {
		return
	}
	if err := m.scheduler.Shutdown(); err != nil {
		m.logger.Warn("storage monitor shutdown", "error", err)
	}
}

// Check inspects every realm concurrently and raises or clears alerts.
func (m *StorageMonitor) Check(ctx context.Context) {
	var wg conc.WaitGroup
	for _, name := range m.realms {
		name := name
		wg.Go(func() {
			m.checkRealm(ctx, name)
		})
	}
	wg.Wait()
}

func (m *StorageMonitor) checkRealm(ctx context.Context, name string) {
	stats, err := m.source.Stats(ctx, name)
	if err != nil {
		m.logger.ErrorContext(ctx, "storage check failed", "realm", name, "error", err)
		m.raise(ctx, name+"/unreachable", fmt.Sprintf("⚠️ Storage check failed for realm %s: %v", name, err))
		return
	}
	m.clear(name + "/unreachable")

	usage := stats.Usage()
	m.logger.DebugContext(ctx, "storage check",
		"realm", name,
		"used_bytes", stats.UsedBytes,
		"limit_bytes", stats.LimitBytes,
		"usage", usage,
	)

	key := name + "/capacity"
	if stats.LimitBytes > 0 && usage >= m.threshold {
		m.raise(ctx, key, fmt.Sprintf(
			"⚠️ Realm %s is at %.0f%% of its storage limit (%d of %d bytes). Consider a cleanup or a new realm.",
			name, usage*100, stats.UsedBytes, stats.LimitBytes,
		))
		return
	}
	m.clear(key)
}

func (m *StorageMonitor) raise(ctx context.Context, key, message string) {
	m.mu.Lock()
	already := m.alerted[key]
	m.alerted[key] = true
	m.mu.Unlock()
	if already {
		return
	}

	if err := m.alerter.AlertAdmins(ctx, message); err != nil {
		m.logger.ErrorContext(ctx, "storage alert not delivered", "key", key, "error", err)
		m.mu.Lock()
		m.alerted[key] = false
		m.mu.Unlock()
	}
}

func (m *StorageMonitor) clear(key string) {
	m.mu.Lock()
	delete(m.alerted, key)
	m.mu.Unlock()
}
