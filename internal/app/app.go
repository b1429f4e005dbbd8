package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/panjf2000/ants/v2"

	"github.com/trainwr/fantasy-cricket/internal/config"
	"github.com/trainwr/fantasy-cricket/internal/domain/bet"
	"github.com/trainwr/fantasy-cricket/internal/domain/realm"
	"github.com/trainwr/fantasy-cricket/internal/infrastructure/monitor"
	"github.com/trainwr/fantasy-cricket/internal/infrastructure/notify"
	filestore "github.com/trainwr/fantasy-cricket/internal/infrastructure/store/file"
	memorystore "github.com/trainwr/fantasy-cricket/internal/infrastructure/store/memory"
	postgresstore "github.com/trainwr/fantasy-cricket/internal/infrastructure/store/postgres"
	"github.com/trainwr/fantasy-cricket/internal/interfaces/chat"
	"github.com/trainwr/fantasy-cricket/internal/interfaces/gateway"
	"github.com/trainwr/fantasy-cricket/internal/platform/cache"
	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
	"github.com/trainwr/fantasy-cricket/internal/platform/resilience"
	"github.com/trainwr/fantasy-cricket/internal/usecase"
)

// App owns every wired component and their shutdown order.
type App struct {
	Config     config.Config
	Dispatcher *chat.Dispatcher
	Server     *http.Server
	Realms     *usecase.RealmManager
	Monitor    *monitor.StorageMonitor
	Notifier   *notify.WebhookNotifier

	logger *logging.Logger
	pool   *ants.Pool
	dbs    []*sqlx.DB
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	a := &App{
		Config: cfg,
		logger: logger,
	}

	primary, err := a.buildPrimaryStore(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	mirrors, err := a.buildMirrorStores(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	if len(mirrors) > 0 {
		pool, poolErr := ants.NewPool(cfg.MirrorPoolSize)
		if poolErr != nil {
			a.Close()
			return nil, fmt.Errorf("create mirror pool: %w", poolErr)
		}
		a.pool = pool
	}

	a.Realms = usecase.NewRealmManager(primary, mirrors, a.pool, logger)

	a.Notifier = notify.NewWebhookNotifier(notify.WebhookConfig{
		BaseURL:      cfg.WebhookBaseURL,
		Token:        cfg.WebhookToken,
		AdminChatIDs: cfg.AdminIDs,
		Timeout:      cfg.WebhookTimeout,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.WebhookCircuitEnabled,
			FailureThreshold: cfg.WebhookCircuitFailureCount,
			OpenTimeout:      cfg.WebhookCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.WebhookCircuitHalfOpenMax,
		},
	}, logger)

	stakes := make(map[bet.Room]int, len(cfg.BetRooms))
	for room, stake := range cfg.BetRooms {
		stakes[bet.Room(room)] = stake
	}

	cacheStore := cache.NewStore(cfg.CacheTTL)

	catalogSvc := usecase.NewCatalogService(a.Realms, logger)
	squadSvc := usecase.NewSquadService(a.Realms, logger)
	betSvc := usecase.NewBetService(a.Realms, a.Notifier, stakes, logger)
	predictionSvc := usecase.NewPredictionService(a.Realms, logger)
	rankingSvc := usecase.NewRankingService(a.Realms, cacheStore, logger)
	maintenanceSvc := usecase.NewMaintenanceService(a.Realms, a.Notifier, logger)

	a.Dispatcher = chat.NewDispatcher(
		catalogSvc,
		squadSvc,
		betSvc,
		predictionSvc,
		rankingSvc,
		maintenanceSvc,
		cfg.AdminIDs,
		logger,
	)

	updateHandler := gateway.NewHandler(a.Dispatcher, cfg.Realms[0], logger)
	a.Server = gateway.NewServer(gateway.ServerConfig{
		Addr:         cfg.HTTPAddr,
		InboundToken: cfg.InboundToken,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}, updateHandler, logger)

	if cfg.MonitorEnabled {
		a.Monitor = monitor.NewStorageMonitor(a.Realms, a.Notifier, monitor.Config{
			Realms:    cfg.Realms,
			Interval:  cfg.MonitorInterval,
			Threshold: cfg.MonitorThreshold,
		}, logger)
	}

	return a, nil
}

func (a *App) buildPrimaryStore(cfg config.Config) (realm.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return memorystore.NewStore(), nil
	case config.BackendFile:
		store, err := filestore.NewStore(cfg.DataDir, cfg.StorageLimitBytes)
		if err != nil {
			return nil, fmt.Errorf("create file store: %w", err)
		}
		return store, nil
	case config.BackendPostgres:
		db, err := openPostgres(cfg.DBURL, cfg.DBDisablePreparedBinary)
		if err != nil {
			return nil, fmt.Errorf("open primary database: %w", err)
		}
		a.dbs = append(a.dbs, db)
		return postgresstore.NewStore(db, cfg.StorageLimitBytes), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func (a *App) buildMirrorStores(cfg config.Config) ([]realm.Store, error) {
	mirrors := make([]realm.Store, 0, len(cfg.MirrorDBURLs)+len(cfg.MirrorDataDirs))

	for _, rawURL := range cfg.MirrorDBURLs {
		db, err := openPostgres(rawURL, cfg.DBDisablePreparedBinary)
		if err != nil {
			return nil, fmt.Errorf("open mirror database: %w", err)
		}
		a.dbs = append(a.dbs, db)
		mirrors = append(mirrors, postgresstore.NewStore(db, cfg.StorageLimitBytes))
	}

	for _, dir := range cfg.MirrorDataDirs {
		store, err := filestore.NewStore(dir, cfg.StorageLimitBytes)
		if err != nil {
			return nil, fmt.Errorf("create mirror file store %s: %w", dir, err)
		}
		mirrors = append(mirrors, store)
	}

	return mirrors, nil
}

// Close releases the worker pool and database handles. Safe to call on a
// partially built App.
func (a *App) Close() {
	if a.Monitor != nil {
		a.Monitor.Stop()
	}
	if a.pool != nil {
		a.pool.Release()
	}
	for _, db := range a.dbs {
		if err := db.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
	}
}
