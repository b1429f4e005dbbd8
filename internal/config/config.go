package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config stores runtime configuration for the bot.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string

	AdminIDs []string
	Realms   []string

	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	InboundToken     string

	StoreBackend            string
	DataDir                 string
	StorageLimitBytes       int64
	DBURL                   string
	DBDisablePreparedBinary bool
	MirrorDBURLs            []string
	MirrorDataDirs          []string
	MirrorPoolSize          int

	BetRooms map[string]int

	WebhookBaseURL             string
	WebhookToken               string
	WebhookTimeout             time.Duration
	WebhookCircuitEnabled      bool
	WebhookCircuitFailureCount int
	WebhookCircuitOpenTimeout  time.Duration
	WebhookCircuitHalfOpenMax  int

	MonitorEnabled   bool
	MonitorInterval  time.Duration
	MonitorThreshold float64

	CacheTTL time.Duration

	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	adminIDs := splitCSV(getEnv("ADMIN_IDS", ""))
	if len(adminIDs) == 0 {
		return Config{}, fmt.Errorf("ADMIN_IDS is required")
	}

	realms := splitCSV(getEnv("REALMS", "default"))
	if len(realms) == 0 {
		return Config{}, fmt.Errorf("REALMS cannot be empty")
	}

	httpAddr := strings.TrimSpace(getEnv("HTTP_ADDR", ":8080"))
	if httpAddr == "" {
		return Config{}, fmt.Errorf("HTTP_ADDR cannot be empty")
	}
	httpReadTimeout, err := time.ParseDuration(getEnv("HTTP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_READ_TIMEOUT: %w", err)
	}
	httpWriteTimeout, err := time.ParseDuration(getEnv("HTTP_WRITE_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_WRITE_TIMEOUT: %w", err)
	}
	inboundToken := strings.TrimSpace(getEnv("CHAT_WEBHOOK_INBOUND_TOKEN", ""))
	if inboundToken == "" {
		return Config{}, fmt.Errorf("CHAT_WEBHOOK_INBOUND_TOKEN is required")
	}

	backend := strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", BackendFile)))
	switch backend {
	case BackendMemory, BackendFile, BackendPostgres:
	default:
		return Config{}, fmt.Errorf("invalid STORE_BACKEND %q: valid values are %s, %s, %s", backend, BackendMemory, BackendFile, BackendPostgres)
	}

	dataDir := strings.TrimSpace(getEnv("DATA_DIR", "./data"))
	if backend == BackendFile && dataDir == "" {
		return Config{}, fmt.Errorf("DATA_DIR is required when STORE_BACKEND=%s", BackendFile)
	}

	storageLimitBytes, err := getEnvAsInt64("STORAGE_LIMIT_BYTES", 512*1024*1024)
	if err != nil {
		return Config{}, fmt.Errorf("parse STORAGE_LIMIT_BYTES: %w", err)
	}
	if storageLimitBytes < 0 {
		return Config{}, fmt.Errorf("STORAGE_LIMIT_BYTES must be >= 0")
	}

	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if backend == BackendPostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when STORE_BACKEND=%s", BackendPostgres)
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	mirrorPoolSize, err := getEnvAsInt("MIRROR_POOL_SIZE", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse MIRROR_POOL_SIZE: %w", err)
	}
	if mirrorPoolSize < 1 {
		return Config{}, fmt.Errorf("MIRROR_POOL_SIZE must be >= 1")
	}

	betRooms, err := parseRoomMap(getEnv("BET_ROOMS", "Chotu:500,Rocket:2500"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BET_ROOMS: %w", err)
	}
	if len(betRooms) == 0 {
		return Config{}, fmt.Errorf("BET_ROOMS cannot be empty")
	}

	webhookBaseURL := strings.TrimSpace(getEnv("CHAT_WEBHOOK_BASE_URL", ""))
	if webhookBaseURL == "" {
		return Config{}, fmt.Errorf("CHAT_WEBHOOK_BASE_URL is required")
	}
	webhookTimeout, err := time.ParseDuration(getEnv("CHAT_WEBHOOK_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CHAT_WEBHOOK_TIMEOUT: %w", err)
	}
	if webhookTimeout <= 0 {
		return Config{}, fmt.Errorf("CHAT_WEBHOOK_TIMEOUT must be > 0")
	}
	webhookCircuitEnabled, err := strconv.ParseBool(getEnv("CHAT_WEBHOOK_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CHAT_WEBHOOK_CIRCUIT_ENABLED: %w", err)
	}
	webhookCircuitFailureCount, err := getEnvAsInt("CHAT_WEBHOOK_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse CHAT_WEBHOOK_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if webhookCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("CHAT_WEBHOOK_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	webhookCircuitOpenTimeout, err := time.ParseDuration(getEnv("CHAT_WEBHOOK_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CHAT_WEBHOOK_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if webhookCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("CHAT_WEBHOOK_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	webhookCircuitHalfOpenMax, err := getEnvAsInt("CHAT_WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse CHAT_WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if webhookCircuitHalfOpenMax < 1 {
		return Config{}, fmt.Errorf("CHAT_WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	monitorEnabled, err := strconv.ParseBool(getEnv("STORAGE_MONITOR_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STORAGE_MONITOR_ENABLED: %w", err)
	}
	monitorInterval, err := time.ParseDuration(getEnv("STORAGE_MONITOR_INTERVAL", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STORAGE_MONITOR_INTERVAL: %w", err)
	}
	if monitorInterval <= 0 {
		return Config{}, fmt.Errorf("STORAGE_MONITOR_INTERVAL must be > 0")
	}
	monitorThreshold, err := getEnvAsFloat("STORAGE_MONITOR_THRESHOLD", 0.8)
	if err != nil {
		return Config{}, fmt.Errorf("parse STORAGE_MONITOR_THRESHOLD: %w", err)
	}
	if monitorThreshold <= 0 || monitorThreshold > 1 {
		return Config{}, fmt.Errorf("STORAGE_MONITOR_THRESHOLD must be in (0, 1]")
	}

	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "fantasy-cricket-bot"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		AdminIDs:                   adminIDs,
		Realms:                     realms,
		HTTPAddr:                   httpAddr,
		HTTPReadTimeout:            httpReadTimeout,
		HTTPWriteTimeout:           httpWriteTimeout,
		InboundToken:               inboundToken,
		StoreBackend:               backend,
		DataDir:                    dataDir,
		StorageLimitBytes:          storageLimitBytes,
		DBURL:                      dbURL,
		DBDisablePreparedBinary:    dbDisablePreparedBinary,
		MirrorDBURLs:               splitCSV(getEnv("MIRROR_DB_URLS", "")),
		MirrorDataDirs:             splitCSV(getEnv("MIRROR_DATA_DIRS", "")),
		MirrorPoolSize:             mirrorPoolSize,
		BetRooms:                   betRooms,
		WebhookBaseURL:             webhookBaseURL,
		WebhookToken:               strings.TrimSpace(getEnv("CHAT_WEBHOOK_TOKEN", "")),
		WebhookTimeout:             webhookTimeout,
		WebhookCircuitEnabled:      webhookCircuitEnabled,
		WebhookCircuitFailureCount: webhookCircuitFailureCount,
		WebhookCircuitOpenTimeout:  webhookCircuitOpenTimeout,
		WebhookCircuitHalfOpenMax:  webhookCircuitHalfOpenMax,
		MonitorEnabled:             monitorEnabled,
		MonitorInterval:            monitorInterval,
		MonitorThreshold:           monitorThreshold,
		CacheTTL:                   cacheTTL,
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceLogsEnabled:         uptraceLogsEnabled,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		LogLevel:                   parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsInt64(key string, fallback int64) (int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

// parseRoomMap reads "Chotu:500,Rocket:2500" style room/stake pairs.
func parseRoomMap(raw string) (map[string]int, error) {
	out := make(map[string]int)
	parts := strings.Split(raw, ",")
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}

		segments := strings.SplitN(item, ":", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid room item %q, expected name:stake", item)
		}

		name := strings.TrimSpace(segments[0])
		if name == "" {
			return nil, fmt.Errorf("empty room name in item %q", item)
		}
		stake, err := strconv.Atoi(strings.TrimSpace(segments[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid stake in item %q: %w", item, err)
		}
		if stake <= 0 {
			return nil, fmt.Errorf("stake must be > 0 in item %q", item)
		}

		out[name] = stake
	}
	return out, nil
}
