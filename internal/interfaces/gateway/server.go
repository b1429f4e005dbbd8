package gateway

import (
	"net/http"
	"time"

	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
)

type ServerConfig struct {
	Addr         string
	InboundToken string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer builds the HTTP server the chat gateway delivers updates to.
// POST /updates carries one user action; /healthz serves probes.
func NewServer(cfg ServerConfig, handler *Handler, logger *logging.Logger) *http.Server {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("POST /updates", RequireGatewayToken(cfg.InboundToken, http.HandlerFunc(handler.HandleUpdate)))
	mux.HandleFunc("GET /healthz", handler.HandleHealth)

	chain := RequestTracing(RequestLogging(logger, recoverPanic(logger, mux)))

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      chain,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "gateway.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
