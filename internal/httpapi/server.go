package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"riverwatch/internal/config"
	"riverwatch/internal/metrics"
)

// NewServer wraps the mux with request logging. WriteTimeout leaves room for
// two upstream calls on the dashboard and snapshot routes.
func NewServer(cfg config.Config, mux *http.ServeMux, logger *slog.Logger, m *metrics.Metrics) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(mux, logger, m),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2*cfg.UpstreamTimeout + 10*time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}
