package app

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"riverwatch/internal/config"
	"riverwatch/internal/db"
	"riverwatch/internal/metrics"
	"riverwatch/internal/modules/conditions/repository"
	"riverwatch/internal/modules/conditions/service"
	"riverwatch/internal/upstream"
	"riverwatch/internal/upstream/openmeteo"
	"riverwatch/internal/upstream/usgs"
)

// Subtitle is shown under the dashboard title.
const Subtitle = "Live Colorado River & weather conditions near Shaggy Tree · Units: ft · °F · mph"

// NewService wires both upstream clients and the readings store into a
// snapshot service. Extra options are applied after the defaults.
func NewService(cfg config.Config, dbConn *sql.DB, m *metrics.Metrics, logger *slog.Logger, opts ...service.Option) *service.Service {
	requester := upstream.NewRequester(&http.Client{Timeout: cfg.UpstreamTimeout}, m, logger)

	gage := usgs.NewClient(usgs.Config{
		BaseURL:        cfg.GageBaseURL,
		Site:           cfg.GageSite,
		GageHeightCode: cfg.GageHeightCode,
		WaterTempCode:  cfg.WaterTempCode,
	}, requester)
	weather := openmeteo.NewClient(openmeteo.Config{
		BaseURL:   cfg.WeatherBaseURL,
		Latitude:  cfg.WeatherLatitude,
		Longitude: cfg.WeatherLongitude,
	}, requester)

	base := []service.Option{service.WithMetrics(m), service.WithLogger(logger)}
	return service.NewService(gage, weather, repository.NewRepository(dbConn), append(base, opts...)...)
}

// OpenStore opens the database and makes sure the readings table exists.
// The returned close func is safe to defer.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sql.DB, func(), error) {
	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := db.Close(dbConn); err != nil {
			logger.Error("db close", "error", err)
		}
	}
	if err := repository.NewRepository(dbConn).Initialize(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return dbConn, closeFn, nil
}
