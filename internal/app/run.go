package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"riverwatch/internal/config"
	"riverwatch/internal/httpapi"
	"riverwatch/internal/metrics"
	"riverwatch/internal/modules/conditions"
	"riverwatch/internal/modules/conditions/controller"
	"riverwatch/internal/modules/conditions/service"
	conditionsviews "riverwatch/internal/modules/conditions/views"
	"riverwatch/internal/mqtt"
)

// Run serves the dashboard and API until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteLogQueries", cfg.SQLiteLogQueries,
		"gageSite", cfg.GageSite,
		"weatherLatitude", cfg.WeatherLatitude,
		"weatherLongitude", cfg.WeatherLongitude,
		"upstreamTimeout", cfg.UpstreamTimeout,
		"historyHours", cfg.HistoryHours,
		"mqttBroker", cfg.MQTTBroker,
		"mqttTopic", cfg.MQTTTopic,
	)

	dbConn, closeDB, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()
	logger.Info("database ready")

	if err := conditionsviews.LoadTemplates(); err != nil {
		return err
	}

	m := metrics.New()

	var opts []service.Option
	var publisher *mqtt.Publisher
	if cfg.MQTTBroker != "" {
		publisher = mqtt.NewPublisher(cfg, logger)
		// Short timeout so a missing broker does not block startup.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = publisher.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without publishing until reconnect)", "error", err)
		}
		opts = append(opts, service.WithPublisher(publisher))
	}

	svc := NewService(cfg, dbConn, m, logger, opts...)

	mux := httpapi.NewMux(dbConn, m)
	conditions.RegisterFeature(mux, svc, controller.Options{
		Title:        cfg.SiteTitle,
		Subtitle:     Subtitle,
		HistoryHours: cfg.HistoryHours,
		Logger:       logger,
	})

	srv := httpapi.NewServer(cfg, mux, logger, m)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if publisher != nil {
		logger.Info("mqtt disconnecting")
		publisher.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
