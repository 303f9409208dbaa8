package controller

import (
	"context"
	"log/slog"
	"net/http"

	"riverwatch/internal/modules/conditions/types"
)

// ConditionsService is the part of the snapshot service the HTTP layer uses.
type ConditionsService interface {
	FetchCurrent(ctx context.Context) (types.Reading, error)
	FetchAndPersist(ctx context.Context) (types.StoredRecord, error)
	History(ctx context.Context, hours int) ([]types.StoredRecord, error)
}

type ConditionsController interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Options carries presentation settings that are not part of the service.
type Options struct {
	Title        string
	Subtitle     string
	HistoryHours int
	Logger       *slog.Logger
}

type conditionsControllerImpl struct {
	service      ConditionsService
	title        string
	subtitle     string
	historyHours int
	logger       *slog.Logger
}

func NewConditionsController(service ConditionsService, opts Options) ConditionsController {
	c := &conditionsControllerImpl{
		service:      service,
		title:        opts.Title,
		subtitle:     opts.Subtitle,
		historyHours: opts.HistoryHours,
		logger:       opts.Logger,
	}
	if c.historyHours <= 0 {
		c.historyHours = DefaultHistoryHours
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

func (c *conditionsControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleDashboard)
	mux.HandleFunc("POST /snapshots", c.handleStoreSnapshot)
	mux.HandleFunc("GET /partials/history", c.handleHistoryPartial)

	mux.HandleFunc("GET /api/v1/current", c.handleCurrent)
	mux.HandleFunc("POST /api/v1/snapshots", c.handleCreateSnapshot)
	mux.HandleFunc("GET /api/v1/readings", c.handleReadings)
}
