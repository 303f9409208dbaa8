package service

import (
	"context"
	"fmt"
	"log/slog"

	"riverwatch/internal/metrics"
	"riverwatch/internal/modules/conditions/repository"
	"riverwatch/internal/modules/conditions/types"
	"riverwatch/internal/units"
	"riverwatch/internal/upstream/openmeteo"
	"riverwatch/internal/upstream/usgs"
)

type GageFetcher interface {
	Fetch(ctx context.Context) (usgs.Result, error)
}

type WeatherFetcher interface {
	Fetch(ctx context.Context) (openmeteo.Result, error)
}

// SnapshotPublisher receives every record after it has been stored.
type SnapshotPublisher interface {
	PublishSnapshot(record types.StoredRecord) error
}

type Service struct {
	gage      GageFetcher
	weather   WeatherFetcher
	repo      repository.ReadingsRepository
	publisher SnapshotPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Service)

func WithPublisher(p SnapshotPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(gage GageFetcher, weather WeatherFetcher, repo repository.ReadingsRepository, opts ...Option) *Service {
	s := &Service{
		gage:    gage,
		weather: weather,
		repo:    repo,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize prepares the readings table.
func (s *Service) Initialize(ctx context.Context) error {
	return s.repo.Initialize(ctx)
}

// FetchCurrent queries the gage, then the weather service. Either failure
// aborts the whole fetch; nothing is retried or cached.
func (s *Service) FetchCurrent(ctx context.Context) (types.Reading, error) {
	gage, err := s.gage.Fetch(ctx)
	if err != nil {
		return types.Reading{}, fmt.Errorf("fetch gage: %w", err)
	}
	weather, err := s.weather.Fetch(ctx)
	if err != nil {
		return types.Reading{}, fmt.Errorf("fetch weather: %w", err)
	}

	reading := Merge(gage, weather)
	s.logger.Debug("current conditions fetched",
		"timestamp", reading.Timestamp,
		"gage_height_ft", units.FormatNumber(reading.GageHeightFt, units.DefaultDecimals),
		"water_temp_c", units.FormatNumber(reading.WaterTempC, units.DefaultDecimals),
		"air_temp_c", units.FormatNumber(reading.AirTempC, units.DefaultDecimals),
		"wind_mph", units.FormatNumber(reading.WindMph, units.DefaultDecimals),
	)
	return reading, nil
}

// Merge prefers the gage timestamp and falls back to the weather timestamp.
func Merge(gage usgs.Result, weather openmeteo.Result) types.Reading {
	ts := gage.Timestamp
	if ts == nil {
		ts = weather.Timestamp
	}
	return types.Reading{
		Timestamp:    ts,
		GageHeightFt: gage.GageHeightFt,
		WaterTempC:   gage.WaterTempC,
		AirTempC:     weather.AirTempC,
		WindMph:      weather.WindMph,
	}
}

// Persist stores the reading as-is; absent fields become NULL.
func (s *Service) Persist(ctx context.Context, reading types.Reading) (types.StoredRecord, error) {
	rec, err := s.repo.Append(ctx, reading)
	if err != nil {
		return types.StoredRecord{}, fmt.Errorf("persist snapshot: %w", err)
	}
	s.metrics.IncSnapshotsStored()
	s.logger.Info("snapshot stored", "id", rec.ID, "timestamp", rec.Timestamp)

	if s.publisher != nil {
		if err := s.publisher.PublishSnapshot(rec); err != nil {
			s.logger.Warn("snapshot publish failed", "id", rec.ID, "error", err)
		}
	}
	return rec, nil
}

func (s *Service) FetchAndPersist(ctx context.Context) (types.StoredRecord, error) {
	reading, err := s.FetchCurrent(ctx)
	if err != nil {
		return types.StoredRecord{}, err
	}
	return s.Persist(ctx, reading)
}

// History returns stored snapshots from the trailing window, oldest first.
func (s *Service) History(ctx context.Context, hours int) ([]types.StoredRecord, error) {
	records, err := s.repo.QueryLastHours(ctx, hours)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return records, nil
}
