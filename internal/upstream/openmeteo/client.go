// Package openmeteo fetches current air temperature and wind speed from the
// Open-Meteo forecast API.
package openmeteo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"riverwatch/internal/units"
	"riverwatch/internal/upstream"
)

const Source = "openmeteo"

// timeLayout is what Open-Meteo returns for current.time with timezone=UTC.
const timeLayout = "2006-01-02T15:04"

type Config struct {
	BaseURL   string
	Latitude  float64
	Longitude float64
}

// Result is the current weather. Fetch only succeeds with every field set.
type Result struct {
	Timestamp *time.Time
	AirTempC  *float64
	WindMph   *float64
}

type Client struct {
	cfg       Config
	requester *upstream.Requester
}

func NewClient(cfg Config, requester *upstream.Requester) *Client {
	return &Client{cfg: cfg, requester: requester}
}

func (c *Client) Fetch(ctx context.Context) (Result, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(c.cfg.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(c.cfg.Longitude, 'f', -1, 64))
	q.Set("current", "temperature_2m,wind_speed_10m")
	q.Set("wind_speed_unit", "ms")
	q.Set("timezone", "UTC")

	var resp forecastResponse
	if err := c.requester.GetJSON(ctx, Source, c.cfg.BaseURL, q, &resp); err != nil {
		return Result{}, err
	}

	res, err := mapResponse(resp)
	if err != nil {
		return Result{}, &upstream.ParseError{Source: Source, Err: err}
	}
	return res, nil
}

type forecastResponse struct {
	Current *struct {
		Time          *string  `json:"time"`
		Temperature2m *float64 `json:"temperature_2m"`
		WindSpeed10m  *float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

var errMissingCurrent = errors.New("missing current")

func mapResponse(resp forecastResponse) (Result, error) {
	cur := resp.Current
	if cur == nil {
		return Result{}, errMissingCurrent
	}
	if cur.Time == nil {
		return Result{}, errors.New("missing current.time")
	}
	if cur.Temperature2m == nil {
		return Result{}, errors.New("missing current.temperature_2m")
	}
	if cur.WindSpeed10m == nil {
		return Result{}, errors.New("missing current.wind_speed_10m")
	}

	ts, err := parseTime(*cur.Time)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Timestamp: &ts,
		AirTempC:  units.Float(*cur.Temperature2m),
		WindMph:   units.MPSToMPH(cur.WindSpeed10m),
	}, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err == nil {
		return t, nil
	}
	t, err2 := time.Parse(time.RFC3339, s)
	if err2 != nil {
		return time.Time{}, fmt.Errorf("parse current.time %q: %w; RFC3339: %w", s, err, err2)
	}
	return t.UTC(), nil
}
