// Package usgs fetches gage height and water temperature from the USGS NWIS
// instantaneous-values service.
package usgs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"riverwatch/internal/upstream"
)

const Source = "usgs"

// USGS parameter codes.
const (
	ParamGageHeight = "00065" // ft
	ParamWaterTemp  = "00010" // °C
)

type Config struct {
	BaseURL        string
	Site           string
	GageHeightCode string
	WaterTempCode  string
}

// Result is the latest gage observation. Any field may be nil.
type Result struct {
	Timestamp    *time.Time
	GageHeightFt *float64
	WaterTempC   *float64
}

type Client struct {
	cfg       Config
	requester *upstream.Requester
}

func NewClient(cfg Config, requester *upstream.Requester) *Client {
	if cfg.GageHeightCode == "" {
		cfg.GageHeightCode = ParamGageHeight
	}
	if cfg.WaterTempCode == "" {
		cfg.WaterTempCode = ParamWaterTemp
	}
	return &Client{cfg: cfg, requester: requester}
}

// Fetch issues one request for both parameters of the configured site.
func (c *Client) Fetch(ctx context.Context) (Result, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("sites", c.cfg.Site)
	q.Set("parameterCd", c.cfg.GageHeightCode+","+c.cfg.WaterTempCode)

	var resp ivResponse
	if err := c.requester.GetJSON(ctx, Source, c.cfg.BaseURL, q, &resp); err != nil {
		return Result{}, err
	}

	res, err := mapResponse(resp, c.cfg.GageHeightCode, c.cfg.WaterTempCode)
	if err != nil {
		return Result{}, &upstream.ParseError{Source: Source, Err: err}
	}
	return res, nil
}

type ivResponse struct {
	Value struct {
		TimeSeries []timeSeries `json:"timeSeries"`
	} `json:"value"`
}

type timeSeries struct {
	Variable struct {
		VariableCode []struct {
			Value string `json:"value"`
		} `json:"variableCode"`
	} `json:"variable"`
	Values []struct {
		Value []ivValue `json:"value"`
	} `json:"values"`
}

type ivValue struct {
	Value    string `json:"value"`
	DateTime string `json:"dateTime"`
}

var errNoTimeSeries = errors.New("missing value.timeSeries")

// mapResponse walks every series in order. Each matched series overwrites the
// timestamp, so when both parameters report, the later series wins; two
// series with the same code resolve the same way.
func mapResponse(resp ivResponse, gageCode, tempCode string) (Result, error) {
	if resp.Value.TimeSeries == nil {
		return Result{}, errNoTimeSeries
	}

	var res Result
	for i, s := range resp.Value.TimeSeries {
		if len(s.Variable.VariableCode) == 0 {
			continue
		}
		code := s.Variable.VariableCode[0].Value
		if code != gageCode && code != tempCode {
			continue
		}
		if len(s.Values) == 0 || len(s.Values[0].Value) == 0 {
			continue
		}
		latest := s.Values[0].Value[len(s.Values[0].Value)-1]

		v, err := strconv.ParseFloat(strings.TrimSpace(latest.Value), 64)
		if err != nil {
			return Result{}, fmt.Errorf("series %d (%s) value %q: %w", i, code, latest.Value, err)
		}
		ts, err := time.Parse(time.RFC3339, latest.DateTime)
		if err != nil {
			return Result{}, fmt.Errorf("series %d (%s) dateTime %q: %w", i, code, latest.DateTime, err)
		}
		ts = ts.UTC()
		res.Timestamp = &ts

		switch code {
		case gageCode:
			res.GageHeightFt = &v
		case tempCode:
			res.WaterTempC = &v
		}
	}
	return res, nil
}
