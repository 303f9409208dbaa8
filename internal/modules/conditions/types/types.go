package types

import "time"

// Reading is one merged sample from both upstream sources. Any field may be
// nil; nil means the source omitted it.
type Reading struct {
	Timestamp    *time.Time `json:"timestamp"`
	GageHeightFt *float64   `json:"gageHeightFt"`
	WaterTempC   *float64   `json:"waterTempC"`
	AirTempC     *float64   `json:"airTempC"`
	WindMph      *float64   `json:"windMph"`
}

// StoredRecord is a Reading persisted in the readings table.
type StoredRecord struct {
	ID int64 `json:"id"`
	Reading
}
