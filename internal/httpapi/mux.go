package httpapi

import (
	"database/sql"
	"net/http"

	"riverwatch/internal/metrics"
)

// NewMux registers the operational endpoints; feature modules add their own.
func NewMux(db *sql.DB, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	mux.Handle("GET /metrics", m.Handler())
	return mux
}
