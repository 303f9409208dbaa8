package controller

import (
	"errors"
	"net/http"
	"strconv"

	"riverwatch/internal/upstream"
)

const (
	DefaultHistoryHours = 24
	maxHistoryHours     = 720
)

// parseHoursQuery reads the "hours" window size, falling back to def.
func parseHoursQuery(r *http.Request, def int) (int, error) {
	s := r.URL.Query().Get("hours")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid 'hours' (expected integer)")
	}
	if n <= 0 {
		return 0, errors.New("'hours' must be > 0")
	}
	if n > maxHistoryHours {
		return 0, errors.New("'hours' must be <= 720")
	}
	return n, nil
}

// statusForError maps upstream failures to 502 and everything else to 500.
func statusForError(err error) int {
	var fetchErr *upstream.FetchError
	var parseErr *upstream.ParseError
	if errors.As(err, &fetchErr) || errors.As(err, &parseErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
