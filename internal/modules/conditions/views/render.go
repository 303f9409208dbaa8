package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"strconv"
	"time"

	"riverwatch/internal/modules/conditions/types"
	"riverwatch/internal/units"
)

//go:embed templates
var viewsFS embed.FS

var dashboardTmpl *template.Template

var errNotLoaded = errors.New("dashboard template not loaded: call views.LoadTemplates during startup")

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	dashboardTmpl = tmpl
	return nil
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// Card is one tile in the current conditions row.
type Card struct {
	Label string
	Value string
	Unit  string
}

type CurrentView struct {
	Cards     []Card
	UpdatedAt string
}

// NewCurrentView formats a reading the way the dashboard shows it: river
// level in feet, temperatures in °F and wind in mph.
func NewCurrentView(r types.Reading) *CurrentView {
	return &CurrentView{
		Cards: []Card{
			{Label: "River Level", Value: units.FormatNumber(r.GageHeightFt, 2), Unit: "ft"},
			{Label: "Water Temp", Value: units.FormatNumber(units.CelsiusToFahrenheit(r.WaterTempC), 1), Unit: "°F"},
			{Label: "Air Temp", Value: units.FormatNumber(units.CelsiusToFahrenheit(r.AirTempC), 1), Unit: "°F"},
			{Label: "Wind", Value: units.FormatNumber(r.WindMph, 1), Unit: "mph"},
		},
		UpdatedAt: formatTime(r.Timestamp),
	}
}

// RecordRow is a stored snapshot as shown in the raw data table.
type RecordRow struct {
	ID           int64
	Timestamp    string
	GageHeightFt string
	WaterTempC   string
	AirTempC     string
	WindMph      string
}

type HistoryView struct {
	Label   string
	Hours   int
	Charts  []Chart
	Records []RecordRow
}

func NewHistoryView(hours int, records []types.StoredRecord) *HistoryView {
	rows := make([]RecordRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, RecordRow{
			ID:           rec.ID,
			Timestamp:    formatTime(rec.Timestamp),
			GageHeightFt: units.FormatNumber(rec.GageHeightFt, units.DefaultDecimals),
			WaterTempC:   units.FormatNumber(rec.WaterTempC, units.DefaultDecimals),
			AirTempC:     units.FormatNumber(rec.AirTempC, units.DefaultDecimals),
			WindMph:      units.FormatNumber(rec.WindMph, units.DefaultDecimals),
		})
	}
	return &HistoryView{
		Label:   historyLabel(hours),
		Hours:   hours,
		Charts:  BuildCharts(records),
		Records: rows,
	}
}

type DashboardData struct {
	Title      string
	Subtitle   string
	FetchError string
	Stored     bool
	Current    *CurrentView
	History    *HistoryView
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errNotLoaded
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderHistoryPartial executes only the history section into w.
func RenderHistoryPartial(w io.Writer, data *HistoryView) error {
	if dashboardTmpl == nil {
		return errNotLoaded
	}
	return dashboardTmpl.ExecuteTemplate(w, "history", data)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return units.NotAvailable
	}
	return t.UTC().Format(time.RFC3339)
}

func historyLabel(hours int) string {
	switch {
	case hours == 1:
		return "Last Hour"
	case hours%24 == 0 && hours > 24:
		return "Last " + strconv.Itoa(hours/24) + " Days"
	default:
		return "Last " + strconv.Itoa(hours) + " Hours"
	}
}
