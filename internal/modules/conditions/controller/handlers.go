package controller

import (
	"bytes"
	"net/http"

	"riverwatch/internal/modules/conditions/views"
	"riverwatch/internal/utils"
)

func (c *conditionsControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := &views.DashboardData{
		Title:    c.title,
		Subtitle: c.subtitle,
		Stored:   r.URL.Query().Get("stored") == "1",
	}
	status := http.StatusOK

	reading, err := c.service.FetchCurrent(r.Context())
	if err != nil {
		c.logger.Error("dashboard: fetch current failed", "error", err)
		data.FetchError = err.Error()
		status = statusForError(err)
	} else {
		records, err := c.service.History(r.Context(), c.historyHours)
		if err != nil {
			c.logger.Error("dashboard: load history failed", "hours", c.historyHours, "error", err)
			utils.WriteError(w, http.StatusInternalServerError, "failed to load history")
			return
		}
		data.Current = views.NewCurrentView(reading)
		data.History = views.NewHistoryView(c.historyHours, records)
	}

	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, data); err != nil {
		c.logger.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, status, buf.Bytes())
}

func (c *conditionsControllerImpl) handleStoreSnapshot(w http.ResponseWriter, r *http.Request) {
	record, err := c.service.FetchAndPersist(r.Context())
	if err != nil {
		c.logger.Error("store snapshot failed", "error", err)
		utils.WriteError(w, statusForError(err), err.Error())
		return
	}
	c.logger.Debug("snapshot stored from dashboard", "id", record.ID)
	http.Redirect(w, r, "/?stored=1", http.StatusSeeOther)
}

func (c *conditionsControllerImpl) handleHistoryPartial(w http.ResponseWriter, r *http.Request) {
	hours, err := parseHoursQuery(r, c.historyHours)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := c.service.History(r.Context(), hours)
	if err != nil {
		c.logger.Error("history: load failed", "hours", hours, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	var buf bytes.Buffer
	if err := views.RenderHistoryPartial(&buf, views.NewHistoryView(hours, records)); err != nil {
		c.logger.Error("history partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (c *conditionsControllerImpl) handleCurrent(w http.ResponseWriter, r *http.Request) {
	reading, err := c.service.FetchCurrent(r.Context())
	if err != nil {
		utils.WriteError(w, statusForError(err), err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, reading)
}

func (c *conditionsControllerImpl) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	record, err := c.service.FetchAndPersist(r.Context())
	if err != nil {
		utils.WriteError(w, statusForError(err), err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusCreated, record)
}

func (c *conditionsControllerImpl) handleReadings(w http.ResponseWriter, r *http.Request) {
	hours, err := parseHoursQuery(r, c.historyHours)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := c.service.History(r.Context(), hours)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, records)
}
