package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rakshak-ai/internal/locator"
)

// AlertSentMessage is the reply of the send_alert_to_officer tool.
const AlertSentMessage = "alert sent to the officer, they will contact you shortly"

// Locator answers the location tools. *locator.Selector satisfies it.
type Locator interface {
	SelectLocation(ctx context.Context, text, language string) locator.Payload
	PoliceStation(ctx context.Context, areaName string) locator.StationAnswer
}

// Alerter notifies the duty officer. *whatsapp.Client satisfies it.
type Alerter interface {
	AlertOfficer(ctx context.Context, text string) bool
}

// ToolsHandler serves the voice agent's function-calling tools.
type ToolsHandler struct {
	Locator Locator
	Alerter Alerter // nil when alerts are not configured
	Log     *slog.Logger
}

type policeStationRequest struct {
	AreaName string `json:"area_name"`
	// areaname is the older spelling used by the agent schema.
	AreaNameAlt string `json:"areaname"`
}

// GetPoliceStation handles POST /api/tools/get_police_station.
func (h *ToolsHandler) GetPoliceStation(w http.ResponseWriter, r *http.Request) {
	var req policeStationRequest
	if !decode(w, r, &req) {
		return
	}
	area := req.AreaName
	if area == "" {
		area = req.AreaNameAlt
	}
	writeJSON(w, http.StatusOK, h.Locator.PoliceStation(r.Context(), area))
}

type selectLocationRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// SelectLocation handles POST /api/tools/select_location. The payload is
// returned with 200 even when unresolved; the agent reads next_state.
func (h *ToolsHandler) SelectLocation(w http.ResponseWriter, r *http.Request) {
	var req selectLocationRequest
	if !decode(w, r, &req) {
		return
	}
	language := req.Language
	if language == "" {
		language = locator.LanguageEnglish
	}
	writeJSON(w, http.StatusOK, h.Locator.SelectLocation(r.Context(), req.Text, language))
}

type alertRequest struct {
	Message string `json:"message"`
}

type alertResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// SendAlert handles POST /api/tools/send_alert_to_officer. The agent always
// gets the reassurance text; Sent reports whether the alert left.
func (h *ToolsHandler) SendAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	sent := false
	if h.Alerter != nil {
		sent = h.Alerter.AlertOfficer(r.Context(), req.Message)
	} else {
		h.logger().Warn("officer alert dropped: alerts not configured")
	}
	writeJSON(w, http.StatusOK, alertResponse{Sent: sent, Message: AlertSentMessage})
}

// ListTools handles GET /api/tools.
func (h *ToolsHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": Schemas()})
}

func (h *ToolsHandler) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}
