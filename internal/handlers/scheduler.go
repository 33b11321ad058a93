// Package handlers exposes the booking widget's control surface as JSON
// endpoints: the month grid, the slot list with booked flags, and the
// step transitions of the flow machine.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joshua-charles/meetsched/internal/calendar"
	"github.com/joshua-charles/meetsched/internal/flow"
	"github.com/joshua-charles/meetsched/internal/ledger"
	"github.com/joshua-charles/meetsched/internal/slots"
)

// SessionIDHeader carries the widget session across requests.
const SessionIDHeader = "X-Session-Id"

const dateFormat = "2006-01-02"

type SchedulerHandler struct {
	sessions *SessionRegistry
	ledger   *ledger.Ledger
	logger   *slog.Logger

	timezoneLabel string
	location      string
	catalog       []string
	now           func() time.Time
}

func NewSchedulerHandler(sessions *SessionRegistry, led *ledger.Ledger, logger *slog.Logger, timezoneLabel, location string, now func() time.Time) *SchedulerHandler {
	if now == nil {
		now = time.Now
	}
	return &SchedulerHandler{
		sessions:      sessions,
		ledger:        led,
		logger:        logger,
		timezoneLabel: timezoneLabel,
		location:      location,
		catalog:       slots.Generate(),
		now:           now,
	}
}

type configResponse struct {
	SessionID     string   `json:"session_id"`
	Step          string   `json:"step"`
	TimezoneLabel string   `json:"timezone_label"`
	Location      string   `json:"location"`
	Slots         []string `json:"slots"`
	SelectedDate  string   `json:"selected_date"`
	SelectedSlot  string   `json:"selected_slot"`
	MonthLabel    string   `json:"month_label"`
}

type dayCell struct {
	Date       string `json:"date,omitempty"`
	Day        int    `json:"day,omitempty"`
	Selectable bool   `json:"selectable"`
}

type monthResponse struct {
	Label string    `json:"label"`
	Days  []dayCell `json:"days"`
}

type slotItem struct {
	Slot   string `json:"slot"`
	Booked bool   `json:"booked"`
}

type selectRequest struct {
	Date string `json:"date"`
	Slot string `json:"slot"`
}

type stepResponse struct {
	Step         string `json:"step"`
	SelectedDate string `json:"selected_date"`
	SelectedSlot string `json:"selected_slot"`
}

type confirmRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Message  string `json:"message"`
	Consent  bool   `json:"consent"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

type calendarLinkResponse struct {
	URL  string `json:"url"`
	Step string `json:"step"`
}

// Config bootstraps (or resumes) a widget session.
func (h *SchedulerHandler) Config(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	m, id := h.acquire(w, r)
	draft := m.Draft()
	writeJSON(w, http.StatusOK, configResponse{
		SessionID:     id,
		Step:          string(m.Step()),
		TimezoneLabel: h.timezoneLabel,
		Location:      h.location,
		Slots:         h.catalog,
		SelectedDate:  draft.Date.Format(dateFormat),
		SelectedSlot:  draft.Slot,
		MonthLabel:    calendar.MonthLabel(draft.Date.Year(), draft.Date.Month()),
	})
}

// Month renders one month of the day grid with selectability flags.
func (h *SchedulerHandler) Month(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	today := h.now()
	year := today.Year()
	month := today.Month()
	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid year", http.StatusBadRequest)
			return
		}
		year = n
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("month")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 12 {
			http.Error(w, "invalid month", http.StatusBadRequest)
			return
		}
		month = time.Month(n)
	}

	cells := calendar.DayGrid(year, month)
	days := make([]dayCell, 0, len(cells))
	for _, c := range cells {
		if c.IsZero() {
			days = append(days, dayCell{})
			continue
		}
		days = append(days, dayCell{
			Date:       c.Format(dateFormat),
			Day:        c.Day(),
			Selectable: calendar.Selectable(c, today),
		})
	}
	writeJSON(w, http.StatusOK, monthResponse{
		Label: calendar.MonthLabel(year, month),
		Days:  days,
	})
}

// Slots lists the day's catalog with per-slot booked flags.
func (h *SchedulerHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date, err := time.Parse(dateFormat, strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		http.Error(w, "date is required as YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	items := make([]slotItem, 0, len(h.catalog))
	for _, s := range h.catalog {
		items = append(items, slotItem{Slot: s, Booked: h.ledger.IsBooked(date, s)})
	}
	writeJSON(w, http.StatusOK, items)
}

// Select updates the session draft's date and slot.
func (h *SchedulerHandler) Select(w http.ResponseWriter, r *http.Request) {
	m, ok := h.postSession(w, r)
	if !ok {
		return
	}

	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(dateFormat, strings.TrimSpace(req.Date))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	if err := m.Select(date, strings.TrimSpace(req.Slot)); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	h.writeStep(w, m)
}

// Continue moves the session to the details step.
func (h *SchedulerHandler) Continue(w http.ResponseWriter, r *http.Request) {
	m, ok := h.postSession(w, r)
	if !ok {
		return
	}
	if err := m.Continue(); err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	h.writeStep(w, m)
}

// Back returns the session to the selection step, keeping typed fields.
func (h *SchedulerHandler) Back(w http.ResponseWriter, r *http.Request) {
	m, ok := h.postSession(w, r)
	if !ok {
		return
	}
	if err := m.Back(); err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	h.writeStep(w, m)
}

// Confirm commits the booking: 422 on missing fields, 409 on a slot
// collision, 201 with the confirmed step on success.
func (h *SchedulerHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	m, ok := h.postSession(w, r)
	if !ok {
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	err := m.Confirm(r.Context(), flow.ContactDetails{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Message:  strings.TrimSpace(req.Message),
		Consent:  req.Consent,
	})
	switch {
	case err == nil:
	case flow.IsValidation(err):
		var ve *flow.ValidationError
		errors.As(err, &ve)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Missing: ve.Missing})
		return
	case flow.IsConflict(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "this time slot is already booked, please select a different time"})
		return
	case flow.IsBadTransition(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	default:
		h.logger.Error("booking confirmation failed", "err", err)
		http.Error(w, "failed to save booking", http.StatusInternalServerError)
		return
	}

	draft := m.Draft()
	writeJSON(w, http.StatusCreated, stepResponse{
		Step:         string(m.Step()),
		SelectedDate: draft.Date.Format(dateFormat),
		SelectedSlot: draft.Slot,
	})
}

// CalendarLink returns the Google Calendar URL for the confirmed booking
// and resets the session draft.
func (h *SchedulerHandler) CalendarLink(w http.ResponseWriter, r *http.Request) {
	m, ok := h.postSession(w, r)
	if !ok {
		return
	}

	link, err := m.FinishCalendar()
	if err != nil {
		if flow.IsBadTransition(err) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("calendar link build failed", "err", err)
		http.Error(w, "failed to build calendar link", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, calendarLinkResponse{URL: link, Step: string(m.Step())})
}

// Register mounts the widget routes on mux.
func (h *SchedulerHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/schedule/config", h.Config)
	mux.HandleFunc("/api/v1/schedule/month", h.Month)
	mux.HandleFunc("/api/v1/schedule/slots", h.Slots)
	mux.HandleFunc("/api/v1/schedule/select", h.Select)
	mux.HandleFunc("/api/v1/schedule/continue", h.Continue)
	mux.HandleFunc("/api/v1/schedule/back", h.Back)
	mux.HandleFunc("/api/v1/schedule/confirm", h.Confirm)
	mux.HandleFunc("/api/v1/schedule/calendar-link", h.CalendarLink)
}

func (h *SchedulerHandler) acquire(w http.ResponseWriter, r *http.Request) (*flow.Machine, string) {
	m, id := h.sessions.Acquire(strings.TrimSpace(r.Header.Get(SessionIDHeader)))
	w.Header().Set(SessionIDHeader, id)
	return m, id
}

func (h *SchedulerHandler) postSession(w http.ResponseWriter, r *http.Request) (*flow.Machine, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	m, _ := h.acquire(w, r)
	return m, true
}

func (h *SchedulerHandler) writeStep(w http.ResponseWriter, m *flow.Machine) {
	draft := m.Draft()
	writeJSON(w, http.StatusOK, stepResponse{
		Step:         string(m.Step()),
		SelectedDate: draft.Date.Format(dateFormat),
		SelectedSlot: draft.Slot,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
