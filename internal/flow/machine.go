// Package flow drives the booking widget's three-step flow: pick a date and
// slot, enter contact details, confirm. The machine owns the in-progress
// draft; committed bookings live in the ledger and survive the flow.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/joshua-charles/meetsched/internal/calendar"
	"github.com/joshua-charles/meetsched/internal/gcal"
	"github.com/joshua-charles/meetsched/internal/ledger"
	"github.com/joshua-charles/meetsched/internal/notify"
	"github.com/joshua-charles/meetsched/internal/slots"
)

// Step is the widget's current phase.
type Step string

const (
	StepSelecting       Step = "select"
	StepEnteringDetails Step = "details"
	StepConfirmed       Step = "confirmed"
)

// ContactDetails are the fields collected at the details step. Consent is
// recorded but does not gate the booking.
type ContactDetails struct {
	FullName string
	Email    string
	Phone    string
	Message  string
	Consent  bool
}

// Draft is the in-progress booking the machine builds across steps.
type Draft struct {
	Date time.Time
	Slot string
	ContactDetails
}

// Config wires a machine to its collaborators.
type Config struct {
	Ledger     *ledger.Ledger
	Dispatcher *notify.Dispatcher
	Links      *gcal.Builder
	Logger     *slog.Logger

	TemplateID     string
	OrganizerName  string
	OrganizerEmail string
	Location       string
	TimezoneLabel  string

	// Now is the clock; defaults to time.Now. Tests pin it.
	Now func() time.Time
}

// Machine is one user's flow instance. Safe for concurrent use; every
// ledger mutation completes within the call that triggered it.
type Machine struct {
	cfg     Config
	catalog []string

	mu    sync.Mutex
	step  Step
	draft Draft
}

func NewMachine(cfg Config) *Machine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	catalog := slots.Generate()
	m := &Machine{
		cfg:     cfg,
		catalog: catalog,
		step:    StepSelecting,
	}
	m.draft = Draft{
		Date: calendar.DefaultSelection(cfg.Now()),
		Slot: catalog[0],
	}
	return m
}

// Step returns the current phase.
func (m *Machine) Step() Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

// Draft returns a copy of the in-progress booking.
func (m *Machine) Draft() Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// Select updates the draft's date and slot while still on the first step.
// Disabled dates (past or weekend) and labels outside the catalog are
// rejected outright.
func (m *Machine) Select(date time.Time, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != StepSelecting {
		return &TransitionError{Step: m.step, Action: "select a slot"}
	}
	if !calendar.Selectable(date, m.cfg.Now()) {
		return fmt.Errorf("date %s is not selectable", date.Format("2006-01-02"))
	}
	if !slices.Contains(m.catalog, slot) {
		return fmt.Errorf("unknown time slot %q", slot)
	}
	m.draft.Date = date
	m.draft.Slot = slot
	return nil
}

// Continue moves from selection to the details step. The draft always has
// a default date and slot, so there is nothing to validate here.
func (m *Machine) Continue() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != StepSelecting {
		return &TransitionError{Step: m.step, Action: "continue"}
	}
	m.step = StepEnteringDetails
	return nil
}

// Back returns to selection. Contact fields are kept so the user does not
// retype them.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != StepEnteringDetails {
		return &TransitionError{Step: m.step, Action: "go back"}
	}
	m.step = StepSelecting
	return nil
}

// Confirm commits the booking. The submitted details are stored on the
// draft first (so a failed attempt keeps them), then the gates run in
// order: required fields, then collision. On success the ledger is updated
// synchronously and the two notification emails are dispatched best-effort
// in the background before the step flips to Confirmed.
func (m *Machine) Confirm(ctx context.Context, details ContactDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != StepEnteringDetails {
		return &TransitionError{Step: m.step, Action: "confirm"}
	}
	m.draft.ContactDetails = details

	var missing []string
	if details.FullName == "" {
		missing = append(missing, "fullName")
	}
	if details.Email == "" {
		missing = append(missing, "email")
	}
	if details.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}

	if m.cfg.Ledger.IsBooked(m.draft.Date, m.draft.Slot) {
		return fmt.Errorf("%w: %s at %s", ErrSlotTaken, m.draft.Date.Format("2006-01-02"), m.draft.Slot)
	}
	if err := m.cfg.Ledger.Book(ctx, m.draft.Date, m.draft.Slot); err != nil {
		if ledger.IsDuplicate(err) {
			return fmt.Errorf("%w: %s at %s", ErrSlotTaken, m.draft.Date.Format("2006-01-02"), m.draft.Slot)
		}
		// Unpersisted bookings are never acknowledged.
		return err
	}

	m.cfg.Dispatcher.Dispatch(notify.BookingNotice{
		TemplateID:     m.cfg.TemplateID,
		OrganizerName:  m.cfg.OrganizerName,
		OrganizerEmail: m.cfg.OrganizerEmail,
		ClientName:     details.FullName,
		ClientEmail:    details.Email,
		ClientPhone:    details.Phone,
		Date:           m.draft.Date,
		Slot:           m.draft.Slot,
		TimezoneLabel:  m.cfg.TimezoneLabel,
		Location:       m.cfg.Location,
		ClientMessage:  details.Message,
	})

	m.step = StepConfirmed
	return nil
}

// FinishCalendar builds the Google Calendar link for the confirmed booking,
// wipes the contact fields back to defaults and returns the flow to the
// selection step. The ledger entry stays. A malformed slot label yields an
// error and no reset.
func (m *Machine) FinishCalendar() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != StepConfirmed {
		return "", &TransitionError{Step: m.step, Action: "add to calendar"}
	}

	link, err := m.cfg.Links.Build(gcal.Event{
		Date:          m.draft.Date,
		Slot:          m.draft.Slot,
		FullName:      m.draft.FullName,
		Email:         m.draft.Email,
		Phone:         m.draft.Phone,
		Message:       m.draft.Message,
		TimezoneLabel: m.cfg.TimezoneLabel,
	})
	if err != nil {
		return "", err
	}

	m.draft.ContactDetails = ContactDetails{}
	m.step = StepSelecting
	return link, nil
}
