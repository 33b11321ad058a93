package flow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joshua-charles/meetsched/internal/gcal"
	"github.com/joshua-charles/meetsched/internal/ledger"
	"github.com/joshua-charles/meetsched/internal/notify"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (r *recordingSender) Send(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) waitFor(t *testing.T, n int) []notify.Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		if len(r.sent) >= n {
			out := append([]notify.Message(nil), r.sent...)
			r.mu.Unlock()
			return out
		}
		r.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d dispatched messages", n)
	return nil
}

// 2025-06-11 is a Wednesday; the following Monday is 2025-06-16.
var wednesday = time.Date(2025, time.June, 11, 9, 30, 0, 0, time.UTC)

func newTestMachine(t *testing.T, store ledger.Store) (*Machine, *ledger.Ledger, *recordingSender) {
	t.Helper()
	return newTestMachineAt(t, store, func() time.Time { return wednesday })
}

func newTestMachineAt(t *testing.T, store ledger.Store, now func() time.Time) (*Machine, *ledger.Ledger, *recordingSender) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	led := ledger.New(store, logger)
	if err := led.Load(context.Background()); err != nil {
		t.Fatalf("ledger load: %v", err)
	}
	sender := &recordingSender{}

	m := NewMachine(Config{
		Ledger:     led,
		Dispatcher: notify.NewDispatcher(sender, logger, time.Second),
		Links: &gcal.Builder{
			OrganizerName:  "Joshua Charles",
			OrganizerEmail: "joshua80.charles@gmail.com",
			Location:       "Toronto, ON, Canada",
			Zone:           time.FixedZone("EDT", -4*3600),
		},
		Logger:         logger,
		TemplateID:     "template_hordn1h",
		OrganizerName:  "Joshua Charles",
		OrganizerEmail: "joshua80.charles@gmail.com",
		Location:       "Toronto, ON, Canada",
		TimezoneLabel:  "GMT-04:00 America/Toronto",
		Now:            now,
	})
	return m, led, sender
}

func TestMachine_Defaults(t *testing.T) {
	m, _, _ := newTestMachine(t, ledger.NewMemStore())

	if m.Step() != StepSelecting {
		t.Fatalf("initial step = %q", m.Step())
	}
	d := m.Draft()
	if !d.Date.Equal(time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("default date = %v, want today", d.Date)
	}
	if d.Slot != "9:00 AM" {
		t.Fatalf("default slot = %q, want first catalog label", d.Slot)
	}
}

func TestMachine_SelectRejectsDisabledDates(t *testing.T) {
	m, _, _ := newTestMachine(t, ledger.NewMemStore())

	saturday := time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)
	if err := m.Select(saturday, "10:00 AM"); err == nil {
		t.Fatal("weekend selection must be rejected")
	}
	yesterday := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	if err := m.Select(yesterday, "10:00 AM"); err == nil {
		t.Fatal("past-date selection must be rejected")
	}
	monday := time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC)
	if err := m.Select(monday, "7:00 PM"); err == nil {
		t.Fatal("labels outside the catalog must be rejected")
	}
	if err := m.Select(monday, "10:00 AM"); err != nil {
		t.Fatalf("valid selection rejected: %v", err)
	}
}

func TestMachine_SelectTodayWithLocalClock(t *testing.T) {
	// The clock runs in the server's own zone while request dates parse as
	// UTC midnights; today must still be accepted.
	est := time.FixedZone("EST", -5*3600)
	m, _, _ := newTestMachineAt(t, ledger.NewMemStore(), func() time.Time {
		return time.Date(2025, time.June, 11, 9, 30, 0, 0, est)
	})

	today := time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC)
	if err := m.Select(today, "10:00 AM"); err != nil {
		t.Fatalf("selecting today with a local-zone clock: %v", err)
	}
	if d := m.Draft(); !d.Date.Equal(today) {
		t.Fatalf("draft date = %v, want %v", d.Date, today)
	}
	if err := m.Select(today.AddDate(0, 0, -1), "10:00 AM"); err == nil {
		t.Fatal("yesterday must still be rejected with a local-zone clock")
	}
}

func TestMachine_ValidationGate(t *testing.T) {
	m, led, _ := newTestMachine(t, ledger.NewMemStore())
	if err := m.Continue(); err != nil {
		t.Fatalf("continue: %v", err)
	}

	err := m.Confirm(context.Background(), ContactDetails{
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Message:  "", // required
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if m.Step() != StepEnteringDetails {
		t.Fatalf("failed confirm must not change step, got %q", m.Step())
	}
	if len(led.Keys()) != 0 {
		t.Fatal("failed confirm must not touch the ledger")
	}
	// Submitted fields stay on the draft for the retry.
	if m.Draft().FullName != "Jane Doe" {
		t.Fatal("contact fields must be retained after a failed confirm")
	}
}

func TestMachine_ConflictGate(t *testing.T) {
	store := ledger.NewMemStore()
	m, led, _ := newTestMachine(t, store)

	monday := time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC)
	if err := led.Book(context.Background(), monday, "10:00 AM"); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	if err := m.Select(monday, "10:00 AM"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := m.Continue(); err != nil {
		t.Fatalf("continue: %v", err)
	}
	err := m.Confirm(context.Background(), ContactDetails{
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Message:  "Discuss roadmap",
	})
	if !IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if m.Step() != StepEnteringDetails {
		t.Fatalf("conflict must not change step, got %q", m.Step())
	}
	if got := len(led.Keys()); got != 1 {
		t.Fatalf("conflict must not append a duplicate key, ledger has %d", got)
	}
}

func TestMachine_BackRetainsDetails(t *testing.T) {
	m, _, _ := newTestMachine(t, ledger.NewMemStore())
	if err := m.Continue(); err != nil {
		t.Fatalf("continue: %v", err)
	}
	// A failed confirm leaves the typed fields behind; Back must keep them.
	_ = m.Confirm(context.Background(), ContactDetails{FullName: "Jane Doe", Email: "jane@example.com"})
	if err := m.Back(); err != nil {
		t.Fatalf("back: %v", err)
	}
	if m.Step() != StepSelecting {
		t.Fatalf("step after back = %q", m.Step())
	}
	if m.Draft().FullName != "Jane Doe" {
		t.Fatal("back must retain contact fields")
	}
}

func TestMachine_PersistFailureFailsConfirm(t *testing.T) {
	store := ledger.NewMemStore()
	m, _, _ := newTestMachine(t, store)
	if err := m.Continue(); err != nil {
		t.Fatalf("continue: %v", err)
	}

	store.FailSavesWith(errors.New("quota exceeded"))
	err := m.Confirm(context.Background(), ContactDetails{
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Message:  "Discuss roadmap",
	})
	if err == nil || IsValidation(err) || IsConflict(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if m.Step() != StepEnteringDetails {
		t.Fatal("unpersisted booking must not be acknowledged")
	}
}

func TestMachine_EndToEnd(t *testing.T) {
	m, led, sender := newTestMachine(t, ledger.NewMemStore())

	monday := time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC)
	if err := m.Select(monday, "10:00 AM"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := m.Continue(); err != nil {
		t.Fatalf("continue: %v", err)
	}
	if err := m.Confirm(context.Background(), ContactDetails{
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Message:  "Discuss roadmap",
		Consent:  true,
	}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if m.Step() != StepConfirmed {
		t.Fatalf("step after confirm = %q", m.Step())
	}
	keys := led.Keys()
	if len(keys) != 1 || keys[0] != "2025-06-16-10:00 AM" {
		t.Fatalf("ledger keys = %v", keys)
	}

	sent := sender.waitFor(t, 2)
	recipients := map[string]bool{}
	for _, msg := range sent {
		recipients[msg.ToEmail] = true
	}
	if !recipients["joshua80.charles@gmail.com"] || !recipients["jane@example.com"] {
		t.Fatalf("expected both notices dispatched, got %v", recipients)
	}

	link, err := m.FinishCalendar()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	// 10:00 AM at GMT-4 on the 16th is 14:00 UTC; plus the 30-minute window.
	if !strings.Contains(link, "dates=20250616T140000Z/20250616T143000Z") {
		t.Fatalf("link dates wrong: %s", link)
	}

	if m.Step() != StepSelecting {
		t.Fatalf("step after calendar = %q", m.Step())
	}
	d := m.Draft()
	if d.FullName != "" || d.Email != "" || d.Phone != "" || d.Message != "" || d.Consent {
		t.Fatalf("contact fields must reset after calendar, got %+v", d.ContactDetails)
	}
	if got := led.Keys(); len(got) != 1 {
		t.Fatalf("ledger must keep the booking after reset, got %v", got)
	}

	// A fresh confirm for the same slot on a new flow instance must conflict.
	if err := m.Select(monday, "10:00 AM"); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	if err := m.Continue(); err != nil {
		t.Fatalf("continue: %v", err)
	}
	err = m.Confirm(context.Background(), ContactDetails{
		FullName: "John Roe",
		Email:    "john@example.com",
		Message:  "Another meeting",
	})
	if !IsConflict(err) {
		t.Fatalf("rebooking the same slot must conflict, got %v", err)
	}
}

func TestMachine_TransitionGuards(t *testing.T) {
	m, _, _ := newTestMachine(t, ledger.NewMemStore())

	if err := m.Back(); !IsBadTransition(err) {
		t.Fatalf("back from selecting should fail, got %v", err)
	}
	if _, err := m.FinishCalendar(); !IsBadTransition(err) {
		t.Fatalf("calendar before confirm should fail, got %v", err)
	}
	if err := m.Confirm(context.Background(), ContactDetails{}); !IsBadTransition(err) {
		t.Fatalf("confirm from selecting should fail, got %v", err)
	}
	if err := m.Continue(); err != nil {
		t.Fatalf("continue: %v", err)
	}
	if err := m.Continue(); !IsBadTransition(err) {
		t.Fatalf("double continue should fail, got %v", err)
	}
}
