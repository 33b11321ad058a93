// Package gcal turns a confirmed booking into a Google Calendar deep link.
// It builds the URL only; opening it is the caller's concern and no network
// request is made here.
package gcal

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joshua-charles/meetsched/internal/slots"
)

const (
	renderEndpoint  = "https://calendar.google.com/calendar/render"
	meetingDuration = 30 * time.Minute
	// Google Calendar expects UTC instants as YYYYMMDDTHHMMSSZ.
	googleTimeFormat = "20060102T150405Z"

	sectionRule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
)

// Builder carries the fixed organizer identity and meeting location; the
// per-booking fields arrive with each Event.
type Builder struct {
	OrganizerName  string
	OrganizerEmail string
	Location       string
	// Zone the wall-clock slot labels are anchored in.
	Zone *time.Location
}

// Event is the confirmed booking the link describes.
type Event struct {
	Date          time.Time
	Slot          string
	FullName      string
	Email         string
	Phone         string
	Message       string
	TimezoneLabel string
}

// Build composes the render URL. The slot label is parsed defensively even
// though the catalog is fixed; a malformed label yields an error and no link.
func (b *Builder) Build(ev Event) (string, error) {
	hour, minute, err := slots.Parse(ev.Slot)
	if err != nil {
		return "", err
	}

	zone := b.Zone
	if zone == nil {
		zone = time.Local
	}
	start := time.Date(ev.Date.Year(), ev.Date.Month(), ev.Date.Day(), hour, minute, 0, 0, zone)
	end := start.Add(meetingDuration)

	clientName := ev.FullName
	if clientName == "" {
		clientName = "Client"
	}
	title := fmt.Sprintf("Appointment: %s with %s", clientName, b.OrganizerName)

	var u strings.Builder
	u.WriteString(renderEndpoint)
	u.WriteString("?action=TEMPLATE")
	u.WriteString("&text=" + url.QueryEscape(title))
	u.WriteString("&dates=" + start.UTC().Format(googleTimeFormat) + "/" + end.UTC().Format(googleTimeFormat))
	u.WriteString("&details=" + url.QueryEscape(b.details(ev)))
	u.WriteString("&location=" + url.QueryEscape(b.Location))
	u.WriteString("&add=" + url.QueryEscape(b.OrganizerEmail))
	if ev.Email != "" {
		u.WriteString("&add=" + url.QueryEscape(ev.Email))
	}
	return u.String(), nil
}

func (b *Builder) details(ev Event) string {
	phone := ev.Phone
	if phone == "" {
		phone = "N/A"
	}
	message := ev.Message
	if message == "" {
		message = "No message provided"
	}

	return "30-minute strategy & architecture review session.\n\n" +
		sectionRule + "\n" +
		"ORGANIZER:\n" +
		b.OrganizerName + "\n" +
		"Email: " + b.OrganizerEmail + "\n\n" +
		sectionRule + "\n" +
		"CLIENT DETAILS:\n" +
		"Name: " + ev.FullName + "\n" +
		"Email: " + ev.Email + "\n" +
		"Phone: " + phone + "\n\n" +
		sectionRule + "\n" +
		"APPOINTMENT DETAILS:\n" +
		"Date: " + ev.Date.Format("Monday, January 2, 2006") + "\n" +
		"Time: " + ev.Slot + "\n" +
		"Duration: 30 minutes\n" +
		"Timezone: " + ev.TimezoneLabel + "\n" +
		"Location: " + b.Location + "\n\n" +
		sectionRule + "\n" +
		"CLIENT MESSAGE:\n" + message
}
