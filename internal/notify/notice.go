package notify

import (
	"fmt"
	"time"
)

// BookingNotice carries everything the two booking emails mention.
type BookingNotice struct {
	TemplateID     string
	OrganizerName  string
	OrganizerEmail string

	ClientName  string
	ClientEmail string
	ClientPhone string

	Date          time.Time
	Slot          string
	TimezoneLabel string
	Location      string
	ClientMessage string
}

func (n BookingNotice) formattedDate() string {
	return n.Date.Format("Monday, January 2, 2006")
}

func (n BookingNotice) phoneOrNA() string {
	if n.ClientPhone == "" {
		return "N/A"
	}
	return n.ClientPhone
}

func (n BookingNotice) messageOrDefault() string {
	if n.ClientMessage == "" {
		return "No message provided"
	}
	return n.ClientMessage
}

func (n BookingNotice) clientNameOrDefault() string {
	if n.ClientName == "" {
		return "Client"
	}
	return n.ClientName
}

// OrganizerMessage is the heads-up sent to the organizer's own inbox.
func OrganizerMessage(n BookingNotice) Message {
	body := fmt.Sprintf(
		"New Appointment Booking Notification\n\n"+
			"Client Details:\n"+
			"- Name: %s\n"+
			"- Email: %s\n"+
			"- Phone: %s\n\n"+
			"Appointment Details:\n"+
			"- Date: %s\n"+
			"- Time: %s\n"+
			"- Duration: 30 minutes\n"+
			"- Timezone: %s\n"+
			"- Location: %s\n\n"+
			"Client Message:\n%s\n\n"+
			"Please add this appointment to your calendar.",
		n.ClientName, n.ClientEmail, n.phoneOrNA(),
		n.formattedDate(), n.Slot, n.TimezoneLabel, n.Location,
		n.messageOrDefault(),
	)
	return Message{
		TemplateID: n.TemplateID,
		Name:       n.OrganizerName,
		Email:      n.OrganizerEmail,
		ToEmail:    n.OrganizerEmail,
		Subject:    "New appointment booking",
		Body:       body,
	}
}

// ClientMessage is the confirmation sent to the person who booked.
func ClientMessage(n BookingNotice) Message {
	body := fmt.Sprintf(
		"Appointment Confirmation\n\n"+
			"Dear %s,\n\n"+
			"Your appointment has been successfully scheduled.\n\n"+
			"Appointment Details:\n"+
			"- Date: %s\n"+
			"- Time: %s\n"+
			"- Duration: 30 minutes\n"+
			"- Timezone: %s\n"+
			"- Location: %s\n\n"+
			"Organizer:\n"+
			"- Name: %s\n"+
			"- Email: %s\n\n"+
			"If you have any questions, feel free to reply to this email.\n\n"+
			"Best regards,\n%s",
		n.clientNameOrDefault(),
		n.formattedDate(), n.Slot, n.TimezoneLabel, n.Location,
		n.OrganizerName, n.OrganizerEmail,
		n.OrganizerName,
	)
	return Message{
		TemplateID: n.TemplateID,
		Name:       n.clientNameOrDefault(),
		Email:      n.ClientEmail,
		ToEmail:    n.ClientEmail,
		Subject:    "Appointment confirmation",
		Body:       body,
	}
}
