package icsfeed

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/claryon/claryon-site/services/site-service/internal/model"
	"github.com/emersion/go-ical"
)

const (
	productID    = "-//Claryon//Appointments//EN"
	calendarName = "Claryon appointments"
	duration     = time.Hour
)

// Write renders appointments as one VCALENDAR with a VEVENT each.
func Write(w io.Writer, appts []model.Appointment, now time.Time) error {
	if len(appts) == 0 {
		// The encoder rejects a calendar without components.
		_, err := io.WriteString(w, "BEGIN:VCALENDAR\r\n"+
			"VERSION:2.0\r\n"+
			"PRODID:"+productID+"\r\n"+
			"X-WR-CALNAME:"+calendarName+"\r\n"+
			"END:VCALENDAR\r\n")
		return err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText("X-WR-CALNAME", calendarName)

	for _, a := range appts {
		cal.Children = append(cal.Children, event(a, now).Component)
	}
	return ical.NewEncoder(w).Encode(cal)
}

func event(a model.Appointment, now time.Time) *ical.Event {
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, a.ID+"@claryon")
	ev.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	ev.Props.SetDateTime(ical.PropDateTimeStart, a.PreferredDateTime.UTC())
	ev.Props.SetDateTime(ical.PropDateTimeEnd, a.PreferredDateTime.Add(duration).UTC())
	ev.Props.SetText(ical.PropSummary, fmt.Sprintf("Appointment: %s with %s", a.ServiceName, a.ClientName))
	ev.Props.SetText(ical.PropDescription, description(a))
	ev.Props.SetText(ical.PropStatus, string(status(a.Status)))
	if a.ClientEmail != "" {
		attendee := ical.NewProp(ical.PropAttendee)
		attendee.Value = "mailto:" + a.ClientEmail
		attendee.Params.Set(ical.ParamCommonName, a.ClientName)
		ev.Props.Add(attendee)
	}
	return ev
}

func status(s string) ical.EventStatus {
	switch s {
	case model.AppointmentConfirmed:
		return ical.EventConfirmed
	case model.AppointmentCancelled:
		return ical.EventCancelled
	default:
		return ical.EventTentative
	}
}

func description(a model.Appointment) string {
	lines := []string{
		"Client: " + a.ClientName,
		"Email: " + a.ClientEmail,
	}
	if a.ClientPhone != "" {
		lines = append(lines, "Phone: "+a.ClientPhone)
	}
	lines = append(lines, "Service: "+a.ServiceName, "Appointment ID: "+a.ID)
	if a.CalendarEventID != "" {
		lines = append(lines, "Calendar event: "+a.CalendarEventID)
	}
	if a.Notes != "" {
		lines = append(lines, "Notes: "+a.Notes)
	}
	return strings.Join(lines, "\n")
}
