package icsfeed

import (
	"bytes"
	"testing"
	"time"

	"github.com/claryon/claryon-site/services/site-service/internal/model"
	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRoundTripsThroughDecoder(t *testing.T) {
	start := time.Date(2025, 6, 3, 14, 30, 0, 0, time.UTC)
	appts := []model.Appointment{
		{ID: "a1", ClientName: "Ana", ClientEmail: "ana@example.com", ServiceName: "General Consultation",
			PreferredDateTime: start, Status: model.AppointmentPending},
		{ID: "a2", ClientName: "Ben", ClientEmail: "ben@example.com", ServiceName: "HR Services - Recruitment",
			PreferredDateTime: start.Add(24 * time.Hour), Status: model.AppointmentCancelled},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, appts, start))

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	first := events[0]
	uid, err := first.Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "a1@claryon", uid)

	gotStart, err := first.DateTimeStart(time.UTC)
	require.NoError(t, err)
	gotEnd, err := first.DateTimeEnd(time.UTC)
	require.NoError(t, err)
	assert.True(t, gotStart.Equal(start))
	assert.Equal(t, time.Hour, gotEnd.Sub(gotStart))

	summary, _ := first.Props.Text(ical.PropSummary)
	assert.Equal(t, "Appointment: General Consultation with Ana", summary)
	st, _ := first.Props.Text(ical.PropStatus)
	assert.Equal(t, "TENTATIVE", st)

	st, _ = events[1].Props.Text(ical.PropStatus)
	assert.Equal(t, "CANCELLED", st)
}

func TestWriteEmptyFeed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, time.Now()))
	assert.Contains(t, buf.String(), "BEGIN:VCALENDAR")
	assert.NotContains(t, buf.String(), "BEGIN:VEVENT")

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)
	assert.Empty(t, cal.Events())
	prodID, err := cal.Props.Text(ical.PropProductID)
	require.NoError(t, err)
	assert.Equal(t, productID, prodID)
}
