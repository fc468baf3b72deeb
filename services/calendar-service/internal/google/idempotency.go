package google

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AppointmentKey derives the calendar event id for a stored appointment.
// Event ids must be 5-1024 chars of base32hex (a-v, 0-9); "appt" plus the
// uuid's hex digits satisfies that.
func AppointmentKey(appointmentID uuid.UUID) string {
	return "appt" + strings.ReplaceAll(appointmentID.String(), "-", "")
}

// InlineKey derives an event id for bookings that were never stored, from
// the attendee, start instant and service.
func InlineKey(email string, start time.Time, service string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email)) + "|" +
		start.UTC().Format(time.RFC3339) + "|" + strings.TrimSpace(service)))
	return "bk" + hex.EncodeToString(sum[:])[:40]
}
