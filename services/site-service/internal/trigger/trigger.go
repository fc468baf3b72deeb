package trigger

import (
	"fmt"
	"strings"
)

// Mode selects how a stored booking reaches the calendar service.
type Mode string

const (
	ModeNone  Mode = "none"
	ModeHTTP  Mode = "http"
	ModeEvent Mode = "event"
)

func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return ModeNone, nil
	case ModeNone, ModeHTTP, ModeEvent:
		return m, nil
	default:
		return "", fmt.Errorf("unknown calendar trigger %q (want none, http or event)", raw)
	}
}

// Resolve checks mode against the transports that are configured and returns
// the mode that can actually run. When mode cannot run, ModeNone is returned
// with an error describing what is missing.
func Resolve(mode Mode, brokers, calendarURL string) (Mode, error) {
	switch mode {
	case ModeEvent:
		if strings.TrimSpace(brokers) == "" {
			return ModeNone, fmt.Errorf("calendar trigger %q needs KAFKA_BROKERS", mode)
		}
	case ModeHTTP:
		if strings.TrimSpace(calendarURL) == "" {
			return ModeNone, fmt.Errorf("calendar trigger %q needs CALENDAR_SERVICE_URL", mode)
		}
	}
	return mode, nil
}
