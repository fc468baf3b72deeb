package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apptID = "6f1c1d7e-3f43-4a8e-9f61-0f4b2a6c9b11"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSyncPrintsOutcome(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"success":true,"appointment_id":"` + apptID + `","event_id":"appt6f1c","reused":true}`))
	}))
	defer srv.Close()

	out, err := run(t, "sync", "--calendar-url", srv.URL, "--token", "tok", apptID)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Contains(t, out, `"event_id": "appt6f1c"`)
	assert.Contains(t, out, `"reused": true`)
}

func TestSyncReportsHalt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"stage":"update_failed_after_event_created","event_id":"appt6f1c"}`))
	}))
	defer srv.Close()

	out, err := run(t, "sync", "--calendar-url", srv.URL, apptID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update_failed_after_event_created")
	assert.Contains(t, out, `"stage": "update_failed_after_event_created"`)
}

func TestSyncRejectsMalformedID(t *testing.T) {
	_, err := run(t, "sync", "--calendar-url", "http://127.0.0.1:1", "not-an-id")
	assert.Error(t, err)
}

func TestPrintPending(t *testing.T) {
	var buf bytes.Buffer
	ts := time.Date(2025, 6, 3, 12, 30, 0, 0, time.UTC)
	printPending(&buf, []pendingRow{{ID: apptID, ClientEmail: "ana@example.com", ServiceName: "General Consultation",
		PreferredDateTime: ts, CreatedAt: ts.Add(-time.Hour)}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "2025-06-03T12:30:00Z")
}
