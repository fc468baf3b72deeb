// Package calendarclient calls the calendar-service event entrypoint.
package calendarclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claryon/claryon-site/libs/httpx"
	otelx "github.com/claryon/claryon-site/libs/otel"
)

// Outcome mirrors the calendar service's response body.
type Outcome struct {
	StatusCode    int    `json:"-"`
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	Stage         string `json:"stage,omitempty"`
	Details       string `json:"details,omitempty"`
	AppointmentID string `json:"appointment_id,omitempty"`
	EventID       string `json:"event_id,omitempty"`
	EventURL      string `json:"event_url,omitempty"`
	MeetLink      string `json:"meet_link,omitempty"`
	Reused        bool   `json:"reused,omitempty"`
	DatabaseError string `json:"database_error,omitempty"`
}

// Client invokes the calendar-event entrypoint for a stored appointment.
type Client struct {
	url   string
	token string
	http  *http.Client
}

func New(url string, token string, client *http.Client) *Client {
	if client == nil {
		client = otelx.HTTPClient(5 * time.Second)
	}
	return &Client{
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		http:  client,
	}
}

// Invoke posts {appointment_id} and decodes the response. A non-2xx answer
// returns both the decoded outcome and an error.
func (c *Client) Invoke(ctx context.Context, appointmentID string) (Outcome, error) {
	if c.url == "" {
		return Outcome{}, errors.New("calendar service url not configured")
	}
	raw, err := json.Marshal(map[string]string{"appointment_id": appointmentID})
	if err != nil {
		return Outcome{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		return Outcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	httpx.ForwardRequestID(ctx, req)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Outcome{}, err
	}
	defer resp.Body.Close()

	out := Outcome{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(body) > 0 {
		_ = json.Unmarshal(body, &out)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		stage := out.Stage
		if stage == "" {
			stage = "unknown"
		}
		return out, fmt.Errorf("calendar service returned %d (stage %s)", resp.StatusCode, stage)
	}
	return out, nil
}
