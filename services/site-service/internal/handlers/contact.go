package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/claryon/claryon-site/libs/httpx"
	"github.com/claryon/claryon-site/services/site-service/internal/model"
	"github.com/claryon/claryon-site/services/site-service/internal/notify"
)

type ContactSubmitter interface {
	SubmitContact(ctx context.Context, c *model.ContactSubmission) error
}

type ContactHandler struct {
	store    ContactSubmitter
	notifier notify.Notifier
	timeout  time.Duration
	logger   *slog.Logger
}

func NewContactHandler(store ContactSubmitter, notifier notify.Notifier, logger *slog.Logger) *ContactHandler {
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	return &ContactHandler{store: store, notifier: notifier, timeout: notify.DefaultTimeout, logger: logger}
}

type contactRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	ServiceOfInterest string `json:"service_of_interest"`
	Service           string `json:"service"`
	Message           string `json:"message"`
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	c := model.ContactSubmission{
		Name:              strings.TrimSpace(req.Name),
		Email:             strings.TrimSpace(req.Email),
		Phone:             strings.TrimSpace(req.Phone),
		ServiceOfInterest: strings.TrimSpace(firstNonEmpty(req.ServiceOfInterest, req.Service)),
		Message:           strings.TrimSpace(req.Message),
	}

	errs := fieldErrors{}
	if errs.required("name", c.Name) {
		errs.maxLen("name", c.Name, 200)
	}
	errs.email("email", c.Email)
	errs.maxLen("phone", c.Phone, 50)
	errs.maxLen("service_of_interest", c.ServiceOfInterest, 200)
	if errs.required("message", c.Message) {
		errs.maxLen("message", c.Message, 5000)
	}
	if !errs.empty() {
		httpx.WriteValidation(w, errs)
		return
	}

	if err := h.store.SubmitContact(r.Context(), &c); err != nil {
		writeStoreError(w, h.logger, "contact submission", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"id": c.ID, "status": "received"})

	// The submission is stored; mail delivery must not hold the response.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
	go func() {
		defer cancel()
		if err := h.notifier.ContactReceived(ctx, c); err != nil {
			h.logger.Warn("contact notification failed", "submission_id", c.ID, "err", err)
		}
	}()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
