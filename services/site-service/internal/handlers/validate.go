package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/claryon/claryon-site/libs/httpx"
	"github.com/claryon/claryon-site/services/site-service/internal/content"
	"github.com/claryon/claryon-site/services/site-service/internal/storage"
	"github.com/google/uuid"
)

// fieldErrors collects the first problem per field.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		f.add(field, "is required")
		return false
	}
	return true
}

func (f fieldErrors) minLen(field, value string, n int) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < n {
		f.add(field, "must be at least "+strconv.Itoa(n)+" characters")
	}
}

func (f fieldErrors) maxLen(field, value string, n int) {
	if utf8.RuneCountInString(value) > n {
		f.add(field, "must be at most "+strconv.Itoa(n)+" characters")
	}
}

func (f fieldErrors) email(field, value string) {
	if !f.required(field, value) {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != strings.TrimSpace(value) {
		f.add(field, "must be a valid email address")
	}
}

// optionalURL accepts "" or an absolute http(s) URL.
func (f fieldErrors) optionalURL(field, value string) {
	if value == "" {
		return
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		f.add(field, "must be a valid URL")
	}
}

func (f fieldErrors) empty() bool { return len(f) == 0 }

// validID reports whether id looks like a stored row id.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// writeStoreError maps repository errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, logger *slog.Logger, what string, err error) {
	switch {
	case storage.IsNotFound(err), storage.IsInvalidInput(err), errors.Is(err, content.ErrNotPublic):
		httpx.WriteError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, storage.ErrStoreNotConfigured):
		logger.Error("store not configured", "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "store not configured")
	default:
		logger.Error("store error", "what", what, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
