package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/claryon/claryon-site/libs/httpx"
	"github.com/claryon/claryon-site/services/site-service/internal/content"
	"github.com/claryon/claryon-site/services/site-service/internal/model"
)

type TestimonialStore interface {
	ListAll(ctx context.Context, limit int) ([]model.Testimonial, error)
	Get(ctx context.Context, id string) (*model.Testimonial, error)
	Create(ctx context.Context, t *model.Testimonial) error
	Update(ctx context.Context, t *model.Testimonial) error
	Delete(ctx context.Context, id string) error
}

type AdminTestimonialsHandler struct {
	store  TestimonialStore
	cache  Invalidator
	logger *slog.Logger
}

func NewAdminTestimonialsHandler(store TestimonialStore, cache Invalidator, logger *slog.Logger) *AdminTestimonialsHandler {
	return &AdminTestimonialsHandler{store: store, cache: cache, logger: logger}
}

// flexBool accepts true/false or their string forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("must be a boolean")
	}
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a boolean")
	}
	*b = flexBool(v)
	return nil
}

type testimonialRequest struct {
	ClientName     string   `json:"client_name"`
	Quote          string   `json:"quote"`
	ServiceName    string   `json:"service_name"`
	ServiceAvailed string   `json:"service_availed"`
	Rating         *int     `json:"rating"`
	DateReceived   string   `json:"date_received"`
	IsPublished    flexBool `json:"is_published"`
}

func (req testimonialRequest) toTestimonial() (*model.Testimonial, fieldErrors) {
	t := &model.Testimonial{
		ClientName:  strings.TrimSpace(req.ClientName),
		Quote:       strings.TrimSpace(req.Quote),
		ServiceName: strings.TrimSpace(firstNonEmpty(req.ServiceName, req.ServiceAvailed)),
		Rating:      req.Rating,
		IsPublished: bool(req.IsPublished),
	}
	errs := fieldErrors{}
	if errs.required("client_name", t.ClientName) {
		errs.minLen("client_name", t.ClientName, 2)
		errs.maxLen("client_name", t.ClientName, 200)
	}
	if errs.required("quote", t.Quote) {
		errs.minLen("quote", t.Quote, 10)
		errs.maxLen("quote", t.Quote, 5000)
	}
	errs.maxLen("service_name", t.ServiceName, 200)
	if t.Rating != nil && (*t.Rating < 1 || *t.Rating > 5) {
		errs.add("rating", "must be between 1 and 5")
	}
	date, err := content.ParseDate(strings.TrimSpace(req.DateReceived))
	if err != nil {
		errs.add("date_received", "must be a YYYY-MM-DD date")
	}
	t.DateReceived = date
	return t, errs
}

func (h *AdminTestimonialsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListAll(r.Context(), queryLimit(r))
	if err != nil {
		writeStoreError(w, h.logger, "testimonials", err)
		return
	}
	out := make([]testimonialItem, 0, len(list))
	for _, t := range list {
		out = append(out, toTestimonialItem(t, true))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"testimonials": out})
}

func (h *AdminTestimonialsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		httpx.WriteError(w, http.StatusNotFound, "testimonial not found")
		return
	}
	t, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, "testimonial", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTestimonialItem(*t, true))
}

func (h *AdminTestimonialsHandler) Create(w http.ResponseWriter, r *http.Request) {
	t, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := h.store.Create(r.Context(), t); err != nil {
		writeStoreError(w, h.logger, "testimonial", err)
		return
	}
	invalidate(r.Context(), h.cache, h.logger)
	h.logger.Info("testimonial created", "testimonial_id", t.ID, "published", t.IsPublished)
	httpx.WriteJSON(w, http.StatusCreated, toTestimonialItem(*t, true))
}

func (h *AdminTestimonialsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		httpx.WriteError(w, http.StatusNotFound, "testimonial not found")
		return
	}
	t, ok := h.decode(w, r)
	if !ok {
		return
	}
	t.ID = id
	if err := h.store.Update(r.Context(), t); err != nil {
		writeStoreError(w, h.logger, "testimonial", err)
		return
	}
	invalidate(r.Context(), h.cache, h.logger)
	h.logger.Info("testimonial updated", "testimonial_id", t.ID, "published", t.IsPublished)
	httpx.WriteJSON(w, http.StatusOK, toTestimonialItem(*t, true))
}

func (h *AdminTestimonialsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		httpx.WriteError(w, http.StatusNotFound, "testimonial not found")
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		writeStoreError(w, h.logger, "testimonial", err)
		return
	}
	invalidate(r.Context(), h.cache, h.logger)
	h.logger.Info("testimonial deleted", "testimonial_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminTestimonialsHandler) decode(w http.ResponseWriter, r *http.Request) (*model.Testimonial, bool) {
	var req testimonialRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	t, errs := req.toTestimonial()
	if !errs.empty() {
		httpx.WriteValidation(w, errs)
		return nil, false
	}
	return t, true
}
