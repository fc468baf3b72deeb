package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/claryon/claryon-site/libs/httpx"
	"github.com/claryon/claryon-site/services/site-service/internal/content"
	"github.com/claryon/claryon-site/services/site-service/internal/model"
)

type PublicHandler struct {
	reader   content.Reader
	services []string
	logger   *slog.Logger
}

func NewPublicHandler(reader content.Reader, services []string, logger *slog.Logger) *PublicHandler {
	if len(services) == 0 {
		services = content.DefaultServices
	}
	return &PublicHandler{reader: reader, services: services, logger: logger}
}

type postItem struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	Introduction    string          `json:"introduction,omitempty"`
	Body            json.RawMessage `json:"body,omitempty"`
	BodyContentType string          `json:"body_content_type"`
	BodyText        string          `json:"body_text,omitempty"`
	HeroImageURL    string          `json:"hero_image_url,omitempty"`
	AuthorName      string          `json:"author_name,omitempty"`
	Tags            []string        `json:"tags"`
	PublicationDate string          `json:"publication_date,omitempty"`
	Status          string          `json:"status,omitempty"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

type testimonialItem struct {
	ID           string `json:"id"`
	ClientName   string `json:"client_name"`
	Quote        string `json:"quote"`
	ServiceName  string `json:"service_name,omitempty"`
	Rating       *int   `json:"rating,omitempty"`
	DateReceived string `json:"date_received,omitempty"`
	IsPublished  *bool  `json:"is_published,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// toPostItem renders p; withBody adds the stored body and its plain text,
// withStatus is for the admin views.
func toPostItem(p model.Post, withBody, withStatus bool) postItem {
	item := postItem{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		Introduction:    p.Introduction,
		BodyContentType: p.BodyContentType,
		HeroImageURL:    p.HeroImageURL,
		AuthorName:      p.AuthorName,
		Tags:            p.Tags,
		CreatedAt:       p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	if p.PublicationDate != nil {
		item.PublicationDate = p.PublicationDate.Format(content.DateLayout)
	}
	if withBody {
		item.Body = p.Body
		item.BodyText = content.BodyText(p.Body)
	}
	if withStatus {
		item.Status = p.Status
	}
	return item
}

func toTestimonialItem(t model.Testimonial, withFlag bool) testimonialItem {
	item := testimonialItem{
		ID:          t.ID,
		ClientName:  t.ClientName,
		Quote:       t.Quote,
		ServiceName: t.ServiceName,
		Rating:      t.Rating,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.DateReceived != nil {
		item.DateReceived = t.DateReceived.Format(content.DateLayout)
	}
	if withFlag {
		published := t.IsPublished
		item.IsPublished = &published
	}
	return item
}

func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (h *PublicHandler) Posts(w http.ResponseWriter, r *http.Request) {
	tag := strings.TrimSpace(r.URL.Query().Get("tag"))
	list, err := h.reader.Posts(r.Context(), tag, queryLimit(r))
	if err != nil {
		writeStoreError(w, h.logger, "posts", err)
		return
	}
	out := make([]postItem, 0, len(list))
	for _, p := range list {
		out = append(out, toPostItem(p, false, false))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"posts": out})
}

func (h *PublicHandler) Post(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if !content.ValidSlug(slug) {
		httpx.WriteError(w, http.StatusNotFound, "post not found")
		return
	}
	p, err := h.reader.Post(r.Context(), slug)
	if err != nil {
		writeStoreError(w, h.logger, "post", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPostItem(*p, true, false))
}

func (h *PublicHandler) Testimonials(w http.ResponseWriter, r *http.Request) {
	list, err := h.reader.Testimonials(r.Context(), queryLimit(r))
	if err != nil {
		writeStoreError(w, h.logger, "testimonials", err)
		return
	}
	out := make([]testimonialItem, 0, len(list))
	for _, t := range list {
		out = append(out, toTestimonialItem(t, false))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"testimonials": out})
}

func (h *PublicHandler) Services(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"services": h.services})
}
