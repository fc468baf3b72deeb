package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/claryon/claryon-site/libs/httpx"
	"github.com/claryon/claryon-site/services/site-service/internal/content"
	"github.com/claryon/claryon-site/services/site-service/internal/model"
	"github.com/claryon/claryon-site/services/site-service/internal/storage"
)

type PostStore interface {
	ListAll(ctx context.Context, limit int) ([]model.Post, error)
	Get(ctx context.Context, id string) (*model.Post, error)
	Create(ctx context.Context, p *model.Post) error
	Update(ctx context.Context, p *model.Post) error
	Delete(ctx context.Context, id string) error
}

// Invalidator drops cached public content after a write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type AdminPostsHandler struct {
	store  PostStore
	cache  Invalidator
	logger *slog.Logger
}

func NewAdminPostsHandler(store PostStore, cache Invalidator, logger *slog.Logger) *AdminPostsHandler {
	return &AdminPostsHandler{store: store, cache: cache, logger: logger}
}

type postRequest struct {
	Title           string       `json:"title"`
	Slug            string       `json:"slug"`
	Introduction    string       `json:"introduction"`
	BodyContent     string       `json:"body_content"`
	BodyContentType string       `json:"body_content_type"`
	HeroImageURL    string       `json:"hero_image_url"`
	AuthorName      string       `json:"author_name"`
	Tags            content.Tags `json:"tags"`
	PublicationDate string       `json:"publication_date"`
	Status          string       `json:"status"`
}

func (req postRequest) toPost() (*model.Post, fieldErrors) {
	p := &model.Post{
		Title:           strings.TrimSpace(req.Title),
		Slug:            strings.TrimSpace(req.Slug),
		Introduction:    strings.TrimSpace(req.Introduction),
		BodyContentType: strings.TrimSpace(req.BodyContentType),
		HeroImageURL:    strings.TrimSpace(req.HeroImageURL),
		AuthorName:      strings.TrimSpace(req.AuthorName),
		Tags:            content.NormalizeTags(req.Tags),
		Status:          strings.TrimSpace(req.Status),
	}
	errs := fieldErrors{}
	if errs.required("title", p.Title) {
		errs.minLen("title", p.Title, 3)
		errs.maxLen("title", p.Title, 300)
	}
	if p.Slug == "" {
		p.Slug = content.Slugify(p.Title)
	}
	if !content.ValidSlug(p.Slug) {
		errs.add("slug", "must be at least 3 characters of lowercase letters, digits and single dashes")
	}
	errs.optionalURL("hero_image_url", p.HeroImageURL)

	date, err := content.ParseDate(strings.TrimSpace(req.PublicationDate))
	if err != nil {
		errs.add("publication_date", "must be a YYYY-MM-DD date")
	}
	p.PublicationDate = date

	if p.Status == "" {
		p.Status = model.PostDraft
	}
	switch p.Status {
	case model.PostDraft, model.PostPublished, model.PostArchived:
	default:
		errs.add("status", "must be one of draft, published, archived")
	}

	if p.BodyContentType == "" {
		p.BodyContentType = model.BodyMarkdown
	}
	body, err := content.EncodeBody(p.BodyContentType, req.BodyContent)
	if err != nil {
		errs.add("body_content_type", "must be markdown or html")
	}
	p.Body = body
	return p, errs
}

func (h *AdminPostsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListAll(r.Context(), queryLimit(r))
	if err != nil {
		writeStoreError(w, h.logger, "posts", err)
		return
	}
	out := make([]postItem, 0, len(list))
	for _, p := range list {
		out = append(out, toPostItem(p, false, true))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"posts": out})
}

func (h *AdminPostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		httpx.WriteError(w, http.StatusNotFound, "post not found")
		return
	}
	p, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, "post", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPostItem(*p, true, true))
}

func (h *AdminPostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := h.store.Create(r.Context(), p); err != nil {
		h.writeWriteError(w, err)
		return
	}
	h.invalidate(r.Context())
	h.logger.Info("post created", "post_id", p.ID, "slug", p.Slug, "status", p.Status)
	httpx.WriteJSON(w, http.StatusCreated, toPostItem(*p, true, true))
}

func (h *AdminPostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		httpx.WriteError(w, http.StatusNotFound, "post not found")
		return
	}
	p, ok := h.decode(w, r)
	if !ok {
		return
	}
	p.ID = id
	if err := h.store.Update(r.Context(), p); err != nil {
		h.writeWriteError(w, err)
		return
	}
	h.invalidate(r.Context())
	h.logger.Info("post updated", "post_id", p.ID, "status", p.Status)
	httpx.WriteJSON(w, http.StatusOK, toPostItem(*p, true, true))
}

func (h *AdminPostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		httpx.WriteError(w, http.StatusNotFound, "post not found")
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		writeStoreError(w, h.logger, "post", err)
		return
	}
	h.invalidate(r.Context())
	h.logger.Info("post deleted", "post_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminPostsHandler) decode(w http.ResponseWriter, r *http.Request) (*model.Post, bool) {
	var req postRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	p, errs := req.toPost()
	if !errs.empty() {
		httpx.WriteValidation(w, errs)
		return nil, false
	}
	return p, true
}

func (h *AdminPostsHandler) writeWriteError(w http.ResponseWriter, err error) {
	if storage.IsUniqueViolation(err) {
		httpx.WriteJSON(w, http.StatusConflict, httpx.ErrorBody{
			Error:  "slug already in use",
			Fields: map[string]string{"slug": "is already used by another post"},
		})
		return
	}
	writeStoreError(w, h.logger, "post", err)
}

func (h *AdminPostsHandler) invalidate(ctx context.Context) {
	invalidate(ctx, h.cache, h.logger)
}

func invalidate(ctx context.Context, cache Invalidator, logger *slog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		logger.Warn("content cache invalidation failed", "err", err)
	}
}
