package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claryon/claryon-site/libs/db"
	"github.com/claryon/claryon-site/services/site-service/internal/model"
	"github.com/jackc/pgx/v5"
)

type TestimonialRepository struct {
	pool *db.Pool
}

func NewTestimonialRepository(pool *db.Pool) *TestimonialRepository {
	return &TestimonialRepository{pool: pool}
}

const selectTestimonials = `
	SELECT id::text, client_name, quote, service_name, rating, date_received, is_published, created_at
	FROM testimonials`

func (r *TestimonialRepository) ListPublished(ctx context.Context, limit int) ([]model.Testimonial, error) {
	rows, err := r.pool.Query(ctx, selectTestimonials+` WHERE is_published ORDER BY created_at DESC LIMIT $1`,
		clampLimit(limit, 50, 200))
	if err != nil {
		return nil, fmt.Errorf("list published testimonials: %w", err)
	}
	return scanTestimonials(rows)
}

func (r *TestimonialRepository) ListAll(ctx context.Context, limit int) ([]model.Testimonial, error) {
	rows, err := r.pool.Query(ctx, selectTestimonials+` ORDER BY created_at DESC LIMIT $1`, clampLimit(limit, 100, 500))
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	return scanTestimonials(rows)
}

func (r *TestimonialRepository) Get(ctx context.Context, id string) (*model.Testimonial, error) {
	rows, err := r.pool.Query(ctx, selectTestimonials+` WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	list, err := scanTestimonials(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

func (r *TestimonialRepository) Create(ctx context.Context, t *model.Testimonial) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO testimonials (client_name, quote, service_name, rating, date_received, is_published)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at
	`, t.ClientName, t.Quote, nullable(t.ServiceName), t.Rating, t.DateReceived, t.IsPublished).Scan(&t.ID, &t.CreatedAt)
}

func (r *TestimonialRepository) Update(ctx context.Context, t *model.Testimonial) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE testimonials
		SET client_name = $1, quote = $2, service_name = $3, rating = $4, date_received = $5, is_published = $6
		WHERE id = $7
		RETURNING created_at
	`, t.ClientName, t.Quote, nullable(t.ServiceName), t.Rating, t.DateReceived, t.IsPublished, t.ID).Scan(&t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *TestimonialRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTestimonials(rows pgx.Rows) ([]model.Testimonial, error) {
	defer rows.Close()
	var out []model.Testimonial
	for rows.Next() {
		var (
			t       model.Testimonial
			service *string
		)
		if err := rows.Scan(&t.ID, &t.ClientName, &t.Quote, &service, &t.Rating, &t.DateReceived, &t.IsPublished, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.ServiceName = deref(service)
		out = append(out, t)
	}
	return out, rows.Err()
}
