package storage

import (
	"context"
	"fmt"

	"github.com/claryon/claryon-site/libs/db"
	"github.com/claryon/claryon-site/services/site-service/internal/model"
	"github.com/jackc/pgx/v5"
)

// ContactRepository has no update or delete: submissions are write-once.
type ContactRepository struct {
	pool *db.Pool
}

func NewContactRepository(pool *db.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

func (r *ContactRepository) Create(ctx context.Context, tx pgx.Tx, c *model.ContactSubmission) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO contact_submissions (name, email, phone, service_of_interest, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text, is_read, created_at
	`, c.Name, c.Email, nullable(c.Phone), nullable(c.ServiceOfInterest), c.Message).Scan(&c.ID, &c.IsRead, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert contact submission: %w", err)
	}
	return nil
}

func (r *ContactRepository) List(ctx context.Context, limit int) ([]model.ContactSubmission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, email, phone, service_of_interest, message, is_read, created_at
		FROM contact_submissions
		ORDER BY created_at DESC
		LIMIT $1
	`, clampLimit(limit, 100, 500))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ContactSubmission
	for rows.Next() {
		var (
			c              model.ContactSubmission
			phone, service *string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &phone, &service, &c.Message, &c.IsRead, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Phone = deref(phone)
		c.ServiceOfInterest = deref(service)
		out = append(out, c)
	}
	return out, rows.Err()
}
