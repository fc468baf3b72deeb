package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claryon/claryon-site/libs/db"
	"github.com/claryon/claryon-site/services/site-service/internal/model"
	"github.com/jackc/pgx/v5"
)

type PostRepository struct {
	pool *db.Pool
}

func NewPostRepository(pool *db.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

const selectPosts = `
	SELECT id::text, title, slug, introduction, body, body_content_type, hero_image_url, author_name,
		tags, publication_date, status, created_at, updated_at
	FROM blog_posts`

// publicPredicate is the publication gate in SQL; $1 is today's date.
const publicPredicate = ` status = 'published' AND publication_date IS NOT NULL AND publication_date <= $1::date`

func (r *PostRepository) ListPublished(ctx context.Context, q model.PostQuery) ([]model.Post, error) {
	rows, err := r.pool.Query(ctx, selectPosts+` WHERE`+publicPredicate+`
		AND ($2 = '' OR $2 = ANY(tags))
		ORDER BY publication_date DESC, created_at DESC
		LIMIT $3`, q.Today, q.Tag, clampLimit(q.Limit, 20, 100))
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}
	return scanPosts(rows)
}

func (r *PostRepository) GetPublishedBySlug(ctx context.Context, slug string, today time.Time) (*model.Post, error) {
	rows, err := r.pool.Query(ctx, selectPosts+` WHERE`+publicPredicate+` AND slug = $2`, today, slug)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return firstPost(rows)
}

// ListAll ignores the publication gate.
func (r *PostRepository) ListAll(ctx context.Context, limit int) ([]model.Post, error) {
	rows, err := r.pool.Query(ctx, selectPosts+` ORDER BY updated_at DESC LIMIT $1`, clampLimit(limit, 100, 500))
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return scanPosts(rows)
}

func (r *PostRepository) Get(ctx context.Context, id string) (*model.Post, error) {
	rows, err := r.pool.Query(ctx, selectPosts+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return firstPost(rows)
}

func (r *PostRepository) Create(ctx context.Context, p *model.Post) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO blog_posts
			(title, slug, introduction, body, body_content_type, hero_image_url, author_name, tags, publication_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id::text, created_at, updated_at
	`, postArgs(p)...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PostRepository) Update(ctx context.Context, p *model.Post) error {
	args := append(postArgs(p), p.ID)
	err := r.pool.QueryRow(ctx, `
		UPDATE blog_posts
		SET title = $1, slug = $2, introduction = $3, body = $4, body_content_type = $5,
			hero_image_url = $6, author_name = $7, tags = $8, publication_date = $9, status = $10,
			updated_at = now()
		WHERE id = $11
		RETURNING created_at, updated_at
	`, args...).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func postArgs(p *model.Post) []any {
	var body any
	if len(p.Body) > 0 {
		body = []byte(p.Body)
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{p.Title, p.Slug, nullable(p.Introduction), body, p.BodyContentType, nullable(p.HeroImageURL),
		nullable(p.AuthorName), tags, p.PublicationDate, p.Status}
}

func firstPost(rows pgx.Rows) (*model.Post, error) {
	list, err := scanPosts(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

func scanPosts(rows pgx.Rows) ([]model.Post, error) {
	defer rows.Close()
	var out []model.Post
	for rows.Next() {
		var (
			p                   model.Post
			intro, hero, author *string
			body                []byte
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &intro, &body, &p.BodyContentType, &hero, &author,
			&p.Tags, &p.PublicationDate, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Introduction = deref(intro)
		p.HeroImageURL = deref(hero)
		p.AuthorName = deref(author)
		if len(body) > 0 {
			p.Body = json.RawMessage(body)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
