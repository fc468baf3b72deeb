package content

import (
	"context"
	"errors"
	"time"

	"github.com/claryon/claryon-site/services/site-service/internal/model"
)

var ErrNotPublic = errors.New("post is not public")

// Reader is what the public API serves from.
type Reader interface {
	Posts(ctx context.Context, tag string, limit int) ([]model.Post, error)
	Post(ctx context.Context, slug string) (*model.Post, error)
	Testimonials(ctx context.Context, limit int) ([]model.Testimonial, error)
}

type PostSource interface {
	ListPublished(ctx context.Context, q model.PostQuery) ([]model.Post, error)
	GetPublishedBySlug(ctx context.Context, slug string, today time.Time) (*model.Post, error)
}

type TestimonialSource interface {
	ListPublished(ctx context.Context, limit int) ([]model.Testimonial, error)
}

// Public applies the publication gate on top of whatever the sources return.
type Public struct {
	posts        PostSource
	testimonials TestimonialSource
	now          func() time.Time
}

func NewPublic(posts PostSource, testimonials TestimonialSource) *Public {
	return &Public{posts: posts, testimonials: testimonials, now: time.Now}
}

func (p *Public) today() time.Time {
	return DateOf(p.now().UTC())
}

func (p *Public) Posts(ctx context.Context, tag string, limit int) ([]model.Post, error) {
	today := p.today()
	list, err := p.posts.ListPublished(ctx, model.PostQuery{Tag: tag, Limit: limit, Today: today})
	if err != nil {
		return nil, err
	}
	out := make([]model.Post, 0, len(list))
	for _, post := range list {
		if IsPublic(post, today) {
			out = append(out, post)
		}
	}
	return out, nil
}

func (p *Public) Post(ctx context.Context, slug string) (*model.Post, error) {
	today := p.today()
	post, err := p.posts.GetPublishedBySlug(ctx, slug, today)
	if err != nil {
		return nil, err
	}
	if !IsPublic(*post, today) {
		return nil, ErrNotPublic
	}
	return post, nil
}

func (p *Public) Testimonials(ctx context.Context, limit int) ([]model.Testimonial, error) {
	list, err := p.testimonials.ListPublished(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]model.Testimonial, 0, len(list))
	for _, t := range list {
		if t.IsPublished {
			out = append(out, t)
		}
	}
	return out, nil
}
