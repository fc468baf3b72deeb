package model

import (
	"encoding/json"
	"time"
)

const (
	PostDraft     = "draft"
	PostPublished = "published"
	PostArchived  = "archived"

	BodyMarkdown = "markdown"
	BodyHTML     = "html"
)

type Post struct {
	ID              string
	Title           string
	Slug            string
	Introduction    string
	Body            json.RawMessage
	BodyContentType string
	HeroImageURL    string
	AuthorName      string
	Tags            []string
	// PublicationDate is a calendar date; nil keeps the post private.
	PublicationDate *time.Time
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type PostQuery struct {
	Tag   string
	Limit int
	// Today is the date the publication gate compares against.
	Today time.Time
}
