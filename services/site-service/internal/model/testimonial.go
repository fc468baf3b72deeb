package model

import "time"

type Testimonial struct {
	ID           string
	ClientName   string
	Quote        string
	ServiceName  string
	Rating       *int
	DateReceived *time.Time
	IsPublished  bool
	CreatedAt    time.Time
}
