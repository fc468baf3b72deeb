package model

import "time"

type ContactSubmission struct {
	ID                string
	Name              string
	Email             string
	Phone             string
	ServiceOfInterest string
	Message           string
	IsRead            bool
	CreatedAt         time.Time
}
