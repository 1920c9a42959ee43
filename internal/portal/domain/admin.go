package domain

import "time"

// Admin grants administrative capability by presence: an email with a row in
// the admin set may use the dashboard and management endpoints.
type Admin struct {
	ID        string
	Email     string
	CreatedAt time.Time
}
