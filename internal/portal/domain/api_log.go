package domain

import "time"

// APILog is one request record written by the downstream query service.
// The portal only reads these for the admin dashboards.
type APILog struct {
	ID           string
	TokenID      string
	UserEmail    string // joined from the owning token for display
	Endpoint     string
	ToolName     string
	IPAddress    string
	UserAgent    string
	RequestTime  time.Time
	ResponseTime *float64 // seconds
	Status       string
	ErrorMessage string
}
