package domain

import "time"

// Pre-aggregated rows returned by the store's statistics procedures.

type EndpointCount struct {
	Endpoint string
	Count    int64
}

type ToolUsageCount struct {
	ToolName string
	Count    int64
}

type DailyCount struct {
	Date  string // YYYY-MM-DD
	Count int64
}

type DailyErrorRate struct {
	Date string // YYYY-MM-DD
	Rate float64
}

type ActiveUser struct {
	TokenID      string
	UserEmail    string
	RequestCount int64
	LastActive   time.Time
}

// UsageTotals summarises request volume for the dashboard header cards.
type UsageTotals struct {
	Total     int64
	Today     int64
	ThisWeek  int64
	ThisMonth int64
}

// TokenTotals summarises the token population.
type TokenTotals struct {
	Total   int64
	Active  int64
	Revoked int64
}
