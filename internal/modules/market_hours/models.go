package market_hours

import "time"

// Session represents regular trading hours for the tracked exchange
type Session struct {
	Timezone    *time.Location
	OpenHour    int // Hour (0-23)
	OpenMinute  int // Minute (0-59)
	CloseHour   int // Hour (0-23)
	CloseMinute int // Minute (0-59)
	Days        map[time.Weekday]bool
}

// Status represents the current status of the market
type Status struct {
	Open     bool   `json:"open"`
	Timezone string `json:"timezone"`
	OpensAt  string `json:"opens_at"`  // Session open, HH:MM in market time
	ClosesAt string `json:"closes_at"` // Session close, HH:MM in market time
}
