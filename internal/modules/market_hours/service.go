package market_hours

import (
	"fmt"
	"time"
)

// Service provides market hours checking functionality
type Service struct {
	session Session
}

// NewService creates a new market hours service
func NewService(session Session) *Service {
	return &Service{session: session}
}

// DefaultSession returns NYSE regular trading hours (09:30-16:00 ET, Mon-Fri).
// Panics if the tz database is missing America/New_York, which would mean a
// broken runtime environment.
func DefaultSession(timezone string) Session {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		panic(fmt.Sprintf("failed to load market timezone %q: %v", timezone, err))
	}

	return Session{
		Timezone:    loc,
		OpenHour:    9,
		OpenMinute:  30,
		CloseHour:   16,
		CloseMinute: 0,
		Days: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
	}
}

// IsOpen checks if the market is open for trading at t.
// Both the open and close instants count as open.
func (s *Service) IsOpen(t time.Time) bool {
	marketTime := t.In(s.session.Timezone)

	if !s.session.Days[marketTime.Weekday()] {
		return false
	}

	openTime := time.Date(marketTime.Year(), marketTime.Month(), marketTime.Day(),
		s.session.OpenHour, s.session.OpenMinute, 0, 0, s.session.Timezone)
	closeTime := time.Date(marketTime.Year(), marketTime.Month(), marketTime.Day(),
		s.session.CloseHour, s.session.CloseMinute, 0, 0, s.session.Timezone)

	if marketTime.Before(openTime) || marketTime.After(closeTime) {
		return false
	}

	return true
}

// Status reports whether the market is open at t along with the session bounds.
func (s *Service) Status(t time.Time) Status {
	return Status{
		Open:     s.IsOpen(t),
		Timezone: s.session.Timezone.String(),
		OpensAt:  fmt.Sprintf("%02d:%02d", s.session.OpenHour, s.session.OpenMinute),
		ClosesAt: fmt.Sprintf("%02d:%02d", s.session.CloseHour, s.session.CloseMinute),
	}
}
