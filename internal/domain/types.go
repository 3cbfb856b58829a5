package domain

import "time"

// Period is an inclusive calendar-date range used by the reports.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// DefaultPeriod returns first-of-month .. today for the given instant.
func DefaultPeriod(now time.Time) Period {
	y, m, d := now.Date()
	loc := now.Location()
	return Period{
		From: time.Date(y, m, 1, 0, 0, 0, 0, loc),
		To:   time.Date(y, m, d, 0, 0, 0, 0, loc),
	}
}

// LastDays returns the range [today-days, today].
func LastDays(now time.Time, days int) Period {
	if days < 0 {
		days = 0
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return Period{From: today.AddDate(0, 0, -days), To: today}
}

// Bounds returns the half-open [from, to+1 day) range used to filter timestamp columns.
func (p Period) Bounds() (time.Time, time.Time) {
	return p.From, p.To.AddDate(0, 0, 1)
}
