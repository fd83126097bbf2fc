package nutrition

import "time"

// Calendar answers "is this the same local day" questions in a single
// location. Entries carry no timezone of their own; every day comparison goes
// through the calendar's location.
type Calendar struct {
	Loc *time.Location
}

func (c Calendar) location() *time.Location {
	if c.Loc == nil {
		return time.Local
	}
	return c.Loc
}

// StartOfDay truncates t to local midnight.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.location())
}

// SameDay reports whether a and b fall on the same local calendar date.
func (c Calendar) SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(c.location()).Date()
	by, bm, bd := b.In(c.location()).Date()
	return ay == by && am == bm && ad == bd
}

// AddDays moves by whole calendar days from local midnight. AddDate keeps this
// correct across DST transitions where a day is not 24h.
func (c Calendar) AddDays(t time.Time, days int) time.Time {
	return c.StartOfDay(t).AddDate(0, 0, days)
}

// DayKey formats t as YYYY-MM-DD in the calendar's location.
func (c Calendar) DayKey(t time.Time) string {
	return t.In(c.location()).Format("2006-01-02")
}

// ParseDay parses YYYY-MM-DD as local midnight.
func (c Calendar) ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, c.location())
}
