package domain

import (
	"errors"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// TimeOfDay is a wall-clock time expressed in whole minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (24h clock). "24:00" is accepted as end of day.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("parse time of day %q: out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// On anchors the time of day to the calendar day of date.
func (t TimeOfDay) On(date time.Time) time.Time {
	return DateOf(date).Add(time.Duration(t) * time.Minute)
}

// OperatingWindow is the daily interval during which buses may run.
// Overnight windows are not supported.
type OperatingWindow struct {
	Open  TimeOfDay
	Close TimeOfDay
}

func (w OperatingWindow) Validate() error {
	if w.Open < 0 || w.Close > 24*60 {
		return errors.New("operating window: out of day bounds")
	}
	if w.Close <= w.Open {
		return fmt.Errorf("operating window: close %s must be after open %s", w.Close, w.Open)
	}
	return nil
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return errors.New("date range: start and end are required")
	}
	if DateOf(r.End).Before(DateOf(r.Start)) {
		return fmt.Errorf("date range: end %s is before start %s", FormatDate(r.End), FormatDate(r.Start))
	}
	return nil
}

// Days returns every calendar day in the range, ascending.
func (r DateRange) Days() []time.Time {
	start, end := DateOf(r.Start), DateOf(r.End)
	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func FormatDate(t time.Time) string { return t.Format(dateLayout) }

// ISOWeek identifies an ISO-8601 week.
type ISOWeek struct {
	Year int
	Week int
}

func ISOWeekOf(t time.Time) ISOWeek {
	y, w := t.ISOWeek()
	return ISOWeek{Year: y, Week: w}
}
