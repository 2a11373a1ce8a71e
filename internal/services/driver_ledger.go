package services

import (
	"time"
	"trip-scheduler-service/internal/domain"
)

// LaborPolicy holds the daily ceilings in minutes and the weekly allowance of
// extended days.
type LaborPolicy struct {
	StandardDayMinutes     int
	ExtendedDayMinutes     int
	MaxExtendedDaysPerWeek int
}

func DefaultLaborPolicy() LaborPolicy {
	return LaborPolicy{
		StandardDayMinutes:     8 * 60,
		ExtendedDayMinutes:     10 * 60,
		MaxExtendedDaysPerWeek: 2,
	}
}

func laborPolicyFrom(s domain.CooperativeSettings) LaborPolicy {
	p := DefaultLaborPolicy()
	if s.StandardDayHours > 0 {
		p.StandardDayMinutes = s.StandardDayHours * 60
	}
	if s.ExtendedDayHours > 0 {
		p.ExtendedDayMinutes = s.ExtendedDayHours * 60
	}
	if s.MaxExtendedDaysPerWeek > 0 {
		p.MaxExtendedDaysPerWeek = s.MaxExtendedDaysPerWeek
	}
	return p
}

type driverWeek struct {
	week         domain.ISOWeek
	extendedDays int
}

// DriverWeeklyLedger tracks extended (> standard) working days per driver and
// ISO week. It belongs to a single scheduling run and is not safe for
// concurrent use.
type DriverWeeklyLedger struct {
	policy LaborPolicy
	weeks  map[string]driverWeek
}

func NewDriverWeeklyLedger(policy LaborPolicy) *DriverWeeklyLedger {
	return &DriverWeeklyLedger{
		policy: policy,
		weeks:  make(map[string]driverWeek),
	}
}

// Seed loads a driver's persisted counter. It only counts for the ISO week
// it was recorded in.
func (l *DriverWeeklyLedger) Seed(d domain.Driver) {
	if d.DriverID == "" || d.ISOWeek == 0 {
		return
	}
	l.weeks[d.DriverID] = driverWeek{
		week:         domain.ISOWeek{Year: d.ISOYear, Week: d.ISOWeek},
		extendedDays: d.ExtendedDaysThisWeek,
	}
}

func (l *DriverWeeklyLedger) current(driverID string, date time.Time) driverWeek {
	week := domain.ISOWeekOf(date)
	w, ok := l.weeks[driverID]
	if !ok || w.week != week {
		w = driverWeek{week: week}
		l.weeks[driverID] = w
	}
	return w
}

// ExtendedDays returns how many extended days the driver has used in the
// ISO week of date.
func (l *DriverWeeklyLedger) ExtendedDays(driverID string, date time.Time) int {
	return l.current(driverID, date).extendedDays
}

// CeilingMinutes is the driver's working ceiling for date: the extended
// ceiling while allowance remains, the standard one once it is exhausted.
func (l *DriverWeeklyLedger) CeilingMinutes(driverID string, date time.Time) int {
	if l.ExtendedDays(driverID, date) < l.policy.MaxExtendedDaysPerWeek {
		return l.policy.ExtendedDayMinutes
	}
	return l.policy.StandardDayMinutes
}

// RecordDay registers a worked day. It reports whether the day counted as
// extended. Counts above the allowance are kept; callers treat them as
// exhausted.
func (l *DriverWeeklyLedger) RecordDay(driverID string, date time.Time, workedMinutes int) bool {
	if workedMinutes <= l.policy.StandardDayMinutes {
		return false
	}
	w := l.current(driverID, date)
	w.extendedDays++
	l.weeks[driverID] = w
	return true
}

// ResetWeek starts week for every tracked driver.
func (l *DriverWeeklyLedger) ResetWeek(week domain.ISOWeek) {
	for id, w := range l.weeks {
		if w.week != week {
			l.weeks[id] = driverWeek{week: week}
		}
	}
}
