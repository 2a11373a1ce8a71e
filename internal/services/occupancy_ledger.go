package services

import (
	"fmt"
	"slices"
	"time"
	"trip-scheduler-service/internal/domain"
)

// SlotMinutes is the width of a terminal departure slot.
const SlotMinutes = 15

const slotsPerDay = 24 * 60 / SlotMinutes

// Preferred and rush-hour bands, as slot ranges [from, to).
var (
	preferredBands = [][2]int{{9 * 4, 11 * 4}, {13 * 4, 15 * 4}}
	rushBands      = [][2]int{{6 * 4, 8 * 4}, {17 * 4, 19 * 4}}
)

const (
	spareWeight   = 10
	preferredGain = 5
	rushPenalty   = 5
)

// SlotOf returns the slot index containing t.
func SlotOf(t time.Time) int {
	return (t.Hour()*60 + t.Minute()) / SlotMinutes
}

// SlotStart returns the instant slot begins on date.
func SlotStart(date time.Time, slot int) time.Time {
	return domain.DateOf(date).Add(time.Duration(slot*SlotMinutes) * time.Minute)
}

type occupancyKey struct {
	terminalID string
	date       time.Time
	slot       int
}

// SlotSuggestion is a ranked departure slot.
type SlotSuggestion struct {
	Slot     int
	StartsAt time.Time
	Occupied int
	Spare    int
	Score    int
}

// TerminalOccupancyLedger counts departures per terminal, day and 15-minute
// slot against the terminal's stands. Entries are removed when they drop to
// zero. Not safe for concurrent use.
type TerminalOccupancyLedger struct {
	stands map[string]int
	counts map[occupancyKey]int
}

func NewTerminalOccupancyLedger(terminals []domain.Terminal) *TerminalOccupancyLedger {
	stands := make(map[string]int, len(terminals))
	for _, t := range terminals {
		stands[t.TerminalID] = t.Stands
	}
	return &TerminalOccupancyLedger{
		stands: stands,
		counts: make(map[occupancyKey]int),
	}
}

func (l *TerminalOccupancyLedger) key(terminalID string, date time.Time, slot int) occupancyKey {
	return occupancyKey{terminalID: terminalID, date: domain.DateOf(date), slot: slot}
}

func (l *TerminalOccupancyLedger) capacity(terminalID string) (int, error) {
	stands, ok := l.stands[terminalID]
	if !ok {
		return 0, fmt.Errorf("terminal %s: %w", terminalID, domain.ErrUnknownTerminal)
	}
	return stands, nil
}

// Load adds persisted slot counts for a terminal and day.
func (l *TerminalOccupancyLedger) Load(terminalID string, date time.Time, counts map[int]int) {
	for slot, n := range counts {
		if n > 0 {
			l.counts[l.key(terminalID, date, slot)] += n
		}
	}
}

func (l *TerminalOccupancyLedger) Count(terminalID string, date time.Time, slot int) int {
	return l.counts[l.key(terminalID, date, slot)]
}

func (l *TerminalOccupancyLedger) HasCapacity(terminalID string, date time.Time, slot int) (bool, error) {
	stands, err := l.capacity(terminalID)
	if err != nil {
		return false, err
	}
	return l.Count(terminalID, date, slot) < stands, nil
}

// Reserve takes one stand in the slot.
func (l *TerminalOccupancyLedger) Reserve(terminalID string, date time.Time, slot int) error {
	ok, err := l.HasCapacity(terminalID, date, slot)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("terminal %s slot %d on %s: %w", terminalID, slot, domain.FormatDate(date), domain.ErrCapacityExceeded)
	}
	l.counts[l.key(terminalID, date, slot)]++
	return nil
}

// Release frees one stand. Releasing an empty slot is a no-op. Strict
// scheduling reserves before checking the window and releases on failure.
func (l *TerminalOccupancyLedger) Release(terminalID string, date time.Time, slot int) {
	k := l.key(terminalID, date, slot)
	n := l.counts[k]
	if n <= 1 {
		delete(l.counts, k)
		return
	}
	l.counts[k] = n - 1
}

// NextFreeSlot returns the first slot at or after from, within window, with a
// free stand.
func (l *TerminalOccupancyLedger) NextFreeSlot(terminalID string, date time.Time, from int, window domain.OperatingWindow) (int, bool, error) {
	stands, err := l.capacity(terminalID)
	if err != nil {
		return 0, false, err
	}
	for slot := max(from, firstSlot(window)); slot <= lastSlot(window); slot++ {
		if l.Count(terminalID, date, slot) < stands {
			return slot, true, nil
		}
	}
	return 0, false, nil
}

// SuggestBestSlots ranks the slots of window that still have a free stand.
// Spare capacity dominates; preferred bands gain and rush-hour bands lose a
// little. Ties go to the earlier slot. limit <= 0 returns all of them.
func (l *TerminalOccupancyLedger) SuggestBestSlots(terminalID string, date time.Time, window domain.OperatingWindow, limit int) ([]SlotSuggestion, error) {
	stands, err := l.capacity(terminalID)
	if err != nil {
		return nil, err
	}

	out := make([]SlotSuggestion, 0, slotsPerDay)
	for slot := firstSlot(window); slot <= lastSlot(window); slot++ {
		occupied := l.Count(terminalID, date, slot)
		spare := stands - occupied
		if spare <= 0 {
			continue
		}
		out = append(out, SlotSuggestion{
			Slot:     slot,
			StartsAt: SlotStart(date, slot),
			Occupied: occupied,
			Spare:    spare,
			Score:    slotScore(slot, spare),
		})
	}

	slices.SortStableFunc(out, func(a, b SlotSuggestion) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return a.Slot - b.Slot
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func slotScore(slot, spare int) int {
	score := spare * spareWeight
	if inBands(slot, preferredBands) {
		score += preferredGain
	}
	if inBands(slot, rushBands) {
		score -= rushPenalty
	}
	return score
}

func inBands(slot int, bands [][2]int) bool {
	for _, b := range bands {
		if slot >= b[0] && slot < b[1] {
			return true
		}
	}
	return false
}

func firstSlot(w domain.OperatingWindow) int {
	return int(w.Open) / SlotMinutes
}

// lastSlot is the last slot starting strictly before close.
func lastSlot(w domain.OperatingWindow) int {
	return (int(w.Close) - 1) / SlotMinutes
}
