package services

import (
	"errors"
	"testing"
	"trip-scheduler-service/internal/domain"
)

func testWindow(open, close string) domain.OperatingWindow {
	o, err := domain.ParseTimeOfDay(open)
	if err != nil {
		panic(err)
	}
	c, err := domain.ParseTimeOfDay(close)
	if err != nil {
		panic(err)
	}
	return domain.OperatingWindow{Open: o, Close: c}
}

func TestOccupancyReserveRelease(t *testing.T) {
	d := day("2025-03-03")
	l := NewTerminalOccupancyLedger([]domain.Terminal{{TerminalID: "T1", Stands: 2}})

	for i := 0; i < 2; i++ {
		if err := l.Reserve("T1", d, 20); err != nil {
			t.Fatalf("reserve %d: %v", i, err)
		}
	}
	if ok, _ := l.HasCapacity("T1", d, 20); ok {
		t.Fatalf("slot should be full")
	}
	if err := l.Reserve("T1", d, 20); !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	if got := l.Count("T1", d, 20); got != 2 {
		t.Fatalf("count after failed reserve = %d", got)
	}

	l.Release("T1", d, 20)
	l.Release("T1", d, 20)
	l.Release("T1", d, 20)
	if got := l.Count("T1", d, 20); got != 0 {
		t.Fatalf("count after release = %d", got)
	}
	if len(l.counts) != 0 {
		t.Fatalf("empty slots must be removed, have %d entries", len(l.counts))
	}
}

func TestOccupancyUnknownTerminal(t *testing.T) {
	l := NewTerminalOccupancyLedger(nil)
	if _, err := l.HasCapacity("nope", day("2025-03-03"), 0); !errors.Is(err, domain.ErrUnknownTerminal) {
		t.Fatalf("err = %v", err)
	}
	if err := l.Reserve("nope", day("2025-03-03"), 0); !errors.Is(err, domain.ErrUnknownTerminal) {
		t.Fatalf("err = %v", err)
	}
}

func TestOccupancyNextFreeSlot(t *testing.T) {
	d := day("2025-03-03")
	w := testWindow("05:00", "06:00")
	l := NewTerminalOccupancyLedger([]domain.Terminal{{TerminalID: "T1", Stands: 1}})
	l.Load("T1", d, map[int]int{20: 1, 21: 1})

	slot, ok, err := l.NextFreeSlot("T1", d, 20, w)
	if err != nil || !ok || slot != 22 {
		t.Fatalf("NextFreeSlot = %d, %v, %v; want 22", slot, ok, err)
	}

	if _, ok, _ := l.NextFreeSlot("T1", d, 24, w); ok {
		t.Fatalf("a slot past the window must not wrap back into it")
	}

	l.Load("T1", d, map[int]int{22: 1, 23: 1})
	if _, ok, _ := l.NextFreeSlot("T1", d, 20, w); ok {
		t.Fatalf("window is full, expected no slot")
	}
}

func TestSuggestBestSlots(t *testing.T) {
	d := day("2025-03-03")
	l := NewTerminalOccupancyLedger([]domain.Terminal{{TerminalID: "T1", Stands: 2}})

	// 10:00 is preferred, 07:00 is rush hour, 12:00 is neutral.
	ten, seven, noon := 40, 28, 48
	l.Load("T1", d, map[int]int{ten: 1})

	got, err := l.SuggestBestSlots("T1", d, testWindow("05:00", "22:00"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 68 {
		t.Fatalf("suggestions = %d, want 68 slots in 05:00-22:00", len(got))
	}

	score := make(map[int]int, len(got))
	for _, s := range got {
		score[s.Slot] = s.Score
	}
	if score[noon] != 20 || score[seven] != 15 || score[ten] != 15 {
		t.Fatalf("scores noon=%d seven=%d ten=%d", score[noon], score[seven], score[ten])
	}
	if got[0].Slot != 36 || got[0].Score != 25 || got[0].StartsAt.Format("15:04") != "09:00" {
		t.Fatalf("best slot = %+v, want 09:00 with score 25", got[0])
	}

	top, _ := l.SuggestBestSlots("T1", d, testWindow("05:00", "22:00"), 3)
	if len(top) != 3 || top[0].Slot != 36 || top[1].Slot != 37 || top[2].Slot != 38 {
		t.Fatalf("top 3 = %+v", top)
	}
}

func TestSuggestBestSlotsSkipsFullSlots(t *testing.T) {
	d := day("2025-03-03")
	l := NewTerminalOccupancyLedger([]domain.Terminal{{TerminalID: "T1", Stands: 1}})
	l.Load("T1", d, map[int]int{20: 1})

	got, err := l.SuggestBestSlots("T1", d, testWindow("05:00", "05:30"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Slot != 21 {
		t.Fatalf("suggestions = %+v", got)
	}
}
