package domain

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "05:00", want: 300},
		{in: "22:30", want: 1350},
		{in: "24:00", want: 1440},
		{in: "24:01", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("ParseTimeOfDay(%q) = %d, want %d", tc.in, got, tc.want)
			}
			if tc.in != "24:00" && got.String() != tc.in {
				t.Fatalf("String() = %q, want %q", got.String(), tc.in)
			}
		})
	}
}

func TestDateRangeDays(t *testing.T) {
	r := DateRange{
		Start: time.Date(2026, 3, 30, 15, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 4, 2, 1, 0, 0, 0, time.UTC),
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	days := r.Days()
	if len(days) != 4 {
		t.Fatalf("expected 4 days, got %d", len(days))
	}
	if FormatDate(days[0]) != "2026-03-30" || FormatDate(days[3]) != "2026-04-02" {
		t.Fatalf("unexpected bounds: %s .. %s", FormatDate(days[0]), FormatDate(days[3]))
	}

	inverted := DateRange{Start: r.End, End: r.Start}
	if err := inverted.Validate(); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestOperatingWindowValidate(t *testing.T) {
	if err := (OperatingWindow{Open: 300, Close: 1320}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (OperatingWindow{Open: 1320, Close: 300}).Validate(); err == nil {
		t.Fatal("expected error for overnight window")
	}
}

func TestTimeOfDayOn(t *testing.T) {
	day := time.Date(2026, 1, 5, 13, 45, 0, 0, time.UTC)
	got := TimeOfDay(330).On(day)
	want := time.Date(2026, 1, 5, 5, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("On() = %v, want %v", got, want)
	}
}
