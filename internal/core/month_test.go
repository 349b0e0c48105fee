package core

import (
	"errors"
	"testing"
)

func TestMonthRange(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     int
		wantStart string
		wantEnd   string
		wantErr   error
	}{
		{
			name:      "mid year",
			year:      2024,
			month:     3,
			wantStart: "2024-03-01",
			wantEnd:   "2024-04-01",
		},
		{
			name:      "december rolls over to next january",
			year:      2024,
			month:     12,
			wantStart: "2024-12-01",
			wantEnd:   "2025-01-01",
		},
		{
			name:      "january",
			year:      2023,
			month:     1,
			wantStart: "2023-01-01",
			wantEnd:   "2023-02-01",
		},
		{
			name:      "single digit month is zero padded",
			year:      2024,
			month:     9,
			wantStart: "2024-09-01",
			wantEnd:   "2024-10-01",
		},
		{
			name:    "month zero",
			year:    2024,
			month:   0,
			wantErr: ErrInvalidMonth,
		},
		{
			name:    "month thirteen",
			year:    2024,
			month:   13,
			wantErr: ErrInvalidMonth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := MonthRange(tt.year, tt.month)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("MonthRange(%d, %d) error = %v, want %v", tt.year, tt.month, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("MonthRange(%d, %d) unexpected error: %v", tt.year, tt.month, err)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("MonthRange(%d, %d) = [%s, %s), want [%s, %s)", tt.year, tt.month, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestMonthRangeIsHalfOpen(t *testing.T) {
	start, end, err := MonthRange(2024, 2)
	if err != nil {
		t.Fatal(err)
	}

	// Boundary dates of the month fall inside [start, end); the first day
	// of the next month does not. Leap day included.
	inside := []string{"2024-02-01", "2024-02-15", "2024-02-29"}
	for _, d := range inside {
		if !(d >= start && d < end) {
			t.Errorf("date %s should be inside [%s, %s)", d, start, end)
		}
	}
	outside := []string{"2024-01-31", "2024-03-01"}
	for _, d := range outside {
		if d >= start && d < end {
			t.Errorf("date %s should be outside [%s, %s)", d, start, end)
		}
	}
}

func TestYearRange(t *testing.T) {
	start, end := YearRange(2024)
	if start != "2024-01-01" || end != "2025-01-01" {
		t.Errorf("YearRange(2024) = [%s, %s), want [2024-01-01, 2025-01-01)", start, end)
	}
}

func TestBudgetMonth(t *testing.T) {
	got, err := BudgetMonth(2024, 7)
	if err != nil {
		t.Fatal(err)
	}
	if got != "2024-07" {
		t.Errorf("BudgetMonth(2024, 7) = %s, want 2024-07", got)
	}
	if _, err := BudgetMonth(2024, 0); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("BudgetMonth(2024, 0) error = %v, want %v", err, ErrInvalidMonth)
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		date    string
		wantErr bool
	}{
		{"2024-03-15", false},
		{"2024-12-31", false},
		{"2024-01-01", false},
		{"2024-3-15", true},   // not zero padded
		{"24-03-15", true},    // short year
		{"2024-13-01", true},  // month out of range
		{"2024-00-10", true},  // month zero
		{"2024-03-00", true},  // day zero
		{"2024-03-32", true},  // day out of range
		{"2024/03/15", true},  // wrong separators
		{"2024-03-15x", true}, // trailing garbage
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			err := ValidateDate(tt.date)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDate(%q) error = %v, wantErr %v", tt.date, err, tt.wantErr)
			}
		})
	}
}

func TestValidateBudgetMonth(t *testing.T) {
	tests := []struct {
		month   string
		wantErr bool
	}{
		{"2024-07", false},
		{"2024-12", false},
		{"2024-13", true},
		{"2024-0", true},
		{"2024-007", true},
		{"202407", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			err := ValidateBudgetMonth(tt.month)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBudgetMonth(%q) error = %v, wantErr %v", tt.month, err, tt.wantErr)
			}
		})
	}
}
