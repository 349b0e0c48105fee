// Package core holds the ledger domain types and the calendar-month range
// rules shared by storage queries and budget allocations.
package core

import "fmt"

// Order selects the date direction of a month listing. The id tie-break is
// always ascending regardless of Order, so rows sharing a date come back in
// insertion order.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// MonthRange returns the half-open interval [start, end) covering the given
// calendar month as zero-padded YYYY-MM-DD strings. December rolls the end
// bound over to January 1st of the next year. Because dates are stored
// zero-padded, string comparison against these bounds equals chronological
// comparison, and the open end excludes next-month-01 without any
// days-in-month arithmetic.
func MonthRange(year, month int) (start, end string, err error) {
	if month < 1 || month > 12 {
		return "", "", ErrInvalidMonth
	}
	start = fmt.Sprintf("%04d-%02d-01", year, month)
	ny, nm := year, month+1
	if month == 12 {
		ny, nm = year+1, 1
	}
	end = fmt.Sprintf("%04d-%02d-01", ny, nm)
	return start, end, nil
}

// YearRange returns the half-open interval [Jan 1st, next Jan 1st) for a year.
func YearRange(year int) (start, end string) {
	return fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-01-01", year+1)
}

// BudgetMonth formats a (year, month) pair as the YYYY-MM key used by
// budget allocations.
func BudgetMonth(year, month int) (string, error) {
	if month < 1 || month > 12 {
		return "", ErrInvalidMonth
	}
	return fmt.Sprintf("%04d-%02d", year, month), nil
}

// ValidateDate checks that a date string is zero-padded YYYY-MM-DD with a
// plausible month and day. Stored dates must sort lexicographically in
// chronological order, so the shape is part of the contract, not cosmetics.
func ValidateDate(date string) error {
	if len(date) != 10 || date[4] != '-' || date[7] != '-' {
		return ErrInvalidDate
	}
	for i, r := range date {
		if i == 4 || i == 7 {
			continue
		}
		if r < '0' || r > '9' {
			return ErrInvalidDate
		}
	}
	month := int(date[5]-'0')*10 + int(date[6]-'0')
	day := int(date[8]-'0')*10 + int(date[9]-'0')
	if month < 1 || month > 12 {
		return ErrInvalidDate
	}
	if day < 1 || day > 31 {
		return ErrInvalidDate
	}
	return nil
}

// ValidateBudgetMonth checks the YYYY-MM shape of an allocation month key.
func ValidateBudgetMonth(month string) error {
	if len(month) != 7 || month[4] != '-' {
		return ErrInvalidBudgetMonth
	}
	for i, r := range month {
		if i == 4 {
			continue
		}
		if r < '0' || r > '9' {
			return ErrInvalidBudgetMonth
		}
	}
	m := int(month[5]-'0')*10 + int(month[6]-'0')
	if m < 1 || m > 12 {
		return ErrInvalidBudgetMonth
	}
	return nil
}
