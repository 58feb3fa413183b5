package core

// convert.go turns raw spreadsheet cells into the typed values a
// BeneficiaryRecord carries.
//
// These functions handle the messy reality of user-provided spreadsheets:
//   - Dates as spreadsheet serial numbers or as text in several layouts
//   - Free-text boolean columns where only "true" means yes
//   - Full names that have to be split into first and last name
//   - Excel formula prefixes (="value") and stray quotes

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DateLayout is the ISO calendar-date form written to the store.
const DateLayout = "2006-01-02"

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "2 January 2006",
		"Mon Jan 2 2006", "Mon, 02 Jan 2006",
		time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "1/2/2006 15:04",
		"20060102",
	}
)

// ToBool is the closed two-value coercion used for every flag column:
// true only when the cell text is "true" in any letter case. Surrounding
// whitespace is not trimmed, so " true " is false, as are "yes", "1" and "".
func ToBool(c Cell) bool {
	if c.IsNumber() {
		return false
	}
	return strings.EqualFold(c.String(), "true")
}

// SplitName splits a full name on whitespace. One token is all first name;
// two tokens are first and last; with more, the last two tokens are the
// last name and everything before them is the first name.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	case 2:
		return parts[0], parts[1]
	default:
		n := len(parts)
		return strings.Join(parts[:n-2], " "), strings.Join(parts[n-2:], " ")
	}
}

// NormalizeDate renders a date cell as YYYY-MM-DD.
//
// Numeric cells are spreadsheet serial day counts (1900 date system) and are
// decomposed into a calendar day without any clock offset. Text cells are
// parsed in UTC so the written calendar day is kept whatever the local zone.
// Empty cells and a numeric 0 yield "". Anything else that cannot be read as
// a date is an error.
func NormalizeDate(c Cell) (string, error) {
	if f, ok := c.Float(); ok {
		return serialToDate(f)
	}

	s := CleanCell(c.String())
	if s == "" {
		return "", nil
	}
	t, ok := ParseDate(s)
	if !ok {
		return "", fmt.Errorf("invalid date format %q", s)
	}
	return t.Format(DateLayout), nil
}

func serialToDate(f float64) (string, error) {
	if f == 0 {
		return "", nil
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("invalid date serial %v", f)
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return "", fmt.Errorf("invalid date serial %v: %w", f, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(DateLayout), nil
}

// ParseDate parses free-text dates in UTC. Four-digit-year layouts are tried
// first; two-digit years are pivoted into the previous century when they
// would land too far in the future.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return dayOf(t), true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return dayOf(t), true
		}
	}

	return time.Time{}, false
}

// dayOf keeps the calendar day as written, dropping time and zone.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	// Remove leading '='
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	// Remove any surrounding quotes
	s = strings.Trim(s, `"'`)

	return s
}
