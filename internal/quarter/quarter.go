// Package quarter maps announcement text and dates to Indian fiscal-quarter
// labels (April–March fiscal year, Q<n>FY<yy>).
package quarter

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Latest is returned when neither the text nor the date yields a quarter.
const Latest = "Latest"

var quarterPattern = regexp.MustCompile(`Q([1-4])\s*(?:FY)?\s*(\d{2,4})`)

// Infer derives a canonical quarter label. Explicit Q<n>[FY]<yy> mentions in
// the text win; otherwise a YYYY-MM-DD date (first 10 characters) is mapped to
// the fiscal calendar. Malformed input never fails, it falls through to Latest.
func Infer(text, date string) string {
	if m := quarterPattern.FindStringSubmatch(strings.ToUpper(text)); m != nil {
		yr := m[2]
		if len(yr) == 2 {
			yr = "20" + yr
		}
		return fmt.Sprintf("Q%sFY%s", m[1], yr[len(yr)-2:])
	}

	if len(date) >= 10 {
		if dt, err := time.Parse("2006-01-02", date[:10]); err == nil {
			return fromDate(dt)
		}
	}

	return Latest
}

func fromDate(dt time.Time) string {
	yr := dt.Year()
	switch dt.Month() {
	case time.April, time.May, time.June:
		return fmt.Sprintf("Q1FY%02d", (yr+1)%100)
	case time.July, time.August, time.September:
		return fmt.Sprintf("Q2FY%02d", (yr+1)%100)
	case time.October, time.November, time.December:
		return fmt.Sprintf("Q3FY%02d", (yr+1)%100)
	default:
		return fmt.Sprintf("Q4FY%02d", yr%100)
	}
}
