package forwards

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// parseFlexibleDate accepts the date shapes that show up in bank and ERP
// extracts: ISO variants, dd/mm and mm/dd forms, month names, yyyymmdd
// digit runs, unix epochs at several precisions, and Excel serial numbers.
func parseFlexibleDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	dateStr = whitespaceRe.ReplaceAllString(dateStr, " ")
	layouts := []string{
		"2006-01-02",
		"2006/01/02",
		"2006.01.02",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05.000Z",
		"02-01-2006",
		"02/01/2006",
		"02.01.2006",
		"01-02-2006",
		"01/02/2006",
		"01.02.2006",
		"02-Jan-2006",
		"2-Jan-2006",
		"02 Jan 2006",
		"Jan 02, 2006",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, dateStr); err == nil {
			if y := t.Year(); y >= 1900 && y <= 9999 {
				return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
			}
		}
	}

	digits := true
	for _, r := range dateStr {
		if r < '0' || r > '9' {
			digits = false
			break
		}
	}
	if digits {
		if len(dateStr) == 8 {
			y, err1 := strconv.Atoi(dateStr[0:4])
			m, err2 := strconv.Atoi(dateStr[4:6])
			d, err3 := strconv.Atoi(dateStr[6:8])
			if err1 == nil && err2 == nil && err3 == nil && y >= 1900 && y <= 9999 {
				return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), nil
			}
		}
		if v, err := strconv.ParseInt(dateStr, 10, 64); err == nil {
			var t time.Time
			switch {
			case v >= 1e17:
				t = time.Unix(0, v)
			case v >= 1e14:
				t = time.Unix(0, v*1000)
			case v >= 1e11:
				t = time.Unix(0, v*1000000)
			case v >= 1e9:
				t = time.Unix(v, 0)
			default:
				// Excel serial day number
				base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
				t = base.AddDate(0, 0, int(v))
			}
			if y := t.Year(); y >= 1900 && y <= 9999 {
				return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", dateStr)
}

// daysToMaturity returns the whole days between deal date and maturity,
// rounding partial days up. When either date fails to parse it falls back
// to the value supplied in the upload row.
func daysToMaturity(dealDateStr, maturityDateStr string, fallback interface{}) int {
	dealDate, err1 := parseFlexibleDate(dealDateStr)
	maturityDate, err2 := parseFlexibleDate(maturityDateStr)
	if err1 == nil && err2 == nil {
		return int(math.Ceil(maturityDate.Sub(dealDate).Hours() / 24))
	}
	switch t := fallback.(type) {
	case int:
		return t
	case float64:
		return int(t)
	case string:
		v, _ := strconv.Atoi(t)
		return v
	}
	return 0
}
