package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date layouts seen on the portal, in descending order of frequency.
// "13-Nov-2025 12:00 AM" is the dominant form on detail pages.
var dateLayouts = []string{
	"02-Jan-2006 3:04 PM",
	"02-Jan-2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

var (
	moneyTokenRe = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)
	// Commas, when present, must be proper thousands separators. A
	// half-rendered "1,2" must become null, not 12.
	moneyShapeRe = regexp.MustCompile(`^(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?$`)
	intRe        = regexp.MustCompile(`\d+`)
)

// ParseMoney converts amounts like "PHP 1,375,000.00" to a float. It
// returns nil for empty, non-numeric, or malformed input; it never
// errors, because a single bad amount must not fail a whole record.
func ParseMoney(s string) *float64 {
	tok := moneyTokenRe.FindString(s)
	if tok == "" || !moneyShapeRe.MatchString(tok) {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseDate converts a portal date string to epoch milliseconds (UTC).
// Unknown formats yield nil.
func ParseDate(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			ms := t.UnixMilli()
			return &ms
		}
	}
	return nil
}

// ParseInt extracts the first integer from strings like "120 Day(s)".
func ParseInt(s string) *int64 {
	tok := intRe.FindString(s)
	if tok == "" {
		return nil
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
