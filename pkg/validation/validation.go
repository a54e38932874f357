package validation

import (
	"regexp"
	"strings"
	"time"
)

// RunDateLayout is the calendar-date layout used for daily run keys
const RunDateLayout = "2006-01-02"

var (
	emailRegex       = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	stationCodeRegex = regexp.MustCompile(`^[A-Z0-9]{3,4}$`)
	authorKeyRegex   = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
)

// IsValidEmail validates email format
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

// IsValidStationCode accepts NWS office/station identifiers such as BOU or KDEN
func IsValidStationCode(code string) bool {
	return stationCodeRegex.MatchString(code)
}

// IsValidAuthorKey accepts lowercase catalog keys such as hemingway or oconnor
func IsValidAuthorKey(key string) bool {
	return authorKeyRegex.MatchString(key)
}

// IsValidRunDate checks a YYYY-MM-DD calendar date
func IsValidRunDate(date string) bool {
	_, err := time.Parse(RunDateLayout, date)
	return err == nil
}

// TrimAndValidate trims string and validates it's not empty
func TrimAndValidate(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	return trimmed, trimmed != ""
}
