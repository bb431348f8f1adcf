package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Timestamps are stored as RFC3339 text so the pure-Go sqlite driver
// round-trips them without driver-specific conversions.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// validID reports whether s is a syntactically valid record identity.
func validID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// isUniqueViolation detects a UNIQUE index violation from the sqlite driver.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
