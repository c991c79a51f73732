package server

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var errInvalidTime = errors.New("invalid_time")

// Query helpers treat a blank value as "not given".

func parseOptionalBool(raw string) (*bool, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func parseOptionalInt(raw string) (int, error) {
	if v := strings.TrimSpace(raw); v != "" {
		return strconv.Atoi(v)
	}
	return 0, nil
}

// parseOptionalTime accepts RFC 3339 or a bare date. A bare date is the
// start of that UTC day, or its last instant when endOfDay is set.
func parseOptionalTime(raw string, endOfDay bool) (*time.Time, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	day, err := time.ParseInLocation(time.DateOnly, v, time.UTC)
	if err != nil {
		return nil, errInvalidTime
	}
	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &day, nil
}
