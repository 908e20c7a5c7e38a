package convert

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FloatFromString format
func FloatFromString(raw string) (float64, error) {
	flt, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("unable to parse as float64: %w", err)
	}
	return flt, nil
}

// TimeFromString parses either a unix timestamp in seconds or an RFC3339 /
// date only string
func TimeFromString(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(ts, 0).UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse %q as time", raw)
}

// BoolPtr takes in boolen condition and returns pointer version of it
func BoolPtr(condition bool) *bool {
	b := condition
	return &b
}
