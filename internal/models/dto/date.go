package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date accepts either YYYY-MM-DD or an RFC3339 timestamp and normalizes to UTC.
type Date struct {
	time.Time
	// DateOnly is set when the value carried no time of day.
	DateOnly bool
}

// End is the value to use as an inclusive upper bound: a date-only value
// covers its whole day.
func (d Date) End() time.Time {
	if d.DateOnly {
		return EndOfDay(d.Time)
	}
	return d.Time
}

// ParseDate parses the formats accepted by Date.
func ParseDate(raw string) (time.Time, error) {
	t, _, err := parseDate(raw)
	return t, err
}

// ParseEndDate is ParseDate with a date-only value moved to the last
// instant of that day, so the day itself stays inside an inclusive range.
func ParseEndDate(raw string) (time.Time, error) {
	t, dateOnly, err := parseDate(raw)
	if err != nil || !dateOnly {
		return t, err
	}
	return EndOfDay(t), nil
}

// EndOfDay returns the last microsecond of t's UTC day. Microseconds match
// the precision Postgres keeps for timestamptz.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC).Add(-time.Microsecond)
}

func parseDate(raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC3339", raw)
	}
	return t.UTC(), false, nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, dateOnly, err := parseDate(raw)
	if err != nil {
		return err
	}
	d.Time, d.DateOnly = t, dateOnly
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339))
}
