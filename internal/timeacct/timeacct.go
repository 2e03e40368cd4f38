package timeacct

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Zone renders UTC instants as wall-clock strings of the reporting timezone.
type Zone struct {
	loc *time.Location
}

// LoadZone loads a reporting timezone by IANA name.
func LoadZone(name string) (*Zone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return &Zone{loc: loc}, nil
}

// NewZone wraps an already loaded location.
func NewZone(loc *time.Location) *Zone {
	return &Zone{loc: loc}
}

// Location returns the underlying location.
func (z *Zone) Location() *time.Location {
	return z.loc
}

// Date returns the reporting-zone calendar date of t.
func (z *Zone) Date(t time.Time) string {
	return t.In(z.loc).Format(DateLayout)
}

// Clock returns the reporting-zone wall-clock time of t.
func (z *Zone) Clock(t time.Time) string {
	return t.In(z.loc).Format(TimeLayout)
}

// Parse converts a reporting-zone date and clock back into a UTC instant.
func (z *Zone) Parse(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, z.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %q %q: %w", date, clock, err)
	}
	return t.UTC(), nil
}

// FormatHMS renders d as hh:mm:ss. Hours are not wrapped at 24, sub-second
// precision is truncated and negative durations render as zero.
func FormatHMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Ledgers written by the earlier bot carry Python timedelta text, e.g. "1 day, 2:03:04.5".
var daysPrefixRe = regexp.MustCompile(`^(-?\d+) days?, (.+)$`)

// ParseHMS parses hh:mm:ss text, tolerating a day prefix and fractional seconds.
// Negative durations are rejected.
func ParseHMS(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var days int64
	if m := daysPrefixRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid day count in %q: %w", s, err)
		}
		days = n
		s = m[2]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q: expected hh:mm:ss", s)
	}
	h, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q: %w", s, err)
	}
	m, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q: %w", s, err)
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q: %w", s, err)
	}

	total := time.Duration(days)*24*time.Hour +
		time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second))
	if total < 0 || days < 0 || strings.Contains(s, "-") {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return total, nil
}
