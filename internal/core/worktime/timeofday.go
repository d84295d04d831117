package worktime

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// TimeOfDay is a wall-clock time stored as seconds since midnight.
type TimeOfDay int32

func NewTimeOfDay(hour, minute, second int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, fmt.Errorf("time of day %02d:%02d:%02d out of range", hour, minute, second)
	}
	return TimeOfDay(hour*3600 + minute*60 + second), nil
}

func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// TimeOfDayOf takes the wall-clock reading of t in t's own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// ParseTimeOfDay accepts "HH:MM" and "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM or HH:MM:SS", s)
	}
	values := make([]int, 3)
	for i, p := range parts {
		if len(p) != 2 {
			return 0, fmt.Errorf("invalid time %q, expected HH:MM or HH:MM:SS", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid time %q, expected HH:MM or HH:MM:SS", s)
		}
		values[i] = n
	}
	return NewTimeOfDay(values[0], values[1], values[2])
}

func (t TimeOfDay) Hour() int { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

// String renders HH:MM, or HH:MM:SS when seconds are set.
func (t TimeOfDay) String() string {
	if t.Second() == 0 {
		return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second()), nil
}

func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return t.scanString(v)
	case []byte:
		return t.scanString(string(v))
	case time.Time:
		*t = TimeOfDayOf(v)
		return nil
	case int64:
		if v < 0 || v >= secondsPerDay {
			return fmt.Errorf("time of day %d seconds out of range", v)
		}
		*t = TimeOfDay(v)
		return nil
	case nil:
		*t = 0
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

func (t *TimeOfDay) scanString(s string) error {
	// postgres TIME may carry fractional seconds
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Hours is the length of [start, end) in hours. An inverted span counts as
// zero.
func Hours(start, end TimeOfDay) float64 {
	if end <= start {
		return 0
	}
	return float64(end-start) / 3600
}

// FormatElapsed renders a second counter as zero-padded HH:MM:SS. Hours
// keep growing past 99.
func FormatElapsed(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}
