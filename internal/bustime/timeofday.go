package bustime

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time with minute precision, the resolution the
// shuttle timetable works at. The zero value is midnight.
type TimeOfDay struct {
	minutes int // since midnight, always in [0, 1440)
}

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay{minutes: mod1440(hour*60 + minute)}
}

// ParseTimeOfDay accepts "HH:MM" and "HH:MM:SS"; seconds are validated and
// dropped. Anything else, including trailing characters, is rejected.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: want HH:MM or HH:MM:SS", s)
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
		}
		nums[i] = n
	}

	hour, minute := nums[0], nums[1]
	sec := 0
	if len(nums) == 3 {
		sec = nums[2]
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || sec < 0 || sec > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", s)
	}
	return NewTimeOfDay(hour, minute), nil
}

func (t TimeOfDay) Hour() int    { return t.minutes / 60 }
func (t TimeOfDay) Minute() int  { return t.minutes % 60 }
func (t TimeOfDay) Minutes() int { return t.minutes }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) Before(o TimeOfDay) bool { return t.minutes < o.minutes }
func (t TimeOfDay) After(o TimeOfDay) bool  { return t.minutes > o.minutes }

// Add shifts the time by d, wrapping through midnight. The timetable rule
// subtracts its slack as pure time-of-day arithmetic with no date rollover,
// so a 00:10 appointment yields a 23:40 boundary on the same day.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return TimeOfDay{minutes: mod1440(t.minutes + int(d.Minutes()))}
}

func mod1440(m int) int {
	m %= 24 * 60
	if m < 0 {
		m += 24 * 60
	}
	return m
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Scan implements sql.Scanner so TIME columns land here directly.
func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	case time.Time:
		*t = NewTimeOfDay(v.Hour(), v.Minute())
		return nil
	case int64:
		// microseconds since midnight, the binary format of a TIME column
		*t = TimeOfDay{minutes: mod1440(int(v / int64(time.Minute/time.Microsecond)))}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String() + ":00", nil
}
