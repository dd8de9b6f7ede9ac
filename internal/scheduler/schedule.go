package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Schedule modes
const (
	ModeFixed      = "fixed"
	ModeContinuous = "continuous"
)

// Schedule decides when the next cycle starts.
type Schedule interface {
	// Next returns the first wake time strictly after now.
	Next(now time.Time) time.Time
	String() string
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" in 24-hour form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q (want HH:MM)", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// FixedTimes wakes at the same times every day.
type FixedTimes struct {
	times    []TimeOfDay
	location *time.Location
}

// NewFixedTimes parses and sorts times. A nil location means local time.
func NewFixedTimes(times []string, loc *time.Location) (*FixedTimes, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("fixed schedule needs at least one time")
	}
	if loc == nil {
		loc = time.Local
	}
	parsed := make([]TimeOfDay, 0, len(times))
	for _, s := range times {
		t, err := ParseTimeOfDay(s)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, t)
	}
	sort.Slice(parsed, func(i, j int) bool {
		if parsed[i].Hour != parsed[j].Hour {
			return parsed[i].Hour < parsed[j].Hour
		}
		return parsed[i].Minute < parsed[j].Minute
	})
	return &FixedTimes{times: parsed, location: loc}, nil
}

// Next returns the next configured time of day after now, rolling over to
// tomorrow's first time.
func (f *FixedTimes) Next(now time.Time) time.Time {
	local := now.In(f.location)
	y, m, d := local.Date()
	for day := 0; day < 2; day++ {
		for _, t := range f.times {
			candidate := time.Date(y, m, d+day, t.Hour, t.Minute, 0, 0, f.location)
			if candidate.After(now) {
				return candidate
			}
		}
	}
	// Unreachable: times is never empty.
	return local.Add(24 * time.Hour)
}

func (f *FixedTimes) String() string {
	parts := make([]string, len(f.times))
	for i, t := range f.times {
		parts[i] = t.String()
	}
	return "daily at " + strings.Join(parts, ", ")
}

// Continuous wakes a fixed interval after the previous cycle finished.
type Continuous struct {
	Interval time.Duration
}

// Next returns now plus the interval.
func (c Continuous) Next(now time.Time) time.Time {
	return now.Add(c.Interval)
}

func (c Continuous) String() string {
	return "every " + c.Interval.String()
}

// NewSchedule builds a schedule from configuration values.
func NewSchedule(mode string, times []string, interval time.Duration, loc *time.Location) (Schedule, error) {
	switch mode {
	case ModeFixed:
		return NewFixedTimes(times, loc)
	case ModeContinuous:
		if interval <= 0 {
			return nil, fmt.Errorf("continuous schedule needs a positive interval")
		}
		return Continuous{Interval: interval}, nil
	default:
		return nil, fmt.Errorf("unknown schedule mode %q", mode)
	}
}
