package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration is a movie running time expressed as hours and minutes.
// Minutes are always kept in [0,60); overflow carries into hours at
// construction time so two Durations describing the same length of
// time compare equal.  The string form is "H:MM" (e.g. "2:35").
type Duration struct {
	Hours   int // whole hours, never negative
	Minutes int // leftover minutes in [0,60)
}

// ErrNegativeDuration is returned when a Duration is constructed from a
// negative hour or minute component.
var ErrNegativeDuration = errors.New("duration components must be non-negative")

// NewDuration builds a normalized Duration from hour and minute
// components.  Minute overflow is carried into hours, so
// NewDuration(2, 75) yields 3:15.  Negative components are rejected.
func NewDuration(hours, minutes int) (Duration, error) {
	if hours < 0 || minutes < 0 {
		return Duration{}, ErrNegativeDuration
	}
	return Duration{
		Hours:   hours + minutes/60,
		Minutes: minutes % 60,
	}, nil
}

// DurationFromMinutes converts a total minute count (as stored in the
// movies table) back into a Duration.  Negative totals are rejected.
func DurationFromMinutes(total int) (Duration, error) {
	return NewDuration(0, total)
}

// ParseDuration parses the "H:MM" string form produced by String.
// The minute part must be two digits and below 60.
func ParseDuration(s string) (Duration, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(m) != 2 {
		return Duration{}, fmt.Errorf("malformed duration %q, want H:MM", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return Duration{}, fmt.Errorf("malformed duration %q: %w", s, err)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil {
		return Duration{}, fmt.Errorf("malformed duration %q: %w", s, err)
	}
	if minutes >= 60 {
		return Duration{}, fmt.Errorf("malformed duration %q: minutes out of range", s)
	}
	return NewDuration(hours, minutes)
}

// String renders the duration as "H:MM".
func (d Duration) String() string {
	return fmt.Sprintf("%d:%02d", d.Hours, d.Minutes)
}

// MarshalJSON renders the duration in its "H:MM" string form, the same
// shape request bodies use.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON parses the "H:MM" string form.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TotalMinutes returns the full length in minutes, used for storage.
func (d Duration) TotalMinutes() int {
	return d.Hours*60 + d.Minutes
}

// Std converts to a time.Duration for schedule arithmetic
// (endDateTime = showDateTime + movie duration).
func (d Duration) Std() time.Duration {
	return time.Duration(d.TotalMinutes()) * time.Minute
}

// Less reports whether d is strictly shorter than other.
func (d Duration) Less(other Duration) bool {
	return d.TotalMinutes() < other.TotalMinutes()
}
