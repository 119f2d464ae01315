package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Deadline is a wall-clock time of day that recurs daily.
type Deadline struct {
	Hour   int
	Minute int
}

func NewDeadline(hour, minute int) (Deadline, error) {
	d := Deadline{Hour: hour, Minute: minute}
	if err := d.Validate(); err != nil {
		return Deadline{}, err
	}
	return d, nil
}

// ParseDeadline parses the HH:MM form. Single-digit hours are accepted ("9:05").
func ParseDeadline(s string) (Deadline, error) {
	hourPart, minutePart, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hourPart) < 1 || len(hourPart) > 2 || len(minutePart) != 2 {
		return Deadline{}, newConfigurationError("deadline", ErrInvalidDeadline,
			fmt.Sprintf("expected HH:MM, got %q", s))
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil || !isDigits(hourPart) {
		return Deadline{}, newConfigurationError("deadline", ErrInvalidDeadline,
			fmt.Sprintf("invalid hour %q", hourPart))
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || !isDigits(minutePart) {
		return Deadline{}, newConfigurationError("deadline", ErrInvalidDeadline,
			fmt.Sprintf("invalid minute %q", minutePart))
	}

	return NewDeadline(hour, minute)
}

// isDigits rejects the signs strconv.Atoi would otherwise accept.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (d Deadline) Validate() error {
	if d.Hour < 0 || d.Hour > 23 {
		return newConfigurationError("deadline", ErrInvalidDeadline,
			fmt.Sprintf("hour %d out of range 0-23", d.Hour))
	}
	if d.Minute < 0 || d.Minute > 59 {
		return newConfigurationError("deadline", ErrInvalidDeadline,
			fmt.Sprintf("minute %d out of range 0-59", d.Minute))
	}
	return nil
}

func (d Deadline) String() string {
	return fmt.Sprintf("%02d:%02d", d.Hour, d.Minute)
}

func (d Deadline) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Deadline) UnmarshalText(text []byte) error {
	parsed, err := ParseDeadline(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
