package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDeadline         = errors.New("invalid deadline")
	ErrNegativeTravel          = errors.New("travel duration must not be negative")
	ErrNotificationUnavailable = errors.New("notification unavailable")
	ErrNotificationDuplicate   = errors.New("notification already delivered")
	ErrTimerNotFound           = errors.New("timer not found")
	ErrTimerStopped            = errors.New("timer stopped")
	ErrInvalidRoute            = errors.New("invalid route request")
)

// ConfigurationError reports timer input rejected at construction or update.
type ConfigurationError struct {
	Field  string
	Err    error
	Detail string
}

func newConfigurationError(field string, err error, detail string) *ConfigurationError {
	return &ConfigurationError{Field: field, Err: err, Detail: detail}
}

func (e *ConfigurationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Field, e.Err, e.Detail)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err was caused by invalid timer input.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
