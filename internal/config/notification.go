package config

import (
	"os"
	"strconv"
	"time"
)

const (
	notificationsDisabledEnv = "NOTIFICATIONS_DISABLED"
	notifiedMarkerTTLEnv     = "NOTIFIED_MARKER_TTL_HOURS"

	defaultNotifiedMarkerTTL = 26 * time.Hour
)

type NotificationConfig struct {
	Disabled bool
	// MarkerTTL bounds how long a delivered alert suppresses duplicates.
	MarkerTTL time.Duration
}

func LoadNotificationConfig() *NotificationConfig {
	ttl := defaultNotifiedMarkerTTL
	if v := os.Getenv(notifiedMarkerTTLEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			ttl = time.Duration(parsed) * time.Hour
		}
	}

	return &NotificationConfig{
		Disabled:  os.Getenv(notificationsDisabledEnv) == "true",
		MarkerTTL: ttl,
	}
}
