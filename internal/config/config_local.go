//go:build !gcloud

package config

// Validate accepts an empty Primind Tasks URL; delivery is then disabled.
func (c *TaskQueueConfig) Validate() error {
	return nil
}
