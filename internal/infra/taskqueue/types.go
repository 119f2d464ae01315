package taskqueue

import (
	"errors"
	"strings"
	"time"
)

// ErrTaskAlreadyExists is returned when the queue already holds a task with the same id.
var ErrTaskAlreadyExists = errors.New("task already exists")

type NotificationTask struct {
	TaskID     string    `json:"task_id"`
	ScheduleAt time.Time `json:"-"`

	TimerID    string    `json:"timer_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Tag        string    `json:"tag"`
	LeaveAt    time.Time `json:"leave_at"`
	DeadlineAt time.Time `json:"deadline_at"`
	TaskType   string    `json:"task_type"`
}

type TaskResponse struct {
	Name         string    `json:"name"`
	ScheduleTime time.Time `json:"schedule_time"`
	CreateTime   time.Time `json:"create_time"`
}

type PrimindTaskRequest struct {
	Task PrimindTask `json:"task"`
}

type PrimindTask struct {
	Name         string             `json:"name,omitempty"`
	HTTPRequest  PrimindHTTPRequest `json:"httpRequest"`
	ScheduleTime string             `json:"scheduleTime,omitempty"`
}

type PrimindHTTPRequest struct {
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers,omitempty"`
}

type PrimindTaskResponse struct {
	Name         string `json:"name"`
	ScheduleTime string `json:"scheduleTime"`
	CreateTime   string `json:"createTime"`
}

// TaskIDForTag maps a notification tag onto the character set queue task
// ids accept: letters, digits, hyphens and underscores.
func TaskIDForTag(tag string) string {
	var b strings.Builder
	b.Grow(len(tag))
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

func backoffFor(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * 100 * time.Millisecond
}
