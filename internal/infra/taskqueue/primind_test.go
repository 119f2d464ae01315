//go:build !gcloud

package taskqueue

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestPrimindTasksClientRegisterNotification(t *testing.T) {
	var gotPath string
	var gotReq PrimindTaskRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(PrimindTaskResponse{
			Name:         "tasks/last-train-t1-1710513300",
			ScheduleTime: "2024-03-15T14:25:00Z",
			CreateTime:   "2024-03-15T14:25:00Z",
		})
	}))
	defer srv.Close()

	client := NewPrimindTasksClient(srv.URL, "alerts", 3)
	task := &NotificationTask{
		TaskID:  "last-train-t1-1710513300",
		TimerID: "t1",
		Title:   "Time to leave",
		Tag:     "last-train:t1:1710513300",
	}

	resp, err := client.RegisterNotification(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/tasks/alerts" {
		t.Errorf("expected path /tasks/alerts, got %s", gotPath)
	}
	if gotReq.Task.Name != task.TaskID {
		t.Errorf("expected task name %s, got %s", task.TaskID, gotReq.Task.Name)
	}

	body, err := base64.StdEncoding.DecodeString(gotReq.Task.HTTPRequest.Body)
	if err != nil {
		t.Fatalf("body is not base64: %v", err)
	}
	var payload NotificationTask
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("body is not a notification task: %v", err)
	}
	if payload.Tag != task.Tag || payload.Title != task.Title {
		t.Errorf("unexpected payload: %+v", payload)
	}

	want := time.Date(2024, 3, 15, 14, 25, 0, 0, time.UTC)
	if !resp.ScheduleTime.Equal(want) {
		t.Errorf("expected schedule time %v, got %v", want, resp.ScheduleTime)
	}
}

func TestPrimindTasksClientRetries(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int32
		wantErr   error
		wantOK    bool
	}{
		{
			name:      "recovers after server error",
			statuses:  []int{http.StatusInternalServerError, http.StatusOK},
			wantCalls: 2,
			wantOK:    true,
		},
		{
			name:      "gives up after max retries",
			statuses:  []int{http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway},
			wantCalls: 3,
		},
		{
			name:      "conflict is not retried",
			statuses:  []int{http.StatusConflict},
			wantCalls: 1,
			wantErr:   ErrTaskAlreadyExists,
		},
		{
			name:      "client error is not retried",
			statuses:  []int{http.StatusBadRequest},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				status := tt.statuses[len(tt.statuses)-1]
				if int(n) <= len(tt.statuses) {
					status = tt.statuses[n-1]
				}
				w.WriteHeader(status)
				if status == http.StatusOK {
					_, _ = w.Write([]byte(`{"name":"tasks/x"}`))
				}
			}))
			defer srv.Close()

			client := NewPrimindTasksClient(srv.URL, "default", 3)
			resp, err := client.RegisterNotification(context.Background(), &NotificationTask{TaskID: "x"})

			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, got)
			}
			if tt.wantOK {
				if err != nil || resp == nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPrimindTasksClientDeleteTask(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "deleted", status: http.StatusNoContent},
		{name: "already processed", status: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMethod, gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod, gotPath = r.Method, r.URL.Path
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := NewPrimindTasksClient(srv.URL, "default", 1).DeleteTask(context.Background(), "task-1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("DeleteTask() error = %v, wantErr %v", err, tt.wantErr)
			}
			if gotMethod != http.MethodDelete || gotPath != "/tasks/task-1" {
				t.Errorf("unexpected request %s %s", gotMethod, gotPath)
			}
		})
	}
}

func TestTaskIDForTag(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{tag: "last-train:abc:1710513300", want: "last-train-abc-1710513300"},
		{tag: "plain_id-1", want: "plain_id-1"},
		{tag: "a/b c", want: "a-b-c"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := TaskIDForTag(tt.tag); got != tt.want {
				t.Errorf("TaskIDForTag(%q) = %q, want %q", tt.tag, got, tt.want)
			}
		})
	}
}
