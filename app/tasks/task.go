package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

type TaskType string

const (
	TaskTypeFetchCategory       TaskType = "fetch_category"
	TaskTypeRefilterCategories  TaskType = "refilter_categories"
	TaskTypeRefreshDailyCircles TaskType = "refresh_daily_circles"
	TaskTypeExtractContent      TaskType = "extract_content"
)

const (
	DefaultMaxRetries = 3
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetSubject() string
	GetRetryCount() int
	GetMaxRetries() int
	IncrementRetryCount()
	CanRetry() bool
	Start()
	GetDuration() time.Duration
	LogValue() slog.Value
}

// Task carries the bookkeeping shared by every task. Subject names what the
// task works on, usually a category.
type Task struct {
	ID         string
	Type       TaskType
	Subject    string
	RetryCount int
	MaxRetries int
	StartedAt  *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetSubject() string {
	return t.Subject
}

func (t *Task) GetRetryCount() int {
	return t.RetryCount
}

func (t *Task) GetMaxRetries() int {
	return t.MaxRetries
}

func (t *Task) IncrementRetryCount() {
	t.RetryCount++
}

func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

// LogValue groups the identifying fields so log lines can carry a task as a
// single attribute.
func (t *Task) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("id", t.ID),
		slog.String("type", string(t.Type)),
		slog.Int("retry_count", t.RetryCount),
	}
	if t.Subject != "" {
		attrs = append(attrs, slog.String("subject", t.Subject))
	}
	return slog.GroupValue(attrs...)
}

var taskSeq atomic.Uint64

func NewTask(taskType TaskType, subject string) Task {
	return Task{
		ID:         fmt.Sprintf("%s-%d", taskType, taskSeq.Add(1)),
		Type:       taskType,
		Subject:    subject,
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
	}
}
