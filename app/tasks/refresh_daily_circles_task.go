package tasks

import (
	"context"
	"log/slog"

	"github.com/lysyi3m/newsdesk/app/daily"
)

// RefreshDailyCirclesTask rebuilds the daily posts. An empty refresh fails
// with daily.ErrNoPosts so the scheduler retries it.
type RefreshDailyCirclesTask struct {
	Task
	fetcher *daily.Fetcher
}

func NewRefreshDailyCirclesTask(fetcher *daily.Fetcher) *RefreshDailyCirclesTask {
	return &RefreshDailyCirclesTask{
		Task:    NewTask(TaskTypeRefreshDailyCircles, daily.SlotKey),
		fetcher: fetcher,
	}
}

func (t *RefreshDailyCirclesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	posts := t.fetcher.Refresh(ctx)
	if len(posts) == 0 {
		return daily.ErrNoPosts
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"posts", len(posts))

	return nil
}
