package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/newsdesk/app/library"
)

const (
	extractBatchSize = 20
	extractTimeout   = 30 * time.Second
)

// ExtractContentTask fills in the bodies of favorites saved without one.
type ExtractContentTask struct {
	Task
	favorites *library.Favorites
	fetcher   *ContentFetcher
}

func NewExtractContentTask(favorites *library.Favorites, fetcher *ContentFetcher) *ExtractContentTask {
	return &ExtractContentTask{
		Task:      NewTask(TaskTypeExtractContent, library.FavoritesKey),
		favorites: favorites,
		fetcher:   fetcher,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	items := t.favorites.MissingContent(extractBatchSize)
	if len(items) == 0 {
		slog.Debug("No favorites need content extraction")
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, item := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		extractCtx, cancel := context.WithTimeout(ctx, extractTimeout)
		content, err := t.fetcher.Fetch(extractCtx, item.Post)
		cancel()

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err != nil {
			slog.Error("Failed to extract content for favorite", "post_id", item.ID, "url", item.Link, "error", err)
			errorCount++
		} else {
			slog.Debug("Content extracted successfully", "post_id", item.ID, "url", item.Link, "content_length", len(content))
			successCount++
		}

		if updateErr := t.favorites.SetContent(ctx, item.ID, content, err); updateErr != nil {
			slog.Warn("Favorite removed before content was stored", "post_id", item.ID, "error", updateErr)
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

// ContentPlanner schedules an extraction run when favorites lack a body, at
// most once per interval.
type ContentPlanner struct {
	favorites *library.Favorites
	fetcher   *ContentFetcher
	interval  time.Duration

	mu          sync.Mutex
	lastPlanned time.Time
}

func NewContentPlanner(favorites *library.Favorites, fetcher *ContentFetcher, interval time.Duration) *ContentPlanner {
	return &ContentPlanner{
		favorites: favorites,
		fetcher:   fetcher,
		interval:  interval,
	}
}

func (p *ContentPlanner) PlanTasks(now time.Time) []TaskInterface {
	if len(p.favorites.MissingContent(1)) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.lastPlanned.IsZero() && now.Sub(p.lastPlanned) < p.interval {
		return nil
	}
	p.lastPlanned = now

	return []TaskInterface{NewExtractContentTask(p.favorites, p.fetcher)}
}
