package tasks

import (
	"context"
	"log/slog"

	"github.com/lysyi3m/newsdesk/app/cache"
	"github.com/lysyi3m/newsdesk/app/feed"
	"github.com/lysyi3m/newsdesk/app/taxonomy"
)

// RefilterCategoriesTask re-applies the taxonomy filters to every cached
// category. Posts restored from disk may predate a filter change.
type RefilterCategoriesTask struct {
	Task
	manager  *cache.Manager
	taxonomy *taxonomy.Taxonomy
	filterer *feed.Filterer
}

func NewRefilterCategoriesTask(manager *cache.Manager, tax *taxonomy.Taxonomy, filterer *feed.Filterer) *RefilterCategoriesTask {
	return &RefilterCategoriesTask{
		Task:     NewTask(TaskTypeRefilterCategories, "all"),
		manager:  manager,
		taxonomy: tax,
		filterer: filterer,
	}
}

func (t *RefilterCategoriesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	changed := 0
	removed := 0

	for category, posts := range t.manager.Snapshot() {
		filters := t.taxonomy.FiltersFor(category)
		if len(filters) == 0 {
			continue
		}

		kept := t.filterer.Run(posts, filters)
		if len(kept) == len(posts) {
			continue
		}
		// An emptied category keeps its old list: empty results never overwrite.
		if len(kept) == 0 {
			slog.Warn("Filters would empty category, keeping cached posts", "category", category)
			continue
		}

		t.manager.Merge(category, kept)
		changed++
		removed += len(posts) - len(kept)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"changed", changed,
		"removed", removed)

	return nil
}
