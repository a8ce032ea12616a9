package hydrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lysyi3m/newsdesk/app/cache"
	"github.com/lysyi3m/newsdesk/app/daily"
	"github.com/lysyi3m/newsdesk/app/feed"
	"github.com/lysyi3m/newsdesk/app/post"
	"github.com/lysyi3m/newsdesk/app/tasks"
	"github.com/lysyi3m/newsdesk/app/taxonomy"
	"github.com/lysyi3m/newsdesk/app/views"
	"github.com/lysyi3m/newsdesk/app/wp"
)

type State string

const (
	StateCold            State = "cold"
	StateCatalogLoading  State = "catalog_loading"
	StateCacheCheck      State = "cache_check"
	StateEagerFetch      State = "eager_fetch"
	StateBackgroundFetch State = "background_fetch"
	StateReady           State = "ready"
)

const DefaultEagerCount = 2

var ErrUnknownCategory = errors.New("unknown category")

// Queue accepts detached background tasks.
type Queue interface {
	EnqueueTask(task tasks.TaskInterface) error
}

type Options struct {
	EagerCount           int
	PageSize             int
	CategoryTTL          time.Duration
	DailyRefreshInterval time.Duration
	Now                  func() time.Time
}

func (o Options) withDefaults() Options {
	if o.EagerCount <= 0 {
		o.EagerCount = DefaultEagerCount
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Orchestrator hydrates the grouped-posts cache: from disk when a valid
// snapshot exists, otherwise from the remote source, a few categories
// synchronously and the rest as background tasks.
type Orchestrator struct {
	source   wp.Source
	taxonomy *taxonomy.Taxonomy
	manager  *cache.Manager
	daily    *daily.Fetcher
	filterer *feed.Filterer
	opts     Options

	mu                sync.RWMutex
	state             State
	catalog           *wp.Catalog
	queue             Queue
	lastPlanned       map[string]time.Time
	lastDailyPlanned  time.Time
	refilterRequested bool
}

var _ tasks.Planner = (*Orchestrator)(nil)

func NewOrchestrator(source wp.Source, tax *taxonomy.Taxonomy, manager *cache.Manager, dailyFetcher *daily.Fetcher, filterer *feed.Filterer, opts Options) *Orchestrator {
	return &Orchestrator{
		source:      source,
		taxonomy:    tax,
		manager:     manager,
		daily:       dailyFetcher,
		filterer:    filterer,
		opts:        opts.withDefaults(),
		state:       StateCold,
		catalog:     wp.EmptyCatalog(tax),
		lastPlanned: make(map[string]time.Time),
	}
}

// SetQueue sets where background fetches go. Without a queue they run on
// their own goroutines.
func (o *Orchestrator) SetQueue(queue Queue) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queue = queue
}

func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Initialized reports whether hydration no longer blocks readers.
func (o *Orchestrator) Initialized() bool {
	return o.State() == StateReady
}

func (o *Orchestrator) Loading() bool {
	state := o.State()
	return state != StateCold && state != StateReady
}

func (o *Orchestrator) Catalog() *wp.Catalog {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.catalog
}

func (o *Orchestrator) setState(state State) {
	o.mu.Lock()
	previous := o.state
	o.state = state
	o.mu.Unlock()

	slog.Debug("Hydration state changed", "from", string(previous), "to", string(state))
}

// Run walks the hydration states once. It only fails when ctx is cancelled
// during the eager phase.
func (o *Orchestrator) Run(ctx context.Context) error {
	start := time.Now()

	o.setState(StateCatalogLoading)
	catalog, err := wp.LoadCatalog(ctx, o.source, o.taxonomy)
	if err != nil {
		slog.Warn("Category catalog unavailable, resolving by search only", "error", err)
		catalog = wp.EmptyCatalog(o.taxonomy)
	}
	o.mu.Lock()
	o.catalog = catalog
	o.mu.Unlock()

	o.setState(StateCacheCheck)
	if grouped, at, ok := o.manager.LoadFromDisk(ctx); ok && len(grouped) > 0 {
		o.manager.Restore(grouped, at)
		o.mu.Lock()
		o.refilterRequested = true
		o.mu.Unlock()
		o.setState(StateReady)
		slog.Info("Hydrated from persisted cache", "categories", len(grouped), "persisted_at", at)
		return nil
	}

	o.setState(StateEagerFetch)
	targets := o.targets()
	fetcher := o.categoryFetcher()

	populated := 0
	next := 0
	for ; next < len(targets) && populated < o.opts.EagerCount; next++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		task := tasks.NewFetchCategoryTask(targets[next], fetcher)
		task.Start()
		if err := task.Execute(ctx); err != nil {
			slog.Warn("Eager category fetch failed", "category", targets[next], "error", err)
			continue
		}
		populated++
	}

	o.setState(StateBackgroundFetch)
	now := o.opts.Now()
	for _, name := range targets[next:] {
		o.dispatch(tasks.NewFetchCategoryTask(name, fetcher), name, now)
	}

	o.setState(StateReady)
	slog.Info("Hydration dispatched",
		"eager", populated,
		"background", len(targets)-next,
		"degraded", catalog.Degraded(),
		"duration", time.Since(start))

	return nil
}

// targets lists the categories hydration fetches, in taxonomy order. In
// degraded mode every slugged category is searched by name. The today
// category is derived from the others and never fetched.
func (o *Orchestrator) targets() []string {
	catalog := o.Catalog()
	candidates := o.taxonomy.Flatten()
	if catalog.Degraded() {
		candidates = o.taxonomy.Slugged()
	}

	var names []string
	for _, name := range candidates {
		if name == taxonomy.Today {
			continue
		}
		if _, ok := catalog.ResolveCategoryID(name); ok || catalog.Degraded() {
			names = append(names, name)
		}
	}
	return names
}

func (o *Orchestrator) categoryFetcher() *tasks.CategoryFetcher {
	return &tasks.CategoryFetcher{
		Source:   o.source,
		Catalog:  o.Catalog(),
		Manager:  o.manager,
		Taxonomy: o.taxonomy,
		Filterer: o.filterer,
		PageSize: o.opts.PageSize,
	}
}

// dispatch hands a fetch to the queue and records when the category was
// planned. A rejected task is planned again on a later tick.
func (o *Orchestrator) dispatch(task tasks.TaskInterface, category string, now time.Time) {
	o.mu.RLock()
	queue := o.queue
	o.mu.RUnlock()

	if queue == nil {
		go func() {
			task.Start()
			if err := task.Execute(context.Background()); err != nil {
				slog.Warn("Background task failed", "type", string(task.GetType()), "subject", task.GetSubject(), "error", err)
			}
		}()
	} else if err := queue.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue background fetch", "category", category, "error", err)
		return
	}

	o.mu.Lock()
	o.lastPlanned[category] = now
	o.mu.Unlock()
}

// FetchPostsForCategory serves a category from memory, then the persisted
// snapshot, then the remote source. Empty remote results yield an empty list
// and leave the cache untouched. The remote fetch outlives ctx: a caller
// that gives up gets ctx.Err() while the fetch still completes and merges.
func (o *Orchestrator) FetchPostsForCategory(ctx context.Context, name string) ([]post.Post, error) {
	switch name {
	case taxonomy.Aggregate:
		posts := views.Union(o.manager.Snapshot())
		post.SortNewestFirst(posts)
		return posts, nil
	case taxonomy.Today:
		return o.BuildToday(), nil
	}

	if posts, ok := o.manager.Get(name); ok {
		return posts, nil
	}

	if posts, ok := o.manager.LoadCategory(ctx, name); ok {
		slog.Debug("Category restored from persisted cache", "category", name)
		return posts, nil
	}

	if !o.taxonomy.Contains(name) {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownCategory)
	}

	type result struct {
		posts []post.Post
		err   error
	}
	fetcher := o.categoryFetcher()
	res, err := detached(ctx, func(ctx context.Context) result {
		posts, err := fetcher.Fetch(ctx, name)
		return result{posts, err}
	})
	if err != nil {
		return nil, err
	}
	if errors.Is(res.err, tasks.ErrEmptyResult) {
		return nil, nil
	}
	return res.posts, res.err
}

// BuildToday derives the today category from every other cached category
// and merges it when its posts changed.
func (o *Orchestrator) BuildToday() []post.Post {
	posts := views.BuildToday(o.manager.Snapshot(), o.opts.Now(), o.manager.CapFor(taxonomy.Today))
	if len(posts) == 0 {
		return nil
	}

	current, ok := o.manager.Get(taxonomy.Today)
	if !ok || !slices.EqualFunc(current, posts, func(a, b post.Post) bool { return a.ID == b.ID }) {
		o.manager.Merge(taxonomy.Today, posts)
	}
	return posts
}

// RefreshDailyCircles rebuilds the daily posts now. Like category fetches,
// the refresh runs to completion even when ctx ends first.
func (o *Orchestrator) RefreshDailyCircles(ctx context.Context) []post.Post {
	if o.daily == nil {
		return nil
	}

	o.mu.Lock()
	o.lastDailyPlanned = o.opts.Now()
	o.mu.Unlock()

	posts, _ := detached(ctx, o.daily.Refresh)
	return posts
}

// detached runs fn on a context that keeps ctx's values but not its
// cancellation. The caller stops waiting when ctx ends; fn keeps running.
func detached[T any](ctx context.Context, fn func(context.Context) T) (T, error) {
	done := make(chan T, 1)
	go func() {
		done <- fn(context.WithoutCancel(ctx))
	}()

	select {
	case v := <-done:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// PlanTasks returns the background work due at now: refilters after a
// restore, refreshes of categories older than the TTL and a daily posts
// refresh. Nothing is planned before hydration is ready.
func (o *Orchestrator) PlanTasks(now time.Time) []tasks.TaskInterface {
	if !o.Initialized() {
		return nil
	}

	var planned []tasks.TaskInterface

	o.mu.Lock()
	if o.refilterRequested {
		o.refilterRequested = false
		planned = append(planned, tasks.NewRefilterCategoriesTask(o.manager, o.taxonomy, o.filterer))
	}

	if o.daily != nil && o.opts.DailyRefreshInterval > 0 {
		last := o.daily.RefreshedAt()
		if o.lastDailyPlanned.After(last) {
			last = o.lastDailyPlanned
		}
		if last.IsZero() || now.Sub(last) >= o.opts.DailyRefreshInterval {
			o.lastDailyPlanned = now
			planned = append(planned, tasks.NewRefreshDailyCirclesTask(o.daily))
		}
	}
	o.mu.Unlock()

	if o.opts.CategoryTTL <= 0 {
		return planned
	}

	fetcher := o.categoryFetcher()
	for _, name := range o.targets() {
		if !o.stale(name, now) {
			continue
		}

		o.mu.Lock()
		o.lastPlanned[name] = now
		o.mu.Unlock()

		planned = append(planned, tasks.NewFetchCategoryTask(name, fetcher))
	}

	if len(planned) > 0 {
		slog.Debug("Planned background tasks", "count", len(planned))
	}
	return planned
}

// stale reports whether a category was last fetched or planned more than
// the TTL ago.
func (o *Orchestrator) stale(name string, now time.Time) bool {
	last, _ := o.manager.FetchedAt(name)

	o.mu.RLock()
	if planned := o.lastPlanned[name]; planned.After(last) {
		last = planned
	}
	o.mu.RUnlock()

	return now.Sub(last) >= o.opts.CategoryTTL
}

// Pending lists target categories with no posts in memory yet.
func (o *Orchestrator) Pending() []string {
	cached := o.manager.Categories()
	return slices.DeleteFunc(o.targets(), func(name string) bool {
		_, ok := slices.BinarySearch(cached, name)
		return ok
	})
}
