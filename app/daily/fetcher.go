package daily

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/newsdesk/app/cache"
	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/lysyi3m/newsdesk/app/post"
	"github.com/lysyi3m/newsdesk/app/wp"
)

const (
	SlotKey = "daily_circles"

	DefaultDays        = 6
	DefaultPerDay      = 5
	DefaultConcurrency = 3
)

// ErrNoPosts reports a refresh that produced nothing. Callers retry later.
var ErrNoPosts = errors.New("no daily posts fetched")

type Options struct {
	Days            int
	PerDay          int
	Concurrency     int
	MaxPayloadBytes int
	Location        *time.Location
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Days <= 0 {
		o.Days = DefaultDays
	}
	if o.PerDay <= 0 {
		o.PerDay = DefaultPerDay
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.MaxPayloadBytes <= 0 {
		o.MaxPayloadBytes = cache.DefaultMaxPayloadBytes
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Fetcher maintains the rolling set of recent posts, a few per day.
type Fetcher struct {
	source wp.Source
	slot   *cache.Slot[[]post.Post]
	opts   Options

	mu          sync.RWMutex
	posts       []post.Post
	refreshedAt time.Time
}

func NewFetcher(source wp.Source, store database.Store, opts Options) *Fetcher {
	opts = opts.withDefaults()
	return &Fetcher{
		source: source,
		slot:   cache.NewSlot[[]post.Post](store, SlotKey, opts.MaxPayloadBytes),
		opts:   opts,
	}
}

// Refresh fetches one page per day with at most Concurrency requests in
// flight. A failed day contributes nothing; the rest still populate. A
// non-empty result replaces the cached set and is persisted.
func (f *Fetcher) Refresh(ctx context.Context) []post.Post {
	start := time.Now()
	ranges := DayRanges(f.opts.Now(), f.opts.Days, f.opts.Location)
	results := make([][]post.Post, len(ranges))

	var g errgroup.Group
	g.SetLimit(f.opts.Concurrency)

	for i, r := range ranges {
		g.Go(func() error {
			posts, err := f.source.FetchPostsByDateRange(ctx, r.After, r.Before, 1, f.opts.PerDay)
			if err != nil {
				slog.Warn("Failed to fetch day", "day", r.Day, "error", err)
				return nil
			}
			results[i] = selectDay(posts, r.Day, f.opts.PerDay)
			return nil
		})
	}
	_ = g.Wait()

	var all []post.Post
	for _, day := range results {
		all = append(all, day...)
	}
	posts := post.UniqByID(all)

	if len(posts) == 0 {
		slog.Warn("Daily refresh returned no posts", "days", len(ranges), "duration", time.Since(start))
		return nil
	}

	now := f.opts.Now()
	f.mu.Lock()
	f.posts = posts
	f.refreshedAt = now
	f.mu.Unlock()

	if err := f.slot.Save(ctx, post.SimplifyAll(posts), now); err != nil {
		cache.LogSaveError(SlotKey, err)
	}

	slog.Info("Daily posts refreshed", "days", len(ranges), "posts", len(posts), "duration", time.Since(start))
	return posts
}

// selectDay keeps the posts dated on day, newest first, at most limit.
func selectDay(posts []post.Post, day string, limit int) []post.Post {
	var matching []post.Post
	for _, p := range posts {
		if post.DayKey(p.Date) == day {
			matching = append(matching, p)
		}
	}
	post.SortNewestFirst(matching)
	return post.Truncate(matching, limit)
}

func (f *Fetcher) Posts() []post.Post {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]post.Post(nil), f.posts...)
}

func (f *Fetcher) RefreshedAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.refreshedAt
}

// Load restores the last persisted set. It reports whether anything was found.
func (f *Fetcher) Load(ctx context.Context) bool {
	posts, at, ok := f.slot.Load(ctx)
	if !ok {
		return false
	}

	f.mu.Lock()
	f.posts = posts
	f.refreshedAt = at
	f.mu.Unlock()

	slog.Info("Restored daily posts", "posts", len(posts), "persisted_at", at)
	return true
}
