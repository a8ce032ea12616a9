package cache

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/lysyi3m/newsdesk/app/post"
	"github.com/lysyi3m/newsdesk/app/taxonomy"
)

const (
	GroupedPostsKey = "grouped_posts"

	DefaultCategoryCap     = 50
	DefaultTodayCap        = 60
	DefaultMaxPayloadBytes = 1_000_000
)

type Grouped = map[string][]post.Post

type Options struct {
	CategoryCap     int
	TodayCap        int
	MaxPayloadBytes int
	// TTL marks a persisted snapshot older than this as absent. Zero trusts
	// the snapshot regardless of age.
	TTL time.Duration
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.CategoryCap <= 0 {
		o.CategoryCap = DefaultCategoryCap
	}
	if o.TodayCap <= 0 {
		o.TodayCap = DefaultTodayCap
	}
	if o.MaxPayloadBytes <= 0 {
		o.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Event struct {
	Category string    `json:"category"`
	Count    int       `json:"count"`
	At       time.Time `json:"at"`
	Restored bool      `json:"restored,omitempty"`
}

// Manager owns the category to posts map. Memory is authoritative; every
// merge schedules an asynchronous write of the latest full snapshot.
type Manager struct {
	opts Options
	slot *Slot[Grouped]

	mu          sync.RWMutex
	groups      Grouped
	fetchedAt   map[string]time.Time
	persistedAt time.Time

	writeMu   sync.Mutex
	pendingMu sync.Mutex
	pending   bool
	writes    sync.WaitGroup

	subsMu  sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

func NewManager(store database.Store, opts Options) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		opts:      opts,
		slot:      NewSlot[Grouped](store, GroupedPostsKey, opts.MaxPayloadBytes),
		groups:    make(Grouped),
		fetchedAt: make(map[string]time.Time),
		subs:      make(map[int]chan Event),
	}
}

func (m *Manager) Get(category string) ([]post.Post, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	posts, ok := m.groups[category]
	if !ok {
		return nil, false
	}
	return slices.Clone(posts), true
}

// Merge replaces the category's list with posts and schedules persistence.
// Safe to call concurrently and with no subscribers.
func (m *Manager) Merge(category string, posts []post.Post) {
	now := m.opts.Now()

	m.mu.Lock()
	m.groups[category] = slices.Clone(posts)
	m.fetchedAt[category] = now
	m.mu.Unlock()

	m.publish(Event{Category: category, Count: len(posts), At: now})
	m.schedulePersist()
}

// Restore seeds memory from a persisted snapshot without writing it back.
func (m *Manager) Restore(entries Grouped, at time.Time) {
	m.mu.Lock()
	for category, posts := range entries {
		m.groups[category] = slices.Clone(posts)
		m.fetchedAt[category] = at
	}
	if at.After(m.persistedAt) {
		m.persistedAt = at
	}
	m.mu.Unlock()

	for category, posts := range entries {
		m.publish(Event{Category: category, Count: len(posts), At: at, Restored: true})
	}
}

func (m *Manager) Snapshot() Grouped {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(Grouped, len(m.groups))
	for category, posts := range m.groups {
		snapshot[category] = slices.Clone(posts)
	}
	return snapshot
}

func (m *Manager) Categories() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.groups))
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.groups)
}

func (m *Manager) FetchedAt(category string) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	at, ok := m.fetchedAt[category]
	return at, ok
}

func (m *Manager) PersistedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.persistedAt
}

// Persist writes the normalized, capped snapshot now. Memory is never
// touched, whatever the outcome.
func (m *Manager) Persist(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.persist(ctx)
}

func (m *Manager) persist(ctx context.Context) error {
	at := m.opts.Now()

	m.mu.RLock()
	normalized := make(Grouped, len(m.groups))
	for category, posts := range m.groups {
		normalized[category] = post.SimplifyAll(post.Truncate(posts, m.CapFor(category)))
	}
	m.mu.RUnlock()

	if err := m.slot.Save(ctx, normalized, at); err != nil {
		return err
	}

	m.mu.Lock()
	m.persistedAt = at
	m.mu.Unlock()

	slog.Debug("Grouped posts persisted", "categories", len(normalized))
	return nil
}

// schedulePersist coalesces writes: at most one write waits at a time, and it
// snapshots memory only once it holds the write lock.
func (m *Manager) schedulePersist() {
	m.pendingMu.Lock()
	if m.pending {
		m.pendingMu.Unlock()
		return
	}
	m.pending = true
	m.pendingMu.Unlock()

	m.writes.Add(1)
	go func() {
		defer m.writes.Done()

		m.writeMu.Lock()
		defer m.writeMu.Unlock()

		m.pendingMu.Lock()
		m.pending = false
		m.pendingMu.Unlock()

		if err := m.persist(context.Background()); err != nil {
			LogSaveError(m.slot.Key(), err)
		}
	}()
}

// Wait blocks until every scheduled write has finished.
func (m *Manager) Wait() {
	m.writes.Wait()
}

// LoadFromDisk reads the persisted snapshot. Corrupt, other-version and
// (with a TTL) expired snapshots read as absent.
func (m *Manager) LoadFromDisk(ctx context.Context) (Grouped, time.Time, bool) {
	grouped, at, ok := m.slot.Load(ctx)
	if !ok {
		return nil, time.Time{}, false
	}

	if m.opts.TTL > 0 && m.opts.Now().Sub(at) > m.opts.TTL {
		slog.Info("Persisted grouped posts are stale, ignoring", "persisted_at", at, "ttl", m.opts.TTL)
		return nil, time.Time{}, false
	}

	if grouped == nil {
		grouped = make(Grouped)
	}
	return grouped, at, true
}

// LoadCategory restores one category from the persisted snapshot into memory.
func (m *Manager) LoadCategory(ctx context.Context, category string) ([]post.Post, bool) {
	grouped, at, ok := m.LoadFromDisk(ctx)
	if !ok {
		return nil, false
	}

	posts, ok := grouped[category]
	if !ok {
		return nil, false
	}

	m.Restore(Grouped{category: posts}, at)
	return slices.Clone(posts), true
}

func (m *Manager) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	m.subsMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.subsMu.Unlock()

	return ch, func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
}

// publish never blocks; slow subscribers miss events.
func (m *Manager) publish(event Event) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	for _, ch := range m.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// CapFor is the number of posts persisted for a category.
func (m *Manager) CapFor(category string) int {
	if category == taxonomy.Today {
		return m.opts.TodayCap
	}
	return m.opts.CategoryCap
}
