package library

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lysyi3m/newsdesk/app/cache"
	"github.com/lysyi3m/newsdesk/app/database"
)

const (
	InboxKey        = "notification_inbox"
	DefaultInboxCap = 100
)

type Notification struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body,omitempty"`
	PostID     int64     `json:"post_id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
	Read       bool      `json:"read"`
}

// Inbox keeps the most recent notifications, newest first, up to a cap.
type Inbox struct {
	slot  *cache.Slot[[]Notification]
	limit int
	now   func() time.Time

	mu    sync.RWMutex
	items []Notification
}

func NewInbox(store database.Store, maxBytes int) *Inbox {
	return &Inbox{
		slot:  cache.NewSlot[[]Notification](store, InboxKey, maxBytes),
		limit: DefaultInboxCap,
		now:   time.Now,
	}
}

func (b *Inbox) Load(ctx context.Context) {
	items, _, ok := b.slot.Load(ctx)
	if !ok {
		return
	}

	b.mu.Lock()
	b.items = items
	b.mu.Unlock()

	slog.Debug("Notification inbox loaded", "count", len(items))
}

func (b *Inbox) List() []Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.items)
}

// Add stores a notification at the front. A notification with a known ID
// replaces the old entry; the oldest entries fall off past the cap.
func (b *Inbox) Add(ctx context.Context, n Notification) (Notification, error) {
	n.ID = strings.TrimSpace(n.ID)
	if n.ID == "" {
		return Notification{}, fmt.Errorf("notification ID is required")
	}
	if n.ReceivedAt.IsZero() {
		n.ReceivedAt = b.now()
	}

	b.mu.Lock()
	if i := b.index(n.ID); i >= 0 {
		b.items = slices.Delete(b.items, i, i+1)
	}
	b.items = slices.Insert(b.items, 0, n)
	if len(b.items) > b.limit {
		b.items = b.items[:b.limit]
	}
	items := slices.Clone(b.items)
	b.mu.Unlock()

	b.persist(ctx, items)
	return n, nil
}

func (b *Inbox) MarkRead(ctx context.Context, id string) error {
	return b.update(ctx, id, func(i int) {
		b.items[i].Read = true
	})
}

func (b *Inbox) Remove(ctx context.Context, id string) error {
	return b.update(ctx, id, func(i int) {
		b.items = slices.Delete(b.items, i, i+1)
	})
}

func (b *Inbox) UnreadCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, n := range b.items {
		if !n.Read {
			count++
		}
	}
	return count
}

func (b *Inbox) Clear(ctx context.Context) error {
	b.mu.Lock()
	b.items = nil
	b.mu.Unlock()

	if err := b.slot.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear inbox: %w", err)
	}
	return nil
}

func (b *Inbox) update(ctx context.Context, id string, apply func(i int)) error {
	b.mu.Lock()
	i := b.index(id)
	if i < 0 {
		b.mu.Unlock()
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	apply(i)
	items := slices.Clone(b.items)
	b.mu.Unlock()

	b.persist(ctx, items)
	return nil
}

func (b *Inbox) index(id string) int {
	return slices.IndexFunc(b.items, func(n Notification) bool { return n.ID == id })
}

func (b *Inbox) persist(ctx context.Context, items []Notification) {
	if err := b.slot.Save(ctx, items, b.now()); err != nil {
		cache.LogSaveError(InboxKey, err)
	}
}
