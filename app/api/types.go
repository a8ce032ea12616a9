package api

import (
	"context"
	"time"

	"github.com/lysyi3m/newsdesk/app/cache"
	"github.com/lysyi3m/newsdesk/app/daily"
	"github.com/lysyi3m/newsdesk/app/feed"
	"github.com/lysyi3m/newsdesk/app/hydrate"
	"github.com/lysyi3m/newsdesk/app/library"
	"github.com/lysyi3m/newsdesk/app/post"
	"github.com/lysyi3m/newsdesk/app/tasks"
	"github.com/lysyi3m/newsdesk/app/taxonomy"
)

type GeneratorInterface interface {
	Run(channel feed.Channel, posts []post.Post) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type ContentFetcherInterface interface {
	Fetch(ctx context.Context, p post.Post) (string, error)
}

var _ ContentFetcherInterface = (*tasks.ContentFetcher)(nil)

// Deps groups what the handlers read from and mutate.
type Deps struct {
	Orchestrator   *hydrate.Orchestrator
	Manager        *cache.Manager
	Daily          *daily.Fetcher
	Taxonomy       *taxonomy.Taxonomy
	Favorites      *library.Favorites
	Inbox          *library.Inbox
	ContentFetcher ContentFetcherInterface
	Generator      GeneratorInterface
	SiteURL        string
	TodayLimit     int
}

type Handler struct {
	orchestrator   *hydrate.Orchestrator
	manager        *cache.Manager
	daily          *daily.Fetcher
	taxonomy       *taxonomy.Taxonomy
	favorites      *library.Favorites
	inbox          *library.Inbox
	contentFetcher ContentFetcherInterface
	generator      GeneratorInterface
	siteURL        string
	todayLimit     int
	startedAt      time.Time
}

type notificationRequest struct {
	ID     string `json:"id" binding:"required"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	PostID int64  `json:"post_id"`
}
