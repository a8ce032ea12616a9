package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/newsdesk/app/feed"
	"github.com/lysyi3m/newsdesk/app/hydrate"
	"github.com/lysyi3m/newsdesk/app/library"
	"github.com/lysyi3m/newsdesk/app/post"
	"github.com/lysyi3m/newsdesk/app/views"
	"github.com/lysyi3m/newsdesk/app/wp"
)

const (
	defaultSearchLimit = 50
	maxLimit           = 500
)

func NewHandler(deps Deps) *Handler {
	generator := deps.Generator
	if generator == nil {
		generator = feed.NewGenerator()
	}

	return &Handler{
		orchestrator:   deps.Orchestrator,
		manager:        deps.Manager,
		daily:          deps.Daily,
		taxonomy:       deps.Taxonomy,
		favorites:      deps.Favorites,
		inbox:          deps.Inbox,
		contentFetcher: deps.ContentFetcher,
		generator:      generator,
		siteURL:        deps.SiteURL,
		todayLimit:     deps.TodayLimit,
		startedAt:      time.Now(),
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	})
}

func (h *Handler) GetStatus(c *gin.Context) {
	status := gin.H{
		"state":       h.orchestrator.State(),
		"initialized": h.orchestrator.Initialized(),
		"loading":     h.orchestrator.Loading(),
		"categories":  h.manager.Len(),
		"pending":     h.orchestrator.Pending(),
		"degraded":    h.orchestrator.Catalog().Degraded(),
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
	}

	if at := h.manager.PersistedAt(); !at.IsZero() {
		status["persisted_at"] = at.Format(time.RFC3339)
	}
	if h.daily != nil {
		if at := h.daily.RefreshedAt(); !at.IsZero() {
			status["daily_refreshed_at"] = at.Format(time.RFC3339)
		}
	}
	if h.inbox != nil {
		status["unread"] = h.inbox.UnreadCount()
	}

	c.JSON(http.StatusOK, status)
}

func (h *Handler) ListCategories(c *gin.Context) {
	entries := h.orchestrator.Catalog().Entries()

	categories := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		info := gin.H{
			"name":   entry.Name,
			"slug":   entry.Slug,
			"id":     entry.ID,
			"cached": false,
		}
		if at, ok := h.manager.FetchedAt(entry.Name); ok {
			info["cached"] = true
			info["fetched_at"] = at.Format(time.RFC3339)
		}
		categories = append(categories, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"total":      len(categories),
	})
}

func (h *Handler) GetGroupedPosts(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.Snapshot())
}

func (h *Handler) GetCategoryPosts(c *gin.Context) {
	name := c.Param("name")

	posts, err := h.orchestrator.FetchPostsForCategory(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, hydrate.ErrUnknownCategory) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown category"})
			return
		}
		if c.Request.Context().Err() != nil {
			slog.Debug("Client left before category fetch finished", "category", name)
			return
		}
		slog.Warn("Failed to fetch category", "category", name, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"category": name,
		"posts":    nonNil(posts),
		"total":    len(posts),
	})
}

func (h *Handler) GetCategoryFeed(c *gin.Context) {
	name := c.Param("name")

	posts, err := h.orchestrator.FetchPostsForCategory(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, hydrate.ErrUnknownCategory) {
			c.Status(http.StatusNotFound)
			return
		}
		if c.Request.Context().Err() != nil {
			slog.Debug("Client left before category fetch finished", "category", name)
			return
		}
		slog.Warn("Failed to fetch category", "category", name, "error", err)
	}

	channel := feed.Channel{
		Category: name,
		Title:    name,
		Link:     h.siteURL,
		Language: "sr",
	}

	rss, err := h.generator.Run(channel, posts)
	if err != nil {
		slog.Error("RSS generation error", "category", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(posts)))
	c.Header("X-Feed-Name", name)
	if at, ok := h.manager.FetchedAt(name); ok {
		c.Header("X-Last-Updated", at.Format(time.RFC3339))
	}

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetToday(c *gin.Context) {
	limit, ok := queryLimit(c, h.todayLimit)
	if !ok {
		return
	}

	posts := views.BuildToday(h.manager.Snapshot(), time.Now(), limit)
	c.JSON(http.StatusOK, gin.H{
		"posts": nonNil(posts),
		"total": len(posts),
	})
}

func (h *Handler) GetPartition(c *gin.Context) {
	node := c.Param("node")
	if !h.taxonomy.Contains(node) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown category"})
		return
	}

	in, out := views.PartitionNode(h.manager.Snapshot(), h.taxonomy, node)
	c.JSON(http.StatusOK, gin.H{
		"node":    node,
		"subtree": h.taxonomy.Subtree(node),
		"in":      in,
		"out":     out,
	})
}

func (h *Handler) GetDailyCircles(c *gin.Context) {
	posts := h.daily.Posts()
	response := gin.H{
		"posts": nonNil(posts),
		"total": len(posts),
	}
	if at := h.daily.RefreshedAt(); !at.IsZero() {
		response["refreshed_at"] = at.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, response)
}

// RefreshDailyCircles runs the refresh on the request. The refresh completes
// even if the client leaves. An empty result keeps the previous posts and is
// reported, not treated as an error.
func (h *Handler) RefreshDailyCircles(c *gin.Context) {
	posts := h.orchestrator.RefreshDailyCircles(c.Request.Context())
	if c.Request.Context().Err() != nil {
		slog.Debug("Client left before daily circles refresh finished")
		return
	}
	if len(posts) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"refreshed": false,
			"posts":     nonNil(h.daily.Posts()),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"refreshed": true,
		"posts":     posts,
		"total":     len(posts),
	})
}

func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	limit, ok := queryLimit(c, defaultSearchLimit)
	if !ok {
		return
	}

	posts := views.Search(h.manager.Snapshot(), query, limit)
	c.JSON(http.StatusOK, gin.H{
		"query": query,
		"posts": nonNil(posts),
		"total": len(posts),
	})
}

func (h *Handler) GetPostContent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	target := post.Post{ID: id}
	if favorite, found := h.favorites.Get(id); found {
		target = favorite.Post
	} else if cached, found := h.findCached(id); found {
		target = cached
	}

	content, err := h.contentFetcher.Fetch(c.Request.Context(), target)
	if err != nil {
		if errors.Is(err, wp.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		slog.Warn("Failed to fetch post content", "post_id", id, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Content unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      id,
		"title":   target.Title,
		"content": content,
	})
}

func (h *Handler) findCached(id int64) (post.Post, bool) {
	for _, posts := range h.manager.Snapshot() {
		for _, p := range posts {
			if p.ID == id {
				return p, true
			}
		}
	}
	return post.Post{}, false
}

// StreamEvents sends a server-sent event for every cache merge until the
// client goes away.
func (h *Handler) StreamEvents(c *gin.Context) {
	events, cancel := h.manager.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("status", gin.H{
		"state":      h.orchestrator.State(),
		"categories": h.manager.Len(),
	})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("merge", event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) ListFavorites(c *gin.Context) {
	favorites := h.favorites.List()
	c.JSON(http.StatusOK, gin.H{
		"favorites": nonNil(favorites),
		"total":     len(favorites),
	})
}

func (h *Handler) AddFavorite(c *gin.Context) {
	var p post.Post
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post", "details": err.Error()})
		return
	}

	favorite, err := h.favorites.Add(c.Request.Context(), p)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, favorite)
}

func (h *Handler) RemoveFavorite(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.favorites.Remove(c.Request.Context(), id); err != nil {
		respondLibraryError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListInbox(c *gin.Context) {
	notifications := h.inbox.List()
	c.JSON(http.StatusOK, gin.H{
		"notifications": nonNil(notifications),
		"total":         len(notifications),
		"unread":        h.inbox.UnreadCount(),
	})
}

func (h *Handler) AddNotification(c *gin.Context) {
	var req notificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification", "details": err.Error()})
		return
	}

	notification, err := h.inbox.Add(c.Request.Context(), library.Notification{
		ID:     req.ID,
		Title:  req.Title,
		Body:   req.Body,
		PostID: req.PostID,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, notification)
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	if err := h.inbox.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		respondLibraryError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RemoveNotification(c *gin.Context) {
	if err := h.inbox.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondLibraryError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ClearInbox(c *gin.Context) {
	if err := h.inbox.Clear(c.Request.Context()); err != nil {
		slog.Error("Failed to clear inbox", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear inbox"})
		return
	}
	c.Status(http.StatusNoContent)
}

func respondLibraryError(c *gin.Context, err error) {
	if errors.Is(err, library.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	slog.Error("Library operation failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return 0, false
	}
	return id, true
}

func queryLimit(c *gin.Context, fallback int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 || limit > maxLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return 0, false
	}
	return limit, true
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
