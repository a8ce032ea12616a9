package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/newsdesk/app/cfg"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health"},
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)
	r.GET("/status", handler.GetStatus)
	r.GET("/events", handler.StreamEvents)

	r.GET("/categories", handler.ListCategories)
	r.GET("/categories/:name/posts", handler.GetCategoryPosts)
	r.GET("/categories/:name/rss", handler.GetCategoryFeed)

	r.GET("/posts", handler.GetGroupedPosts)
	r.GET("/posts/:id/content", handler.GetPostContent)
	r.GET("/today", handler.GetToday)
	r.GET("/partitions/:node", handler.GetPartition)
	r.GET("/search", handler.Search)
	r.GET("/daily-circles", handler.GetDailyCircles)

	r.GET("/favorites", handler.ListFavorites)
	r.GET("/inbox", handler.ListInbox)

	mutating := r.Group("/")
	if apiAccessKey != "" {
		mutating.Use(authMiddleware(apiAccessKey))
		slog.Info("Mutating endpoints require an API key")
	} else {
		slog.Warn("Mutating endpoints are open (API_ACCESS_KEY not set)")
	}
	{
		mutating.POST("/daily-circles/refresh", handler.RefreshDailyCircles)
		mutating.POST("/favorites", handler.AddFavorite)
		mutating.DELETE("/favorites/:id", handler.RemoveFavorite)
		mutating.POST("/inbox", handler.AddNotification)
		mutating.POST("/inbox/:id/read", handler.MarkNotificationRead)
		mutating.DELETE("/inbox/:id", handler.RemoveNotification)
		mutating.DELETE("/inbox", handler.ClearInbox)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "Newsdesk",
			"version":     cfg.GetVersion(),
			"description": "Grouped news posts cache with incremental hydration",
			"endpoints": map[string]string{
				"health":     "/health",
				"status":     "/status",
				"events":     "/events",
				"categories": "/categories",
				"category":   "/categories/<name>/posts",
				"rss":        "/categories/<name>/rss",
				"posts":      "/posts",
				"content":    "/posts/<id>/content",
				"today":      "/today?limit=<n>",
				"partition":  "/partitions/<node>",
				"search":     "/search?q=<query>",
				"daily":      "/daily-circles",
				"favorites":  "/favorites",
				"inbox":      "/inbox",
			},
			"api_status": map[string]any{
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// authMiddleware accepts the key in X-API-Key or as a bearer token.
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
