package cfg

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

const (
	SourceREST = "rest"
	SourceRSS  = "rss"
	SourceAuto = "auto"
)

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath      string `long:"db-path" env:"DB_PATH" default:"./data/newsdesk.db" description:"Path to the SQLite database file"`
	MaxRowBytes int    `long:"max-row-bytes" env:"MAX_ROW_BYTES" default:"2097152" description:"Largest value the key-value store accepts"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for category fetches"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for mutating endpoints (optional)"`

	// Remote source configuration
	SiteURL      string        `long:"site-url" env:"SITE_URL" default:"http://localhost" description:"WordPress site URL"`
	Source       string        `long:"source" env:"SOURCE" default:"auto" choice:"rest" choice:"rss" choice:"auto" description:"Remote source: WordPress REST API, RSS feeds, or REST with RSS fallback"`
	TaxonomyFile string        `long:"taxonomy-file" env:"TAXONOMY_FILE" description:"YAML file overriding the built-in category taxonomy"`
	UserAgent    string        `long:"user-agent" env:"USER_AGENT" default:"Newsdesk/1.0" description:"User agent string for HTTP requests"`
	HTTPTimeout  time.Duration `long:"http-timeout" env:"HTTP_TIMEOUT" default:"30s" description:"Timeout for remote requests"`
	PageSize     int           `long:"page-size" env:"PAGE_SIZE" default:"20" description:"Posts requested per category fetch"`

	// Cache configuration
	CategoryCap     int           `long:"category-cap" env:"CATEGORY_CAP" default:"50" description:"Posts persisted per category"`
	DanasCap        int           `long:"danas-cap" env:"DANAS_CAP" default:"60" description:"Posts persisted for the today category"`
	MaxPayloadBytes int           `long:"max-payload-bytes" env:"MAX_PAYLOAD_BYTES" default:"1000000" description:"Largest serialized cache payload that is persisted"`
	CategoryTTL     time.Duration `long:"category-ttl" env:"CATEGORY_TTL" default:"6h" description:"Age after which cached categories are refetched (0 keeps them until restart)"`
	EagerCount      int           `long:"eager-count" env:"EAGER_COUNT" default:"2" description:"Categories fetched synchronously on a cold start"`

	// Daily circles configuration
	DailyDays            int           `long:"daily-days" env:"DAILY_DAYS" default:"6" description:"Trailing days covered by daily circles"`
	DailyPerDay          int           `long:"daily-per-day" env:"DAILY_PER_DAY" default:"5" description:"Posts kept per day in daily circles"`
	DailyConcurrency     int           `long:"daily-concurrency" env:"DAILY_CONCURRENCY" default:"3" description:"Day fetches allowed in flight at once"`
	DailyRefreshInterval time.Duration `long:"daily-refresh-interval" env:"DAILY_REFRESH_INTERVAL" default:"30m" description:"Interval between daily circles refreshes"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"Europe/Belgrade" description:"Site timezone used for post dates (e.g., UTC, Europe/Belgrade)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:               raw.DBPath,
		MaxRowBytes:          raw.MaxRowBytes,
		Port:                 raw.Port,
		BaseUrl:              strings.TrimRight(raw.BaseUrl, "/"),
		WorkerCount:          raw.WorkerCount,
		SchedulerInterval:    raw.SchedulerInterval,
		APIAccessKey:         raw.APIAccessKey,
		SiteURL:              strings.TrimRight(raw.SiteURL, "/"),
		Source:               raw.Source,
		TaxonomyFile:         raw.TaxonomyFile,
		UserAgent:            raw.UserAgent,
		HTTPTimeout:          raw.HTTPTimeout,
		PageSize:             raw.PageSize,
		CategoryCap:          raw.CategoryCap,
		DanasCap:             raw.DanasCap,
		MaxPayloadBytes:      raw.MaxPayloadBytes,
		CategoryTTL:          raw.CategoryTTL,
		EagerCount:           raw.EagerCount,
		DailyDays:            raw.DailyDays,
		DailyPerDay:          raw.DailyPerDay,
		DailyConcurrency:     raw.DailyConcurrency,
		DailyRefreshInterval: raw.DailyRefreshInterval,
		Timezone:             raw.Timezone,
		Debug:                raw.Debug,
		Version:              GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func (c *Cfg) validate() error {
	positiveFields := map[string]int{
		"worker count":       c.WorkerCount,
		"scheduler interval": c.SchedulerInterval,
		"page size":          c.PageSize,
		"category cap":       c.CategoryCap,
		"danas cap":          c.DanasCap,
		"max payload bytes":  c.MaxPayloadBytes,
		"daily days":         c.DailyDays,
		"daily per day":      c.DailyPerDay,
		"daily concurrency":  c.DailyConcurrency,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	if c.EagerCount < 0 {
		return fmt.Errorf("eager count must be non-negative")
	}
	if c.CategoryTTL < 0 {
		return fmt.Errorf("category ttl must be non-negative")
	}

	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
