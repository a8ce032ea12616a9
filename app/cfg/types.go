package cfg

import "time"

type Cfg struct {
	// Storage configuration
	DBPath      string
	MaxRowBytes int

	// Application configuration
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Remote source configuration
	SiteURL      string
	Source       string
	TaxonomyFile string
	UserAgent    string
	HTTPTimeout  time.Duration
	PageSize     int

	// Cache configuration
	CategoryCap     int
	DanasCap        int
	MaxPayloadBytes int
	CategoryTTL     time.Duration
	EagerCount      int

	// Daily circles configuration
	DailyDays            int
	DailyPerDay          int
	DailyConcurrency     int
	DailyRefreshInterval time.Duration

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
