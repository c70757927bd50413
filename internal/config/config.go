// Package config loads and validates crawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/dates"
)

// EnvPrefix is prepended to every environment override, e.g.
// WUZZUF_RUN_RESULTS_WANTED.
const EnvPrefix = "WUZZUF"

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Run      RunConfig      `mapstructure:"run"`
	Site     SiteConfig     `mapstructure:"site"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Output   OutputConfig   `mapstructure:"output"`
	Status   StatusConfig   `mapstructure:"status"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// RunConfig holds the per-run search and budget options.
type RunConfig struct {
	Keyword           string   `mapstructure:"keyword"`
	Location          string   `mapstructure:"location"`
	Category          string   `mapstructure:"category"`
	CareerLevel       string   `mapstructure:"career_level"`
	JobType           string   `mapstructure:"job_type"`
	MaxJobAge         string   `mapstructure:"max_job_age"`
	ResultsWanted     int      `mapstructure:"results_wanted" validate:"min=1"`
	MaxPages          int      `mapstructure:"max_pages" validate:"min=1"`
	CollectDetails    bool     `mapstructure:"collect_details"`
	StartURLs         []string `mapstructure:"start_urls" validate:"dive,url"`
	MaxDuplicatePages int      `mapstructure:"max_duplicate_pages" validate:"min=1"`
}

// SiteConfig describes the job board being crawled.
type SiteConfig struct {
	BaseURL       string `mapstructure:"base_url" validate:"required,url"`
	SearchPath    string `mapstructure:"search_path" validate:"required,startswith=/"`
	DetailSegment string `mapstructure:"detail_segment" validate:"required,startswith=/"`
	ItemsPerPage  int    `mapstructure:"items_per_page" validate:"min=1"`
	Source        string `mapstructure:"source" validate:"required"`
}

// ExtractConfig tunes field extraction.
type ExtractConfig struct {
	RemoteKeywords []string `mapstructure:"remote_keywords"`
	CaseSensitive  bool     `mapstructure:"case_sensitive"`
}

// CrawlerConfig governs dispatcher and crawl pipeline behavior.
type CrawlerConfig struct {
	Concurrency           int     `mapstructure:"concurrency" validate:"min=1"`
	UserAgent             string  `mapstructure:"user_agent"`
	IgnoreRobots          bool    `mapstructure:"ignore_robots"`
	RateLimitRPS          float64 `mapstructure:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst        int     `mapstructure:"rate_limit_burst" validate:"gte=0"`
	QueueDepth            int     `mapstructure:"queue_depth" validate:"gte=0"`
	HandlerTimeoutSeconds int     `mapstructure:"handler_timeout_seconds" validate:"min=1"`
}

// HTTPConfig configures HTTP client retry behavior.
type HTTPConfig struct {
	TimeoutSeconds   int `mapstructure:"timeout_seconds" validate:"min=1"`
	MaxAttempts      int `mapstructure:"max_attempts" validate:"min=1"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms" validate:"gte=0"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms" validate:"gte=0"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	MaxParallel        int  `mapstructure:"max_parallel" validate:"gte=0"`
	NavTimeoutSeconds  int  `mapstructure:"nav_timeout_seconds" validate:"gte=0"`
	PromotionThreshold int  `mapstructure:"promotion_threshold" validate:"gte=0"`
}

// OutputConfig selects where records go. The JSONL dataset is always
// written; every other destination is enabled by filling it in.
type OutputConfig struct {
	JSONLPath string         `mapstructure:"jsonl_path" validate:"required"`
	Blob      BlobConfig     `mapstructure:"blob"`
	Postgres  PostgresConfig `mapstructure:"postgres"`
	SQLite    SQLiteConfig   `mapstructure:"sqlite"`
	Kafka     KafkaConfig    `mapstructure:"kafka"`
	PubSub    PubSubConfig   `mapstructure:"pubsub"`
}

// BlobConfig selects the blob store used for per-record objects.
type BlobConfig struct {
	Provider string `mapstructure:"provider" validate:"oneof=none memory local gcs"`
	BaseDir  string `mapstructure:"base_dir"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
}

// PostgresConfig enables the Postgres record store when DSN is set.
type PostgresConfig struct {
	DSN        string `mapstructure:"dsn"`
	JobsTable  string `mapstructure:"jobs_table"`
	LinksTable string `mapstructure:"links_table"`
}

// SQLiteConfig enables the SQLite record store when Path is set.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// KafkaConfig enables the Kafka publisher when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// PubSubConfig enables the Pub/Sub publisher when ProjectID is set.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// StatusConfig selects the run status store.
type StatusConfig struct {
	Provider   string `mapstructure:"provider" validate:"oneof=memory redis"`
	RedisAddr  string `mapstructure:"redis_addr"`
	KeyPrefix  string `mapstructure:"key_prefix"`
	TTLSeconds int    `mapstructure:"ttl_seconds" validate:"gte=0"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"min=1,max=65535"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"keyword":         "run.keyword",
	"location":        "run.location",
	"category":        "run.category",
	"career-level":    "run.career_level",
	"job-type":        "run.job_type",
	"max-job-age":     "run.max_job_age",
	"results-wanted":  "run.results_wanted",
	"max-pages":       "run.max_pages",
	"collect-details": "run.collect_details",
	"start-url":       "run.start_urls",
	"output":          "output.jsonl_path",
	"concurrency":     "crawler.concurrency",
	"serve":           "server.enabled",
	"port":            "server.port",
	"dev":             "logging.development",
	"log-level":       "logging.level",
}

// Load builds a Config from defaults, an optional file, the environment, and
// any flags in flags that map onto config keys.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("run.keyword", "")
	v.SetDefault("run.location", "")
	v.SetDefault("run.category", "")
	v.SetDefault("run.career_level", "")
	v.SetDefault("run.job_type", "")
	v.SetDefault("run.max_job_age", string(dates.AgeAll))
	v.SetDefault("run.results_wanted", 100)
	v.SetDefault("run.max_pages", 20)
	v.SetDefault("run.collect_details", true)
	v.SetDefault("run.start_urls", []string{})
	v.SetDefault("run.max_duplicate_pages", 3)
	v.SetDefault("site.base_url", "https://wuzzuf.net")
	v.SetDefault("site.search_path", "/search/jobs/")
	v.SetDefault("site.detail_segment", "/jobs/p/")
	v.SetDefault("site.items_per_page", 15)
	v.SetDefault("site.source", "wuzzuf.net")
	v.SetDefault("extract.remote_keywords", []string{"remote", "hybrid", "work from home"})
	v.SetDefault("extract.case_sensitive", false)
	v.SetDefault("crawler.concurrency", 5)
	v.SetDefault("crawler.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	v.SetDefault("crawler.ignore_robots", true)
	v.SetDefault("crawler.rate_limit_rps", 2.0)
	v.SetDefault("crawler.rate_limit_burst", 2)
	v.SetDefault("crawler.queue_depth", 0)
	v.SetDefault("crawler.handler_timeout_seconds", 90)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_attempts", 3)
	v.SetDefault("http.backoff_initial_ms", 500)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 2)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("headless.promotion_threshold", 2048)
	v.SetDefault("output.jsonl_path", "data/jobs.jsonl")
	v.SetDefault("output.blob.provider", "none")
	v.SetDefault("output.blob.base_dir", "data/blobs")
	v.SetDefault("output.blob.bucket", "")
	v.SetDefault("output.blob.prefix", "wuzzuf")
	v.SetDefault("output.postgres.dsn", "")
	v.SetDefault("output.postgres.jobs_table", "job_postings")
	v.SetDefault("output.postgres.links_table", "job_links")
	v.SetDefault("output.sqlite.path", "")
	v.SetDefault("output.kafka.brokers", []string{})
	v.SetDefault("output.kafka.topic", "wuzzuf-jobs")
	v.SetDefault("output.pubsub.project_id", "")
	v.SetDefault("output.pubsub.topic", "wuzzuf-jobs")
	v.SetDefault("status.provider", "memory")
	v.SetDefault("status.redis_addr", "")
	v.SetDefault("status.key_prefix", "wuzzuf:run:")
	v.SetDefault("status.ttl_seconds", 86400)
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, ok := dates.ParseMaxAge(c.Run.MaxJobAge); !ok {
		return fmt.Errorf("run.max_job_age must be one of all, 7 days, 30 days, 90 days; got %q", c.Run.MaxJobAge)
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.HTTP.BackoffMaxMs < c.HTTP.BackoffInitialMs {
		return fmt.Errorf("http.backoff_max_ms must be >= http.backoff_initial_ms")
	}
	switch c.Output.Blob.Provider {
	case "local":
		if strings.TrimSpace(c.Output.Blob.BaseDir) == "" {
			return fmt.Errorf("output.blob.base_dir is required for the local provider")
		}
	case "gcs":
		if c.Output.Blob.Bucket == "" {
			return fmt.Errorf("output.blob.bucket is required for the gcs provider")
		}
	}
	if len(c.Output.Kafka.Brokers) > 0 && c.Output.Kafka.Topic == "" {
		return fmt.Errorf("output.kafka.topic is required when brokers are set")
	}
	if c.Output.PubSub.ProjectID != "" && c.Output.PubSub.Topic == "" {
		return fmt.Errorf("output.pubsub.topic is required when project_id is set")
	}
	if c.Status.Provider == "redis" && c.Status.RedisAddr == "" {
		return fmt.Errorf("status.redis_addr is required for the redis provider")
	}
	return nil
}

// MaxJobAge returns the normalized age limit. Call after Validate.
func (c *Config) MaxJobAge() dates.MaxAge {
	age, _ := dates.ParseMaxAge(c.Run.MaxJobAge)
	return age
}

// HTTPTimeout converts the fetch timeout to a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// HandlerTimeout bounds handling of one fetched page.
func (c *Config) HandlerTimeout() time.Duration {
	return time.Duration(c.Crawler.HandlerTimeoutSeconds) * time.Second
}

// StatusTTL is how long a run snapshot survives in the status store.
func (c *Config) StatusTTL() time.Duration {
	return time.Duration(c.Status.TTLSeconds) * time.Second
}

// HeadlessNavTimeout bounds one rendered navigation.
func (c *Config) HeadlessNavTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSeconds) * time.Second
}
