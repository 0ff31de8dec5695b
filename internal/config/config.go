package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"danawa/crawler/internal/domain"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App        AppConfig         `mapstructure:"app"`
	Catalog    CatalogConfig     `mapstructure:"catalog"`
	Renderer   RendererConfig    `mapstructure:"renderer"`
	Database   DatabaseConfig    `mapstructure:"database"`
	Redis      RedisConfig       `mapstructure:"redis"`
	Webhook    WebhookConfig     `mapstructure:"webhook"`
	Log        LogConfig         `mapstructure:"log"`
	Categories []domain.Category `mapstructure:"categories"`
}

// AppConfig holds scheduling and output settings
type AppConfig struct {
	Schedule    string `mapstructure:"schedule"` // cron expression, minute resolution
	RunOnStart  bool   `mapstructure:"run_on_start"`
	RunOnce     bool   `mapstructure:"run_once"`
	OutputDir   string `mapstructure:"output_dir"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// CatalogConfig describes the target catalog and where things live in its markup
type CatalogConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	PageSize         int           `mapstructure:"page_size"`
	MaxPages         int           `mapstructure:"max_pages"`
	LoadTimeout      time.Duration `mapstructure:"load_timeout"`
	SortLinkText     string        `mapstructure:"sort_link_text"`
	PageSizeSelector string        `mapstructure:"page_size_selector"`
	LoadingIndicator string        `mapstructure:"loading_indicator"`
	ListingSelector  string        `mapstructure:"listing_selector"`
	NameSelector     string        `mapstructure:"name_selector"`
	PriceSelector    string        `mapstructure:"price_selector"`
	TotalSelector    string        `mapstructure:"total_selector"`
	NextPageSelector string        `mapstructure:"next_page_selector"`
	AdvanceScript    string        `mapstructure:"advance_script"` // fmt verb %d receives the target page
	PendingMarker    string        `mapstructure:"pending_marker"`
}

// CategoryURL returns the listing URL of one sub-category stream
func (c CatalogConfig) CategoryURL(sub domain.SubCategory) string {
	return c.BaseURL + "?cate=" + sub.String()
}

// RendererConfig holds browser session settings
type RendererConfig struct {
	Headless             bool   `mapstructure:"headless"`
	BinPath              string `mapstructure:"bin_path"`
	MaxActionsPerSecond  int    `mapstructure:"max_actions_per_second"`
	NavigationTimeoutSec int    `mapstructure:"navigation_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns a pgx key/value connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	Database int           `mapstructure:"database"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
	Stream   string        `mapstructure:"stream"`
}

// WebhookConfig configures the optional progress webhook
type WebhookConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig configures logrus
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// Load loads configuration from config.yaml in the working directory, or
// from the file named by CRAWLER_CONFIG, with environment variable overrides
func Load() (*Config, error) {
	v := viper.New()
	if path := os.Getenv("CRAWLER_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	return load(v)
}

// LoadFile loads configuration from an explicit path
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config.yaml file not found in current directory")
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if len(config.Categories) == 0 {
		config.Categories = domain.DefaultCategories
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file overrides anything
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// Defaults are static; decoding them cannot fail.
	_ = v.Unmarshal(&config)
	config.Categories = domain.DefaultCategories
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.schedule", "0 0 * * *")
	v.SetDefault("app.run_on_start", false)
	v.SetDefault("app.run_once", false)
	v.SetDefault("app.output_dir", "./output")
	v.SetDefault("app.metrics_addr", "")

	v.SetDefault("catalog.base_url", "https://prod.danawa.com/list/")
	v.SetDefault("catalog.page_size", 90)
	v.SetDefault("catalog.max_pages", 500)
	v.SetDefault("catalog.load_timeout", 100*time.Second)
	v.SetDefault("catalog.sort_link_text", "신상품순")
	v.SetDefault("catalog.page_size_selector", ".qnt_selector")
	v.SetDefault("catalog.loading_indicator", "#danawa_container > div.product_list_cover > div > img")
	v.SetDefault("catalog.listing_selector", "div.main_prodlist > ul.product_list > li.prod_item > div.prod_main_info")
	v.SetDefault("catalog.name_selector", "p.prod_name > a")
	v.SetDefault("catalog.price_selector", "p.price_sect > a > strong")
	v.SetDefault("catalog.total_selector", "div.prod_list_tab > ul > li.tab_item.selected > a > strong.list_num")
	v.SetDefault("catalog.next_page_selector", "a.edge_nav.nav_next")
	v.SetDefault("catalog.advance_script", "() => movePage(%d)")
	v.SetDefault("catalog.pending_marker", "가격비교예정")

	v.SetDefault("renderer.headless", true)
	v.SetDefault("renderer.bin_path", "")
	v.SetDefault("renderer.max_actions_per_second", 2)
	v.SetDefault("renderer.navigation_timeout", 60)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "equipments")
	v.SetDefault("database.user", "crawler")
	v.SetDefault("database.password", "crawler_pass")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.lock_ttl", 6*time.Hour)
	v.SetDefault("redis.stream", "danawa:stream:progress")

	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog base URL cannot be empty")
	}
	parsedURL, err := url.Parse(c.Catalog.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid catalog base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("catalog base URL must include a host")
	}

	if c.Catalog.PageSize <= 0 {
		return fmt.Errorf("page size must be positive")
	}
	if c.Catalog.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.Catalog.LoadTimeout <= 0 {
		return fmt.Errorf("load timeout must be positive")
	}
	if c.Catalog.ListingSelector == "" || c.Catalog.NameSelector == "" || c.Catalog.PriceSelector == "" {
		return fmt.Errorf("listing, name and price selectors are required")
	}
	if !strings.Contains(c.Catalog.AdvanceScript, "%d") {
		return fmt.Errorf("advance script must contain a %%d page placeholder")
	}
	if c.App.Schedule == "" && !c.App.RunOnce {
		return fmt.Errorf("schedule cannot be empty unless run_once is set")
	}
	if c.App.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	if c.Renderer.MaxActionsPerSecond < 0 {
		return fmt.Errorf("max actions per second cannot be negative")
	}
	if c.Webhook.URL != "" {
		if u, err := url.Parse(c.Webhook.URL); err != nil || u.Host == "" {
			return fmt.Errorf("invalid webhook URL %q", c.Webhook.URL)
		}
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log format must be text or json")
	}

	return validateCategories(c.Categories)
}

func validateCategories(categories []domain.Category) error {
	if len(categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	ids := make(map[int]struct{}, len(categories))
	names := make(map[string]struct{}, len(categories))
	for _, cat := range categories {
		if cat.Name == "" {
			return fmt.Errorf("category %d has no name", cat.ID)
		}
		if _, ok := ids[cat.ID]; ok {
			return fmt.Errorf("duplicate category id %d", cat.ID)
		}
		if _, ok := names[cat.Name]; ok {
			return fmt.Errorf("duplicate category name %q", cat.Name)
		}
		ids[cat.ID] = struct{}{}
		names[cat.Name] = struct{}{}

		if len(cat.SubCategories) == 0 {
			return fmt.Errorf("category %q has no sub-categories", cat.Name)
		}
		subs := make(map[domain.SubCategory]struct{}, len(cat.SubCategories))
		for _, sub := range cat.SubCategories {
			if _, ok := subs[sub]; ok {
				return fmt.Errorf("category %q lists sub-category %d twice", cat.Name, sub)
			}
			subs[sub] = struct{}{}
		}
	}
	return nil
}
