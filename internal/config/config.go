package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/therocksalt/curator/internal/cache"
	"github.com/therocksalt/curator/internal/event"
	"github.com/therocksalt/curator/internal/location"
	"github.com/therocksalt/curator/internal/logger"
	"github.com/therocksalt/curator/internal/store"
)

// EnvPrefix is prepended to every variable name
const EnvPrefix = "ROCKSALT_"

// Config holds the curator configuration
type Config struct {
	// Storage
	StoreBackend string `env:"STORE" envDefault:"sqlite"`
	DBPath       string `env:"DB_PATH" envDefault:"~/.local/share/rocksalt/curator.db"`
	DataDir      string `env:"DATA_DIR" envDefault:"~/.local/share/rocksalt"`

	// Sources
	Sources          []string      `env:"SOURCES" envDefault:"bandsintown,songkick,slugmag,cityweekly" envSeparator:","`
	BandsintownAppID string        `env:"BANDSINTOWN_APP_ID"`
	SongkickAPIKey   string        `env:"SONGKICK_API_KEY"`
	SongkickMetroID  int           `env:"SONGKICK_METRO_ID" envDefault:"17318"`
	SlugMagPages     int           `env:"SLUGMAG_MAX_PAGES" envDefault:"5"`
	SlugMagDelay     time.Duration `env:"SLUGMAG_PAGE_DELAY" envDefault:"500ms"`
	Sequential       bool          `env:"SEQUENTIAL" envDefault:"false"`

	// Location
	HintCity     string `env:"HINT_CITY" envDefault:"Salt Lake City"`
	HintState    string `env:"HINT_STATE" envDefault:"UT"`
	HintRadius   int    `env:"HINT_RADIUS" envDefault:"50"`
	DefaultCity  string `env:"DEFAULT_CITY" envDefault:"Salt Lake City"`
	DefaultState string `env:"DEFAULT_STATE" envDefault:"UT"`
	TimeZone     string `env:"TIME_ZONE" envDefault:"America/Denver"`

	// Upstream HTTP
	HTTPTimeout   time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	RetryAttempts int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	CacheBackend  string        `env:"CACHE" envDefault:"memory"`
	RedisURL      string        `env:"REDIS_URL"`
	CachePrefix   string        `env:"CACHE_PREFIX" envDefault:"rocksalt:"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"1h"`

	// Service
	Schedule   string `env:"SCHEDULE" envDefault:"0 * * * *"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	CronSecret string `env:"CRON_SECRET"`

	// Notifications
	TelegramToken  string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID string `env:"TELEGRAM_CHAT_ID"`

	RulesFile string `env:"RULES_FILE"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadDotEnv copies variables from the given .env files (".env" when none)
// into the environment. Missing files are ignored; variables already set
// win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load parses the environment and validates the result
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses vars instead of the process environment when vars is
// non-nil
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{Prefix: EnvPrefix}
	if vars != nil {
		opts.Environment = vars
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and ranges
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case store.BackendSQLite, store.BackendFile:
	default:
		return fmt.Errorf("%sSTORE must be %q or %q, got %q", EnvPrefix, store.BackendSQLite, store.BackendFile, c.StoreBackend)
	}

	switch c.CacheBackend {
	case cache.BackendMemory, cache.BackendNone:
	case cache.BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%sREDIS_URL is required when %sCACHE=redis", EnvPrefix, EnvPrefix)
		}
	default:
		return fmt.Errorf("%sCACHE must be memory, redis or none, got %q", EnvPrefix, c.CacheBackend)
	}

	if _, err := c.SourceList(); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("%sRETRY_ATTEMPTS must not be negative", EnvPrefix)
	}
	if c.HintRadius < 0 {
		return fmt.Errorf("%sHINT_RADIUS must not be negative", EnvPrefix)
	}
	return nil
}

// SourceList returns the enabled sources in configured order without
// duplicates
func (c *Config) SourceList() ([]event.Source, error) {
	seen := make(map[event.Source]bool, len(c.Sources))
	out := make([]event.Source, 0, len(c.Sources))
	for _, name := range c.Sources {
		if strings.TrimSpace(name) == "" {
			continue
		}
		src, err := event.ParseSource(name)
		if err != nil {
			return nil, err
		}
		if seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%sSOURCES names no sources", EnvPrefix)
	}
	return out, nil
}

// Location loads the configured time zone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// Hint returns the metro area passed to the API sources
func (c *Config) Hint() event.LocationHint {
	return event.LocationHint{City: c.HintCity, State: c.HintState, RadiusMiles: c.HintRadius}
}

// Fallback returns the location used when an address cannot be parsed
func (c *Config) Fallback() location.Location {
	return location.Location{City: c.DefaultCity, State: c.DefaultState}
}
