package cli

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/therocksalt/curator/internal/cache"
	"github.com/therocksalt/curator/internal/config"
	"github.com/therocksalt/curator/internal/curator"
	"github.com/therocksalt/curator/internal/event"
	"github.com/therocksalt/curator/internal/filter"
	"github.com/therocksalt/curator/internal/location"
	"github.com/therocksalt/curator/internal/logger"
	"github.com/therocksalt/curator/internal/metrics"
	"github.com/therocksalt/curator/internal/notifier"
	"github.com/therocksalt/curator/internal/scheduler"
	"github.com/therocksalt/curator/internal/scraper"
	"github.com/therocksalt/curator/internal/store"
	"github.com/therocksalt/curator/internal/ticketing"
)

// app holds the long-lived pieces one command needs
type app struct {
	cfg     *config.Config
	store   store.Store
	loc     *time.Location
	cache   cache.Cache
	metrics *metrics.Metrics // nil unless serving
}

// newApp opens the store; upstream pieces are built on demand
func newApp(c *config.Config) (*app, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	s, err := store.Open(store.Options{
		Backend: c.StoreBackend,
		Path:    c.DBPath,
		DataDir: c.DataDir,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", c.StoreBackend, err)
	}
	logger.Debug("Store opened", logger.Fields{"backend": c.StoreBackend})

	return &app{cfg: c, store: s, loc: loc}, nil
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Warn("Closing cache failed", logger.Fields{"error": err.Error()})
		}
	}
	if err := a.store.Close(); err != nil {
		logger.Warn("Closing store failed", logger.Fields{"error": err.Error()})
	}
}

// httpClient returns a client whose GETs go through the response cache
func (a *app) httpClient() (*http.Client, error) {
	if a.cache == nil && a.cfg.CacheBackend != cache.BackendNone {
		c, err := cache.New(cache.Options{
			Backend:  a.cfg.CacheBackend,
			RedisURL: a.cfg.RedisURL,
			Prefix:   a.cfg.CachePrefix,
			TTL:      a.cfg.CacheTTL,
		})
		if err != nil {
			return nil, err
		}
		a.cache = c
	}

	client := cache.NewClient(a.cfg.HTTPTimeout, a.cache, a.cfg.CacheTTL)
	if t, ok := client.Transport.(*cache.Transport); ok && a.metrics != nil {
		t.Observe = a.metrics.ObserveCache
	}
	return client, nil
}

// sources builds the adapters for names, in order
func (a *app) sources(names []event.Source) ([]curator.Source, error) {
	client, err := a.httpClient()
	if err != nil {
		return nil, err
	}

	apiOpts := ticketing.Options{HTTPClient: client, MaxRetries: a.cfg.RetryAttempts}
	fetcher := scraper.NewFetcher(scraper.FetcherOptions{HTTPClient: client, MaxRetries: a.cfg.RetryAttempts})

	out := make([]curator.Source, 0, len(names))
	for _, name := range names {
		switch name {
		case event.SourceBandsintown:
			out = append(out, ticketing.NewBandsintown(a.cfg.BandsintownAppID, apiOpts))
		case event.SourceSongkick:
			out = append(out, ticketing.NewSongkick(a.cfg.SongkickAPIKey, a.cfg.SongkickMetroID, apiOpts))
		case event.SourceSlugMag:
			out = append(out, scraper.NewSlugMag(fetcher, scraper.SlugMagOptions{
				MaxPages:  a.cfg.SlugMagPages,
				PageDelay: a.cfg.SlugMagDelay,
			}))
		case event.SourceCityWeekly:
			out = append(out, scraper.NewCityWeekly(fetcher, "", a.loc))
		default:
			return nil, fmt.Errorf("unknown source: %q", name)
		}
	}
	return out, nil
}

// curator builds a Curator over the store for the named sources
func (a *app) curator(names []event.Source, sequential bool) (*curator.Curator, error) {
	rules, err := config.LoadRules(a.cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	sources, err := a.sources(names)
	if err != nil {
		return nil, err
	}

	return curator.New(a.store, curator.Options{
		Sources:    sources,
		Filter:     filter.New(rules.Filter),
		Parser:     location.NewParser(a.cfg.Fallback(), rules.Cities),
		Location:   a.loc,
		Hint:       a.cfg.Hint(),
		Sequential: sequential || a.cfg.Sequential,
	}), nil
}

// notifyHook wraps the named notifier as a report hook; kind "" yields none
func (a *app) notifyHook(kind string, out io.Writer) (scheduler.Hook, error) {
	n, err := notifier.New(kind, notifier.Options{
		TelegramToken:  a.cfg.TelegramToken,
		TelegramChatID: a.cfg.TelegramChatID,
		Output:         out,
	})
	if err != nil || n == nil {
		return nil, err
	}
	return n.Notify, nil
}

// runner combines the curator with the given hooks, skipping nil ones
func runner(c scheduler.Curation, hooks ...scheduler.Hook) *scheduler.Runner {
	kept := make([]scheduler.Hook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			kept = append(kept, h)
		}
	}
	return scheduler.NewRunner(c, kept...)
}
