// Package bootstrap wires the helpline components from a Config.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rakshak-ai/internal/audit"
	"github.com/rakshak-ai/internal/cache"
	"github.com/rakshak-ai/internal/callers"
	"github.com/rakshak-ai/internal/config"
	"github.com/rakshak-ai/internal/db"
	"github.com/rakshak-ai/internal/directory"
	"github.com/rakshak-ai/internal/geocode"
	"github.com/rakshak-ai/internal/httpclient"
	"github.com/rakshak-ai/internal/llm"
	"github.com/rakshak-ai/internal/locator"
	"github.com/rakshak-ai/internal/normalize"
	"github.com/rakshak-ai/internal/resolver"
	"github.com/rakshak-ai/internal/web"
	"github.com/rakshak-ai/internal/whatsapp"
)

// App holds every long-lived component. Optional integrations are nil when
// their credentials are missing.
type App struct {
	Config     *config.Config
	Conn       *db.Connection
	Store      *directory.SQLStore
	Resolver   *resolver.Resolver
	Names      *cache.StationNames
	Redis      *cache.RedisShared
	Fallback   *geocode.Fallback
	Normalizer *normalize.Normalizer
	Selector   *locator.Selector
	Callers    *callers.Store
	Audit      *audit.Tracker
	WhatsApp   *whatsapp.Client

	log *slog.Logger
}

// New connects to the database and builds the component graph. Only the
// database is required; Redis, maps, OpenAI and WhatsApp degrade with a
// warning.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	app := &App{Config: cfg, log: log}

	conn, err := db.NewConnection(ctx, cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxConnections)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	app.Conn = conn
	app.Store = directory.NewSQLStore(conn)
	app.Callers = callers.NewStore(conn)
	app.Audit = audit.NewTracker(conn)

	if cfg.Redis.Host != "" {
		shared, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Timeouts.Store,
		})
		if err != nil {
			log.Warn("shared cache disabled", "err", err)
		} else {
			app.Redis = shared
		}
	}

	app.Resolver = resolver.New(app.Store,
		resolver.WithThreshold(cfg.Resolution.MatchThreshold),
		resolver.WithTimeout(cfg.Timeouts.Store),
		resolver.WithLogger(log))

	nameOpts := []cache.StationNamesOption{
		cache.WithTTL(cfg.Resolution.StationCacheTTL),
		cache.WithQueryTimeout(cfg.Timeouts.Store),
		cache.WithLogger(log),
	}
	geoOpts := []geocode.Option{
		geocode.WithRegionHint(cfg.Maps.RegionHint),
		geocode.WithRadius(cfg.Maps.RadiusMeters),
		geocode.WithTimeout(cfg.Timeouts.Geocode),
		geocode.WithLogger(log),
	}
	if app.Redis != nil {
		nameOpts = append(nameOpts, cache.WithShared(app.Redis))
		geoOpts = append(geoOpts, geocode.WithShared(app.Redis))
	}
	app.Names = cache.NewStationNames(app.Store, nameOpts...)

	provider, err := app.mapsProvider()
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Fallback = geocode.New(provider, app.Resolver, geoOpts...)

	gen, err := app.generator()
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Normalizer = normalize.New(gen, app.Names, normalize.WithLogger(log))

	app.Selector = locator.New(app.Resolver, app.Normalizer, app.Fallback,
		locator.WithAudit(app.Audit),
		locator.WithLogger(log))

	if err := app.whatsapp(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// mapsProvider returns nil (and no error) without an API key.
func (a *App) mapsProvider() (geocode.Provider, error) {
	if a.Config.Maps.APIKey == "" {
		a.log.Warn("geocoding disabled: GOOGLE_MAPS_API_KEY not set")
		return nil, nil
	}
	client, err := httpclient.New(a.Config.SocksProxy, a.Config.Timeouts.Geocode)
	if err != nil {
		return nil, fmt.Errorf("maps http client: %w", err)
	}
	provider, err := geocode.NewGoogleProvider(geocode.GoogleOptions{
		APIKey:     a.Config.Maps.APIKey,
		BaseURL:    a.Config.Maps.BaseURL,
		HTTPClient: client,
	})
	if err != nil {
		return nil, fmt.Errorf("maps provider: %w", err)
	}
	return provider, nil
}

// generator returns nil (and no error) without an API key.
func (a *App) generator() (llm.Generator, error) {
	if a.Config.OpenAI.APIKey == "" {
		a.log.Warn("text normalization disabled: OPENAI_API_KEY not set")
		return nil, nil
	}
	client, err := httpclient.New(a.Config.SocksProxy, a.Config.Timeouts.LLM)
	if err != nil {
		return nil, fmt.Errorf("openai http client: %w", err)
	}
	gen, err := llm.NewOpenAI(llm.Options{
		APIKey:     a.Config.OpenAI.APIKey,
		BaseURL:    a.Config.OpenAI.BaseURL,
		Model:      a.Config.OpenAI.Model,
		Timeout:    a.Config.Timeouts.LLM,
		HTTPClient: client,
	})
	if err != nil {
		return nil, err
	}
	return gen, nil
}

func (a *App) whatsapp() error {
	wa := a.Config.WhatsApp
	if wa.PhoneID == "" || wa.AccessToken == "" {
		a.log.Warn("officer alerts disabled: WhatsApp credentials not set")
		return nil
	}
	client, err := httpclient.New(a.Config.SocksProxy, a.Config.Timeouts.Alert)
	if err != nil {
		return fmt.Errorf("whatsapp http client: %w", err)
	}
	a.WhatsApp, err = whatsapp.New(whatsapp.Config{
		BaseURL:       wa.BaseURL,
		PhoneID:       wa.PhoneID,
		AccessToken:   wa.AccessToken,
		OfficerNumber: wa.OfficerNumber,
		HTTPClient:    client,
		Logger:        a.log,
	})
	return err
}

// ServerDeps returns the tool server's dependencies.
func (a *App) ServerDeps() web.Deps {
	deps := web.Deps{
		Locator:  a.Selector,
		Stations: a.Names,
		Store:    a.Store,
		Callers:  a.Callers,
	}
	if a.WhatsApp != nil {
		deps.Alerter = a.WhatsApp
	}
	return deps
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.log.Warn("redis close", "err", err)
		}
	}
	if a.Conn != nil {
		return a.Conn.Close()
	}
	return nil
}
