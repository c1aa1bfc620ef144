// Package app wires configuration, logging, metrics and the places client
// into ready-to-use coordinators.
package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ternarybob/arbor"

	"github.com/genc-murat/crystalplaces/internal/cache"
	"github.com/genc-murat/crystalplaces/internal/config"
	"github.com/genc-murat/crystalplaces/internal/coordinator"
	"github.com/genc-murat/crystalplaces/internal/core/models"
	"github.com/genc-murat/crystalplaces/internal/geo"
	"github.com/genc-murat/crystalplaces/internal/lifecycle"
	"github.com/genc-murat/crystalplaces/internal/metrics"
	"github.com/genc-murat/crystalplaces/internal/places"
)

var ErrMissingAPIKey = errors.New("places api key is not configured")

type App struct {
	Config   *config.Config
	Logger   arbor.ILogger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Env      *lifecycle.Environment
	Client   *places.Client
	Cache    *cache.TTLCache[[]models.Suggestion]
}

// New builds the application from cfg. The places namespace is not published
// until Load is called.
func New(cfg *config.Config, logger arbor.ILogger, opts ...places.ClientOption) (*App, error) {
	if cfg.Places.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = arbor.NewLogger()
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		Env:      lifecycle.NewEnvironment(),
		Cache:    cache.New[[]models.Suggestion](),
	}

	var reg prometheus.Registerer
	if cfg.Metrics.Enabled {
		reg = a.Registry
	}
	a.Metrics = metrics.NewMetrics(reg)

	clientOpts := []places.ClientOption{
		places.WithBaseURL(cfg.Places.BaseURL),
		places.WithHTTPClient(&http.Client{Timeout: cfg.Places.Timeout}),
		places.WithLogger(logger),
		places.WithRateLimit(cfg.Places.RateLimit),
		places.WithRetry(places.RetryStrategy{
			MaxAttempts:     cfg.Places.Retry.MaxAttempts,
			InitialInterval: cfg.Places.Retry.InitialInterval,
			MaxInterval:     cfg.Places.Retry.MaxInterval,
		}),
		places.WithSessionTokens(cfg.Places.SessionTokens),
	}
	a.Client = places.NewClient(cfg.Places.APIKey, append(clientOpts, opts...)...)

	logger.Info().
		Str("environment", cfg.Environment).
		Str("base_url", cfg.Places.BaseURL).
		Bool("metrics", cfg.Metrics.Enabled).
		Msg("Application initialized")

	return a, nil
}

// Load publishes the places namespace and fires the configured callback
func (a *App) Load() bool {
	return places.Load(a.Env, a.Client, a.Config.Autocomplete.CallbackName)
}

// CachePolicy translates the configured cache section
func (a *App) CachePolicy() coordinator.CachePolicy {
	c := a.Config.Autocomplete.Cache
	switch {
	case !c.Enabled:
		return coordinator.CacheDisabled()
	case c.Forever:
		return coordinator.CacheForever()
	default:
		return coordinator.CacheTTL(c.TTL)
	}
}

// NewCoordinator creates a coordinator with the configured defaults; opts are
// applied after them.
func (a *App) NewCoordinator(opts ...coordinator.Option) *coordinator.Coordinator {
	ac := a.Config.Autocomplete
	base := []coordinator.Option{
		coordinator.WithDebounce(ac.Debounce),
		coordinator.WithCache(a.CachePolicy()),
		coordinator.WithCacheKey(ac.CacheKey),
		coordinator.WithRequestOptions(ac.RequestOptions),
		coordinator.WithDefaultValue(ac.DefaultValue),
		coordinator.WithInitOnMount(ac.InitOnMount),
		coordinator.WithCallbackName(ac.CallbackName),
		coordinator.WithEnvironment(a.Env),
		coordinator.WithCacheStore(a.Cache),
		coordinator.WithLogger(a.Logger),
		coordinator.WithMetrics(a.Metrics),
	}
	return coordinator.New(append(base, opts...)...)
}

func (a *App) Geocode(ctx context.Context, req models.GeocodeRequest) ([]models.GeocodeResult, error) {
	return geo.GetGeocode(ctx, a.Env.Maps(), req, a.Logger)
}

func (a *App) Details(ctx context.Context, req models.DetailsRequest) (models.PlaceDetails, error) {
	return geo.GetDetails(ctx, a.Env.Maps(), req, a.Logger)
}

// MetricsHandler exposes the registry in the Prometheus text format
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
}

func (a *App) Close() {
	a.Client.Close()
	a.Logger.Info().Msg("Application closed")
}
