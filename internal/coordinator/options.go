package coordinator

import (
	"time"

	"github.com/ternarybob/arbor"

	"github.com/genc-murat/crystalplaces/internal/cache"
	"github.com/genc-murat/crystalplaces/internal/core/models"
	"github.com/genc-murat/crystalplaces/internal/core/ports"
	"github.com/genc-murat/crystalplaces/internal/lifecycle"
	"github.com/genc-murat/crystalplaces/internal/metrics"
)

// DefaultDebounce is the quiet period before a fetch is issued
const DefaultDebounce = 200 * time.Millisecond

// CachePolicy decides whether and for how long results are cached
type CachePolicy struct {
	enabled bool
	ttl     time.Duration
}

// CacheDefault caches results for cache.DefaultTTL
func CacheDefault() CachePolicy {
	return CachePolicy{enabled: true, ttl: cache.DefaultTTL}
}

// CacheTTL caches results for the given number of seconds. Zero or a negative
// value selects the default TTL.
func CacheTTL(seconds int) CachePolicy {
	if seconds <= 0 {
		return CacheDefault()
	}
	return CachePolicy{enabled: true, ttl: time.Duration(seconds) * time.Second}
}

// CacheForever caches results without expiry
func CacheForever() CachePolicy {
	return CachePolicy{enabled: true}
}

func CacheDisabled() CachePolicy {
	return CachePolicy{}
}

func (p CachePolicy) Enabled() bool {
	return p.enabled
}

// TTL returns the entry lifetime; zero means no expiry
func (p CachePolicy) TTL() time.Duration {
	return p.ttl
}

type Option func(*config)

type config struct {
	debounce       time.Duration
	cachePolicy    CachePolicy
	cacheKey       string
	requestOptions map[string]interface{}
	defaultValue   string
	initOnMount    bool
	callbackName   string
	maps           ports.Maps
	env            *lifecycle.Environment
	store          ports.SuggestionCache
	onLoadError    func(error)
	listener       func(models.SuggestionState)
	logger         arbor.ILogger
	metrics        *metrics.Metrics
}

func defaultConfig() config {
	return config{
		debounce:    DefaultDebounce,
		cachePolicy: CacheDefault(),
		cacheKey:    cache.DefaultPartition,
		initOnMount: true,
	}
}

// WithDebounce sets the quiet period; zero fetches on every SetValue
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		c.debounce = d
	}
}

func WithCache(p CachePolicy) Option {
	return func(c *config) {
		c.cachePolicy = p
	}
}

// WithCacheKey selects the cache partition. An empty key keeps the default.
func WithCacheKey(key string) Option {
	return func(c *config) {
		if key != "" {
			c.cacheKey = key
		}
	}
}

// WithRequestOptions sets static fields merged into every request
func WithRequestOptions(opts map[string]interface{}) Option {
	return func(c *config) {
		c.requestOptions = opts
	}
}

func WithDefaultValue(v string) Option {
	return func(c *config) {
		c.defaultValue = v
	}
}

// WithInitOnMount controls whether the service is resolved at creation
func WithInitOnMount(b bool) Option {
	return func(c *config) {
		c.initOnMount = b
	}
}

// WithCallbackName registers the coordinator's init under name when the
// namespace is not loaded yet
func WithCallbackName(name string) Option {
	return func(c *config) {
		c.callbackName = name
	}
}

// WithMaps injects the maps namespace instead of reading the environment
func WithMaps(m ports.Maps) Option {
	return func(c *config) {
		c.maps = m
	}
}

func WithEnvironment(env *lifecycle.Environment) Option {
	return func(c *config) {
		c.env = env
	}
}

// WithCacheStore replaces the process-wide suggestion cache
func WithCacheStore(store ports.SuggestionCache) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithLoadErrorHandler receives load errors instead of the logger
func WithLoadErrorHandler(fn func(error)) Option {
	return func(c *config) {
		c.onLoadError = fn
	}
}

// WithListener observes every suggestion state change. It is called with the
// coordinator locked and must not call back into it.
func WithListener(fn func(models.SuggestionState)) Option {
	return func(c *config) {
		c.listener = fn
	}
}

func WithLogger(logger arbor.ILogger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}
