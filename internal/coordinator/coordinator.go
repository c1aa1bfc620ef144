// Package coordinator turns a rapidly changing text input into place
// suggestions: it debounces fetches, serves repeated lookups from a TTL cache
// and commits only the response that belongs to the latest input.
package coordinator

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/genc-murat/crystalplaces/internal/cache"
	"github.com/genc-murat/crystalplaces/internal/core/models"
	"github.com/genc-murat/crystalplaces/internal/core/ports"
	"github.com/genc-murat/crystalplaces/internal/debounce"
	"github.com/genc-murat/crystalplaces/internal/lifecycle"
	"github.com/genc-murat/crystalplaces/internal/metrics"
	"github.com/genc-murat/crystalplaces/internal/util"
)

var sharedCache = cache.New[[]models.Suggestion]()

// SharedCache is the store used by coordinators without WithCacheStore
func SharedCache() *cache.TTLCache[[]models.Suggestion] {
	return sharedCache
}

// requestTag identifies the request whose response may be committed. An
// empty id matches no request.
type requestTag struct {
	id    string
	input string
}

type Coordinator struct {
	mu          sync.Mutex
	cfg         config
	value       string
	suggestions models.SuggestionState
	closed      bool

	latest    *util.Latest[requestTag]
	manager   *lifecycle.Manager
	debouncer *debounce.Debouncer[string]
	store     ports.SuggestionCache
	logger    arbor.ILogger
	metrics   *metrics.Metrics
}

func New(opts ...Option) *Coordinator {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Coordinator{
		cfg:         cfg,
		value:       cfg.defaultValue,
		suggestions: models.DefaultSuggestionState(),
		latest:      util.NewLatest(requestTag{input: cfg.defaultValue}),
		store:       cfg.store,
		logger:      cfg.logger,
		metrics:     cfg.metrics,
	}
	if c.store == nil {
		c.store = sharedCache
	}
	if c.logger == nil {
		c.logger = arbor.NewLogger()
	}
	if c.metrics == nil {
		c.metrics = metrics.NewMetrics(nil)
	}

	report := cfg.onLoadError
	if report == nil {
		report = func(err error) {
			c.logger.Error().Err(err).Msg("Failed to initialize places autocomplete")
		}
	}

	mgrOpts := []lifecycle.Option{
		lifecycle.WithCallbackName(cfg.callbackName),
		lifecycle.WithLogger(c.logger),
		lifecycle.WithReporter(func(err error) {
			c.metrics.IncrLoadError()
			report(err)
		}),
	}
	if cfg.maps != nil {
		mgrOpts = append(mgrOpts, lifecycle.WithMaps(cfg.maps))
	}
	c.manager = lifecycle.NewManager(cfg.env, mgrOpts...)
	c.debouncer = debounce.New(c.fetch, cfg.debounce)

	c.manager.Mount(cfg.initOnMount)
	return c
}

// Value returns the current input text
func (c *Coordinator) Value() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Suggestions returns a copy of the current state
func (c *Coordinator) Suggestions() models.SuggestionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.suggestions
	state.Data = cloneSuggestions(c.suggestions.Data)
	return state
}

// Ready reports whether the autocomplete service is resolved
func (c *Coordinator) Ready() bool {
	return c.manager.Ready()
}

// Init resolves the autocomplete service; safe to call repeatedly
func (c *Coordinator) Init() bool {
	return c.manager.Init()
}

// SetValue updates the input immediately and schedules a fetch. With
// shouldFetch false or an empty text the suggestions are cleared instead.
func (c *Coordinator) SetValue(text string, shouldFetch ...bool) {
	fetch := len(shouldFetch) == 0 || shouldFetch[0]

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.value = text
	// Any response still in flight now belongs to an outdated input
	c.latest.Store(requestTag{input: text})

	if !fetch || text == "" {
		c.debouncer.Cancel()
		c.setSuggestions(models.DefaultSuggestionState())
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if !c.manager.Ready() {
		return
	}
	c.debouncer.Call(text)
}

// ClearSuggestions resets the suggestions. A response still in flight is
// discarded when it arrives.
func (c *Coordinator) ClearSuggestions() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.latest.Store(requestTag{input: c.value})
	c.setSuggestions(models.DefaultSuggestionState())
}

// ClearCache removes the cached results for the given inputs, or the whole
// partition of this coordinator when none is given. Suggestions are kept.
func (c *Coordinator) ClearCache(inputs ...string) {
	if len(inputs) == 0 {
		c.store.Clear(c.cfg.cacheKey)
		return
	}

	keys := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if key, ok := c.cacheKeyFor(models.NewSuggestionRequest(input, c.cfg.requestOptions)); ok {
			keys = append(keys, key)
		}
	}
	if len(keys) > 0 {
		c.store.Clear(c.cfg.cacheKey, keys...)
	}
}

// Close cancels a pending fetch and releases the load callback
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.latest.Store(requestTag{})
	c.mu.Unlock()

	c.debouncer.Stop()
	c.manager.Close()
}

// fetch runs when the debounce window closes
func (c *Coordinator) fetch(input string) {
	svc, ok := c.manager.Service()
	if !ok {
		return
	}

	c.mu.Lock()
	if c.closed || input != c.value {
		c.mu.Unlock()
		return
	}
	if input == "" {
		c.setSuggestions(models.DefaultSuggestionState())
		c.mu.Unlock()
		return
	}

	tag := requestTag{id: uuid.NewString(), input: input}
	c.latest.Store(tag)
	c.setSuggestions(models.LoadingSuggestionState())

	req := models.NewSuggestionRequest(input, c.cfg.requestOptions)
	key, cacheable := "", false
	if c.cfg.cachePolicy.Enabled() {
		key, cacheable = c.cacheKeyFor(req)
	}
	if cacheable {
		if data, hit := c.store.Get(c.cfg.cacheKey, key); hit {
			c.metrics.IncrCacheHit(c.cfg.cacheKey)
			c.setSuggestions(models.SuggestionState{Status: models.StatusOK, Data: cloneSuggestions(data)})
			c.mu.Unlock()
			return
		}
		c.metrics.IncrCacheMiss(c.cfg.cacheKey)
	}
	c.mu.Unlock()

	c.metrics.IncrRequest()
	c.logger.Debug().
		Str("request_id", tag.id).
		Str("input", input).
		Msg("Requesting place predictions")

	start := time.Now()
	svc.GetPlacePredictions(req, func(data []models.Suggestion, status string) {
		c.metrics.ObserveCall("autocomplete", time.Since(start))
		c.complete(tag, key, cacheable, data, status)
	})
}

func (c *Coordinator) complete(tag requestTag, key string, cacheable bool, data []models.Suggestion, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.latest.Load() != tag {
		c.metrics.IncrStaleResponse()
		c.logger.Debug().
			Str("request_id", tag.id).
			Str("input", tag.input).
			Str("status", status).
			Msg("Discarding response for outdated input")
		return
	}
	c.metrics.AddResponse(status)

	if status != models.StatusOK {
		c.setSuggestions(models.SuggestionState{Status: status, Data: []models.Suggestion{}})
		return
	}

	if data == nil {
		data = []models.Suggestion{}
	}
	if cacheable {
		c.store.Set(c.cfg.cacheKey, key, cloneSuggestions(data), c.cfg.cachePolicy.TTL())
	}
	c.setSuggestions(models.SuggestionState{Status: models.StatusOK, Data: data})
}

// cacheKeyFor serializes the request fields; json orders map keys, so equal
// requests produce equal keys
func (c *Coordinator) cacheKeyFor(req models.SuggestionRequest) (string, bool) {
	raw, err := json.Marshal(req.Params())
	if err != nil {
		c.logger.Warn().Err(err).Msg("Request options cannot be serialized, caching skipped")
		return "", false
	}
	return string(raw), true
}

func (c *Coordinator) setSuggestions(state models.SuggestionState) {
	c.suggestions = state
	if c.cfg.listener != nil {
		c.cfg.listener(state)
	}
}

// cloneSuggestions keeps cached slices apart from the ones handed to callers.
// The suggestion maps themselves are shared.
func cloneSuggestions(data []models.Suggestion) []models.Suggestion {
	return append([]models.Suggestion{}, data...)
}
