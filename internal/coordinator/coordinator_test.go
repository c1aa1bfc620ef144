package coordinator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genc-murat/crystalplaces/internal/cache"
	"github.com/genc-murat/crystalplaces/internal/core/models"
	"github.com/genc-murat/crystalplaces/internal/lifecycle"
	"github.com/genc-murat/crystalplaces/internal/places/placestest"
)

const callbackName = "initMap"

var (
	data       = []models.Suggestion{{"place_id": "0109"}}
	cachedData = []models.Suggestion{{"place_id": "1119"}}

	okSuggestions = models.SuggestionState{Status: models.StatusOK, Data: data}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

type stateRecorder struct {
	mu     sync.Mutex
	states []models.SuggestionState
}

func (r *stateRecorder) record(s models.SuggestionState) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *stateRecorder) snapshot() []models.SuggestionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.SuggestionState(nil), r.states...)
}

type errorCounter struct {
	mu sync.Mutex
	n  int
}

func (e *errorCounter) report(error) {
	e.mu.Lock()
	e.n++
	e.mu.Unlock()
}

func (e *errorCounter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.n
}

// newTestCoordinator builds a coordinator with no debounce, no caching, an
// isolated environment and a private cache store
func newTestCoordinator(t *testing.T, opts ...Option) *Coordinator {
	t.Helper()
	base := []Option{
		WithDebounce(0),
		WithCache(CacheDisabled()),
		WithEnvironment(lifecycle.NewEnvironment()),
		WithCacheStore(cache.New[[]models.Suggestion]()),
		WithLoadErrorHandler(func(error) {}),
	}
	c := New(append(base, opts...)...)
	t.Cleanup(c.Close)
	return c
}

func TestCoordinatorValue(t *testing.T) {
	c := newTestCoordinator(t, WithMaps(placestest.NewMaps(data...)))
	assert.Equal(t, "", c.Value())

	c = newTestCoordinator(t, WithMaps(placestest.NewMaps(data...)), WithDefaultValue("Welly"))
	assert.Equal(t, "Welly", c.Value())
	assert.Equal(t, models.DefaultSuggestionState(), c.Suggestions(), "no suggestions are fetched for the default value")

	c.SetValue("test")
	assert.Equal(t, "test", c.Value())
}

func TestCoordinatorSuggestions(t *testing.T) {
	maps := placestest.NewMaps(data...)
	maps.Lib.Autocomplete.Manual = true
	c := newTestCoordinator(t, WithMaps(maps))
	assert.Equal(t, models.DefaultSuggestionState(), c.Suggestions())

	c.SetValue("")
	assert.Equal(t, models.DefaultSuggestionState(), c.Suggestions())

	c.SetValue("test", false)
	assert.Equal(t, models.DefaultSuggestionState(), c.Suggestions())
	assert.Empty(t, maps.Lib.Autocomplete.Calls(), "no request should be made without fetching")

	c.SetValue("test")
	assert.Equal(t, models.LoadingSuggestionState(), c.Suggestions())

	calls := maps.Lib.Autocomplete.Calls()
	require.Len(t, calls, 1)
	calls[0].Resolve(data, models.StatusOK)
	assert.Equal(t, okSuggestions, c.Suggestions())

	t.Run("failure", func(t *testing.T) {
		failing := &placestest.Maps{Lib: &placestest.Places{
			Autocomplete: placestest.NewAutocomplete("ERROR"),
		}}
		c := newTestCoordinator(t, WithMaps(failing))
		c.SetValue("test")
		assert.Equal(t, models.SuggestionState{Status: "ERROR", Data: []models.Suggestion{}}, c.Suggestions())
	})
}

func TestCoordinatorTransitions(t *testing.T) {
	maps := placestest.NewMaps(data...)
	maps.Lib.Autocomplete.Delay = 50 * time.Millisecond
	rec := &stateRecorder{}
	c := newTestCoordinator(t, WithMaps(maps), WithListener(rec.record))

	assert.Equal(t, models.DefaultSuggestionState(), c.Suggestions())
	c.SetValue("test")
	assert.Equal(t, models.LoadingSuggestionState(), c.Suggestions())

	assert.Eventually(t, func() bool {
		return !c.Suggestions().Loading
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, okSuggestions, c.Suggestions())
	assert.Equal(t, []models.SuggestionState{models.LoadingSuggestionState(), okSuggestions}, rec.snapshot())
}

func TestCoordinatorRequestOptions(t *testing.T) {
	maps := placestest.NewMaps(data...)
	opts := map[string]interface{}{"radius": 100, "input": "caller"}
	c := newTestCoordinator(t, WithMaps(maps), WithRequestOptions(opts))

	c.SetValue("test")

	calls := maps.Lib.Autocomplete.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]interface{}{"radius": 100, "input": "test"}, calls[0].Request.Params())
}

func TestCoordinatorDebounce(t *testing.T) {
	maps := placestest.NewMaps(data...)
	c := newTestCoordinator(t, WithMaps(maps), WithDebounce(60*time.Millisecond))

	for _, v := range []string{"t", "te", "tes", "test"} {
		c.SetValue(v)
	}
	assert.Equal(t, models.DefaultSuggestionState(), c.Suggestions(), "nothing is fetched before the window closes")

	assert.Eventually(t, func() bool {
		return c.Suggestions().Status == models.StatusOK
	}, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"test"}, maps.Lib.Autocomplete.Inputs(), "only the last input should be requested")
}

func TestCoordinatorStaleResponses(t *testing.T) {
	newManual := func(t *testing.T) (*Coordinator, *placestest.AutocompleteService) {
		maps := placestest.NewMaps()
		maps.Lib.Autocomplete.Manual = true
		return newTestCoordinator(t, WithMaps(maps)), maps.Lib.Autocomplete
	}
	first := []models.Suggestion{{"place_id": "first"}}
	second := []models.Suggestion{{"place_id": "second"}}

	t.Run("older response resolving last", func(t *testing.T) {
		c, svc := newManual(t)
		c.SetValue("a")
		c.SetValue("ab")
		calls := svc.Calls()
		require.Len(t, calls, 2)

		calls[1].Resolve(second, models.StatusOK)
		calls[0].Resolve(first, models.StatusOK)
		assert.Equal(t, models.SuggestionState{Status: models.StatusOK, Data: second}, c.Suggestions())
	})

	t.Run("older response resolving first", func(t *testing.T) {
		c, svc := newManual(t)
		c.SetValue("a")
		c.SetValue("ab")
		calls := svc.Calls()
		require.Len(t, calls, 2)

		calls[0].Resolve(first, models.StatusOK)
		assert.Equal(t, models.LoadingSuggestionState(), c.Suggestions())

		calls[1].Resolve(second, models.StatusOK)
		assert.Equal(t, models.SuggestionState{Status: models.StatusOK, Data: second}, c.Suggestions())
	})

	t.Run("stale error is discarded", func(t *testing.T) {
		c, svc := newManual(t)
		c.SetValue("a")
		c.SetValue("ab")
		calls := svc.Calls()
		require.Len(t, calls, 2)

		calls[1].Resolve(second, models.StatusOK)
		calls[0].Resolve(nil, models.StatusOverQueryLimit)
		assert.Equal(t, models.StatusOK, c.Suggestions().Status)
	})

	t.Run("same input requested twice", func(t *testing.T) {
		c, svc := newManual(t)
		c.SetValue("test")
		c.SetValue("test")
		calls := svc.Calls()
		require.Len(t, calls, 2)

		calls[0].Resolve(first, models.StatusOK)
		assert.True(t, c.Suggestions().Loading, "superseded request should not commit")
		calls[1].Resolve(second, models.StatusOK)
		assert.Equal(t, second, c.Suggestions().Data)
	})

	t.Run("response after SetValue without fetch", func(t *testing.T) {
		c, svc := newManual(t)
		c.SetValue("a")
		c.SetValue("abc", false)
		svc.Calls()[0].Resolve(first, models.StatusOK)
		assert.Equal(t, models.DefaultSuggestionState(), c.Suggestions())
	})
}

func TestCoordinatorClearSuggestions(t *testing.T) {
	maps := placestest.NewMaps(data...)
	c := newTestCoordinator(t, WithMaps(maps))

	c.SetValue("test")
	assert.Equal(t, okSuggestions, c.Suggestions())

	c.ClearSuggestions()
	assert.Equal(t, models.DefaultSuggestionState(), c.Suggestions())
	c.ClearSuggestions()
	assert.Equal(t, models.DefaultSuggestionState(), c.Suggestions(), "clearing twice equals clearing once")

	t.Run("in-flight response is suppressed", func(t *testing.T) {
		maps.Lib.Autocomplete.Manual = true
		c.SetValue("test")
		assert.True(t, c.Suggestions().Loading)

		c.ClearSuggestions()
		calls := maps.Lib.Autocomplete.Calls()
		calls[len(calls)-1].Resolve(data, models.StatusOK)
		assert.Equal(t, models.DefaultSuggestionState(), c.Suggestions())
	})
}

func TestCoordinatorCache(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	store := cache.New[[]models.Suggestion](cache.WithClock(clock.Now))

	first := placestest.NewMaps(cachedData...)
	c1 := newTestCoordinator(t, WithMaps(first), WithCacheStore(store), WithCache(CacheTTL(10)))
	c1.SetValue("prev")
	assert.Equal(t, models.SuggestionState{Status: models.StatusOK, Data: cachedData}, c1.Suggestions())

	second := placestest.NewMaps(data...)
	rec := &stateRecorder{}
	c2 := newTestCoordinator(t, WithMaps(second), WithCacheStore(store), WithCache(CacheTTL(10)), WithListener(rec.record))
	c2.SetValue("prev")
	assert.Equal(t, models.SuggestionState{Status: models.StatusOK, Data: cachedData}, c2.Suggestions())
	assert.Empty(t, second.Lib.Autocomplete.Calls(), "a cache hit should skip the service")
	assert.Equal(t, []models.SuggestionState{
		models.LoadingSuggestionState(),
		{Status: models.StatusOK, Data: cachedData},
	}, rec.snapshot(), "a cache hit still pulses the loading state")

	clock.Set(time.Unix(100, 0))
	c2.SetValue("next")
	c2.SetValue("prev")
	assert.Equal(t, okSuggestions, c2.Suggestions(), "expired entries should be fetched again")
	assert.Equal(t, []string{"next", "prev"}, second.Lib.Autocomplete.Inputs())
}

func TestCoordinatorCacheIsolatedFromListener(t *testing.T) {
	store := cache.New[[]models.Suggestion]()
	overwrite := func(s models.SuggestionState) {
		if len(s.Data) > 0 {
			s.Data[0] = models.Suggestion{"place_id": "overwritten"}
		}
	}

	c1 := newTestCoordinator(t, WithMaps(placestest.NewMaps(cachedData...)), WithCacheStore(store), WithCache(CacheTTL(10)), WithListener(overwrite))
	c1.SetValue("prev")

	second := placestest.NewMaps(data...)
	c2 := newTestCoordinator(t, WithMaps(second), WithCacheStore(store), WithCache(CacheTTL(10)), WithListener(overwrite))
	c2.SetValue("prev")
	assert.Empty(t, second.Lib.Autocomplete.Calls())

	c3 := newTestCoordinator(t, WithMaps(second), WithCacheStore(store), WithCache(CacheTTL(10)))
	c3.SetValue("prev")
	assert.Equal(t, cachedData, c3.Suggestions().Data, "listeners should not be able to change cached results")
}

func TestCoordinatorCacheFailuresNotCached(t *testing.T) {
	store := cache.New[[]models.Suggestion]()
	failing := &placestest.Maps{Lib: &placestest.Places{Autocomplete: placestest.NewAutocomplete("ERROR")}}
	c := newTestCoordinator(t, WithMaps(failing), WithCacheStore(store), WithCache(CacheDefault()))

	c.SetValue("prev")
	assert.Equal(t, "ERROR", c.Suggestions().Status)
	assert.Equal(t, 0, store.Len(cache.DefaultPartition))
}

func TestCoordinatorCacheKeys(t *testing.T) {
	const cacheKey1, cacheKey2 = "cache1", "cache2"
	store := cache.New[[]models.Suggestion]()
	maps := placestest.NewMaps(cachedData...)

	c1 := newTestCoordinator(t, WithMaps(maps), WithCacheStore(store), WithCache(CacheTTL(10)), WithCacheKey(cacheKey1))
	c1.SetValue("foo")
	maps.Lib.Autocomplete.SetResponse(models.StatusOK, data...)
	c1.SetValue("foo")
	assert.Equal(t, cachedData, c1.Suggestions().Data)

	c2 := newTestCoordinator(t, WithMaps(maps), WithCacheStore(store), WithCache(CacheTTL(10)), WithCacheKey(cacheKey2))
	c2.SetValue("foo")
	assert.Equal(t, okSuggestions, c2.Suggestions(), "another partition should not see cache1 entries")

	c3 := newTestCoordinator(t, WithMaps(maps), WithCacheStore(store), WithCache(CacheTTL(10)), WithCacheKey(cacheKey1))
	c3.SetValue("foo")
	assert.Equal(t, cachedData, c3.Suggestions().Data)
}

func TestCoordinatorClearCache(t *testing.T) {
	store := cache.New[[]models.Suggestion]()
	maps := placestest.NewMaps(cachedData...)
	c := newTestCoordinator(t, WithMaps(maps), WithCacheStore(store), WithCache(CacheTTL(10)))

	c.SetValue("prev")
	c.SetValue("other")
	assert.Equal(t, 2, store.Len(cache.DefaultPartition))
	maps.Lib.Autocomplete.SetResponse(models.StatusOK, data...)

	c.ClearCache("other_key")
	c.SetValue("prev")
	assert.Equal(t, cachedData, c.Suggestions().Data, "clearing an unknown key keeps other entries")

	c.ClearCache("prev")
	assert.Equal(t, cachedData, c.Suggestions().Data, "clearing the cache leaves suggestions untouched")
	assert.Equal(t, 1, store.Len(cache.DefaultPartition))
	c.SetValue("prev")
	assert.Equal(t, okSuggestions, c.Suggestions())

	c.ClearCache()
	assert.Equal(t, 0, store.Len(cache.DefaultPartition))
}

func TestCoordinatorUnserializableOptions(t *testing.T) {
	store := cache.New[[]models.Suggestion]()
	maps := placestest.NewMaps(data...)
	opts := map[string]interface{}{"bounds": func() {}}
	c := newTestCoordinator(t, WithMaps(maps), WithCacheStore(store), WithCache(CacheDefault()), WithRequestOptions(opts))

	c.SetValue("test")
	assert.Equal(t, okSuggestions, c.Suggestions())
	assert.Equal(t, 0, store.Len(cache.DefaultPartition))
}

func TestCoordinatorReady(t *testing.T) {
	t.Run("injected", func(t *testing.T) {
		c := newTestCoordinator(t, WithMaps(placestest.NewMaps()))
		assert.True(t, c.Ready())
	})

	t.Run("nothing loaded", func(t *testing.T) {
		c := newTestCoordinator(t)
		assert.False(t, c.Ready())
	})

	t.Run("ambient", func(t *testing.T) {
		env := lifecycle.NewEnvironment()
		env.SetMaps(placestest.NewMaps())
		c := newTestCoordinator(t, WithEnvironment(env))
		assert.True(t, c.Ready())
	})
}

func TestCoordinatorNotReady(t *testing.T) {
	errs := &errorCounter{}
	c := newTestCoordinator(t, WithLoadErrorHandler(errs.report))
	assert.Equal(t, 1, errs.count(), "mounting without a service reports one load error")

	c.SetValue("test")
	assert.Equal(t, "test", c.Value())
	assert.Equal(t, models.DefaultSuggestionState(), c.Suggestions())
	assert.Equal(t, 1, errs.count(), "fetching while not ready is not an error")
}

func TestCoordinatorLazyInit(t *testing.T) {
	env := lifecycle.NewEnvironment()
	errs := &errorCounter{}
	c := newTestCoordinator(t, WithEnvironment(env), WithInitOnMount(false), WithLoadErrorHandler(errs.report))

	c.SetValue("test")
	assert.Equal(t, models.DefaultSuggestionState(), c.Suggestions())
	assert.Equal(t, 0, errs.count())

	assert.False(t, c.Init())
	assert.Equal(t, 1, errs.count())

	env.SetMaps(placestest.NewMaps(data...))
	assert.True(t, c.Init())
	c.SetValue("test")
	assert.Equal(t, okSuggestions, c.Suggestions())
	assert.Equal(t, 1, errs.count())
}

func TestCoordinatorCallbackName(t *testing.T) {
	env := lifecycle.NewEnvironment()
	c := New(
		WithDebounce(0),
		WithEnvironment(env),
		WithCallbackName(callbackName),
		WithCache(CacheDisabled()),
		WithLoadErrorHandler(func(error) {}),
	)

	_, ok := env.Callback(callbackName)
	assert.True(t, ok)
	assert.False(t, c.Ready())

	env.SetMaps(placestest.NewMaps(data...))
	require.True(t, env.Invoke(callbackName))
	assert.True(t, c.Ready())

	c.SetValue("test")
	assert.Equal(t, okSuggestions, c.Suggestions())

	c.Close()
	_, ok = env.Callback(callbackName)
	assert.False(t, ok, "callback should be removed on close")
}

func TestCoordinatorClose(t *testing.T) {
	maps := placestest.NewMaps(data...)
	c := newTestCoordinator(t, WithMaps(maps), WithDebounce(30*time.Millisecond))

	c.SetValue("test")
	c.Close()
	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, maps.Lib.Autocomplete.Calls(), "pending fetch should not fire after close")

	c.SetValue("again")
	assert.Equal(t, "test", c.Value())
}

func TestCachePolicy(t *testing.T) {
	tests := []struct {
		name        string
		policy      CachePolicy
		wantEnabled bool
		wantTTL     time.Duration
	}{
		{"default", CacheDefault(), true, cache.DefaultTTL},
		{"zero seconds", CacheTTL(0), true, cache.DefaultTTL},
		{"ten seconds", CacheTTL(10), true, 10 * time.Second},
		{"forever", CacheForever(), true, 0},
		{"disabled", CacheDisabled(), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantEnabled, tt.policy.Enabled())
			assert.Equal(t, tt.wantTTL, tt.policy.TTL())
		})
	}
}
