package lifecycle

import (
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/genc-murat/crystalplaces/internal/core/models"
	"github.com/genc-murat/crystalplaces/internal/core/ports"
)

// Manager resolves the autocomplete service from an injected namespace or
// from the environment, and owns the load callback registration.
type Manager struct {
	mu           sync.Mutex
	env          *Environment
	injected     ports.Maps
	callbackName string
	service      ports.AutocompleteService
	registration *Registration
	report       func(error)
	logger       arbor.ILogger
}

type Option func(*Manager)

// WithMaps injects a namespace; the environment is then never consulted for
// registration.
func WithMaps(m ports.Maps) Option {
	return func(mgr *Manager) {
		mgr.injected = m
	}
}

func WithCallbackName(name string) Option {
	return func(mgr *Manager) {
		mgr.callbackName = name
	}
}

// WithReporter sets the sink for load errors
func WithReporter(report func(error)) Option {
	return func(mgr *Manager) {
		mgr.report = report
	}
}

func WithLogger(logger arbor.ILogger) Option {
	return func(mgr *Manager) {
		mgr.logger = logger
	}
}

func NewManager(env *Environment, opts ...Option) *Manager {
	if env == nil {
		env = Global()
	}

	mgr := &Manager{env: env}
	for _, opt := range opts {
		opt(mgr)
	}

	if mgr.logger == nil {
		mgr.logger = arbor.NewLogger()
	}
	if mgr.report == nil {
		logger := mgr.logger
		mgr.report = func(err error) {
			logger.Error().Err(err).Msg("Failed to initialize places autocomplete")
		}
	}

	return mgr
}

// Mount performs the startup sequence. When the namespace is not loaded yet
// and a callback name is configured, Init is registered under that name for
// the loader to call; otherwise Init runs immediately.
func (m *Manager) Mount(initOnMount bool) {
	if !initOnMount {
		return
	}

	m.mu.Lock()
	if m.injected == nil && m.env.Maps() == nil && m.callbackName != "" {
		m.registration = m.env.Register(m.callbackName, func() { m.Init() })
		m.logger.Debug().
			Str("callback", m.callbackName).
			Msg("Waiting for places library load callback")
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.Init()
}

// Init resolves the autocomplete service. It is a no-op once the service is
// available. A failure is reported once per call and never returned.
func (m *Manager) Init() bool {
	m.mu.Lock()
	if m.service != nil {
		m.mu.Unlock()
		return true
	}

	places := m.resolvePlaces()
	if places == nil {
		m.mu.Unlock()
		m.report(models.ErrPlacesNotLoaded)
		return false
	}

	m.service = places.NewAutocompleteService()
	m.mu.Unlock()

	m.logger.Debug().Msg("Places autocomplete service ready")
	return true
}

// resolvePlaces never consults the environment when a namespace was injected
func (m *Manager) resolvePlaces() ports.Places {
	if m.injected != nil {
		return m.injected.Places()
	}
	if maps := m.env.Maps(); maps != nil {
		return maps.Places()
	}
	return nil
}

func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.service != nil
}

// Service returns the resolved autocomplete service
func (m *Manager) Service() (ports.AutocompleteService, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.service, m.service != nil
}

// Close removes the load callback registered by this manager. A registration
// made by someone else under the same name is left alone.
func (m *Manager) Close() {
	m.mu.Lock()
	reg := m.registration
	m.registration = nil
	m.mu.Unlock()

	if reg != nil && m.env.Deregister(reg) {
		m.logger.Debug().Str("callback", reg.Name()).Msg("Removed places load callback")
	}
}
