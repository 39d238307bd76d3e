package studio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/providers/analysis"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/providers/hairstyle"
)

// Options wires the manager's collaborators. Analyzer and Renderer are
// required; everything else is optional.
type Options struct {
	// BaseContext is what render and recorder calls run on, so a closed HTTP
	// request never cancels them. Defaults to context.Background().
	BaseContext context.Context
	Analyzer    analysis.Analyzer
	Renderer    hairstyle.Renderer
	Recorder    Recorder
	Images      ImageSink
	Metrics     *Metrics
	Logger      zerolog.Logger
	// SessionTTL evicts sessions idle longer than this. Zero disables the
	// janitor.
	SessionTTL time.Duration
}

// deps is the collaborator set shared by every session of one manager.
type deps struct {
	baseCtx  context.Context
	analyzer analysis.Analyzer
	renderer hairstyle.Renderer
	recorder Recorder
	images   ImageSink
	metrics  *Metrics
	logger   zerolog.Logger
}

type liveSession struct {
	session  *Session
	lastSeen time.Time
}

// Manager is the registry of live sessions.
type Manager struct {
	deps *deps
	ttl  time.Duration

	mu    sync.Mutex
	items map[string]*liveSession

	stopJanitor chan struct{}
	stopOnce    sync.Once
}

func NewManager(opts Options) *Manager {
	baseCtx := opts.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = &Metrics{}
	}
	m := &Manager{
		deps: &deps{
			baseCtx:  baseCtx,
			analyzer: opts.Analyzer,
			renderer: opts.Renderer,
			recorder: opts.Recorder,
			images:   opts.Images,
			metrics:  metrics,
			logger:   opts.Logger.With().Str("component", "studio").Logger(),
		},
		ttl:         opts.SessionTTL,
		items:       map[string]*liveSession{},
		stopJanitor: make(chan struct{}),
	}
	if m.ttl > 0 {
		go m.janitor()
	}
	return m
}

// Create registers a fresh session.
func (m *Manager) Create() *Session {
	session := newSession(m.deps)
	m.mu.Lock()
	m.items[session.ID()] = &liveSession{session: session, lastSeen: time.Now().UTC()}
	m.mu.Unlock()
	m.deps.metrics.SessionsStarted.Add(1)
	m.deps.logger.Debug().Str("session", session.ID()).Msg("session created")
	return session
}

// Get looks a session up and marks it as recently used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	live, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
	}
	live.lastSeen = time.Now().UTC()
	return live.session, nil
}

// Delete drops a session from the registry.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
	}
	delete(m.items, id)
	return nil
}

// Len reports how many sessions are live.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Metrics exposes the shared counters.
func (m *Manager) Metrics() *Metrics {
	return m.deps.metrics
}

// sweep drops sessions idle longer than the TTL and reports how many went.
func (m *Manager) sweep(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for id, live := range m.items {
		if now.Sub(live.lastSeen) > m.ttl {
			delete(m.items, id)
			dropped++
		}
	}
	return dropped
}

func (m *Manager) janitor() {
	interval := m.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := m.sweep(time.Now().UTC()); n > 0 {
				m.deps.logger.Debug().Int("sessions", n).Msg("idle sessions evicted")
			}
		case <-m.stopJanitor:
			return
		}
	}
}

// Close stops the janitor. Live sessions and their in-flight runs are left
// alone.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stopJanitor) })
}
