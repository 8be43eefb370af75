package dashboard

import (
	"sync"

	"launchdash/domain/core"
	"launchdash/domain/launch"
	"launchdash/internal"
	"launchdash/internal/errors"
	"launchdash/internal/query"
)

// Controls describes the two UI controls driving a dashboard
type Controls struct {
	Sites   []string            `json:"sites"`
	Default string              `json:"default_site"`
	Bounds  launch.PayloadRange `json:"payload_bounds"`
	Step    float64             `json:"payload_step"`
}

// NewControls describes the controls for a dataset: the all-sites entry followed
// by every site in first-seen order, and the observed payload bounds.
func NewControls(dataset *launch.Dataset, step float64) Controls {
	bounds, _ := dataset.PayloadBounds()
	return Controls{
		Sites:   append([]string{launch.AllSitesValue}, dataset.Sites()...),
		Default: launch.AllSitesValue,
		Bounds:  bounds,
		Step:    step,
	}
}

// Manager owns the dashboards of all live UI sessions
type Manager struct {
	engine   *query.Engine
	controls Controls
	logger   *internal.Logger

	mu       sync.RWMutex
	sessions map[core.SessionID]*Dashboard
}

// NewManager creates a session manager. The payload step is the slider increment.
func NewManager(engine *query.Engine, step float64) *Manager {
	return &Manager{
		engine:   engine,
		controls: NewControls(engine.Dataset(), step),
		logger:   internal.DefaultLogger.Component("Sessions"),
		sessions: make(map[core.SessionID]*Dashboard),
	}
}

// Engine returns the shared query engine
func (m *Manager) Engine() *query.Engine {
	return m.engine
}

// Controls returns the control descriptor for the loaded dataset
func (m *Manager) Controls() Controls {
	c := m.controls
	c.Sites = append([]string(nil), m.controls.Sites...)
	return c
}

// Create starts a new dashboard session whose outputs are delivered to listener
func (m *Manager) Create(listener Listener) *Dashboard {
	d := New(core.NewSessionID(), m.engine, m.controls.Bounds, listener)

	m.mu.Lock()
	m.sessions[d.ID()] = d
	count := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session %s created (active: %d)", d.ID(), count)
	return d
}

// Get returns the dashboard for a session
func (m *Manager) Get(id core.SessionID) (*Dashboard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.sessions[id]
	if !ok {
		return nil, errors.NotFound("session " + id.String())
	}
	return d, nil
}

// Close ends a session and detaches its outputs
func (m *Manager) Close(id core.SessionID) error {
	m.mu.Lock()
	d, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return errors.NotFound("session " + id.String())
	}
	d.Close()
	m.logger.Info("session %s closed", id)
	return nil
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
