package dashboard

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"launchdash/domain/core"
	"launchdash/domain/launch"
	"launchdash/internal"
	"launchdash/internal/query"
	"launchdash/internal/reactive"
)

// EventKind names the output an event carries
type EventKind string

const (
	EventPie     EventKind = "pie"
	EventScatter EventKind = "scatter"
	EventError   EventKind = "error"
)

// Event is a render payload pushed by one dashboard output
type Event struct {
	SessionID core.SessionID `json:"session_id"`
	Kind      EventKind      `json:"kind"`
	Pie       *PieChart      `json:"pie,omitempty"`
	Scatter   *ScatterChart  `json:"scatter,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Listener receives every render payload a dashboard produces
type Listener func(Event)

// Dashboard is the dataflow graph of one UI session: two input cells (site and
// payload range) feeding two outputs (pie and scatter charts).
type Dashboard struct {
	id      core.SessionID
	engine  *query.Engine
	site    *reactive.Cell[launch.Selection]
	payload *reactive.Cell[launch.PayloadRange]
	logger  *internal.Logger

	// writeMu serializes control changes so the outputs emit in write order
	writeMu   sync.Mutex
	closeOnce sync.Once
	unsubs    []func()
}

// New wires a dashboard over the engine. The site cell starts at all sites and
// the payload cell at initial.
func New(id core.SessionID, engine *query.Engine, initial launch.PayloadRange, listener Listener) *Dashboard {
	d := &Dashboard{
		id:      id,
		engine:  engine,
		site:    reactive.NewCell(launch.AllSites()),
		payload: reactive.NewCell(initial),
		logger:  internal.DefaultLogger.Component("Dashboard"),
	}
	emit := func(Event) {}
	if listener != nil {
		emit = listener
	}

	d.unsubs = append(d.unsubs,
		reactive.Map(d.site, d.pieEvent, emit),
		reactive.Combine(d.site, d.payload, d.scatterEvent, emit),
	)
	return d
}

// ID returns the session identifier
func (d *Dashboard) ID() core.SessionID {
	return d.id
}

// SelectSite updates the site control. It reports whether the value changed.
func (d *Dashboard) SelectSite(sel launch.Selection) bool {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	d.logger.Debug("session %s site -> %s", d.id, sel)
	return d.site.Set(sel)
}

// SelectPayload updates the payload range control. It reports whether the value changed.
func (d *Dashboard) SelectPayload(pr launch.PayloadRange) bool {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	d.logger.Debug("session %s payload -> [%g, %g]", d.id, pr.Min, pr.Max)
	return d.payload.Set(pr)
}

// State returns the current control values
func (d *Dashboard) State() (launch.Selection, launch.PayloadRange) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	return d.site.Get(), d.payload.Get()
}

// Snapshot computes both outputs for the current control values
func (d *Dashboard) Snapshot(ctx context.Context) (PieChart, ScatterChart, error) {
	sel, pr := d.State()

	var pie PieChart
	var scatter ScatterChart

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		pie = BuildPieChart(d.engine.SuccessDistribution(sel))
		return nil
	})
	g.Go(func() error {
		var err error
		scatter, err = BuildScatterChart(sel, pr, d.engine.PayloadOutcomes(sel, pr))
		return err
	})
	if err := g.Wait(); err != nil {
		return PieChart{}, ScatterChart{}, err
	}
	return pie, scatter, nil
}

// Close detaches the outputs from the input cells
func (d *Dashboard) Close() {
	d.closeOnce.Do(func() {
		for _, unsub := range d.unsubs {
			unsub()
		}
	})
}

func (d *Dashboard) pieEvent(sel launch.Selection) Event {
	pie := BuildPieChart(d.engine.SuccessDistribution(sel))
	return Event{SessionID: d.id, Kind: EventPie, Pie: &pie}
}

func (d *Dashboard) scatterEvent(sel launch.Selection, pr launch.PayloadRange) Event {
	scatter, err := BuildScatterChart(sel, pr, d.engine.PayloadOutcomes(sel, pr))
	if err != nil {
		d.logger.Error("session %s scatter recompute failed: %v", d.id, err)
		return Event{SessionID: d.id, Kind: EventError, Error: err.Error()}
	}
	return Event{SessionID: d.id, Kind: EventScatter, Scatter: &scatter}
}
