package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchdash/domain/core"
	"launchdash/domain/launch"
	"launchdash/internal/errors"
	"launchdash/internal/query"
)

func rec(site string, payload float64, class int, booster string) launch.Record {
	return launch.Record{
		LaunchSite:             site,
		PayloadMassKg:          payload,
		PayloadKnown:           true,
		BoosterVersionCategory: booster,
		Outcome:                launch.OutcomeFromClass(class),
	}
}

func testEngine() *query.Engine {
	return query.NewEngine(launch.NewDataset("test", []launch.Record{
		rec("CCAFS LC-40", 500, 1, "v1.0"),
		rec("CCAFS LC-40", 9000, 0, "FT"),
		rec("KSC LC-39A", 3000, 1, "FT"),
		rec("KSC LC-39A", 6000, 1, "B4"),
	}))
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) last(kind EventKind) Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i]
		}
	}
	return Event{}
}

func (r *recorder) kinds() []EventKind {
	kinds := make([]EventKind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func TestBuildPieChart_AllSites(t *testing.T) {
	pie := BuildPieChart(testEngine().SuccessDistribution(launch.AllSites()))

	assert.Equal(t, "Distribution of Successful Launches Across Launch Sites", pie.Title)
	assert.Equal(t, []PieSlice{
		{Label: "CCAFS LC-40", Value: 1, Color: "lightcyan"},
		{Label: "KSC LC-39A", Value: 2, Color: "darkblue"},
	}, pie.Slices)
}

func TestBuildPieChart_SpecificSite(t *testing.T) {
	pie := BuildPieChart(testEngine().SuccessDistribution(launch.SpecificSite("CCAFS LC-40")))

	assert.Equal(t, "Total Success Launches on CCAFS LC-40", pie.Title)
	assert.Equal(t, []PieSlice{
		{Label: "Success", Value: 1, Color: SuccessColor},
		{Label: "Failure", Value: 1, Color: FailureColor},
	}, pie.Slices)
}

func TestBuildScatterChart(t *testing.T) {
	engine := testEngine()
	sel := launch.SpecificSite("KSC LC-39A")
	pr := launch.PayloadRange{Min: 0, Max: 5000}

	scatter, err := BuildScatterChart(sel, pr, engine.PayloadOutcomes(sel, pr))
	require.NoError(t, err)

	assert.Equal(t, "Correlation between payload and success rate for site KSC LC-39A (Payload Range: 0 - 5000)", scatter.Title)
	assert.Equal(t, "Payload Mass (kg)", scatter.XLabel)
	assert.Equal(t, "class", scatter.YLabel)
	require.Len(t, scatter.Points, 1)
	assert.Equal(t, ScatterPoint{Payload: 3000, Outcome: launch.OutcomeSuccess, Category: "FT", Site: "KSC LC-39A"}, scatter.Points[0])
	assert.Equal(t, 1, scatter.Summary.Payload.Count)
}

func TestBuildScatterChart_EmptyIsValid(t *testing.T) {
	scatter, err := BuildScatterChart(launch.SpecificSite("nowhere"), launch.PayloadRange{Min: 0, Max: 1}, nil)
	require.NoError(t, err)

	data, err := json.Marshal(scatter)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"points":[]`)
}

func TestDashboard_SiteChangeUpdatesBothOutputs(t *testing.T) {
	out := &recorder{}
	d := New(core.NewSessionID(), testEngine(), launch.PayloadRange{Min: 500, Max: 9000}, out.listen)

	assert.True(t, d.SelectSite(launch.SpecificSite("KSC LC-39A")))
	assert.Equal(t, []EventKind{EventPie, EventScatter}, out.kinds())

	pie := out.events[0].Pie
	require.NotNil(t, pie)
	assert.Equal(t, "Total Success Launches on KSC LC-39A", pie.Title)

	scatter := out.events[1].Scatter
	require.NotNil(t, scatter)
	assert.Len(t, scatter.Points, 2)
	assert.Equal(t, d.ID(), out.events[1].SessionID)
}

func TestDashboard_PayloadChangeOnlyUpdatesScatter(t *testing.T) {
	out := &recorder{}
	d := New(core.NewSessionID(), testEngine(), launch.PayloadRange{Min: 500, Max: 9000}, out.listen)

	assert.True(t, d.SelectPayload(launch.PayloadRange{Min: 0, Max: 4000}))
	assert.Equal(t, []EventKind{EventScatter}, out.kinds())
	assert.Len(t, out.events[0].Scatter.Points, 2)
}

func TestDashboard_UnchangedValueDoesNotEmit(t *testing.T) {
	out := &recorder{}
	d := New(core.NewSessionID(), testEngine(), launch.PayloadRange{Min: 500, Max: 9000}, out.listen)

	assert.False(t, d.SelectSite(launch.AllSites()))
	assert.False(t, d.SelectPayload(launch.PayloadRange{Min: 500, Max: 9000}))
	assert.Empty(t, out.events)
}

func TestDashboard_CloseStopsOutputs(t *testing.T) {
	out := &recorder{}
	d := New(core.NewSessionID(), testEngine(), launch.PayloadRange{Min: 500, Max: 9000}, out.listen)

	d.Close()
	d.Close()
	d.SelectSite(launch.SpecificSite("KSC LC-39A"))

	assert.Empty(t, out.events)
	sel, _ := d.State()
	assert.Equal(t, launch.SpecificSite("KSC LC-39A"), sel)
}

func TestDashboard_ConcurrentWritesLastEventMatchesState(t *testing.T) {
	sites := []launch.Selection{
		launch.AllSites(),
		launch.SpecificSite("CCAFS LC-40"),
		launch.SpecificSite("KSC LC-39A"),
	}

	for round := 0; round < 20; round++ {
		out := &recorder{}
		d := New(core.NewSessionID(), testEngine(), launch.PayloadRange{Min: 500, Max: 9000}, out.listen)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				d.SelectSite(sites[i%len(sites)])
			}(i)
			go func(i int) {
				defer wg.Done()
				d.SelectPayload(launch.PayloadRange{Min: float64(i * 100), Max: 9000})
			}(i)
		}
		wg.Wait()

		sel, pr := d.State()
		pie, scatter, err := d.Snapshot(context.Background())
		require.NoError(t, err)

		msg := fmt.Sprintf("round %d", round)
		if lastPie := out.last(EventPie); lastPie.Pie != nil {
			assert.Equal(t, pie, *lastPie.Pie, msg)
		}
		lastScatter := out.last(EventScatter)
		require.NotNil(t, lastScatter.Scatter, msg)
		assert.Equal(t, sel, lastScatter.Scatter.Selection, msg)
		assert.Equal(t, pr, lastScatter.Scatter.Range, msg)
		assert.Equal(t, scatter, *lastScatter.Scatter, msg)
	}
}

func TestDashboard_Snapshot(t *testing.T) {
	d := New(core.NewSessionID(), testEngine(), launch.PayloadRange{Min: 500, Max: 9000}, nil)

	pie, scatter, err := d.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, pie.Slices, 2)
	assert.Len(t, scatter.Points, 4)
	assert.Equal(t, "Correlation between payload and success rate for all sites", scatter.Title)
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(testEngine(), 1000)

	controls := m.Controls()
	assert.Equal(t, []string{"ALL", "CCAFS LC-40", "KSC LC-39A"}, controls.Sites)
	assert.Equal(t, launch.PayloadRange{Min: 500, Max: 9000}, controls.Bounds)
	assert.Equal(t, 1000.0, controls.Step)

	d := m.Create(nil)
	assert.Equal(t, 1, m.Count())

	_, pr := d.State()
	assert.Equal(t, controls.Bounds, pr)

	got, err := m.Get(d.ID())
	require.NoError(t, err)
	assert.Same(t, d, got)

	require.NoError(t, m.Close(d.ID()))
	assert.Equal(t, 0, m.Count())

	_, err = m.Get(d.ID())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(m.Close(d.ID())))
}
