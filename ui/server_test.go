package ui

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchdash/domain/core"
	"launchdash/domain/launch"
	"launchdash/internal/api"
	"launchdash/internal/dashboard"
	"launchdash/internal/query"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := query.NewEngine(launch.NewDataset("test.csv", []launch.Record{
		{LaunchSite: "CCAFS LC-40", PayloadMassKg: 500, PayloadKnown: true, BoosterVersionCategory: "v1.0", Outcome: launch.OutcomeSuccess},
		{LaunchSite: "CCAFS LC-40", PayloadMassKg: 9000, PayloadKnown: true, BoosterVersionCategory: "FT", Outcome: launch.OutcomeFailure},
		{LaunchSite: "KSC LC-39A", PayloadMassKg: 3000, PayloadKnown: true, BoosterVersionCategory: "FT", Outcome: launch.OutcomeSuccess},
	}))
	hub := api.NewSSEHub(time.Second)
	t.Cleanup(hub.Stop)

	s, err := NewServer(dashboard.NewManager(engine, 1000), hub)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "SpaceX Launch Records Dashboard")
	assert.Contains(t, body, `<option value="ALL" selected>ALL</option>`)
	assert.Contains(t, body, `<option value="KSC LC-39A">KSC LC-39A</option>`)
	assert.Contains(t, body, `step="1000"`)
	assert.Contains(t, body, `max="9000"`)
}

func TestControls(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/controls", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var controls dashboard.Controls
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &controls))
	assert.Equal(t, []string{"ALL", "CCAFS LC-40", "KSC LC-39A"}, controls.Sites)
	assert.Equal(t, launch.PayloadRange{Min: 500, Max: 9000}, controls.Bounds)
}

func TestPieChart(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/charts/pie", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"title": "Distribution of Successful Launches Across Launch Sites",
		"selection": "ALL",
		"slices": [
			{"label": "CCAFS LC-40", "value": 1, "color": "lightcyan"},
			{"label": "KSC LC-39A", "value": 1, "color": "darkblue"}
		]
	}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/charts/pie?site=Nowhere", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"title": "Total Success Launches on Nowhere",
		"selection": "Nowhere",
		"slices": [
			{"label": "Success", "value": 0, "color": "cyan"},
			{"label": "Failure", "value": 0, "color": "darkblue"}
		]
	}`, rec.Body.String())
}

func TestScatterChart(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/charts/scatter?site=ALL&min=0&max=5000", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var chart struct {
		Title  string `json:"title"`
		Points []struct {
			X        float64 `json:"x"`
			Y        *int    `json:"y"`
			Category string  `json:"category"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chart))
	require.Len(t, chart.Points, 2)
	assert.Equal(t, 500.0, chart.Points[0].X)
	assert.Equal(t, 3000.0, chart.Points[1].X)
	require.NotNil(t, chart.Points[0].Y)
	assert.Equal(t, 1, *chart.Points[0].Y)
}

func TestScatterChart_InvalidRange(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/charts/scatter?min=heavy", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
}

func TestReport(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/report?site=CCAFS%20LC-40", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Total Success Launches on CCAFS LC-40")
}

func createSession(t *testing.T, s *Server) core.SessionID {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		SessionID core.SessionID `json:"session_id"`
		Site      string         `json:"site"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ALL", resp.Site)
	return resp.SessionID
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := do(t, s, http.MethodPut, "/api/sessions/"+id.String()+"/site", map[string]string{"site": "KSC LC-39A"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"changed":true`)

	rec = do(t, s, http.MethodPut, "/api/sessions/"+id.String()+"/payload", map[string]float64{"min": 1000, "max": 2000})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/sessions/"+id.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state struct {
		Site    string              `json:"site"`
		Payload launch.PayloadRange `json:"payload"`
		Scatter struct {
			Points []interface{} `json:"points"`
		} `json:"scatter"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "KSC LC-39A", state.Site)
	assert.Equal(t, launch.PayloadRange{Min: 1000, Max: 2000}, state.Payload)
	assert.Empty(t, state.Scatter.Points)

	rec = do(t, s, http.MethodDelete, "/api/sessions/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/sessions/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelectPayload_RequiresBothBounds(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := do(t, s, http.MethodPut, "/api/sessions/"+id.String()+"/payload", map[string]float64{"min": 1000})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSession_InvalidID(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/sessions/not-a-session", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")

	rec = do(t, s, http.MethodDelete, "/api/sessions/not-a-session", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/events?session_id=not-a-session", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// openEvents starts an SSE stream for the session and returns the non-ping event names
func openEvents(t *testing.T, ctx context.Context, srv *httptest.Server, id core.SessionID) <-chan string {
	t.Helper()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events?session_id="+id.String(), nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := make(chan string, 64)
	go func() {
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if !strings.HasPrefix(scanner.Text(), "event:") {
				continue
			}
			if name := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "event:")); name != "ping" {
				lines <- name
			}
		}
		close(lines)
	}()
	return lines
}

func TestEvents_StreamsSnapshotAndUpdates(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lines := openEvents(t, ctx, srv, id)
	next := func() string {
		select {
		case l := <-lines:
			return l
		case <-ctx.Done():
			t.Fatal("timed out waiting for SSE event")
			return ""
		}
	}

	assert.Equal(t, "pie", next())
	assert.Equal(t, "scatter", next())
	assert.Equal(t, 1, s.hub.GetClientCount(id))

	rec := do(t, s, http.MethodPut, "/api/sessions/"+id.String()+"/payload", map[string]float64{"min": 0, "max": 1000})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "scatter", next())
}

func TestEvents_ClosesSessionWhenStreamEnds(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)
	other := createSession(t, s)
	require.Equal(t, 2, s.sessions.Count())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	lines := openEvents(t, ctx, srv, id)

	select {
	case name := <-lines:
		assert.Equal(t, "pie", name)
	case <-ctx.Done():
		t.Fatal("timed out waiting for SSE event")
	}
	cancel()

	require.Eventually(t, func() bool {
		return s.sessions.Count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err := s.sessions.Get(id)
	assert.Error(t, err)
	_, err = s.sessions.Get(other)
	assert.NoError(t, err)
	assert.Equal(t, 0, s.hub.GetClientCount(id))
}
