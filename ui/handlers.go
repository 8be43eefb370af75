package ui

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"launchdash/domain/core"
	"launchdash/domain/launch"
	"launchdash/internal/dashboard"
	"launchdash/internal/errors"
	"launchdash/internal/report"
)

type siteRequest struct {
	Site string `json:"site"`
}

type payloadRequest struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

type sessionResponse struct {
	SessionID core.SessionID         `json:"session_id"`
	Site      launch.Selection       `json:"site"`
	Payload   launch.PayloadRange    `json:"payload"`
	Pie       dashboard.PieChart     `json:"pie"`
	Scatter   dashboard.ScatterChart `json:"scatter"`
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":    "SpaceX Launch Records Dashboard",
		"Source":   s.sessions.Engine().Dataset().Source(),
		"Controls": s.sessions.Controls(),
	})
}

func (s *Server) handleControls(c *gin.Context) {
	c.JSON(http.StatusOK, s.sessions.Controls())
}

func (s *Server) handlePieChart(c *gin.Context) {
	sel := launch.ParseSelection(c.DefaultQuery("site", launch.AllSitesValue))
	c.JSON(http.StatusOK, dashboard.BuildPieChart(s.sessions.Engine().SuccessDistribution(sel)))
}

func (s *Server) handleScatterChart(c *gin.Context) {
	sel, pr, err := s.selectionFromQuery(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	chart, err := dashboard.BuildScatterChart(sel, pr, s.sessions.Engine().PayloadOutcomes(sel, pr))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (s *Server) handleReport(c *gin.Context) {
	sel, pr, err := s.selectionFromQuery(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	engine := s.sessions.Engine()
	pie := dashboard.BuildPieChart(engine.SuccessDistribution(sel))
	scatter, err := dashboard.BuildScatterChart(sel, pr, engine.PayloadOutcomes(sel, pr))
	if err != nil {
		s.respondError(c, err)
		return
	}

	body := report.HTML(report.Markdown(engine.Dataset().Source(), pie, scatter))
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

func (s *Server) handleCreateSession(c *gin.Context) {
	d := s.sessions.Create(s.hub.Broadcast)

	resp, err := s.sessionState(c.Request.Context(), d)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleGetSession(c *gin.Context) {
	d, err := s.lookupSession(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	resp, err := s.sessionState(c.Request.Context(), d)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSelectSite(c *gin.Context) {
	d, err := s.lookupSession(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var req siteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInput("invalid site request: "+err.Error()))
		return
	}

	changed := d.SelectSite(launch.ParseSelection(req.Site))
	sel, pr := d.State()
	c.JSON(http.StatusOK, gin.H{"site": sel, "payload": pr, "changed": changed})
}

func (s *Server) handleSelectPayload(c *gin.Context) {
	d, err := s.lookupSession(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var req payloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInput("invalid payload request: "+err.Error()))
		return
	}
	if req.Min == nil || req.Max == nil {
		s.respondError(c, errors.InvalidInput("payload request requires min and max"))
		return
	}

	pr := launch.PayloadRange{Min: *req.Min, Max: *req.Max}
	if err := dashboard.ValidatePayloadRange(pr); err != nil {
		s.respondError(c, err)
		return
	}

	changed := d.SelectPayload(pr)
	sel, current := d.State()
	c.JSON(http.StatusOK, gin.H{"site": sel, "payload": current, "changed": changed})
}

func (s *Server) handleCloseSession(c *gin.Context) {
	id, err := core.ParseSessionID(c.Param("id"))
	if err != nil {
		s.respondError(c, errors.NotFound("session "+strconv.Quote(c.Param("id"))))
		return
	}
	if err := s.sessions.Close(id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleEvents streams the session's chart payloads, starting with the current
// snapshot. The session is closed once its last stream ends.
func (s *Server) handleEvents(c *gin.Context) {
	d, err := s.lookupSession(c.Query("session_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	// Subscribe before the snapshot so no change made in between is missed
	events, unsubscribe := s.hub.Subscribe(d.ID())
	defer s.releaseSession(d.ID(), unsubscribe)

	pie, scatter, err := d.Snapshot(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.hub.Stream(c, events,
		dashboard.Event{SessionID: d.ID(), Kind: dashboard.EventPie, Pie: &pie},
		dashboard.Event{SessionID: d.ID(), Kind: dashboard.EventScatter, Scatter: &scatter},
	)
}

func (s *Server) releaseSession(id core.SessionID, unsubscribe func()) {
	unsubscribe()
	if s.hub.GetClientCount(id) > 0 {
		return
	}
	if err := s.sessions.Close(id); err == nil {
		s.logger.Debug("Closed session %s after its last stream ended", id)
	}
}

func (s *Server) selectionFromQuery(c *gin.Context) (launch.Selection, launch.PayloadRange, error) {
	sel := launch.ParseSelection(c.DefaultQuery("site", launch.AllSitesValue))
	pr, err := dashboard.ParsePayloadRange(c.Query("min"), c.Query("max"), s.sessions.Controls().Bounds)
	return sel, pr, err
}

func (s *Server) lookupSession(raw string) (*dashboard.Dashboard, error) {
	id, err := core.ParseSessionID(raw)
	if err != nil {
		return nil, errors.NotFound("session " + strconv.Quote(raw))
	}
	return s.sessions.Get(id)
}

func (s *Server) sessionState(ctx context.Context, d *dashboard.Dashboard) (sessionResponse, error) {
	pie, scatter, err := d.Snapshot(ctx)
	if err != nil {
		return sessionResponse{}, err
	}
	sel, pr := d.State()
	return sessionResponse{SessionID: d.ID(), Site: sel, Payload: pr, Pie: pie, Scatter: scatter}, nil
}
