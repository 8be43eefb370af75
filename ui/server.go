package ui

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"launchdash/internal"
	"launchdash/internal/api"
	"launchdash/internal/dashboard"
	"launchdash/internal/errors"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Server is the gin web server that hands chart payloads to the browser
type Server struct {
	router   *gin.Engine
	sessions *dashboard.Manager
	hub      *api.SSEHub
	logger   *internal.Logger
}

// NewServer creates a new web server instance
func NewServer(sessions *dashboard.Manager, hub *api.SSEHub) (*Server, error) {
	funcMap := template.FuncMap{
		"kg": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}

	s := &Server{
		router:   gin.New(),
		sessions: sessions,
		hub:      hub,
		logger:   internal.DefaultLogger.Component("Server"),
	}
	s.router.Use(gin.Logger(), gin.Recovery())
	s.router.SetHTMLTemplate(templates)
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router for tests and custom listeners
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server on addr
func (s *Server) Start(addr string) error {
	s.logger.Info("Listening on %s", addr)
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)

	apiGroup := s.router.Group("/api")
	apiGroup.GET("/controls", s.handleControls)
	apiGroup.GET("/charts/pie", s.handlePieChart)
	apiGroup.GET("/charts/scatter", s.handleScatterChart)
	apiGroup.GET("/report", s.handleReport)

	apiGroup.POST("/sessions", s.handleCreateSession)
	apiGroup.GET("/sessions/:id", s.handleGetSession)
	apiGroup.PUT("/sessions/:id/site", s.handleSelectSite)
	apiGroup.PUT("/sessions/:id/payload", s.handleSelectPayload)
	apiGroup.DELETE("/sessions/:id", s.handleCloseSession)
	apiGroup.GET("/events", s.handleEvents)
}

// respondError writes an AppError-shaped JSON body with the matching status
func (s *Server) respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}
