package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"launchdash/domain/launch"
	"launchdash/internal"
	"launchdash/internal/dashboard"
	"launchdash/internal/errors"
	"launchdash/internal/query"
)

// App is the read-only JSON API over the query engine
type App struct {
	router   *chi.Mux
	engine   *query.Engine
	controls dashboard.Controls
	logger   *internal.Logger
}

// NewApp creates the API router. step is the payload slider increment reported by /controls.
func NewApp(engine *query.Engine, step float64) *App {
	a := &App{
		router:   chi.NewRouter(),
		engine:   engine,
		controls: dashboard.NewControls(engine.Dataset(), step),
		logger:   internal.DefaultLogger.Component("API"),
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// ServeHTTP implements http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Start runs the API on addr
func (a *App) Start(addr string) error {
	a.logger.Info("Listening on %s", addr)
	return http.ListenAndServe(addr, a)
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	a.router.Get("/health", a.handleHealth)
	a.router.Route("/v1", func(r chi.Router) {
		r.Get("/controls", a.handleControls)
		r.Get("/sites/{site}/distribution", a.handleSiteDistribution)
		r.Get("/distribution", a.handleDistribution)
		r.Get("/outcomes", a.handleOutcomes)
		r.Get("/summary", a.handleSummary)
	})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"records": a.engine.Dataset().Len(),
	})
}

func (a *App) handleControls(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.controls)
}

func (a *App) handleDistribution(w http.ResponseWriter, r *http.Request) {
	sel := launch.ParseSelection(r.URL.Query().Get("site"))
	a.writeJSON(w, http.StatusOK, a.engine.SuccessDistribution(sel))
}

func (a *App) handleSiteDistribution(w http.ResponseWriter, r *http.Request) {
	sel := launch.ParseSelection(chi.URLParam(r, "site"))
	a.writeJSON(w, http.StatusOK, a.engine.SuccessDistribution(sel))
}

func (a *App) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	sel, pr, err := a.selectionFromQuery(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"selection": sel,
		"range":     pr,
		"records":   a.engine.PayloadOutcomes(sel, pr),
	})
}

func (a *App) handleSummary(w http.ResponseWriter, r *http.Request) {
	sel, pr, err := a.selectionFromQuery(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	summary, err := query.Summarize(a.engine.PayloadOutcomes(sel, pr))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, summary)
}

func (a *App) selectionFromQuery(r *http.Request) (launch.Selection, launch.PayloadRange, error) {
	q := r.URL.Query()
	sel := launch.ParseSelection(q.Get("site"))
	pr, err := dashboard.ParsePayloadRange(q.Get("min"), q.Get("max"), a.controls.Bounds)
	return sel, pr, err
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("Failed to encode response: %v", err)
	}
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed: %v", err)
	}
	a.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}
