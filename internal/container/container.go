package container

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"launchdash/adapters/excel"
	"launchdash/adapters/postgres"
	"launchdash/domain/launch"
	"launchdash/internal"
	"launchdash/internal/api"
	"launchdash/internal/config"
	"launchdash/internal/dashboard"
	"launchdash/internal/query"
	"launchdash/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB     *sqlx.DB
	Source ports.LaunchSource

	// Query side
	Dataset *launch.Dataset
	Engine  *query.Engine

	// Dashboard sessions and their event stream
	Sessions *dashboard.Manager
	SSEHub   *api.SSEHub

	logger *internal.Logger
}

// New creates a container and loads the dataset. Any error is fatal to the caller.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		logger: internal.DefaultLogger.Component("Container"),
	}

	source, err := c.buildSource(ctx)
	if err != nil {
		c.Shutdown(ctx)
		return nil, err
	}
	c.Source = source

	if err := c.InitWithSource(ctx, source); err != nil {
		c.Shutdown(ctx)
		return nil, err
	}
	return c, nil
}

// InitWithSource loads the dataset from source and wires the query side
func (c *Container) InitWithSource(ctx context.Context, source ports.LaunchSource) error {
	dataset, err := source.Load(ctx)
	if err != nil {
		return err
	}
	c.Dataset = dataset
	c.Engine = query.NewEngine(dataset)

	step := 1000.0
	keepAlive := c.Config.Server.SSEKeepAlive
	if c.Config.Dashboard.PayloadStep > 0 {
		step = c.Config.Dashboard.PayloadStep
	}
	c.Sessions = dashboard.NewManager(c.Engine, step)
	c.SSEHub = api.NewSSEHub(keepAlive)

	bounds, _ := dataset.PayloadBounds()
	c.logger.Info("Loaded %d launch records from %s (sites: %d, payload %g - %g kg)",
		dataset.Len(), dataset.Source(), len(dataset.Sites()), bounds.Min, bounds.Max)
	return nil
}

func (c *Container) buildSource(ctx context.Context) (ports.LaunchSource, error) {
	source, db, err := NewSource(ctx, c.Config)
	c.DB = db
	return source, err
}

// NewSource builds the configured launch source. For the postgres source the
// opened connection is returned as well, and must be closed by the caller even
// when err is non-nil.
func NewSource(ctx context.Context, cfg *config.Config) (ports.LaunchSource, *sqlx.DB, error) {
	switch cfg.Dataset.Source {
	case config.SourcePostgres:
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		repo, err := postgres.NewLaunchRepository(db, cfg.Dataset.Table)
		if err != nil {
			return nil, db, err
		}
		return repo, db, nil
	default:
		excelConfig := excel.DefaultExcelConfig()
		excelConfig.FilePath = cfg.Dataset.File
		if cfg.Dataset.Sheet != "" {
			excelConfig.Sheet = cfg.Dataset.Sheet
		}
		return excel.NewLaunchSource(excelConfig), nil, nil
	}
}

// Shutdown releases background resources
func (c *Container) Shutdown(ctx context.Context) {
	if c.SSEHub != nil {
		c.SSEHub.Stop()
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.logger.Warn("Failed to close database: %v", err)
		}
	}
}
