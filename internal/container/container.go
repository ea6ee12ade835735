package container

import (
	"fmt"

	"aucperm/adapters/battery"
	"aucperm/adapters/render"
	"aucperm/adapters/results"
	"aucperm/app"
	"aucperm/domain/auc"
	"aucperm/internal"
	"aucperm/internal/config"
	"aucperm/ui"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Adapters
	Reader   *results.Reader
	Referee  *battery.PermutationReferee
	Renderer *render.ViolinRenderer

	Service *app.AUCService
}

// New wires the pipeline for a validated configuration
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	c.Reader = results.NewReader(results.DefaultReaderConfig(cfg.Results.Dir), logger)

	c.Referee = battery.NewPermutationReferee(logger)
	c.Referee.SetAlpha(cfg.Test.Alpha)

	c.Renderer = render.NewViolinRenderer(logger)

	c.Service = app.NewAUCService(c.Reader, c.Referee, c.Renderer, app.ServiceConfig{
		ResultsDir:     cfg.Results.Dir,
		UnpermutedRows: cfg.Results.UnpermutedRows,
		PermutedRows:   cfg.Results.PermutedRows,
	}, logger)

	logger.Debug("container ready: results %s, segmentation %s, methods %v",
		cfg.Results.Dir, cfg.Results.Segmentation, cfg.Results.Methods)
	return c, nil
}

// Methods returns the configured methods
func (c *Container) Methods() []auc.Method {
	return auc.Methods(c.Config.Results.Methods)
}

// Segmentation returns the configured segmentation
func (c *Container) Segmentation() auc.Segmentation {
	return auc.Segmentation(c.Config.Results.Segmentation)
}

// RenderOptions returns the configured plot settings for format
func (c *Container) RenderOptions(format string) app.RenderOptions {
	return app.RenderOptions{
		XMin:   c.Config.Plot.XMin,
		XMax:   c.Config.Plot.XMax,
		Width:  c.Config.Plot.WidthIn,
		Height: c.Config.Plot.HeightIn,
		Format: format,
	}
}

// Viewer builds the HTTP report viewer over the container's service
func (c *Container) Viewer() (*ui.Server, error) {
	return ui.NewServer(c.Service, ui.ViewerConfig{
		Methods:      c.Methods(),
		Segmentation: c.Segmentation(),
		Plot:         c.RenderOptions("png"),
	}, c.Logger)
}
