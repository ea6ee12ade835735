package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"aucperm/app"
	"aucperm/domain/auc"
	"aucperm/internal"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// ViewerConfig holds what the viewer answers with when a request leaves it out
type ViewerConfig struct {
	Methods      []auc.Method
	Segmentation auc.Segmentation
	Plot         app.RenderOptions
}

// Server represents the report viewer
type Server struct {
	router    *gin.Engine
	service   *app.AUCService
	config    ViewerConfig
	templates *template.Template
	logger    *internal.Logger
}

// NewServer creates a viewer over service
func NewServer(service *app.AUCService, config ViewerConfig, logger *internal.Logger) (*Server, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}

	funcMap := template.FuncMap{
		"pfmt":   func(p float64) string { return fmt.Sprintf("%.3f", p) },
		"aucfmt": func(v float64) string { return fmt.Sprintf("%.4f", v) },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:    gin.New(),
		service:   service,
		config:    config,
		templates: templates,
		logger:    logger.WithComponent("Viewer"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/plot.png", s.handlePlot("png"))
	s.router.GET("/plot.svg", s.handlePlot("svg"))

	api := s.router.Group("/api")
	{
		api.GET("/pvalues", s.handlePValues)
		api.GET("/auc", s.handleAUC)
		api.GET("/report", s.handleReport)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until the listener fails
func (s *Server) Start(addr string) error {
	s.logger.Info("serving AUC report viewer on http://%s", addr)
	return s.router.Run(addr)
}
