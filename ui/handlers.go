package ui

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"aucperm/adapters/report"
	"aucperm/app"
	"aucperm/domain/auc"
	"aucperm/domain/core"

	"github.com/gin-gonic/gin"
)

var contentTypes = map[string]string{
	"png":  "image/png",
	"svg":  "image/svg+xml",
	"csv":  "text/csv; charset=utf-8",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"json": "application/json; charset=utf-8",
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleIndex shows the p-value table next to the plot
func (s *Server) handleIndex(c *gin.Context) {
	methods := s.methodsParam(c)
	rep, err := s.service.BuildReport(c.Request.Context(), app.ReportRequest{
		Methods:      methods,
		Segmentation: s.segmentationParam(c),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.renderTemplate(c, "index.html", gin.H{
		"Report":    rep,
		"Methods":   methods,
		"CanPlot":   len(methods) == 2,
		"PlotQuery": template.URL(plotQuery(methods, rep.Segmentation)),
	})
}

func (s *Server) handlePValues(c *gin.Context) {
	ctx := c.Request.Context()
	loaded, err := s.service.LoadTestAUC(ctx, s.methodsParam(c), s.segmentationParam(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	table, err := s.service.PermutationTest(ctx, loaded.Permuted, loaded.Truth)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// handleAUC returns the pooled mean AUCs and, when those runs exist, the unadjusted ones
func (s *Server) handleAUC(c *gin.Context) {
	ctx := c.Request.Context()
	methods := s.methodsParam(c)
	seg := s.segmentationParam(c)

	loaded, err := s.service.LoadTestAUC(ctx, methods, seg)
	if err != nil {
		s.writeError(c, err)
		return
	}
	body := gin.H{
		"segmentation": seg,
		"methods":      methods,
		"true_aucs":    loaded.Truth,
	}

	unadjusted, err := s.service.LoadUnadjustedAUC(ctx, methods, seg)
	switch {
	case err == nil:
		body["unadjusted_aucs"] = unadjusted.Truth
	case !errors.Is(err, core.ErrNotFound):
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handlePlot(format string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		methods := s.methodsParam(c)

		loaded, err := s.service.LoadTestAUC(ctx, methods, s.segmentationParam(c))
		if err != nil {
			s.writeError(c, err)
			return
		}
		opts := s.config.Plot
		opts.Format = format

		var buf bytes.Buffer
		if err := s.service.RenderViolin(ctx, &buf, loaded.Permuted, loaded.Truth, methods, opts); err != nil {
			s.writeError(c, err)
			return
		}
		c.Data(http.StatusOK, contentTypes[format], buf.Bytes())
	}
}

// handleReport downloads the full report as ?format=json (default), csv or xlsx
func (s *Server) handleReport(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	writer, err := report.NewWriter(format)
	if err != nil {
		s.writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	rep, err := s.service.BuildReport(ctx, app.ReportRequest{
		Methods:      s.methodsParam(c),
		Segmentation: s.segmentationParam(c),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := writer.Write(ctx, &buf, rep); err != nil {
		s.writeError(c, err)
		return
	}
	if writer.Format() != "json" {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="pvalues_%s.%s"`, rep.Segmentation, writer.Format()))
	}
	c.Data(http.StatusOK, contentTypes[writer.Format()], buf.Bytes())
}

// plotQuery keeps the page's method selection on the plot link. The result is
// already escaped and safe to mark as a template.URL.
func plotQuery(methods []auc.Method, seg auc.Segmentation) string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	return url.Values{
		"methods":      {strings.Join(names, ",")},
		"segmentation": {string(seg)},
	}.Encode()
}
