package ui

import (
	"bytes"
	"strings"

	"aucperm/domain/auc"
	apperrors "aucperm/internal/errors"
	"aucperm/internal/config"

	"github.com/gin-gonic/gin"
)

// methodsParam reads ?methods=a,b, falling back to the configured methods
func (s *Server) methodsParam(c *gin.Context) []auc.Method {
	if raw := c.Query("methods"); strings.TrimSpace(raw) != "" {
		return auc.Methods(config.SplitList(raw))
	}
	return s.config.Methods
}

func (s *Server) segmentationParam(c *gin.Context) auc.Segmentation {
	if seg := strings.TrimSpace(c.Query("segmentation")); seg != "" {
		return auc.Segmentation(seg)
	}
	return s.config.Segmentation
}

// writeError answers with {code, error} and the status matching the error code
func (s *Server) writeError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= 500 {
		s.logger.Error("%s: %v", c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"code":  apperrors.GetCode(err),
		"error": err.Error(),
	})
}

// renderTemplate executes a template with the given data
func (s *Server) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	// First render to a buffer to catch any errors before writing to response
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.writeError(c, apperrors.Wrapf(err, "rendering template %s", templateName))
		return
	}
	c.Data(200, "text/html; charset=utf-8", buf.Bytes())
}
