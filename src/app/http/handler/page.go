package handler

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"webscaffold/src/app/http/response"
	"webscaffold/src/app/http/view"
	"webscaffold/src/app/middleware"
)

// PageHandler serves files from the public directory and falls back to the
// rendered page template for every other path.
type PageHandler struct {
	publicDir string
	tmpl      *view.Template
	log       *slog.Logger
}

// NewPageHandler creates a new PageHandler. An empty publicDir disables
// static files.
func NewPageHandler(publicDir string, tmpl *view.Template, log *slog.Logger) *PageHandler {
	return &PageHandler{publicDir: publicDir, tmpl: tmpl, log: log}
}

// Serve handles any request no route matched.
func (h *PageHandler) Serve(c *gin.Context) {
	if file, ok := h.staticFile(c.Request.URL.Path); ok {
		c.File(file)
		return
	}

	html, err := h.tmpl.Render(view.Page{})
	if err != nil {
		middleware.GetLogger(c, h.log).Error("failed to render page", "error", err)
		response.InternalError(c, middleware.GetRequestID(c))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// indexFile is served for a directory path that contains one.
const indexFile = "index.html"

// staticFile maps a URL path into the public directory. Cleaning against
// "/" keeps the result inside the directory.
func (h *PageHandler) staticFile(urlPath string) (string, bool) {
	if h.publicDir == "" {
		return "", false
	}
	file := filepath.Join(h.publicDir, filepath.FromSlash(path.Clean("/"+urlPath)))
	info, err := os.Stat(file)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		file = filepath.Join(file, indexFile)
		if info, err = os.Stat(file); err != nil {
			return "", false
		}
	}
	if !info.Mode().IsRegular() {
		return "", false
	}
	return file, true
}
