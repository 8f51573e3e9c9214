package http

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// StaticCheckName is the health check name reported by StaticDir.
const StaticCheckName = "static"

// StaticDir is the directory of browser assets served at the site root.
// It doubles as a readiness check: a missing directory or index page makes
// the service not ready.
type StaticDir struct {
	path string
}

// NewStaticDir creates a StaticDir rooted at path.
func NewStaticDir(path string) *StaticDir {
	return &StaticDir{path: path}
}

// Path returns the served directory.
func (s *StaticDir) Path() string {
	return s.path
}

// Name implements ports.HealthChecker.
func (s *StaticDir) Name() string {
	return StaticCheckName
}

// Check implements ports.HealthChecker.
func (s *StaticDir) Check(_ context.Context) error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("static dir: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("static dir: %s is not a directory", s.path)
	}

	if _, err := os.Stat(filepath.Join(s.path, "index.html")); err != nil {
		return fmt.Errorf("static index: %w", err)
	}

	return nil
}

// Handler serves files from the directory. Requests for missing files fall
// through to the next handler. Directories are served only through their
// index.html.
func (s *StaticDir) Handler() gin.HandlerFunc {
	return static.Serve("/", static.LocalFile(s.path, false))
}
