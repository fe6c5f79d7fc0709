package server

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// serveFile streams a regular file. ServeContent handles Range, HEAD and
// conditional requests.
func (s *Server) serveFile(c *gin.Context, absPath string) {
	f, err := os.Open(absPath)
	if err != nil {
		s.respondError(c, errors.Wrapf(err, "open %s", absPath))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.respondError(c, errors.Wrapf(err, "stat %s", absPath))
		return
	}
	if !info.Mode().IsRegular() {
		s.respondError(c, errNotFound)
		return
	}

	c.Header("Cache-Control", "no-cache")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}
