package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"lanbrowse/internal/browse"
	"lanbrowse/internal/upload"
)

// dispatch is the catch-all: every path that is not a server asset names a
// location under the root.
func (s *Server) dispatch(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet, http.MethodHead:
		s.handleBrowse(c)
	case http.MethodPost:
		s.handleUpload(c)
	default:
		c.Header("Allow", "GET, HEAD, POST")
		s.respondError(c, errMethodNotAllowed)
	}
}

func (s *Server) handleBrowse(c *gin.Context) {
	target, err := s.root.Lookup(requestPath(c.Request))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Set(targetKindKey, target.Kind.String())

	switch target.Kind {
	case browse.TargetFile:
		s.serveFile(c, target.Path.Abs)
	case browse.TargetDirectory:
		// Relative entry and breadcrumb links only work from a URL ending in "/".
		if !strings.HasSuffix(c.Request.URL.Path, "/") {
			location := listingURL(c.Request)
			if q := c.Request.URL.RawQuery; q != "" {
				location += "?" + q
			}
			c.Redirect(http.StatusMovedPermanently, location)
			return
		}
		c.Header("Cache-Control", "no-store")
		c.HTML(http.StatusOK, "index", indexPageData{
			Listing:     target.Listing,
			UploadLimit: browse.FormatSize(s.uploadLimit),
		})
	default:
		s.respondError(c, errNotFound)
	}
}

func (s *Server) handleUpload(c *gin.Context) {
	resolved, err := s.root.Resolve(requestPath(c.Request))
	if err != nil {
		s.respondError(c, err)
		return
	}

	info, err := os.Stat(resolved.Abs)
	if err != nil {
		s.respondError(c, errors.Wrapf(err, "stat %s", resolved.Abs))
		return
	}
	if !info.IsDir() {
		s.respondError(c, errUploadTarget)
		return
	}

	accepted, err := upload.Ingest(c.Request.Context(), resolved.Abs, c.GetHeader("Content-Type"), c.Request.Body, s.uploadLimit)
	if err != nil {
		s.respondError(c, err)
		return
	}

	log := s.requestLog(c)
	for _, f := range accepted.Files {
		log.WithFields(logrus.Fields{
			"dir":  "/" + resolved.Rel,
			"name": f.Name,
			"size": f.Size,
		}).Info("file uploaded")
	}

	c.Redirect(http.StatusSeeOther, listingURL(c.Request))
}

func (s *Server) handleHealth(c *gin.Context) {
	if _, err := os.Stat(s.root.Dir()); err != nil {
		s.requestLog(c).WithError(err).Error("root is unreachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) respondError(c *gin.Context, err error) {
	if err == nil {
		err = errInternal
	}

	httpErr := classify(err)
	log := s.requestLog(c).WithField("status", httpErr.Status)
	switch {
	case httpErr.Status >= http.StatusInternalServerError:
		log.WithError(err).Error("request failed")
	case httpErr.cause != nil:
		log.WithError(err).Warn("request rejected")
	}

	c.Header("Cache-Control", "no-store")
	c.HTML(httpErr.Status, "error", errorPageData{
		Title:   httpErr.Title,
		Message: httpErr.Message,
	})
	c.Abort()
}
