package server

import (
	"context"
	"crypto/tls"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"

	"lanbrowse/internal/browse"
	"lanbrowse/internal/upload"
)

const shutdownTimeout = 10 * time.Second

type Options struct {
	Root browse.Root
	// UploadLimit caps the bytes of one upload request. Zero means upload.DefaultLimit.
	UploadLimit int64
	Logger      *logrus.Logger
}

// Server holds everything a request needs. It is not modified after New.
type Server struct {
	engine      *gin.Engine
	root        browse.Root
	uploadLimit int64
	log         *logrus.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Root.Dir() == "" {
		return nil, errors.New("server root is not set")
	}
	if opts.UploadLimit <= 0 {
		opts.UploadLimit = upload.DefaultLimit
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	pages, err := newPageTemplates()
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}

	engine := gin.New()
	// Directory redirects are decided against the filesystem, not the route table.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false
	engine.SetHTMLTemplate(pages)

	srv := &Server{
		engine:      engine,
		root:        opts.Root,
		uploadLimit: opts.UploadLimit,
		log:         opts.Logger,
	}

	engine.Use(securityHeaders(), requestID(), srv.requestLogger(), srv.recovery())

	assets := http.FS(staticFS())
	for _, name := range []string{"layout.css", "favicon.svg", "folder.svg", "file.svg"} {
		engine.StaticFileFS(assetPrefix+"static/"+name, name, assets)
	}
	engine.GET(assetPrefix+"healthz", srv.handleHealth)
	engine.NoRoute(srv.dispatch)

	return srv, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Listen opens a TCP listener on addr. maxConns > 0 caps concurrent connections.
func Listen(addr string, maxConns int) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", addr)
	}
	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}
	return ln, nil
}

// Serve answers requests on ln until ctx is done, then shuts down gracefully.
// A nil tlsConfig serves plain HTTP.
func (s *Server) Serve(ctx context.Context, ln net.Listener, tlsConfig *tls.Config) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		ErrorLog:          log.New(s.log.WriterLevel(logrus.WarnLevel), "", 0),
	}
	if tlsConfig != nil {
		ln = tls.NewListener(ln, tlsConfig)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
