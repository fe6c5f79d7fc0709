package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mdp/qrterminal/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"lanbrowse/internal/browse"
	"lanbrowse/internal/config"
	"lanbrowse/internal/netaddr"
	"lanbrowse/internal/server"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "lanbrowse: %v\n", err)
		os.Exit(2)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("exiting")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	if cfg.Level() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	log.Debugf("configuration: %s", cfg)

	root, err := browse.NewRoot(cfg.Root)
	if err != nil {
		return errors.Wrap(err, "open root")
	}

	srv, err := server.New(server.Options{
		Root:        root,
		UploadLimit: cfg.UploadLimitBytes(),
		Logger:      log,
	})
	if err != nil {
		return errors.Wrap(err, "initialize server")
	}

	ln, err := server.Listen(cfg.ListenAddr(), cfg.MaxConnections)
	if err != nil {
		return err
	}

	lanIP, err := netaddr.LocalIP()
	if err != nil {
		log.WithError(err).Warn("could not determine LAN address")
	}

	var tlsConfig *tls.Config
	if cfg.TLS.Enabled {
		var hosts []net.IP
		if lanIP != nil {
			hosts = append(hosts, lanIP)
		}
		tlsConfig, err = server.TLSConfig(cfg.TLS.CertFile, cfg.TLS.KeyFile, hosts...)
		if err != nil {
			_ = ln.Close()
			return err
		}
	}

	url := publicURL(cfg.Scheme(), lanIP, ln.Addr())
	log.WithFields(logrus.Fields{
		"root":         root.Dir(),
		"listen":       ln.Addr().String(),
		"upload_limit": browse.FormatSize(cfg.UploadLimitBytes()),
		"tls":          cfg.TLS.Enabled,
	}).Infof("serving on %s", url)
	if cfg.QREnabled() {
		printQR(url)
	}

	return srv.Serve(ctx, ln, tlsConfig)
}

// publicURL is the address to advertise: the LAN IP when known, otherwise
// whatever the listener bound.
func publicURL(scheme string, lanIP net.IP, addr net.Addr) string {
	host, port := "localhost", ""
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = strconv.Itoa(tcp.Port)
		if !tcp.IP.IsUnspecified() {
			host = tcp.IP.String()
		}
	}
	if lanIP != nil && host == "localhost" {
		host = lanIP.String()
	}
	return fmt.Sprintf("%s://%s/", scheme, net.JoinHostPort(host, port))
}

func printQR(url string) {
	qrterminal.GenerateWithConfig(url, qrterminal.Config{
		Level:          qrterminal.M,
		Writer:         os.Stdout,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
		QuietZone:      1,
	})
}
