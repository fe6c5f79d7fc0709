package config

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config controls one lanbrowse process. It can come from a YAML file, from
// flags, or both; flags win.
//
// Example:
//
//	root: /srv/share
//	port: 8080
//	upload_limit_mib: 512
//	tls:
//	  enabled: true
type Config struct {
	Root           string    `yaml:"root"`
	Address        string    `yaml:"address"`
	Port           int       `yaml:"port"`
	UploadLimitMiB int64     `yaml:"upload_limit_mib"`
	MaxConnections int       `yaml:"max_connections"`
	LogLevel       string    `yaml:"log_level"`
	ShowQR         *bool     `yaml:"show_qr"`
	TLS            TLSConfig `yaml:"tls"`
}

type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

const (
	DefaultPort           = 8080
	DefaultUploadLimitMiB = 256
	DefaultLogLevel       = "info"

	// RootEnv names the served directory when neither file nor flags do.
	RootEnv = "LANBROWSE_ROOT"
)

// ErrHelp is returned by Load when usage was requested.
var ErrHelp = flag.ErrHelp

// Load builds a Config from command-line arguments (without the program
// name). A positional argument is taken as the root directory. The result is
// validated.
func Load(args []string, usage io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("lanbrowse", flag.ContinueOnError)
	fs.SetOutput(usage)

	var (
		configFile = fs.String("config", "", "path to a YAML config file")
		root       = fs.String("root", "", "directory to serve (or $"+RootEnv+")")
		address    = fs.String("address", "", "address to bind, empty for all interfaces")
		port       = fs.Int("port", DefaultPort, "port to listen on")
		limit      = fs.Int64("upload-limit-mib", DefaultUploadLimitMiB, "maximum upload request size in MiB")
		maxConns   = fs.Int("max-connections", 0, "maximum concurrent connections, 0 for unlimited")
		logLevel   = fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
		showQR     = fs.Bool("qr", true, "print a QR code of the URL on startup")
		tlsOn      = fs.Bool("tls", false, "serve HTTPS")
		certFile   = fs.String("tls-cert", "", "TLS certificate file, self-signed when empty")
		keyFile    = fs.String("tls-key", "", "TLS private key file")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if *configFile != "" {
		loaded, err := LoadFile(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "root":
			cfg.Root = *root
		case "address":
			cfg.Address = *address
		case "port":
			cfg.Port = *port
		case "upload-limit-mib":
			cfg.UploadLimitMiB = *limit
		case "max-connections":
			cfg.MaxConnections = *maxConns
		case "log-level":
			cfg.LogLevel = *logLevel
		case "qr":
			cfg.ShowQR = showQR
		case "tls":
			cfg.TLS.Enabled = *tlsOn
		case "tls-cert":
			cfg.TLS.CertFile = *certFile
		case "tls-key":
			cfg.TLS.KeyFile = *keyFile
		}
	})

	switch fs.NArg() {
	case 0:
	case 1:
		cfg.Root = fs.Arg(0)
	default:
		return nil, errors.Errorf("expected at most one directory argument, got %d", fs.NArg())
	}
	if cfg.Root == "" {
		cfg.Root = os.Getenv(RootEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile parses a YAML config file. Unknown keys are an error.
func LoadFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "parse yaml config %s", path)
	}
	return cfg, nil
}

// Validate fills in defaults and rejects values the server cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return errors.Errorf("no root directory given (use -root, a config file or $%s)", RootEnv)
	}

	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}

	if c.UploadLimitMiB == 0 {
		c.UploadLimitMiB = DefaultUploadLimitMiB
	}
	if c.UploadLimitMiB < 0 {
		return errors.Errorf("invalid upload_limit_mib %d", c.UploadLimitMiB)
	}
	if c.UploadLimitMiB > 1<<40 {
		return errors.Errorf("upload_limit_mib %d is too large", c.UploadLimitMiB)
	}

	if c.MaxConnections < 0 {
		return errors.Errorf("invalid max_connections %d", c.MaxConnections)
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log_level")
	}

	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return errors.New("tls cert_file and key_file must be set together")
	}
	if c.TLS.CertFile != "" && !c.TLS.Enabled {
		return errors.New("tls cert_file given but tls is not enabled")
	}

	return nil
}

// UploadLimitBytes is the upload ceiling in bytes.
func (c *Config) UploadLimitBytes() int64 {
	return c.UploadLimitMiB << 20
}

func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// Level is the parsed log level. Call after Validate.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// QREnabled reports whether the startup QR code should be printed. It
// defaults to on.
func (c *Config) QREnabled() bool {
	return c.ShowQR == nil || *c.ShowQR
}

// Scheme is "https" when TLS is enabled.
func (c *Config) Scheme() string {
	if c.TLS.Enabled {
		return "https"
	}
	return "http"
}

func (c *Config) String() string {
	return fmt.Sprintf("root=%s listen=%s upload_limit=%dMiB tls=%t", c.Root, c.ListenAddr(), c.UploadLimitMiB, c.TLS.Enabled)
}
