package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lanbrowse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(RootEnv, "")

	cfg, err := Load([]string{"/srv/share"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "/srv/share", cfg.Root)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.EqualValues(t, DefaultUploadLimitMiB, cfg.UploadLimitMiB)
	assert.EqualValues(t, 256<<20, cfg.UploadLimitBytes())
	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
	assert.True(t, cfg.QREnabled())
	assert.False(t, cfg.TLS.Enabled)
	assert.Equal(t, "http", cfg.Scheme())
	assert.Equal(t, "root=/srv/share listen=:8080 upload_limit=256MiB tls=false", cfg.String())
}

func TestLoad_RootFromEnv(t *testing.T) {
	t.Setenv(RootEnv, "/from/env")

	cfg, err := Load(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Root)

	cfg, err = Load([]string{"-root", "/from/flag"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.Root)
}

func TestLoad_MissingRoot(t *testing.T) {
	t.Setenv(RootEnv, "")

	_, err := Load(nil, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no root directory")
}

func TestLoad_FileThenFlags(t *testing.T) {
	t.Setenv(RootEnv, "")
	path := writeConfig(t, `
root: /from/file
address: 127.0.0.1
port: 9090
upload_limit_mib: 16
max_connections: 32
log_level: debug
show_qr: false
`)

	cfg, err := Load([]string{"-config", path}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "/from/file", cfg.Root)
	assert.Equal(t, "127.0.0.1:9090", cfg.ListenAddr())
	assert.EqualValues(t, 16<<20, cfg.UploadLimitBytes())
	assert.Equal(t, 32, cfg.MaxConnections)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
	assert.False(t, cfg.QREnabled())

	cfg, err = Load([]string{"-config", path, "-port", "7000", "-qr"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Address)
	assert.True(t, cfg.QREnabled())
}

func TestLoad_UnsetFlagsDoNotOverrideFile(t *testing.T) {
	t.Setenv(RootEnv, "")
	path := writeConfig(t, "root: /data\nport: 9000\n")

	cfg, err := Load([]string{"-config", path, "-log-level", "warn"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, logrus.WarnLevel, cfg.Level())
}

func TestLoad_PositionalRootWins(t *testing.T) {
	t.Setenv(RootEnv, "/env")
	cfg, err := Load([]string{"-root", "/flag", "/positional"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "/positional", cfg.Root)

	_, err = Load([]string{"/a", "/b"}, io.Discard)
	require.Error(t, err)
}

func TestLoad_Help(t *testing.T) {
	_, err := Load([]string{"-h"}, io.Discard)
	assert.True(t, errors.Is(err, ErrHelp))
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadFile(writeConfig(t, "root: /x\nbogus_key: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus_key")

	_, err = LoadFile(writeConfig(t, "port: [1, 2\n"))
	require.Error(t, err)

	cfg, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Root)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "ok", cfg: Config{Root: "/x"}},
		{name: "port too high", cfg: Config{Root: "/x", Port: 70000}, wantErr: "invalid port"},
		{name: "negative port", cfg: Config{Root: "/x", Port: -1}, wantErr: "invalid port"},
		{name: "negative limit", cfg: Config{Root: "/x", UploadLimitMiB: -5}, wantErr: "upload_limit_mib"},
		{name: "negative connections", cfg: Config{Root: "/x", MaxConnections: -1}, wantErr: "max_connections"},
		{name: "bad level", cfg: Config{Root: "/x", LogLevel: "loud"}, wantErr: "log_level"},
		{name: "cert without key", cfg: Config{Root: "/x", TLS: TLSConfig{Enabled: true, CertFile: "c.pem"}}, wantErr: "set together"},
		{name: "cert without tls", cfg: Config{Root: "/x", TLS: TLSConfig{CertFile: "c.pem", KeyFile: "k.pem"}}, wantErr: "not enabled"},
		{name: "tls with files", cfg: Config{Root: "/x", TLS: TLSConfig{Enabled: true, CertFile: "c.pem", KeyFile: "k.pem"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
