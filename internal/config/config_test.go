package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resolvd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultMatchesReference(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":12345", cfg.Listen)
	assert.Equal(t, "cache.txt", cfg.CacheFile)
	assert.Equal(t, 5*time.Second, cfg.LookupDelay)
	assert.Equal(t, time.Second, cfg.AcceptPoll)
	assert.Equal(t, ResolverSystem, cfg.Resolver.Mode)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
listen: 127.0.0.1:5353
lookup_delay: 250ms
max_connections: 32
error_replies: true
save_interval: 1m
resolver:
  mode: upstream
  upstreams: [9.9.9.9, "1.1.1.1:53"]
  timeout: 2s
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:5353", cfg.Listen)
	assert.Equal(t, 250*time.Millisecond, cfg.LookupDelay)
	assert.Equal(t, 32, cfg.MaxConnections)
	assert.True(t, cfg.ErrorReplies)
	assert.Equal(t, time.Minute, cfg.SaveInterval)
	assert.Equal(t, ResolverUpstream, cfg.Resolver.Mode)
	assert.Equal(t, []string{"9.9.9.9", "1.1.1.1:53"}, cfg.Resolver.Upstreams)
	assert.Equal(t, 2*time.Second, cfg.Resolver.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)

	// не указанное в файле берётся из Default()
	assert.Equal(t, "cache.txt", cfg.CacheFile)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadZeroDelay(t *testing.T) {
	cfg, err := Load(writeConfig(t, "lookup_delay: 0s\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.LookupDelay)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "listen: [unterminated\n"))
	assert.Error(t, err)
}

func TestLoadInvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, "resolver:\n  mode: upstream\n"))
	assert.ErrorContains(t, err, "upstreams is empty")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Listen = ""
	cfg.AcceptPoll = 0
	cfg.MaxLineLength = -1
	cfg.AcceptRate = 10
	cfg.Resolver.Mode = "carrier-pigeon"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 5)
	assert.ErrorContains(t, err, `unknown resolver.mode "carrier-pigeon"`)
}
