package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resolvd/internal/config"
)

func parsedCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	flags = rootFlags{}
	t.Cleanup(func() { flags = rootFlags{} })

	require.NoError(t, rootCmd.ParseFlags(args))
	return rootCmd
}

func TestApplyFlagsOverridesOnlyChanged(t *testing.T) {
	cmd := parsedCommand(t, "--listen", "127.0.0.1:5300", "--delay", "0", "--upstream", "9.9.9.9,1.1.1.1", "--resolver", "upstream")

	cfg := config.Default()
	require.NoError(t, applyFlags(cmd, &cfg))

	assert.Equal(t, "127.0.0.1:5300", cfg.Listen)
	assert.Zero(t, cfg.LookupDelay)
	assert.Equal(t, config.ResolverUpstream, cfg.Resolver.Mode)
	assert.Equal(t, []string{"9.9.9.9", "1.1.1.1"}, cfg.Resolver.Upstreams)

	assert.Equal(t, "cache.txt", cfg.CacheFile)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("1500ms")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	d, err = parseDuration("2")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)

	_, err = parseDuration("soon")
	assert.Error(t, err)
}
