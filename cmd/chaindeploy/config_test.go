package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/chaindeploy/internal/core/fee"
	"github.com/artpar/chaindeploy/internal/core/keys"
	"github.com/artpar/chaindeploy/internal/shell/assembler"
	"github.com/artpar/chaindeploy/internal/shell/project"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CHAINDEPLOY_ENDPOINT", "CHAINDEPLOY_NETWORK", "CHAINDEPLOY_WAIT", "CHAINDEPLOY_LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// =============================================================================
// Config Loading Tests
// =============================================================================

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.explorer.chain.dev/v1", cfg.Endpoint)
	assert.Equal(t, "testnet", cfg.Network)
	assert.Equal(t, 12*time.Second, cfg.Wait)
	assert.Equal(t, 30*time.Second, cfg.Broadcast.Timeout)
	assert.Equal(t, []string{"chainc", "build"}, cfg.Build.Command)
	assert.Empty(t, cfg.Journal.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
endpoint: "http://localhost:3030"
network: "localnet"
wait: 2s

journal:
  path: "/tmp/receipts.db"

log:
  level: "debug"
  format: "json"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configContent), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3030", cfg.Endpoint)
	assert.Equal(t, "localnet", cfg.Network)
	assert.Equal(t, 2*time.Second, cfg.Wait)
	assert.Equal(t, "/tmp/receipts.db", cfg.Journal.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAINDEPLOY_NETWORK", "mainnet")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.Network)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

// =============================================================================
// Exit Code Tests
// =============================================================================

func TestExitCode_Classification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"incompatible options", fee.ErrRecordWithRecursive, ExitConfigError},
		{"no key", keys.ErrNoPrivateKey, ExitKeyError},
		{"no manifest", project.ErrNoManifest, ExitResolutionError},
		{"missing build dir", project.ErrMissingBuildDir, ExitResolutionError},
		{"assembly stage", &assembler.Error{Unit: "a.chain", Stage: assembler.StageFee, Err: errors.New("boom")}, ExitAssemblyError},
		{"broadcast", errors.New("endpoint returned 503"), ExitBroadcastError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, exitCode(tc.err))
		})
	}
}
