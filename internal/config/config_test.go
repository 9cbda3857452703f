package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/deploykit/internal/config"
	"github.com/aretw0/deploykit/pkg/adapters/aelf"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deploykit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	v := config.New("")
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Empty(t, config.File(v))
	assert.Equal(t, aelf.DefaultNodeURL, cfg.Node.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Deploy.PollInterval)
	assert.True(t, cfg.Deploy.RequireProposal)
	assert.Equal(t, 0.95, cfg.Deploy.ProgressCap)
	assert.Zero(t, cfg.Deploy.MaxWait)
	assert.Equal(t, "default", cfg.LockKey())

	rt := cfg.Runtime()
	assert.Equal(t, 0.1, rt.ProgressStart)
	assert.Equal(t, 0.1, rt.ProgressStep)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
node:
  endpoint: http://127.0.0.1:8000
deploy:
  poll_interval: 2s
  max_wait: 10m
  require_proposal: false
wallet:
  address: 2abc
lock:
  redis_addr: localhost:6379
  redis_password: hunter2
`)
	t.Setenv("DEPLOYKIT_DEPLOY_POLL_INTERVAL", "750ms")

	v := config.New(path)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, path, config.File(v))
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Node.Endpoint)
	assert.Equal(t, 750*time.Millisecond, cfg.Deploy.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.Deploy.MaxWait)
	assert.False(t, cfg.Deploy.RequireProposal)
	assert.Equal(t, "2abc", cfg.LockKey())
	assert.Equal(t, "2abc", cfg.Runtime().Key)
	assert.Equal(t, "hunter2", cfg.Lock.RedisPassword)

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "poll_interval: 750ms")
	assert.NotContains(t, string(out), "hunter2")
}

func TestLoad_FlagsWin(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DEPLOYKIT_NODE_ENDPOINT", "http://env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("node", "", "")
	fs.Bool("json", false, "")
	require.NoError(t, fs.Parse([]string{"--node", "http://flag", "--json"}))

	v := config.New("")
	require.NoError(t, config.BindFlags(v, fs, map[string]string{
		"node.endpoint": "node",
		"log.json":      "json",
		"server.addr":   "missing",
	}))
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "http://flag", cfg.Node.Endpoint)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeFile(t, `
deploy:
  progress_cap: 1.5
  poll_interval: 0s
log:
  level: loud
`)
	_, err := config.Load(config.New(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deploy.progress_cap")
	assert.Contains(t, err.Error(), "deploy.poll_interval")
	assert.Contains(t, err.Error(), "log.level")
}

func TestLoad_Malformed(t *testing.T) {
	path := writeFile(t, "deploy: [\n")
	_, err := config.Load(config.New(path))
	assert.Error(t, err)
}
