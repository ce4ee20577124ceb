package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
runner:
  type: replay
  replay_dir: /tmp/replay
ssh:
  timeout:
    timeout_all: 45s
    dial_timeout: 3
    auth_timeout: 4
storage:
  minio:
    host: 127.0.0.1
    port: 9000
    secret_key: ${INTREPORT_TEST_SECRET}
    bucket: reports
modes:
  - name: rx-total
    title: "show interface {range}counters detailed"
    command: "show interface {range}counters detailed"
    nonzero: counter
    rules:
      - counts: [4]
        patterns:
          - heading: ["Frames", "Rx"]
            tokens: ["Rx", "total", "frames:", "%intf_frames_received"]
`

func TestLoadFile(t *testing.T) {
	t.Setenv("INTREPORT_TEST_SECRET", "s3cr3t")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "replay", cfg.Runner.Type)
	assert.Equal(t, "/tmp/replay", cfg.Runner.ReplayDir)
	assert.Equal(t, 45*time.Second, cfg.SSH.Timeout)
	assert.Equal(t, 7*time.Second, cfg.SSH.ConnectTimeout)
	assert.Equal(t, "s3cr3t", cfg.Storage.Minio.SecretKey)

	// 默认值
	assert.Equal(t, "cisco_mds", cfg.Report.Platform)
	assert.Equal(t, 65, cfg.Report.DescriptionCap)
	assert.True(t, cfg.Runner.OutputFilter.CaseInsensitive)

	require.Len(t, cfg.Modes, 1)
	m := cfg.Modes[0]
	assert.Equal(t, "rx-total", m.Name)
	require.Len(t, m.Rules, 1)
	assert.Equal(t, []int{4}, m.Rules[0].Counts)
	assert.Equal(t, []string{"Frames", "Rx"}, m.Rules[0].Patterns[0].Heading)
	assert.Equal(t, "%intf_frames_received", m.Rules[0].Patterns[0].Tokens[3])

	assert.Same(t, cfg, Get())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "exec", cfg.Runner.Type)
	assert.Equal(t, []string{"vsh", "-c"}, cfg.Runner.Shell)
	assert.Equal(t, "physical", cfg.Report.DefaultMode)
	assert.Equal(t, "0.0.0.0:18080", cfg.GetServerAddr())
}
