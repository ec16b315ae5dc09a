package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pledge-points-api/pkg/config"
)

func TestNewWritesParseableTimestampsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	cfg := &config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "info", Format: "json", File: path}}

	logr, err := New(cfg)
	require.NoError(t, err)
	logr.Info("points applied")
	_ = logr.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(strings.Split(string(raw), "\n")[0])

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	stamp, ok := entry[TimeKey].(string)
	require.True(t, ok)
	_, err = time.Parse(TimeLayout, stamp)
	require.NoError(t, err)
	require.Equal(t, "points applied", entry["msg"])
}

func TestNewFallsBackOnBadLevel(t *testing.T) {
	cfg := &config.Config{Env: config.EnvDevelopment, Log: config.LogConfig{Level: "loud", Format: "console"}}
	logr, err := New(cfg)
	require.NoError(t, err)
	require.True(t, logr.Core().Enabled(0))
}
