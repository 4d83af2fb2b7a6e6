package sched

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"
)

// captureWarnings collects root logger messages at warn level or above until
// the test ends.
func captureWarnings(t *testing.T) *[]string {
	t.Helper()
	var msgs []string
	prev := log.Root().GetHandler()
	log.Root().SetHandler(log.FuncHandler(func(r *log.Record) error {
		if r.Lvl <= log.LvlWarn {
			msgs = append(msgs, r.Msg)
		}
		return nil
	}))
	t.Cleanup(func() { log.Root().SetHandler(prev) })
	return &msgs
}

func TestLoadDefaults(t *testing.T) {
	warnings := captureWarnings(t)
	require.Equal(t, DefaultConfig(), Load(""))
	require.Empty(t, *warnings)

	require.Equal(t, DefaultConfig(), Load(filepath.Join(t.TempDir(), "missing.yml")))
	require.Equal(t, []string{"Config not readable, using defaults"}, *warnings)
}

func TestLoadWarnsOnBadYAML(t *testing.T) {
	warnings := captureWarnings(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("horizon: soon\nprotocol: PIP\n"), 0o644))

	require.Equal(t, DefaultConfig(), Load(path))
	require.Equal(t, []string{"Config not decodable, using defaults"}, *warnings)
}

func TestLoadOverridesAndClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := []byte("horizon: -4\nepsilon: 0\nprotocol: pip\ntick_ms: -1\nworkers: 0\nlog_level: debug\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg := Load(path)
	require.Equal(t, int64(1), cfg.Horizon)
	require.Equal(t, 1e-9, cfg.Epsilon)
	require.Equal(t, "PIP", cfg.Protocol)
	require.Equal(t, 0, cfg.TickMS)
	require.Equal(t, 1, cfg.Workers)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadKeepsValidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("horizon: 250\nepsilon: 0.001\nworkers: 2\n"), 0o644))

	cfg := Load(path)
	require.Equal(t, int64(250), cfg.Horizon)
	require.Equal(t, 0.001, cfg.Epsilon)
	require.Equal(t, 2, cfg.Workers)
	require.Equal(t, "NPP", cfg.Protocol)
}
