package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dogukanarat/danp/config"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "danp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadValid(t *testing.T) {
	path := writeConfig(t, `
node: 5
log_level: debug
routes: "1:lo"
links:
  - name: lo
    kind: loopback
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, uint16(5), cfg.Node)
	require.Equal(t, "1:lo", cfg.Routes)
	require.Len(t, cfg.Links, 1)
	require.Equal(t, "loopback", cfg.Links[0].Kind)
}

func TestLoadRejectsReservedNode(t *testing.T) {
	path := writeConfig(t, "node: 0\n")
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
