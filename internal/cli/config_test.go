package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
apiUrl: https://org.example/api/data/v9.2
token: secret
cachePath: /tmp/fetchview-cache.db
maxPages: 20
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://org.example/api/data/v9.2", cfg.APIURL)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, "/tmp/fetchview-cache.db", cfg.CachePath)
	assert.Equal(t, 20, cfg.MaxPages)
}

func TestLoadConfigExplicitPathMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfigDefaultMissingIsEmpty(t *testing.T) {
	t.Setenv("FETCHVIEW_CONFIG", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, cfg.APIURL)
	assert.Zero(t, cfg.MaxPages)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiUrl: https://env.example\n"), 0644))
	t.Setenv("FETCHVIEW_CONFIG", path)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "https://env.example", cfg.APIURL)
}

func TestLoadConfigEnvMissingIsError(t *testing.T) {
	t.Setenv("FETCHVIEW_CONFIG", filepath.Join(t.TempDir(), "gone.yaml"))

	_, err := LoadConfig("")
	require.Error(t, err)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiUrl: [unclosed"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
