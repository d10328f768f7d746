package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	return path
}

func TestLoadPath_Defaults(t *testing.T) {
	path := writeConfig(t, `
api_url: "http://localhost:3000/api/v1"
leaderboard:
  token: "coc"
`)

	cfg, err := LoadPath(path)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "http://localhost:3000/api/v1", cfg.APIURL)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 60*time.Second, cfg.Client.UploadTimeout)
	assert.False(t, cfg.Client.LegacyEnvelopes)
	assert.Equal(t, uint64(2), cfg.Client.Retry.MaxAttempts)
	assert.Equal(t, 16, cfg.List.PageSize)
	assert.Equal(t, "latest", cfg.List.Sort)
	assert.Equal(t, 5*time.Minute, cfg.Months.CacheTTL)
}

func TestLoadPath_MissingRequired(t *testing.T) {
	path := writeConfig(t, `
env: "dev"
`)

	_, err := LoadPath(path)
	assert.Error(t, err)
}

func TestLoadPath_FileMissing(t *testing.T) {
	_, err := LoadPath(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMustLoadPath_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustLoadPath(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
