package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"hlswalk/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "streams.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_AppliesDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `{
		"userAgent": "hlswalk-default/1.0",
		"streams": [
			{"name": "news", "entryUrl": "https://cdn.example.com/news/master.m3u8"},
			{
				"name": "sports",
				"entryUrl": "https://cdn.example.com/sports/master.m3u8",
				"userAgent": "hlswalk-sports/2.0",
				"masterPlaylistTimeout": "45s",
				"concurrency": 16
			}
		]
	}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Streams, 2)

	news := cfg.Streams[0]
	assert.Equal(t, "hlswalk-default/1.0", news.UserAgent)
	assert.Zero(t, news.MasterPlaylistTimeout)

	sports := cfg.Streams[1]
	assert.Equal(t, "hlswalk-sports/2.0", sports.UserAgent)
	assert.Equal(t, 45*time.Second, sports.MasterPlaylistTimeout)
	assert.Equal(t, 16, sports.Concurrency)

	opts := sports.WalkOptions()
	assert.Equal(t, 45*time.Second, opts.MasterPlaylistTimeout)
	assert.Equal(t, 16, opts.Concurrency)
}

func TestLoad_RejectsMissingEntryURL(t *testing.T) {
	path := writeConfig(t, `{"streams": [{"name": "broken"}]}`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsEmptyStreamList(t *testing.T) {
	path := writeConfig(t, `{"streams": []}`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidDuration(t *testing.T) {
	path := writeConfig(t, `{"streams": [{"name": "x", "entryUrl": "https://x/a.m3u8", "masterPlaylistTimeout": "not-a-duration"}]}`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
