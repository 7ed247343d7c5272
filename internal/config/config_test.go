package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, ".", cfg.DataDir)
	require.Equal(t, "hot", cfg.Feed)
	require.Equal(t, "day", cfg.Period)
	require.Equal(t, 25, cfg.Limit)
	require.Equal(t, defaultConcurrency, cfg.MaxConcurrent)
	require.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	file := filepath.Join(dir, "mediasaver.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
data_dir: /srv/media
subreddits: [pics, gifs]
feed: top
period: week
limit: 150
human_readable: true
`), 0o644))

	t.Setenv("LIMIT", "40")
	t.Setenv("SUBREDDITS", "earthporn, ,aww")
	t.Setenv("CONSERVE_GIFS", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(file)
	require.NoError(t, err)

	require.Equal(t, "/srv/media", cfg.DataDir)
	require.Equal(t, []string{"earthporn", "aww"}, cfg.Subreddits)
	require.Equal(t, "top", cfg.Feed)
	require.Equal(t, "week", cfg.Period)
	require.Equal(t, 40, cfg.Limit)
	require.True(t, cfg.HumanReadable)
	require.True(t, cfg.ConserveGifs)
	require.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoadRejectsUnknownFeed(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FEED", "controversial")

	_, err := Load("")
	require.Error(t, err)
}
