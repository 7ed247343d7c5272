package database_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ruizlenato/mediasaver/internal/database"
)

func openTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, database.Open(filepath.Join(t.TempDir(), "history.db")))
	require.NoError(t, database.CreateTables())
	t.Cleanup(database.Close)
}

func TestSaveDownloadRoundTrip(t *testing.T) {
	openTestDB(t)

	path, err := database.DownloadedPath("https://i.redd.it/abc.jpg")
	require.NoError(t, err)
	require.Empty(t, path)

	require.NoError(t, database.SaveDownload(database.Download{
		URL:       "https://i.redd.it/abc.jpg",
		Path:      "/data/pics/abc.jpg",
		Subreddit: "pics",
		PostName:  "t3_abc",
		RunID:     "run-1",
	}))

	path, err = database.DownloadedPath("https://i.redd.it/abc.jpg")
	require.NoError(t, err)
	require.Equal(t, "/data/pics/abc.jpg", path)

	// A second save of the same URL updates the row in place.
	require.NoError(t, database.SaveDownload(database.Download{
		URL:   "https://i.redd.it/abc.jpg",
		Path:  "/data/pics/abc.mp4",
		RunID: "run-2",
	}))

	path, err = database.DownloadedPath("https://i.redd.it/abc.jpg")
	require.NoError(t, err)
	require.Equal(t, "/data/pics/abc.mp4", path)

	count, err := database.CountRun("run-1")
	require.NoError(t, err)
	require.Zero(t, count)

	count, err = database.CountRun("run-2")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestLedgerWithoutDatabase(t *testing.T) {
	require.Nil(t, database.DB)

	require.NoError(t, database.SaveDownload(database.Download{URL: "https://i.redd.it/x.jpg", Path: "x"}))

	path, err := database.DownloadedPath("https://i.redd.it/x.jpg")
	require.NoError(t, err)
	require.Empty(t, path)
}
